package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteXLSX_RoundTrip(t *testing.T) {
	rows := [][]string{
		{"Old Page URL", "Destination Page URL", "Redirect Type"},
		{"/old", "/new", "301"},
		{"/gone", "", "302"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, "Redirects", rows))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Redirects"}, f.GetSheetList())

	got, err := f.GetRows("Redirects")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, rows[0], got[0])
	assert.Equal(t, rows[1], got[1])
	// GetRows trims trailing empty cells but keeps inner ones.
	assert.Equal(t, []string{"/gone", "", "302"}, got[2])
}

func TestWriteXLSX_HeaderIsBold(t *testing.T) {
	f, err := Workbook("Slugs", [][]string{{"Slug"}, {"/about"}})
	require.NoError(t, err)
	defer f.Close()

	styleID, err := f.GetCellStyle("Slugs", "A1")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	require.NotNil(t, style.Font)
	assert.True(t, style.Font.Bold)

	val, err := f.GetCellValue("Slugs", "A2")
	require.NoError(t, err)
	assert.Equal(t, "/about", val)
}

func TestWriteXLSX_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, "Slugs", nil))
	assert.NotZero(t, buf.Len())
}

func TestWorkbook_ColumnWidths(t *testing.T) {
	long := "/" + strings.Repeat("x", 99)
	f, err := Workbook("Redirects", [][]string{{"Old Page URL", "Type"}, {long, "301"}})
	require.NoError(t, err)
	defer f.Close()

	width, err := f.GetColWidth("Redirects", "A")
	require.NoError(t, err)
	assert.Equal(t, 82.0, width)

	width, err = f.GetColWidth("Redirects", "B")
	require.NoError(t, err)
	assert.Equal(t, 12.0, width)
}

func TestWorkbook_TooManyColumns(t *testing.T) {
	_, err := Workbook("Slugs", [][]string{make([]string, excelize.MaxColumns+1)})
	assert.Error(t, err)
}
