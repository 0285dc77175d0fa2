package core

import (
	"bytes"
	"errors"
	"testing"
)

func TestExportSlugs(t *testing.T) {
	got := ExportSlugs([]string{"/", "/a,b"})
	want := "Slug\n/\n\"/a,b\""
	if got != want {
		t.Errorf("ExportSlugs() = %q, want %q", got, want)
	}
}

func TestExportRedirects(t *testing.T) {
	records := []RedirectRecord{
		{Old: "/old", Destination: "pricing", Type: ""},
		{Old: "/x", Destination: "", Type: "302"},
	}
	got := ExportRedirects(records)
	want := "Old Page URL,Destination Page URL,Redirect Type\n" +
		"/old,/pricing,301\n" +
		"/x,,302"
	if got != want {
		t.Errorf("ExportRedirects() =\n%s\nwant\n%s", got, want)
	}
}

func TestExportRedirects_ParsesBack(t *testing.T) {
	records := []RedirectRecord{{Old: "/a", Destination: "/b", Type: "301"}}
	rows := ParseCSV(ExportRedirects(records))

	got, err := BuildRedirects(rows, []string{"/"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0] != records[0] {
		t.Errorf("re-import = %+v, want %+v", got, records)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatCSV, false},
		{"csv", FormatCSV, false},
		{" XLSX ", FormatXLSX, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = (%q, %v)", tt.in, got, err)
		}
		if tt.wantErr && !errors.Is(err, ErrUnknownFormat) {
			t.Errorf("ParseFormat(%q) err = %v, want ErrUnknownFormat", tt.in, err)
		}
	}

	if name := FormatXLSX.FileName(SlugExportName); name != "sitemap-slugs.xlsx" {
		t.Errorf("FileName = %q", name)
	}
	if name := FormatCSV.FileName(RedirectExportName); name != "formatted-redirects.csv" {
		t.Errorf("FileName = %q", name)
	}
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTable(&buf, SlugTable([]string{"/a"}), FormatCSV, "Slugs"); err != nil {
		t.Fatalf("csv: %v", err)
	}
	if buf.String() != "Slug\n/a" {
		t.Errorf("csv output = %q", buf.String())
	}

	buf.Reset()
	if err := WriteTable(&buf, SlugTable([]string{"/a"}), FormatXLSX, "Slugs"); err != nil {
		t.Fatalf("xlsx: %v", err)
	}
	// xlsx files are zip archives.
	if !bytes.HasPrefix(buf.Bytes(), []byte("PK")) {
		t.Error("xlsx output is not a zip archive")
	}

	if err := WriteTable(&buf, nil, Format("pdf"), ""); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("err = %v, want ErrUnknownFormat", err)
	}
}
