package core

import (
	"bytes"
	"errors"
	"testing"
)

func TestReadUpload_Text(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{
			name:     "file with BOM",
			input:    append([]byte{0xEF, 0xBB, 0xBF}, []byte("Old,Redirect")...),
			expected: "Old,Redirect",
		},
		{
			name:     "file without BOM",
			input:    []byte("Old,Redirect"),
			expected: "Old,Redirect",
		},
		{
			name:     "empty file",
			input:    []byte{},
			expected: "",
		},
		{
			name:     "only BOM",
			input:    []byte{0xEF, 0xBB, 0xBF},
			expected: "",
		},
		{
			name:     "invalid byte replaced",
			input:    []byte{'a', 0xFF, 'b'},
			expected: "a�b",
		},
		{
			name:     "multi-byte kept",
			input:    []byte("/café"),
			expected: "/café",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadUpload(bytes.NewReader(tt.input), 1024, true)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestReadUpload_RawKeepsBytes(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, 'x', 0xE9, 'y')
	got, err := ReadUpload(bytes.NewReader(input), 0, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != string([]byte{'x', 0xE9, 'y'}) {
		t.Errorf("got %q, want BOM stripped and bytes untouched", got)
	}
}

func TestReadUpload_SizeCap(t *testing.T) {
	data := bytes.Repeat([]byte("a"), 10)

	if _, err := ReadUpload(bytes.NewReader(data), 10, true); err != nil {
		t.Errorf("exact size should pass, got %v", err)
	}

	_, err := ReadUpload(bytes.NewReader(data), 9, true)
	if !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("err = %v, want ErrFileTooLarge", err)
	}
}
