package core

// streaming.go reads uploaded files into memory under a size cap.
//
// Text uploads (redirect CSVs) are decoded as UTF-8: a leading byte order
// mark is dropped and invalid sequences become U+FFFD, the way a browser
// reads a text file. Sitemaps keep their raw bytes so the XML decoder can
// honor the encoding declared in the prolog; only the BOM is stripped.

import (
	"bytes"
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// NewTextDecoder wraps r so it yields valid UTF-8 without a leading BOM.
func NewTextDecoder(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}

// ReadUpload reads r fully. It fails with ErrFileTooLarge when r holds more
// than maxSize bytes; maxSize <= 0 disables the cap.
func ReadUpload(r io.Reader, maxSize int64, decodeText bool) (string, error) {
	if maxSize > 0 {
		r = io.LimitReader(r, maxSize+1)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return "", fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, maxSize)
	}

	if !decodeText {
		return string(bytes.TrimPrefix(data, utf8BOM)), nil
	}

	decoded, err := io.ReadAll(NewTextDecoder(bytes.NewReader(data)))
	if err != nil {
		return "", fmt.Errorf("decode upload: %w", err)
	}
	return string(decoded), nil
}
