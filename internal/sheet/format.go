package sheet

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Format identifies how an upload is encoded.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// ErrUnsupportedFormat is returned for files that are neither xlsx nor
// delimited text, including legacy binary .xls workbooks.
var ErrUnsupportedFormat = errors.New("unsupported file format")

var (
	zipMagic = []byte("PK\x03\x04")
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// Detect sniffs the leading bytes of src and falls back to the file
// extension. The source is rewound before returning.
func Detect(src io.ReadSeeker, name string) (Format, error) {
	head := make([]byte, len(oleMagic))
	n, err := io.ReadFull(src, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	head = head[:n]
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	switch {
	case bytes.HasPrefix(head, zipMagic):
		return FormatXLSX, nil
	case bytes.HasPrefix(head, oleMagic):
		return "", fmt.Errorf("%w: legacy .xls workbook, save it as .xlsx", ErrUnsupportedFormat)
	}

	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".xlsx", ".xlsm":
		// Extension says zip but the bytes do not.
		return "", fmt.Errorf("%w: %s file is not a zip archive", ErrUnsupportedFormat, ext)
	case ".xls":
		return "", fmt.Errorf("%w: legacy .xls workbook, save it as .xlsx", ErrUnsupportedFormat)
	case ".csv", ".txt", ".tsv", "":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

// ParseFormat maps a user supplied format name to a Format. An empty name
// means auto-detect and returns "".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return "", nil
	case "xlsx":
		return FormatXLSX, nil
	case "csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}
