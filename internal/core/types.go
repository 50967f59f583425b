package core

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/panda279/leave-note/internal/document"
	"github.com/panda279/leave-note/internal/roster"
	"github.com/panda279/leave-note/internal/sheet"
)

var (
	ErrTooManyRows   = errors.New("roster exceeds the row limit")
	ErrFileTooLarge  = errors.New("file too large")
	ErrNoFile        = errors.New("no file provided")
	ErrBadRequest    = errors.New("malformed request")
	ErrUnknownOutput = errors.New("unknown output format")
)

// Upload is one roster file as received from a browser or the CLI.
type Upload struct {
	Name string
	Body io.ReadSeeker
	Size int64

	// Sheet selects an xlsx worksheet; empty means the first.
	Sheet string
	// Format forces xlsx or csv; empty means detect.
	Format sheet.Format
	// CategoryField names the college column by hand when detection fails.
	CategoryField string
}

// Inspection is what the service learned about an upload. The web form
// uses it to offer column choices before generating.
type Inspection struct {
	UploadID string   `json:"upload_id"`
	FileName string   `json:"file_name"`
	Format   string   `json:"format"`
	Sheet    string   `json:"sheet,omitempty"`
	Sheets   []string `json:"sheets,omitempty"`
	Encoding string   `json:"encoding,omitempty"`
	// HeaderRow is 1-based, as spreadsheet programs number rows.
	HeaderRow int      `json:"header_row"`
	Fields    []string `json:"fields"`

	CategoryField string `json:"category_field"`
	// Labels are the distinct colleges after cleaning, in upload order.
	Labels    []string       `json:"labels"`
	Groups    []roster.Group `json:"groups"`
	Missing   []string       `json:"missing"`
	Leftovers []string       `json:"leftovers"`
	RowCount  int            `json:"row_count"`

	// Preview holds the first rows of the reordered roster, in Fields order.
	Preview        [][]string `json:"preview"`
	DefaultColumns []string   `json:"default_columns"`
	Warnings       []string   `json:"warnings,omitempty"`

	dataset *roster.Dataset
}

// Dataset returns the reordered roster behind the inspection.
func (i *Inspection) Dataset() *roster.Dataset {
	return i.dataset
}

// OutputFormat selects what Generate produces.
type OutputFormat string

const (
	OutputDocx OutputFormat = "docx"
	OutputXLSX OutputFormat = "xlsx"
)

// ParseOutput maps a form value to an OutputFormat; empty means docx.
func ParseOutput(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", OutputDocx:
		return OutputDocx, nil
	case OutputXLSX:
		return OutputXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownOutput, s)
	}
}

// ContentType is the MIME type of the format.
func (o OutputFormat) ContentType() string {
	if o == OutputXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
}

// GenerateRequest asks for a finished form built from an upload.
type GenerateRequest struct {
	Upload  Upload
	Kind    document.Kind
	Meta    document.Metadata
	Columns []string
	Output  OutputFormat
}

// Artifact is a rendered file ready for download.
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
	Inspection  *Inspection
}
