package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/transform"

	"github.com/panda279/leave-note/internal/roster"
)

// ErrSheetNotFound is returned when Options.Sheet names a worksheet the
// workbook does not have.
var ErrSheetNotFound = errors.New("worksheet not found")

// Options control how an upload is read.
type Options struct {
	// Format forces a format; empty means detect from content and name.
	Format Format
	// Sheet selects an xlsx worksheet; empty means the first one.
	Sheet string
	// ProbeDepth is how many leading rows may hold the header.
	ProbeDepth int
	// Markers are header cell texts, normally the category field name and
	// its other spellings.
	Markers []string
}

// Table is a decoded upload.
type Table struct {
	Format   Format
	Sheet    string
	Sheets   []string
	Encoding Encoding
	// HeaderRow is the 0-based physical row the header was found on.
	HeaderRow int
	Dataset   *roster.Dataset
}

// rowIterator is the subset of *excelize.Rows the reader needs, so CSV can
// be read through the same two-pass loop.
type rowIterator interface {
	Next() bool
	Columns() ([]string, error)
	Error() error
	Close() error
}

// Read decodes an xlsx or CSV upload into a dataset. The source is read
// twice: a probe pass over the first ProbeDepth rows to locate the header,
// then a full pass from the start.
func Read(src io.ReadSeeker, name string, opts Options) (*Table, error) {
	format := opts.Format
	if format == "" {
		f, err := Detect(src, name)
		if err != nil {
			return nil, err
		}
		format = f
	}

	switch format {
	case FormatXLSX:
		return readXLSX(src, opts)
	case FormatCSV:
		return readCSV(src, opts)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

func readXLSX(src io.ReadSeeker, opts Options) (*Table, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, &roster.DecodeError{Format: string(FormatXLSX), Cause: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &roster.DecodeError{Format: string(FormatXLSX), Cause: errors.New("workbook has no worksheets")}
	}
	sheet := sheets[0]
	if opts.Sheet != "" {
		sheet = ""
		for _, s := range sheets {
			if strings.EqualFold(strings.TrimSpace(s), strings.TrimSpace(opts.Sheet)) {
				sheet = s
				break
			}
		}
		if sheet == "" {
			return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, opts.Sheet)
		}
	}

	open := func() (rowIterator, error) {
		rows, err := f.Rows(sheet)
		if err != nil {
			return nil, err
		}
		return xlsxRows{rows}, nil
	}

	header, ds, err := collect(open, opts)
	if err != nil {
		return nil, wrapDecode(FormatXLSX, err)
	}
	return &Table{
		Format:    FormatXLSX,
		Sheet:     sheet,
		Sheets:    sheets,
		HeaderRow: header,
		Dataset:   ds,
	}, nil
}

type xlsxRows struct {
	*excelize.Rows
}

func (r xlsxRows) Columns() ([]string, error) {
	return r.Rows.Columns()
}

func readCSV(src io.ReadSeeker, opts Options) (*Table, error) {
	prof, err := sniffText(src)
	if err != nil {
		return nil, &roster.DecodeError{Format: string(FormatCSV), Cause: err}
	}

	open := func() (rowIterator, error) {
		if _, err := src.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
		r := csv.NewReader(transform.NewReader(src, decoder(prof.encoding)))
		r.Comma = prof.comma
		r.FieldsPerRecord = -1
		r.LazyQuotes = true
		return &csvRows{r: r}, nil
	}

	header, ds, err := collect(open, opts)
	if err != nil {
		return nil, wrapDecode(FormatCSV, err)
	}
	return &Table{
		Format:    FormatCSV,
		Encoding:  prof.encoding,
		HeaderRow: header,
		Dataset:   ds,
	}, nil
}

type csvRows struct {
	r   *csv.Reader
	row []string
	err error
}

func (c *csvRows) Next() bool {
	if c.err != nil {
		return false
	}
	row, err := c.r.Read()
	if err == io.EOF {
		return false
	}
	if err != nil {
		c.err = err
		return false
	}
	c.row = row
	return true
}

func (c *csvRows) Columns() ([]string, error) { return c.row, nil }
func (c *csvRows) Error() error               { return c.err }
func (c *csvRows) Close() error               { return nil }

// collect runs the probe pass, locates the header and then reads every row
// after it. Fully empty rows are skipped.
func collect(open func() (rowIterator, error), opts Options) (int, *roster.Dataset, error) {
	depth := opts.ProbeDepth
	if depth <= 0 {
		depth = roster.DefaultProbeDepth
	}

	it, err := open()
	if err != nil {
		return 0, nil, err
	}
	var probe [][]string
	for len(probe) < depth && it.Next() {
		row, err := it.Columns()
		if err != nil {
			it.Close()
			return 0, nil, err
		}
		probe = append(probe, cleanRow(row))
	}
	if err := it.Error(); err != nil {
		it.Close()
		return 0, nil, err
	}
	it.Close()

	headerIdx := roster.LocateHeader(probe, depth, opts.Markers...)

	it, err = open()
	if err != nil {
		return 0, nil, err
	}
	defer it.Close()

	var header []string
	var rows [][]string
	for i := 0; it.Next(); i++ {
		row, err := it.Columns()
		if err != nil {
			return 0, nil, err
		}
		switch {
		case i < headerIdx:
		case i == headerIdx:
			header = cleanRow(row)
		case !isEmptyRow(row):
			rows = append(rows, cleanRow(row))
		}
	}
	if err := it.Error(); err != nil {
		return 0, nil, err
	}
	if header == nil || isEmptyRow(header) {
		return 0, nil, roster.ErrEmptyDataset
	}

	ds, err := roster.NewDataset(headerNames(header, rows), rows)
	if err != nil {
		return 0, nil, err
	}
	return headerIdx, ds, nil
}

func wrapDecode(format Format, err error) error {
	var de *roster.DecodeError
	if errors.Is(err, roster.ErrEmptyDataset) || errors.As(err, &de) {
		return err
	}
	return &roster.DecodeError{Format: string(format), Cause: err}
}

// headerNames returns one unique name per column. Blank header cells become
// "列N" and repeated names get a "_2", "_3" suffix. Trailing columns with no
// header and no data are dropped.
func headerNames(header []string, rows [][]string) []string {
	width := lastNonEmpty(header) + 1
	for _, row := range rows {
		if w := lastNonEmpty(row) + 1; w > width {
			width = w
		}
	}

	names := make([]string, width)
	used := make(map[string]int, width)
	for i := 0; i < width; i++ {
		name := ""
		if i < len(header) {
			name = header[i]
		}
		if name == "" {
			name = "列" + strconv.Itoa(i+1)
		}
		base := name
		for used[name] > 0 {
			used[base]++
			name = base + "_" + strconv.Itoa(used[base])
		}
		used[name]++
		names[i] = name
	}
	return names
}

func lastNonEmpty(row []string) int {
	for i := len(row) - 1; i >= 0; i-- {
		if strings.TrimSpace(row[i]) != "" {
			return i
		}
	}
	return -1
}

func cleanRow(row []string) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = cleanCell(v)
	}
	return out
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
