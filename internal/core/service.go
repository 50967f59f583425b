package core

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/panda279/leave-note/internal/document"
	"github.com/panda279/leave-note/internal/export"
	"github.com/panda279/leave-note/internal/logging"
	"github.com/panda279/leave-note/internal/roster"
	"github.com/panda279/leave-note/internal/sheet"
)

// DefaultColumnCount is how many leading columns are preselected for the table.
const DefaultColumnCount = 4

// Options tune a Service. Zero values fall back to sensible defaults.
type Options struct {
	ProbeDepth  int
	MaxRows     int
	PreviewRows int
	// Timeout bounds one Inspect or Generate call; zero means no extra limit.
	Timeout time.Duration

	Organization         string
	DefaultSignatureDate string
	Style                document.Style

	// Now is used for download filenames; tests pin it.
	Now func() time.Time
}

// Service turns uploaded rosters into ordered leave forms. It keeps no state
// between calls besides the limiter, so one instance serves all requests.
type Service struct {
	profile roster.Profile
	limiter *UploadLimiter
	opts    Options
}

// NewService creates a Service. A nil limiter means no concurrency limit.
func NewService(profile roster.Profile, limiter *UploadLimiter, opts Options) *Service {
	if opts.ProbeDepth <= 0 {
		opts.ProbeDepth = roster.DefaultProbeDepth
	}
	if opts.PreviewRows < 0 {
		opts.PreviewRows = 0
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{profile: profile, limiter: limiter, opts: opts}
}

// Profile returns the ordering profile in use.
func (s *Service) Profile() roster.Profile {
	return s.profile
}

// Limiter returns the upload limiter, or nil.
func (s *Service) Limiter() *UploadLimiter {
	return s.limiter
}

// Inspect reads an upload, finds the college column and reorders the rows
// without rendering anything.
func (s *Service) Inspect(ctx context.Context, up Upload) (*Inspection, error) {
	ctx, done, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	return s.inspect(ctx, up)
}

// Generate inspects the upload, narrows it to the selected columns and
// renders the requested output.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*Artifact, error) {
	if req.Output == "" {
		req.Output = OutputDocx
	}
	if req.Output != OutputDocx && req.Output != OutputXLSX {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOutput, req.Output)
	}
	if len(req.Columns) == 0 {
		return nil, document.ErrNoColumns
	}
	meta := req.Meta.Trimmed()
	if meta.SignatureDate == "" {
		meta.SignatureDate = s.opts.DefaultSignatureDate
	}
	if req.Output == OutputDocx {
		// Fail on bad form details before paying for the read.
		if err := meta.Validate(req.Kind); err != nil {
			return nil, err
		}
	}

	ctx, done, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	insp, err := s.inspect(ctx, req.Upload)
	if err != nil {
		return nil, err
	}
	log := logging.WithFields(ctx, "upload_id", insp.UploadID, "file", insp.FileName)

	projected, err := roster.Project(insp.dataset, req.Columns)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	art := &Artifact{ContentType: req.Output.ContentType(), Inspection: insp}

	switch req.Output {
	case OutputXLSX:
		if err := export.WriteXLSX(&buf, "", projected); err != nil {
			return nil, err
		}
		art.Filename = export.Filename(document.BaseName(req.Kind, meta, s.opts.Now()))
	default:
		err := document.Render(&buf, document.Request{
			Kind:         req.Kind,
			Meta:         meta,
			Columns:      projected.Fields(),
			Rows:         projected.Rows(),
			Organization: s.opts.Organization,
			Style:        s.opts.Style,
		})
		if err != nil {
			return nil, err
		}
		art.Filename = document.Filename(req.Kind, meta, s.opts.Now())
	}
	art.Data = buf.Bytes()

	log.Info("form generated",
		"output", req.Output,
		"kind", req.Kind,
		"rows", projected.Len(),
		"columns", len(req.Columns),
		"bytes", len(art.Data),
	)
	return art, nil
}

// begin applies the timeout and takes a limiter slot.
func (s *Service) begin(ctx context.Context) (context.Context, func(), error) {
	cancel := func() {}
	if s.opts.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
	}
	if s.limiter == nil {
		return ctx, cancel, nil
	}
	if err := s.limiter.Acquire(ctx); err != nil {
		cancel()
		return nil, nil, err
	}
	return ctx, func() {
		s.limiter.Release()
		cancel()
	}, nil
}

func (s *Service) inspect(ctx context.Context, up Upload) (*Inspection, error) {
	if up.Body == nil {
		return nil, ErrNoFile
	}

	id := uuid.NewString()
	log := logging.WithFields(ctx, "upload_id", id, "file", up.Name)
	if client := ClientFromContext(ctx); client.IP != "" {
		log = log.With("client_ip", client.IP)
	}
	start := time.Now()

	tbl, err := sheet.Read(up.Body, up.Name, sheet.Options{
		Format:     up.Format,
		Sheet:      up.Sheet,
		ProbeDepth: s.opts.ProbeDepth,
		Markers:    s.headerMarkers(up.CategoryField),
	})
	if err != nil {
		log.Warn("roster read failed", "error", err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.opts.MaxRows > 0 && tbl.Dataset.Len() > s.opts.MaxRows {
		return nil, fmt.Errorf("%w: %d rows, limit %d", ErrTooManyRows, tbl.Dataset.Len(), s.opts.MaxRows)
	}

	res, err := s.profile.Apply(tbl.Dataset, up.CategoryField)
	if err != nil {
		log.Warn("roster rejected", "error", err, "fields", tbl.Dataset.Fields())
		return nil, err
	}

	insp := &Inspection{
		UploadID:      id,
		FileName:      up.Name,
		Format:        string(tbl.Format),
		Sheet:         tbl.Sheet,
		Sheets:        tbl.Sheets,
		Encoding:      string(tbl.Encoding),
		HeaderRow:     tbl.HeaderRow + 1,
		Fields:        res.Dataset.Fields(),
		CategoryField: res.CategoryField,
		Labels:        res.Labels,
		Groups:        res.Partition.Groups,
		Missing:       res.Partition.Missing(),
		RowCount:      res.Dataset.Len(),
		dataset:       res.Dataset,
	}
	for _, g := range res.Partition.Leftovers() {
		insp.Leftovers = append(insp.Leftovers, g.Label)
	}
	if len(insp.Leftovers) > 0 {
		insp.Warnings = append(insp.Warnings,
			fmt.Sprintf("%d 个学院不在排序列表中，已排在最后：%v", len(insp.Leftovers), insp.Leftovers))
		log.Warn("categories outside canonical order", "labels", insp.Leftovers)
	}

	n := min(s.opts.PreviewRows, res.Dataset.Len())
	rows := res.Dataset.Rows()
	insp.Preview = rows[:n]

	cols := min(DefaultColumnCount, len(insp.Fields))
	insp.DefaultColumns = append([]string(nil), insp.Fields[:cols]...)

	log.Info("roster inspected",
		"format", insp.Format,
		"header_row", insp.HeaderRow,
		"category_field", insp.CategoryField,
		"rows", insp.RowCount,
		"matched", res.Partition.Matched(),
		"duration", time.Since(start),
	)
	return insp, nil
}

// headerMarkers picks the cell texts used to find the header row: a manual
// column choice replaces the profile's.
func (s *Service) headerMarkers(override string) []string {
	if override != "" {
		return []string{override}
	}
	return s.profile.HeaderMarkers()
}
