package web

import (
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/panda279/leave-note/internal/core"
	"github.com/panda279/leave-note/internal/document"
	"github.com/panda279/leave-note/internal/sheet"
	"github.com/panda279/leave-note/internal/web/templates"
)

// multipartMemory is how much of a form is kept in memory; larger files
// spill to a temp file that is removed after the request.
const multipartMemory = 8 << 20

// formOverhead is allowed on top of the file size for the other fields.
const formOverhead = 1 << 20

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	templ.Handler(templates.Index(s.indexData())).ServeHTTP(w, r)
}

func (s *Server) indexData() templates.IndexData {
	d := templates.IndexData{
		Organization:  s.cfg.Document.Organization,
		SignatureDate: s.cfg.Document.SignatureDate,
		MaxFileSizeMB: s.cfg.Upload.MaxFileSize >> 20,
		Order:         s.service.Profile().Order.Labels(),
	}
	for _, k := range document.Kinds() {
		d.Kinds = append(d.Kinds, templates.Option{
			Value:    string(k),
			Label:    k.Title(),
			Selected: string(k) == s.cfg.Document.DefaultKind,
		})
	}
	for i, t := range document.WorkTimes {
		d.WorkTimes = append(d.WorkTimes, templates.Option{Value: string(t), Label: string(t), Selected: i == 0})
	}
	d.Outputs = []templates.Option{
		{Value: string(core.OutputDocx), Label: "Word 请假单 (.docx)", Selected: true},
		{Value: string(core.OutputXLSX), Label: "排序后的名单 (.xlsx)"},
	}
	return d
}

// handleInspect answers with the inspection as JSON.
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	up, cleanup, err := s.parseUpload(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer cleanup()

	insp, err := s.service.Inspect(withClient(r.Context(), r), up)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, insp)
}

// handleGenerate streams the rendered form back as an attachment.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	up, cleanup, err := s.parseUpload(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer cleanup()

	req, err := s.generateRequest(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	req.Upload = up

	art, err := s.service.Generate(withClient(r.Context(), r), req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", art.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": art.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(art.Data)))
	w.Header().Set("X-Row-Count", strconv.Itoa(art.Inspection.RowCount))
	if n := len(art.Inspection.Leftovers); n > 0 {
		w.Header().Set("X-Leftover-Count", strconv.Itoa(n))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(art.Data)
}

// ProfileResponse describes the ordering profile in use.
type ProfileResponse struct {
	CategoryField string            `json:"category_field"`
	Markers       []string          `json:"markers"`
	Order         []string          `json:"order"`
	Aliases       map[string]string `json:"aliases"`
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	p := s.service.Profile()
	writeJSON(w, r, http.StatusOK, ProfileResponse{
		CategoryField: p.CategoryField,
		Markers:       p.Markers,
		Order:         p.Order.Labels(),
		Aliases:       p.Aliases.Map(),
	})
}

// KindResponse is one form kind offered by the server.
type KindResponse struct {
	Kind          string `json:"kind"`
	Title         string `json:"title"`
	Label         string `json:"label"`
	NeedsSchedule bool   `json:"needs_schedule"`
}

func (s *Server) handleKinds(w http.ResponseWriter, r *http.Request) {
	var out []KindResponse
	for _, k := range document.Kinds() {
		out = append(out, KindResponse{
			Kind:          string(k),
			Title:         k.Title(),
			Label:         k.Label(),
			NeedsSchedule: k.NeedsSchedule(),
		})
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{"status": "ok"}
	if l := s.service.Limiter(); l != nil {
		status["uploads"] = l.Status()
	}
	writeJSON(w, r, http.StatusOK, status)
}

// parseUpload reads the multipart form and returns the file as an Upload.
// The caller must run cleanup when done with the upload.
func (s *Server) parseUpload(w http.ResponseWriter, r *http.Request) (core.Upload, func(), error) {
	noop := func() {}
	limit := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, limit+formOverhead)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return core.Upload{}, noop, fmt.Errorf("%w: limit %d bytes", core.ErrFileTooLarge, limit)
		}
		return core.Upload{}, noop, fmt.Errorf("%w: %v", core.ErrBadRequest, err)
	}
	cleanup := func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		cleanup()
		if errors.Is(err, http.ErrMissingFile) {
			return core.Upload{}, noop, core.ErrNoFile
		}
		return core.Upload{}, noop, fmt.Errorf("%w: %v", core.ErrBadRequest, err)
	}
	if header.Size > limit {
		file.Close()
		cleanup()
		return core.Upload{}, noop, fmt.Errorf("%w: %d bytes, limit %d", core.ErrFileTooLarge, header.Size, limit)
	}

	format, err := sheet.ParseFormat(r.FormValue("format"))
	if err != nil {
		file.Close()
		cleanup()
		return core.Upload{}, noop, err
	}

	up := core.Upload{
		Name:          header.Filename,
		Body:          file,
		Size:          header.Size,
		Sheet:         strings.TrimSpace(r.FormValue("sheet")),
		Format:        format,
		CategoryField: strings.TrimSpace(r.FormValue("category_field")),
	}
	return up, func() {
		closeFile(file)
		cleanup()
	}, nil
}

func closeFile(f multipart.File) {
	_ = f.Close()
}

// generateRequest reads the form kind, activity details, columns and output.
func (s *Server) generateRequest(r *http.Request) (core.GenerateRequest, error) {
	kindValue := r.FormValue("kind")
	if strings.TrimSpace(kindValue) == "" {
		kindValue = s.cfg.Document.DefaultKind
	}
	kind, err := document.ParseKind(kindValue)
	if err != nil {
		return core.GenerateRequest{}, err
	}

	output, err := core.ParseOutput(r.FormValue("output"))
	if err != nil {
		return core.GenerateRequest{}, err
	}

	return core.GenerateRequest{
		Kind: kind,
		Meta: document.Metadata{
			ActivityName:  r.FormValue("activity_name"),
			ActivityDate:  r.FormValue("activity_date"),
			WorkDate:      r.FormValue("work_date"),
			WorkTime:      document.WorkTime(r.FormValue("work_time")),
			SignatureDate: r.FormValue("signature_date"),
		},
		Columns: formColumns(r.MultipartForm.Value["columns"]),
		Output:  output,
	}, nil
}

// formColumns accepts repeated "columns" fields (checkboxes) or a single
// comma-separated value (scripts).
func formColumns(values []string) []string {
	if len(values) == 1 && strings.ContainsAny(values[0], ",，") {
		values = strings.FieldsFunc(values[0], func(r rune) bool { return r == ',' || r == '，' })
	}
	var cols []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			cols = append(cols, v)
		}
	}
	return cols
}
