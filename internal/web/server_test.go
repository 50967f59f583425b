package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/panda279/leave-note/internal/config"
	"github.com/panda279/leave-note/internal/core"
)

const rosterCSV = "学号,姓名,学院\n1,A,法学院\n2,B,经管\n3,C,历史学院\n"

func newTestServer(t *testing.T, env map[string]string) *Server {
	t.Helper()
	cfg, err := config.LoadFrom(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	profile, _, err := config.LoadProfile(cfg.Roster)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	svc := core.NewService(profile, core.NewUploadLimiter(2, time.Second), core.Options{
		MaxRows:              cfg.Upload.MaxRows,
		PreviewRows:          cfg.Upload.PreviewRows,
		Organization:         cfg.Document.Organization,
		DefaultSignatureDate: cfg.Document.SignatureDate,
		Now:                  func() time.Time { return time.Date(2024, 9, 18, 0, 0, 0, 0, time.UTC) },
	})
	s := NewServer(svc, cfg)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

// multipartBody builds a form with an optional file and the given fields.
// Repeated keys are written in order.
func multipartBody(t *testing.T, filename, content string, fields [][2]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := io.WriteString(fw, content); err != nil {
			t.Fatal(err)
		}
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func do(t *testing.T, s *Server, method, path string, body io.Reader, contentType string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var er ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&er); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return er
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(t, s, http.MethodGet, "/healthz", nil, "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Status  string                   `json:"status"`
		Uploads core.UploadLimiterStatus `json:"uploads"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "ok" || body.Uploads.MaxConcurrent != 2 {
		t.Errorf("body = %+v", body)
	}
}

func TestIndexPage(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(t, s, http.MethodGet, "/", nil, "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	html := rec.Body.String()
	for _, want := range []string{"公假单", "抵晚自习请假单", "经济与管理学院", `name="activity_name"`, `action="/generate"`} {
		if !strings.Contains(html, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
}

func TestAPIInspect(t *testing.T) {
	s := newTestServer(t, nil)
	body, ct := multipartBody(t, "名单.csv", rosterCSV, nil)
	rec := do(t, s, http.MethodPost, "/api/inspect", body, ct)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var insp core.Inspection
	if err := json.NewDecoder(rec.Body).Decode(&insp); err != nil {
		t.Fatal(err)
	}
	if insp.CategoryField != "学院" || insp.RowCount != 3 {
		t.Errorf("inspection = %+v", insp)
	}
	if len(insp.Leftovers) != 1 || insp.Leftovers[0] != "历史学院" {
		t.Errorf("leftovers = %v, want [历史学院]", insp.Leftovers)
	}
	if len(insp.Preview) == 0 || insp.Preview[0][1] != "B" {
		t.Errorf("preview = %v, want B first", insp.Preview)
	}
}

func TestAPIInspect_Errors(t *testing.T) {
	tests := []struct {
		name       string
		filename   string
		content    string
		wantStatus int
		wantCode   string
	}{
		{"no file", "", "", http.StatusBadRequest, "FILE004"},
		{"no college column", "a.csv", "姓名,电话\nA,1\n", http.StatusUnprocessableEntity, "CAT001"},
		{"legacy xls", "a.xls", "\xD0\xCF\x11\xE0\xA1\xB1\x1A\xE1", http.StatusUnsupportedMediaType, "FILE003"},
	}

	s := newTestServer(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := multipartBody(t, tt.filename, tt.content, [][2]string{{"sheet", ""}})
			rec := do(t, s, http.MethodPost, "/api/inspect", body, ct)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if er := decodeError(t, rec); er.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", er.Code, tt.wantCode)
			}
		})
	}
}

func TestAPIInspect_FileTooLarge(t *testing.T) {
	s := newTestServer(t, map[string]string{"UPLOAD_MAX_FILE_SIZE": "1KB"})
	big := rosterCSV + strings.Repeat("9,Z,法学院\n", 300)
	body, ct := multipartBody(t, "big.csv", big, nil)
	rec := do(t, s, http.MethodPost, "/api/inspect", body, ct)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}
	if er := decodeError(t, rec); er.Code != "FILE001" {
		t.Errorf("code = %q, want FILE001", er.Code)
	}
}

func TestGenerate_Docx(t *testing.T) {
	s := newTestServer(t, nil)
	body, ct := multipartBody(t, "名单.csv", rosterCSV, [][2]string{
		{"kind", "official"},
		{"activity_name", "迎新晚会"},
		{"activity_date", "2024年9月20日"},
		{"work_date", "9月20日"},
		{"work_time", "下午"},
		{"columns", "学院"},
		{"columns", "姓名"},
	})
	rec := do(t, s, http.MethodPost, "/generate", body, ct)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if got := rec.Header().Get("Content-Type"); got != core.OutputDocx.ContentType() {
		t.Errorf("Content-Type = %q", got)
	}
	_, params, err := mime.ParseMediaType(rec.Header().Get("Content-Disposition"))
	if err != nil {
		t.Fatal(err)
	}
	if got := params["filename"]; got != "公假单_迎新晚会_20240918.docx" {
		t.Errorf("filename = %q", got)
	}
	if rec.Header().Get("X-Leftover-Count") != "1" {
		t.Errorf("X-Leftover-Count = %q, want 1", rec.Header().Get("X-Leftover-Count"))
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")) {
		t.Error("body is not a zip container")
	}
}

func TestGenerate_XLSXWithCommaColumns(t *testing.T) {
	s := newTestServer(t, nil)
	body, ct := multipartBody(t, "名单.csv", rosterCSV, [][2]string{
		{"output", "xlsx"},
		{"columns", "姓名, 学院"},
	})
	rec := do(t, s, http.MethodPost, "/api/generate", body, ct)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if got := rec.Header().Get("Content-Type"); got != core.OutputXLSX.ContentType() {
		t.Errorf("Content-Type = %q", got)
	}
}

func TestGenerate_HTMLErrorPage(t *testing.T) {
	s := newTestServer(t, nil)
	body, ct := multipartBody(t, "名单.csv", rosterCSV, [][2]string{{"kind", "official"}, {"columns", "姓名"}})
	rec := do(t, s, http.MethodPost, "/generate", body, ct)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, want html", ct)
	}
	if !strings.Contains(rec.Body.String(), "DOC001") {
		t.Errorf("page does not show DOC001: %s", rec.Body)
	}
}

func TestGenerate_BadKindAndOutput(t *testing.T) {
	tests := []struct {
		field, value, wantCode string
	}{
		{"kind", "noon", "DOC002"},
		{"output", "pdf", "UPL003"},
	}
	s := newTestServer(t, nil)
	for _, tt := range tests {
		body, ct := multipartBody(t, "名单.csv", rosterCSV, [][2]string{{tt.field, tt.value}, {"columns", "姓名"}})
		rec := do(t, s, http.MethodPost, "/api/generate", body, ct)
		if er := decodeError(t, rec); er.Code != tt.wantCode {
			t.Errorf("%s=%s: code = %q, want %q", tt.field, tt.value, er.Code, tt.wantCode)
		}
	}
}

func TestProfileAndKinds(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/api/profile", nil, "")
	var p ProfileResponse
	if err := json.NewDecoder(rec.Body).Decode(&p); err != nil {
		t.Fatal(err)
	}
	if p.CategoryField != "学院" || len(p.Order) != 10 || p.Aliases["经管"] != "经济与管理学院" {
		t.Errorf("profile = %+v", p)
	}

	rec = do(t, s, http.MethodGet, "/api/kinds", nil, "")
	var kinds []KindResponse
	if err := json.NewDecoder(rec.Body).Decode(&kinds); err != nil {
		t.Fatal(err)
	}
	if len(kinds) != 3 {
		t.Errorf("kinds = %+v, want 3", kinds)
	}
}

func TestAPIKeyRequired(t *testing.T) {
	s := newTestServer(t, map[string]string{"REQUIRE_API_KEY": "true", "API_KEYS": "k1,k2"})

	tests := []struct {
		key  string
		want int
	}{
		{"", http.StatusUnauthorized},
		{"nope", http.StatusForbidden},
		{"k2", http.StatusOK},
	}
	for _, tt := range tests {
		rec := do(t, s, http.MethodGet, "/api/profile", nil, "", "X-API-Key", tt.key)
		if rec.Code != tt.want {
			t.Errorf("key %q: status = %d, want %d", tt.key, rec.Code, tt.want)
		}
	}

	// The browser page is not behind the key.
	if rec := do(t, s, http.MethodGet, "/", nil, ""); rec.Code != http.StatusOK {
		t.Errorf("index status = %d, want 200", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, map[string]string{"RATE_LIMIT_REQUESTS_PER_MINUTE": "2"})

	for i := 0; i < 2; i++ {
		if rec := do(t, s, http.MethodGet, "/healthz", nil, ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, rec.Code)
		}
	}
	rec := do(t, s, http.MethodGet, "/healthz", nil, "", "Accept", "application/json")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}
	if er := decodeError(t, rec); er.Code != "RATE001" {
		t.Errorf("code = %q, want RATE001", er.Code)
	}
}

func TestFormColumns(t *testing.T) {
	tests := []struct {
		in   []string
		want []string
	}{
		{nil, nil},
		{[]string{"姓名", " 学院 "}, []string{"姓名", "学院"}},
		{[]string{"姓名,学院， 学号"}, []string{"姓名", "学院", "学号"}},
		{[]string{"", "  "}, nil},
	}
	for _, tt := range tests {
		got := formColumns(tt.in)
		if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
			t.Errorf("formColumns(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
