package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := LoadFrom(env(nil))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8080)
	}
	if cfg.Upload.MaxConcurrent != 4 {
		t.Errorf("Upload.MaxConcurrent = %d, want %d", cfg.Upload.MaxConcurrent, 4)
	}
	if cfg.Upload.MaxFileSize != 20<<20 {
		t.Errorf("Upload.MaxFileSize = %d, want %d", cfg.Upload.MaxFileSize, 20<<20)
	}
	if cfg.Upload.ProbeDepth != 3 {
		t.Errorf("Upload.ProbeDepth = %d, want 3", cfg.Upload.ProbeDepth)
	}
	if cfg.Document.Organization != "共青团温州理工学院委员会" {
		t.Errorf("Document.Organization = %q", cfg.Document.Organization)
	}
	if cfg.Document.SignatureDate != "xx年xx月xx日" {
		t.Errorf("Document.SignatureDate = %q", cfg.Document.SignatureDate)
	}
	if cfg.Roster.ProfilePath != "" {
		t.Errorf("Roster.ProfilePath = %q, want empty", cfg.Roster.ProfilePath)
	}
}

func TestLoad_OverrideDefaults(t *testing.T) {
	cfg, err := LoadFrom(env(map[string]string{
		"SERVER_PORT":           "9090",
		"UPLOAD_MAX_CONCURRENT": "10",
		"LOG_LEVEL":             "debug",
		"DOC_DEFAULT_KIND":      "evening",
		"ROSTER_CATEGORY_FIELD": "所属学院",
	}))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9090)
	}
	if cfg.Upload.MaxConcurrent != 10 {
		t.Errorf("Upload.MaxConcurrent = %d, want %d", cfg.Upload.MaxConcurrent, 10)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.Document.DefaultKind != "evening" {
		t.Errorf("Document.DefaultKind = %q, want evening", cfg.Document.DefaultKind)
	}
	if cfg.Roster.CategoryField != "所属学院" {
		t.Errorf("Roster.CategoryField = %q", cfg.Roster.CategoryField)
	}
}

func TestLoad_PrefixAndAltEnvVar(t *testing.T) {
	cfg, err := LoadFrom(env(map[string]string{
		"PORT":                  "7000",
		"LEAVENOTE_LOG_FORMAT":  "json",
		"LOG_FORMAT":            "text",
		"LEAVENOTE_SERVER_HOST": "127.0.0.1",
	}))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Server.Port != 7000 {
		t.Errorf("Server.Port = %d, want 7000 from PORT", cfg.Server.Port)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, prefixed variable should win", cfg.Logging.Format)
	}
	if cfg.Server.Addr() != "127.0.0.1:7000" {
		t.Errorf("Addr() = %q", cfg.Server.Addr())
	}
}

func TestLoad_ReportsEveryBadValue(t *testing.T) {
	_, err := LoadFrom(env(map[string]string{
		"SERVER_PORT":        "eighty",
		"RATE_LIMIT_ENABLED": "maybe",
	}))
	if err == nil {
		t.Fatal("LoadFrom() expected error")
	}
	for _, want := range []string{"SERVER_PORT", "RATE_LIMIT_ENABLED"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %s: %v", want, err)
		}
	}
}

func TestLoad_Duration(t *testing.T) {
	cfg, err := LoadFrom(env(map[string]string{
		"SERVER_READ_TIMEOUT":  "45s",
		"UPLOAD_MAX_WAIT_TIME": "1m30s",
	}))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Server.ReadTimeout != 45*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want %v", cfg.Server.ReadTimeout, 45*time.Second)
	}
	if cfg.Upload.MaxWaitTime != 90*time.Second {
		t.Errorf("Upload.MaxWaitTime = %v, want %v", cfg.Upload.MaxWaitTime, 90*time.Second)
	}
}

func TestLoad_SizeSuffix(t *testing.T) {
	cfg, err := LoadFrom(env(map[string]string{"UPLOAD_MAX_FILE_SIZE": "5MB"}))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Upload.MaxFileSize != 5<<20 {
		t.Errorf("Upload.MaxFileSize = %d, want %d", cfg.Upload.MaxFileSize, 5<<20)
	}
}

func TestLoad_CommaSeparatedSlice(t *testing.T) {
	cfg, err := LoadFrom(env(map[string]string{
		"TRUSTED_PROXIES":         "10.0.0.0/8, 172.16.0.0/12 , 192.168.0.0/16",
		"ROSTER_CATEGORY_MARKERS": "单位, ,部门",
	}))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	expected := []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}
	if len(cfg.Security.TrustedProxies) != len(expected) {
		t.Fatalf("TrustedProxies length = %d, want %d", len(cfg.Security.TrustedProxies), len(expected))
	}
	for i, v := range expected {
		if cfg.Security.TrustedProxies[i] != v {
			t.Errorf("TrustedProxies[%d] = %q, want %q", i, cfg.Security.TrustedProxies[i], v)
		}
	}
	if len(cfg.Roster.Markers) != 2 || cfg.Roster.Markers[1] != "部门" {
		t.Errorf("Roster.Markers = %q", cfg.Roster.Markers)
	}
}

func validConfig() *Config {
	return &Config{
		Server:   ServerConfig{Port: 8080, ShutdownTimeout: time.Second},
		Upload:   UploadConfig{MaxFileSize: 1, MaxConcurrent: 1, MaxWaitTime: time.Second, Timeout: time.Minute, ProbeDepth: 3, MaxRows: 10},
		Rate:     RateLimitConfig{Enabled: true, RequestsPerMinute: 100, UploadLimit: 10},
		Logging:  LoggingConfig{Level: "info", Format: "text"},
		Document: DocumentConfig{DefaultKind: "official"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"invalid port", func(c *Config) { c.Server.Port = 99999 }, "SERVER_PORT"},
		{"probe depth", func(c *Config) { c.Upload.ProbeDepth = 0 }, "UPLOAD_HEADER_PROBE_ROWS"},
		{"log level", func(c *Config) { c.Logging.Level = "verbose" }, "LOG_LEVEL"},
		{"api key", func(c *Config) { c.Security.RequireAPIKey = true }, "API_KEYS"},
		{"kind", func(c *Config) { c.Document.DefaultKind = "weekly" }, "DOC_DEFAULT_KIND"},
		{"profile", func(c *Config) { c.Roster.ProfilePath = "/nonexistent/profile.yaml" }, "ROSTER_PROFILE"},
	}

	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error should mention %s: %v", tt.want, err)
			}
		})
	}
}

func TestServerAddr(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"", 8080, ":8080"},
		{"0.0.0.0", 8080, "0.0.0.0:8080"},
		{"127.0.0.1", 3000, "127.0.0.1:3000"},
	}

	for _, tt := range tests {
		cfg := &ServerConfig{Host: tt.host, Port: tt.port}
		if got := cfg.Addr(); got != tt.want {
			t.Errorf("Addr() with host=%q, port=%d = %q, want %q", tt.host, tt.port, got, tt.want)
		}
	}
}

func TestConfigString_MasksAPIKeys(t *testing.T) {
	cfg := validConfig()
	cfg.Security.APIKeys = []string{"super-secret-key"}
	str := cfg.String()
	if strings.Contains(str, "super-secret-key") {
		t.Error("String() should mask API keys")
	}
	if !strings.Contains(str, "MASKED") {
		t.Error("String() should contain MASKED placeholder")
	}
}

func TestLoadProfile_BuiltIn(t *testing.T) {
	p, warnings, err := LoadProfile(RosterConfig{})
	if err != nil {
		t.Fatalf("LoadProfile() error = %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if p.CategoryField != "学院" {
		t.Errorf("CategoryField = %q", p.CategoryField)
	}
	labels := p.Order.Labels()
	if len(labels) != 10 || labels[0] != "经济与管理学院" || labels[9] != "创新创业学院" {
		t.Errorf("unexpected order: %v", labels)
	}
	if got, _ := p.Aliases.Lookup("经管"); got != "经济与管理学院" {
		t.Errorf("alias 经管 -> %q", got)
	}
	for _, target := range p.Aliases.Targets() {
		if !p.Order.Contains(target) {
			t.Errorf("alias target %q outside order", target)
		}
	}
}

func TestLoadProfile_FileAndOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	content := "category_field: 院系\norder: [甲院, 乙院]\naliases:\n  甲: 甲院\n  丙: 丙院\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	p, warnings, err := LoadProfile(RosterConfig{ProfilePath: path, CategoryField: "单位", Markers: []string{"部门"}})
	if err != nil {
		t.Fatalf("LoadProfile() error = %v", err)
	}
	if p.CategoryField != "单位" {
		t.Errorf("CategoryField = %q, want override", p.CategoryField)
	}
	if len(p.Markers) != 1 || p.Markers[0] != "部门" {
		t.Errorf("Markers = %v", p.Markers)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "丙院") {
		t.Errorf("warnings = %v", warnings)
	}
}

func TestParseProfile_Errors(t *testing.T) {
	tests := map[string]string{
		"empty":         "",
		"unknown key":   "category_field: 学院\norder: [a]\nalias: {x: a}\n",
		"no order":      "category_field: 学院\n",
		"no identifier": "order: [a]\n",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseProfile([]byte(data)); err == nil {
				t.Error("ParseProfile() expected error")
			}
		})
	}

	_, _, err := LoadProfile(RosterConfig{ProfilePath: filepath.Join(t.TempDir(), "missing.yaml")})
	if err == nil {
		t.Error("LoadProfile() expected error for missing file")
	}
}
