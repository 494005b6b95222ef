package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const validYAML = `
api:
  request_timeout_seconds: 30
input:
  max_answer_length: 4000
  rate_limit_per_minute: 10
upload:
  allowed_extensions: [".xlsx", ".xls"]
  max_file_size_mb: 10
report:
  results_dir: results
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "client.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.RequestTimeout() != 30*time.Second {
		t.Fatalf("unexpected timeout: %s", cfg.RequestTimeout())
	}
	if cfg.MaxFileSizeBytes() != 10*1024*1024 {
		t.Fatalf("unexpected max file size: %d", cfg.MaxFileSizeBytes())
	}
	if cfg.Input.MaxAnswerLength != 4000 || cfg.Input.RateLimitPerMinute != 10 {
		t.Fatalf("unexpected input config: %+v", cfg.Input)
	}
	if cfg.Report.ResultsDir != "results" {
		t.Fatalf("unexpected results dir: %s", cfg.Report.ResultsDir)
	}
}

func TestIsExtensionAllowed(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if !cfg.IsExtensionAllowed("книга.XLSX") {
		t.Fatalf("extension check must be case-insensitive")
	}
	if !cfg.IsExtensionAllowed("report.xls") {
		t.Fatalf("expected .xls to be allowed")
	}
	if cfg.IsExtensionAllowed("resume.pdf") {
		t.Fatalf(".pdf must be rejected")
	}
	if cfg.IsExtensionAllowed("noextension") {
		t.Fatalf("files without extension must be rejected")
	}
}

func TestLoadInvalidConfig(t *testing.T) {
	cases := map[string]string{
		"zero timeout": `
api:
  request_timeout_seconds: 0
input:
  max_answer_length: 4000
  rate_limit_per_minute: 10
upload:
  allowed_extensions: [".xlsx"]
  max_file_size_mb: 10
report:
  results_dir: results
`,
		"no extensions": `
api:
  request_timeout_seconds: 30
input:
  max_answer_length: 4000
  rate_limit_per_minute: 10
upload:
  allowed_extensions: []
  max_file_size_mb: 10
report:
  results_dir: results
`,
		"extension without dot": `
api:
  request_timeout_seconds: 30
input:
  max_answer_length: 4000
  rate_limit_per_minute: 10
upload:
  allowed_extensions: ["xlsx"]
  max_file_size_mb: 10
report:
  results_dir: results
`,
		"empty results dir": `
api:
  request_timeout_seconds: 30
input:
  max_answer_length: 4000
  rate_limit_per_minute: 10
upload:
  allowed_extensions: [".xlsx"]
  max_file_size_mb: 10
report:
  results_dir: ""
`,
	}

	for name, content := range cases {
		if _, err := Load(writeConfig(t, content)); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
