package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.HistoryLimit != 100 || c.LogLevel != "warn" || c.PreviewRows != 10 || c.HistogramBins != 30 || c.BarTop != 20 || c.SheetIndex != 1 {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.ExportBOM || c.Delimiter != "" || c.DecimalSeparator != "." {
		t.Fatalf("unexpected defaults: %+v", c)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "cfg", "config.yaml")
	c := &Global{HistoryLimit: 5, LogLevel: "debug", LogFormat: "json", Delimiter: ";", NAValues: []string{"-", "?"}, SheetIndex: 2, ExportBOM: true}
	if err := Save(c, p); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.HistoryLimit != 5 || got.Delimiter != ";" || !got.ExportBOM || got.SheetIndex != 2 || len(got.NAValues) != 2 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte("history_limit: 7\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("WRANGLE_HISTORY_LIMIT", "3")
	c, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.HistoryLimit != 3 {
		t.Fatalf("expected env to win, got %d", c.HistoryLimit)
	}
}

func TestLoadFileIgnoresEnv(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte("history_limit: 7\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("WRANGLE_HISTORY_LIMIT", "3")
	t.Setenv("WRANGLE_LOG_LEVEL", "error")
	c, err := LoadFile(p)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if c.HistoryLimit != 7 || c.LogLevel != "warn" {
		t.Fatalf("env leaked into file config: %+v", c)
	}
}

func TestLoadRejectsNegativeLimitAndBadFile(t *testing.T) {
	dir := t.TempDir()
	neg := filepath.Join(dir, "neg.yaml")
	if err := os.WriteFile(neg, []byte("history_limit: -1\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(neg); err == nil {
		t.Fatalf("expected error for negative history_limit")
	}
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("history_limit: [\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(bad); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestSetAndGet(t *testing.T) {
	c := &Global{}
	cases := []struct{ key, val, want string }{
		{"history_limit", "25", "25"},
		{"log_level", "DEBUG", "debug"},
		{"delimiter", "tab", "tab"},
		{"na_values", "NA, -", "NA,-"},
		{"export_bom", "true", "true"},
	}
	for _, tc := range cases {
		if err := c.Set(tc.key, tc.val); err != nil {
			t.Fatalf("Set(%s): %v", tc.key, err)
		}
		got, err := c.Get(tc.key)
		if err != nil || got != tc.want {
			t.Fatalf("Get(%s) = %q, %v; want %q", tc.key, got, err, tc.want)
		}
	}
	for _, bad := range [][2]string{{"history_limit", "-2"}, {"log_format", "xml"}, {"delimiter", "#"}, {"nope", "1"}} {
		if err := c.Set(bad[0], bad[1]); err == nil {
			t.Fatalf("Set(%s, %s) should fail", bad[0], bad[1])
		}
	}
}

func TestSeparatorParsing(t *testing.T) {
	if r, _ := ParseDecimal("comma"); r != ',' {
		t.Fatalf("ParseDecimal(comma) = %q", r)
	}
	if r, _ := ParseThousands("space"); r != ' ' {
		t.Fatalf("ParseThousands(space) = %q", r)
	}
	if r, err := ParseDelimiter(""); r != 0 || err != nil {
		t.Fatalf("empty delimiter should mean sniff")
	}
}
