package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    int64
		wantErr bool
	}{
		{"plain bytes", "1024", 1024, false},
		{"kilobytes lower", "4k", 4 << 10, false},
		{"kilobytes upper", "4K", 4 << 10, false},
		{"megabytes", "16M", 16 << 20, false},
		{"gigabytes", "2G", 2 << 30, false},
		{"whitespace", "  8m ", 8 << 20, false},
		{"empty", "", 0, true},
		{"negative", "-5", 0, true},
		{"garbage", "abc", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSize(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseSize(%q) = %d, nil; want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSize(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseSize(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestApplyRCOnlyFillsDefaults(t *testing.T) {
	opts := Default()
	opts.Stack = 99 << 20 // simulate an explicit --stack flag already applied

	rc := &RCFile{Stack: "8M", Heap: "32M", Precision: 20, Trace: true}
	if err := ApplyRC(&opts, rc); err != nil {
		t.Fatalf("ApplyRC: %v", err)
	}

	if opts.Stack != 99<<20 {
		t.Errorf("ApplyRC overwrote an explicit flag: Stack = %d", opts.Stack)
	}
	if opts.Heap != 32<<20 {
		t.Errorf("Heap = %d, want %d", opts.Heap, 32<<20)
	}
	if opts.Precision != 20 {
		t.Errorf("Precision = %d, want 20", opts.Precision)
	}
	if !opts.Trace {
		t.Errorf("Trace = false, want true")
	}
}

func TestApplyRCMalformedSize(t *testing.T) {
	opts := Default()
	rc := &RCFile{Stack: "not-a-size"}
	if err := ApplyRC(&opts, rc); err == nil {
		t.Fatalf("ApplyRC with malformed size: want error, got nil")
	}
}

func TestLoadRCMissingFileIsNotAnError(t *testing.T) {
	rc, found, err := LoadRC(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("LoadRC: unexpected error %v", err)
	}
	if found {
		t.Errorf("found = true for a missing file")
	}
	if rc != nil {
		t.Errorf("rc = %+v, want nil", rc)
	}
}

func TestLoadRCParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rc.yaml")
	content := "stack: 4M\nheap: 16M\ntrace: true\nprecision: 34\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	rc, found, err := LoadRC(path)
	if err != nil {
		t.Fatalf("LoadRC: %v", err)
	}
	if !found {
		t.Fatalf("found = false, want true")
	}
	if rc.Stack != "4M" || rc.Heap != "16M" || !rc.Trace || rc.Precision != 34 {
		t.Errorf("LoadRC parsed = %+v", rc)
	}
}

func TestResolveSourceTriesExtensionsInOrder(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "prog")
	if err := os.WriteFile(base+".algol68", []byte("begin end"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := ResolveSource(base)
	if err != nil {
		t.Fatalf("ResolveSource: %v", err)
	}
	if got != base+".algol68" {
		t.Errorf("ResolveSource = %q, want %q", got, base+".algol68")
	}
}

func TestResolveSourceExactPathWins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.a68")
	if err := os.WriteFile(path, []byte("begin end"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := ResolveSource(path)
	if err != nil {
		t.Fatalf("ResolveSource: %v", err)
	}
	if got != path {
		t.Errorf("ResolveSource = %q, want %q", got, path)
	}
}

func TestResolveSourceNotFound(t *testing.T) {
	dir := t.TempDir()
	_, err := ResolveSource(filepath.Join(dir, "missing"))
	if err == nil {
		t.Fatalf("ResolveSource: want error for a nonexistent source")
	}
}
