package unformatted

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/genie68/a68run/internal/transput"
	"github.com/genie68/a68run/internal/value"
)

func tempTextFile(t *testing.T, contents string) *transput.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scalar.txt")
	if contents != "" {
		if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
	return transput.Open(transput.TextChannel, path)
}

func readBackFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	return string(b)
}

// TestWriteScalarIntSignAndWidth is spec.md scenario S4: printing an
// INT always carries an explicit sign and pads to the mode's default
// width ("         +8", 11 characters).
func TestWriteScalarIntSignAndWidth(t *testing.T) {
	tests := []struct {
		name string
		v    int64
		want string
	}{
		{"positive", 8, "         +8"},
		{"negative", -8, "         -8"},
		{"zero", 0, "         +0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out.txt")
			f := transput.Establish(transput.TextChannel, path)
			if err := WriteScalar(f, value.NewScalarMode(value.KindInt), value.Int(tt.v)); err != nil {
				t.Fatalf("WriteScalar: %v", err)
			}
			if got := readBackFile(t, path); got != tt.want {
				t.Errorf("WriteScalar(%d) = %q (len %d), want %q (len %d)", tt.v, got, len(got), tt.want, len(tt.want))
			}
		})
	}
}

func TestDefaultWidthByMode(t *testing.T) {
	tests := []struct {
		kind value.Kind
		want int
	}{
		{value.KindInt, 11},
		{value.KindLongInt, 22},
		{value.KindLongLongInt, 44},
	}
	for _, tt := range tests {
		got := defaultWidth(value.NewScalarMode(tt.kind))
		if got != tt.want {
			t.Errorf("defaultWidth(%v) = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestReadScalarRoundTripsInt(t *testing.T) {
	f := tempTextFile(t, " 42 ")
	c, err := ReadScalar(f, value.NewScalarMode(value.KindInt))
	if err != nil {
		t.Fatalf("ReadScalar: %v", err)
	}
	if got := c.AsInt(); got != 42 {
		t.Errorf("ReadScalar = %d, want 42", got)
	}
}
