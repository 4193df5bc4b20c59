package utils_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/sheetpulse/internal/utils"
)

func TestSafeWriteFileCreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "report.csv")
	if err := utils.SafeWriteFile(path, []byte("a,b\n")); err != nil {
		t.Fatalf("SafeWriteFile: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != "a,b\n" {
		t.Fatalf("content = %q", b)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
}

func TestOutputPath(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		target string
		want   string
	}{
		{"", "x.csv"},
		{dir, filepath.Join(dir, "x.csv")},
		{filepath.Join(dir, "custom.csv"), filepath.Join(dir, "custom.csv")},
	}
	for _, c := range cases {
		if got := utils.OutputPath(c.target, "x.csv"); got != c.want {
			t.Errorf("OutputPath(%q) = %q, want %q", c.target, got, c.want)
		}
	}
}
