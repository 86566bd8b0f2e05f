package log

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arus.log")
	w := NewFileWriter(DefaultFileConfig(path))

	logger := New(w, InfoLevel)
	logger.Info().Str("addr", ":3000").Msg("listening")
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "INFO | listening addr=:3000") {
		t.Errorf("unexpected file content %q", data)
	}
}
