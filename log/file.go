package log

import (
	"io"

	"gopkg.in/natefinch/lumberjack.v2"
)

// FileConfig configures a rotating log file.
type FileConfig struct {
	// Filename is the file to write to. Backups use the same directory.
	Filename string `yaml:"filename"`
	// MaxSize is the size in megabytes before the file is rotated.
	MaxSize int `yaml:"max_size"`
	// MaxBackups is the number of rotated files to keep.
	MaxBackups int `yaml:"max_backups"`
	// MaxAge is the number of days to keep rotated files.
	MaxAge int `yaml:"max_age"`
	// Compress gzips rotated files.
	Compress bool `yaml:"compress"`
}

// DefaultFileConfig returns a FileConfig rotating at 100MB and keeping
// three backups for 28 days.
func DefaultFileConfig(filename string) FileConfig {
	return FileConfig{
		Filename:   filename,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
	}
}

// NewFileWriter returns a writer that rotates the file described by cfg.
// The caller closes it when done.
func NewFileWriter(cfg FileConfig) io.WriteCloser {
	return &lumberjack.Logger{
		Filename:   cfg.Filename,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
}
