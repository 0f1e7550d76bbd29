package config

import (
	"io"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger returns a logger writing to a rotating file plus any extra
// writers, and the closer for the file. The terminal UI passes its log
// channel writer here; stdout is never used because the UI owns it.
func NewLogger(cfg LogConfig, extra ...io.Writer) (*log.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
		return nil, nil, err
	}
	rotating := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
	}
	writers := append([]io.Writer{rotating}, extra...)
	return log.New(io.MultiWriter(writers...), "", log.LstdFlags|log.Lmicroseconds), rotating, nil
}

// ChanWriter forwards each write as one line to a channel. Writes never
// block; lines are dropped when the reader falls behind.
type ChanWriter chan<- string

func (w ChanWriter) Write(p []byte) (int, error) {
	line := string(p)
	if n := len(line); n > 0 && line[n-1] == '\n' {
		line = line[:n-1]
	}
	select {
	case w <- line:
	default:
	}
	return len(p), nil
}
