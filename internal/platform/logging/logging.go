package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	hclog "github.com/hashicorp/go-hclog"

	"examclock/internal/platform/config"
)

// New builds the process logger. When cfg.LogFile is empty output goes to w,
// which the TUI sets to io.Discard so the alt screen stays clean. The returned
// closer releases the log file, if any.
func New(cfg config.Config, w io.Writer) (hclog.Logger, io.Closer, error) {
	var closer io.Closer = nopCloser{}
	out := w
	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out, closer = f, f
	}
	level := hclog.LevelFromString(cfg.LogLevel)
	if level == hclog.NoLevel {
		level = hclog.Info
	}
	if strings.EqualFold(cfg.LogLevel, "off") {
		out = io.Discard
	}
	logger := hclog.New(&hclog.LoggerOptions{
		Name:       "examclock",
		Level:      level,
		Output:     out,
		JSONFormat: cfg.LogJSON,
	})
	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
