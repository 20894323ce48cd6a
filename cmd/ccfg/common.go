package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"github.com/ludo-technologies/ccfg/internal/config"
	"github.com/ludo-technologies/ccfg/internal/logging"
	"github.com/ludo-technologies/ccfg/service"
)

// loadConfig reads configPath, or discovers a config near the first path
func loadConfig(configPath string, paths []string) (*config.Config, error) {
	target := ""
	if len(paths) > 0 {
		target = paths[0]
	}
	cfg, err := service.NewConfigurationLoader().Load(configPath, target)
	if err != nil {
		return nil, err
	}
	if !cfg.Output.Color {
		color.NoColor = true
	}
	return cfg, nil
}

// logFile is set by the persistent --log-file flag
var logFile string

func newLogger(cfg *config.Config, verbose bool) *zap.Logger {
	var files []string
	if logFile != "" {
		files = append(files, logFile)
	}
	logger, err := logging.New(logging.Verbose(cfg.Logging, verbose), files...)
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// openOutput returns the writer for -o, falling back to stdout
func openOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file %s: %w", path, err)
	}
	return f, f.Close, nil
}

// isTerminal reports whether w is an interactive terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

func printMessages(w io.Writer, prefix string, messages []string) {
	for _, m := range messages {
		fmt.Fprintf(w, "%s: %s\n", prefix, m)
	}
}
