// Copyright 2022 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package logging builds the logger used by the jinglectl command.
package logging // import "mellium.im/jingle/internal/logging"

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"mellium.im/jingle/internal/config"
)

// New returns a logger configured from cfg that writes to w and, if a file
// path is configured, to a rotated log file.
// The returned closer closes the log file and must be called when the logger
// is no longer needed.
func New(cfg config.LogConfig, w io.Writer) (*logrus.Logger, io.Closer, error) {
	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return nil, nil, fmt.Errorf("logging: %w", err)
	}

	l := logrus.New()
	l.SetLevel(level)
	switch cfg.Format {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, nil, fmt.Errorf("logging: unsupported format %q", cfg.Format)
	}

	var closer io.Closer = nopCloser{}
	if cfg.File.Path != "" {
		f := &lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    cfg.File.MaxSize, // megabytes
			MaxBackups: cfg.File.MaxBackups,
			MaxAge:     cfg.File.MaxAge, // days
			Compress:   cfg.File.Compress,
		}
		closer = f
		w = io.MultiWriter(w, f)
	}
	l.SetOutput(w)
	return l, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
