//
// See the file COPYRIGHT for copyright information.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

// Package log is a slog.Handler for people reading logs in a terminal.
//
// Each record is one line: a timestamp, the level and message in the level's color, then
// the record's attributes as compact JSON.
package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

const (
	reset      = "\033[0m"
	gray       = "\033[90m"
	green      = "\033[32m"
	cyan       = "\033[36m"
	yellow     = "\033[33m"
	red        = "\033[31m"
	brightRed  = "\033[91m"
	timeFormat = "[15:04:05.000]"
)

type Handler struct {
	inner            slog.Handler
	buf              *bytes.Buffer
	mu               *sync.Mutex
	writer           io.Writer
	colorize         bool
	outputEmptyAttrs bool
}

var _ slog.Handler = (*Handler)(nil)

type Option func(h *Handler)

// WithDestinationWriter sends output to w instead of stdout.
func WithDestinationWriter(w io.Writer) Option {
	return func(h *Handler) {
		h.writer = w
	}
}

// WithOutputEmptyAttrs prints "{}" for records with no attributes.
func WithOutputEmptyAttrs() Option {
	return func(h *Handler) {
		h.outputEmptyAttrs = true
	}
}

func WithColor(colorize bool) Option {
	return func(h *Handler) {
		h.colorize = colorize
	}
}

// New creates a Handler. handlerOptions may be nil.
func New(handlerOptions *slog.HandlerOptions, opts ...Option) *Handler {
	if handlerOptions == nil {
		handlerOptions = &slog.HandlerOptions{}
	}
	buf := &bytes.Buffer{}
	h := &Handler{
		buf: buf,
		inner: slog.NewJSONHandler(buf, &slog.HandlerOptions{
			Level:       handlerOptions.Level,
			AddSource:   handlerOptions.AddSource,
			ReplaceAttr: dropBuiltins(handlerOptions.ReplaceAttr),
		}),
		mu:       &sync.Mutex{},
		writer:   os.Stdout,
		colorize: true,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// dropBuiltins removes the time, level, and message, which the Handler prints itself.
func dropBuiltins(next func([]string, slog.Attr) slog.Attr) func([]string, slog.Attr) slog.Attr {
	return func(groups []string, a slog.Attr) slog.Attr {
		if len(groups) == 0 && (a.Key == slog.TimeKey || a.Key == slog.LevelKey || a.Key == slog.MessageKey) {
			return slog.Attr{}
		}
		if next != nil {
			return next(groups, a)
		}
		return a
	}
}

func (h *Handler) clone(inner slog.Handler) *Handler {
	return &Handler{
		inner:            inner,
		buf:              h.buf,
		mu:               h.mu,
		writer:           h.writer,
		colorize:         h.colorize,
		outputEmptyAttrs: h.outputEmptyAttrs,
	}
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.clone(h.inner.WithAttrs(attrs))
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return h.clone(h.inner.WithGroup(name))
}

func levelColor(level slog.Level) string {
	switch {
	case level < slog.LevelInfo:
		return gray
	case level < slog.LevelWarn:
		return green
	case level < slog.LevelError:
		return yellow
	case level == slog.LevelError:
		return red
	default:
		return brightRed
	}
}

// attrs renders the record's attributes, including those added with WithAttrs and
// WithGroup, by running the record through the inner JSON handler.
func (h *Handler) attrs(ctx context.Context, r slog.Record) ([]byte, error) {
	h.mu.Lock()
	defer func() {
		h.buf.Reset()
		h.mu.Unlock()
	}()
	if err := h.inner.Handle(ctx, r); err != nil {
		return nil, fmt.Errorf("[Handle]: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(h.buf.Bytes(), &m); err != nil {
		return nil, fmt.Errorf("[json.Unmarshal]: %w", err)
	}
	if len(m) == 0 && !h.outputEmptyAttrs {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("[json.Marshal]: %w", err)
	}
	return b, nil
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	attrs, err := h.attrs(ctx, r)
	if err != nil {
		return err
	}
	var line strings.Builder
	if !r.Time.IsZero() {
		line.WriteString(r.Time.Format(timeFormat))
		line.WriteByte(' ')
	}
	if h.colorize {
		line.WriteString(levelColor(r.Level))
	}
	line.WriteString(r.Level.String())
	line.WriteString(": ")
	line.WriteString(r.Message)
	if h.colorize {
		line.WriteString(reset)
	}
	if len(attrs) > 0 {
		line.WriteByte(' ')
		if h.colorize {
			line.WriteString(cyan)
		}
		line.Write(attrs)
		if h.colorize {
			line.WriteString(reset)
		}
	}
	line.WriteByte('\n')
	_, err = io.WriteString(h.writer, line.String())
	return err
}
