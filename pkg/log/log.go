// Copyright 2025 walteh LLC
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

package log

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

// 🎨 Display configuration
const (
	clockLayout = "15:04:05"
	nameWidth   = 30 // Base width for file names
	kindWidth   = 8  // Width for content kind
)

// 📊 FileStatus describes what a copy did to the destination path
type FileStatus int

const (
	StatusUnknown   FileStatus = iota
	StatusNew                  // Nothing existed at the destination
	StatusModified             // Destination existed with different content
	StatusUnchanged            // Destination existed with identical content
)

// String returns a string representation of FileStatus
func (s FileStatus) String() string {
	switch s {
	case StatusNew:
		return "new"
	case StatusModified:
		return "modified"
	case StatusUnchanged:
		return "unchanged"
	default:
		return "unknown"
	}
}

// 🏷️ EventType identifies a recorded log event
type EventType string

const (
	EventTemplateSelected EventType = "template_selected"
	EventDirectoryCreated EventType = "directory_created"
	EventFileCopied       EventType = "file_copied"
	EventFileSkipped      EventType = "file_skipped"
	EventMessage          EventType = "message"
)

// 📝 Event is a single thing the logger was told about
type Event struct {
	Type    EventType
	Level   zerolog.Level
	Path    string // Path relative to the template root, or the absolute template path
	Message string // Rendered console line without color
	Err     error
}

// 🎯 FileOperation represents a copied file for logging
type FileOperation struct {
	Path    string     // Path relative to the template root
	Name    string     // Base name of the file
	DestDir string     // Directory the file was written into
	Kind    string     // Content kind (binary/text)
	Status  FileStatus // What the write did to the destination
	Size    int        // Bytes written
}

// 🎯 Logger handles structured logging with console output
type Logger struct {
	zlog    zerolog.Logger
	console io.Writer
	clock   string
	record  bool
	mu      sync.Mutex
	events  []Event
}

// Option configures a Logger
type Option func(*Logger)

// WithEvents keeps every event so it can be read back with Events
func WithEvents() Option {
	return func(l *Logger) {
		l.record = true
	}
}

// 🏭 New creates a new logger. started is captured once by the caller and
// printed on every console line.
func New(console io.Writer, zlog zerolog.Logger, started time.Time, opts ...Option) *Logger {
	l := &Logger{
		zlog:    zlog,
		console: console,
		clock:   started.Format(clockLayout),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// 🔇 Discard returns a logger that writes nowhere
func Discard() *Logger {
	return New(io.Discard, zerolog.Nop(), time.Now())
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context, or a discarding logger if none is set
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		return Discard()
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// Events returns a copy of everything logged so far. It is always empty
// unless the logger was created WithEvents.
func (l *Logger) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// EventsOfType returns the recorded events of the given type
func (l *Logger) EventsOfType(typ EventType) []Event {
	var out []Event
	for _, ev := range l.Events() {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func baseName(path string) string {
	return filepath.Base(filepath.Clean(path))
}

func (l *Logger) stamp() string {
	return color.New(color.FgHiRed).Sprint(l.clock)
}

// emit prints the line and records it if asked to. Callers hold l.mu.
func (l *Logger) emit(ev Event, line string) {
	fmt.Fprintln(l.console, line)
	if !l.record {
		return
	}
	ev.Message = ansi.ReplaceAllString(line, "")
	l.events = append(l.events, ev)
}

// 📝 formatFileOperation formats a file operation for display
func (l *Logger) formatFileOperation(op FileOperation) string {
	var symbol rune
	var symbolColor color.Attribute
	switch op.Status {
	case StatusNew:
		symbol = '✓'
		symbolColor = color.FgGreen
	case StatusModified:
		symbol = '⟳'
		symbolColor = color.FgBlue
	default:
		symbol = '•'
		symbolColor = color.FgCyan
	}

	var kindColor color.Attribute
	switch op.Kind {
	case "binary":
		kindColor = color.FgMagenta
	default:
		kindColor = color.FgYellow
	}

	return fmt.Sprintf("%s %s %s Copied file: %s %s to %s",
		l.stamp(),
		color.New(color.Faint).Sprint("╰─"),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", nameWidth, op.Name),
		color.New(kindColor).Sprint(fmt.Sprintf("%-*s", kindWidth, op.Kind)),
		color.New(color.FgGreen).Sprint(op.DestDir))
}

// 📦 TemplateSelected logs the resolved template root
func (l *Logger) TemplateSelected(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	line := fmt.Sprintf("%s %s", l.stamp(), color.New(color.FgRed).Sprintf("Using template from: %s", path))
	l.emit(Event{Type: EventTemplateSelected, Level: zerolog.InfoLevel, Path: path}, line)

	l.zlog.Info().Str("template", path).Msg("using template")
}

// 📁 DirectoryCreated logs a directory created at the destination
func (l *Logger) DirectoryCreated(rel, dest string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	name := baseName(dest)
	line := fmt.Sprintf("%s %s", l.stamp(), color.New(color.FgRed).Sprintf("Created directory: %s", name))
	l.emit(Event{Type: EventDirectoryCreated, Level: zerolog.InfoLevel, Path: rel}, line)

	l.zlog.Info().
		Str("directory", rel).
		Str("destination", dest).
		Msg("created directory")
}

// 📝 FileCopied logs a file copied into place
func (l *Logger) FileCopied(op FileOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.emit(Event{Type: EventFileCopied, Level: zerolog.InfoLevel, Path: op.Path}, l.formatFileOperation(op))

	l.zlog.Info().
		Str("file", op.Path).
		Str("kind", op.Kind).
		Str("status", op.Status.String()).
		Str("destination", op.DestDir).
		Int("size", op.Size).
		Msg("copied file")
}

// ⚠️ FileSkipped logs a file that could not be copied but did not stop the run
func (l *Logger) FileSkipped(rel, name string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	line := fmt.Sprintf("%s %s %s", l.stamp(), color.New(color.FgYellow).Sprint("⚠️ "),
		color.New(color.FgYellow).Sprintf("Error reading file: %s - %v", name, err))
	l.emit(Event{Type: EventFileSkipped, Level: zerolog.WarnLevel, Path: rel, Err: err}, line)

	l.zlog.Warn().Err(err).Str("file", rel).Msg("skipped file")
}

func (l *Logger) message(level zerolog.Level, prefix string, attr color.Attribute, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	line := fmt.Sprintf("%s %s %s", l.stamp(), prefix, color.New(attr).Sprint(msg))
	l.emit(Event{Type: EventMessage, Level: level}, line)

	l.zlog.WithLevel(level).Msg(msg)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.message(zerolog.InfoLevel, "✅", color.FgGreen, msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.message(zerolog.WarnLevel, "⚠️ ", color.FgYellow, msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.message(zerolog.InfoLevel, "ℹ️ ", color.FgCyan, msg)
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Successf logs a formatted success message
func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}
