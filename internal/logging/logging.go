package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/uorlab/primeseek/internal/interfaces"
)

// Logger and Field are re-exported so callers can depend on this package
// alone for everyday logging.
type Logger = interfaces.Logger

type Field = interfaces.Field

// StdoutLogger is a tiny, structured logger used during development.
// It implements interfaces.Logger and prints JSON lines to stdout.
// An optional secondary sink mirrors every line to an append-only file,
// which is how VM execution traces end up in vm.log_file.
type StdoutLogger struct {
	component string
	debug     bool

	mu   *sync.Mutex
	sink io.Writer
}

// NewStdoutLogger creates a new simple StdoutLogger. component is optional and
// will be included as a persistent field on With().
func NewStdoutLogger(component string) *StdoutLogger {
	return &StdoutLogger{component: component, mu: &sync.Mutex{}}
}

// NewFileLogger creates a logger that mirrors every line to the given file,
// appending. A failure to open the file degrades to stdout-only logging.
func NewFileLogger(component, path string, debug bool) *StdoutLogger {
	l := &StdoutLogger{component: component, debug: debug, mu: &sync.Mutex{}}
	if path == "" {
		return l
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: cannot open %s: %v\n", path, err)
		return l
	}
	l.sink = f
	return l
}

// SetDebug toggles debug-level output.
func (s *StdoutLogger) SetDebug(debug bool) {
	s.debug = debug
}

func (s *StdoutLogger) log(level string, msg string, fields ...interfaces.Field) {
	type outEntry struct {
		Level     string         `json:"level"`
		Msg       string         `json:"msg"`
		Component string         `json:"component,omitempty"`
		Time      string         `json:"time"`
		Fields    map[string]any `json:"fields,omitempty"`
	}
	m := make(map[string]any)
	for _, f := range fields {
		m[f.Key] = f.Value
	}
	entry := outEntry{
		Level:     level,
		Msg:       msg,
		Component: s.component,
		Time:      time.Now().UTC().Format(time.RFC3339),
		Fields:    m,
	}
	enc, err := json.Marshal(entry)
	if err != nil {
		// Fallback simple formatting to stdout if JSON marshal fails
		fmt.Fprintf(os.Stdout, "%s %s %v\n", level, msg, m)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(os.Stdout, string(enc))
	if s.sink != nil {
		fmt.Fprintln(s.sink, string(enc))
	}
}

func (s *StdoutLogger) Debug(msg string, fields ...interfaces.Field) {
	if !s.debug {
		return
	}
	s.log("debug", msg, fields...)
}

func (s *StdoutLogger) Info(msg string, fields ...interfaces.Field) {
	s.log("info", msg, fields...)
}

func (s *StdoutLogger) Warn(msg string, fields ...interfaces.Field) {
	s.log("warn", msg, fields...)
}

func (s *StdoutLogger) Error(msg string, fields ...interfaces.Field) {
	s.log("error", msg, fields...)
}

func (s *StdoutLogger) With(fields ...interfaces.Field) interfaces.Logger {
	// create a child logger sharing the sink (simple implementation)
	child := &StdoutLogger{component: s.component, debug: s.debug, mu: s.mu, sink: s.sink}
	// If fields include a component key, prefer that as the component name
	for _, f := range fields {
		if f.Key == "component" {
			if str, ok := f.Value.(string); ok {
				child.component = str
			}
		}
	}
	return child
}
