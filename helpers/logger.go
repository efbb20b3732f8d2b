package helpers

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/WilliamsRotolo/autocaricamento/logger"
)

// LogSink receives the human-readable crawl trace, one line at a time and in
// order. Sinks are observational only: nothing a sink does may change how a
// crawl proceeds.
type LogSink interface {
	Log(line string)
}

// LogSinkFunc adapts a plain function to a LogSink
type LogSinkFunc func(line string)

// Log calls f(line)
func (f LogSinkFunc) Log(line string) {
	f(line)
}

// Discard is a LogSink that drops every line
var Discard LogSink = LogSinkFunc(func(string) {})

// Logf formats a trace line and hands it to sink; a nil sink is ignored
func Logf(sink LogSink, format string, args ...interface{}) {
	if sink == nil {
		return
	}
	sink.Log(fmt.Sprintf(format, args...))
}

// TraceLog keeps every line in memory
type TraceLog struct {
	mu    sync.Mutex
	lines []string
}

// NewTraceLog creates an empty in-memory trace
func NewTraceLog() *TraceLog {
	return &TraceLog{}
}

// Log appends a line
func (t *TraceLog) Log(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, line)
}

// Lines returns a copy of the collected lines
func (t *TraceLog) Lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.lines))
	copy(out, t.lines)
	return out
}

// String joins the collected lines with newlines
func (t *TraceLog) String() string {
	return strings.Join(t.Lines(), "\n")
}

// FileLog appends timestamped lines to a file
type FileLog struct {
	mu   sync.Mutex
	path string
}

// NewFileLog creates a sink writing to path
func NewFileLog(path string) *FileLog {
	return &FileLog{path: path}
}

// Log appends the line with a timestamp
func (l *FileLog) Log(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		logger.LogError("crawl_log", err, "Cannot open %s", l.path)
		return
	}
	defer f.Close()

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(f, "[%s] %s\n", timestamp, line)
}

type teeSink []LogSink

func (t teeSink) Log(line string) {
	for _, s := range t {
		s.Log(line)
	}
}

// Tee fans every line out to all non-nil sinks, in argument order
func Tee(sinks ...LogSink) LogSink {
	var out teeSink
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}
