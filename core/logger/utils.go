package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"
)

// EventType identifies the kind of an Event.
type EventType string

const (
	// CommandStarted is logged right after an external command is spawned.
	CommandStarted EventType = "command_started"
	// CommandExited is logged once an external command has been reaped.
	CommandExited EventType = "command_exited"
	// CommandNotFound is logged when a name resolves to neither a builtin nor
	// an executable.
	CommandNotFound EventType = "command_not_found"
	// InvalidInvocation is logged when a builtin rejects its arguments.
	InvalidInvocation EventType = "invalid_invocation"
	// BuiltinPanic is logged when a builtin panics.
	BuiltinPanic EventType = "builtin_panic"
)

// Event is a single entry in the event log.
type Event struct {
	TimestampMicros int64     `json:"timestamp_micros"`
	SessionID       string    `json:"session_id,omitempty"`
	Type            EventType `json:"type"`
	Command         []string  `json:"command,omitempty"`
	ResolvedPath    string    `json:"resolved_path,omitempty"`
	Dir             string    `json:"dir,omitempty"`
	Pid             int       `json:"pid,omitempty"`
	ExitCode        int       `json:"exit_code"`
	Error           string    `json:"error,omitempty"`
}

// LogRecorder is a callback that stores events in an external datastore.
type LogRecorder func(e *Event) error

// Logger captures events about the commands run by the interpreter.
type Logger struct {
	Record LogRecorder

	// TimeSource is used to timestamp events, defaults to time.Now.
	TimeSource func() time.Time
}

// NewJsonLinesLogRecorder creates a Logger that exports logs in newline
// delimited JSON object format. It's safe for concurrent use.
func NewJsonLinesLogRecorder(w io.Writer) *Logger {
	var mu sync.Mutex
	return &Logger{
		Record: func(e *Event) error {
			entry, err := json.Marshal(e)
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			_, err = fmt.Fprintln(w, string(entry))
			return err
		},
	}
}

func (l *Logger) now() time.Time {
	if l.TimeSource != nil {
		return l.TimeSource()
	}
	return time.Now()
}

func (l *Logger) record(sessionID string, event *Event) error {
	event.TimestampMicros = l.now().UnixMicro()
	event.SessionID = sessionID

	return l.Record(event)
}

// NewSession creates a logger with a random session ID.
func (l *Logger) NewSession() *SessionLogger {
	return l.NamedSession(fmt.Sprintf("%d", rand.Uint64()))
}

// NamedSession creates a logger with the given session ID.
func (l *Logger) NamedSession(sessionID string) *SessionLogger {
	return &SessionLogger{Logger: l, sessionID: sessionID}
}

// SessionLogger logs events with a shared session ID. A nil SessionLogger
// drops everything.
type SessionLogger struct {
	*Logger
	sessionID string
}

// SessionID returns the ID attached to every event.
func (l *SessionLogger) SessionID() string {
	if l == nil {
		return ""
	}
	return l.sessionID
}

// Record stamps the event and passes it to the recorder.
func (l *SessionLogger) Record(event *Event) error {
	if l == nil || l.Logger == nil || l.Logger.Record == nil {
		return nil
	}
	return l.record(l.sessionID, event)
}
