package ttylog

import (
	"io"
	"sync"
	"time"
)

// Fd identifies the stream an Entry was recorded from.
type Fd int

const (
	FdStdin  Fd = 0
	FdStdout Fd = 1
	FdStderr Fd = 2
)

// Entry is a chunk of data that passed through one of a script's streams.
type Entry struct {
	TimestampMicros int64
	Fd              Fd
	Data            []byte
}

// LogSink receives log events.
type LogSink func(e *Entry) error

// LogSource adapts log readers.
type LogSource interface {
	// Next fetches the next available log entry. It returns io.EOF if the source
	// has no more log entries.
	Next() (*Entry, error)
}

// NewRealTimePlayback plays back the results in real-time.
// If maxSleep > 0, it's used as the maximum duration to pause, otherwise
// entries are passed on without pausing.
func NewRealTimePlayback(maxSleep time.Duration, next LogSink) LogSink {
	var once sync.Once
	var prevTimeMicros int64

	return func(entry *Entry) error {
		once.Do(func() {
			prevTimeMicros = entry.TimestampMicros
		})

		delta := entry.TimestampMicros - prevTimeMicros
		prevTimeMicros = entry.TimestampMicros

		if maxSleep > 0 {
			sleepDuration := time.Duration(delta) * time.Microsecond
			if sleepDuration > maxSleep {
				sleepDuration = maxSleep
			}
			time.Sleep(sleepDuration)
		}

		return next(entry)
	}
}

// NewClientOutput writes stdout and stderr to the given writer
func NewClientOutput(w io.Writer) LogSink {
	return func(entry *Entry) error {
		if entry.Fd == FdStdin {
			return nil
		}
		_, err := w.Write(entry.Data)
		return err
	}
}

// Replay reads a stream of events to a callback.
func Replay(recording LogSource, callback LogSink) error {
	for {
		entry, err := recording.Next()
		switch {
		case err == io.EOF:
			return nil
		case err != nil:
			return err
		}

		if err := callback(entry); err != nil {
			return err
		}
	}
}

// Recorder copies everything written to its wrapped streams into a LogSink.
type Recorder struct {
	mutex  sync.Mutex
	output LogSink
	err    error

	// TimeSource stamps entries, defaults to time.Now.
	TimeSource func() time.Time
}

// NewRecorder creates a recorder that forwards all events to output.
func NewRecorder(output LogSink) *Recorder {
	return &Recorder{output: output, TimeSource: time.Now}
}

// Writer wraps w so writes are recorded as coming from fd.
func (r *Recorder) Writer(fd Fd, w io.Writer) io.Writer {
	return &recorderWriter{r: r, fd: fd, wrapped: w}
}

// Err returns the first error the sink returned. Recording stops after the
// sink fails but the wrapped streams keep working.
func (r *Recorder) Err() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.err
}

func (r *Recorder) record(fd Fd, data []byte, eventTime time.Time) {
	if len(data) == 0 {
		return
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.err != nil {
		return
	}

	r.err = r.output(&Entry{
		TimestampMicros: eventTime.UnixMicro(),
		Fd:              fd,
		Data:            append([]byte(nil), data...),
	})
}

type recorderWriter struct {
	r       *Recorder
	fd      Fd
	wrapped io.Writer
}

var _ io.Writer = (*recorderWriter)(nil)

func (rw *recorderWriter) Write(p []byte) (int, error) {
	eventTime := rw.r.TimeSource()
	n, err := rw.wrapped.Write(p)
	rw.r.record(rw.fd, p[:n], eventTime)
	return n, err
}
