package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
)

// ReadJSONLinesLog parses a newline delimited JSON log.
func ReadJSONLinesLog(r io.Reader, handler func(e *Event)) error {
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	for decoder.More() {
		var event Event
		if err := decoder.Decode(&event); err != nil {
			return fmt.Errorf("reading event log: %w", err)
		}

		handler(&event)
	}
	return nil
}

func NewBugReport() *BugReport {
	return &BugReport{
		InvalidInvocations: NewPathCounter("command", "error"),
		UnknownCommands:    NewPathCounter("command", "dir"),
		Panics:             NewPathCounter("command", "error"),
	}
}

// BugReport pulls events that are likely bugs in the scripts being run.
type BugReport struct {
	LogEntries int `json:"log_entries"`

	InvalidInvocations *PathCounter `json:"invalid_invocations"`
	UnknownCommands    *PathCounter `json:"unknown_commands"`
	Panics             *PathCounter `json:"panics"`
}

func (r *BugReport) Update(e *Event) {
	r.LogEntries++

	switch e.Type {
	case BuiltinPanic:
		r.Panics.Increment(commandName(e), e.Error)
	case CommandNotFound:
		r.UnknownCommands.Increment(commandName(e), e.Dir)
	case InvalidInvocation:
		r.InvalidInvocations.Increment(commandName(e), e.Error)
	}
}

// SessionReport lists what happened in each session.
type SessionReport struct {
	// Map of sessionID -> session
	sessions map[string]*Session
}

type Session struct {
	LogEntries int      `json:"log_entries"`
	Commands   []string `json:"commands"`
	Failures   int      `json:"failures"`
}

func (s *Session) Update(e *Event) {
	s.LogEntries++

	switch e.Type {
	case CommandStarted, CommandNotFound:
		s.Commands = append(s.Commands, strings.Join(e.Command, " "))
	}

	switch {
	case e.Type == CommandExited && e.ExitCode != 0,
		e.Type == CommandNotFound,
		e.Type == BuiltinPanic:
		s.Failures++
	}
}

func (i *SessionReport) init() {
	if i.sessions == nil {
		i.sessions = make(map[string]*Session)
	}
}

// MarshalJSON implemnts custom JSON marshaler.
func (i *SessionReport) MarshalJSON() ([]byte, error) {
	i.init()

	return json.Marshal(i.sessions)
}

func (i *SessionReport) Update(e *Event) {
	i.init()

	if e.SessionID == "" {
		return
	}
	session, ok := i.sessions[e.SessionID]
	if !ok {
		session = &Session{}
		i.sessions[e.SessionID] = session
	}

	session.Update(e)
}

// Report holds statistics about the logged events.
type Report struct {
	LogEntries     int        `json:"log_entries"`
	InvalidEntries StrCounter `json:"unknown_log_entries,omitempty"`

	RunCommand        RunCommandReport        `json:"run_command_report"`
	UnknownCommand    UnknownCommandReport    `json:"unknown_command_report"`
	InvalidInvocation InvalidInvocationReport `json:"invalid_invocation_report"`
	Panic             PanicReport             `json:"panic_report"`
}

func (r *Report) Update(e *Event) {
	r.LogEntries++

	switch e.Type {
	case CommandStarted:
		r.RunCommand.update(e)
	case CommandExited:
		r.RunCommand.exited(e)
	case CommandNotFound:
		r.UnknownCommand.update(e)
	case InvalidInvocation:
		r.InvalidInvocation.update(e)
	case BuiltinPanic:
		r.Panic.update(e)
	default:
		r.InvalidEntries.Increment(string(e.Type))
	}
}

type RunCommandReport struct {
	// Resolved paths of the commands.
	ResolvedCommandPaths StrCounter `json:"resolved_command_names"`
	// Name of the command.
	CommandNames StrCounter `json:"command_names"`
	// Exit codes of the commands that finished.
	ExitCodes StrCounter `json:"exit_codes"`
}

func (r *RunCommandReport) update(e *Event) {
	r.ResolvedCommandPaths.Increment(e.ResolvedPath)
	r.CommandNames.Increment(commandName(e))
}

func (r *RunCommandReport) exited(e *Event) {
	r.ExitCodes.Increment(fmt.Sprintf("%d", e.ExitCode))
}

type UnknownCommandReport struct {
	CommandNames StrCounter `json:"command_names"`
}

func (r *UnknownCommandReport) update(e *Event) {
	r.CommandNames.Increment(commandName(e))
}

type InvalidInvocationReport struct {
	CommandNames StrCounter `json:"command_counts"`
}

func (r *InvalidInvocationReport) update(e *Event) {
	r.CommandNames.Increment(commandName(e))
}

type PanicReport struct {
	Contexts []string `json:"contexts"`
}

func (r *PanicReport) update(e *Event) {
	r.Contexts = append(r.Contexts, fmt.Sprintf("%s: %s", commandName(e), e.Error))
}

func commandName(e *Event) string {
	if len(e.Command) == 0 {
		return ""
	}
	return e.Command[0]
}

// StrCounter counts the number of strings seen.
type StrCounter struct {
	internal map[string]int
}

// Increment adds one to the given key.
func (s *StrCounter) Increment(toAdd string) {
	if s.internal == nil {
		s.internal = make(map[string]int)
	}

	s.internal[toAdd]++
}

// Count returns how many times the key was seen.
func (s *StrCounter) Count(key string) int {
	return s.internal[key]
}

// MarshalJSON implemnts custom JSON marshaler.
func (s StrCounter) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.internal)
}

func NewPathCounter(cols ...string) *PathCounter {
	return &PathCounter{
		cols:     cols,
		internal: make(map[string]int),
	}
}

// PathCounter counts the number of times each tuple of strings was seen.
type PathCounter struct {
	cols     []string
	internal map[string]int
}

// Increment adds one to the given key.
func (ctr *PathCounter) Increment(toAdd ...string) {
	if len(toAdd) != len(ctr.cols) {
		panic("wrong number of columns to add")
	}

	ctr.internal[toKey(toAdd...)]++
}

// MarshalJSON implemnts custom JSON marshaler.
func (ctr *PathCounter) MarshalJSON() ([]byte, error) {
	type Count struct {
		Count  int               `json:"count"`
		Fields map[string]string `json:"event"`
		Path   string            `json:"-"`
	}

	out := []Count{}
	for k, v := range ctr.internal {
		count := Count{
			Count:  v,
			Path:   k,
			Fields: make(map[string]string),
		}

		splitPath := fromKey(k)
		for colNum, colVal := range ctr.cols {
			count.Fields[colVal] = splitPath[colNum]
		}

		out = append(out, count)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Path < out[j].Path
		}
		return out[i].Count > out[j].Count
	})

	return json.Marshal(out)
}

func toKey(vals ...string) string {
	key, _ := json.Marshal(vals)
	return string(key)
}

func fromKey(key string) (out []string) {
	json.Unmarshal([]byte(key), &out)
	return
}
