package bookmarks

import (
	"errors"
	"fmt"
)

// Sentinels matched by the typed errors below via errors.Is
var (
	ErrMalformedTimestamp = errors.New("malformed timestamp")
	ErrMalformedName      = errors.New("malformed bookmark name")
	ErrMalformedRecord    = errors.New("malformed bookmark record")
	ErrMissingPhase       = errors.New("missing phase")
)

// MalformedTimestampError reports a bookmark time that is not
// <seconds>.<fraction> or <seconds>,<fraction>
type MalformedTimestampError struct {
	Value  string
	Reason string
}

func (e *MalformedTimestampError) Error() string {
	return fmt.Sprintf("malformed timestamp %q: %s", e.Value, e.Reason)
}

func (e *MalformedTimestampError) Is(target error) bool { return target == ErrMalformedTimestamp }

// MalformedNameError reports a bookmark label that does not decode to
// <phase>_<target>_<operator>_<plane>[_<attempt>]
type MalformedNameError struct {
	Name   string
	Reason string
}

func (e *MalformedNameError) Error() string {
	return fmt.Sprintf("malformed bookmark name %q: %s", e.Name, e.Reason)
}

func (e *MalformedNameError) Is(target error) bool { return target == ErrMalformedName }

// MalformedRecordError reports a bookmark entry that is not name=...,time=...
type MalformedRecordError struct {
	Record string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed bookmark record %q: expected name=<label>,time=<timestamp>", e.Record)
}

func (e *MalformedRecordError) Is(target error) bool { return target == ErrMalformedRecord }

// MissingPhaseError reports an insertion end seen before any planning or
// start bookmark of the recording
type MissingPhaseError struct {
	Event   string
	Missing []string
}

func (e *MissingPhaseError) Error() string {
	return fmt.Sprintf("bookmark %q ends an insertion without a preceding %v bookmark", e.Event, e.Missing)
}

func (e *MissingPhaseError) Is(target error) bool { return target == ErrMissingPhase }
