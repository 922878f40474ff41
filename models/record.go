package models

import (
	"strings"
	"time"
)

// TransientPrefix marks keys that exist only for the duration of one pipeline
// run. Transient keys are stripped before a record is serialized.
const TransientPrefix = "_"

// Well-known transient keys set by the pipeline before any hook runs.
const (
	KeyFuncName = "_func_name"
	KeyCallArgs = "_args"
)

// Pipeline-owned keys stamped around the wrapped call.
const (
	KeyStartTime    = "start_time"
	KeyFinishTime   = "finish_time"
	KeyRunDurations = "run_durations"
	KeyTelemetry    = "telemetry"
	KeyResult       = "result"
	KeyError        = "error"
	KeyProfile      = "profile"
)

// Record is the per-call structured result assembled by the pipeline. Keys keep
// their insertion order so persisted lines are stable and diffable. A Record is
// not safe for concurrent use; each pipeline invocation owns exactly one.
type Record struct {
	keys   []string
	values map[string]any
}

// NewRecord creates an empty Record.
func NewRecord() *Record {
	return &Record{values: make(map[string]any)}
}

// Set stores a value under key, preserving the position of an existing key.
func (r *Record) Set(key string, value any) {
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Get returns the value stored under key.
func (r *Record) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Keys returns the record's keys in insertion order.
func (r *Record) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of keys, transient ones included.
func (r *Record) Len() int {
	return len(r.keys)
}

// Merge copies every key/value pair from fields into the record. Iteration
// order over a plain map is not stable, so merged keys are inserted in sorted
// order elsewhere by callers that care; the pipeline merges static fields one
// at a time to keep construction order.
func (r *Record) Merge(fields map[string]any) {
	for k, v := range fields {
		r.Set(k, v)
	}
}

// StripTransient removes every underscore-prefixed key. Called by the pipeline
// after post-run capture and before serialization; no transient key may ever
// reach a sink.
func (r *Record) StripTransient() {
	kept := r.keys[:0]
	for _, k := range r.keys {
		if strings.HasPrefix(k, TransientPrefix) {
			delete(r.values, k)
			continue
		}
		kept = append(kept, k)
	}
	r.keys = kept
}

// Clone returns a shallow copy of the record. Used by hook idempotence tests
// and by callers that want to re-run a hook without disturbing the original.
func (r *Record) Clone() *Record {
	c := &Record{
		keys:   make([]string, len(r.keys)),
		values: make(map[string]any, len(r.values)),
	}
	copy(c.keys, r.keys)
	for k, v := range r.values {
		c.values[k] = v
	}
	return c
}

// Sample is one timestamped snapshot taken by the telemetry sampler while a
// wrapped call is in flight.
type Sample struct {
	Timestamp time.Time
	Fields    map[string]any
}
