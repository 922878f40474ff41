// Package serializer converts records into newline-delimited JSON. Encoding
// never fails: a value the encoder cannot represent is replaced by the
// Placeholder sentinel and reported through a structured warning, so a single
// bad argument or return value never costs the rest of the record.
package serializer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/upb/microbench/models"
)

// Placeholder is substituted for any leaf value that cannot be encoded. It is
// a distinguished constant rather than JSON null so downstream analysis can
// tell "value was absent" from "value could not be encoded".
const Placeholder = "<non-serializable>"

// Policy converts domain values ahead of JSON encoding. Encode returns the
// replacement value and true when it handled v; the serializer falls back to
// its defaults (and ultimately the Placeholder) otherwise.
type Policy interface {
	Encode(v any) (any, bool)
}

// TimePolicy is the default encoding policy: timestamps become RFC 3339 text
// and durations become seconds.
type TimePolicy struct {
	Layout string
}

// Encode implements Policy.
func (p TimePolicy) Encode(v any) (any, bool) {
	layout := p.Layout
	if layout == "" {
		layout = time.RFC3339Nano
	}
	switch t := v.(type) {
	case time.Time:
		return t.Format(layout), true
	case time.Duration:
		return t.Seconds(), true
	}
	return nil, false
}

// Serializer encodes records as single JSON lines.
type Serializer struct {
	logger *zap.Logger
	policy Policy
}

// Option configures a Serializer.
type Option func(*Serializer)

// WithPolicy replaces the default TimePolicy. Custom policies extend encoding
// to domain objects while keeping the Placeholder fallback for everything the
// policy declines.
func WithPolicy(p Policy) Option {
	return func(s *Serializer) {
		if p != nil {
			s.policy = p
		}
	}
}

// New creates a Serializer. A nil logger is replaced with a no-op logger.
func New(logger *zap.Logger, opts ...Option) *Serializer {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Serializer{
		logger: logger,
		policy: TimePolicy{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Encode renders the record as one JSON object without a trailing newline.
// It never returns an error: unencodable leaves are replaced by Placeholder
// and one warning per leaf is emitted naming the key and the Go type.
func (s *Serializer) Encode(rec *models.Record) []byte {
	var buf bytes.Buffer
	s.writeRecord(&buf, rec)
	return buf.Bytes()
}

func (s *Serializer) writeRecord(buf *bytes.Buffer, rec *models.Record) {
	buf.WriteByte('{')
	first := true
	for _, k := range rec.Keys() {
		v, _ := rec.Get(k)
		if !first {
			buf.WriteByte(',')
		}
		first = false
		writeString(buf, k)
		buf.WriteByte(':')
		s.writeValue(buf, k, v)
	}
	buf.WriteByte('}')
}

func (s *Serializer) writeValue(buf *bytes.Buffer, key string, v any) {
	if v == nil {
		buf.WriteString("null")
		return
	}

	if enc, ok := s.policy.Encode(v); ok {
		s.writeLeaf(buf, key, enc)
		return
	}

	switch t := v.(type) {
	case *models.Record:
		s.writeRecord(buf, t)
		return
	case models.Sample:
		s.writeSample(buf, key, t)
		return
	case []models.Sample:
		buf.WriteByte('[')
		for i, sm := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			s.writeSample(buf, fmt.Sprintf("%s[%d]", key, i), sm)
		}
		buf.WriteByte(']')
		return
	case map[string]any:
		s.writeMap(buf, key, t)
		return
	case []any:
		buf.WriteByte('[')
		for i, el := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			s.writeValue(buf, fmt.Sprintf("%s[%d]", key, i), el)
		}
		buf.WriteByte(']')
		return
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		s.writeLeaf(buf, key, t)
		return
	}

	// Generic containers are walked so that only the leaf that fails encoding
	// is replaced; siblings are preserved.
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		buf.WriteByte('[')
		for i := 0; i < rv.Len(); i++ {
			if i > 0 {
				buf.WriteByte(',')
			}
			s.writeValue(buf, fmt.Sprintf("%s[%d]", key, i), rv.Index(i).Interface())
		}
		buf.WriteByte(']')
		return
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			m := make(map[string]any, rv.Len())
			iter := rv.MapRange()
			for iter.Next() {
				m[iter.Key().String()] = iter.Value().Interface()
			}
			s.writeMap(buf, key, m)
			return
		}
	}

	s.writeLeaf(buf, key, v)
}

func (s *Serializer) writeMap(buf *bytes.Buffer, key string, m map[string]any) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeString(buf, k)
		buf.WriteByte(':')
		s.writeValue(buf, key+"."+k, m[k])
	}
	buf.WriteByte('}')
}

func (s *Serializer) writeSample(buf *bytes.Buffer, key string, sm models.Sample) {
	buf.WriteByte('{')
	writeString(buf, "timestamp")
	buf.WriteByte(':')
	s.writeValue(buf, key+".timestamp", sm.Timestamp)

	keys := make([]string, 0, len(sm.Fields))
	for k := range sm.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if k == "timestamp" {
			// The sample's own timestamp owns this key.
			s.logger.Warn("telemetry sample field shadows the sample timestamp, dropping it",
				zap.String("key", key+".timestamp"))
			continue
		}
		buf.WriteByte(',')
		writeString(buf, k)
		buf.WriteByte(':')
		s.writeValue(buf, key+"."+k, sm.Fields[k])
	}
	buf.WriteByte('}')
}

// writeLeaf marshals a single leaf value, substituting Placeholder when the
// standard encoder rejects it (functions, channels, NaN, cyclic values, ...).
func (s *Serializer) writeLeaf(buf *bytes.Buffer, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn("value is not JSON-encodable, substituting placeholder",
			zap.String("key", key),
			zap.String("type", fmt.Sprintf("%T", v)))
		b, _ = json.Marshal(Placeholder)
	}
	buf.Write(b)
}

func writeString(buf *bytes.Buffer, s string) {
	b, _ := json.Marshal(s)
	buf.Write(b)
}
