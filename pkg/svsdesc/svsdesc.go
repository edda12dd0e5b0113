// Package svsdesc parses and serializes the pipe-delimited key/value
// payload Aperio stores in a TIFF ImageDescription tag:
//
//	Aperio Image Library v11.0.0|AppMag = 20|StripeWidth = 2000|...
package svsdesc

import (
	"fmt"
	"strconv"
	"strings"
)

// Entry is one key/value segment of a description, in the order it
// appeared (or should appear) in the pipe-delimited string.
type Entry struct {
	Key   string
	Value any // int64, float64, or string

	// raw is the original text of the value, reused verbatim by
	// Serialize until Set overwrites it, so that an unmodified entry
	// round-trips byte-for-byte even though e.g. "0.4990" and "0.499"
	// both coerce to the same float64.
	raw       string
	hasEquals bool
	modified  bool
}

// Description is a parsed SVS ImageDescription: a free-text prefix
// (typically "Aperio Image Library ...") followed by ordered key/value
// entries.
type Description struct {
	Prefix  string
	Entries []Entry
}

// Get returns the value for key and whether it was present.
func (d *Description) Get(key string) (any, bool) {
	for _, e := range d.Entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Set overwrites key's value if present, or appends a new entry if not,
// preserving insertion order for existing keys.
func (d *Description) Set(key string, value any) {
	for i, e := range d.Entries {
		if e.Key == key {
			d.Entries[i].Value = value
			d.Entries[i].modified = true
			return
		}
	}
	d.Entries = append(d.Entries, Entry{Key: key, Value: value, modified: true})
}

// Delete removes key if present.
func (d *Description) Delete(key string) {
	for i, e := range d.Entries {
		if e.Key == key {
			d.Entries = append(d.Entries[:i], d.Entries[i+1:]...)
			return
		}
	}
}

// Parse splits s on "|"; the first segment is the prefix, and each later
// segment splits on the first "=" with surrounding whitespace trimmed.
// Values are coerced to int64 if they parse as such, else float64, else
// left as a trimmed string.
func Parse(s string) Description {
	segments := strings.Split(s, "|")
	d := Description{}
	if len(segments) == 0 {
		return d
	}
	d.Prefix = segments[0]
	for _, seg := range segments[1:] {
		key, value, ok := splitKV(seg)
		if !ok {
			// A segment with no "=" is preserved verbatim so
			// round-tripping never silently drops or reformats it.
			d.Entries = append(d.Entries, Entry{Key: strings.TrimSpace(seg), Value: ""})
			continue
		}
		d.Entries = append(d.Entries, Entry{Key: key, Value: coerce(value), raw: value, hasEquals: true})
	}
	return d
}

func splitKV(seg string) (key, value string, ok bool) {
	i := strings.Index(seg, "=")
	if i < 0 {
		return "", "", false
	}
	return strings.TrimSpace(seg[:i]), strings.TrimSpace(seg[i+1:]), true
}

func coerce(value string) any {
	if i, err := strconv.ParseInt(value, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	return value
}

// Serialize reverses Parse deterministically: prefix joined with
// "key = value" segments in entry order, each segment separated by "|".
// Whitespace around "=" is always rendered as " = ".
func (d Description) Serialize() string {
	var b strings.Builder
	b.WriteString(d.Prefix)
	for _, e := range d.Entries {
		b.WriteString("|")
		b.WriteString(e.Key)
		if !e.hasEquals && !e.modified {
			continue
		}
		b.WriteString(" = ")
		if e.modified {
			b.WriteString(formatValue(e.Value))
		} else {
			b.WriteString(e.raw)
		}
	}
	return b.String()
}

func formatValue(v any) string {
	switch t := v.(type) {
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case string:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}
