// Package tabular parses loosely-structured delimited tables into
// header-keyed records and provides schema-drift-tolerant field access.
//
// Source tables for the timeline are maintained by hand in several
// places, so column names drift ("Event Name", "event_name",
// "EVENT-NAME"). Every logical field read goes through NormalizeKey +
// Preferred so all spellings resolve to the same column.
package tabular

import "strings"

// Record is one parsed row. Values are keyed by normalized header and
// trimmed of surrounding whitespace; missing cells resolve to "".
type Record struct {
	headers []string
	values  map[string]string
}

// NewRecord builds a record from parallel header/value slices. Values
// beyond the header count are ignored; missing values default to "".
func NewRecord(headers, cells []string) Record {
	values := make(map[string]string, len(headers))
	for i, h := range headers {
		v := ""
		if i < len(cells) {
			v = strings.TrimSpace(cells[i])
		}
		values[NormalizeKey(h)] = v
	}
	return Record{headers: headers, values: values}
}

// Headers returns the original header spellings in source order. The
// returned slice is shared between all records of one parse and must
// not be mutated.
func (r Record) Headers() []string { return r.headers }

// Len returns the number of columns.
func (r Record) Len() int { return len(r.headers) }

// IsZero reports whether the record has no columns at all.
func (r Record) IsZero() bool { return len(r.values) == 0 }

// Get returns the value for a single logical field name, or "" if the
// column is absent.
func (r Record) Get(name string) string {
	return r.values[NormalizeKey(name)]
}

// Preferred returns the value of the first candidate field whose
// normalized name matches a column and whose value is non-empty. An
// earlier empty aliased column never shadows a later populated one.
func (r Record) Preferred(names ...string) string {
	for _, name := range names {
		if v := r.values[NormalizeKey(name)]; v != "" {
			return v
		}
	}
	return ""
}

// With returns a copy of the record with one field set. The receiver is
// left untouched; derived fields (an expanded occurrence date, for
// example) are attached to copies, never to the originals.
func (r Record) With(name, value string) Record {
	values := make(map[string]string, len(r.values)+1)
	for k, v := range r.values {
		values[k] = v
	}
	key := NormalizeKey(name)
	headers := r.headers
	if _, exists := r.values[key]; !exists {
		headers = append(append([]string(nil), r.headers...), name)
	}
	values[key] = strings.TrimSpace(value)
	return Record{headers: headers, values: values}
}

// NormalizeKey lowercases, trims, collapses runs of characters outside
// [a-z0-9] into single underscores and strips leading/trailing
// underscores, so "Event Name", "event_name" and " EVENT-NAME " are
// all equivalent.
func NormalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	var b strings.Builder
	b.Grow(len(s))
	pendingSep := false
	for _, c := range s {
		alnum := (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
		if !alnum {
			pendingSep = true
			continue
		}
		if pendingSep && b.Len() > 0 {
			b.WriteByte('_')
		}
		pendingSep = false
		b.WriteRune(c)
	}
	return b.String()
}
