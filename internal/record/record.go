// Package record parses line-based text descriptions into flat label/value records.
package record

import (
	"fmt"
	"sort"
	"strings"
)

// Required labels every record must carry.
const (
	LabelName = "Name"
	LabelID   = "Id"
)

// Field is a single label/value pair of a record.
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Record is an ordered, case-insensitively keyed set of fields.
// A Record is immutable once returned by Parse.
type Record struct {
	fields []Field
	index  map[string]int
}

// New builds a record from fields. Later duplicates (case-insensitive)
// overwrite the value of the first occurrence but keep its label.
func New(fields ...Field) *Record {
	r := &Record{index: make(map[string]int, len(fields))}
	for _, f := range fields {
		r.set(f.Label, f.Value)
	}
	return r
}

// FromMap builds a record from a label/value map. Labels are taken verbatim.
func FromMap(m map[string]string) *Record {
	labels := make([]string, 0, len(m))
	for k := range m {
		labels = append(labels, k)
	}
	sort.Strings(labels)
	fields := make([]Field, 0, len(labels))
	for _, l := range labels {
		fields = append(fields, Field{Label: l, Value: m[l]})
	}
	return New(fields...)
}

func (r *Record) set(label, value string) {
	key := foldKey(label)
	if i, ok := r.index[key]; ok {
		r.fields[i].Value = value
		return
	}
	r.index[key] = len(r.fields)
	r.fields = append(r.fields, Field{Label: label, Value: value})
}

func foldKey(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// Get returns the value for label, matched case-insensitively.
func (r *Record) Get(label string) (string, bool) {
	i, ok := r.index[foldKey(label)]
	if !ok {
		return "", false
	}
	return r.fields[i].Value, true
}

// Has reports whether the record carries label.
func (r *Record) Has(label string) bool {
	_, ok := r.index[foldKey(label)]
	return ok
}

// Name returns the record's display name.
func (r *Record) Name() string {
	v, _ := r.Get(LabelName)
	return v
}

// ID returns the record's identifier.
func (r *Record) ID() string {
	v, _ := r.Get(LabelID)
	return v
}

// Len returns the number of fields.
func (r *Record) Len() int {
	return len(r.fields)
}

// Fields returns a copy of the fields in insertion order.
func (r *Record) Fields() []Field {
	out := make([]Field, len(r.fields))
	copy(out, r.fields)
	return out
}

// Labels returns the display labels in insertion order.
func (r *Record) Labels() []string {
	out := make([]string, len(r.fields))
	for i, f := range r.fields {
		out[i] = f.Label
	}
	return out
}

// Map returns the record as a label/value map keyed by display label.
func (r *Record) Map() map[string]string {
	out := make(map[string]string, len(r.fields))
	for _, f := range r.fields {
		out[f.Label] = f.Value
	}
	return out
}

// SortedFields returns the fields ordered alphabetically by label with the
// identifier always last.
func (r *Record) SortedFields() []Field {
	out := r.Fields()
	sort.SliceStable(out, func(i, j int) bool {
		return lessLabel(out[i].Label, out[j].Label, false)
	})
	return out
}

// ColumnOrder returns the union of labels across recs with Name first,
// Id last and everything else alphabetical in between. The first-seen
// casing of each label is kept.
func ColumnOrder(recs []*Record) []string {
	seen := make(map[string]bool)
	var labels []string
	for _, r := range recs {
		if r == nil {
			continue
		}
		for _, f := range r.fields {
			k := foldKey(f.Label)
			if seen[k] {
				continue
			}
			seen[k] = true
			labels = append(labels, f.Label)
		}
	}
	sort.SliceStable(labels, func(i, j int) bool {
		return lessLabel(labels[i], labels[j], true)
	})
	return labels
}

// lessLabel orders labels alphabetically (case-insensitive), pushing Id to
// the end and, when nameFirst is set, Name to the front.
func lessLabel(a, b string, nameFirst bool) bool {
	ka, kb := foldKey(a), foldKey(b)
	rank := func(k string) int {
		switch {
		case nameFirst && k == "name":
			return 0
		case k == "id":
			return 2
		default:
			return 1
		}
	}
	ra, rb := rank(ka), rank(kb)
	if ra != rb {
		return ra < rb
	}
	return ka < kb
}

// Summary renders the plain-text fallback: one "**Label:** value" line per
// field in display order.
func (r *Record) Summary() string {
	var b strings.Builder
	for i, f := range r.SortedFields() {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "**%s:** %s", f.Label, f.Value)
	}
	return b.String()
}
