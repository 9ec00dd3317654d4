package record

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// LineKind tags the outcome of parsing a single input line.
type LineKind int

const (
	// LineIgnored is a line that matched no rule and is dropped.
	LineIgnored LineKind = iota
	// LineName is a non-bullet line (a candidate record name).
	LineName
	// LineRecognized is a bullet line holding a label/value pair.
	LineRecognized
)

func (k LineKind) String() string {
	switch k {
	case LineName:
		return "name"
	case LineRecognized:
		return "recognized"
	default:
		return "ignored"
	}
}

// Line is the tagged result of ParseLine.
type Line struct {
	Kind  LineKind
	Label string
	Value string
}

var bulletMarkers = []string{"*", "-", "•"}

// labelValueRe matches "label: value" where label holds no colon.
var labelValueRe = regexp.MustCompile(`^([^:]+):(.*)$`)

// ParseLine classifies one trimmed, non-empty line.
func ParseLine(line string) Line {
	body, ok := stripBullet(line)
	if !ok {
		return Line{Kind: LineName, Value: line}
	}
	m := labelValueRe.FindStringSubmatch(body)
	if m == nil {
		return Line{Kind: LineIgnored}
	}
	label := strings.TrimSpace(m[1])
	value := strings.TrimSpace(m[2])
	// Markdown emphasis: "**Amount:** $100".
	if strings.HasPrefix(label, "**") && strings.HasPrefix(value, "**") {
		label = strings.TrimSpace(strings.TrimPrefix(label, "**"))
		value = strings.TrimSpace(strings.TrimPrefix(value, "**"))
	}
	if label == "" {
		return Line{Kind: LineIgnored}
	}
	return Line{Kind: LineRecognized, Label: label, Value: value}
}

func stripBullet(line string) (string, bool) {
	for _, m := range bulletMarkers {
		if strings.HasPrefix(line, m) {
			return strings.TrimSpace(strings.TrimPrefix(line, m)), true
		}
	}
	return "", false
}

// Parse converts raw text into a Record. The first non-bullet line is the
// record name; bullet lines are "label: value" pairs. Lines that do not match
// are skipped. Name and Id must both be present.
func Parse(text string) (*Record, error) {
	var (
		name    string
		hasName bool
		pairs   []Line
	)
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		l := ParseLine(line)
		switch l.Kind {
		case LineName:
			if !hasName {
				name, hasName = l.Value, true
			}
		case LineRecognized:
			pairs = append(pairs, l)
		}
	}
	if !hasName {
		return nil, ErrMissingName
	}

	fields := make([]Field, 0, len(pairs)+1)
	fields = append(fields, Field{Label: LabelName, Value: name})
	for _, p := range pairs {
		fields = append(fields, Field{Label: p.Label, Value: p.Value})
	}
	assembled := New(fields...)

	// Title-case display labels after duplicates resolved to first casing.
	rec := &Record{index: make(map[string]int, assembled.Len())}
	for _, f := range assembled.fields {
		rec.set(TitleCase(f.Label), f.Value)
	}

	var missing []string
	for _, req := range []string{LabelName, LabelID} {
		if !rec.Has(req) {
			missing = append(missing, req)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingFieldsError{Missing: missing}
	}
	return rec, nil
}

// ParseBatch parses every text independently. If any text fails the whole
// batch is rejected; the returned *BatchError lists every failing entry.
func ParseBatch(texts []string) ([]*Record, error) {
	recs := make([]*Record, 0, len(texts))
	var batchErr *BatchError
	for i, t := range texts {
		r, err := Parse(t)
		if err != nil {
			if batchErr == nil {
				batchErr = &BatchError{}
			}
			batchErr.Items = append(batchErr.Items, ItemError{Index: i, Err: err})
			continue
		}
		recs = append(recs, r)
	}
	if batchErr != nil {
		return nil, batchErr
	}
	return recs, nil
}

// TitleCase capitalizes the first letter of every whitespace- or
// underscore-delimited word, leaving the rest of each word untouched.
func TitleCase(label string) string {
	caser := cases.Title(language.Und, cases.NoLower)
	var (
		b    strings.Builder
		word strings.Builder
	)
	flush := func() {
		if word.Len() > 0 {
			b.WriteString(caser.String(word.String()))
			word.Reset()
		}
	}
	for _, r := range label {
		if unicode.IsSpace(r) || r == '_' {
			flush()
			b.WriteRune(r)
			continue
		}
		word.WriteRune(r)
	}
	flush()
	return b.String()
}
