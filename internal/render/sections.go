package render

import (
	_ "embed"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed sections.yaml
var defaultSectionsYAML []byte

// Section is a caller-defined card section listing field labels explicitly.
type Section struct {
	Title  string   `json:"title" yaml:"title"`
	Fields []string `json:"fields" yaml:"fields"`
}

// SectionRule assigns fields to a section by exact label or keyword.
type SectionRule struct {
	Title    string   `yaml:"title"`
	Labels   []string `yaml:"labels"`
	Keywords []string `yaml:"keywords"`
}

// SectionLayout is the rule set used when a card is rendered without
// explicit sections.
type SectionLayout struct {
	Sections []SectionRule `yaml:"sections"`
	Fallback string        `yaml:"fallback"`
}

// DefaultSectionLayout returns the embedded layout.
func DefaultSectionLayout() (*SectionLayout, error) {
	return ParseSectionLayout(defaultSectionsYAML)
}

// LoadSectionLayout reads a layout from a YAML file.
func LoadSectionLayout(path string) (*SectionLayout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "render: read section layout %s", path)
	}
	return ParseSectionLayout(data)
}

// ParseSectionLayout decodes a YAML layout.
func ParseSectionLayout(data []byte) (*SectionLayout, error) {
	var l SectionLayout
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, eris.Wrap(err, "render: parse section layout")
	}
	if len(l.Sections) == 0 {
		return nil, eris.New("render: section layout has no sections")
	}
	for i, s := range l.Sections {
		if strings.TrimSpace(s.Title) == "" {
			return nil, eris.Errorf("render: section %d has no title", i+1)
		}
	}
	if l.Fallback == "" {
		l.Fallback = "Other Details"
	}
	return &l, nil
}

// Assign groups labels into sections. Exact label matches take priority over
// keyword matches; within each pass the first matching section wins. Empty
// sections are dropped and unmatched labels go to the fallback section.
func (l *SectionLayout) Assign(labels []string) []Section {
	buckets := make([][]string, len(l.Sections))
	var rest []string
	for _, label := range labels {
		if i := l.match(label); i >= 0 {
			buckets[i] = append(buckets[i], label)
			continue
		}
		rest = append(rest, label)
	}
	var out []Section
	for i, s := range l.Sections {
		if len(buckets[i]) > 0 {
			out = append(out, Section{Title: s.Title, Fields: buckets[i]})
		}
	}
	if len(rest) > 0 {
		out = append(out, Section{Title: l.Fallback, Fields: rest})
	}
	return out
}

func (l *SectionLayout) match(label string) int {
	key := strings.ToLower(strings.TrimSpace(label))
	for i, s := range l.Sections {
		for _, exact := range s.Labels {
			if strings.ToLower(exact) == key {
				return i
			}
		}
	}
	for i, s := range l.Sections {
		for _, kw := range s.Keywords {
			if strings.Contains(key, strings.ToLower(kw)) {
				return i
			}
		}
	}
	return -1
}

// resolveSections applies caller sections. Labels are matched
// case-insensitively; unknown labels are skipped and fields not listed in
// any section are appended to a fallback section.
func resolveSections(explicit []Section, labels []string, fallback string) []Section {
	byKey := make(map[string]string, len(labels))
	for _, l := range labels {
		byKey[strings.ToLower(l)] = l
	}
	used := make(map[string]bool, len(labels))
	var out []Section
	for _, s := range explicit {
		var fields []string
		for _, f := range s.Fields {
			k := strings.ToLower(strings.TrimSpace(f))
			label, ok := byKey[k]
			if !ok || used[k] {
				continue
			}
			used[k] = true
			fields = append(fields, label)
		}
		if len(fields) > 0 {
			out = append(out, Section{Title: s.Title, Fields: fields})
		}
	}
	var rest []string
	for _, l := range labels {
		if !used[strings.ToLower(l)] {
			rest = append(rest, l)
		}
	}
	if len(rest) > 0 {
		out = append(out, Section{Title: fallback, Fields: rest})
	}
	return out
}
