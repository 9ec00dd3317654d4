// Package diff computes field-level change sets between an original record
// and an edited snapshot and phrases them as a single sentence.
//
// The same rules are implemented by the script embedded in rendered
// artifacts (internal/render/assets/artifact.js); both must stay in step.
package diff

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// NoChanges is the description produced when nothing differs.
const NoChanges = "No changes detected."

// Change is one differing field.
type Change struct {
	Label string `json:"label"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

func (c Change) String() string {
	return fmt.Sprintf(`%s from "%s" to "%s"`, c.Label, c.Old, c.New)
}

// dateTimeRe matches a YYYY-MM-DD date followed by a time part.
var dateTimeRe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})[T ]`)

// Normalize prepares a value for comparison. Under labels containing "date",
// a value that starts with YYYY-MM-DD followed by "T" or a space keeps only
// the date. Other values are compared whole.
func Normalize(label, value string) string {
	v := strings.TrimSpace(value)
	if strings.Contains(strings.ToLower(label), "date") {
		if m := dateTimeRe.FindStringSubmatch(v); m != nil {
			return m[1]
		}
	}
	return v
}

// Compute compares every key of original against current. Missing current
// values count as empty. order fixes the output order; keys of original not
// named in order follow alphabetically.
func Compute(original, current map[string]string, order []string) []Change {
	var changes []Change
	for _, label := range orderedKeys(original, order) {
		old := original[label]
		cur := current[label]
		if Normalize(label, old) == Normalize(label, cur) {
			continue
		}
		changes = append(changes, Change{Label: label, Old: old, New: cur})
	}
	return changes
}

func orderedKeys(m map[string]string, order []string) []string {
	seen := make(map[string]bool, len(m))
	keys := make([]string, 0, len(m))
	for _, k := range order {
		if _, ok := m[k]; ok && !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	var rest []string
	for k := range m {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

// Describe phrases changes as one sentence.
func Describe(changes []Change) string {
	if len(changes) == 0 {
		return NoChanges
	}
	parts := make([]string, len(changes))
	for i, c := range changes {
		parts[i] = c.String()
	}
	subject := "this field"
	if len(changes) > 1 {
		subject = "these fields"
	}
	return fmt.Sprintf("Update %s: %s.", subject, strings.Join(parts, "; "))
}
