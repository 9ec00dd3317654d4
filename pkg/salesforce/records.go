package salesforce

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// fallbackNameFields are tried in order when a record has no Name.
var fallbackNameFields = []string{"Name", "Subject", "Title", "CaseNumber", "LastName"}

var objectNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// ValidateObjectName rejects SObject names that could escape the REST path.
func ValidateObjectName(name string) error {
	if !objectNamePattern.MatchString(name) {
		return eris.Errorf("sf: invalid object name %q", name)
	}
	return nil
}

// QueryRecords runs a SOQL SELECT and returns each record as a flat
// field map with the "attributes" metadata removed. Nested relationship
// objects are flattened to "Parent.Field" keys.
func QueryRecords(ctx context.Context, c Client, soql string) ([]map[string]any, error) {
	soql = strings.TrimSpace(soql)
	if !strings.HasPrefix(strings.ToUpper(soql), "SELECT ") {
		return nil, eris.New("sf: only SELECT statements are allowed")
	}

	var raw []map[string]any
	if err := c.Query(ctx, soql, &raw); err != nil {
		return nil, eris.Wrap(err, "sf: query records")
	}

	out := make([]map[string]any, 0, len(raw))
	for _, r := range raw {
		flat := make(map[string]any, len(r))
		flatten("", r, flat)
		out = append(out, flat)
	}
	return out, nil
}

func flatten(prefix string, in map[string]any, out map[string]any) {
	for k, v := range in {
		if k == "attributes" {
			continue
		}
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			flatten(key, nested, out)
			continue
		}
		out[key] = v
	}
}

// CreateRecord inserts a record and returns the new Salesforce ID.
func CreateRecord(ctx context.Context, c Client, object string, fields map[string]any) (string, error) {
	if err := ValidateObjectName(object); err != nil {
		return "", err
	}
	if len(fields) == 0 {
		return "", eris.New("sf: no fields to create")
	}
	id, err := c.InsertOne(ctx, object, fields)
	if err != nil {
		return "", eris.Wrap(err, fmt.Sprintf("sf: create %s", object))
	}
	return id, nil
}

// UpdateRecord updates the given fields on an existing record.
func UpdateRecord(ctx context.Context, c Client, object, id string, fields map[string]any) error {
	if err := ValidateObjectName(object); err != nil {
		return err
	}
	if id == "" {
		return eris.New("sf: record id is required")
	}
	if len(fields) == 0 {
		return eris.New("sf: no fields to update")
	}
	if err := c.UpdateOne(ctx, object, id, fields); err != nil {
		return eris.Wrap(err, fmt.Sprintf("sf: update record %s", id))
	}
	return nil
}

// DeleteRecord removes a record.
func DeleteRecord(ctx context.Context, c Client, object, id string) error {
	if err := ValidateObjectName(object); err != nil {
		return err
	}
	if id == "" {
		return eris.New("sf: record id is required")
	}
	if err := c.DeleteOne(ctx, object, id); err != nil {
		return eris.Wrap(err, fmt.Sprintf("sf: delete record %s", id))
	}
	return nil
}

// Describe returns the metadata for an SObject.
func Describe(ctx context.Context, c Client, object string) (*SObjectDescription, error) {
	if err := ValidateObjectName(object); err != nil {
		return nil, err
	}
	return c.DescribeSObject(ctx, object)
}

// FormatRecord renders a flattened record in the record text format:
// a name line followed by one "* Field: value" bullet per field, sorted
// by field name. Multi-line values are folded onto one line.
func FormatRecord(rec map[string]any) string {
	name := ""
	for _, f := range fallbackNameFields {
		if s := formatValue(rec[f]); s != "" {
			name = s
			break
		}
	}
	if name == "" {
		name = "Untitled"
		if id := formatValue(rec["Id"]); id != "" {
			name = id
		}
	}

	keys := make([]string, 0, len(rec))
	for k := range rec {
		if k == "Name" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(name)
	for _, k := range keys {
		fmt.Fprintf(&b, "\n* %s: %s", k, formatValue(rec[k]))
	}
	return b.String()
}

// FormatRecords renders each record with FormatRecord.
func FormatRecords(recs []map[string]any) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = FormatRecord(r)
	}
	return out
}

func formatValue(v any) string {
	var s string
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		s = t
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(t)
	default:
		s = fmt.Sprint(t)
	}
	return strings.Join(strings.Fields(s), " ")
}

// FormatDescription summarizes an SObject's fields as markdown.
func FormatDescription(desc *SObjectDescription) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s** (%s), %d fields\n", desc.Label, desc.Name, len(desc.Fields))
	for _, f := range desc.Fields {
		access := "read-only"
		if f.Updateable {
			access = "updateable"
		}
		fmt.Fprintf(&b, "\n* %s: %s (%s, %s)", f.Name, f.Label, f.Type, access)
	}
	return b.String()
}
