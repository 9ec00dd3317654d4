// Package classify infers the semantic kind of a record field and the value
// encoding used when the field is edited.
package classify

import (
	"strconv"
	"strings"
	"time"
)

// Kind is the semantic classification of a field.
type Kind string

const (
	KindIdentifier Kind = "identifier"
	KindDate       Kind = "date"
	KindPercentage Kind = "percentage"
	KindCurrency   Kind = "currency"
	KindPlain      Kind = "plain"
)

// HTML input types used for editable fields.
const (
	InputNone   = ""
	InputText   = "text"
	InputDate   = "date"
	InputNumber = "number"
)

// Field is the classification of one (label, value) pair.
type Field struct {
	Kind      Kind   `json:"kind"`
	Display   string `json:"display"`
	Edit      string `json:"edit"`
	InputType string `json:"input_type"`
	ReadOnly  bool   `json:"read_only"`
	// Suffix is re-appended to the edited value on save.
	Suffix string `json:"suffix,omitempty"`
}

type rule struct {
	kind  Kind
	match func(label, value string) bool
}

// rules are evaluated top-down; the first match wins.
var rules = []rule{
	{KindIdentifier, func(label, _ string) bool { return label == "id" }},
	{KindCurrency, func(label, _ string) bool {
		return strings.Contains(label, "amount") || strings.Contains(label, "revenue")
	}},
	{KindPercentage, func(label, _ string) bool { return strings.Contains(label, "probability") }},
	{KindDate, func(label, value string) bool { return strings.Contains(label, "date") && IsDate(value) }},
}

// KindOf returns the kind for label and value.
func KindOf(label, value string) Kind {
	l := strings.ToLower(strings.TrimSpace(label))
	for _, r := range rules {
		if r.match(l, value) {
			return r.kind
		}
	}
	return KindPlain
}

// Classify returns the presentation and edit encoding for a field.
func Classify(label, value string) Field {
	switch kind := KindOf(label, value); kind {
	case KindIdentifier:
		return Field{Kind: kind, Display: value, Edit: value, InputType: InputNone, ReadOnly: true}
	case KindDate:
		edit := NormalizeDate(value)
		return Field{Kind: kind, Display: value, Edit: edit, InputType: dateInput(edit)}
	case KindPercentage:
		f := Field{Kind: kind, Display: value, Edit: value}
		if trimmed, ok := strings.CutSuffix(strings.TrimSpace(value), "%"); ok {
			f.Edit = strings.TrimSpace(trimmed)
			f.Suffix = "%"
		}
		f.InputType = numberInput(f.Edit)
		return f
	default:
		return Field{Kind: kind, Display: value, Edit: value, InputType: InputText}
	}
}

// dateInput picks the input type for a date edit value. Browsers blank a
// date input whose value is not a real calendar date, so those stay text.
func dateInput(edit string) string {
	if _, err := time.Parse("2006-01-02", edit); err != nil {
		return InputText
	}
	return InputDate
}

// numberInput is the number-input counterpart of dateInput. Empty values
// stay numeric since a blank number input keeps "".
func numberInput(edit string) string {
	if edit == "" {
		return InputNumber
	}
	if _, err := strconv.ParseFloat(edit, 64); err != nil {
		return InputText
	}
	return InputNumber
}
