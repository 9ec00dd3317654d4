package render

import (
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/sells-group/recordui/internal/classify"
	"github.com/sells-group/recordui/internal/record"
)

type formRow struct {
	Label     string
	Kind      classify.Kind
	InputID   string
	InputType string
	Display   string
	Edit      string
	Suffix    string
	ReadOnly  bool
}

// FormURI is the artifact URI of the single-record form for rec.
func FormURI(rec *record.Record) string {
	return URIScheme + "form/" + uriSegment(rec.ID())
}

// Form renders rec as an editable single-record form. Fields are ordered
// alphabetically with the identifier last.
func (r *Renderer) Form(rec *record.Record) (*Artifact, error) {
	if rec == nil {
		return nil, eris.New("render: nil record")
	}
	fields := rec.SortedFields()
	rows := make([]formRow, len(fields))
	order := make([]string, len(fields))
	for i, f := range fields {
		c := classify.Classify(f.Label, f.Value)
		rows[i] = formRow{
			Label:     f.Label,
			Kind:      c.Kind,
			InputID:   fmt.Sprintf("recordui-field-%d", i),
			InputType: c.InputType,
			Display:   c.Display,
			Edit:      c.Edit,
			Suffix:    c.Suffix,
			ReadOnly:  c.ReadOnly,
		}
		order[i] = f.Label
	}

	uri := FormURI(rec)
	title := "Edit " + rec.Name()
	original := rec.Map()
	html, err := r.execute(ModeForm, uri, order, original, page{Title: title, Rows: rows})
	if err != nil {
		return nil, err
	}
	return &Artifact{
		URI:      uri,
		Mode:     ModeForm,
		Title:    title,
		HTML:     html,
		Summary:  rec.Summary(),
		Original: original,
		Order:    order,
	}, nil
}
