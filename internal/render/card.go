package render

import (
	"html/template"

	"github.com/rotisserie/eris"

	"github.com/sells-group/recordui/internal/classify"
	"github.com/sells-group/recordui/internal/record"
)

type cardField struct {
	Label string
	Kind  classify.Kind
	Value template.HTML
}

type cardSection struct {
	Title  string
	Fields []cardField
}

// CardURI is the artifact URI of the detail card for rec.
func CardURI(rec *record.Record) string {
	return URIScheme + "card/" + uriSegment(rec.ID())
}

// Card renders rec as a read-only detail card grouped into sections. When
// sections is empty the renderer's layout assigns fields.
func (r *Renderer) Card(rec *record.Record, sections []Section) (*Artifact, error) {
	if rec == nil {
		return nil, eris.New("render: nil record")
	}
	fields := rec.SortedFields()
	labels := make([]string, len(fields))
	for i, f := range fields {
		labels[i] = f.Label
	}

	var grouped []Section
	if len(sections) > 0 {
		grouped = resolveSections(sections, labels, r.sections.Fallback)
	} else {
		grouped = r.sections.Assign(labels)
	}

	out := make([]cardSection, 0, len(grouped))
	var order []string
	for _, s := range grouped {
		cs := cardSection{Title: s.Title}
		for _, label := range s.Fields {
			value, _ := rec.Get(label)
			cs.Fields = append(cs.Fields, cardField{
				Label: label,
				Kind:  classify.KindOf(label, value),
				Value: Linkify(value),
			})
			order = append(order, label)
		}
		out = append(out, cs)
	}

	uri := CardURI(rec)
	title := rec.Name()
	original := rec.Map()
	html, err := r.execute(ModeCard, uri, order, original, page{Title: title, Sections: out})
	if err != nil {
		return nil, err
	}
	return &Artifact{
		URI:      uri,
		Mode:     ModeCard,
		Title:    title,
		HTML:     html,
		Summary:  rec.Summary(),
		Original: original,
		Order:    order,
	}, nil
}
