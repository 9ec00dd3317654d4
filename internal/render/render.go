// Package render turns parsed records into self-contained HTML artifacts:
// an editable single-record form, a multi-record table and a grouped detail
// card. Each artifact embeds a copy of its source data plus the script that
// diffs edits and reports to the host (see internal/bridge).
package render

import (
	"bytes"
	"embed"
	"encoding/json"
	"html/template"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/recordui/internal/bridge"
)

// Mode is the presentation mode of an artifact.
type Mode string

const (
	ModeForm  Mode = "form"
	ModeTable Mode = "table"
	ModeCard  Mode = "card"
)

// URIScheme prefixes every artifact URI.
const URIScheme = "ui://record/"

// Artifact is a rendered, self-contained visual unit.
type Artifact struct {
	URI     string `json:"uri"`
	Mode    Mode   `json:"mode"`
	Title   string `json:"title"`
	HTML    string `json:"-"`
	Summary string `json:"summary"`
	// Original is the label/value map the artifact was built from (form and
	// card only).
	Original map[string]string `json:"original,omitempty"`
	// Order is the display order of Original's labels.
	Order []string `json:"order,omitempty"`
}

//go:embed templates/*.html.tmpl
var templateFS embed.FS

//go:embed assets/artifact.js
var artifactJS string

//go:embed assets/artifact.css
var artifactCSS string

// Renderer renders artifacts. It is safe for concurrent use.
type Renderer struct {
	pages    map[Mode]*template.Template
	sections *SectionLayout
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithSectionLayout replaces the default detail-card layout.
func WithSectionLayout(l *SectionLayout) Option {
	return func(r *Renderer) {
		if l != nil {
			r.sections = l
		}
	}
}

// New parses the embedded templates.
func New(opts ...Option) (*Renderer, error) {
	r := &Renderer{pages: make(map[Mode]*template.Template, 3)}
	for _, m := range []Mode{ModeForm, ModeTable, ModeCard} {
		t, err := template.New(string(m)).ParseFS(templateFS, "templates/base.html.tmpl", "templates/"+string(m)+".html.tmpl")
		if err != nil {
			return nil, eris.Wrapf(err, "render: parse %s template", m)
		}
		r.pages[m] = t
	}
	layout, err := DefaultSectionLayout()
	if err != nil {
		return nil, err
	}
	r.sections = layout
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// pageConfig is read by the embedded script.
type pageConfig struct {
	URI     string   `json:"uri"`
	Mode    Mode     `json:"mode"`
	Padding int      `json:"padding"`
	Order   []string `json:"order,omitempty"`
}

type page struct {
	Title        string
	Mode         Mode
	CSS          template.CSS
	Script       template.JS
	ConfigJSON   template.JS
	OriginalJSON template.JS
	// Mode specific content.
	Rows         any
	Columns      []string
	Sections     any
	EmptyMessage string
}

func (r *Renderer) execute(mode Mode, uri string, order []string, original map[string]string, p page) (string, error) {
	cfg, err := EmbedJSON(pageConfig{URI: uri, Mode: mode, Padding: bridge.SizePadding, Order: order})
	if err != nil {
		return "", err
	}
	p.Mode = mode
	p.CSS = template.CSS(artifactCSS)
	p.Script = template.JS(artifactJS)
	p.ConfigJSON = cfg
	if original != nil {
		orig, err := EmbedJSON(original)
		if err != nil {
			return "", err
		}
		p.OriginalJSON = orig
	}

	var buf bytes.Buffer
	if err := r.pages[mode].ExecuteTemplate(&buf, "base", p); err != nil {
		return "", eris.Wrapf(err, "render: execute %s", mode)
	}
	return buf.String(), nil
}

// EmbedJSON encodes v for inclusion inside a <script> element. The encoder
// escapes <, >, &, U+2028 and U+2029, so the output can contain neither
// "</script" nor "<!--".
func EmbedJSON(v any) (template.JS, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", eris.Wrap(err, "render: encode embedded data")
	}
	s := string(raw)
	if strings.ContainsAny(s, "<>") {
		return "", eris.New("render: embedded data not escaped")
	}
	return template.JS(s), nil
}

// uriSegment makes s safe as a single URI path segment.
func uriSegment(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	if b.Len() == 0 {
		return "unknown"
	}
	return b.String()
}
