// Package tools exposes record rendering and Salesforce access as named
// tool calls whose results carry a text summary and an embedded HTML
// resource.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/recordui/internal/record"
	"github.com/sells-group/recordui/internal/render"
	"github.com/sells-group/recordui/pkg/salesforce"
)

// Tool names.
const (
	ToolRenderForm         = "render_record_form"
	ToolRenderTable        = "render_record_table"
	ToolRenderCard         = "render_record_card"
	ToolSalesforceQuery    = "salesforce_query"
	ToolSalesforceDescribe = "salesforce_describe"
	ToolSalesforceCreate   = "salesforce_create"
	ToolSalesforceUpdate   = "salesforce_update"
	ToolSalesforceDelete   = "salesforce_delete"
)

// ExampleRecord is the literal input shape shown alongside parse errors.
const ExampleRecord = `Acme Renewal
* Id: 006000000000001
* Amount: $25,000
* Close Date: 2024-03-15
* Probability: 40%
* Stage: Prospecting`

// Content is one item of a tool result.
type Content struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	Resource *Resource `json:"resource,omitempty"`
}

// Resource is an embedded artifact.
type Resource struct {
	URI      string `json:"uri"`
	MIMEType string `json:"mimeType"`
	Text     string `json:"text"`
}

// Result is the outcome of a tool call. Failures set IsError and are never
// reported as Go errors.
type Result struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

// Text returns the concatenated text content.
func (r *Result) Text() string {
	var parts []string
	for _, c := range r.Content {
		if c.Type == "text" {
			parts = append(parts, c.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// Artifact returns the embedded resource, if any.
func (r *Result) Artifact() *Resource {
	for _, c := range r.Content {
		if c.Resource != nil {
			return c.Resource
		}
	}
	return nil
}

// Definition describes a tool for discovery.
type Definition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// Option configures a Handler.
type Option func(*Handler)

// WithSalesforce registers the salesforce_* tools backed by c.
func WithSalesforce(c salesforce.Client) Option {
	return func(h *Handler) { h.sf = c }
}

// WithArtifactObserver calls fn with every artifact the handler renders.
func WithArtifactObserver(fn func(*render.Artifact)) Option {
	return func(h *Handler) { h.observe = fn }
}

// Handler dispatches tool calls.
type Handler struct {
	renderer *render.Renderer
	sf       salesforce.Client
	observe  func(*render.Artifact)
	validate *validator.Validate
}

// New creates a Handler rendering with r.
func New(r *render.Renderer, opts ...Option) *Handler {
	h := &Handler{renderer: r, validate: validator.New()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type formArgs struct {
	Text string `json:"text" validate:"required"`
}

type tableArgs struct {
	Texts      []string `json:"texts" validate:"required"`
	ObjectType string   `json:"object_type"`
}

type cardArgs struct {
	Text     string           `json:"text" validate:"required"`
	Sections []render.Section `json:"sections"`
}

type queryArgs struct {
	SOQL string `json:"soql" validate:"required"`
}

type objectArgs struct {
	Object string `json:"object" validate:"required"`
}

type createArgs struct {
	Object string         `json:"object" validate:"required"`
	Fields map[string]any `json:"fields" validate:"required,min=1"`
}

type updateArgs struct {
	Object string         `json:"object" validate:"required"`
	ID     string         `json:"id" validate:"required"`
	Fields map[string]any `json:"fields" validate:"required,min=1"`
}

type deleteArgs struct {
	Object string `json:"object" validate:"required"`
	ID     string `json:"id" validate:"required"`
}

// Call runs the named tool with JSON arguments.
func (h *Handler) Call(ctx context.Context, name string, args json.RawMessage) *Result {
	start := time.Now()
	res := h.call(ctx, name, args)

	log := zap.L().With(zap.String("tool", name), zap.Duration("elapsed", time.Since(start)))
	if res.IsError {
		log.Warn("tool call failed", zap.String("error", res.Text()))
	} else {
		log.Info("tool call complete")
	}
	return res
}

func (h *Handler) call(ctx context.Context, name string, args json.RawMessage) *Result {
	switch name {
	case ToolRenderForm:
		var a formArgs
		if err := h.decode(args, &a); err != nil {
			return errorResult(err, true)
		}
		return h.renderForm(a)
	case ToolRenderTable:
		var a tableArgs
		if err := h.decode(args, &a); err != nil {
			return errorResult(err, true)
		}
		return h.renderTable(a)
	case ToolRenderCard:
		var a cardArgs
		if err := h.decode(args, &a); err != nil {
			return errorResult(err, true)
		}
		return h.renderCard(a)
	}

	if !strings.HasPrefix(name, "salesforce_") {
		return errorResult(eris.Errorf("tools: unknown tool %q", name), false)
	}
	if h.sf == nil {
		return errorResult(eris.Errorf("tools: %s requires salesforce credentials", name), false)
	}

	switch name {
	case ToolSalesforceQuery:
		var a queryArgs
		if err := h.decode(args, &a); err != nil {
			return errorResult(err, false)
		}
		return h.sfQuery(ctx, a)
	case ToolSalesforceDescribe:
		var a objectArgs
		if err := h.decode(args, &a); err != nil {
			return errorResult(err, false)
		}
		desc, err := salesforce.Describe(ctx, h.sf, a.Object)
		if err != nil {
			return errorResult(err, false)
		}
		return textResult(salesforce.FormatDescription(desc))
	case ToolSalesforceCreate:
		var a createArgs
		if err := h.decode(args, &a); err != nil {
			return errorResult(err, false)
		}
		id, err := salesforce.CreateRecord(ctx, h.sf, a.Object, a.Fields)
		if err != nil {
			return errorResult(err, false)
		}
		return textResult(fmt.Sprintf("Created %s %s.", a.Object, id))
	case ToolSalesforceUpdate:
		var a updateArgs
		if err := h.decode(args, &a); err != nil {
			return errorResult(err, false)
		}
		if err := salesforce.UpdateRecord(ctx, h.sf, a.Object, a.ID, a.Fields); err != nil {
			return errorResult(err, false)
		}
		return textResult(fmt.Sprintf("Updated %s %s: %s.", a.Object, a.ID, strings.Join(sortedKeys(a.Fields), ", ")))
	case ToolSalesforceDelete:
		var a deleteArgs
		if err := h.decode(args, &a); err != nil {
			return errorResult(err, false)
		}
		if err := salesforce.DeleteRecord(ctx, h.sf, a.Object, a.ID); err != nil {
			return errorResult(err, false)
		}
		return textResult(fmt.Sprintf("Deleted %s %s.", a.Object, a.ID))
	default:
		return errorResult(eris.Errorf("tools: unknown tool %q", name), false)
	}
}

func (h *Handler) decode(raw json.RawMessage, out any) error {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return eris.Wrap(err, "tools: invalid arguments")
	}
	if err := h.validate.Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			var missing []string
			for _, fe := range verrs {
				missing = append(missing, strings.ToLower(fe.Field()))
			}
			return eris.Errorf("tools: invalid arguments: %s required", strings.Join(missing, ", "))
		}
		return eris.Wrap(err, "tools: validate arguments")
	}
	return nil
}

func (h *Handler) renderForm(a formArgs) *Result {
	rec, err := record.Parse(a.Text)
	if err != nil {
		return errorResult(err, true)
	}
	art, err := h.renderer.Form(rec)
	if err != nil {
		return errorResult(err, false)
	}
	return h.artifactResult(art)
}

func (h *Handler) renderTable(a tableArgs) *Result {
	recs, err := record.ParseBatch(a.Texts)
	if err != nil {
		var be *record.BatchError
		if errors.As(err, &be) {
			zap.L().Debug("table batch rejected",
				zap.Int("first_failed", be.First().Index+1),
				zap.Int("failed", len(be.Items)),
				zap.Int("total", len(a.Texts)),
			)
		}
		return errorResult(err, true)
	}
	art, err := h.renderer.Table(recs, a.ObjectType)
	if err != nil {
		return errorResult(err, false)
	}
	return h.artifactResult(art)
}

func (h *Handler) renderCard(a cardArgs) *Result {
	rec, err := record.Parse(a.Text)
	if err != nil {
		return errorResult(err, true)
	}
	art, err := h.renderer.Card(rec, a.Sections)
	if err != nil {
		return errorResult(err, false)
	}
	return h.artifactResult(art)
}

var fromPattern = regexp.MustCompile(`(?i)\bFROM\s+([A-Za-z][A-Za-z0-9_]*)`)

// sfQuery runs the query and renders the rows as a table artifact.
func (h *Handler) sfQuery(ctx context.Context, a queryArgs) *Result {
	rows, err := salesforce.QueryRecords(ctx, h.sf, a.SOQL)
	if err != nil {
		return errorResult(err, false)
	}
	objectType := ""
	if m := fromPattern.FindStringSubmatch(a.SOQL); m != nil {
		objectType = m[1]
	}
	recs, err := record.ParseBatch(salesforce.FormatRecords(rows))
	if err != nil {
		return errorResult(eris.Wrap(err, "tools: query results need Name and Id columns"), false)
	}
	art, err := h.renderer.Table(recs, objectType)
	if err != nil {
		return errorResult(err, false)
	}
	return h.artifactResult(art)
}

func (h *Handler) artifactResult(art *render.Artifact) *Result {
	if h.observe != nil {
		h.observe(art)
	}
	return &Result{Content: []Content{
		{Type: "text", Text: art.Summary},
		{Type: "resource", Resource: &Resource{URI: art.URI, MIMEType: "text/html", Text: art.HTML}},
	}}
}

func textResult(text string) *Result {
	return &Result{Content: []Content{{Type: "text", Text: text}}}
}

// errorResult converts err into an error result. withExample appends the
// expected record text shape.
func errorResult(err error, withExample bool) *Result {
	text := "Error: " + err.Error()
	if withExample {
		text += "\n\nExpected input like:\n\n" + ExampleRecord
	}
	return &Result{Content: []Content{{Type: "text", Text: text}}, IsError: true}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
