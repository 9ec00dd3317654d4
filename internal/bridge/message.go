// Package bridge defines the one-directional protocol rendered artifacts use to
// talk to their host, and the host-side plumbing that receives it.
package bridge

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/xeipuuv/gojsonschema"
)

// SizePadding is added to the measured content height of an artifact.
const SizePadding = 24

// Type is the envelope discriminator.
type Type string

const (
	TypeSizeChange Type = "ui-size-change"
	TypeAction     Type = "ui-action"
)

// Action is the user action carried by a TypeAction message.
type Action string

const (
	ActionSave   Action = "save"
	ActionCancel Action = "cancel"
	// ActionEdit asks the host to open a single-record form (table rows).
	ActionEdit Action = "edit"
)

// SizeChange reports a new artifact height.
type SizeChange struct {
	URI    string `json:"uri,omitempty"`
	Height int    `json:"height"`
}

// UserAction reports one explicit user action.
type UserAction struct {
	Action  Action            `json:"action"`
	URI     string            `json:"uri,omitempty"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Message is a decoded envelope. Exactly one of Size or Action is set.
type Message struct {
	Type   Type
	Size   *SizeChange
	Action *UserAction
}

type envelope struct {
	Type    Type            `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// NewSizeChange builds a size message for a measured content height.
func NewSizeChange(uri string, contentHeight int) Message {
	return Message{Type: TypeSizeChange, Size: &SizeChange{URI: uri, Height: contentHeight + SizePadding}}
}

// NewAction builds a user action message.
func NewAction(a UserAction) Message {
	return Message{Type: TypeAction, Action: &a}
}

// URI returns the artifact the message came from.
func (m Message) URI() string {
	switch {
	case m.Size != nil:
		return m.Size.URI
	case m.Action != nil:
		return m.Action.URI
	}
	return ""
}

// MarshalJSON encodes the wire envelope.
func (m Message) MarshalJSON() ([]byte, error) {
	var payload any
	switch m.Type {
	case TypeSizeChange:
		payload = m.Size
	case TypeAction:
		payload = m.Action
	default:
		return nil, eris.Errorf("bridge: unknown message type %q", m.Type)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, eris.Wrap(err, "bridge: marshal payload")
	}
	return json.Marshal(envelope{Type: m.Type, Payload: raw})
}

//go:embed schema.json
var schemaJSON string

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func loadSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	})
	return schema, schemaErr
}

// ValidationError lists schema violations of an inbound message.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "bridge: invalid message: " + strings.Join(e.Problems, "; ")
}

// Decode validates raw against the message schema and decodes it.
func Decode(raw []byte) (*Message, error) {
	s, err := loadSchema()
	if err != nil {
		return nil, eris.Wrap(err, "bridge: load schema")
	}
	res, err := s.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, eris.Wrap(err, "bridge: validate")
	}
	if !res.Valid() {
		ve := &ValidationError{}
		for _, e := range res.Errors() {
			ve.Problems = append(ve.Problems, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
		}
		return nil, ve
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, eris.Wrap(err, "bridge: decode envelope")
	}
	var msg Message
	switch env.Type {
	case TypeSizeChange:
		var s SizeChange
		err = json.Unmarshal(env.Payload, &s)
		msg = Message{Type: TypeSizeChange, Size: &s}
	case TypeAction:
		var a UserAction
		err = json.Unmarshal(env.Payload, &a)
		msg = NewAction(a)
	}
	if err != nil {
		return nil, eris.Wrap(err, "bridge: decode payload")
	}
	return &msg, nil
}
