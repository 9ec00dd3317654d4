package bridge

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_SizeChange(t *testing.T) {
	t.Parallel()

	msg, err := Decode([]byte(`{"type":"ui-size-change","payload":{"height":412,"uri":"ui://record/form/1"}}`))
	require.NoError(t, err)
	assert.Equal(t, TypeSizeChange, msg.Type)
	require.NotNil(t, msg.Size)
	assert.Equal(t, 412, msg.Size.Height)
	assert.Equal(t, "ui://record/form/1", msg.URI())
	assert.Nil(t, msg.Action)
}

func TestDecode_Save(t *testing.T) {
	t.Parallel()

	raw := `{"type":"ui-action","payload":{"action":"save","uri":"ui://record/form/1",
		"message":"Update this field: Stage from \"A\" to \"B\".","fields":{"Stage":"B","Id":"1"}}}`
	msg, err := Decode([]byte(raw))
	require.NoError(t, err)
	require.NotNil(t, msg.Action)
	assert.Equal(t, ActionSave, msg.Action.Action)
	assert.Equal(t, "B", msg.Action.Fields["Stage"])
	assert.Contains(t, msg.Action.Message, "Stage")
}

func TestDecode_Cancel(t *testing.T) {
	t.Parallel()

	msg, err := Decode([]byte(`{"type":"ui-action","payload":{"action":"cancel"}}`))
	require.NoError(t, err)
	assert.Equal(t, ActionCancel, msg.Action.Action)
	assert.Empty(t, msg.Action.Fields)
}

func TestDecode_Invalid(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"unknown type":      `{"type":"ui-other","payload":{}}`,
		"missing payload":   `{"type":"ui-action"}`,
		"unknown action":    `{"type":"ui-action","payload":{"action":"delete"}}`,
		"save without body": `{"type":"ui-action","payload":{"action":"save"}}`,
		"negative height":   `{"type":"ui-size-change","payload":{"height":-1}}`,
		"non-string field":  `{"type":"ui-action","payload":{"action":"edit","fields":{"A":1}}}`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := Decode([]byte(raw))
			require.Error(t, err)
			var ve *ValidationError
			assert.ErrorAs(t, err, &ve)
		})
	}
}

func TestDecode_MalformedJSON(t *testing.T) {
	t.Parallel()

	_, err := Decode([]byte(`{not json`))
	assert.Error(t, err)
}

func TestMessage_MarshalRoundTrip(t *testing.T) {
	t.Parallel()

	msg := NewAction(UserAction{Action: ActionSave, URI: "ui://x", Message: "No changes detected.", Fields: map[string]string{"A": "1"}})
	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"ui-action","payload":{"action":"save","uri":"ui://x","message":"No changes detected.","fields":{"A":"1"}}}`, string(raw))

	back, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, *msg.Action, *back.Action)
}

func TestNewSizeChange_AddsPadding(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 100+SizePadding, NewSizeChange("", 100).Size.Height)
}

func TestMessage_MarshalUnknownType(t *testing.T) {
	t.Parallel()

	_, err := json.Marshal(Message{Type: "bogus"})
	assert.Error(t, err)
}
