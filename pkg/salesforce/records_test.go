package salesforce

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/recordui/internal/record"
)

func TestFormatRecord(t *testing.T) {
	t.Parallel()

	text := FormatRecord(map[string]any{
		"Id":           "006xx",
		"Name":         "Acme Renewal",
		"Amount":       2500.5,
		"IsWon":        false,
		"CloseDate":    "2024-03-15",
		"Description":  "line one\nline two",
		"Account.Name": "Acme Corp",
		"NextStep":     nil,
	})

	assert.Equal(t, strings.Join([]string{
		"Acme Renewal",
		"* Account.Name: Acme Corp",
		"* Amount: 2500.5",
		"* CloseDate: 2024-03-15",
		"* Description: line one line two",
		"* Id: 006xx",
		"* IsWon: false",
		"* NextStep: ",
	}, "\n"), text)

	rec, err := record.Parse(text)
	require.NoError(t, err)
	assert.Equal(t, "Acme Renewal", rec.Name())
	assert.Equal(t, "006xx", rec.ID())
}

func TestFormatRecord_NameFallbacks(t *testing.T) {
	t.Parallel()

	assert.True(t, strings.HasPrefix(FormatRecord(map[string]any{"Id": "500xx", "Subject": "Printer jam"}), "Printer jam\n"))
	assert.True(t, strings.HasPrefix(FormatRecord(map[string]any{"Id": "500xx"}), "500xx\n"))
	assert.Equal(t, "Untitled", FormatRecord(map[string]any{}))
}

func TestQueryRecords_RejectsNonSelect(t *testing.T) {
	t.Parallel()

	called := false
	c := &mockClient{queryFn: func(context.Context, string, any) error {
		called = true
		return nil
	}}
	_, err := QueryRecords(context.Background(), c, "DELETE FROM Account")
	require.Error(t, err)
	assert.False(t, called)
}

func TestQueryRecords_WrapsError(t *testing.T) {
	t.Parallel()

	c := &mockClient{queryFn: func(context.Context, string, any) error {
		return errors.New("boom")
	}}
	_, err := QueryRecords(context.Background(), c, "  select Id from Lead")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sf: query records")
}

func TestRecordHelpers_Validation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := &mockClient{}

	_, err := CreateRecord(ctx, c, "Opportunity", nil)
	assert.Error(t, err)
	_, err = CreateRecord(ctx, c, "../sobjects", map[string]any{"Name": "x"})
	assert.Error(t, err)
	assert.Error(t, UpdateRecord(ctx, c, "Opportunity", "", map[string]any{"Name": "x"}))
	assert.Error(t, UpdateRecord(ctx, c, "Opportunity", "006xx", nil))
	assert.Error(t, DeleteRecord(ctx, c, "Opportunity", ""))
	_, err = Describe(ctx, c, "Bad Name")
	assert.Error(t, err)

	id, err := CreateRecord(ctx, c, "Custom_Object__c", map[string]any{"Name": "x"})
	require.NoError(t, err)
	assert.Equal(t, "006000000000001", id)
}

func TestUpdateRecord_PassesFields(t *testing.T) {
	t.Parallel()

	var gotObject, gotID string
	var gotFields map[string]any
	c := &mockClient{updateOneFn: func(_ context.Context, object, id string, fields map[string]any) error {
		gotObject, gotID, gotFields = object, id, fields
		return nil
	}}
	require.NoError(t, UpdateRecord(context.Background(), c, "Opportunity", "006xx", map[string]any{"StageName": "Won"}))
	assert.Equal(t, "Opportunity", gotObject)
	assert.Equal(t, "006xx", gotID)
	assert.Equal(t, map[string]any{"StageName": "Won"}, gotFields)
}

func TestFormatDescription(t *testing.T) {
	t.Parallel()

	out := FormatDescription(&SObjectDescription{
		Name:  "Opportunity",
		Label: "Opportunity",
		Fields: []SObjectField{
			{Name: "Id", Label: "Opportunity ID", Type: "id"},
			{Name: "StageName", Label: "Stage", Type: "picklist", Updateable: true},
		},
	})
	assert.Contains(t, out, "**Opportunity** (Opportunity), 2 fields")
	assert.Contains(t, out, "* Id: Opportunity ID (id, read-only)")
	assert.Contains(t, out, "* StageName: Stage (picklist, updateable)")
}

func TestDecodeDescription(t *testing.T) {
	t.Parallel()

	desc, err := decodeDescription(strings.NewReader(`{"name":"Lead","fields":[{"name":"Id"}]}`))
	require.NoError(t, err)
	assert.Equal(t, "Lead", desc.Name)
	require.Len(t, desc.Fields, 1)

	_, err = decodeDescription(strings.NewReader(`{bad`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode describe")

	_, err = decodeDescription(strings.NewReader(`{"fields":[]}`))
	assert.EqualError(t, err, "decode describe: missing object name")
}
