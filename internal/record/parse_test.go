package record

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Basic(t *testing.T) {
	t.Parallel()

	text := `
Acme Renewal

* Id: 006ABC
* Amount: $100
* close_date: 2024-03-15
* Stage: Prospecting
`
	rec, err := Parse(text)
	require.NoError(t, err)

	want := []Field{
		{Label: "Name", Value: "Acme Renewal"},
		{Label: "Id", Value: "006ABC"},
		{Label: "Amount", Value: "$100"},
		{Label: "Close_Date", Value: "2024-03-15"},
		{Label: "Stage", Value: "Prospecting"},
	}
	if diff := cmp.Diff(want, rec.Fields()); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "Acme Renewal", rec.Name())
	assert.Equal(t, "006ABC", rec.ID())
}

func TestParse_DuplicatesLastValueFirstCasing(t *testing.T) {
	t.Parallel()

	rec, err := Parse("Deal\n* id: 1\n* stage: Old\n* STAGE: New\n* Id: 2")
	require.NoError(t, err)

	assert.Equal(t, []string{"Name", "Id", "Stage"}, rec.Labels())
	v, ok := rec.Get("Stage")
	require.True(t, ok)
	assert.Equal(t, "New", v)
	assert.Equal(t, "2", rec.ID())
}

func TestParse_NameBulletOverridesNameLine(t *testing.T) {
	t.Parallel()

	rec, err := Parse("Heading\n* Name: Real Name\n* Id: 1")
	require.NoError(t, err)
	assert.Equal(t, "Real Name", rec.Name())
	assert.Equal(t, 2, rec.Len())
}

func TestParse_SkipsMalformedLines(t *testing.T) {
	t.Parallel()

	rec, err := Parse("Deal\n* Id: 1\n* no colon here\n* : empty label\n* Url: https://x.io/a:b\nstray trailing line")
	require.NoError(t, err)

	assert.Equal(t, []string{"Name", "Id", "Url"}, rec.Labels())
	v, _ := rec.Get("url")
	assert.Equal(t, "https://x.io/a:b", v)
}

func TestParse_NameLineNeverParsedAsPair(t *testing.T) {
	t.Parallel()

	rec, err := Parse("Opportunity: Big Deal\n* Id: 9")
	require.NoError(t, err)
	assert.Equal(t, "Opportunity: Big Deal", rec.Name())
	assert.False(t, rec.Has("Opportunity"))
}

func TestParse_MarkdownBoldLabels(t *testing.T) {
	t.Parallel()

	rec, err := Parse("Deal\n* **Id:** 7\n- **Amount:** $5")
	require.NoError(t, err)
	assert.Equal(t, "7", rec.ID())
	v, _ := rec.Get("amount")
	assert.Equal(t, "$5", v)
}

func TestParse_MissingName(t *testing.T) {
	t.Parallel()

	_, err := Parse("* Id: 1\n* Name: x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingName))
	assert.Contains(t, err.Error(), "missing object name")
}

func TestParse_MissingRequired(t *testing.T) {
	t.Parallel()

	_, err := Parse("Deal\n* Amount: 5")
	require.Error(t, err)

	var mf *MissingFieldsError
	require.ErrorAs(t, err, &mf)
	assert.Equal(t, []string{"Id"}, mf.Missing)
	assert.Equal(t, "missing required fields: Id", err.Error())
}

func TestParse_RequiredCaseInsensitive(t *testing.T) {
	t.Parallel()

	rec, err := Parse("Deal\n* ID: abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", rec.ID())
}

func TestParse_EmptyText(t *testing.T) {
	t.Parallel()

	_, err := Parse("   \n\n ")
	assert.ErrorIs(t, err, ErrMissingName)
}

func TestParseLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Line
	}{
		{"Acme", Line{Kind: LineName, Value: "Acme"}},
		{"* Stage: Won", Line{Kind: LineRecognized, Label: "Stage", Value: "Won"}},
		{"- Stage: Won", Line{Kind: LineRecognized, Label: "Stage", Value: "Won"}},
		{"• Stage: Won", Line{Kind: LineRecognized, Label: "Stage", Value: "Won"}},
		{"* Notes:", Line{Kind: LineRecognized, Label: "Notes", Value: ""}},
		{"* just text", Line{Kind: LineIgnored}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ParseLine(tt.in))
		})
	}
}

func TestTitleCase(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"close date":      "Close Date",
		"close_date":      "Close_Date",
		"CloseDate":       "CloseDate",
		"id":              "Id",
		"account name":    "Account Name",
		"custom_field__c": "Custom_Field__C",
	}
	for in, want := range tests {
		assert.Equal(t, want, TitleCase(in), in)
	}
}

func TestParseBatch(t *testing.T) {
	t.Parallel()

	t.Run("all valid", func(t *testing.T) {
		t.Parallel()
		recs, err := ParseBatch([]string{"A\n* Id: 1", "B\n* Id: 2"})
		require.NoError(t, err)
		require.Len(t, recs, 2)
		assert.Equal(t, "B", recs[1].Name())
	})

	t.Run("failures are attributed per entry", func(t *testing.T) {
		t.Parallel()
		recs, err := ParseBatch([]string{"A\n* Id: 1", "B", "* Id: 3"})
		require.Error(t, err)
		assert.Nil(t, recs)

		var be *BatchError
		require.ErrorAs(t, err, &be)
		require.Len(t, be.Items, 2)
		assert.Equal(t, 1, be.First().Index)
		assert.Equal(t, 2, be.Items[1].Index)
		assert.ErrorIs(t, err, ErrMissingName)
		assert.Equal(t,
			"batch rejected: record 2: missing required fields: Id; record 3: missing object name",
			err.Error())
	})

	t.Run("empty batch", func(t *testing.T) {
		t.Parallel()
		recs, err := ParseBatch(nil)
		require.NoError(t, err)
		assert.Empty(t, recs)
	})
}
