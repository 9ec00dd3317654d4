package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/recordui/internal/record"
)

type tableRow struct {
	RecordJSON string
	Cells      []string
}

// Table renders recs as a read-only table, one row per record. Columns are
// the union of all labels with Name first and Id last. Each row embeds its
// own source record and can be clicked to request a single-record form.
func (r *Renderer) Table(recs []*record.Record, objectType string) (*Artifact, error) {
	objectType = strings.TrimSpace(objectType)
	if objectType == "" {
		objectType = "Record"
	}
	for _, rec := range recs {
		if rec == nil {
			return nil, eris.New("render: nil record in table")
		}
	}
	columns := record.ColumnOrder(recs)
	rows := make([]tableRow, 0, len(recs))
	for _, rec := range recs {
		raw, err := json.Marshal(rec.Map())
		if err != nil {
			return nil, eris.Wrap(err, "render: encode row")
		}
		cells := make([]string, len(columns))
		for i, c := range columns {
			cells[i], _ = rec.Get(c)
		}
		rows = append(rows, tableRow{RecordJSON: string(raw), Cells: cells})
	}

	uri := URIScheme + "table/" + uriSegment(objectType) + "/" + uuid.NewString()
	title := fmt.Sprintf("%s records (%d)", objectType, len(recs))
	p := page{
		Title:        title,
		Rows:         rows,
		Columns:      columns,
		EmptyMessage: fmt.Sprintf("No %s records found.", objectType),
	}
	html, err := r.execute(ModeTable, uri, nil, nil, p)
	if err != nil {
		return nil, err
	}
	return &Artifact{
		URI:     uri,
		Mode:    ModeTable,
		Title:   title,
		HTML:    html,
		Summary: tableSummary(recs, objectType),
	}, nil
}

func tableSummary(recs []*record.Record, objectType string) string {
	if len(recs) == 0 {
		return fmt.Sprintf("No %s records found.", objectType)
	}
	parts := make([]string, 0, len(recs)+1)
	parts = append(parts, fmt.Sprintf("Found %d %s record(s):", len(recs), objectType))
	for _, rec := range recs {
		parts = append(parts, rec.Summary())
	}
	return strings.Join(parts, "\n\n")
}
