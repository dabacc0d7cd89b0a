package loader

import (
	"fmt"
	"time"

	"github.com/ohler55/ojg/oj"
)

// ParseJSON decodes one remote snapshot document:
//
//	{
//	  "table": "actors",
//	  "ready_at": "2026-08-29T10:00:00Z",
//	  "rows": [{"id": "1", "attributes": {"title": "..."}}]
//	}
//
// A missing or unparseable ready_at leaves ReadyAt zero, which downstream
// treats as not ready.
func ParseJSON(data []byte) (Snapshot, error) {
	parsed, err := oj.Parse(data)
	if err != nil {
		return Snapshot{}, fmt.Errorf("parse snapshot: %w", err)
	}
	doc, ok := parsed.(map[string]any)
	if !ok {
		return Snapshot{}, fmt.Errorf("parse snapshot: expected object, got %T", parsed)
	}

	snap := Snapshot{}
	if snap.Table, ok = doc["table"].(string); !ok || snap.Table == "" {
		return Snapshot{}, fmt.Errorf("parse snapshot: missing table name")
	}
	if raw, ok := doc["ready_at"].(string); ok {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			snap.ReadyAt = t
		}
	}

	rows, _ := doc["rows"].([]any)
	for _, raw := range rows {
		row, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		r := Row{}
		switch id := row["id"].(type) {
		case string:
			r.ID = id
		case int64:
			r.ID = fmt.Sprintf("%d", id)
		case float64:
			r.ID = fmt.Sprintf("%d", int64(id))
		default:
			continue
		}
		if attrs, ok := row["attributes"].(map[string]any); ok {
			r.Attributes = attrs
		}
		snap.Rows = append(snap.Rows, r)
	}
	return snap, nil
}

// MarshalJSON encodes a snapshot in the remote document format, used by the
// SQLite cache and by fixtures.
func MarshalJSON(snap Snapshot) []byte {
	rows := make([]any, 0, len(snap.Rows))
	for _, r := range snap.Rows {
		rows = append(rows, map[string]any{
			"id":         r.ID,
			"attributes": r.Attributes,
		})
	}
	doc := map[string]any{
		"table": snap.Table,
		"rows":  rows,
	}
	if !snap.ReadyAt.IsZero() {
		doc["ready_at"] = snap.ReadyAt.UTC().Format(time.RFC3339)
	}
	return []byte(oj.JSON(doc, &oj.Options{Sort: true}))
}
