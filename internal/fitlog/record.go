package fitlog

import (
	"encoding/json"
	"fmt"
	"time"

	"fitlog/internal/database/sqlc"
)

// TimestampField is the payload field promoted to a record's own column.
const TimestampField = "timestamp"

// Record is one flattened message of an imported file.
type Record struct {
	ID        int64
	FileID    int64
	Type      string
	Timestamp *time.Time
	Payload   Payload
}

// Flatten turns a decoded message into a Record. Messages of unresolved
// type are dropped (ok is false). Unresolved and unset fields are dropped;
// a "timestamp" field moves into Record.Timestamp. Later duplicates of a
// field name overwrite earlier ones.
func Flatten(msg RawMessage) (rec Record, ok bool, err error) {
	if msg.Type == "" {
		return Record{}, false, nil
	}

	rec = Record{Type: msg.Type}
	for _, f := range msg.Fields {
		if f.Name == "" || f.Value == nil {
			continue
		}
		v, err := FromAny(f.Value)
		if err != nil {
			return Record{}, false, fmt.Errorf("field %s.%s: %w", msg.Type, f.Name, err)
		}
		if v.IsNull() {
			continue
		}
		if f.Name == TimestampField {
			t, isTime := v.AsTime()
			if !isTime {
				return Record{}, false, fmt.Errorf("%w: %s.%s is a %s, not a time",
					ErrUnencodable, msg.Type, f.Name, v.Kind())
			}
			rec.Timestamp = &t
			continue
		}
		rec.Payload = rec.Payload.Set(f.Name, v)
	}
	return rec, true, nil
}

// recordFromRow decodes a stored record.
func recordFromRow(row *sqlc.Record) (*Record, error) {
	rec := &Record{
		ID:     row.ID,
		FileID: row.FileID,
		Type:   row.Type,
	}
	if row.Timestamp.Valid {
		t := row.Timestamp.Time.UTC()
		rec.Timestamp = &t
	}
	if err := json.Unmarshal([]byte(row.DataJson), &rec.Payload); err != nil {
		return nil, fmt.Errorf("decoding payload of record %d: %w", row.ID, err)
	}
	return rec, nil
}

func recordsFromRows(rows []*sqlc.Record) ([]*Record, error) {
	recs := make([]*Record, 0, len(rows))
	for _, row := range rows {
		rec, err := recordFromRow(row)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}
