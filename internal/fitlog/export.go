package fitlog

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// Converter rewrites one exported row. Converters are presentational only
// and never touch stored records.
type Converter func(row Payload) Payload

// Table is an ordered sequence of flat rows ready for charting or CSV.
// Columns lists every field seen, the timestamp column first and the rest
// in first-seen order.
type Table struct {
	Type    string
	FileID  int64
	Columns []string
	Rows    []Payload
}

// TimestampColumn returns the reserved field name the stored timestamp is
// exported under. Laps report their timestamp as the lap end.
func TimestampColumn(recordType string) string {
	if recordType == "lap" {
		return "end_time"
	}
	return TimestampField
}

// TimeSeries exports a file's records of one type ordered by timestamp.
// Each row starts with the record timestamp under TimestampColumn, which
// replaces any payload field of the same name. Converters run in order.
func (s *Service) TimeSeries(fileID int64, recordType string, converters ...Converter) (*Table, error) {
	rows, err := s.database.ListRecordsByTypeByTime(fileID, recordType)
	if err != nil {
		return nil, err
	}
	recs, err := recordsFromRows(rows)
	if err != nil {
		return nil, err
	}

	column := TimestampColumn(recordType)
	table := &Table{Type: recordType, FileID: fileID, Columns: []string{column}}

	for _, rec := range recs {
		ts := NullValue()
		if rec.Timestamp != nil {
			ts = TimeValue(*rec.Timestamp)
		}

		row := append(Payload{{Name: column, Value: ts}}, rec.Payload.Delete(column)...)
		for _, convert := range converters {
			row = convert(row)
		}

		for _, f := range row {
			if !slices.Contains(table.Columns, f.Name) {
				table.Columns = append(table.Columns, f.Name)
			}
		}
		table.Rows = append(table.Rows, row)
	}

	s.logger.Debug("exported time series", "id", fileID, "type", recordType, "rows", len(table.Rows))
	return table, nil
}

// Column returns every row's value for name; rows without it give a null.
func (t *Table) Column(name string) []Value {
	values := make([]Value, len(t.Rows))
	for i, row := range t.Rows {
		if v, ok := row.Get(name); ok {
			values[i] = v
		}
	}
	return values
}

// Records returns the table as string cells in column order, header first.
func (t *Table) Records() [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	out = append(out, slices.Clone(t.Columns))
	for _, row := range t.Rows {
		cells := make([]string, len(t.Columns))
		for i, name := range t.Columns {
			if v, ok := row.Get(name); ok {
				cells[i] = v.String()
			}
		}
		out = append(out, cells)
	}
	return out
}

// semicircles is the device's angular unit: 2^31 of them span 180 degrees.
const semicircles = 1 << 31

// SemicirclesToDegrees converts the named integer fields from semicircles to
// degrees. Fields that are missing or not numeric are left alone.
func SemicirclesToDegrees(fields ...string) Converter {
	return func(row Payload) Payload {
		for _, name := range fields {
			v, ok := row.Get(name)
			if !ok {
				continue
			}
			n, ok := v.AsFloat()
			if !ok {
				continue
			}
			row = row.Set(name, FloatValue(n*180/semicircles))
		}
		return row
	}
}

// PositionsToDegrees converts every coordinate field of a row, such as a
// record's position_lat or a lap's start_position_long, from semicircles to
// degrees.
func PositionsToDegrees() Converter {
	return func(row Payload) Payload {
		var fields []string
		for _, name := range row.Names() {
			if strings.HasSuffix(name, "position_lat") || strings.HasSuffix(name, "position_long") {
				fields = append(fields, name)
			}
		}
		return SemicirclesToDegrees(fields...)(row)
	}
}

// Scale multiplies a numeric field by factor, for unit changes such as
// m/s to km/h.
func Scale(field string, factor float64) Converter {
	return func(row Payload) Payload {
		v, ok := row.Get(field)
		if !ok {
			return row
		}
		n, ok := v.AsFloat()
		if !ok {
			return row
		}
		scaled := n * factor
		if math.IsNaN(scaled) || math.IsInf(scaled, 0) {
			return row
		}
		return row.Set(field, FloatValue(scaled))
	}
}

// ParseConverter builds a converter from its command-line form.
func ParseConverter(name string) (Converter, error) {
	switch name {
	case "degrees":
		return PositionsToDegrees(), nil
	case "kmh":
		return Scale("speed", 3.6), nil
	}
	return nil, fmt.Errorf("unknown converter %q", name)
}
