package fitlog

import (
	"fmt"
	"strings"
	"time"
)

// FileSummary is one line of the file listing. Parts whose fields are not
// present in the file's records stay empty.
type FileSummary struct {
	ID           int64
	Name         string
	Imported     bool
	Created      *time.Time
	Manufacturer string
	SerialNumber string
	Sport        string
}

// String renders the summary on one line, leaving out absent parts.
func (f *FileSummary) String() string {
	parts := []string{fmt.Sprintf("#%d", f.ID), f.Name}
	if !f.Imported {
		parts = append(parts, "(pending)")
	}
	if f.Created != nil {
		parts = append(parts, f.Created.Format(time.DateTime))
	}
	switch {
	case f.Manufacturer != "" && f.SerialNumber != "":
		parts = append(parts, f.Manufacturer+"/"+f.SerialNumber)
	case f.Manufacturer != "":
		parts = append(parts, f.Manufacturer)
	case f.SerialNumber != "":
		parts = append(parts, f.SerialNumber)
	}
	if f.Sport != "" {
		parts = append(parts, f.Sport)
	}
	return strings.Join(parts, "  ")
}

// ListFiles summarizes every archived file in id order. Metadata comes from
// the first file_id and sport record of each imported file.
func (s *Service) ListFiles() ([]*FileSummary, error) {
	files, err := s.database.ListFiles()
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}

	fileIDs, err := s.firstRecordByFile("file_id")
	if err != nil {
		return nil, err
	}
	sports, err := s.firstRecordByFile("sport")
	if err != nil {
		return nil, err
	}

	summaries := make([]*FileSummary, 0, len(files))
	for _, f := range files {
		summary := &FileSummary{ID: f.ID, Name: f.Path, Imported: f.Imported}
		if rec, ok := fileIDs[f.ID]; ok {
			if v, ok := rec.Payload.Get("time_created"); ok {
				if t, ok := v.AsTime(); ok {
					summary.Created = &t
				}
			}
			summary.Manufacturer = fieldText(rec.Payload, "manufacturer")
			summary.SerialNumber = fieldText(rec.Payload, "serial_number")
		}
		if rec, ok := sports[f.ID]; ok {
			summary.Sport = fieldText(rec.Payload, "sport")
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (s *Service) firstRecordByFile(recordType string) (map[int64]*Record, error) {
	rows, err := s.database.ListImportedRecordsByType(recordType)
	if err != nil {
		return nil, fmt.Errorf("listing %s records: %w", recordType, err)
	}
	first := map[int64]*Record{}
	for _, row := range rows {
		if _, seen := first[row.FileID]; seen {
			continue
		}
		rec, err := recordFromRow(row)
		if err != nil {
			return nil, err
		}
		first[row.FileID] = rec
	}
	return first, nil
}

func fieldText(p Payload, name string) string {
	v, ok := p.Get(name)
	if !ok {
		return ""
	}
	return v.String()
}
