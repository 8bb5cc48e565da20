package fitlog

import (
	"fmt"
	"slices"
)

// ViewSpec describes a domain view as data: a file belongs to the view when
// it holds exactly one designating record whose discriminator field matches,
// and the view shows that file's records of the contributing types.
type ViewSpec struct {
	Name               string
	DesignatingType    string
	DiscriminatorField string
	DiscriminatorValue string
	Contributing       []string
}

var DeviceView = ViewSpec{
	Name:               "device",
	DesignatingType:    "file_id",
	DiscriminatorField: "type",
	DiscriminatorValue: "device",
	Contributing: []string{
		"file_id",
		"file_creator",
		"device_info",
		"software",
		"capabilities",
		"file_capabilities",
		"mesg_capabilities",
		"field_capabilities",
	},
}

var ActivityView = ViewSpec{
	Name:               "activity",
	DesignatingType:    "file_id",
	DiscriminatorField: "type",
	DiscriminatorValue: "activity",
	Contributing: []string{
		"file_id",
		"file_creator",
		"device_info",
		"device_settings",
		"user_profile",
		"sport",
		"zones_target",
	},
}

// BuiltinViews returns the views every library has.
func BuiltinViews() []ViewSpec {
	return []ViewSpec{DeviceView, ActivityView}
}

func (v ViewSpec) Validate() error {
	switch {
	case v.Name == "":
		return fmt.Errorf("view has no name")
	case v.DesignatingType == "":
		return fmt.Errorf("view %s: designating type is required", v.Name)
	case v.DiscriminatorField == "":
		return fmt.Errorf("view %s: discriminator field is required", v.Name)
	case len(v.Contributing) == 0:
		return fmt.Errorf("view %s: at least one contributing type is required", v.Name)
	}
	return nil
}

// DomainView is one file's entry in a view.
type DomainView struct {
	View    string
	FileID  int64
	Path    string
	Records []*Record
}

// Views evaluates spec over all imported files. Entries are in file id
// order; records within an entry keep their import order. Files with zero
// or several matching designating records are left out.
func (s *Service) Views(spec ViewSpec) ([]*DomainView, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	rows, err := s.database.ListImportedRecordsByType(spec.DesignatingType)
	if err != nil {
		return nil, fmt.Errorf("evaluating view %s: %w", spec.Name, err)
	}
	designating, err := recordsFromRows(rows)
	if err != nil {
		return nil, err
	}

	matches := map[int64]int{}
	var order []int64
	for _, rec := range designating {
		if !spec.matches(rec) {
			continue
		}
		if matches[rec.FileID] == 0 {
			order = append(order, rec.FileID)
		}
		matches[rec.FileID]++
	}

	paths, err := s.filePaths()
	if err != nil {
		return nil, err
	}

	var views []*DomainView
	for _, fileID := range order {
		if matches[fileID] != 1 {
			s.logger.Debug("file skipped by view", "view", spec.Name, "id", fileID, "matches", matches[fileID])
			continue
		}
		view, err := s.buildView(spec, fileID, paths[fileID])
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// ViewForFile evaluates spec for a single file. It returns (nil, nil) when
// the file is not part of the view.
func (s *Service) ViewForFile(spec ViewSpec, fileID int64) (*DomainView, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	file, err := s.database.FindFileByID(fileID)
	if err != nil {
		return nil, err
	}
	if file == nil || !file.Imported {
		return nil, nil
	}

	rows, err := s.database.ListRecordsByType(fileID, spec.DesignatingType)
	if err != nil {
		return nil, err
	}
	designating, err := recordsFromRows(rows)
	if err != nil {
		return nil, err
	}
	n := 0
	for _, rec := range designating {
		if spec.matches(rec) {
			n++
		}
	}
	if n != 1 {
		return nil, nil
	}
	return s.buildView(spec, fileID, file.Path)
}

func (s *Service) buildView(spec ViewSpec, fileID int64, path string) (*DomainView, error) {
	rows, err := s.database.ListRecordsByFile(fileID)
	if err != nil {
		return nil, err
	}

	view := &DomainView{View: spec.Name, FileID: fileID, Path: path}
	for _, row := range rows {
		if !slices.Contains(spec.Contributing, row.Type) {
			continue
		}
		rec, err := recordFromRow(row)
		if err != nil {
			return nil, err
		}
		view.Records = append(view.Records, rec)
	}
	return view, nil
}

func (v ViewSpec) matches(rec *Record) bool {
	value, ok := rec.Payload.Get(v.DiscriminatorField)
	return ok && value.String() == v.DiscriminatorValue
}

func (s *Service) filePaths() (map[int64]string, error) {
	files, err := s.database.ListFiles()
	if err != nil {
		return nil, err
	}
	paths := make(map[int64]string, len(files))
	for _, f := range files {
		paths[f.ID] = f.Path
	}
	return paths, nil
}

// Conflict records a field whose value differs between two records of a
// view. The value from the earlier record is kept.
type Conflict struct {
	Field        string
	Kept         Value
	KeptFrom     string
	Shadowed     Value
	ShadowedFrom string
}

// MergedView is a view's records folded into one flat field set.
type MergedView struct {
	View      string
	FileID    int64
	Path      string
	Fields    Payload
	Sources   map[string]string
	Conflicts []Conflict
}

// Merge folds the view's records into one field set. The first record that
// carries a field wins; later differing values are reported as conflicts.
func Merge(view *DomainView) *MergedView {
	merged := &MergedView{
		View:    view.View,
		FileID:  view.FileID,
		Path:    view.Path,
		Sources: map[string]string{},
	}
	for _, rec := range view.Records {
		for _, f := range rec.Payload {
			if f.Value.IsNull() {
				continue
			}
			kept, ok := merged.Fields.Get(f.Name)
			if !ok {
				merged.Fields = append(merged.Fields, f)
				merged.Sources[f.Name] = rec.Type
				continue
			}
			if !kept.Equal(f.Value) {
				merged.Conflicts = append(merged.Conflicts, Conflict{
					Field:        f.Name,
					Kept:         kept,
					KeptFrom:     merged.Sources[f.Name],
					Shadowed:     f.Value,
					ShadowedFrom: rec.Type,
				})
			}
		}
	}
	return merged
}

// ViewByName finds a view among specs.
func ViewByName(specs []ViewSpec, name string) (ViewSpec, bool) {
	for _, spec := range specs {
		if spec.Name == name {
			return spec, true
		}
	}
	return ViewSpec{}, false
}
