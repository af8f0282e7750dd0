package atomic

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"regexp"
	"strings"
)

var (
	techniqueIDRegex = regexp.MustCompile(`^T\d{4}(\.\d{3})?$`)
	guidRegex        = regexp.MustCompile(`^[a-zA-Z0-9]{8}-[a-zA-Z0-9]{4}-[a-zA-Z0-9]{4}-[a-zA-Z0-9]{4}-[a-zA-Z0-9]{12}$`)
	csvPathRegex     = regexp.MustCompile(`(?i)\.csv$`)
)

// ValidTechniqueID reports whether s looks like T1234 or T1234.001.
func ValidTechniqueID(s string) bool {
	return techniqueIDRegex.MatchString(s)
}

// ValidGUID reports whether s has the 8-4-4-4-12 GUID shape.
func ValidGUID(s string) bool {
	return guidRegex.MatchString(s)
}

// IsCSVPath reports whether a --test_list value names a CSV file rather
// than a comma-delimited list of IDs.
func IsCSVPath(s string) bool {
	return csvPathRegex.MatchString(strings.TrimSpace(s))
}

// ExclusionList maps excluded test GUIDs (lower-cased) to their comment.
type ExclusionList map[string]string

// Contains reports whether guid is excluded.
func (l ExclusionList) Contains(guid string) bool {
	_, ok := l[strings.ToLower(guid)]
	return ok
}

// Comment returns the free-text comment recorded for guid.
func (l ExclusionList) Comment(guid string) string {
	return l[strings.ToLower(guid)]
}

// LoadExclusions parses the two-column exclusion CSV. A missing file yields
// an empty list. A header that is not exactly two columns, a short data row
// or a CSV syntax error rejects the whole file. Rows whose GUID is malformed
// are dropped.
func LoadExclusions(path string) (ExclusionList, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ExclusionList{}, nil
		}
		return nil, err
	}
	defer f.Close()

	return ParseExclusions(f), nil
}

// ParseExclusions is LoadExclusions over an already opened reader.
func ParseExclusions(r io.Reader) ExclusionList {
	records, ok := readRecords(r)
	if !ok || len(records) == 0 || len(records[0]) != 2 {
		return ExclusionList{}
	}

	list := make(ExclusionList, len(records)-1)
	for _, row := range records[1:] {
		if len(row) < 2 {
			return ExclusionList{}
		}
		guid := strings.TrimSpace(row[0])
		if !ValidGUID(guid) {
			continue
		}
		list[strings.ToLower(guid)] = strings.TrimSpace(row[1])
	}
	return list
}

// LoadTechniqueIDs reads the single-column technique list CSV. A header
// with more than one column rejects the file; rows that are not technique
// IDs are dropped.
func LoadTechniqueIDs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ParseTechniqueIDList(f), nil
}

// ParseTechniqueIDList is LoadTechniqueIDs over an already opened reader.
func ParseTechniqueIDList(r io.Reader) []string {
	records, ok := readRecords(r)
	if !ok || len(records) == 0 || len(records[0]) > 1 {
		return nil
	}

	var ids []string
	for _, row := range records[1:] {
		if len(row) == 0 {
			continue
		}
		id := strings.TrimSpace(row[0])
		if ValidTechniqueID(id) {
			ids = append(ids, id)
		}
	}
	return ids
}

// ParseTechniqueIDs splits a comma-delimited list such as "T1059.001, T1003".
// A single invalid entry rejects the whole list.
func ParseTechniqueIDs(s string) []string {
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return nil
	}
	ids := strings.Split(s, ",")
	for _, id := range ids {
		if !ValidTechniqueID(id) {
			return nil
		}
	}
	return ids
}

func readRecords(r io.Reader) ([][]string, bool) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, false
	}
	return records, true
}
