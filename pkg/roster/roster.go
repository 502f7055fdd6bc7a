// Package roster reads raw student rosters from tabular files. Records are
// kept stringly typed; coercing them into canonical values is the model
// package's job.
package roster

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
)

type RawStudent struct {
	ID               string
	Name             string
	Score            string
	Gender           string
	LastYearClass    string
	Club             string
	GoodRelation     string
	BadRelation      string
	IsLeader         string
	PlaysPiano       string
	IsTruant         string
	IsAthletic       string
	PreferredSubject string
}

// columnAliases maps the column names found in exported rosters to their
// canonical names
var columnAliases = map[string]string{
	"sex":        "gender",
	"24년 학급":     "last_year_class",
	"클럽":         "club",
	"좋은관계":       "good_relation",
	"나쁜관계":       "bad_relation",
	"leadership": "is_leader",
	"piano":      "plays_piano",
	"비등교":        "is_truant",
	"운동선호":       "is_athletic",
}

func ReadCSV(file string) ([]RawStudent, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("cannot open roster file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("cannot parse roster csv: %w", err)
	}
	return fromRows(rows)
}

func ReadXLSX(file string) ([]RawStudent, error) {
	f, err := excelize.OpenFile(file)
	if err != nil {
		return nil, fmt.Errorf("cannot open roster workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("cannot read roster sheet: %w", err)
	}
	return fromRows(rows)
}

func fromRows(rows [][]string) ([]RawStudent, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("roster has no header row")
	}

	columns := make(map[string]int)
	for i, name := range rows[0] {
		canonical := strings.TrimSpace(name)
		if alias, ok := columnAliases[strings.ToLower(canonical)]; ok {
			canonical = alias
		} else if alias, ok := columnAliases[canonical]; ok {
			canonical = alias
		} else {
			canonical = strings.ToLower(canonical)
		}
		columns[canonical] = i
	}
	if _, ok := columns["id"]; !ok {
		return nil, fmt.Errorf("roster header has no id column: %v", rows[0])
	}

	cell := func(row []string, column string) string {
		index, ok := columns[column]
		if !ok || index >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[index])
	}

	students := make([]RawStudent, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		students = append(students, RawStudent{
			ID:               cell(row, "id"),
			Name:             cell(row, "name"),
			Score:            cell(row, "score"),
			Gender:           cell(row, "gender"),
			LastYearClass:    cell(row, "last_year_class"),
			Club:             cell(row, "club"),
			GoodRelation:     cell(row, "good_relation"),
			BadRelation:      cell(row, "bad_relation"),
			IsLeader:         cell(row, "is_leader"),
			PlaysPiano:       cell(row, "plays_piano"),
			IsTruant:         cell(row, "is_truant"),
			IsAthletic:       cell(row, "is_athletic"),
			PreferredSubject: cell(row, "preferred_subject"),
		})
	}
	return students, nil
}
