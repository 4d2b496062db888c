package db

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"gradebook-server-go/models"
)

// Columns every imported sheet must carry in its header row. Every other
// header cell names a subject.
const (
	nameHeader = "name"
	idHeader   = "id"
)

// ParseStudentsWorkbook reads the first sheet of an Excel stream laid out as
// name | id | <subject>... with a header row. Empty subject cells are left out
// of the grades; a row without any grade yields a student without grades.
// Rows with a missing name, a non-integer id or a grade that is not a finite
// number are skipped and counted.
func ParseStudentsWorkbook(file io.Reader, log *zap.Logger) (students []models.Student, skipped int, err error) {
	if log == nil {
		log = zap.NewNop()
	}

	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open excel file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			log.Warn("error closing excel file", zap.Error(cerr))
		}
	}()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, 0, errors.New("excel file does not contain any sheets")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get rows from sheet %s: %w", sheetName, err)
	}
	if len(rows) == 0 {
		return nil, 0, fmt.Errorf("sheet %s is empty", sheetName)
	}

	nameCol, idCol := -1, -1
	subjects := map[int]string{}
	for i, cell := range rows[0] {
		header := strings.TrimSpace(cell)
		switch strings.ToLower(header) {
		case nameHeader:
			nameCol = i
		case idHeader:
			idCol = i
		case "":
		default:
			subjects[i] = header
		}
	}
	if nameCol < 0 || idCol < 0 {
		return nil, 0, fmt.Errorf("sheet %s must have %q and %q header columns", sheetName, nameHeader, idHeader)
	}

	for i, row := range rows[1:] {
		line := i + 2
		st, err := parseStudentRow(row, nameCol, idCol, subjects)
		if err != nil {
			log.Info("skipping row", zap.Int("row", line), zap.Error(err))
			skipped++
			continue
		}
		students = append(students, st)
	}
	return students, skipped, nil
}

func parseStudentRow(row []string, nameCol, idCol int, subjects map[int]string) (models.Student, error) {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	var st models.Student
	st.Name = cell(nameCol)
	if st.Name == "" {
		return st, errors.New("missing name")
	}

	id, err := strconv.Atoi(cell(idCol))
	if err != nil {
		return st, fmt.Errorf("invalid id %q", cell(idCol))
	}
	st.ID = id

	for col, subject := range subjects {
		raw := cell(col)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return st, fmt.Errorf("invalid grade %q for %s", raw, subject)
		}
		if st.Grades == nil {
			st.Grades = models.Grades{}
		}
		st.Grades[subject] = models.Grade(v)
	}
	return st, nil
}

// WriteStudentsWorkbook lays students out the way ParseStudentsWorkbook reads
// them. Subject columns are the sorted union of all subjects; null grades are
// written as empty cells.
func WriteStudentsWorkbook(students []models.Student) (*excelize.File, error) {
	seen := map[string]struct{}{}
	for _, st := range students {
		for subject := range st.Grades {
			seen[subject] = struct{}{}
		}
	}
	subjects := make([]string, 0, len(seen))
	for subject := range seen {
		subjects = append(subjects, subject)
	}
	sort.Strings(subjects)

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	header := []interface{}{nameHeader, idHeader}
	for _, subject := range subjects {
		header = append(header, subject)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, st := range students {
		row := []interface{}{st.Name, st.ID}
		for _, subject := range subjects {
			if grade := st.Grades[subject]; grade != nil {
				row = append(row, *grade)
			} else {
				row = append(row, nil)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err == nil {
			err = f.SetSheetRow(sheet, cell, &row)
		}
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to write student %d: %w", st.ID, err)
		}
	}
	return f, nil
}
