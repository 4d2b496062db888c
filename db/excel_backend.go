package db

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/xuri/excelize/v2"
	"go.uber.org/multierr"

	"gradebook-server-go/models"
)

const backendSheet = "students"

// ExcelBackend stores the collection in an xlsx workbook: one row per student
// with columns name | id | grades, grades holding the JSON-encoded mapping.
// An empty grades cell means the student has no grades mapping at all.
type ExcelBackend struct {
	Path string
}

// NewExcelBackend creates an ExcelBackend writing to path
func NewExcelBackend(path string) *ExcelBackend {
	return &ExcelBackend{Path: path}
}

// Load reads every student row from the workbook. A missing file yields an
// empty collection.
func (b *ExcelBackend) Load() (students []models.Student, err error) {
	if _, statErr := os.Stat(b.Path); errors.Is(statErr, fs.ErrNotExist) {
		return []models.Student{}, nil
	}

	f, err := excelize.OpenFile(b.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open excel file %s: %w", b.Path, err)
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()

	rows, err := f.GetRows(backendSheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to get rows from sheet %s: %w", backendSheet, err)
	}

	students = make([]models.Student, 0, len(rows))
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		st, err := decodeBackendRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d of %s: %w", i+1, b.Path, err)
		}
		students = append(students, st)
	}
	return students, nil
}

// Save builds a fresh workbook from students and writes it over the target
// file.
func (b *ExcelBackend) Save(students []models.Student) (err error) {
	f := excelize.NewFile()
	defer func() {
		err = multierr.Append(err, f.Close())
	}()

	if err := f.SetSheetName("Sheet1", backendSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetSheetRow(backendSheet, "A1", &[]interface{}{"name", "id", "grades"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, st := range students {
		row := []interface{}{st.Name, st.ID}
		if st.Grades != nil {
			raw, err := json.Marshal(st.Grades)
			if err != nil {
				return fmt.Errorf("failed to encode grades of student %d: %w", st.ID, err)
			}
			row = append(row, string(raw))
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(backendSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write student %d: %w", st.ID, err)
		}
	}

	return writeAtomic(b.Path, func(out *os.File) error {
		return f.Write(out)
	})
}

func decodeBackendRow(row []string) (models.Student, error) {
	var st models.Student
	if len(row) < 2 {
		return st, fmt.Errorf("expected at least 2 columns, got %d", len(row))
	}
	st.Name = row[0]

	id, err := strconv.Atoi(row[1])
	if err != nil {
		return st, fmt.Errorf("invalid id %q: %w", row[1], err)
	}
	st.ID = id

	if len(row) > 2 && row[2] != "" {
		if err := json.Unmarshal([]byte(row[2]), &st.Grades); err != nil {
			return st, fmt.Errorf("invalid grades %q: %w", row[2], err)
		}
	}
	return st, nil
}
