package db

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"gradebook-server-go/models"
)

func workbookBytes(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestParseStudentsWorkbook(t *testing.T) {
	buf := workbookBytes(t, [][]interface{}{
		{"Name", "ID", "math", "sci"},
		{"Ana", 1, 5.5, 8},
		{"Bea", 2, nil, 7},
		{"Caio", 3},
		{"", 4, 5},
		{"Dora", "x", 5},
		{"Eva", 5, "abc"},
	})

	students, skipped, err := ParseStudentsWorkbook(buf, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, skipped)
	assert.Equal(t, []models.Student{
		{Name: "Ana", ID: 1, Grades: models.Grades{"math": models.Grade(5.5), "sci": models.Grade(8)}},
		{Name: "Bea", ID: 2, Grades: models.Grades{"sci": models.Grade(7)}},
		{Name: "Caio", ID: 3},
	}, students)
}

func TestParseStudentsWorkbook_NonFiniteGrades(t *testing.T) {
	buf := workbookBytes(t, [][]interface{}{
		{"name", "id", "math"},
		{"Ana", 1, 5},
		{"Bea", 2, "NaN"},
		{"Caio", 3, 7},
		{"Dora", 4, "+Inf"},
		{"Eva", 5, "-inf"},
	})

	students, skipped, err := ParseStudentsWorkbook(buf, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, skipped)
	assert.Equal(t, []models.Student{
		{Name: "Ana", ID: 1, Grades: models.Grades{"math": models.Grade(5)}},
		{Name: "Caio", ID: 3, Grades: models.Grades{"math": models.Grade(7)}},
	}, students)
}

func TestParseStudentsWorkbook_MissingHeader(t *testing.T) {
	buf := workbookBytes(t, [][]interface{}{
		{"student", "math"},
		{"Ana", 5},
	})

	_, _, err := ParseStudentsWorkbook(buf, nil)
	assert.Error(t, err)
}

func TestParseStudentsWorkbook_NotExcel(t *testing.T) {
	_, _, err := ParseStudentsWorkbook(bytes.NewBufferString("name,id\nAna,1\n"), nil)
	assert.Error(t, err)
}

func TestWriteStudentsWorkbook_ReadsBack(t *testing.T) {
	in := []models.Student{
		{Name: "Ana", ID: 1, Grades: models.Grades{"sci": models.Grade(8.5), "math": models.Grade(5)}},
		{Name: "Bea", ID: 2, Grades: models.Grades{"math": nil}},
		{Name: "Caio", ID: 3},
	}

	f, err := WriteStudentsWorkbook(in)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"name", "id", "math", "sci"}, rows[0])

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	students, skipped, err := ParseStudentsWorkbook(buf, nil)
	require.NoError(t, err)
	assert.Zero(t, skipped)
	assert.Equal(t, []models.Student{
		{Name: "Ana", ID: 1, Grades: models.Grades{"sci": models.Grade(8.5), "math": models.Grade(5)}},
		{Name: "Bea", ID: 2},
		{Name: "Caio", ID: 3},
	}, students)
}
