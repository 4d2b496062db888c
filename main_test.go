package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gradebook-server-go/config"
	"gradebook-server-go/db"
	"gradebook-server-go/models"
	"gradebook-server-go/store"
)

func TestOpenBackend(t *testing.T) {
	dir := t.TempDir()

	backend, closeFn, err := openBackend(config.Config{Backend: config.BackendFile, DataFile: filepath.Join(dir, "s.json")}, zap.NewNop())
	require.NoError(t, err)
	closeFn()
	assert.IsType(t, &db.FileBackend{}, backend)

	backend, closeFn, err = openBackend(config.Config{Backend: config.BackendExcel, XLSXFile: filepath.Join(dir, "s.xlsx")}, zap.NewNop())
	require.NoError(t, err)
	closeFn()
	assert.IsType(t, &db.ExcelBackend{}, backend)
}

func TestCheckAndSeedData(t *testing.T) {
	s := store.New(db.NewFileBackend(filepath.Join(t.TempDir(), "students.json")), nil)
	require.NoError(t, s.Load())

	checkAndSeedData(s, zap.NewNop())
	assert.Equal(t, 3, s.Len())

	checkAndSeedData(s, zap.NewNop())
	assert.Equal(t, 3, s.Len())

	got, err := s.GetByID(2)
	require.NoError(t, err)
	assert.Equal(t, models.Grades{"algorithms": models.Grade(5.5), "software_engineering": nil}, got.Grades)
}
