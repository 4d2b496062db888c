package store

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"gradebook-server-go/models"
)

const (
	// MinGrade and MaxGrade bound every stored grade, inclusive.
	MinGrade = 0.0
	MaxGrade = 10.0

	// DefaultLowThreshold is the grade under which a student is reported as
	// a low performer when the caller does not pick a threshold.
	DefaultLowThreshold = 6.0
)

// Backend loads and saves the whole collection. Save always overwrites what
// was stored before.
type Backend interface {
	Load() ([]models.Student, error)
	Save(students []models.Student) error
}

// StudentStore owns the in-memory list of students. Lookups by ID are linear
// scans: IDs are not unique, the first match wins for reads and every match
// is removed on delete.
type StudentStore struct {
	mu       sync.RWMutex
	students []models.Student
	backend  Backend
	log      *zap.Logger
}

// New creates an empty StudentStore backed by backend. Call Load to pull the
// persisted collection.
func New(backend Backend, log *zap.Logger) *StudentStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &StudentStore{
		backend: backend,
		log:     log,
	}
}

// Load replaces the in-memory collection with the backend's content.
func (s *StudentStore) Load() error {
	students, err := s.backend.Load()
	if err != nil {
		return fmt.Errorf("failed to load students: %w", err)
	}
	s.mu.Lock()
	s.students = students
	s.mu.Unlock()
	s.log.Info("loaded students", zap.Int("count", len(students)))
	return nil
}

// Len returns the number of stored students.
func (s *StudentStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.students)
}

// ListAll returns every student in insertion order.
func (s *StudentStore) ListAll() []models.Student {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Student, 0, len(s.students))
	for _, st := range s.students {
		out = append(out, cloneStudent(st))
	}
	return out
}

// Insert validates candidate and appends it to the collection. Present grades
// are rounded to one decimal first and only then checked against
// [MinGrade, MaxGrade], so 9.96 is stored as 10.0.
func (s *StudentStore) Insert(candidate models.Student) error {
	student := cloneStudent(candidate)
	for subject, grade := range student.Grades {
		if grade == nil {
			continue
		}
		rounded := roundGrade(*grade)
		if math.IsNaN(rounded) || rounded < MinGrade || rounded > MaxGrade {
			return &ValidationError{Subject: subject, Value: rounded}
		}
		student.Grades[subject] = &rounded
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]models.Student, len(s.students), len(s.students)+1)
	copy(next, s.students)
	next = append(next, student)
	if err := s.commit(next); err != nil {
		return err
	}
	s.log.Debug("inserted student", zap.Int("id", student.ID), zap.String("name", student.Name))
	return nil
}

// GetByID returns the first student with the given id.
func (s *StudentStore) GetByID(id int) (models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, st := range s.students {
		if st.ID == id {
			return cloneStudent(st), nil
		}
	}
	return models.Student{}, fmt.Errorf("student %d: %w", id, ErrNotFound)
}

// GradesByID returns the grades of the first student with the given id.
func (s *StudentStore) GradesByID(id int) (models.Grades, error) {
	st, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	return st.Grades, nil
}

// GradesBySubject lists the non-null grades recorded for subject. An empty
// result is reported as ErrNotFound.
func (s *StudentStore) GradesBySubject(subject string) ([]models.SubjectGrade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.SubjectGrade
	for _, st := range s.students {
		if grade := st.Grades[subject]; grade != nil {
			out = append(out, models.SubjectGrade{Name: st.Name, Grade: *grade})
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("subject %q: %w", subject, ErrNotFound)
	}
	return out, nil
}

// StatisticsBySubject computes the population mean, median and standard
// deviation of the non-null grades for subject.
func (s *StudentStore) StatisticsBySubject(subject string) (models.Statistics, error) {
	s.mu.RLock()
	var values []float64
	for _, st := range s.students {
		if grade := st.Grades[subject]; grade != nil {
			values = append(values, *grade)
		}
	}
	s.mu.RUnlock()

	if len(values) == 0 {
		return models.Statistics{}, fmt.Errorf("subject %q: %w", subject, ErrNotFound)
	}
	return computeStatistics(values), nil
}

// LowPerformers returns every student with at least one non-null grade
// strictly below threshold. Students without grades are never included.
func (s *StudentStore) LowPerformers(threshold float64) []models.Student {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Student{}
	for _, st := range s.students {
		for _, grade := range st.Grades {
			if grade != nil && *grade < threshold {
				out = append(out, cloneStudent(st))
				break
			}
		}
	}
	return out
}

// DeleteGradeless removes every student whose grades are absent or empty and
// returns how many were removed.
func (s *StudentStore) DeleteGradeless() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := slices.DeleteFunc(slices.Clone(s.students), func(st models.Student) bool {
		return !st.HasGrades()
	})
	removed := len(s.students) - len(next)
	if err := s.commit(next); err != nil {
		return 0, err
	}
	s.log.Info("removed gradeless students", zap.Int("removed", removed))
	return removed, nil
}

// DeleteByID removes every student with the given id.
func (s *StudentStore) DeleteByID(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := slices.DeleteFunc(slices.Clone(s.students), func(st models.Student) bool {
		return st.ID == id
	})
	if len(next) == len(s.students) {
		return fmt.Errorf("student %d: %w", id, ErrNotFound)
	}
	if err := s.commit(next); err != nil {
		return err
	}
	s.log.Info("removed student", zap.Int("id", id), zap.Int("removed", len(s.students)-len(next)))
	return nil
}

// commit saves next and swaps it in. Callers must hold the write lock.
func (s *StudentStore) commit(next []models.Student) error {
	if err := s.backend.Save(next); err != nil {
		s.log.Error("failed to save students", zap.Int("count", len(next)), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	s.students = next
	return nil
}

// roundGrade rounds the exact binary value of v to one decimal place, so
// 10.05 (stored as 10.0500000000000007) becomes 10.1. Negative zero is folded
// into zero.
func roundGrade(v float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 1, 64), 64)
	if err != nil {
		return math.NaN()
	}
	if r == 0 {
		return 0
	}
	return r
}

func computeStatistics(values []float64) models.Statistics {
	n := float64(len(values))

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / n

	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}

	sorted := slices.Clone(values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	median := sorted[mid]
	if len(sorted)%2 == 0 {
		median = (sorted[mid-1] + sorted[mid]) / 2
	}

	return models.Statistics{
		Mean:   mean,
		Median: median,
		StdDev: math.Sqrt(sq / n),
	}
}

func cloneStudent(st models.Student) models.Student {
	if st.Grades == nil {
		return st
	}
	grades := make(models.Grades, len(st.Grades))
	for subject, grade := range st.Grades {
		if grade != nil {
			v := *grade
			grade = &v
		}
		grades[subject] = grade
	}
	st.Grades = grades
	return st
}
