package models

// Grades maps a subject name to its grade. A nil value is a subject with no
// grade recorded yet; a nil map means the student has no grades at all.
type Grades map[string]*float64

// Student represents a student record
type Student struct {
	Name   string `json:"name"`   // Student name
	ID     int    `json:"id"`     // Caller-supplied ID, not guaranteed unique
	Grades Grades `json:"grades"` // Subject -> grade, may be null or empty
}

// HasGrades reports whether the student has at least one subject entry.
func (s Student) HasGrades() bool {
	return len(s.Grades) > 0
}

// SubjectGrade is one student's grade for a given subject
type SubjectGrade struct {
	Name  string  `json:"name"`
	Grade float64 `json:"grade"`
}

// Statistics holds population statistics over the grades of one subject
type Statistics struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"stddev"`
}

// Grade returns a pointer to v, handy for building Grades literals.
func Grade(v float64) *float64 {
	return &v
}
