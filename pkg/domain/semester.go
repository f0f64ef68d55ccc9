package domain

import "fmt"

// Semester identifies half a year of telescope time, e.g. 2021-1.
type Semester struct {
	Year int `json:"year"`
	Half int `json:"semester"`
}

// String formats the semester as "2021-1".
func (s Semester) String() string {
	return fmt.Sprintf("%d-%d", s.Year, s.Half)
}

// Valid reports whether the semester has a positive year and a half of 1 or 2.
func (s Semester) Valid() bool {
	return s.Year > 0 && (s.Half == 1 || s.Half == 2)
}
