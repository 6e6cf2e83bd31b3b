package domain

import (
	"strings"
	"unicode"
)

// SpecialistSubjects are lessons delivered by a visiting specialist. When one of these
// appears in a form teacher's timetable cell the form teacher is released for that period.
// Keep this the only copy of the list.
var SpecialistSubjects = []string{
	"Thai",
	"Music",
	"PE",
	"PHSE",
	"PSHE",
}

// freeCellValues are timetable cell contents that mean nothing is scheduled.
var freeCellValues = []string{"", "none", "nan", "free", "available"}

// IsFreeCell reports whether a raw timetable cell means the slot is empty.
func IsFreeCell(activity string) bool {
	v := strings.ToLower(strings.TrimSpace(activity))
	for _, f := range freeCellValues {
		if v == f {
			return true
		}
	}
	return false
}

// SpecialistSubjectIn returns the specialist subject named in activity, matched as a whole
// word ignoring case, so "6 RG Music" matches Music but "Speech" does not match PE.
func SpecialistSubjectIn(activity string) (string, bool) {
	words := strings.FieldsFunc(activity, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, w := range words {
		for _, subject := range SpecialistSubjects {
			if strings.EqualFold(w, subject) {
				return subject, true
			}
		}
	}
	return "", false
}
