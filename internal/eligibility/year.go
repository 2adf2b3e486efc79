package eligibility

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/noah-isme/placement-api/internal/models"
)

var (
	ordinalWords = map[int]string{1: "first", 2: "second", 3: "third", 4: "fourth", 5: "fifth"}
	ordinalShort = map[int]string{1: "1st", 2: "2nd", 3: "3rd", 4: "4th", 5: "5th"}

	alumniSpellings = []string{"alumni", "alumnus", "graduate", "graduates", "graduated", "passed out", "pass out", "passout"}

	yearTokenPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)
)

// yearSpellings returns every normalised spelling a student's year of study
// is accepted under.
func yearSpellings(student models.StudentProfile) map[string]struct{} {
	out := make(map[string]struct{})
	add := func(s string) {
		if n := normalize(s); n != "" {
			out[n] = struct{}{}
		}
	}

	year := strings.TrimSpace(student.Year)
	switch {
	case strings.EqualFold(year, models.YearAlumni):
		for _, s := range alumniSpellings {
			add(s)
		}
	default:
		n, err := strconv.Atoi(year)
		if err != nil || n < 1 || n > 5 {
			break
		}
		add(year)
		add("year " + year)
		add(ordinalShort[n])
		add(ordinalShort[n] + " year")
		add(ordinalWords[n])
		add(ordinalWords[n] + " year")
		if isFinalYear(student) {
			add("final year")
			add("final")
		}
	}

	if student.PassingYear != nil {
		add(strconv.Itoa(*student.PassingYear))
	}
	return out
}

// acceptsYear reports whether one accepted-year entry of a posting matches
// the student's spellings. Entries mentioning a calendar year ("2025 batch")
// match on that year alone.
func acceptsYear(entry string, spellings map[string]struct{}) bool {
	n := normalize(entry)
	if n == "" {
		return false
	}
	if _, ok := spellings[n]; ok {
		return true
	}
	if _, ok := spellings[compact(n)]; ok {
		return true
	}
	for _, y := range yearTokenPattern.FindAllString(n, -1) {
		if _, ok := spellings[y]; ok {
			return true
		}
	}
	return false
}

// programDuration returns the number of years a program runs.
func programDuration(program string) int {
	p := compact(normalize(program))
	switch {
	case p == "":
		return 4
	case strings.Contains(p, "integrated") || strings.Contains(p, "dual"):
		return 5
	case strings.Contains(p, "phd"):
		return 5
	case strings.HasPrefix(p, "mtech"), strings.HasPrefix(p, "msc"), strings.HasPrefix(p, "mba"),
		strings.HasPrefix(p, "mplan"), strings.HasPrefix(p, "mca"), p == "me":
		return 2
	case strings.HasPrefix(p, "barch"):
		return 5
	default:
		return 4
	}
}

func isFinalYear(student models.StudentProfile) bool {
	n, err := strconv.Atoi(strings.TrimSpace(student.Year))
	if err != nil {
		return false
	}
	return n >= programDuration(student.Program)
}

func isAlumni(student models.StudentProfile) bool {
	return strings.EqualFold(strings.TrimSpace(student.Year), models.YearAlumni)
}
