package advocate

import (
	"sort"
	"strconv"
	"strings"

	"advocatehub/pkg/models"
)

const (
	DefaultLimit = 50
	MaxLimit     = 1000
)

// ClampLimit parses a limit query parameter. Empty or non-numeric input
// yields DefaultLimit; everything else is clamped to [1, MaxLimit].
func ClampLimit(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return DefaultLimit
	}
	return clampLimit(n)
}

// ClampOffset parses an offset query parameter, defaulting to 0.
func ClampOffset(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func clampLimit(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxLimit {
		return MaxLimit
	}
	return n
}

// isNumericQuery reports whether q is made only of decimal digits.
func isNumericQuery(q string) bool {
	if q == "" {
		return false
	}
	for i := 0; i < len(q); i++ {
		if q[i] < '0' || q[i] > '9' {
			return false
		}
	}
	return true
}

// Search filters, orders and pages records.
//
// An empty query returns everything ordered by last name. A numeric query
// puts exact years-of-experience matches ahead of records that only contain
// the digits somewhere in their text fields. total counts every match
// before paging.
func Search(records []models.Advocate, query string, limit, offset int) ([]models.Advocate, int) {
	q := strings.TrimSpace(query)
	limit = clampLimit(limit)
	if offset < 0 {
		offset = 0
	}

	var matches []models.Advocate
	switch {
	case q == "":
		matches = append(matches, records...)
		sortByLastName(matches)
	case isNumericQuery(q):
		matches = searchNumeric(records, q)
	default:
		matches = searchText(records, q)
	}

	return paginate(matches, limit, offset), len(matches)
}

func searchNumeric(records []models.Advocate, q string) []models.Advocate {
	want, err := strconv.Atoi(q)
	needle := strings.ToLower(q)

	var exact, partial []models.Advocate
	for _, r := range records {
		if err == nil && yearsEqual(r.YearsOfExperience, want) {
			exact = append(exact, r)
			continue
		}
		// "15" still shows up for "5", just after the exact matches
		if containsAny(needle, r.FirstName, r.LastName, r.City, r.Degree, joinSpecialties(r), r.YearsOfExperience) {
			partial = append(partial, r)
		}
	}

	sortByLastName(exact)
	sortByLastName(partial)
	return append(exact, partial...)
}

func searchText(records []models.Advocate, q string) []models.Advocate {
	needle := strings.ToLower(q)

	var out []models.Advocate
	for _, r := range records {
		if containsAny(needle,
			r.FirstName, r.LastName, r.City, r.Degree,
			joinSpecialties(r), r.YearsOfExperience, r.PhoneNumber,
		) {
			out = append(out, r)
		}
	}
	sortByLastName(out)
	return out
}

func yearsEqual(years string, want int) bool {
	n, err := strconv.Atoi(strings.TrimSpace(years))
	return err == nil && n == want
}

func joinSpecialties(a models.Advocate) string {
	return strings.Join(a.Specialties, ", ")
}

// containsAny does a case-insensitive substring match; needle must already
// be lower-cased.
func containsAny(needle string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

func sortByLastName(rs []models.Advocate) {
	c := newCollator()
	sort.SliceStable(rs, func(i, j int) bool {
		return c.CompareString(rs[i].LastName, rs[j].LastName) < 0
	})
}

func paginate(rs []models.Advocate, limit, offset int) []models.Advocate {
	if offset >= len(rs) {
		return []models.Advocate{}
	}
	end := offset + limit
	if end > len(rs) {
		end = len(rs)
	}
	out := make([]models.Advocate, end-offset)
	copy(out, rs[offset:end])
	return out
}
