package models

// RawRecord is one row as it comes out of a store or a bundled dataset.
// Key naming is not fixed: the same concept may appear as camelCase or
// snake_case, and specialties may be a list, a JSON string or a delimited
// string.
type RawRecord map[string]any

// Advocate is the normalized, read-time form of a directory entry.
//
// Every RawRecord is mapped into this structure before it is deduplicated,
// filtered or returned to a caller. It is never written back to the store.
type Advocate struct {
	ID                string   `json:"id"`
	FirstName         string   `json:"firstName"`
	LastName          string   `json:"lastName"`
	City              string   `json:"city"`
	Degree            string   `json:"degree"`
	Specialties       []string `json:"specialties"`       // trimmed, non-empty, sorted case-insensitively
	YearsOfExperience string   `json:"yearsOfExperience"` // "" when absent, "0" is a real value
	PhoneNumber       string   `json:"phoneNumber"`
}

// Page is the response shape of a directory search.
type Page struct {
	Data  []Advocate `json:"data"`
	Total int        `json:"total"`

	// Source records where the rows came from ("store" or "fallback").
	// It is kept out of the response so callers cannot tell the two apart.
	Source string `json:"-"`
}
