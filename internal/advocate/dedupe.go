package advocate

import (
	"encoding/json"

	"advocatehub/pkg/models"
)

// contentKey is an Advocate without its id, in a fixed field order.
type contentKey struct {
	FirstName         string   `json:"f"`
	LastName          string   `json:"l"`
	City              string   `json:"c"`
	Degree            string   `json:"d"`
	Specialties       []string `json:"s"`
	YearsOfExperience string   `json:"y"`
	PhoneNumber       string   `json:"p"`
}

func keyOf(a models.Advocate) string {
	specs := a.Specialties
	if specs == nil {
		specs = []string{}
	}
	b, _ := json.Marshal(contentKey{
		FirstName:         a.FirstName,
		LastName:          a.LastName,
		City:              a.City,
		Degree:            a.Degree,
		Specialties:       specs,
		YearsOfExperience: a.YearsOfExperience,
		PhoneNumber:       a.PhoneNumber,
	})
	return string(b)
}

// Dedupe drops records whose content (everything but the id) was already
// seen. The first occurrence wins and input order is kept. The same person
// can carry different ids across sources, so ids are never compared.
func Dedupe(records []models.Advocate) []models.Advocate {
	seen := make(map[string]struct{}, len(records))
	out := make([]models.Advocate, 0, len(records))
	for _, r := range records {
		k := keyOf(r)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}
