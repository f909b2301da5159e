package advocate

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"advocatehub/pkg/models"
)

func TestNormalizeFieldVariants(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  models.RawRecord
		want models.Advocate
	}{
		{
			name: "camelCase",
			raw: models.RawRecord{
				"id": "a1", "firstName": "Ada", "lastName": "Lovelace", "city": "London",
				"degree": "PhD", "specialties": []any{"Math"}, "yearsOfExperience": 12, "phoneNumber": 5551234,
			},
			want: models.Advocate{
				ID: "a1", FirstName: "Ada", LastName: "Lovelace", City: "London",
				Degree: "PhD", Specialties: []string{"Math"}, YearsOfExperience: "12", PhoneNumber: "5551234",
			},
		},
		{
			name: "snake_case with sql driver values",
			raw: models.RawRecord{
				"id": int64(7), "first_name": []byte("Grace"), "last_name": "Hopper", "city": "Arlington",
				"degree": "MD", "specialties": []byte(`["Navy","COBOL"]`), "years_of_experience": int64(30), "phone_number": "555",
			},
			want: models.Advocate{
				ID: "7", FirstName: "Grace", LastName: "Hopper", City: "Arlington",
				Degree: "MD", Specialties: []string{"COBOL", "Navy"}, YearsOfExperience: "30", PhoneNumber: "555",
			},
		},
		{
			name: "short aliases",
			raw:  models.RawRecord{"years": json.Number("4"), "phone": "555-0100"},
			want: models.Advocate{Specialties: []string{}, YearsOfExperience: "4", PhoneNumber: "555-0100"},
		},
		{
			name: "camelCase wins over snake_case",
			raw:  models.RawRecord{"firstName": "A", "first_name": "B"},
			want: models.Advocate{FirstName: "A", Specialties: []string{}},
		},
		{
			name: "nil falls through to next variant",
			raw:  models.RawRecord{"lastName": nil, "last_name": "Fallback"},
			want: models.Advocate{LastName: "Fallback", Specialties: []string{}},
		},
		{
			name: "empty record",
			raw:  models.RawRecord{},
			want: models.Advocate{Specialties: []string{}},
		},
		{
			name: "float years",
			raw:  models.RawRecord{"yearsOfExperience": 2.5},
			want: models.Advocate{Specialties: []string{}, YearsOfExperience: "2.5"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Normalize(tt.raw)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Normalize() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalizeSpecialtyShapes(t *testing.T) {
	t.Parallel()

	want := []string{"Oncology", "Pediatrics"}
	shapes := []models.RawRecord{
		{"specialties": []any{"Oncology", "Pediatrics"}},
		{"specialties": []string{"Pediatrics", "Oncology"}},
		{"specialties": `["Oncology","Pediatrics"]`},
		{"specialties": "Pediatrics,Oncology"},
		{"specialties": "Pediatrics | Oncology"},
		{"specialties": " Pediatrics ;; Oncology ; "},
		{"payload": []any{"Pediatrics", "Oncology"}},
		{"specialties": nil, "payload": []any{"Oncology", "Pediatrics"}},
	}
	for _, raw := range shapes {
		assert.Equal(t, want, Normalize(raw).Specialties, "raw=%v", raw)
	}
}

func TestNormalizeSpecialtyEdgeCases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   any
		want []string
	}{
		{name: "no delimiters", in: "  Grief counseling  ", want: []string{"Grief counseling"}},
		{name: "json scalar", in: "42", want: []string{"42"}},
		{name: "json string", in: `"Oncology"`, want: []string{"Oncology"}},
		{name: "json null", in: "null", want: []string{}},
		{name: "empty string", in: "", want: []string{}},
		{name: "only delimiters", in: ",|;", want: []string{}},
		{name: "blank entries dropped", in: []any{" ", "", "Sleep", nil}, want: []string{"Sleep"}},
		{name: "numbers stringified", in: []any{float64(3), "Art"}, want: []string{"3", "Art"}},
		{name: "number is not a list", in: 12, want: []string{}},
		{name: "case-insensitive order", in: []any{"banana", "Apple", "cherry"}, want: []string{"Apple", "banana", "cherry"}},
		{name: "case ties are deterministic", in: []any{"lgbtq", "LGBTQ"}, want: []string{"LGBTQ", "lgbtq"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Normalize(models.RawRecord{"specialties": tt.in}).Specialties)
		})
	}
}

func TestNormalizeKeepsZeroYears(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0", Normalize(models.RawRecord{"years_of_experience": 0}).YearsOfExperience)
	assert.Equal(t, "0", Normalize(models.RawRecord{"yearsOfExperience": json.Number("0")}).YearsOfExperience)
	assert.Equal(t, "", Normalize(models.RawRecord{}).YearsOfExperience)
	assert.Equal(t, "", Normalize(models.RawRecord{"yearsOfExperience": nil}).YearsOfExperience)
}

func TestNormalizeIsPure(t *testing.T) {
	t.Parallel()

	raw := models.RawRecord{
		"first_name":  "Sam",
		"specialties": []any{"b", "A", " c "},
		"years":       3,
	}
	first := Normalize(raw)
	second := Normalize(raw)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Normalize not deterministic (-first +second):\n%s", diff)
	}
	assert.Equal(t, []any{"b", "A", " c "}, raw["specialties"], "input must not be mutated")
}

func TestNormalizeCopiesStringSlices(t *testing.T) {
	t.Parallel()

	in := []string{"b", "a"}
	Normalize(models.RawRecord{"specialties": in})
	assert.Equal(t, []string{"b", "a"}, in)
}
