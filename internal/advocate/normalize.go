package advocate

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"advocatehub/pkg/models"
)

// Naming variants per canonical field, in lookup order.
var (
	firstNameKeys = []string{"firstName", "first_name"}
	lastNameKeys  = []string{"lastName", "last_name"}
	cityKeys      = []string{"city"}
	degreeKeys    = []string{"degree"}
	yearsKeys     = []string{"yearsOfExperience", "years_of_experience", "years"}
	phoneKeys     = []string{"phoneNumber", "phone_number", "phone"}
)

// Normalize maps one raw row into an Advocate. It never fails: anything
// missing or malformed becomes "" or an empty list.
func Normalize(raw models.RawRecord) models.Advocate {
	a := models.Advocate{
		FirstName:   stringField(raw, firstNameKeys...),
		LastName:    stringField(raw, lastNameKeys...),
		City:        stringField(raw, cityKeys...),
		Degree:      stringField(raw, degreeKeys...),
		Specialties: parseSpecialties(raw),
		// presence, not truthiness: a 0 years value must survive as "0"
		YearsOfExperience: stringField(raw, yearsKeys...),
		PhoneNumber:       stringField(raw, phoneKeys...),
	}
	if v, ok := lookup(raw, "id"); ok {
		a.ID = stringify(v)
	}
	return a
}

// lookup returns the first present, non-nil value among keys.
func lookup(raw models.RawRecord, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func stringField(raw models.RawRecord, keys ...string) string {
	v, ok := lookup(raw, keys...)
	if !ok {
		return ""
	}
	return stringify(v)
}

// stringify renders scalar values the way they read in a table cell.
func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func parseSpecialties(raw models.RawRecord) []string {
	var out []string

	spec := raw["specialties"]
	if list, ok := asList(spec); ok {
		out = list
	} else if list, ok := asList(raw["payload"]); ok {
		out = list
	} else if s, ok := asText(spec); ok {
		out = parseSpecialtyString(s)
	}

	return cleanSpecialties(out)
}

// asList reports whether v is a sequence and stringifies its elements.
func asList(v any) ([]string, bool) {
	switch x := v.(type) {
	case []string:
		return append([]string(nil), x...), true
	case []any:
		out := make([]string, 0, len(x))
		for _, e := range x {
			out = append(out, stringify(e))
		}
		return out, true
	default:
		return nil, false
	}
}

func asText(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case []byte:
		return string(x), true
	default:
		return "", false
	}
}

// parseSpecialtyString accepts a JSON array, a JSON scalar or a list
// delimited by any mix of ',', '|' and ';'.
func parseSpecialtyString(s string) []string {
	var parsed any
	if err := json.Unmarshal([]byte(s), &parsed); err == nil {
		if list, ok := asList(parsed); ok {
			return list
		}
		return []string{stringify(parsed)}
	}

	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '|' || r == ';'
	})
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func cleanSpecialties(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}

	c := newCollator()
	sort.SliceStable(out, func(i, j int) bool {
		if n := c.CompareString(out[i], out[j]); n != 0 {
			return n < 0
		}
		return out[i] < out[j]
	})
	return out
}
