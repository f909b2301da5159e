package advocate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"advocatehub/pkg/database"
	"advocatehub/pkg/models"
)

var ErrNoStore = errors.New("no store configured")

const selectColumns = `id, first_name, last_name, city, degree, specialties, years_of_experience, phone_number`

type Repo struct {
	DB *database.DB
}

func NewRepo(db *database.DB) *Repo {
	return &Repo{DB: db}
}

func (r *Repo) Ping(ctx context.Context) error {
	if r == nil || r.DB == nil {
		return ErrNoStore
	}
	return r.DB.PingContext(ctx)
}

// FetchRows returns store rows as raw records keyed by column name. Values
// are whatever the driver hands back ([]byte, string, int64, ...); the
// normalizer copes with all of them.
func (r *Repo) FetchRows(ctx context.Context, q RowQuery) ([]models.RawRecord, error) {
	if r == nil || r.DB == nil {
		return nil, ErrNoStore
	}
	sqlStr, args := r.buildListSQL(q, false)

	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("list columns: %w", err)
	}

	out := make([]models.RawRecord, 0, q.Limit)
	for rows.Next() {
		values := make([]any, len(columns))
		scanArgs := make([]any, len(columns))
		for i := range values {
			scanArgs[i] = &values[i]
		}
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, fmt.Errorf("list scan: %w", err)
		}

		row := make(models.RawRecord, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func (r *Repo) Count(ctx context.Context, q RowQuery) (int, error) {
	if r == nil || r.DB == nil {
		return 0, ErrNoStore
	}
	sqlStr, args := r.buildListSQL(q, true)
	var total int
	if err := r.DB.QueryRowContext(ctx, sqlStr, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count scan: %w", err)
	}
	return total, nil
}

// buildListSQL builds either COUNT(*) or the row SELECT. The term filter is a
// case-insensitive LIKE over every searchable column.
func (r *Repo) buildListSQL(q RowQuery, countOnly bool) (string, []any) {
	sqlStr := `SELECT ` + selectColumns + ` FROM advocates`
	if countOnly {
		sqlStr = `SELECT COUNT(*) FROM advocates`
	}

	var args []any
	if term := strings.TrimSpace(q.Term); term != "" {
		cols := []string{
			"first_name", "last_name", "city", "degree",
			r.DB.TextCast("specialties"),
			r.DB.TextCast("years_of_experience"),
			"phone_number",
		}
		like := "%" + widenFolds(escapeLike(strings.ToLower(term))) + "%"
		ors := make([]string, 0, len(cols))
		for _, c := range cols {
			ors = append(ors, "LOWER("+c+") LIKE ? ESCAPE '!'")
			args = append(args, like)
		}
		sqlStr += " WHERE (" + strings.Join(ors, " OR ") + ")"
	}

	if !countOnly {
		sqlStr += " ORDER BY last_name ASC, id ASC"
		if q.Limit > 0 {
			offset := q.Offset
			if offset < 0 {
				offset = 0
			}
			sqlStr += " LIMIT ? OFFSET ?"
			args = append(args, q.Limit, offset)
		}
	}

	return r.DB.Rebind(sqlStr), args
}

func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}

// widenFolds lets 'k' and 'i' match any single character. In-process
// matching lower-cases U+212A to 'k' and U+0130 to 'i', which LOWER() in
// the store does not, so the pattern must accept them.
func widenFolds(pattern string) string {
	return strings.NewReplacer("k", "_", "i", "_").Replace(pattern)
}

// Insert writes raw records into the store inside one transaction and
// returns how many rows were written. Field naming in the input may vary
// the same way it does for Normalize.
func (r *Repo) Insert(ctx context.Context, records []models.RawRecord) (int, error) {
	if r == nil || r.DB == nil {
		return 0, ErrNoStore
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, r.DB.Rebind(`
		INSERT INTO advocates (first_name, last_name, city, degree, specialties, years_of_experience, phone_number)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`))
	if err != nil {
		return 0, fmt.Errorf("prepare stmt: %w", err)
	}
	defer stmt.Close()

	n := 0
	for _, raw := range records {
		a := Normalize(raw)

		specialtiesJSON, err := marshalSpecialties(a.Specialties)
		if err != nil {
			return n, fmt.Errorf("marshal specialties for %s %s: %w", a.FirstName, a.LastName, err)
		}

		var years any
		if y, err := strconv.Atoi(strings.TrimSpace(a.YearsOfExperience)); err == nil {
			years = y
		}

		if _, err := stmt.ExecContext(ctx,
			a.FirstName,
			a.LastName,
			a.City,
			a.Degree,
			specialtiesJSON,
			years,
			a.PhoneNumber,
		); err != nil {
			return n, fmt.Errorf("exec insert for %s %s: %w", a.FirstName, a.LastName, err)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return n, nil
}

// marshalSpecialties keeps characters like '&' literal so the LIKE
// pre-filter sees the same text a reader does.
func marshalSpecialties(specs []string) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(specs); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}
