package advocate

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"advocatehub/pkg/models"
)

// Where a page's rows came from.
const (
	SourceStore    = "store"
	SourceFallback = "fallback"
)

// RowQuery narrows a row fetch. An empty Term fetches every row; a zero
// Limit means no limit.
type RowQuery struct {
	Term   string
	Limit  int
	Offset int
}

// RowSource is the store side of a search. Term filtering there is only a
// coarse pre-filter: Search decides what actually matches.
type RowSource interface {
	FetchRows(ctx context.Context, q RowQuery) ([]models.RawRecord, error)
}

// Query is one directory search request, already clamped by the caller.
type Query struct {
	Q      string
	Limit  int
	Offset int
}

type Service struct {
	Source   RowSource
	Fallback []models.RawRecord
	Logger   *zap.Logger

	newID func() (uuid.UUID, error)
}

// NewService wires a search service. source may be nil, in which case every
// search is served from fallback.
func NewService(source RowSource, fallback []models.RawRecord, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		Source:   source,
		Fallback: fallback,
		Logger:   logger,
		newID:    uuid.NewRandom,
	}
}

// Search runs normalize, dedupe, id assignment, filter/rank and paging over
// rows from the store. If the store fails the same pipeline runs over the
// fallback dataset, so callers always get a page.
func (s *Service) Search(ctx context.Context, q Query) (models.Page, error) {
	rows, source, err := s.rows(ctx, q.Q)
	if err != nil {
		return models.Page{}, err
	}

	records := make([]models.Advocate, 0, len(rows))
	for _, r := range rows {
		records = append(records, Normalize(r))
	}
	records = s.assignIDs(Dedupe(records))

	if err := ctx.Err(); err != nil {
		return models.Page{}, err
	}

	data, total := Search(records, q.Q, q.Limit, q.Offset)
	return models.Page{Data: data, Total: total, Source: source}, nil
}

func (s *Service) rows(ctx context.Context, term string) ([]models.RawRecord, string, error) {
	if s.Source == nil {
		return s.Fallback, SourceFallback, nil
	}

	rows, err := s.Source.FetchRows(ctx, RowQuery{Term: prefilterTerm(term)})
	if err == nil {
		return rows, SourceStore, nil
	}

	// a caller that went away is not a store outage
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return nil, "", ctxErr
	}

	s.Logger.Warn("store unavailable, serving fallback dataset",
		zap.String("q", term),
		zap.Error(err))
	return s.Fallback, SourceFallback, nil
}

// prefilterTerm returns the term to hand the store, or "" for a bulk fetch.
// The store compares lower-cased column text with LIKE, which only folds
// ASCII and sees specialties as stored JSON, so a term is passed on only
// when every in-process match is certain to contain it too: ASCII without
// control bytes, quotes, backslashes or commas (the joiner spans entries).
func prefilterTerm(term string) string {
	t := strings.TrimSpace(term)
	for i := 0; i < len(t); i++ {
		c := t[i]
		if c < 0x20 || c >= 0x7f || c == ',' || c == '"' || c == '\\' {
			return ""
		}
	}
	return t
}

// assignIDs gives id-less records a random id, or phone-lastName if no
// random id can be produced.
func (s *Service) assignIDs(records []models.Advocate) []models.Advocate {
	for i := range records {
		if records[i].ID != "" {
			continue
		}
		if id, err := s.newID(); err == nil {
			records[i].ID = id.String()
		} else {
			records[i].ID = records[i].PhoneNumber + "-" + records[i].LastName
		}
	}
	return records
}
