package advocate

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"advocatehub/pkg/models"
)

// Seeder writes raw records into the store.
type Seeder interface {
	Insert(ctx context.Context, records []models.RawRecord) (int, error)
}

type Handler struct {
	Service *Service
	Seeder  Seeder
	Seed    []models.RawRecord
	Logger  *zap.Logger

	// OnSeed, when set, runs after a successful seed.
	OnSeed func(inserted int)
}

func NewHandler(svc *Service, seeder Seeder, seed []models.RawRecord, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Service: svc, Seeder: seeder, Seed: seed, Logger: logger}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.list) // GET /advocates
}

// RegisterAdminRoutes mounts store maintenance routes; rg is expected to
// carry auth middleware.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/seed", h.seed) // POST /advocates/seed
}

func (h *Handler) list(c *gin.Context) {
	q := Query{
		Q:      c.Query("q"),
		Limit:  ClampLimit(c.Query("limit")),
		Offset: ClampOffset(c.Query("offset")),
	}

	page, err := h.Service.Search(c.Request.Context(), q)
	if err != nil {
		// only a cancelled request gets here; nobody is left to read a body
		h.Logger.Debug("search abandoned", zap.String("q", q.Q), zap.Error(err))
		c.Status(http.StatusNoContent)
		return
	}

	h.Logger.Debug("search served",
		zap.String("q", q.Q),
		zap.Int("total", page.Total),
		zap.String("source", page.Source))
	c.JSON(http.StatusOK, page)
}

func (h *Handler) seed(c *gin.Context) {
	if h.Seeder == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database not configured"})
		return
	}

	n, err := h.Seeder.Insert(c.Request.Context(), h.Seed)
	if err != nil {
		if errors.Is(err, ErrNoStore) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database not configured"})
			return
		}
		h.Logger.Error("seed failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "seed failed"})
		return
	}

	h.Logger.Info("store seeded", zap.Int("inserted", n))
	if h.OnSeed != nil {
		h.OnSeed(n)
	}
	c.JSON(http.StatusOK, gin.H{"inserted": n})
}
