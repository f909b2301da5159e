package live

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"advocatehub/internal/advocate"
	"advocatehub/pkg/models"
)

// Message types.
const (
	TypeWelcome = "welcome"
	TypeResults = "results"
	TypeError   = "error"
	TypeReload  = "reload"
)

// Request is a client query. Seq must increase with every query the client
// sends; replies carry it back.
type Request struct {
	Seq    int64  `json:"seq"`
	Q      string `json:"q"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

type Message struct {
	Type      string            `json:"type"`
	Seq       int64             `json:"seq,omitempty"`
	Data      []models.Advocate `json:"data,omitempty"`
	Total     int               `json:"total"`
	Error     string            `json:"error,omitempty"`
	Transport string            `json:"transport,omitempty"`
}

// Searcher is the part of advocate.Service the live endpoint needs.
type Searcher interface {
	Search(ctx context.Context, q advocate.Query) (models.Page, error)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler serves live search. Each new query cancels the one still in
// flight on the same connection, and a result is only written if no newer
// query arrived while it was computed.
func WSHandler(hub *Hub, svc Searcher, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}

		cn := &conn{ws: ws}
		hub.add(cn)
		logger.Debug("live client connected", zap.String("remote", c.ClientIP()))

		_ = cn.writeJSON(Message{Type: TypeWelcome, Transport: "websocket"})

		s := &session{conn: cn, svc: svc, logger: logger}
		s.readLoop(c.Request.Context())

		hub.remove(cn)
		logger.Debug("live client disconnected", zap.String("remote", c.ClientIP()))
	}
}

type session struct {
	conn   *conn
	svc    Searcher
	logger *zap.Logger

	latest atomic.Int64
	wg     sync.WaitGroup
	// cancel ends the search in flight, if any
	cancel context.CancelFunc
}

func (s *session) readLoop(parent context.Context) {
	defer func() {
		s.stop()
		s.wg.Wait()
	}()

	for {
		var req Request
		if err := s.conn.ws.ReadJSON(&req); err != nil {
			return
		}
		if !s.supersede(req.Seq) {
			// out of order or replayed; an answer to a newer query is coming
			continue
		}

		s.stop()
		ctx, cancel := context.WithCancel(parent)
		s.cancel = cancel

		s.wg.Add(1)
		go s.run(ctx, req)
	}
}

// supersede makes seq the latest query. It takes the write lock so that no
// result for an older query can be written once it returns.
func (s *session) supersede(seq int64) bool {
	s.conn.writeMu.Lock()
	defer s.conn.writeMu.Unlock()
	if seq <= s.latest.Load() {
		return false
	}
	s.latest.Store(seq)
	return true
}

// stop cancels the search in flight. Only readLoop calls it.
func (s *session) stop() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *session) run(ctx context.Context, req Request) {
	defer s.wg.Done()

	limit := req.Limit
	if limit == 0 {
		limit = advocate.DefaultLimit
	}
	page, err := s.svc.Search(ctx, advocate.Query{Q: req.Q, Limit: limit, Offset: req.Offset})
	current := func() bool { return req.Seq == s.latest.Load() }

	var msg Message
	switch {
	case err == nil:
		msg = Message{Type: TypeResults, Seq: req.Seq, Data: page.Data, Total: page.Total}
	case ctx.Err() != nil:
		return
	default:
		msg = Message{Type: TypeError, Seq: req.Seq, Error: "failed to load advocates"}
	}

	written, err := s.conn.writeJSONIf(current, msg)
	if err != nil {
		s.logger.Debug("live write failed", zap.Error(err))
		return
	}
	if !written {
		s.logger.Debug("dropping superseded live result", zap.Int64("seq", req.Seq))
	}
}
