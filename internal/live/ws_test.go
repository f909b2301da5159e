package live

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"advocatehub/internal/advocate"
	"advocatehub/pkg/models"
)

// blockingSearcher holds queries named "slow" until their context ends.
type blockingSearcher struct {
	mu        sync.Mutex
	cancelled []string
	started   chan string
}

func (b *blockingSearcher) Search(ctx context.Context, q advocate.Query) (models.Page, error) {
	if b.started != nil {
		b.started <- q.Q
	}
	if q.Q == "slow" {
		<-ctx.Done()
		b.mu.Lock()
		b.cancelled = append(b.cancelled, q.Q)
		b.mu.Unlock()
		return models.Page{}, ctx.Err()
	}
	return models.Page{
		Data:  []models.Advocate{{ID: "1", LastName: q.Q}},
		Total: 1,
	}, nil
}

func startServer(t *testing.T, hub *Hub, svc Searcher) *websocket.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/advocates/live", WSHandler(hub, svc, nil))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/advocates/live"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })

	var welcome Message
	require.NoError(t, ws.ReadJSON(&welcome))
	require.Equal(t, TypeWelcome, welcome.Type)
	return ws
}

func readMessage(t *testing.T, ws *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(3*time.Second)))
	var m Message
	require.NoError(t, ws.ReadJSON(&m))
	return m
}

func TestLiveSearchResults(t *testing.T) {
	ws := startServer(t, NewHub(), &blockingSearcher{})

	require.NoError(t, ws.WriteJSON(Request{Seq: 1, Q: "lee"}))
	m := readMessage(t, ws)
	assert.Equal(t, TypeResults, m.Type)
	assert.Equal(t, int64(1), m.Seq)
	assert.Equal(t, 1, m.Total)
	require.Len(t, m.Data, 1)
	assert.Equal(t, "lee", m.Data[0].LastName)
}

func TestLiveNewQueryCancelsPrevious(t *testing.T) {
	svc := &blockingSearcher{started: make(chan string, 4)}
	ws := startServer(t, NewHub(), svc)

	require.NoError(t, ws.WriteJSON(Request{Seq: 1, Q: "slow"}))
	assert.Equal(t, "slow", <-svc.started)

	require.NoError(t, ws.WriteJSON(Request{Seq: 2, Q: "fast"}))
	m := readMessage(t, ws)
	assert.Equal(t, int64(2), m.Seq, "only the newest query is answered")
	assert.Equal(t, "fast", m.Data[0].LastName)

	assert.Eventually(t, func() bool {
		svc.mu.Lock()
		defer svc.mu.Unlock()
		return len(svc.cancelled) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestLiveIgnoresStaleSeq(t *testing.T) {
	ws := startServer(t, NewHub(), &blockingSearcher{})

	require.NoError(t, ws.WriteJSON(Request{Seq: 5, Q: "new"}))
	require.NoError(t, ws.WriteJSON(Request{Seq: 3, Q: "old"}))
	require.NoError(t, ws.WriteJSON(Request{Seq: 6, Q: "newer"}))

	// seq 5 may or may not be answered depending on timing; 3 never is
	for {
		m := readMessage(t, ws)
		require.NotEqual(t, int64(3), m.Seq)
		if m.Seq == 6 {
			break
		}
	}
}

func TestHubStatsAndReload(t *testing.T) {
	hub := NewHub()
	ws := startServer(t, hub, &blockingSearcher{})

	assert.Eventually(t, func() bool { return hub.Stats().WSClients == 1 }, time.Second, 10*time.Millisecond)

	hub.NotifyReload(17)
	m := readMessage(t, ws)
	assert.Equal(t, TypeReload, m.Type)
	assert.Equal(t, 17, m.Total)

	require.NoError(t, ws.Close())
	assert.Eventually(t, func() bool { return hub.Stats().WSClients == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestSupersedeBlocksOlderWrites(t *testing.T) {
	s := &session{conn: &conn{}}

	require.True(t, s.supersede(2))
	assert.False(t, s.supersede(2))
	assert.False(t, s.supersede(1))

	// the check runs under the write lock, so a stale result never reaches
	// the socket (which is nil here and would panic if touched)
	written, err := s.conn.writeJSONIf(func() bool { return s.latest.Load() == 1 }, Message{Type: TypeResults, Seq: 1})
	require.NoError(t, err)
	assert.False(t, written)
}

func TestSessionStopCancelsInFlight(t *testing.T) {
	s := &session{}
	s.stop() // nothing in flight

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.stop()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.Nil(t, s.cancel)
}
