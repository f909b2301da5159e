package client

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"

	"advocatehub/pkg/models"
)

// liveMessage mirrors the server's live-search frames.
type liveMessage struct {
	Type  string            `json:"type"`
	Seq   int64             `json:"seq,omitempty"`
	Data  []models.Advocate `json:"data,omitempty"`
	Total int               `json:"total"`
	Error string            `json:"error,omitempty"`
}

type liveRequest struct {
	Seq    int64  `json:"seq"`
	Q      string `json:"q"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// LiveConn is a live-search websocket session.
type LiveConn struct {
	ws *websocket.Conn

	mu      sync.Mutex
	seq     int64
	lastQ   string
	limit   int
	offsetN int
}

// DialLive opens /advocates/live on the server at baseURL.
func DialLive(ctx context.Context, baseURL string) (*LiveConn, error) {
	endpoint, err := websocketURL(baseURL, "/advocates/live")
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}

	var welcome liveMessage
	if err := ws.ReadJSON(&welcome); err != nil {
		_ = ws.Close()
		return nil, fmt.Errorf("read welcome: %w", err)
	}
	return &LiveConn{ws: ws}, nil
}

// Send issues q, superseding every earlier query on this connection.
func (l *LiveConn) Send(q string, limit, offset int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	l.lastQ, l.limit, l.offsetN = q, limit, offset
	return l.ws.WriteJSON(liveRequest{Seq: l.seq, Q: q, Limit: limit, Offset: offset})
}

// Next blocks until an answer to the latest query arrives. Answers to
// superseded queries are discarded. A reload notice re-sends the latest
// query and keeps waiting.
func (l *LiveConn) Next() (Result, error) {
	for {
		var m liveMessage
		if err := l.ws.ReadJSON(&m); err != nil {
			return Result{}, err
		}

		switch m.Type {
		case "reload":
			l.mu.Lock()
			q, limit, offset := l.lastQ, l.limit, l.offsetN
			sent := l.seq > 0
			l.mu.Unlock()
			if sent {
				if err := l.Send(q, limit, offset); err != nil {
					return Result{}, err
				}
			}
			continue
		case "results", "error":
		default:
			continue
		}

		l.mu.Lock()
		current, q := l.seq, l.lastQ
		l.mu.Unlock()
		if m.Seq != current {
			continue
		}

		if m.Type == "error" {
			return Result{Seq: uint64(m.Seq), Query: q, Page: models.Page{Data: []models.Advocate{}}, Err: ErrLoadFailed}, nil
		}
		data := m.Data
		if data == nil {
			data = []models.Advocate{}
		}
		return Result{Seq: uint64(m.Seq), Query: q, Page: models.Page{Data: data, Total: m.Total}}, nil
	}
}

func (l *LiveConn) Close() error {
	return l.ws.Close()
}

func websocketURL(baseURL, path string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	return (&url.URL{
		Scheme: scheme,
		Host:   u.Host,
		Path:   path,
	}).String(), nil
}
