package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"entitlement/internal/domain"
	"entitlement/internal/middleware"
)

const (
	watchWriteTimeout = 10 * time.Second
	watchPingInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Access is enforced by the bearer token, not the origin.
	CheckOrigin: func(*http.Request) bool { return true },
}

type watchMessage struct {
	Type         string               `json:"type"`
	Subscription *subscriptionPayload `json:"subscription"`
}

// WatchActive streams the account's active-subscription view over a
// WebSocket: the current record on connect, then every change pushed by the
// store. The feed watch is released when the connection ends, so listeners
// never leak across account switches.
func (a *App) WatchActive(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.AccountIDFromContext(r.Context())
	if accountID == "" {
		a.error(w, r, domain.ErrNotAuthenticated)
		return
	}

	current, err := a.Subs.GetActiveByAccount(r.Context(), accountID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		a.error(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("watch: upgrade failed")
		return
	}
	defer conn.Close()

	watch := a.Feed.Watch(accountID)
	defer watch.Close()

	if !a.writeWatchMessage(conn, current) {
		return
	}

	// reader goroutine exists solely to notice the client going away
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(watchPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-clientGone:
			return
		case sub, ok := <-watch.Updates():
			if !ok {
				return
			}
			if !a.writeWatchMessage(conn, sub) {
				return
			}
		case <-ping.C:
			deadline := time.Now().Add(watchWriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

func (a *App) writeWatchMessage(conn *websocket.Conn, sub *domain.Subscription) bool {
	_ = conn.SetWriteDeadline(time.Now().Add(watchWriteTimeout))
	msg := watchMessage{Type: "subscription", Subscription: toSubscriptionPayload(sub)}
	if err := conn.WriteJSON(msg); err != nil {
		a.Logger.Debug().Err(err).Msg("watch: write failed")
		return false
	}
	return true
}
