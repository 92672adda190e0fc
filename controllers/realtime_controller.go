package controllers

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"medicare/guard"
	"medicare/middlewares"
	"medicare/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type RealtimeController struct {
	RT               *services.RealtimeHub
	Auth             *services.AuthService
	Storage          services.ClientStorage
	IdleTimeout      time.Duration
	NewAccountWindow time.Duration
	Logger           *slog.Logger
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true }, // tighten behind ALB/CloudFront if needed
}

// clientMessage is what the browser sends over the session channel.
type clientMessage struct {
	Type  string `json:"type"`  // activity | navigate
	Event string `json:"event"` // activity event name
	Path  string `json:"path"`  // current pathname
}

// wsOutput forwards guard instructions to the socket.
type wsOutput struct{ cl *services.WSClient }

func (o wsOutput) Redirect(to string) {
	_ = o.cl.Send(gin.H{"kind": "redirect", "to": to})
}

func (o wsOutput) Alert(msg string) {
	_ = o.cl.Send(gin.H{"kind": "alert", "message": msg})
}

// touchInterval bounds how often activity on the channel is written back to
// the stored session.
const touchInterval = time.Minute

// SessionLive runs the session guard for one browser tab.
func (rc *RealtimeController) SessionLive(c *gin.Context) {
	uid := middlewares.UserID(c)
	sid := middlewares.SessionID(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	cl := &services.WSClient{UserID: uid, SessionID: sid, Conn: conn}
	rc.RT.Register(cl)
	middlewares.LiveSessions.Inc()

	g := guard.New(rc.Auth, rc.Storage, wsOutput{cl}, guard.Config{
		SessionID:        sid,
		IdleTimeout:      rc.IdleTimeout,
		NewAccountWindow: rc.NewAccountWindow,
		Logger:           rc.Logger,
	})

	unsubscribe := rc.Auth.Subscribe(func(change services.AuthChange) {
		if change.SessionID != sid {
			return
		}
		_ = cl.Send(gin.H{"kind": "auth", "event": change.Event, "reason": change.Reason})
		g.HandleAuthChange(context.Background(), change)
	})

	done := make(chan struct{})
	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			close(done)
			unsubscribe()
			g.Close()
			rc.RT.Unregister(cl)
			middlewares.LiveSessions.Dec()
		})
	}
	defer cleanup()

	g.Mount(c.Request.Context())

	go func() {
		t := time.NewTicker(25 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
				if err := cl.Ping(); err != nil {
					cleanup()
					return
				}
			}
		}
	}()

	var lastTouch time.Time
	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		switch msg.Type {
		case "activity":
			if g.Activity(msg.Event) && time.Since(lastTouch) >= touchInterval {
				lastTouch = time.Now()
				if err := rc.Auth.Touch(context.Background(), sid); err != nil {
					rc.Logger.Debug("touch session", slog.Any("error", err))
				}
			}
		case "navigate":
			g.Navigate(msg.Path)
		}
	}
}
