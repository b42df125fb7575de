package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/surveychain/internal/auth"
	"github.com/stemsi/surveychain/internal/middleware"
	"github.com/stemsi/surveychain/internal/response"
	"github.com/stemsi/surveychain/internal/service"
	ws "github.com/stemsi/surveychain/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams editor notifications for a form.
type WSHandler struct {
	formService   *service.FormService
	editorService *service.EditorService
	notifications *service.NotificationService
	log           zerolog.Logger
	upgrader      websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(
	formService *service.FormService,
	editorService *service.EditorService,
	notifications *service.NotificationService,
	log zerolog.Logger,
	allowedOrigins []string,
) *WSHandler {
	return &WSHandler{
		formService:   formService,
		editorService: editorService,
		notifications: notifications,
		log:           log.With().Str("component", "ws_handler").Logger(),
		upgrader:      buildUpgrader(allowedOrigins),
	}
}

// connWriter serializes writes from the relay loop and the action loop.
type connWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *connWriter) typed(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return ws.WriteTyped(w.conn, v)
}

func (w *connWriter) raw(payload []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return ws.WriteRaw(w.conn, payload)
}

func (w *connWriter) ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return ws.WritePing(w.conn)
}

func (w *connWriter) fail(msg string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return ws.WriteError(w.conn, msg)
}

// FormEvents godoc
// WS /ws/v1/forms/:id/events?token=
// Relays sync and publish notifications of the form to its creator. The
// client may send {"action":"flush"|"resync"|"ping"}.
func (h *WSHandler) FormEvents(c *gin.Context) {
	session := middleware.GetSession(c)
	if session == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	if !h.notifications.Enabled() {
		response.Fail(c, http.StatusServiceUnavailable, response.ErrUpstream)
		return
	}

	formID := c.Param("id")
	if _, err := h.formService.RequireCreator(c.Request.Context(), session, formID); err != nil {
		failWith(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	wsLog := h.log.With().
		Str("form_id", formID).
		Str("principal", session.Principal.String()).
		Logger()

	pubsub := h.notifications.Subscribe(ctx, formID)
	defer pubsub.Close()
	ch := pubsub.Channel()

	w := &connWriter{conn: conn}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(ws.PongWait))
	})

	go func() {
		defer cancel()
		h.readActions(ctx, conn, w, wsLog, session, formID)
	}()

	wsLog.Info().Msg("Editor attached to form events")

	pingTicker := time.NewTicker(ws.PingPeriod)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			wsLog.Info().Msg("Editor detached from form events")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := w.raw([]byte(msg.Payload)); err != nil {
				wsLog.Debug().Err(err).Msg("Relay write failed")
				return
			}
		case <-pingTicker.C:
			if err := w.ping(); err != nil {
				return
			}
		}
	}
}

// readActions handles client actions until the connection closes.
func (h *WSHandler) readActions(ctx context.Context, conn *websocket.Conn, w *connWriter, wsLog zerolog.Logger, session *auth.Session, formID string) {
	for {
		var raw json.RawMessage
		if err := ws.ReadJSON(conn, &raw); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		var env ws.RequestEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			w.fail("invalid message")
			continue
		}

		switch env.Action {
		case ws.ActionPing:
			w.typed(ws.PongResponse{Event: ws.EventPong})
		case ws.ActionFlush:
			es, err := h.editorService.Get(session, formID)
			if err != nil {
				w.fail(err.Error())
				continue
			}
			// the outcome arrives as a synced or sync_failed event
			_ = es.Flush(ctx)
		case ws.ActionResync:
			if _, err := h.editorService.Resync(ctx, session, formID); err != nil {
				w.fail(err.Error())
			}
		default:
			wsLog.Warn().Str("action", string(env.Action)).Msg("Unknown action")
			w.fail("unknown action: " + string(env.Action))
		}
	}
}
