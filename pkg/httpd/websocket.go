package httpd

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/pulse-ui/pulse/pkg/dispatch"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// liveFrame is one request frame on the live channel. It carries the
// component name that the HTTP route encodes in its path.
type liveFrame struct {
	ComponentName string `json:"componentName"`
	wireRequest
}

// handleLive upgrades to a websocket and serves update requests as
// JSON text frames, one envelope (or queued ack, or error object)
// written back per frame, in order.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade", "error", err)
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure) {
				s.logger.Error("websocket read", "error", err)
			}
			return
		}

		var frame liveFrame
		if err := json.Unmarshal(msg, &frame); err != nil {
			s.logger.Error("websocket frame decode", "error", err)
			return
		}

		if err := s.serveFrame(conn, r, &frame); err != nil {
			s.logger.Error("websocket write", "error", err)
			return
		}
	}
}

func (s *Server) serveFrame(conn *websocket.Conn, r *http.Request, frame *liveFrame) error {
	raw, err := json.Marshal(frame.wireRequest)
	if err != nil {
		return err
	}
	req, err := decodeRequest(frame.ComponentName, raw)
	if err != nil {
		return conn.WriteJSON(map[string]string{"error": err.Error()})
	}

	result, err := s.coord.Submit(r.Context(), req)
	if err != nil {
		if msg, ok := dispatch.UserFacingMessage(err); ok {
			return conn.WriteJSON(map[string]string{"error": msg})
		}
		s.logger.Error("live request failed", "error", err)
		return conn.WriteJSON(map[string]string{"error": "internal error"})
	}

	if result.Ack != nil {
		return conn.WriteJSON(result.Ack)
	}
	return conn.WriteJSON(result.Envelope)
}
