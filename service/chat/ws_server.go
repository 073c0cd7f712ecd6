package chat

import (
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/pulsechat/gateway/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HandleWS upgrades the request and runs the connection's read loop.
// One goroutine reads, the conn's writer goroutine writes; the loop is
// sequential relative to itself and unordered relative to other
// connections.
func (s *Server) HandleWS(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("[WS] upgrade error: %v", err)
		return
	}

	conn := NewConn(uuid.NewString(), ws, s.sendQueueSize)
	logger.Infof("[WS] accept conn=%s remote=%v", conn.ID, ws.RemoteAddr())

	s.ReadLoop(conn, ws)
}

// ReadLoop consumes inbound frames until the transport fails, then
// runs the close transition. Malformed frames are logged and dropped
// at this boundary; they never crash the loop.
func (s *Server) ReadLoop(conn *Conn, ws *websocket.Conn) {
	defer s.CloseConn(conn)

	for {
		mt, data, rerr := ws.ReadMessage()
		if rerr != nil {
			if websocket.IsCloseError(rerr,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Infof("[WS] peer closed conn=%s err=%v", conn.ID, rerr)
			} else if ne, ok := rerr.(net.Error); ok && ne.Timeout() {
				logger.Infof("[WS] read timeout conn=%s err=%v", conn.ID, rerr)
			} else {
				logger.Infof("[WS] read err conn=%s err=%v", conn.ID, rerr)
			}
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		env, perr := ParseEnvelope(data)
		if perr != nil {
			sample := data
			if len(sample) > 256 {
				sample = sample[:256]
			}
			logger.Infof("[WS] bad envelope conn=%s err=%v sample=%q", conn.ID, perr, sample)
			continue
		}

		if err := s.disp.Dispatch(&Context{S: s}, env, conn); err != nil {
			logger.Infof("[WS] handler err conn=%s type=%s err=%v", conn.ID, env.Type, err)
		}
	}
}
