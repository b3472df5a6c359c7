package rest

import (
	"errors"
	"net/http"

	"stock-data-service/src/auth"
	"stock-data-service/src/interfaces"
	"stock-data-service/src/logger"
	"stock-data-service/src/streaming"
	"stock-data-service/src/transports"

	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------

// Gateway drives the fan-in engine over a websocket (/ws/prices).
type Gateway struct {
	Name       string
	engine     *streaming.Engine
	gate       *auth.Gate
	serializer interfaces.ISerializer
	upgrader   websocket.Upgrader
	logger     *logger.Logger
}

// -----------------------------------------------------------------------------

func NewGateway(engine *streaming.Engine, gate *auth.Gate, serializer interfaces.ISerializer, logger *logger.Logger) *Gateway {
	return &Gateway{
		Name:       "WebSocketGateway",
		engine:     engine,
		gate:       gate,
		serializer: serializer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger,
	}
}

// -----------------------------------------------------------------------------

// ServeHTTP authorizes the request, upgrades it and runs one session.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	clientID, err := g.gate.AuthorizeRequest(r)
	if err != nil {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warning("%s : websocket upgrade failed for '%s': %v", g.Name, clientID, err)
		return
	}

	var stream interfaces.ISessionTransport = transports.NewWebSocketStream(r.Context(), conn, g.serializer, g.logger, g.Name+"/"+clientID)
	g.logger.Info("%s : websocket session opened for '%s' from %s", g.Name, clientID, r.RemoteAddr)

	_, err = g.engine.Serve(stream.Context(), clientID, stream, stream)
	switch {
	case errors.Is(err, streaming.ErrResponseStream):
		g.logger.Warning("%s : websocket session for '%s' ended: %v", g.Name, clientID, err)
		_ = stream.Close(websocket.CloseGoingAway, "response stream unavailable")
	case err != nil:
		_ = stream.Close(websocket.CloseInternalServerErr, "internal error")
	default:
		_ = stream.Close(websocket.CloseNormalClosure, "complete")
	}
}
