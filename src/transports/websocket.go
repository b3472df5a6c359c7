package transports

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"stock-data-service/src/interfaces"
	"stock-data-service/src/logger"
	"stock-data-service/src/models"

	"github.com/gorilla/websocket"
)

// EndOfRequests is the text frame completing the inbound side. An empty text
// frame does the same.
const EndOfRequests = "EOF"

const defaultWriteTimeout = 10 * time.Second

var _ interfaces.ISessionTransport = (*WebSocketStream)(nil)

// -----------------------------------------------------------------------------

// WebSocketStream carries one streaming session over a server-side websocket.
// Text frames are stock identifiers (plain or {"stockId":"FB"}), samples go back
// as serialized text frames. A close frame from the peer cancels the session.
type WebSocketStream struct {
	name         string
	conn         *websocket.Conn
	serializer   interfaces.ISerializer
	logger       *logger.Logger
	writeTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex // serializes writes
	closed bool

	watchOnce sync.Once
}

// -----------------------------------------------------------------------------

// NewWebSocketStream wraps an upgraded connection. The stream context ends with
// ctx or when the peer goes away.
func NewWebSocketStream(ctx context.Context, conn *websocket.Conn, serializer interfaces.ISerializer, logger *logger.Logger, name string) *WebSocketStream {
	ctx, cancel := context.WithCancel(ctx)
	return &WebSocketStream{
		name:         name,
		conn:         conn,
		serializer:   serializer,
		logger:       logger,
		writeTimeout: defaultWriteTimeout,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// -----------------------------------------------------------------------------

// Context is cancelled once the peer closed or the connection failed.
func (w *WebSocketStream) Context() context.Context {
	return w.ctx
}

// -----------------------------------------------------------------------------

// GetName returns the stream name
func (w *WebSocketStream) GetName() string {
	return w.name
}

// GetType returns the transport type
func (w *WebSocketStream) GetType() string {
	return "websocket"
}

// -----------------------------------------------------------------------------

// Recv returns the next requested stock identifier, io.EOF once the peer sent
// the end-of-requests frame.
func (w *WebSocketStream) Recv() (string, error) {
	for {
		messageType, message, err := w.conn.ReadMessage()
		if err != nil {
			w.cancel()
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				w.logger.Info("%s : peer closed the websocket", w.name)
			} else {
				w.logger.Warning("%s : websocket read error: %v", w.name, err)
			}
			return "", fmt.Errorf("read message error: %w", err)
		}

		if messageType != websocket.TextMessage {
			continue
		}

		stockID, err := w.parseRequest(message)
		if err != nil {
			w.logger.Warning("%s : ignoring malformed request %q: %v", w.name, message, err)
			continue
		}
		if stockID == "" || stockID == EndOfRequests {
			w.watchOnce.Do(func() { go w.watchPeer() })
			return "", io.EOF
		}
		return stockID, nil
	}
}

// -----------------------------------------------------------------------------

// watchPeer keeps reading after the end-of-requests frame so control frames are
// still handled. Data frames are discarded, any read error cancels the stream.
func (w *WebSocketStream) watchPeer() {
	for {
		_, r, err := w.conn.NextReader()
		if err != nil {
			if w.ctx.Err() == nil {
				w.logger.Info("%s : peer went away after completing its requests: %v", w.name, err)
			}
			w.cancel()
			return
		}
		if _, err := io.Copy(io.Discard, r); err != nil {
			w.cancel()
			return
		}
	}
}

// -----------------------------------------------------------------------------

func (w *WebSocketStream) parseRequest(message []byte) (string, error) {
	text := strings.TrimSpace(string(message))
	if !strings.HasPrefix(text, "{") {
		return text, nil
	}

	var stock models.Stock
	if err := w.serializer.Unmarshal([]byte(text), &stock); err != nil {
		return "", err
	}
	return strings.TrimSpace(stock.StockId), nil
}

// -----------------------------------------------------------------------------

// Send writes one sample as a text frame.
func (w *WebSocketStream) Send(sample *models.StockPrice) error {
	data, err := w.serializer.Marshal(sample)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return errors.New("websocket already closed")
	}
	if err := w.conn.SetWriteDeadline(time.Now().Add(w.writeTimeout)); err != nil {
		return err
	}
	if err := w.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		w.cancel()
		return fmt.Errorf("failed to send sample: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

// Close sends a close frame with code and reason, then closes the connection.
func (w *WebSocketStream) Close(code int, reason string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	w.cancel()

	deadline := time.Now().Add(time.Second)
	if err := w.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline); err != nil &&
		!errors.Is(err, websocket.ErrCloseSent) {
		w.logger.Debug("%s : close frame not delivered: %v", w.name, err)
	}
	return w.conn.Close()
}
