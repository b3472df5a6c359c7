package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"stock-data-service/src/auth"
	"stock-data-service/src/models"
	"stock-data-service/src/serializers"
	"stock-data-service/src/transports"
	"stock-data-service/src/utils"

	"github.com/gorilla/websocket"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const handshakeTimeout = 10 * time.Second

// -----------------------------------------------------------------------------

// GatewayStream runs one fan-in session over the websocket gateway at wsURL:
// stockIDs are sent spaced by gap, followed by the end-of-requests frame, and
// every sample is delivered to onSample until the server closes the session.
// A rejected handshake is handled like an unauthenticated call.
func (c *StockClient) GatewayStream(ctx context.Context, wsURL string, stockIDs []string, gap time.Duration, onSample func(*models.StockPrice)) error {
	return c.Invoke(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		token, _ := c.Token()
		header := http.Header{}
		if token != "" {
			header.Set(auth.AuthorizationHeader, "Bearer "+token)
		}

		dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
		conn, resp, err := dialer.DialContext(ctx, wsURL, header)
		if err != nil {
			if resp != nil && resp.StatusCode == http.StatusUnauthorized {
				return status.Error(codes.Unauthenticated, "unauthenticated")
			}
			return fmt.Errorf("failed to connect to %s: %w", wsURL, err)
		}
		defer conn.Close()

		c.logger.Info("%s : websocket connected to %s", c.Name, wsURL)

		// Unblock ReadMessage on cancellation.
		stop := context.AfterFunc(ctx, func() { conn.Close() })
		defer stop()

		writerDone := make(chan struct{})
		defer func() {
			cancel()
			<-writerDone
		}()
		go func() {
			defer close(writerDone)
			for i, id := range stockIDs {
				if i > 0 && !utils.SleepContext(ctx, gap) {
					return
				}
				if err := conn.WriteMessage(websocket.TextMessage, []byte(id)); err != nil {
					return
				}
			}
			_ = conn.WriteMessage(websocket.TextMessage, []byte(transports.EndOfRequests))
		}()

		serializer := serializers.NewJSONSerializer()
		for {
			messageType, message, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() != nil {
					return status.FromContextError(ctx.Err()).Err()
				}
				var closeErr *websocket.CloseError
				if errors.As(err, &closeErr) && closeErr.Code == websocket.CloseNormalClosure {
					return nil
				}
				return fmt.Errorf("read message error: %w", err)
			}
			if messageType != websocket.TextMessage {
				continue
			}

			var sample models.StockPrice
			if err := serializer.Unmarshal(message, &sample); err != nil {
				c.logger.Warning("%s : ignoring malformed sample: %v", c.Name, err)
				continue
			}
			if onSample != nil {
				onSample(&sample)
			}
		}
	})
}
