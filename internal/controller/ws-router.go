package controller

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"

	"github.com/watchparty/server/pkg/wsrouter"
)

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

func (c *controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()

	mux.Handle("ALIVE", handleInput(c, c.handleAlive))

	// playback
	mux.Handle("PUBLISH_EVENT", handleInput(c, c.handlePublishEvent))
	mux.Handle("UPDATE_TIME", handleInput(c, c.handleUpdateTime))

	// video selection (moderator only)
	mux.Handle("CHANGE_VIDEO", handleInput(c, c.handleChangeVideo))
	mux.Handle("CLEAR_VIDEO", handleInput(c, c.handleClearVideo))

	// session surface
	mux.Handle("UPDATE_SCREEN", handleInput(c, c.handleUpdateScreen))

	return mux
}

// handleInput decodes and validates the payload before dispatching to the
// typed handler.
func handleInput[T any](c *controller, handler func(ctx context.Context, conn *websocket.Conn, input T) error) wsrouter.HandlerFunc {
	return func(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
		var input T
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &input); err != nil {
				return fmt.Errorf("invalid payload: %w", err)
			}
		}

		if validationErrors, ok := c.validate.Validate(input); !ok {
			return fmt.Errorf("validation failed: %v", validationErrors)
		}

		return handler(ctx, conn, input)
	}
}

func (c *controller) broadcast(conns []*websocket.Conn, output *Output) error {
	for _, conn := range conns {
		if err := conn.WriteJSON(output); err != nil {
			return fmt.Errorf("failed to write json: %w", err)
		}
	}

	return nil
}
