package websocketServer

import (
	"github.com/google/uuid"
	"net/http"
)

// WebsocketServer pushes session updates to the browsers holding that session's cookie.
type WebsocketServer interface {
	Handler(responseWriter http.ResponseWriter, request *http.Request)
	Publish(id uuid.UUID, message []byte)
	// PublishJson encodes value and publishes it. Encoding failures are logged and dropped.
	PublishJson(id uuid.UUID, value any)
	Subscribers(id uuid.UUID) int
}
