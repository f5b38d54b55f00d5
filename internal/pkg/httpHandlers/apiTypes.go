package httpHandlers

import (
	"chester/internal/pkg/failures"
	"chester/internal/pkg/game"
	"chester/internal/pkg/web"
	"net/http"
)

type askRequest struct {
	Request *string `json:"request"`
}

type moveRequest struct {
	From *game.Square `json:"from"`
	To   *game.Square `json:"to"`
}

type skillLevelRequest struct {
	Level *string `json:"level"`
}

// sessionEnvelope mirrors advisor.Envelope for the session routes, whose result is a session update.
type sessionEnvelope struct {
	Success bool   `json:"success"`
	Result  any    `json:"result,omitempty"`
	Message string `json:"message,omitempty"`
}

func successResponse(result any, cookie *http.Cookie) *web.Response {
	return web.JsonResponse(http.StatusOK, sessionEnvelope{Success: true, Result: result}, nil, cookie)
}

func failureResponse(err error) *web.Response {
	return web.JsonResponse(failures.Status(err), sessionEnvelope{Success: false, Message: failures.Message(err)}, nil, nil)
}
