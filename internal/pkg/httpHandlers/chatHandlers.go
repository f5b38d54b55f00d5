package httpHandlers

import (
	"chester/internal/pkg/advice"
	"chester/internal/pkg/advisor"
	"chester/internal/pkg/chatSession"
	"chester/internal/pkg/cookies"
	"chester/internal/pkg/failures"
	"chester/internal/pkg/sessions"
	"chester/internal/pkg/web"
	"chester/internal/pkg/websocketServer"
	"context"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"net/http"
)

type ProbeFunc func(ctx context.Context) error

type ChatHandlers struct {
	advisor            chatSession.Advisor
	notificationServer websocketServer.WebsocketServer
	sessionManager     *sessions.SessionManager
	probe              ProbeFunc
}

func New(advisor chatSession.Advisor, sessionManager *sessions.SessionManager,
	notificationServer websocketServer.WebsocketServer, probe ProbeFunc) *ChatHandlers {
	return &ChatHandlers{
		advisor:            advisor,
		sessionManager:     sessionManager,
		notificationServer: notificationServer,
		probe:              probe,
	}
}

// Session returns the caller's session, creating one and setting the cookie when needed.
func (instance *ChatHandlers) Session(request *http.Request, _ int) *web.Response {
	var cookie *http.Cookie
	id := cookies.GetIdFromCookie(request)

	var session chatSession.ChatSession
	if id != uuid.Nil {
		restored, err := instance.sessionManager.RestoreSession(request.Context(), id, instance.updateHandler(id))
		if err != nil && !errors.Is(err, failures.ErrSessionNotFound) {
			log.Error().Err(err).Msg("sessionManager.RestoreSession() failed")
			return failureResponse(err)
		}
		session = restored
	}

	if session == nil {
		id = uuid.New()
		cookie = cookies.SetIdToCookie(id)
		if cookie == nil {
			return failureResponse(errors.New("session cookie can not be signed"))
		}

		created, err := instance.sessionManager.AddSession(id, instance.updateHandler(id))
		if err != nil {
			log.Error().Err(err).Msg("sessionManager.AddSession() failed")
			return failureResponse(err)
		}
		session = created
	}

	return successResponse(session.Snapshot(), cookie)
}

func (instance *ChatHandlers) Ask(request *http.Request, _ int) *web.Response {
	var body askRequest
	if err := web.DecodeJson(request, &body); err != nil || body.Request == nil {
		return failureResponse(failures.ErrMissingParameter)
	}

	return instance.withSession(request, func(ctx context.Context, session chatSession.ChatSession) (chatSession.Update, error) {
		return session.Submit(ctx, *body.Request)
	})
}

func (instance *ChatHandlers) Reask(request *http.Request, _ int) *web.Response {
	return instance.withSession(request, func(ctx context.Context, session chatSession.ChatSession) (chatSession.Update, error) {
		return session.Reask(ctx)
	})
}

func (instance *ChatHandlers) Move(request *http.Request, _ int) *web.Response {
	var body moveRequest
	if err := web.DecodeJson(request, &body); err != nil || body.From == nil || body.To == nil {
		return failureResponse(failures.ErrMissingParameter)
	}

	return instance.withSession(request, func(ctx context.Context, session chatSession.ChatSession) (chatSession.Update, error) {
		return session.ApplyHumanMove(ctx, *body.From, *body.To)
	})
}

func (instance *ChatHandlers) SkillLevel(request *http.Request, _ int) *web.Response {
	var body skillLevelRequest
	if err := web.DecodeJson(request, &body); err != nil || body.Level == nil {
		return failureResponse(failures.ErrMissingParameter)
	}

	return instance.withSession(request, func(ctx context.Context, session chatSession.ChatSession) (chatSession.Update, error) {
		return session.SetSkillLevel(ctx, *body.Level)
	})
}

func (instance *ChatHandlers) Clear(request *http.Request, _ int) *web.Response {
	return instance.withSession(request, func(ctx context.Context, session chatSession.ChatSession) (chatSession.Update, error) {
		return session.Clear(ctx)
	})
}

// NextMove is the stateless advisory route: one request in, one envelope out.
func (instance *ChatHandlers) NextMove(request *http.Request, _ int) *web.Response {
	var wire advisor.WireRequest
	if err := web.DecodeJson(request, &wire); err != nil {
		log.Warn().Err(err).Msg("next-move body can not be decoded")
		return envelopeResponse(advisor.NewEnvelope(advice.Response{}, failures.ErrMissingParameter))
	}

	advisorRequest, err := wire.ToRequest()
	if err != nil {
		return envelopeResponse(advisor.NewEnvelope(advice.Response{}, err))
	}

	response, err := instance.advisor.Advise(request.Context(), advisorRequest)
	return envelopeResponse(advisor.NewEnvelope(response, err))
}

func (instance *ChatHandlers) Healthz(request *http.Request, _ int) *web.Response {
	if instance.probe != nil {
		if err := instance.probe(request.Context()); err != nil {
			log.Error().Err(err).Msg("model provider probe failed")
			return web.JsonResponse(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"}, nil, nil)
		}
	}
	return web.JsonResponse(http.StatusOK, map[string]string{"status": "ok"}, nil, nil)
}

func (instance *ChatHandlers) withSession(request *http.Request,
	operation func(ctx context.Context, session chatSession.ChatSession) (chatSession.Update, error)) *web.Response {
	id := cookies.GetIdFromCookie(request)
	if id == uuid.Nil {
		return failureResponse(fmt.Errorf("%w: no session cookie", failures.ErrSessionNotFound))
	}

	session, err := instance.sessionManager.RestoreSession(request.Context(), id, instance.updateHandler(id))
	if err != nil {
		return failureResponse(err)
	}

	update, err := operation(request.Context(), session)
	if err != nil {
		return failureResponse(err)
	}
	return successResponse(update, nil)
}

func (instance *ChatHandlers) updateHandler(id uuid.UUID) chatSession.ResponseFunc {
	return func(update chatSession.Update) {
		instance.notificationServer.PublishJson(id, update)
	}
}

func envelopeResponse(status int, envelope advisor.Envelope) *web.Response {
	return web.JsonResponse(status, envelope, nil, nil)
}
