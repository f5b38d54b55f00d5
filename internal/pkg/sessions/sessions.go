package sessions

import (
	"chester/internal/pkg/board"
	"chester/internal/pkg/chatSession"
	"chester/internal/pkg/failures"
	"chester/internal/pkg/store"
	"context"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"sync"
)

type SessionManager struct {
	mutex        sync.RWMutex
	chatSessions map[uuid.UUID]chatSession.ChatSession
	advisor      chatSession.Advisor
	store        store.Store
}

// New builds an empty registry. sessionStore may be nil, in which case nothing survives a restart.
func New(advisor chatSession.Advisor, sessionStore store.Store) *SessionManager {
	sessionManager := &SessionManager{
		chatSessions: make(map[uuid.UUID]chatSession.ChatSession),
		advisor:      advisor,
		store:        sessionStore,
	}
	return sessionManager
}

func (instance *SessionManager) AddSession(id uuid.UUID, responseFunc chatSession.ResponseFunc) (chatSession.ChatSession, error) {
	instance.mutex.Lock()
	defer instance.mutex.Unlock()

	_, ok := instance.chatSessions[id]
	if ok {
		return nil, errors.New("session with such id already exists")
	}

	chat, err := chatSession.New(id.String(), chatSession.Dependencies{
		Advisor:      instance.advisor,
		Board:        board.New(),
		Store:        instance.store,
		ResponseFunc: responseFunc,
	})
	if err != nil {
		return nil, fmt.Errorf("chatSession.New() failed: %w", err)
	}

	instance.chatSessions[id] = chat

	return chat, nil
}

func (instance *SessionManager) GetSession(id uuid.UUID) chatSession.ChatSession {
	instance.mutex.RLock()
	defer instance.mutex.RUnlock()

	return instance.chatSessions[id]
}

// RestoreSession returns the live session for id, reviving it from the store when needed.
// Unknown ids fail with failures.ErrSessionNotFound.
func (instance *SessionManager) RestoreSession(ctx context.Context, id uuid.UUID,
	responseFunc chatSession.ResponseFunc) (chatSession.ChatSession, error) {
	if chat := instance.GetSession(id); chat != nil {
		return chat, nil
	}
	if instance.store == nil {
		return nil, fmt.Errorf("%w: %s", failures.ErrSessionNotFound, id)
	}

	record, err := instance.store.Load(ctx, id.String())
	if err != nil {
		return nil, err
	}

	chessBoard, err := board.FromPGN(record.PGN)
	if err != nil {
		log.Error().Err(err).Str("session_id", id.String()).Msg("stored move history can not be replayed")
		return nil, fmt.Errorf("%w: %s", failures.ErrSessionNotFound, id)
	}

	chat, restored, err := instance.register(id, chessBoard, record, responseFunc)
	if err != nil {
		return nil, err
	}
	if !restored {
		return chat, nil
	}
	log.Info().Str("session_id", id.String()).Msg("session restored from store")

	// Resume an opponent turn that was in flight when the snapshot was taken.
	if _, err := chat.SyncTurn(ctx); err != nil {
		return nil, fmt.Errorf("chatSession.SyncTurn() failed: %w", err)
	}
	return chat, nil
}

func (instance *SessionManager) register(id uuid.UUID, chessBoard *board.ChessBoard, record *store.SessionRecord,
	responseFunc chatSession.ResponseFunc) (chatSession.ChatSession, bool, error) {
	instance.mutex.Lock()
	defer instance.mutex.Unlock()

	if chat, ok := instance.chatSessions[id]; ok {
		return chat, false, nil
	}

	chat, err := chatSession.Restore(id.String(), chatSession.Dependencies{
		Advisor:      instance.advisor,
		Board:        chessBoard,
		Store:        instance.store,
		ResponseFunc: responseFunc,
	}, record)
	if err != nil {
		return nil, false, fmt.Errorf("chatSession.Restore() failed: %w", err)
	}

	instance.chatSessions[id] = chat
	return chat, true, nil
}

func (instance *SessionManager) Shutdown() {
	instance.mutex.RLock()
	defer instance.mutex.RUnlock()

	for _, session := range instance.chatSessions {
		session.Shutdown()
	}
}
