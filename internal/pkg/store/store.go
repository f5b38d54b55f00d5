package store

import (
	"chester/internal/pkg/failures"
	"context"
	"fmt"
	"github.com/bytedance/sonic"
	"time"
)

// Interaction is one persisted transcript line.
type Interaction struct {
	IsBot   bool   `json:"isBot"`
	Message string `json:"message"`
	Command string `json:"command,omitempty"`
}

// SessionRecord is a snapshot of a chat session taken after each committed change.
type SessionRecord struct {
	ID         string        `json:"id"`
	History    []Interaction `json:"history"`
	SkillLevel string        `json:"skillLevel"`
	TurnOwner  string        `json:"turnOwner"`
	PGN        string        `json:"pgn"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

// Store keeps session snapshots. Load returns failures.ErrSessionNotFound for unknown ids.
type Store interface {
	Save(ctx context.Context, record *SessionRecord) error
	Load(ctx context.Context, id string) (*SessionRecord, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

func encodeRecord(record *SessionRecord) ([]byte, error) {
	data, err := sonic.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session record: %w", err)
	}
	return data, nil
}

func decodeRecord(data []byte) (*SessionRecord, error) {
	var record SessionRecord
	if err := sonic.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session record: %w", err)
	}
	return &record, nil
}

func notFound(id string) error {
	return fmt.Errorf("%w: %s", failures.ErrSessionNotFound, id)
}
