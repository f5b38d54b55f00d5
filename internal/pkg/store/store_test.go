package store

import (
	"chester/internal/pkg/failures"
	"context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func testRecord() *SessionRecord {
	return &SessionRecord{
		ID: "0b5e6f4c-3f59-11ef-9a5b-0242ac120002",
		History: []Interaction{
			{IsBot: true, Message: "Hello, I'm Chester."},
			{IsBot: false, Message: "/next-move", Command: "next-move"},
			{IsBot: true, Message: "Play e4.", Command: "next-move"},
		},
		SkillLevel: "intermediate",
		TurnOwner:  "human",
		PGN:        "1. e4 *",
		UpdatedAt:  time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	memoryStore := NewMemoryStore()

	record := testRecord()
	require.NoError(t, memoryStore.Save(ctx, record))

	loaded, err := memoryStore.Load(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.History, loaded.History)
	assert.Equal(t, record.PGN, loaded.PGN)
	assert.True(t, record.UpdatedAt.Equal(loaded.UpdatedAt))
}

func TestMemoryStoreIsolatesCallers(t *testing.T) {
	ctx := context.Background()
	memoryStore := NewMemoryStore()

	record := testRecord()
	require.NoError(t, memoryStore.Save(ctx, record))
	record.History[0].Message = "changed after save"

	loaded, err := memoryStore.Load(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello, I'm Chester.", loaded.History[0].Message)
}

func TestMemoryStoreUnknownAndDeleted(t *testing.T) {
	ctx := context.Background()
	memoryStore := NewMemoryStore()

	_, err := memoryStore.Load(ctx, "missing")
	assert.ErrorIs(t, err, failures.ErrSessionNotFound)

	record := testRecord()
	require.NoError(t, memoryStore.Save(ctx, record))
	require.NoError(t, memoryStore.Delete(ctx, record.ID))

	_, err = memoryStore.Load(ctx, record.ID)
	assert.ErrorIs(t, err, failures.ErrSessionNotFound)
	assert.NoError(t, memoryStore.Close())
}

func TestRecordWireFormat(t *testing.T) {
	data, err := encodeRecord(testRecord())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"isBot":true`)
	assert.Contains(t, string(data), `"turnOwner":"human"`)

	_, err = decodeRecord([]byte("{broken"))
	assert.Error(t, err)
}

func TestSessionKey(t *testing.T) {
	assert.Equal(t, "session:abc", sessionKey("abc"))
}
