package advisor

import (
	"chester/internal/pkg/advice"
	"chester/internal/pkg/commands"
	"chester/internal/pkg/failures"
	"chester/internal/pkg/game"
	"chester/internal/pkg/prompts"
	"context"
	"errors"
	"fmt"
	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"sync"
	"testing"
)

const startingFen = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

type scriptedInvoker struct {
	mutex   sync.Mutex
	replies []string
	errs    []error
	prompts []string
}

func (instance *scriptedInvoker) Invoke(_ context.Context, promptText string) (string, error) {
	instance.mutex.Lock()
	defer instance.mutex.Unlock()

	call := len(instance.prompts)
	instance.prompts = append(instance.prompts, promptText)
	if call < len(instance.errs) && instance.errs[call] != nil {
		return "", instance.errs[call]
	}
	if call >= len(instance.replies) {
		return "", fmt.Errorf("%w: unexpected call %d", failures.ErrTransport, call)
	}
	return instance.replies[call], nil
}

func moveReply(from string, to string) string {
	return fmt.Sprintf(`{"explanation":"Taking the centre with %s%s.","winProbability":0.52,"from":%q,"to":%q}`,
		from, to, from, to)
}

func newTestAdvisor(t *testing.T, invoker Invoker, strict bool) *Advisor {
	assembler, err := prompts.NewDefault()
	require.NoError(t, err)
	return New(assembler, invoker, Options{StrictMoves: strict})
}

func openingRequest(command commands.Command) Request {
	return Request{
		Command:    commands.New(command),
		SkillLevel: commands.Intermediate,
		GameState:  game.GameState{PositionNotation: startingFen, MoveHistoryNotation: ""},
		LegalMoves: []game.LegalMove{{From: "e2", To: "e4"}, {From: "d2", To: "d4"}, {From: "g1", To: "f3"}},
	}
}

func TestAdviseNextMoveDrawsFromLegalMoves(t *testing.T) {
	invoker := &scriptedInvoker{replies: []string{moveReply("e2", "e4")}}
	advisor := newTestAdvisor(t, invoker, true)

	request := openingRequest(commands.NextMove)
	response, err := advisor.Advise(context.Background(), request)
	require.NoError(t, err)

	assert.NotEmpty(t, response.Explanation)
	assert.True(t, game.ContainsMove(request.LegalMoves, response.From, response.To))
	require.Len(t, invoker.prompts, 1)
	assert.Contains(t, invoker.prompts[0], `{"from":"e2","to":"e4"}`)
	assert.Contains(t, invoker.prompts[0], "800-1500")
}

func TestAdviseRepairsOnceThenSucceeds(t *testing.T) {
	invoker := &scriptedInvoker{replies: []string{"I would play e4.", moveReply("d2", "d4")}}
	advisor := newTestAdvisor(t, invoker, true)

	response, err := advisor.Advise(context.Background(), openingRequest(commands.NextMove))
	require.NoError(t, err)

	assert.Equal(t, game.Square("d4"), response.To)
	assert.Len(t, invoker.prompts, 2)
}

func TestAdviseTransportFailure(t *testing.T) {
	invoker := &scriptedInvoker{errs: []error{fmt.Errorf("%w: connection refused", failures.ErrTransport)}}
	advisor := newTestAdvisor(t, invoker, true)

	_, err := advisor.Advise(context.Background(), openingRequest(commands.Breakdown))
	assert.ErrorIs(t, err, failures.ErrTransport)
	assert.Len(t, invoker.prompts, 1)
}

func TestAdviseRejectsIllegalMoveWhenStrict(t *testing.T) {
	invoker := &scriptedInvoker{replies: []string{moveReply("e2", "e5")}}
	advisor := newTestAdvisor(t, invoker, true)

	_, err := advisor.Advise(context.Background(), openingRequest(commands.NextMove))
	assert.ErrorIs(t, err, failures.ErrValidation)
	assert.ErrorIs(t, err, failures.ErrIllegalMove)
	assert.Equal(t, http.StatusInternalServerError, failures.Status(err))
}

func TestAdviseAcceptsIllegalMoveWhenLenient(t *testing.T) {
	invoker := &scriptedInvoker{replies: []string{moveReply("e2", "e5")}}
	advisor := newTestAdvisor(t, invoker, false)

	response, err := advisor.Advise(context.Background(), openingRequest(commands.NextMove))
	require.NoError(t, err)
	assert.Equal(t, game.Square("e5"), response.To)
}

func TestAdviseDoesNotCheckLegalityForMindReader(t *testing.T) {
	invoker := &scriptedInvoker{replies: []string{moveReply("e2", "e5")}}
	advisor := newTestAdvisor(t, invoker, true)

	_, err := advisor.Advise(context.Background(), openingRequest(commands.MindReader))
	assert.NoError(t, err)
}

func TestAdviseAllowsEmptyMoveForMoveCommands(t *testing.T) {
	reply := `{"explanation":"There is nothing sensible to recommend.","winProbability":0,"from":"EMPTY","to":"EMPTY"}`
	invoker := &scriptedInvoker{replies: []string{reply}}
	advisor := newTestAdvisor(t, invoker, true)

	response, err := advisor.Advise(context.Background(), openingRequest(commands.Opponent))
	require.NoError(t, err)
	assert.False(t, response.HasMove())
}

func TestAdviseRejectsUnknownSkillLevel(t *testing.T) {
	invoker := &scriptedInvoker{}
	advisor := newTestAdvisor(t, invoker, true)

	request := openingRequest(commands.Breakdown)
	request.SkillLevel = "grandmaster"
	_, err := advisor.Advise(context.Background(), request)
	assert.ErrorIs(t, err, failures.ErrInvalidParameter)
	assert.Empty(t, invoker.prompts)
}

func TestWireRequestMissingParameters(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", `{}`},
		{"no type", `{"elo":"intermediate","board":{"fen":"x","pgn":""},"validMoves":[]}`},
		{"blank type", `{"type":"","elo":"intermediate","board":{"fen":"x","pgn":""},"validMoves":[]}`},
		{"no elo", `{"type":"next-move","board":{"fen":"x","pgn":""},"validMoves":[]}`},
		{"no board", `{"type":"next-move","elo":"intermediate","validMoves":[]}`},
		{"no valid moves", `{"type":"next-move","elo":"intermediate","board":{"fen":"x","pgn":""}}`},
		{"null valid moves", `{"type":"next-move","elo":"intermediate","board":{"fen":"x","pgn":""},"validMoves":null}`},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var wire WireRequest
			require.NoError(t, sonic.UnmarshalString(test.body, &wire))

			_, err := wire.ToRequest()
			assert.ErrorIs(t, err, failures.ErrMissingParameter)

			status, envelope := NewEnvelope(advice.Response{}, err)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, Envelope{Success: false, Message: "Missing required parameters"}, envelope)
		})
	}
}

func TestWireRequestParsesCommandAndSkill(t *testing.T) {
	body := `{"type":"/next-move","elo":"800-1500","board":{"fen":"` + startingFen + `","pgn":""},"validMoves":[]}`
	var wire WireRequest
	require.NoError(t, sonic.UnmarshalString(body, &wire))

	request, err := wire.ToRequest()
	require.NoError(t, err)
	assert.Equal(t, commands.NextMove, request.Command.Command)
	assert.Equal(t, commands.Intermediate, request.SkillLevel)
	assert.Equal(t, startingFen, request.GameState.PositionNotation)
	assert.NotNil(t, request.LegalMoves)

	wire.Elo = new(string)
	*wire.Elo = "grandmaster"
	_, err = wire.ToRequest()
	assert.ErrorIs(t, err, failures.ErrInvalidParameter)
}

func TestWireRequestFreeTextBecomesQuestion(t *testing.T) {
	question := "Is my king safe?"
	wire := WireRequest{
		Type:       &question,
		Elo:        new(string),
		Board:      &game.GameState{},
		ValidMoves: []game.LegalMove{},
	}
	*wire.Elo = "novice"

	request, err := wire.ToRequest()
	require.NoError(t, err)
	assert.True(t, request.Command.IsQuestion())
	assert.Equal(t, question, request.Command.Raw)
}

func TestEnvelopeSerialization(t *testing.T) {
	status, envelope := NewEnvelope(advice.Response{
		Explanation: "Develop the knight.", WinProbability: 0.5, From: "g1", To: "f3",
	}, nil)
	assert.Equal(t, http.StatusOK, status)

	content, err := sonic.ConfigStd.MarshalToString(envelope)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"result":{"explanation":"Develop the knight.","winProbability":0.5,"from":"g1","to":"f3"}}`, content)

	status, envelope = NewEnvelope(advice.Response{}, fmt.Errorf("%w: boom", failures.ErrTransport))
	assert.Equal(t, http.StatusInternalServerError, status)
	content, err = sonic.ConfigStd.MarshalToString(envelope)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"message":"Internal application error"}`, content)

	status, _ = NewEnvelope(advice.Response{}, errors.New("unclassified"))
	assert.Equal(t, http.StatusInternalServerError, status)
}
