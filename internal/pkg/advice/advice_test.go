package advice

import (
	"chester/internal/pkg/failures"
	"chester/internal/pkg/game"
	"context"
	"errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
)

type scriptedRepairer struct {
	replies []string
	err     error
	prompts []string
}

func (instance *scriptedRepairer) Invoke(_ context.Context, promptText string) (string, error) {
	instance.prompts = append(instance.prompts, promptText)
	if instance.err != nil {
		return "", instance.err
	}
	if len(instance.prompts) > len(instance.replies) {
		return "", errors.New("unexpected call")
	}
	return instance.replies[len(instance.prompts)-1], nil
}

const validMove = `{"explanation":"Controlling the centre with the king pawn.","winProbability":0.55,"from":"e2","to":"e4"}`

func TestParseValidResponse(t *testing.T) {
	response, err := Parse(validMove)
	require.NoError(t, err)
	assert.Equal(t, game.Square("e2"), response.From)
	assert.Equal(t, game.Square("e4"), response.To)
	assert.Equal(t, 0.55, response.WinProbability)
	assert.True(t, response.HasMove())
	assert.NoError(t, response.Check())
}

func TestParseFencedResponseWithProse(t *testing.T) {
	raw := "Here is my answer:\n```json\n" +
		`{"explanation":"Nothing to move, {just} talk.","winProbability":0,"from":"EMPTY","to":"EMPTY"}` +
		"\n```"
	response, err := Parse(raw)
	require.NoError(t, err)
	assert.False(t, response.HasMove())
	assert.Equal(t, "Nothing to move, {just} talk.", response.Explanation)
}

func TestParseRejectsSchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "I think e4 is best."},
		{"broken json", `{"explanation": "x", "winProbability": }`},
		{"missing field", `{"explanation":"x","winProbability":0.5,"from":"e2"}`},
		{"mistyped probability", `{"explanation":"x","winProbability":"high","from":"e2","to":"e4"}`},
		{"probability out of range", `{"explanation":"x","winProbability":55,"from":"e2","to":"e4"}`},
		{"empty explanation", `{"explanation":"","winProbability":0.5,"from":"e2","to":"e4"}`},
		{"blank explanation", `{"explanation":"   ","winProbability":0.5,"from":"e2","to":"e4"}`},
		{"bad square", `{"explanation":"x","winProbability":0.5,"from":"z9","to":"e4"}`},
		{"empty string square", `{"explanation":"x","winProbability":0.5,"from":"","to":""}`},
		{"half empty move", `{"explanation":"x","winProbability":0.5,"from":"EMPTY","to":"e4"}`},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Parse(test.raw)
			assert.Error(t, err)
		})
	}
}

func TestValidateWithoutRepair(t *testing.T) {
	repairer := &scriptedRepairer{}
	validator := NewValidator(repairer)

	response, err := validator.Validate(context.Background(), validMove)
	require.NoError(t, err)
	assert.Equal(t, game.Square("e4"), response.To)
	assert.Empty(t, repairer.prompts)
}

func TestValidateRepairsExactlyOnce(t *testing.T) {
	repairer := &scriptedRepairer{replies: []string{validMove}}
	validator := NewValidator(repairer)

	response, err := validator.Validate(context.Background(), `{"explanation":"e4","winProbability":"good"}`)
	require.NoError(t, err)
	assert.Equal(t, game.Square("e2"), response.From)
	require.Len(t, repairer.prompts, 1)

	repairPrompt := repairer.prompts[0]
	assert.Contains(t, repairPrompt, FormatInstructions())
	assert.Contains(t, repairPrompt, `{"explanation":"e4","winProbability":"good"}`)
	assert.Contains(t, repairPrompt, "did not satisfy the constraints")
}

func TestValidateFailsWhenRepairIsAlsoMalformed(t *testing.T) {
	repairer := &scriptedRepairer{replies: []string{"still not json", validMove}}
	validator := NewValidator(repairer)

	_, err := validator.Validate(context.Background(), "not json")
	assert.ErrorIs(t, err, failures.ErrValidation)
	assert.Len(t, repairer.prompts, 1)
}

func TestValidateFailsWhenRepairCallFails(t *testing.T) {
	repairer := &scriptedRepairer{err: errors.New("connection refused")}
	validator := NewValidator(repairer)

	_, err := validator.Validate(context.Background(), "not json")
	assert.ErrorIs(t, err, failures.ErrValidation)
	assert.NotErrorIs(t, err, failures.ErrTransport)
	assert.Len(t, repairer.prompts, 1)
}

func TestFormatInstructionsDescribeSchema(t *testing.T) {
	instructions := FormatInstructions()
	for _, field := range []string{fieldExplanation, fieldWinProbability, fieldFrom, fieldTo} {
		assert.Contains(t, instructions, `"`+field+`"`)
	}
	assert.Contains(t, instructions, `"EMPTY"`)
	assert.True(t, strings.Contains(instructions, "```json"))
	assert.Equal(t, instructions, FormatInstructions())
}

func TestExtractJsonObjectsIgnoresBracesInStrings(t *testing.T) {
	objects := extractJsonObjects(`noise {"a":"}{","b":{"c":1}} trailing }`)
	require.Len(t, objects, 1)
	assert.Equal(t, `{"a":"}{","b":{"c":1}}`, objects[0])

	assert.Empty(t, extractJsonObjects(`{"unterminated": true`))
}

func TestParseSkipsBracedProseBeforeAnswer(t *testing.T) {
	raw := "Following the schema {explanation, winProbability, from, to}:\n" + validMove
	response, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, game.Square("e2"), response.From)

	repairer := &scriptedRepairer{}
	_, err = NewValidator(repairer).Validate(context.Background(), raw)
	require.NoError(t, err)
	assert.Empty(t, repairer.prompts)
}

func TestSchemaRequiresEveryField(t *testing.T) {
	assert.ElementsMatch(t, []string{fieldExplanation, fieldWinProbability, fieldFrom, fieldTo}, Schema().Required)
}
