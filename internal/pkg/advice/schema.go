package advice

import (
	"chester/internal/pkg/game"
	"fmt"
	"github.com/bytedance/sonic"
	"github.com/getkin/kin-openapi/openapi3"
	"math"
	"strings"
)

const (
	fieldExplanation    = "explanation"
	fieldWinProbability = "winProbability"
	fieldFrom           = "from"
	fieldTo             = "to"
)

// Response is the only shape the model is allowed to answer with.
type Response struct {
	Explanation    string      `json:"explanation"`
	WinProbability float64     `json:"winProbability"`
	From           game.Square `json:"from"`
	To             game.Square `json:"to"`
}

// HasMove is false when the response carries the EMPTY sentinel instead of a move.
func (response Response) HasMove() bool {
	return !response.From.IsEmpty() && !response.To.IsEmpty()
}

// Check enforces the invariants the schema alone can not express.
func (response Response) Check() error {
	if strings.TrimSpace(response.Explanation) == "" {
		return fmt.Errorf("%s must not be empty", fieldExplanation)
	}
	if math.IsNaN(response.WinProbability) || math.IsInf(response.WinProbability, 0) {
		return fmt.Errorf("%s must be a finite number", fieldWinProbability)
	}
	if response.WinProbability < 0 || response.WinProbability > 1 {
		return fmt.Errorf("%s must be between 0 and 1", fieldWinProbability)
	}
	if response.From.IsEmpty() != response.To.IsEmpty() {
		return fmt.Errorf("%s and %s must both be squares or both be %q", fieldFrom, fieldTo, game.EmptySquare)
	}
	for _, square := range []game.Square{response.From, response.To} {
		if !square.IsEmpty() && !square.IsValid() {
			return fmt.Errorf("%q is not a board square", square)
		}
	}
	return nil
}

var responseSchema = newResponseSchema()

var formatInstructions = newFormatInstructions(responseSchema)

func newResponseSchema() *openapi3.Schema {
	explanation := openapi3.NewStringSchema().WithMinLength(1)
	explanation.Description = "The explanation for the move, be as descriptive as possible and talk from the first perspective"

	winProbability := openapi3.NewFloat64Schema().WithMin(0).WithMax(1)
	winProbability.Description = "The probability of winning after the move as a number between 0 and 1, 0 is okay if no win probability is given"

	from := openapi3.NewStringSchema().WithPattern(game.SquarePattern)
	from.Description = fmt.Sprintf("The square to move the piece from, %q if no square is given", game.EmptySquare)

	to := openapi3.NewStringSchema().WithPattern(game.SquarePattern)
	to.Description = fmt.Sprintf("The square to move the piece to, %q if no square is given", game.EmptySquare)

	schema := openapi3.NewObjectSchema().
		WithProperty(fieldExplanation, explanation).
		WithProperty(fieldWinProbability, winProbability).
		WithProperty(fieldFrom, from).
		WithProperty(fieldTo, to)
	schema.Required = []string{fieldExplanation, fieldWinProbability, fieldFrom, fieldTo}
	return schema
}

// Schema returns the response schema. Callers must not modify it.
func Schema() *openapi3.Schema {
	return responseSchema
}

func newFormatInstructions(schema *openapi3.Schema) string {
	schemaJson, err := sonic.ConfigStd.Marshal(schema)
	if err != nil {
		panic(fmt.Sprintf("response schema can not be marshalled: %v", err))
	}

	var builder strings.Builder
	builder.WriteString("You must format your output as a JSON value that adheres to a given \"JSON Schema\" instance.\n\n")
	builder.WriteString("\"JSON Schema\" is a declarative language that allows you to annotate and validate JSON documents.\n\n")
	builder.WriteString("Your output will be parsed and type-checked according to the provided schema instance, ")
	builder.WriteString("so make sure all fields in your output match the schema exactly and there are no trailing commas!\n\n")
	builder.WriteString(fmt.Sprintf("All of the fields %s, %s, %s and %s are required. ", fieldExplanation, fieldWinProbability, fieldFrom, fieldTo))
	builder.WriteString(fmt.Sprintf("%s is a number between 0 and 1. ", fieldWinProbability))
	builder.WriteString(fmt.Sprintf("%s and %s are board squares such as \"e2\" and \"e4\"; when no move is involved both must be the string %q.\n\n",
		fieldFrom, fieldTo, game.EmptySquare))
	builder.WriteString("Here is the JSON Schema instance your output must adhere to. Include the enclosing markdown codeblock:\n")
	builder.WriteString("```json\n")
	builder.Write(schemaJson)
	builder.WriteString("\n```\n")
	return builder.String()
}

// FormatInstructions is the schema directive shared by every prompt and by the repair pass.
func FormatInstructions() string {
	return formatInstructions
}
