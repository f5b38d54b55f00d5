package prompts

import (
	"chester/internal/pkg/advice"
	"chester/internal/pkg/commands"
	"chester/internal/pkg/game"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	"gopkg.in/yaml.v3"
	"os"
	"strings"
)

//go:embed templates.yaml
var defaultTemplatesYaml []byte

// The schema directive is appended here once, never written into individual templates.
const formatClause = "\nPlease make sure that your response is in line with these guidelines: {formatInstruction}."

// Templates is the YAML document holding one prompt per command token.
type Templates struct {
	System   string            `yaml:"system"`
	Commands map[string]string `yaml:"commands"`
}

// Input is everything a prompt can be rendered from.
type Input struct {
	Request    commands.Request
	SkillLevel commands.SkillLevel
	GameState  game.GameState
	LegalMoves []game.LegalMove
}

type Assembler struct {
	system    string
	templates map[commands.Command]prompt.ChatTemplate
}

// DefaultTemplates returns the templates shipped with the binary.
func DefaultTemplates() (Templates, error) {
	return parseTemplates(defaultTemplatesYaml)
}

// LoadTemplates reads a templates file; commands it omits keep their default template.
func LoadTemplates(path string) (Templates, error) {
	templates, err := DefaultTemplates()
	if err != nil {
		return Templates{}, err
	}
	if path == "" {
		return templates, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return Templates{}, fmt.Errorf("os.ReadFile() failed: %w", err)
	}

	overrides, err := parseTemplates(content)
	if err != nil {
		return Templates{}, err
	}

	if strings.TrimSpace(overrides.System) != "" {
		templates.System = overrides.System
	}
	for token, template := range overrides.Commands {
		templates.Commands[token] = template
	}
	return templates, nil
}

func parseTemplates(content []byte) (Templates, error) {
	var templates Templates
	if err := yaml.Unmarshal(content, &templates); err != nil {
		return Templates{}, fmt.Errorf("yaml.Unmarshal() failed: %w", err)
	}
	if templates.Commands == nil {
		templates.Commands = make(map[string]string)
	}
	return templates, nil
}

// New fails if any command lacks a template or a template does not render.
func New(templates Templates) (*Assembler, error) {
	assembler := &Assembler{
		system:    strings.TrimSpace(templates.System),
		templates: make(map[commands.Command]prompt.ChatTemplate),
	}

	var errs []error
	for _, command := range commands.All() {
		text, ok := templates.Commands[command.String()]
		if !ok || strings.TrimSpace(text) == "" {
			errs = append(errs, fmt.Errorf("no template for command %q", command))
			continue
		}
		assembler.templates[command] = prompt.FromMessages(schema.FString,
			schema.UserMessage(strings.TrimRight(text, "\n")+formatClause))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	for _, command := range commands.All() {
		_, err := assembler.Assemble(context.Background(), Input{
			Request:    commands.New(command),
			SkillLevel: commands.DefaultSkillLevel,
			LegalMoves: []game.LegalMove{},
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("template for command %q: %w", command, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return assembler, nil
}

// NewDefault builds an assembler over the embedded templates.
func NewDefault() (*Assembler, error) {
	templates, err := DefaultTemplates()
	if err != nil {
		return nil, err
	}
	return New(templates)
}

// System is the system prompt paired with every assembled prompt.
func (instance *Assembler) System() string {
	return instance.system
}

// Assemble renders the prompt for input. Game state strings are passed through verbatim.
func (instance *Assembler) Assemble(ctx context.Context, input Input) (string, error) {
	template, ok := instance.templates[input.Request.Command]
	if !ok {
		return "", fmt.Errorf("no template for command %q", input.Request.Command)
	}

	values := map[string]any{
		"elo":               input.SkillLevel.Rating(),
		"fen":               input.GameState.PositionNotation,
		"pgn":               input.GameState.MoveHistoryNotation,
		"validMoves":        "",
		"question":          "",
		"commands":          commands.Directory(),
		"formatInstruction": advice.FormatInstructions(),
	}
	if input.Request.Command.IncludesLegalMoves() {
		legalMoves, err := serializeLegalMoves(input.LegalMoves)
		if err != nil {
			return "", err
		}
		values["validMoves"] = legalMoves
	}
	if input.Request.IsQuestion() {
		values["question"] = input.Request.Raw
	}

	messages, err := template.Format(ctx, values)
	if err != nil {
		return "", fmt.Errorf("prompt.Format() failed: %w", err)
	}
	return messages[0].Content, nil
}

func serializeLegalMoves(moves []game.LegalMove) (string, error) {
	if moves == nil {
		moves = []game.LegalMove{}
	}
	content, err := sonic.ConfigStd.MarshalToString(moves)
	if err != nil {
		return "", fmt.Errorf("legal moves can not be serialized: %w", err)
	}
	return content, nil
}
