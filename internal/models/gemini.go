package models

import (
	"context"
	"errors"
	"fmt"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/getkin/kin-openapi/openapi3"
	"google.golang.org/genai"
)

// geminiChatModel adapts the genai client to eino's BaseChatModel so every provider
// is driven the same way.
type geminiChatModel struct {
	client         *genai.Client
	model          string
	responseSchema *genai.Schema
}

func newGeminiChatModel(ctx context.Context, apiKey string, modelName string,
	responseSchema *openapi3.Schema) (model.BaseChatModel, error) {
	if apiKey == "" {
		return nil, errors.New("google api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient() failed: %w", err)
	}

	return &geminiChatModel{
		client:         client,
		model:          modelName,
		responseSchema: toGeminiSchema(responseSchema),
	}, nil
}

func (instance *geminiChatModel) Generate(ctx context.Context, input []*schema.Message,
	opts ...model.Option) (*schema.Message, error) {
	options := model.GetCommonOptions(&model.Options{}, opts...)

	contents, system := toGeminiContents(input)
	config := &genai.GenerateContentConfig{
		SystemInstruction: system,
		Temperature:       options.Temperature,
	}
	if options.MaxTokens != nil {
		config.MaxOutputTokens = int32(*options.MaxTokens)
	}
	if instance.responseSchema != nil {
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = instance.responseSchema
	}

	response, err := instance.client.Models.GenerateContent(ctx, instance.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("genai.Models.GenerateContent() failed: %w", err)
	}

	return schema.AssistantMessage(response.Text(), nil), nil
}

func (instance *geminiChatModel) Stream(ctx context.Context, input []*schema.Message,
	opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	message, err := instance.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{message}), nil
}

func toGeminiContents(input []*schema.Message) ([]*genai.Content, *genai.Content) {
	var system *genai.Content
	contents := make([]*genai.Content, 0, len(input))
	for _, message := range input {
		switch message.Role {
		case schema.System:
			system = genai.NewContentFromText(message.Content, genai.RoleUser)
		case schema.Assistant:
			contents = append(contents, genai.NewContentFromText(message.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(message.Content, genai.RoleUser))
		}
	}
	return contents, system
}

// toGeminiSchema keeps the subset of the OpenAPI schema the Gemini API accepts.
func toGeminiSchema(source *openapi3.Schema) *genai.Schema {
	if source == nil {
		return nil
	}

	target := &genai.Schema{
		Description: source.Description,
		Required:    source.Required,
		Minimum:     source.Min,
		Maximum:     source.Max,
	}

	switch source.Type {
	case "object":
		target.Type = genai.TypeObject
	case "array":
		target.Type = genai.TypeArray
	case "string":
		target.Type = genai.TypeString
	case "number":
		target.Type = genai.TypeNumber
	case "integer":
		target.Type = genai.TypeInteger
	case "boolean":
		target.Type = genai.TypeBoolean
	}

	if len(source.Properties) > 0 {
		target.Properties = make(map[string]*genai.Schema, len(source.Properties))
		for name, property := range source.Properties {
			target.Properties[name] = toGeminiSchema(property.Value)
		}
		target.PropertyOrdering = source.Required
	}
	if source.Items != nil {
		target.Items = toGeminiSchema(source.Items.Value)
	}

	return target
}
