package main

import "time"

type applicationConfig struct {
	// MCP server configuration
	Transport string `config_default:"stdio" config_description:"MCP transport: stdio or sse"`
	Host      string `config_default:"localhost" config_description:"SSE server host interface"`
	Port      int    `config_default:"8082" config_description:"SSE server port"`

	// Advisor configuration
	ModelName        string        `config_default:"ollama:qwen3:8b" config_description:"Model to use, as provider:model"`
	Temperature      float32       `config_default:"0" config_description:"Sampling temperature"`
	MaxTokens        int           `config_default:"2000" config_description:"Maximum tokens per answer"`
	RequestTimeout   time.Duration `config_default:"60s" config_description:"Model call timeout"`
	TemplatesFile    string        `config_default:"" config_description:"YAML file overriding prompt templates"`
	StrictMoves      bool          `config_default:"true" config_description:"Reject model moves missing from the legal move list"`
	OpenAIAPIKey     string        `config_default:"" config_description:"OpenAI API key"`
	OpenAIBaseURL    string        `config_default:"" config_description:"OpenAI compatible base URL"`
	AnthropicAPIKey  string        `config_default:"" config_description:"Anthropic API key"`
	AnthropicBaseURL string        `config_default:"" config_description:"Anthropic base URL"`
	GoogleAPIKey     string        `config_default:"" config_description:"Google Gemini API key"`
	OllamaBaseURL    string        `config_default:"" config_description:"Ollama base URL"`
}
