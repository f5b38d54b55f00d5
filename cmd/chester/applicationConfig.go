package main

import "time"

type applicationConfig struct {
	Host             string        `config_default:"localhost" config_description:"Server host interface"`
	Port             int           `config_default:"8080" config_description:"Server port"`
	SimulatedDelay   int           `config_default:"0" config_description:"Simulated delay for API responses in milliseconds"`
	ModelName        string        `config_default:"ollama:qwen3:8b" config_description:"Model to use, as provider:model"`
	SystemPrompt     string        `config_default:"" config_description:"System prompt override; empty keeps the templates one"`
	Temperature      float32       `config_default:"0" config_description:"Sampling temperature"`
	MaxTokens        int           `config_default:"2000" config_description:"Maximum tokens per answer"`
	RequestTimeout   time.Duration `config_default:"60s" config_description:"Model call timeout"`
	TemplatesFile    string        `config_default:"" config_description:"YAML file overriding prompt templates"`
	StrictMoves      bool          `config_default:"true" config_description:"Reject model moves missing from the legal move list"`
	StoreBackend     string        `config_default:"memory" config_description:"Session snapshot store: memory or redis"`
	RedisAddr        string        `config_default:"localhost:6379" config_description:"Redis address"`
	RedisPassword    string        `config_default:"" config_description:"Redis password"`
	RedisDB          int           `config_default:"0" config_description:"Redis database"`
	SessionTTL       time.Duration `config_default:"24h" config_description:"Lifetime of stored session snapshots"`
	CookieSecret     string        `config_default:"" config_description:"Session cookie signing key"`
	CookieSecure     bool          `config_default:"false" config_description:"Send the session cookie over HTTPS only"`
	OpenAIAPIKey     string        `config_default:"" config_description:"OpenAI API key"`
	OpenAIBaseURL    string        `config_default:"" config_description:"OpenAI compatible base URL"`
	AnthropicAPIKey  string        `config_default:"" config_description:"Anthropic API key"`
	AnthropicBaseURL string        `config_default:"" config_description:"Anthropic base URL"`
	GoogleAPIKey     string        `config_default:"" config_description:"Google Gemini API key"`
	OllamaBaseURL    string        `config_default:"" config_description:"Ollama base URL"`
}
