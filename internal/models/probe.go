package models

import (
	"context"
	"fmt"
	"github.com/ollama/ollama/api"
	"net/http"
	"net/url"
)

// Probe checks that the configured provider can be reached. Only ollama is probed;
// hosted providers are assumed reachable.
func Probe(ctx context.Context, config *ProviderConfig) error {
	provider, _, err := ParseModelString(config.ModelString)
	if err != nil {
		return err
	}
	if provider != ProviderOllama {
		return nil
	}

	client, err := newOllamaClient(config.OllamaBaseURL)
	if err != nil {
		return err
	}
	if err := client.Heartbeat(ctx); err != nil {
		return fmt.Errorf("ollama api.Client.Heartbeat() failed: %w", err)
	}
	return nil
}

func newOllamaClient(baseURL string) (*api.Client, error) {
	if baseURL == "" {
		client, err := api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("ollama api.ClientFromEnvironment() failed: %w", err)
		}
		return client, nil
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("url.Parse() failed: %w", err)
	}
	return api.NewClient(base, http.DefaultClient), nil
}
