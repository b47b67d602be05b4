// Package features represents the optional per organization integrations.
// A nil field means the feature is disabled or not configured.
package features

import (
	"encoding/json"
	"fmt"
)

// Provider values the messaging collaborator understands. Any other value is
// stored as given.
const (
	ProviderEvolution = "evolution"
	ProviderZAPI      = "zapi"
)

// Config is the feature configuration of an organization.
type Config struct {
	WhatsApp     *bool   `json:"whatsapp,omitempty"`
	Provider     *string `json:"provider,omitempty"`
	InstanceName *string `json:"instance_name,omitempty"`
	APIURL       *string `json:"api_url,omitempty"`
	APIKey       *string `json:"api_key,omitempty"`
	AIAssistant  *bool   `json:"ai_assistant,omitempty"`
}

// WhatsAppEnabled reports whether messaging automation is switched on.
func (c Config) WhatsAppEnabled() bool {
	return c.WhatsApp != nil && *c.WhatsApp
}

// AIAssistantEnabled reports whether the assistant is switched on.
func (c Config) AIAssistantEnabled() bool {
	return c.AIAssistant != nil && *c.AIAssistant
}

// IsZero reports whether nothing is configured.
func (c Config) IsZero() bool {
	return c == Config{}
}

// Masked returns a copy with the credential hidden.
func (c Config) Masked() Config {
	if c.APIKey != nil && *c.APIKey != "" {
		m := "********"
		c.APIKey = &m
	}

	return c
}

// Marshal encodes the configuration for storage.
func (c Config) Marshal() ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal features: %w", err)
	}

	return data, nil
}

// Unmarshal decodes a stored configuration. Empty input is an empty config.
func Unmarshal(data []byte) (Config, error) {
	if len(data) == 0 {
		return Config{}, nil
	}

	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("unmarshal features: %w", err)
	}

	return c, nil
}
