package features_test

import (
	"testing"

	"github.com/jcpaschoal/crm-tenancy/business/types/features"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestAbsentMeansDisabled(t *testing.T) {
	var c features.Config
	assert.True(t, c.IsZero())
	assert.False(t, c.WhatsAppEnabled())
	assert.False(t, c.AIAssistantEnabled())

	c.WhatsApp = ptr(false)
	assert.False(t, c.WhatsAppEnabled())

	c.WhatsApp = ptr(true)
	assert.True(t, c.WhatsAppEnabled())
}

func TestStorageEncoding(t *testing.T) {
	c := features.Config{
		WhatsApp: ptr(true),
		Provider: ptr(features.ProviderEvolution),
		APIKey:   ptr("secret"),
	}

	data, err := c.Marshal()
	require.NoError(t, err)
	assert.JSONEq(t, `{"whatsapp":true,"provider":"evolution","api_key":"secret"}`, string(data))

	got, err := features.Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, c, got)

	empty, err := features.Unmarshal(nil)
	require.NoError(t, err)
	assert.True(t, empty.IsZero())
}

func TestMasked(t *testing.T) {
	c := features.Config{APIKey: ptr("secret")}

	m := c.Masked()
	assert.Equal(t, "********", *m.APIKey)
	assert.Equal(t, "secret", *c.APIKey)
}
