package status_test

import (
	"testing"

	"github.com/jcpaschoal/crm-tenancy/business/types/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	s, err := status.Parse("blocked")
	require.NoError(t, err)
	assert.True(t, s.Equal(status.Blocked))

	_, err = status.Parse("deleted")
	assert.Error(t, err)
}

func TestAllowsLogin(t *testing.T) {
	assert.True(t, status.Active.AllowsLogin())
	assert.False(t, status.Blocked.AllowsLogin())
	assert.False(t, status.Inactive.AllowsLogin())
}
