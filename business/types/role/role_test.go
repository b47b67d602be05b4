package role_test

import (
	"encoding/json"
	"testing"

	"github.com/jcpaschoal/crm-tenancy/business/types/role"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	for _, v := range []string{"super_admin", "admin", "user", "professional"} {
		r, err := role.Parse(v)
		require.NoError(t, err)
		assert.Equal(t, v, r.String())
	}

	_, err := role.Parse("ADMIN")
	assert.Error(t, err)

	_, err = role.Parse("")
	assert.Error(t, err)
}

func TestTenantScoped(t *testing.T) {
	assert.False(t, role.SuperAdmin.TenantScoped())
	assert.True(t, role.Admin.TenantScoped())
	assert.True(t, role.User.TenantScoped())
	assert.True(t, role.Professional.TenantScoped())
}

func TestJSON(t *testing.T) {
	var v struct {
		Role role.Role `json:"role"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"role":"professional"}`), &v))
	assert.True(t, v.Role.Equal(role.Professional))

	assert.Error(t, json.Unmarshal([]byte(`{"role":"owner"}`), &v))
}
