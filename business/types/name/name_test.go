package name_test

import (
	"strings"
	"testing"

	"github.com/jcpaschoal/crm-tenancy/business/types/name"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	n, err := name.Parse("  Clínica São José ")
	require.NoError(t, err)
	assert.Equal(t, "Clínica São José", n.String())

	_, err = name.Parse("   ")
	assert.Error(t, err)

	_, err = name.Parse("bad\x00name")
	assert.Error(t, err)

	_, err = name.Parse(strings.Repeat("é", 121))
	assert.Error(t, err)

	_, err = name.Parse(strings.Repeat("é", 120))
	assert.NoError(t, err)
}
