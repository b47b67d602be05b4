package password_test

import (
	"fmt"
	"testing"

	"github.com/jcpaschoal/crm-tenancy/business/types/password"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	_, err := password.Parse("")
	assert.Error(t, err)

	p, err := password.Parse("s3cret!")
	require.NoError(t, err)
	assert.Equal(t, "s3cret!", p.Reveal())
	assert.Equal(t, "[MASKED]", fmt.Sprint(p))
}
