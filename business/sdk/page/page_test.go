package page_test

import (
	"testing"

	"github.com/jcpaschoal/crm-tenancy/business/sdk/page"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	pg, err := page.Parse("", "")
	require.NoError(t, err)
	assert.Equal(t, 1, pg.Number())
	assert.Equal(t, 10, pg.RowsPerPage())

	pg, err = page.Parse("3", "20")
	require.NoError(t, err)
	assert.Equal(t, 40, pg.Offset())

	for _, tt := range []struct{ page, rows string }{
		{"0", "10"},
		{"1", "0"},
		{"1", "101"},
		{"x", "10"},
		{"1", "y"},
	} {
		_, err := page.Parse(tt.page, tt.rows)
		assert.Error(t, err, "page=%q rows=%q", tt.page, tt.rows)
	}
}
