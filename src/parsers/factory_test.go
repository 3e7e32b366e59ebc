package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetParser(t *testing.T) {
	for _, format := range []string{"csv", "xlsx"} {
		p, err := GetParser(format)
		require.NoError(t, err, "format %s", format)
		assert.NotNil(t, p)
	}

	_, err := GetParser("pdf")
	assert.Error(t, err)
}
