package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_DefinesEveryView(t *testing.T) {
	tmpl, err := Parse()
	require.NoError(t, err)

	for _, name := range []string{"layout", "form", "loading", "results"} {
		assert.NotNil(t, tmpl.Lookup(name), name)
	}
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "R$ 12,50", Money(12.5))
	assert.Equal(t, "R$ 0,00", Money(0))
	assert.Equal(t, "R$ 1234,57", Money(1234.567))
}

func TestNum(t *testing.T) {
	assert.Equal(t, "2094", Num(2094))
	assert.Equal(t, "22.9", Num(22.9))
}
