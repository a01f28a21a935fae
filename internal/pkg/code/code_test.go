package code

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNumeric_FixedWidthDigits(t *testing.T) {
	for i := 0; i < 200; i++ {
		c, err := NewNumeric()
		require.NoError(t, err)
		require.Len(t, c, Width)
		for _, r := range c {
			assert.True(t, r >= '0' && r <= '9', "unexpected rune %q in %q", r, c)
		}
	}
}
