package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContentKey_Deterministic(t *testing.T) {
	a := ContentKey([]byte("gel image"))
	b := ContentKey([]byte("gel image"))
	c := ContentKey([]byte("gel image 2"))

	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
	require.Len(t, a, 64)
}
