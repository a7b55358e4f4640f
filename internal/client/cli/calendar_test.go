package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDay(t *testing.T) {
	now := time.Date(2025, 6, 10, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		expr string
		want string
	}{
		{"", "2025-06-10"},
		{"  ", "2025-06-10"},
		{"2025-05-01", "2025-05-01"},
		{"today", "2025-06-10"},
		{"yesterday", "2025-06-09"},
		{"tomorrow", "2025-06-11"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := resolveDay(tt.expr, now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveDay_NoDate(t *testing.T) {
	_, err := resolveDay("pipette tips", time.Now())
	assert.Error(t, err)
}
