package outcome

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForCounts(t *testing.T) {
	cases := []struct {
		name      string
		successes int
		errors    int
		want      Status
	}{
		{"all succeeded", 3, 0, Success},
		{"all failed", 0, 3, Failure},
		{"mixed", 2, 1, Partial},
		{"empty batch", 0, 0, Success},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ForCounts(tc.successes, tc.errors))
		})
	}
}

func TestNewBatchMeta(t *testing.T) {
	meta := NewBatchMeta(2, 1, 3)

	assert.Equal(t, 2, meta.SuccessCount)
	assert.Equal(t, 1, meta.ErrorCount)
	assert.Equal(t, 3, meta.TotalItems)
	assert.NotEmpty(t, meta.RequestID)
	assert.False(t, meta.Timestamp.IsZero())
}
