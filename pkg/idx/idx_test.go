package idx_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/locker/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	id := idx.New()
	require.Len(t, id.String(), 26)
	require.True(t, idx.Valid(id.String()))
	require.WithinDuration(t, time.Now(), time.UnixMilli(int64(id.Time())), time.Second)
}

func TestAt_Monotonic(t *testing.T) {
	at := time.UnixMilli(1700000000000)
	prev := idx.At(at)
	for range 100 {
		next := idx.At(at)
		require.Equal(t, -1, prev.Compare(next))
		prev = next
	}

	require.Equal(t, -1, idx.At(at).Compare(idx.At(at.Add(time.Second))), "later timestamps sort after")
}

func TestValid(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{idx.New().String(), true},
		{"", false},
		{"not-a-ulid", false},
		{"01HQ7T3Z1MZ0JQ3M6MZQ1FQ3Z", false},
		{"01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZU", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			require.Equal(t, tt.want, idx.Valid(tt.in))
		})
	}
}
