package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimitWindow(t *testing.T) {
	tests := []struct {
		name      string
		now       time.Time
		window    time.Duration
		wantIndex int64
		wantReset time.Time
	}{
		{
			name:      "mid minute resets at the next minute",
			now:       time.Unix(1_700_000_030, 0),
			window:    time.Minute,
			wantIndex: 1_700_000_030 / 60,
			wantReset: time.Unix(1_700_000_040, 0),
		},
		{
			name:      "window start",
			now:       time.Unix(1_700_000_040, 0),
			window:    time.Minute,
			wantIndex: 1_700_000_040 / 60,
			wantReset: time.Unix(1_700_000_100, 0),
		},
		{
			name:      "hour window",
			now:       time.Unix(7200+1800, 0),
			window:    time.Hour,
			wantIndex: 2,
			wantReset: time.Unix(3*3600, 0),
		},
		{
			name:      "sub-second window is one second",
			now:       time.Unix(10, 500),
			window:    time.Millisecond,
			wantIndex: 10,
			wantReset: time.Unix(11, 0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			index, reset := rateLimitWindow(tt.now, tt.window)
			assert.Equal(t, tt.wantIndex, index)
			assert.True(t, tt.wantReset.Equal(reset), "reset %v, want %v", reset, tt.wantReset)
		})
	}
}
