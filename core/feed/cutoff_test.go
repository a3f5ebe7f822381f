package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEODCutoff(t *testing.T) {
	loc := time.UTC
	day := func(y int, m time.Month, d, h int) time.Time {
		return time.Date(y, m, d, h, 0, 0, 0, loc)
	}

	tests := []struct {
		name    string
		now     time.Time
		holiday bool
		want    time.Time
	}{
		{
			// Wednesday 18:00, before the 19:00 publish time: Tuesday's data
			// is the freshest available.
			name: "before publish hour uses prior day",
			now:  day(2024, time.March, 13, 18),
			want: day(2024, time.March, 12, 19),
		},
		{
			name: "after publish hour uses same day",
			now:  day(2024, time.March, 13, 20),
			want: day(2024, time.March, 13, 19),
		},
		{
			// Holiday Wednesday rolls one additional day back.
			name:    "holiday rolls back one more day",
			now:     day(2024, time.March, 13, 20),
			holiday: true,
			want:    day(2024, time.March, 12, 19),
		},
		{
			// Saturday rolls back to Friday.
			name: "saturday rolls back to friday",
			now:  day(2024, time.March, 16, 12),
			want: day(2024, time.March, 15, 19),
		},
		{
			name: "sunday rolls back to friday",
			now:  day(2024, time.March, 17, 22),
			want: day(2024, time.March, 15, 19),
		},
		{
			// Monday morning before publish: Sunday, then weekend roll
			// lands on Friday.
			name: "monday morning rolls across weekend",
			now:  day(2024, time.March, 18, 8),
			want: day(2024, time.March, 15, 19),
		},
		{
			// Holiday Monday after publish: Sunday, rolled back to Friday.
			name:    "holiday monday rolls across weekend",
			now:     day(2024, time.March, 18, 20),
			holiday: true,
			want:    day(2024, time.March, 15, 19),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EODCutoff(tt.now, tt.holiday, 19)
			assert.Equal(t, tt.want, got)
		})
	}
}
