package main

import (
	"errors"
	"testing"
	"time"

	"github.com/feral-file/ff-sovereignty/internal/api/shared/dto"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		want     string
	}{
		{
			name:     "milliseconds",
			duration: 500 * time.Millisecond,
			want:     "500ms",
		},
		{
			name:     "seconds",
			duration: 5 * time.Second,
			want:     "5.00s",
		},
		{
			name:     "minutes",
			duration: 2*time.Minute + 30*time.Second,
			want:     "2m 30s",
		},
		{
			name:     "hours",
			duration: 1*time.Hour + 15*time.Minute,
			want:     "1h 15m",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatDuration(tt.duration)
			if got != tt.want {
				t.Errorf("formatDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		err       error
		want      string
		wantRaise int64
	}{
		{
			name:      "accepted bid raises the minimum",
			status:    200,
			body:      `{"id":"a1","min_next_bid":121}`,
			want:      "ACCEPTED",
			wantRaise: 121,
		},
		{
			name:      "too low carries the minimum",
			status:    409,
			body:      `{"code":"TOO_LOW","message":"bid too low","min_next_bid":140,"version":7}`,
			want:      "TOO_LOW",
			wantRaise: 140,
		},
		{
			name:   "rate limited",
			status: 429,
			body:   `{"code":"RATE_LIMITED","message":"slow down","retry_after_seconds":2}`,
			want:   "RATE_LIMITED",
		},
		{
			name:   "body without code",
			status: 502,
			body:   `<html>bad gateway</html>`,
			want:   "HTTP_502",
		},
		{
			name: "transport failure",
			err:  errors.New("connection refused"),
			want: "TRANSPORT_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var raised int64
			got := classify(tt.status, []byte(tt.body), tt.err, func(v int64) { raised = v })
			if got != tt.want {
				t.Errorf("classify() = %v, want %v", got, tt.want)
			}
			if raised != tt.wantRaise {
				t.Errorf("classify() raised %v, want %v", raised, tt.wantRaise)
			}
		})
	}
}

func TestPercentile(t *testing.T) {
	var sorted []time.Duration
	for i := 1; i <= 100; i++ {
		sorted = append(sorted, time.Duration(i)*time.Millisecond)
	}

	tests := []struct {
		name string
		p    float64
		want time.Duration
	}{
		{name: "p50", p: 50, want: 50 * time.Millisecond},
		{name: "p99", p: 99, want: 99 * time.Millisecond},
		{name: "max", p: 100, want: 100 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := percentile(sorted, tt.p)
			if got != tt.want {
				t.Errorf("percentile() = %v, want %v", got, tt.want)
			}
		})
	}

	if got := percentile(nil, 50); got != 0 {
		t.Errorf("percentile() of empty = %v, want 0", got)
	}
}

func TestSortedOutcomes(t *testing.T) {
	stats := &RunStats{Outcomes: map[string]int{
		"TOO_LOW":      40,
		"ACCEPTED":     3,
		"RATE_LIMITED": 40,
		"STALE_STATE":  7,
	}}

	got := sortedOutcomes(stats)
	want := []string{"ACCEPTED", "RATE_LIMITED", "TOO_LOW", "STALE_STATE"}
	if len(got) != len(want) {
		t.Fatalf("sortedOutcomes() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sortedOutcomes()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestBidCountConsistent(t *testing.T) {
	tests := []struct {
		name  string
		stats *RunStats
		want  bool
	}{
		{
			name: "matches accepted responses",
			stats: &RunStats{
				Outcomes:        map[string]int{"ACCEPTED": 4, "TOO_LOW": 10},
				InitialBidCount: 2,
				Final:           &dto.AuctionResponse{BidCount: 6},
			},
			want: true,
		},
		{
			name: "lost bid",
			stats: &RunStats{
				Outcomes: map[string]int{"ACCEPTED": 4},
				Final:    &dto.AuctionResponse{BidCount: 3},
			},
			want: false,
		},
		{
			name:  "no final state",
			stats: &RunStats{Outcomes: map[string]int{}},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.stats.bidCountConsistent()
			if got != tt.want {
				t.Errorf("bidCountConsistent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPercentageString(t *testing.T) {
	tests := []struct {
		name  string
		part  int
		total int
		want  string
	}{
		{
			name:  "50 percent",
			part:  1,
			total: 2,
			want:  "50.00%",
		},
		{
			name:  "100 percent",
			part:  5,
			total: 5,
			want:  "100.00%",
		},
		{
			name:  "0 percent",
			part:  0,
			total: 5,
			want:  "0.00%",
		},
		{
			name:  "division by zero",
			part:  5,
			total: 0,
			want:  "0.00%",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := percentageString(tt.part, tt.total)
			if got != tt.want {
				t.Errorf("percentageString() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatusEmoji(t *testing.T) {
	tests := []struct {
		name    string
		passed  int
		failed  int
		pending int
		want    string
	}{
		{
			name:    "pending",
			passed:  0,
			failed:  0,
			pending: 1,
			want:    "🟡",
		},
		{
			name:    "failed",
			passed:  1,
			failed:  1,
			pending: 0,
			want:    "❌",
		},
		{
			name:    "passed",
			passed:  5,
			failed:  0,
			pending: 0,
			want:    "✅",
		},
		{
			name:    "none",
			passed:  0,
			failed:  0,
			pending: 0,
			want:    "⚪",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := statusEmoji(tt.passed, tt.failed, tt.pending)
			if got != tt.want {
				t.Errorf("statusEmoji() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatRate(t *testing.T) {
	tests := []struct {
		name     string
		count    int
		duration time.Duration
		want     string
	}{
		{
			name:     "1 per second",
			count:    10,
			duration: 10 * time.Second,
			want:     "1.00/s",
		},
		{
			name:     "2 per second",
			count:    20,
			duration: 10 * time.Second,
			want:     "2.00/s",
		},
		{
			name:     "zero duration",
			count:    10,
			duration: 0,
			want:     "N/A",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatRate(tt.count, tt.duration)
			if got != tt.want {
				t.Errorf("formatRate() = %v, want %v", got, tt.want)
			}
		})
	}
}
