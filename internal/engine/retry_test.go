package engine

import (
	"testing"
	"time"
)

func TestRetryDelay_Table(t *testing.T) {
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 10 * time.Second},
		{2, 20 * time.Second},
		{3, 40 * time.Second},
		{4, 80 * time.Second},
		{5, 160 * time.Second},
		{6, 320 * time.Second},
		{7, 10 * time.Minute},
		{8, 10 * time.Minute},
		{100, 10 * time.Minute},
	}
	for _, c := range cases {
		if got := retryDelay(c.attempt); got != c.want {
			t.Errorf("retryDelay(%d) = %s, want %s", c.attempt, got, c.want)
		}
	}
}

func TestPollBackoff_CapsAt60Seconds(t *testing.T) {
	cases := []struct {
		failures int
		want     time.Duration
	}{
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{7, 60 * time.Second},
		{10, 60 * time.Second},
		{50, 60 * time.Second},
	}
	for _, c := range cases {
		if got := pollBackoff(c.failures); got != c.want {
			t.Errorf("pollBackoff(%d) = %s, want %s", c.failures, got, c.want)
		}
	}
}
