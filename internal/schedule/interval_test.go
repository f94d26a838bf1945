package schedule

import (
	"testing"
	"time"

	"github.com/agendahq/agenda-go/internal/model"
)

func mustUTC(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return ts
}

func TestParseDuration_HumanInterval(t *testing.T) {
	base := mustUTC(t, "2026-01-01T00:00:00Z")
	d, err := ParseDuration("5 minutes", "UTC", base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != 300*time.Second {
		t.Fatalf("got %s, want 300s", d)
	}
}

func TestParseDuration_HumanInterval_Compact(t *testing.T) {
	base := mustUTC(t, "2026-01-01T00:00:00Z")
	for spec, want := range map[string]time.Duration{
		"5m":  5 * time.Minute,
		"2h":  2 * time.Hour,
		"7d":  7 * 24 * time.Hour,
		"1w":  7 * 24 * time.Hour,
		"30s": 30 * time.Second,
	} {
		d, err := ParseDuration(spec, "UTC", base)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", spec, err)
		}
		if d != want {
			t.Fatalf("%s: got %s, want %s", spec, d, want)
		}
	}
}

func TestParseDuration_DuplicateUnit(t *testing.T) {
	_, err := Parse("5 minutes 10 minutes")
	if err == nil {
		t.Fatal("expected error for duplicate unit")
	}
}

func TestParseDuration_NumericSeconds(t *testing.T) {
	iv, err := Parse("45")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if iv.Kind != KindNumeric || iv.Duration != 45*time.Second {
		t.Fatalf("got %+v", iv)
	}
}

func TestParse_NumericNonPositive(t *testing.T) {
	if _, err := Parse("0"); err == nil {
		t.Fatal("expected error for zero seconds")
	}
}

func TestParseDuration_Cron5Field(t *testing.T) {
	base := mustUTC(t, "2026-01-01T00:01:00Z")
	d, err := ParseDuration("*/5 * * * *", "UTC", base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != 240*time.Second {
		t.Fatalf("got %s, want 240s", d)
	}
}

func TestComputeNextRunAt_CronLookback(t *testing.T) {
	prev := mustUTC(t, "2026-01-01T00:05:00Z")
	finished := mustUTC(t, "2026-01-01T00:06:00Z")
	next, err := ComputeNextRunAt("*/5 * * * *", "UTC", &prev, &finished)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := mustUTC(t, "2026-01-01T00:10:00Z")
	if !next.Equal(want) {
		t.Fatalf("got %s, want %s", next, want)
	}
}

func TestComputeNextRunAt_DailyRollover(t *testing.T) {
	prev := mustUTC(t, "2026-01-01T10:00:00Z")
	finished := mustUTC(t, "2026-01-01T10:01:00Z")
	next, err := ComputeNextRunAt("AT 10:00", "UTC", &prev, &finished)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := mustUTC(t, "2026-01-02T10:00:00Z")
	if !next.Equal(want) {
		t.Fatalf("got %s, want %s", next, want)
	}
}

func TestComputeNextRunAt_BlankSpec(t *testing.T) {
	next, err := ComputeNextRunAt("", "UTC", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next != nil {
		t.Fatalf("expected nil next run, got %v", next)
	}
}

func TestParse_BlankIsInvalidSchedule(t *testing.T) {
	_, err := Parse("   ")
	if err != model.ErrInvalidSchedule {
		t.Fatalf("got %v, want ErrInvalidSchedule", err)
	}
}

func TestParse_CronSixField(t *testing.T) {
	iv, err := Parse("0 */5 * * * *")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if iv.Kind != KindCron {
		t.Fatalf("got kind %v, want cron", iv.Kind)
	}
}

func TestParse_GarbageFallsBackToInvalid(t *testing.T) {
	if _, err := Parse("not a schedule at all!!"); err == nil {
		t.Fatal("expected error")
	}
}

func TestValidTimeOfDay(t *testing.T) {
	if !ValidTimeOfDay("09:30") {
		t.Fatal("expected 09:30 to be valid")
	}
	if !ValidTimeOfDay("09:30:15") {
		t.Fatal("expected 09:30:15 to be valid")
	}
	if ValidTimeOfDay("25:00") {
		t.Fatal("expected 25:00 to be invalid")
	}
}
