package scheduler

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/droverco/drover/sched"
)

func delayScheduler(t *testing.T, base, min, max time.Duration) *statefulScheduler {
	deps := getDefaultSchedDeps()
	deps.config.RetryBaseDelay = base
	deps.config.RetryMinDelay = min
	deps.config.RetryMaxDelay = max
	return makeSchedulerFromDeps(t, deps)
}

func jobWithAttempt(attempt int, mult float64) *sched.Job {
	return &sched.Job{
		Id:      "j1",
		Def:     sched.JobSpec{Type: "sim", BackoffMult: mult, MaxAttempts: 10},
		Attempt: attempt,
	}
}

// The documented schedule: d = base * multiplier^(attempt-1).
func TestRetryDelayGeometricGrowth(t *testing.T) {
	s := delayScheduler(t, time.Second, time.Second, 300*time.Second)

	cases := []struct {
		attempt int
		mult    float64
		want    time.Duration
	}{
		{1, 2, time.Second},
		{2, 2, 2 * time.Second},
		{3, 2, 4 * time.Second},
		{4, 2, 8 * time.Second},
		{1, 3, time.Second},
		{2, 3, 3 * time.Second},
		{3, 3, 9 * time.Second},
		{2, 1, time.Second}, // multiplier 1 never grows
	}
	for _, c := range cases {
		got := s.retryDelay(jobWithAttempt(c.attempt, c.mult))
		if got != c.want {
			t.Errorf("attempt %d mult %v: expected %s, got %s", c.attempt, c.mult, c.want, got)
		}
	}
}

func TestRetryDelayClamps(t *testing.T) {
	s := delayScheduler(t, time.Second, 2*time.Second, 10*time.Second)

	if got := s.retryDelay(jobWithAttempt(1, 2)); got != 2*time.Second {
		t.Error("delay below min must clamp up, got: ", got)
	}
	if got := s.retryDelay(jobWithAttempt(9, 2)); got != 10*time.Second {
		t.Error("delay above max must clamp down, got: ", got)
	}
}

// Property: the delay always lands in [min, max] and never shrinks as
// attempts accumulate.
func TestProperty_RetryDelayBounds(t *testing.T) {
	s := delayScheduler(t, time.Second, time.Second, 300*time.Second)
	properties := gopter.NewProperties(nil)

	properties.Property("delay within clamp and monotone in attempt", prop.ForAll(
		func(attempt int, multTenths int) bool {
			mult := 1.0 + float64(multTenths)/10.0
			d := s.retryDelay(jobWithAttempt(attempt, mult))
			if d < s.config.RetryMinDelay || d > s.config.RetryMaxDelay {
				return false
			}
			if attempt > 1 {
				prev := s.retryDelay(jobWithAttempt(attempt-1, mult))
				if d < prev {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 12),
		gen.IntRange(0, 30),
	))

	properties.TestingRun(t)
}
