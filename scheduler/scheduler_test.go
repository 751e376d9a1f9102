package scheduler

import (
	"context"
	"fmt"
	"testing"

	"homeval/models"
	"homeval/scraper"
)

type stubRunner struct {
	err   error
	calls int
	input models.PassiveInput
}

func (s *stubRunner) SiteID() string { return "cian" }

func (s *stubRunner) RunPassive(ctx context.Context, in models.PassiveInput) (*models.PassiveResult, error) {
	s.calls++
	s.input = in
	if s.err != nil {
		return nil, s.err
	}
	return &models.PassiveResult{Summary: &models.SummaryRecord{}}, nil
}

func TestCanaryCheck(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want models.RunStatus
	}{
		{"ok", nil, models.RunStatusCompleted},
		{"drift", fmt.Errorf("calc: %w", scraper.ErrNotFound), models.RunStatusNotFound},
		{"blocked", &scraper.BlockedError{Status: 403}, models.RunStatusBlocked},
	}
	for _, tc := range cases {
		runner := &stubRunner{err: tc.err}
		in := models.PassiveInput{Address: "Москва, улица Усиевича, 1", TotalArea: "52.7"}
		c := New(runner, in, "@every 1h")

		if got := c.Check(context.Background()); got != tc.want {
			t.Errorf("%s: status %s, want %s", tc.name, got, tc.want)
		}
		if c.Last() != tc.want {
			t.Errorf("%s: last %s, want %s", tc.name, c.Last(), tc.want)
		}
		if runner.calls != 1 || runner.input != in {
			t.Errorf("%s: runner called %d times with %+v", tc.name, runner.calls, runner.input)
		}
	}
}

func TestCanaryStartRejectsBadSpec(t *testing.T) {
	c := New(&stubRunner{}, models.PassiveInput{}, "not a cron")
	if err := c.Start(context.Background()); err == nil {
		t.Fatalf("expected invalid cron error")
	}

	empty := New(&stubRunner{}, models.PassiveInput{}, "")
	if err := empty.Start(context.Background()); err == nil {
		t.Fatalf("expected error for empty cron expression")
	}
}
