package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"homeval/models"
	"homeval/scraper"
)

func TestFailedExitCodes(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&scraper.StepError{Step: "waitResult", State: scraper.StateAreaEntered, Err: context.DeadlineExceeded}, 5},
		{&scraper.BlockedError{Status: 403, URL: "https://www.cian.ru/"}, 4},
		{fmt.Errorf("summary: %w", scraper.ErrNotFound), 3},
		{fmt.Errorf("address: %w", scraper.ErrInvalidInput), 2},
		{errors.New("browser crashed"), 1},
	}
	for _, tt := range tests {
		if got := failed(tt.err); got != tt.want {
			t.Errorf("failed(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestExitCodeCompleted(t *testing.T) {
	if got := exitCode(models.RunStatusCompleted); got != 0 {
		t.Fatalf("completed run should exit 0, got %d", got)
	}
	if got := exitCode(models.RunStatusRunning); got != 1 {
		t.Fatalf("unfinished run should exit 1, got %d", got)
	}
}
