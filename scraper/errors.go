package scraper

import (
	"context"
	"errors"
	"fmt"

	"github.com/chromedp/chromedp"
	"github.com/playwright-community/playwright-go"

	"homeval/models"
)

var (
	ErrNotFound        = errors.New("extraction root not found")
	ErrUpstreamBlocked = errors.New("upstream blocked")
	ErrTimeout         = errors.New("timeout")
	ErrUnexpected      = errors.New("unexpected failure")
	ErrInvalidInput    = models.ErrInvalidInput
)

// StepError records which sequencer step failed, the last state reached and
// the page being driven.
type StepError struct {
	Step  string
	State State
	URL   string
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s failed after %s (%s): %v", e.Step, e.State, e.URL, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Is reports ErrTimeout for browser and context deadlines, and ErrUnexpected
// for any other cause that is not already a typed failure.
func (e *StepError) Is(target error) bool {
	switch target {
	case ErrTimeout:
		return isTimeout(e.Err)
	case ErrUnexpected:
		return !isTimeout(e.Err) &&
			!errors.Is(e.Err, ErrNotFound) &&
			!errors.Is(e.Err, ErrUpstreamBlocked) &&
			!errors.Is(e.Err, ErrInvalidInput)
	}
	return false
}

func isTimeout(err error) bool {
	return errors.Is(err, ErrTimeout) ||
		errors.Is(err, playwright.ErrTimeout) ||
		errors.Is(err, chromedp.ErrPollingTimeout) ||
		errors.Is(err, context.DeadlineExceeded)
}

// BlockedError is returned when the site answers with a non-200 status or an
// anti-bot page.
type BlockedError struct {
	Status int
	URL    string
	Marker string
}

func (e *BlockedError) Error() string {
	if e.Marker != "" {
		return fmt.Sprintf("upstream blocked: status %d, marker %q at %s", e.Status, e.Marker, e.URL)
	}
	return fmt.Sprintf("upstream blocked: status %d at %s", e.Status, e.URL)
}

func (e *BlockedError) Is(target error) bool {
	return target == ErrUpstreamBlocked
}

// Classify maps a run error to the status recorded for it.
func Classify(err error) models.RunStatus {
	switch {
	case err == nil:
		return models.RunStatusCompleted
	case errors.Is(err, ErrInvalidInput):
		return models.RunStatusInvalid
	case errors.Is(err, ErrUpstreamBlocked):
		return models.RunStatusBlocked
	case errors.Is(err, ErrNotFound):
		return models.RunStatusNotFound
	case isTimeout(err):
		return models.RunStatusTimeout
	default:
		return models.RunStatusFailed
	}
}
