package scraper

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"homeval/config"
	"homeval/extract"
	"homeval/logging"
	"homeval/models"
)

type State string

const (
	StateLaunched             State = "Launched"
	StateNavigated            State = "Navigated"
	StateAddressEntered       State = "AddressEntered"
	StateSuggestionSelected   State = "SuggestionSelected"
	StateRoomNumberEntered    State = "RoomNumberEntered"
	StateRoomsCountSelected   State = "RoomsCountSelected"
	StateAreaEntered          State = "AreaEntered"
	StateNotificationsToggled State = "NotificationsToggled"
	StateFormSubmitted        State = "FormSubmitted"
	StateSurveyDismissed      State = "SurveyDismissed"
	StateDetailNavigated      State = "DetailNavigated"
	StateExtracted            State = "Extracted"
	StateClosed               State = "Closed"
)

// Page locators for the valuation flow.
const (
	addressInput      = "#geo-suggest-input"
	addressSuggestion = `[data-group="addresses"] [class*="item"]`
	roomNumberInput   = `[data-name="RoomNumberInput"] input`
	roomsCountFilter  = `[data-name="roomsCount_filter"]`
	areaInput         = `[data-name="AreaInput"] input`
	notificationsSw   = `[data-name="SwitchComponent"]`
	submitButton      = `[data-name="AddNewCardButton"]`
	surveyCards       = `[data-name="CardsQuestion"]`
	surveyCard        = `[data-name="Card"]`
	offerHistory      = `[data-name="OfferHistoryLayout"]`

	maxRoomsLabel = "4+"
)

// Observer is told about every state the sequencer reaches.
type Observer func(state State, step string)

// ArtifactSink stores failure diagnostics and returns where they went.
type ArtifactSink interface {
	Save(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Sequencer replays the valuation form flow in one browser session and
// extracts the report page it lands on. A Sequencer serves one run at a time;
// concurrent runs use separate Sequencers.
type Sequencer struct {
	driver  Driver
	site    *config.SiteConfig
	browser config.BrowserConfig
	engine  *extract.Engine

	observer       Observer
	sink           ArtifactSink
	artifactPrefix string
}

func NewSequencer(driver Driver, site *config.SiteConfig, browser config.BrowserConfig, engine *extract.Engine) *Sequencer {
	return &Sequencer{
		driver:  driver,
		site:    site,
		browser: browser,
		engine:  engine,
	}
}

func (s *Sequencer) WithObserver(o Observer) *Sequencer {
	s.observer = o
	return s
}

// WithArtifacts enables screenshot and HTML capture on failure, stored under
// prefix.
func (s *Sequencer) WithArtifacts(sink ArtifactSink, prefix string) *Sequencer {
	s.sink = sink
	s.artifactPrefix = prefix
	return s
}

type step struct {
	name string
	to   State
	do   func(ctx context.Context, opts StepOptions) error
}

// Run drives the flow for in. Input is validated before any browser starts.
// The session is closed on every exit path unless KeepOpen is set.
func (s *Sequencer) Run(ctx context.Context, in models.ValuationInput) (*models.ActiveResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	url, err := s.site.Endpoint("my_home")
	if err != nil {
		return nil, err
	}

	sess, err := s.driver.Launch(ctx)
	if err != nil {
		return nil, &StepError{Step: "launch", URL: url, Err: err}
	}
	s.enter(StateLaunched, "launch")

	defer func() {
		if s.browser.KeepOpen {
			log.Printf("[info] sequencer: keep-open mode, leaving %s session open", s.driver.Name())
			return
		}
		if err := sess.Close(); err != nil {
			logging.Warnf("sequencer: close session: %v", err)
		}
		s.enter(StateClosed, "close")
	}()

	var result *models.ActiveResult
	steps := s.steps(sess, url, in, &result)

	last := StateLaunched
	for _, st := range steps {
		opts := s.options(st.name)
		log.Printf("[info] sequencer: %s", st.name)
		if err := st.do(ctx, opts); err != nil {
			s.capture(ctx, sess, st.name)
			return nil, &StepError{Step: st.name, State: last, URL: url, Err: err}
		}
		last = st.to
		s.enter(st.to, st.name)
	}
	return result, nil
}

func (s *Sequencer) steps(sess Session, url string, in models.ValuationInput, result **models.ActiveResult) []step {
	flow := s.site.Flow
	return []step{
		{"navigate", StateNavigated, func(ctx context.Context, _ StepOptions) error {
			return sess.Goto(ctx, url, s.browser.NavigationTimeout)
		}},
		{"enter_address", StateAddressEntered, func(ctx context.Context, o StepOptions) error {
			return sess.Fill(ctx, Target{Selector: addressInput}, in.Address, o)
		}},
		{"select_suggestion", StateSuggestionSelected, func(ctx context.Context, o StepOptions) error {
			return sess.Click(ctx, Target{Selector: addressSuggestion}, o)
		}},
		{"enter_room_number", StateRoomNumberEntered, func(ctx context.Context, o StepOptions) error {
			return sess.Fill(ctx, Target{Selector: roomNumberInput}, in.RoomNumber, o)
		}},
		{"select_rooms_count", StateRoomsCountSelected, func(ctx context.Context, o StepOptions) error {
			label := RoomsLabel(in.RoomsCount, flow.StudioLabel)
			return sess.Click(ctx, Target{Within: roomsCountFilter, Text: label, Exact: true}, o)
		}},
		{"enter_area", StateAreaEntered, func(ctx context.Context, o StepOptions) error {
			return sess.Fill(ctx, Target{Selector: areaInput}, FormatArea(in.Area, flow.AreaDecimals), o)
		}},
		{"toggle_notifications", StateNotificationsToggled, func(ctx context.Context, o StepOptions) error {
			return sess.Click(ctx, Target{Selector: notificationsSw}, o)
		}},
		{"submit_form", StateFormSubmitted, func(ctx context.Context, o StepOptions) error {
			return sess.Click(ctx, Target{Selector: submitButton}, o)
		}},
		{"dismiss_survey", StateSurveyDismissed, func(ctx context.Context, o StepOptions) error {
			// Only the "report now" branch is supported.
			if err := sess.Click(ctx, Target{Text: flow.SurveySkipText}, s.options("skip_questionnaire")); err != nil {
				return err
			}
			return sess.Click(ctx, Target{Within: surveyCards, Selector: surveyCard, Nth: flow.SurveyCardIndex}, o)
		}},
		{"open_detail", StateDetailNavigated, func(ctx context.Context, o StepOptions) error {
			return sess.Click(ctx, Target{Within: offerHistory, Text: flow.DetailTabText}, o)
		}},
		{"extract", StateExtracted, func(ctx context.Context, o StepOptions) error {
			res, err := s.extract(ctx, sess)
			if err != nil {
				return err
			}
			*result = res
			return nil
		}},
	}
}

func (s *Sequencer) extract(ctx context.Context, sess Session) (*models.ActiveResult, error) {
	if err := sess.WaitForLoad(ctx, s.browser.LoadTimeout); err != nil {
		return nil, fmt.Errorf("wait for report: %w", err)
	}
	content, err := sess.Content(ctx)
	if err != nil {
		return nil, fmt.Errorf("read page: %w", err)
	}
	doc, err := extract.FromString(content)
	if err != nil {
		return nil, err
	}
	res, err := s.engine.Report(doc)
	if err != nil {
		return nil, fmt.Errorf("extract report: %w", err)
	}
	if res == nil {
		return nil, ErrNotFound
	}
	return res, nil
}

// options merges the per-step YAML settings with the global step timeout.
func (s *Sequencer) options(name string) StepOptions {
	cfg := s.site.Step(name)
	opts := StepOptions{Force: cfg.Force, Timeout: cfg.Timeout}
	if opts.Timeout <= 0 {
		opts.Timeout = s.browser.StepTimeout
	}
	return opts
}

func (s *Sequencer) enter(state State, step string) {
	if s.observer != nil {
		s.observer(state, step)
	}
}

// capture saves a screenshot and the page HTML. Failures here are logged and
// never mask the step error.
func (s *Sequencer) capture(ctx context.Context, sess Session, step string) {
	if s.sink == nil {
		return
	}
	// the run context may already be spent
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
	defer cancel()

	base := fmt.Sprintf("%s/%s-%s", s.artifactPrefix, time.Now().UTC().Format("20060102T150405Z"), step)

	if shot, err := sess.Screenshot(ctx); err != nil {
		logging.Warnf("sequencer: screenshot after %s failed: %v", step, err)
	} else if loc, err := s.sink.Save(ctx, base+".png", shot, "image/png"); err != nil {
		logging.Warnf("sequencer: save screenshot: %v", err)
	} else {
		log.Printf("[info] sequencer: screenshot saved to %s", loc)
	}

	if html, err := sess.Content(ctx); err != nil {
		logging.Warnf("sequencer: page content after %s failed: %v", step, err)
	} else if loc, err := s.sink.Save(ctx, base+".html", []byte(html), "text/html; charset=utf-8"); err != nil {
		logging.Warnf("sequencer: save html: %v", err)
	} else {
		log.Printf("[info] sequencer: page html saved to %s", loc)
	}
}

// RoomsLabel is the rooms filter button for a count: 1-4 use their own label,
// 5 and above share "4+", and 0 is the studio button.
func RoomsLabel(count int, studioLabel string) string {
	switch {
	case count <= 0:
		return studioLabel
	case count <= 4:
		return strconv.Itoa(count)
	default:
		return maxRoomsLabel
	}
}

// FormatArea renders the area the way it is typed into the form.
func FormatArea(area float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	return strconv.FormatFloat(area, 'f', decimals, 64)
}
