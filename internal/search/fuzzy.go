package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/teemow/calendar-agent/internal/calendar"
	"github.com/teemow/calendar-agent/internal/instrumentation"
	"github.com/teemow/calendar-agent/internal/logging"
	"github.com/teemow/calendar-agent/internal/timeutil"
)

// Match tells which pass produced a result.
type Match string

const (
	// MatchExact means the keyword is a substring of the summary or description.
	MatchExact Match = "exact"
	// MatchClose means the fuzzy pass found events above the threshold.
	MatchClose Match = "close"
	// MatchNone means neither pass found anything.
	MatchNone Match = "none"
)

const (
	// DefaultThreshold is the minimum similarity ratio for a close match.
	DefaultThreshold = 0.6
	// DefaultWindowYears is how far ahead of now events are searched.
	DefaultWindowYears = 1
)

// EventLister is the part of the calendar gateway the engine needs.
type EventLister interface {
	ListEvents(ctx context.Context, opts calendar.ListOptions) ([]calendar.Event, error)
}

// Options tunes a search.
type Options struct {
	Threshold   float64
	WindowYears int
	PageSize    int64
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		Threshold:   DefaultThreshold,
		WindowYears: DefaultWindowYears,
		PageSize:    calendar.MaxPageSize,
	}
}

// Result holds the events found and the pass that found them.
type Result struct {
	Match  Match
	Events []calendar.Event
}

// Empty reports whether nothing matched.
func (r Result) Empty() bool {
	return len(r.Events) == 0
}

// Engine runs searches against a calendar.
type Engine struct {
	lister  EventLister
	opts    Options
	clock   timeutil.Clock
	logger  logging.Logger
	metrics *instrumentation.Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithOptions overrides the default search options. Zero fields keep their defaults.
func WithOptions(opts Options) Option {
	return func(e *Engine) {
		if opts.Threshold > 0 {
			e.opts.Threshold = opts.Threshold
		}
		if opts.WindowYears > 0 {
			e.opts.WindowYears = opts.WindowYears
		}
		if opts.PageSize > 0 {
			e.opts.PageSize = opts.PageSize
		}
	}
}

// WithClock sets the clock used to compute the search window.
func WithClock(clock timeutil.Clock) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithMetrics records which pass resolved each search.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine creates a search engine on top of lister.
func NewEngine(lister EventLister, opts ...Option) *Engine {
	e := &Engine{
		lister: lister,
		opts:   DefaultOptions(),
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search finds the events matching keyword in the given calendar. An empty
// calendarID means the primary calendar. A failure to fetch events is returned
// as an error, never as an empty result.
func (e *Engine) Search(ctx context.Context, keyword, calendarID string) (Result, error) {
	events, err := e.lister.ListEvents(ctx, calendar.ListOptions{
		CalendarID: calendarID,
		Start:      timeutil.Now(e.clock),
		End:        timeutil.Horizon(e.clock, e.opts.WindowYears),
		MaxResults: e.opts.PageSize,
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to fetch events for search: %w", err)
	}

	res := e.match(keyword, events)
	e.metrics.RecordSearch(ctx, string(res.Match))
	e.logger.Debug("search finished",
		"keyword", keyword,
		"candidates", len(events),
		"match", string(res.Match),
		"found", len(res.Events))
	return res, nil
}

func (e *Engine) match(keyword string, events []calendar.Event) Result {
	needle := strings.ToLower(keyword)

	var exact []calendar.Event
	for _, ev := range events {
		if strings.Contains(strings.ToLower(ev.Summary), needle) ||
			strings.Contains(strings.ToLower(ev.Description), needle) {
			exact = append(exact, ev)
		}
	}
	if len(exact) > 0 {
		return Result{Match: MatchExact, Events: exact}
	}

	var similar []calendar.Event
	for _, ev := range events {
		if Ratio(needle, strings.ToLower(ev.Summary)) >= e.opts.Threshold ||
			Ratio(needle, strings.ToLower(ev.Description)) >= e.opts.Threshold {
			similar = append(similar, ev)
		}
	}
	if len(similar) > 0 {
		return Result{Match: MatchClose, Events: similar}
	}
	return Result{Match: MatchNone, Events: []calendar.Event{}}
}

// Ratio returns the similarity of a and b in [0, 1], computed as 2*M/T where
// M is the number of matching runes and T the total number of runes in both.
// Two empty strings are identical.
func Ratio(a, b string) float64 {
	return difflib.NewMatcher(runes(a), runes(b)).Ratio()
}

func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
