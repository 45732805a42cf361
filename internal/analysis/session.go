package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/roach88/ziwei/internal/astro"
	"github.com/roach88/ziwei/internal/chart"
	"github.com/roach88/ziwei/internal/charts"
	"github.com/roach88/ziwei/internal/payload"
	"github.com/roach88/ziwei/internal/reasoner"
	"github.com/roach88/ziwei/internal/settings"
	"github.com/roach88/ziwei/internal/token"
)

// State is the lifecycle state of a Session.
type State int

const (
	Idle State = iota
	Requesting
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Requesting:
		return "requesting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var (
	// ErrAlreadyInFlight is returned by Start while a request is pending.
	// Nothing was dispatched; callers normally ignore it.
	ErrAlreadyInFlight = errors.New("analysis already in flight")

	// ErrSuperseded is returned when the response arrived after the session
	// moved to another chart. The response was discarded.
	ErrSuperseded = errors.New("analysis superseded")
)

// User-visible notices.
const (
	NoticeInterpretFailed = "AI 解读失败，请稍后重试"
	NoticeAutoSaveFailed  = "自动保存失败，请重试"
	NoticeSaveFailed      = "保存解读失败，请重试"
)

// Notifier shows a transient message to the user.
type Notifier interface {
	Notify(message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

// Notify implements Notifier.
func (f NotifierFunc) Notify(message string) { f(message) }

// SettingsLoader loads the chart configuration in effect.
type SettingsLoader interface {
	Load(ctx context.Context) (settings.Settings, error)
}

// RequestContext ties one request to the record its result belongs to.
type RequestContext struct {
	Token          string
	TargetRecordID string
}

// Outcome is a completed request.
type Outcome struct {
	Request RequestContext
	// Content is the trimmed interpretation.
	Content string
	// Record is the record the interpretation was stored on. It is the zero
	// Record if the durable write failed.
	Record chart.Record
	// DocumentHash identifies the analysis document that was sent.
	DocumentHash string
}

// Session is the interpretation workflow for one displayed chart.
//
// Thread-safety: safe for concurrent use. The lock is never held while the
// reasoner is being called.
type Session struct {
	charts   *charts.Store
	engine   astro.Engine
	reasoner reasoner.Reasoner
	settings SettingsLoader
	tokens   token.Generator
	clock    token.Clock
	notifier Notifier
	log      logrus.FieldLogger

	mu        sync.Mutex
	chart     chart.Chart
	state     State
	current   RequestContext
	activeID  string
	displayed string
}

// Option configures a Session.
type Option func(*Session)

// WithSettings sets the configuration source. Defaults to settings.Default.
func WithSettings(l SettingsLoader) Option {
	return func(s *Session) { s.settings = l }
}

// WithTokens sets the request token generator. Defaults to UUIDv7.
func WithTokens(g token.Generator) Option {
	return func(s *Session) { s.tokens = g }
}

// WithClock sets the clock for the horoscope instant and interpretation
// timestamps.
func WithClock(c token.Clock) Option {
	return func(s *Session) { s.clock = c }
}

// WithNotifier sets the user notice sink. Defaults to logging.
func WithNotifier(n Notifier) Option {
	return func(s *Session) { s.notifier = n }
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Session) { s.log = log }
}

// NewSession creates an Idle session showing c. The displayed result starts
// as the interpretation stored on the record equivalent to c, if any.
func NewSession(store *charts.Store, engine astro.Engine, r reasoner.Reasoner, c chart.Chart, opts ...Option) *Session {
	s := &Session{
		charts:   store,
		engine:   engine,
		reasoner: r,
		tokens:   token.UUIDv7Generator{},
		clock:    token.RealClock{},
		log:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithField("component", "analysis")
	if s.notifier == nil {
		s.notifier = NotifierFunc(func(msg string) { s.log.Warn(msg) })
	}
	s.setChartLocked(c)
	return s
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Displayed returns the interpretation currently shown, or "".
func (s *Session) Displayed() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.displayed
}

// ActiveRecordID returns the id of the record backing the session, or "".
func (s *Session) ActiveRecordID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// Chart returns the chart being analyzed.
func (s *Session) Chart() chart.Chart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chart
}

// SetChart switches the session to c and returns it to Idle. A request in
// flight for the previous chart is superseded.
func (s *Session) SetChart(c chart.Chart) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setChartLocked(c)
}

func (s *Session) setChartLocked(c chart.Chart) {
	s.chart = c
	s.state = Idle
	s.current = RequestContext{}
	s.activeID = ""
	s.displayed = ""
	if rec, ok := s.charts.FindByIdentity(c); ok && rec.HasInterpretation() {
		s.displayed = rec.Interpretation.Content
	}
}

// Start runs one interpretation request for the targets in sel and blocks
// until it completes.
//
// On success the trimmed content is displayed and stored on the request's
// target record; a failed durable write is notified and returned alongside
// the Outcome. On failure the previously displayed result is restored and
// the store is left untouched.
func (s *Session) Start(ctx context.Context, sel payload.Selection) (Outcome, error) {
	s.mu.Lock()
	if s.state == Requesting {
		s.mu.Unlock()
		return Outcome{}, ErrAlreadyInFlight
	}
	rc := RequestContext{Token: s.tokens.Generate()}
	s.current = rc
	s.state = Requesting
	previous := s.displayed
	s.displayed = ""
	c := s.chart

	var notice string
	rec, created, err := s.charts.FindOrCreate(ctx, c)
	if err != nil {
		s.log.WithError(err).Warn("backing record not saved")
		notice = NoticeAutoSaveFailed
	} else {
		s.activeID = rec.ID
		if created {
			s.log.WithField("id", rec.ID).Debug("backing record created")
		}
	}
	rc.TargetRecordID = s.activeID
	s.current = rc
	s.mu.Unlock()
	s.notify(notice)

	log := s.log.WithFields(logrus.Fields{"token": rc.Token, "record": rc.TargetRecordID})

	req, hash, err := s.prepare(ctx, c, sel)
	if err == nil {
		var content string
		content, err = s.reasoner.Interpret(ctx, req)
		if err == nil {
			content = strings.TrimSpace(content)
			if content == "" {
				err = chart.NewServiceError("analysis.start", "empty response", nil)
			}
		}
		if err == nil {
			out, notice, err := s.complete(ctx, log, rc, c, content, hash)
			s.notify(notice)
			return out, err
		}
	}
	notice, err = s.fail(log, rc, previous, err)
	s.notify(notice)
	return Outcome{}, err
}

// notify delivers msg outside the session lock so the sink may read state.
func (s *Session) notify(msg string) {
	if msg != "" {
		s.notifier.Notify(msg)
	}
}

// Document builds the analysis document for the current chart, using the
// configuration in effect and the horoscope at the clock's now. It takes no
// session lock while building.
func (s *Session) Document(ctx context.Context, sel payload.Selection) (*payload.Document, error) {
	return s.document(ctx, s.Chart(), sel)
}

// prepare builds the request for c. It takes no session lock.
func (s *Session) prepare(ctx context.Context, c chart.Chart, sel payload.Selection) (reasoner.Request, string, error) {
	doc, err := s.document(ctx, c, sel)
	if err != nil {
		return reasoner.Request{}, "", err
	}
	prompt, err := doc.UserPrompt()
	if err != nil {
		return reasoner.Request{}, "", err
	}
	hash, err := doc.Hash()
	if err != nil {
		return reasoner.Request{}, "", err
	}
	return reasoner.NewRequest(payload.SystemPrompt, prompt), hash, nil
}

func (s *Session) document(ctx context.Context, c chart.Chart, sel payload.Selection) (*payload.Document, error) {
	cfg := settings.Default()
	if s.settings != nil {
		loaded, err := s.settings.Load(ctx)
		if err != nil {
			s.log.WithError(err).Warn("settings unavailable, using defaults")
		} else {
			cfg = loaded
		}
	}

	a, err := s.engine.Astrolabe(ctx, c, cfg)
	if err != nil {
		return nil, fmt.Errorf("astrolabe: %w", err)
	}
	h, err := s.engine.Horoscope(ctx, a, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("horoscope: %w", err)
	}

	return payload.Build(payload.Input{
		Name:      c.DisplayName(),
		Gender:    c.Birth.Gender,
		Astrolabe: a,
		Horoscope: h,
	}, sel, cfg)
}

// complete commits content and returns the notice to deliver once the lock
// is released.
func (s *Session) complete(ctx context.Context, log logrus.FieldLogger, rc RequestContext, c chart.Chart, content, hash string) (Outcome, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current.Token != rc.Token {
		log.Info("discarding superseded interpretation")
		return Outcome{}, "", ErrSuperseded
	}

	s.state = Succeeded
	s.displayed = content
	out := Outcome{Request: rc, Content: content, DocumentHash: hash}

	rec, err := s.charts.AttachInterpretation(ctx, c, rc.TargetRecordID, content, s.clock.Now())
	if err != nil {
		log.WithError(err).Error("interpretation not saved")
		return out, NoticeSaveFailed, err
	}
	s.activeID = rec.ID
	out.Record = rec
	log.WithField("stored_on", rec.ID).Info("interpretation stored")
	return out, "", nil
}

func (s *Session) fail(log logrus.FieldLogger, rc RequestContext, previous string, cause error) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current.Token != rc.Token {
		return "", ErrSuperseded
	}
	s.state = Failed
	s.displayed = previous
	log.WithError(cause).Error("interpretation failed")
	return NoticeInterpretFailed, cause
}
