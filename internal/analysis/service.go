// Package analysis runs the full report pipeline: profile, compose and
// request, validate, enhance and persist.
package analysis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"codelens/internal/config"
	"codelens/internal/lens"
	"codelens/internal/llm"
	llmclient "codelens/internal/llm/client"
	"codelens/internal/metrics"
	"codelens/internal/profile"
	"codelens/internal/prompt"
	"codelens/internal/quality"
	"codelens/internal/reportstore"
	"codelens/internal/requester"
	"codelens/internal/types"
)

// ErrNoFiles is returned for a request without files.
var ErrNoFiles = errors.New("analysis: no files to analyze")

type Request struct {
	Files        []types.FileRecord `json:"files"`
	Kind         types.ReportKind   `json:"kind,omitempty"`
	Instructions string             `json:"instructions,omitempty"`
}

// Result is a finished analysis. Cached is set when the result came from
// the in-process cache instead of a model call.
type Result struct {
	reportstore.Record
	Cached bool `json:"cached"`
}

type Service struct {
	cfg       *config.Analysis
	client    llmclient.LLMClient
	profiler  *profile.Profiler
	composer  *prompt.Composer
	validator *quality.Validator
	enhancer  *quality.Enhancer
	store     reportstore.Store
	cache     *lru.Cache[string, *Result]
	metrics   *metrics.Metrics
	emitter   Emitter
	sleep     requester.Sleeper
	log       *slog.Logger
	now       func() time.Time
	newID     func() string
}

type Option func(*Service)

func WithConfig(cfg *config.Analysis) Option     { return func(s *Service) { s.cfg = cfg } }
func WithStore(st reportstore.Store) Option      { return func(s *Service) { s.store = st } }
func WithMetrics(m *metrics.Metrics) Option      { return func(s *Service) { s.metrics = m } }
func WithEmitter(e Emitter) Option               { return func(s *Service) { s.emitter = e } }
func WithLogger(l *slog.Logger) Option           { return func(s *Service) { s.log = l } }
func WithSleeper(sl requester.Sleeper) Option    { return func(s *Service) { s.sleep = sl } }
func WithClock(now func() time.Time) Option      { return func(s *Service) { s.now = now } }
func WithIDGenerator(newID func() string) Option { return func(s *Service) { s.newID = newID } }

// WithCacheSize sets how many results are memoized. Zero disables the cache.
func WithCacheSize(n int) Option {
	return func(s *Service) {
		if n <= 0 {
			s.cache = nil
			return
		}
		c, err := lru.New[string, *Result](n)
		if err == nil {
			s.cache = c
		}
	}
}

const defaultCacheSize = 128

// New wires a service around a model client. Without WithStore results
// are kept in a bounded memory store.
func New(client llmclient.LLMClient, opts ...Option) (*Service, error) {
	if client == nil {
		return nil, errors.New("analysis: model client is required")
	}
	cache, err := lru.New[string, *Result](defaultCacheSize)
	if err != nil {
		return nil, fmt.Errorf("init result cache: %w", err)
	}
	s := &Service{
		client:  llm.Wrap(client, llm.WithHooks()),
		cache:   cache,
		emitter: noopEmitter{},
		log:     slog.Default(),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	if s.cfg == nil {
		s.cfg = config.Default()
	}
	if err := s.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("analysis config: %w", err)
	}
	if s.store == nil {
		if s.store, err = reportstore.NewMemoryStore(0); err != nil {
			return nil, err
		}
	}
	if s.emitter == nil {
		s.emitter = noopEmitter{}
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	reg := lens.Default()
	s.profiler = profile.New(reg, s.cfg)
	s.composer = prompt.New(reg, s.cfg)
	s.validator = quality.NewValidator(s.cfg)
	s.enhancer = quality.NewEnhancer(s.cfg)
	return s, nil
}

// Analyze runs the pipeline for one request. Quality failures are not
// errors: the result carries PassesThreshold=false and recommendations.
func (s *Service) Analyze(ctx context.Context, req Request) (*Result, error) {
	if len(req.Files) == 0 {
		return nil, ErrNoFiles
	}
	req.Kind = types.ParseReportKind(string(req.Kind))

	key := CacheKey(req)
	if s.cache != nil {
		if hit, ok := s.cache.Get(key); ok {
			s.metrics.ObserveCache(true)
			s.emit(Event{AnalysisID: hit.ID, Type: EventCached, Score: hit.Metrics.OverallScore, Passed: hit.Metrics.PassesThreshold})
			out := hit.clone()
			out.Cached = true
			return out, nil
		}
		s.metrics.ObserveCache(false)
	}

	id := s.newID()
	log := s.log.With("analysis_id", id, "kind", req.Kind)
	prof := s.profiler.Profile(req.Files)
	log.Info("analysis started", "files", prof.TotalFiles, "complexity", prof.Complexity, "modules", prof.ModuleIDs())
	s.emit(Event{AnalysisID: id, Type: EventStarted, Message: fmt.Sprintf("%d files, %s", prof.TotalFiles, prof.Complexity)})

	rq := requester.New(s.client, s.composer, s.cfg.Retry,
		requester.WithLogger(log),
		requester.WithSleeper(s.sleep),
		requester.WithObserver(func(t requester.Transition) {
			s.metrics.ObserveTransition(t.To.String())
			ev := Event{AnalysisID: id, Type: EventTransition, State: t.To.String(), Attempt: t.Attempt, Temperature: t.Temperature}
			if t.Err != nil {
				ev.Message = t.Err.Error()
			}
			s.emit(ev)
		}),
	)
	ctx = llm.WithPromptHook(ctx, &modelHook{id: id, emit: s.emit})
	out, err := rq.Request(ctx, requester.Input{
		Profile:          prof,
		Files:            req.Files,
		Kind:             req.Kind,
		UserInstructions: req.Instructions,
		Minimums:         s.cfg.Quality.Minimums.For(prof.Complexity),
	})
	if err != nil {
		attempts := 0
		var ex *requester.ExhaustedError
		if errors.As(err, &ex) {
			attempts = ex.Attempts
		}
		s.metrics.ObserveAnalysis(string(req.Kind), metrics.OutcomeError, attempts, 0)
		s.emit(Event{AnalysisID: id, Type: EventFailed, Message: err.Error()})
		log.Error("analysis failed", "err", err)
		return nil, fmt.Errorf("analyze: %w", err)
	}

	// metrics describe the report as the model returned it
	qm := s.validator.Validate(out.Report, prof.Complexity)
	s.emit(Event{AnalysisID: id, Type: EventValidated, Attempt: out.Attempts, Score: qm.OverallScore, Passed: qm.PassesThreshold})

	final := s.enhancer.Enhance(out.Report)
	final.Modules = prof.ModuleIDs()

	res := &Result{Record: reportstore.Record{
		ID:           id,
		CreatedAt:    s.now().UTC(),
		Kind:         req.Kind,
		Profile:      prof,
		Report:       final,
		Metrics:      qm,
		Attempts:     out.Attempts,
		Truncated:    out.Composed.Truncated,
		OmittedFiles: out.Composed.OmittedFiles,
	}}
	if err := s.store.Put(ctx, res.Record); err != nil {
		s.metrics.ObserveAnalysis(string(req.Kind), metrics.OutcomeError, out.Attempts, 0)
		s.emit(Event{AnalysisID: id, Type: EventFailed, Message: err.Error()})
		return nil, fmt.Errorf("store analysis %s: %w", id, err)
	}
	if s.cache != nil {
		s.cache.Add(key, res)
	}

	outcome := metrics.OutcomePassed
	if !qm.PassesThreshold {
		outcome = metrics.OutcomeFailed
	}
	s.metrics.ObserveAnalysis(string(req.Kind), outcome, out.Attempts, qm.OverallScore)
	s.emit(Event{AnalysisID: id, Type: EventCompleted, Attempt: out.Attempts, Score: qm.OverallScore, Passed: qm.PassesThreshold})
	log.Info("analysis finished", "attempts", out.Attempts, "score", qm.OverallScore, "passed", qm.PassesThreshold)

	return res.clone(), nil
}

// clone copies everything a caller could mutate, so cached entries stay intact.
func (r *Result) clone() *Result {
	c := *r
	c.Report = r.Report.Clone()
	c.Metrics = r.Metrics.Clone()
	c.Profile = r.Profile.Clone()
	return &c
}

// Get loads a stored analysis.
func (s *Service) Get(ctx context.Context, id string) (*Result, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Result{Record: rec}, nil
}

// List returns the ids of stored analyses.
func (s *Service) List(ctx context.Context) ([]string, error) {
	return s.store.List(ctx)
}

// Score validates a report offline, without a model call.
func (s *Service) Score(r *types.AnalysisReport, tier types.Complexity) types.QualityMetrics {
	return s.validator.Validate(r, tier)
}

// Close releases the store and the model client.
func (s *Service) Close() error {
	return errors.Join(s.store.Close(), s.client.Close())
}

func (s *Service) emit(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = s.now().UTC()
	}
	s.emitter.Emit(ev)
}

// CacheKey digests everything that influences the model input. File order
// does not matter.
func CacheKey(req Request) string {
	files := append([]types.FileRecord(nil), req.Files...)
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	h := sha256.New()
	write := func(s string) {
		fmt.Fprintf(h, "%d:", len(s))
		h.Write([]byte(s))
	}
	write(string(types.ParseReportKind(string(req.Kind))))
	write(req.Instructions)
	for _, f := range files {
		write(f.Path)
		write(f.Content)
	}
	return hex.EncodeToString(h.Sum(nil))
}
