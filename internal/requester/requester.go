package requester

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"codelens/internal/config"
	"codelens/internal/llm"
	llmclient "codelens/internal/llm/client"
	"codelens/internal/prompt"
	"codelens/internal/report"
	"codelens/internal/types"
)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the default Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Requester drives one model call per attempt until a parseable report
// comes back or the retry budget is spent.
type Requester struct {
	client   llmclient.LLMClient
	composer *prompt.Composer
	policy   config.RetryPolicy
	sleep    Sleeper
	observer Observer
	log      *slog.Logger
}

type Option func(*Requester)

func WithSleeper(s Sleeper) Option     { return func(r *Requester) { r.sleep = s } }
func WithObserver(o Observer) Option   { return func(r *Requester) { r.observer = o } }
func WithLogger(l *slog.Logger) Option { return func(r *Requester) { r.log = l } }

func New(client llmclient.LLMClient, composer *prompt.Composer, policy config.RetryPolicy, opts ...Option) *Requester {
	r := &Requester{
		client:   client,
		composer: composer,
		policy:   policy,
		sleep:    SleepContext,
		log:      slog.Default(),
	}
	for _, o := range opts {
		o(r)
	}
	if r.composer == nil {
		r.composer = prompt.New(nil, nil)
	}
	if r.log == nil {
		r.log = slog.Default()
	}
	if r.sleep == nil {
		r.sleep = SleepContext
	}
	return r
}

// Input is everything one request needs.
type Input struct {
	Profile          types.ProjectProfile
	Files            []types.FileRecord
	Kind             types.ReportKind
	UserInstructions string
	// Minimums are the finding counts requested through the response schema.
	Minimums config.FindingMinimums
}

// Outcome is a successful request.
type Outcome struct {
	Report      *types.AnalysisReport
	Attempts    int
	Temperature float64
	// Composed is the input of the attempt that succeeded.
	Composed types.ComposedInput
}

type run struct {
	in       Input
	state    State
	attempt  int
	temp     float64
	composed types.ComposedInput
	text     string
	last     error
	report   *types.AnalysisReport
}

// Request runs the state machine to completion. Retryable failures (transport
// errors, empty or malformed payloads) escalate until the policy's attempt
// budget is spent, then *ExhaustedError is returned. Permanent errors and
// context cancellation end the run at once.
func (r *Requester) Request(ctx context.Context, in Input) (*Outcome, error) {
	if in.Kind == "" {
		in.Kind = types.KindPerformance
	}
	st := &run{in: in, state: Drafting, attempt: 1, temp: r.policy.TemperatureFor(1)}
	for {
		var err error
		switch st.state {
		case Drafting:
			err = r.draft(ctx, st)
		case AwaitingModel:
			err = r.await(ctx, st)
		case Validating:
			r.validate(st)
		case Escalating:
			err = r.escalate(ctx, st)
		case Done:
			return &Outcome{Report: st.report, Attempts: st.attempt, Temperature: st.temp, Composed: st.composed}, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func (r *Requester) advance(st *run, to State, cause error) {
	if !CanTransition(st.state, to) {
		panic(fmt.Sprintf("requester: illegal transition %s -> %s", st.state, to))
	}
	t := Transition{From: st.state, To: to, Attempt: st.attempt, Temperature: st.temp, Err: cause}
	st.state = to
	r.log.Debug("requester transition", "from", t.From, "state", t.To, "attempt", t.Attempt, "temperature", t.Temperature)
	if r.observer != nil {
		r.observer(t)
	}
}

func (r *Requester) fail(st *run, err error) error {
	r.advance(st, Failed, err)
	return err
}

func (r *Requester) draft(ctx context.Context, st *run) error {
	if err := ctx.Err(); err != nil {
		return r.fail(st, err)
	}
	st.composed = r.composer.Compose(st.in.Profile, st.in.Files, r.options(st))
	r.advance(st, AwaitingModel, nil)
	return nil
}

func (r *Requester) await(ctx context.Context, st *run) error {
	req := llmclient.Request{
		SystemInstruction: st.composed.Instruction,
		Context:           st.composed.Context,
		Prompt:            prompt.Task(st.in.Kind),
		Schema:            report.SchemaFor(st.in.Kind, st.in.Minimums),
		Temperature:       st.temp,
	}
	resp, err := r.client.Generate(llm.WithStage(ctx, fmt.Sprintf("attempt-%d", st.attempt)), req)
	// partial output after cancellation is never validated
	if cerr := ctx.Err(); cerr != nil {
		return r.fail(st, cerr)
	}
	if err != nil {
		st.last = err
		if llmclient.IsPermanent(err) {
			r.log.Error("model call failed permanently", "attempt", st.attempt, "err", err)
			return r.fail(st, err)
		}
		r.log.Warn("model call failed", "attempt", st.attempt, "err", err)
		r.advance(st, Escalating, err)
		return nil
	}
	st.text = resp.Text
	r.advance(st, Validating, nil)
	return nil
}

func (r *Requester) validate(st *run) {
	rep, err := report.Parse(st.in.Kind, st.text)
	if err != nil {
		st.last = err
		r.log.Warn("model response rejected", "attempt", st.attempt, "err", err)
		r.advance(st, Escalating, err)
		return
	}
	st.report = rep
	r.advance(st, Done, nil)
}

func (r *Requester) escalate(ctx context.Context, st *run) error {
	if st.attempt >= r.policy.MaxAttempts() {
		return r.fail(st, &ExhaustedError{Attempts: st.attempt, Last: st.last})
	}
	if err := r.sleep(ctx, r.policy.Backoff); err != nil {
		return r.fail(st, err)
	}
	st.attempt++
	st.temp = r.policy.TemperatureFor(st.attempt)
	// only the instruction escalates; the context block is reused as is
	instr, sections, cut := r.composer.Instruction(st.in.Profile, r.options(st))
	st.composed.Instruction = instr
	st.composed.Sections = sections
	st.composed.Truncated = cut || st.composed.OmittedFiles > 0
	r.advance(st, AwaitingModel, nil)
	return nil
}

func (r *Requester) options(st *run) prompt.Options {
	return prompt.Options{Kind: st.in.Kind, UserInstructions: st.in.UserInstructions, Attempt: st.attempt}
}
