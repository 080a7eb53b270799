//-------------------------------------------------------------------------
//
// Global Retail ETL
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package pipeline sequences the loaders into a full warehouse build.
package pipeline

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/JezzDiego/ETL-GlobalRetail/internal/loader"
	"github.com/JezzDiego/ETL-GlobalRetail/internal/logging"
)

// Loader order. Each list only depends on the lists before it: customers
// need categories and localities, products need categories, stores need
// localities, and the fact needs every dimension.
var (
	BasicDimensions     = []string{"locality", "customer_category", "product_category"}
	DependentDimensions = []string{"supplier", "customer", "product", "salesperson", "store", "promotion", "calendar"}
	FactLoaders         = []string{"fact"}
)

// Order returns every loader name in dependency order.
func Order() []string {
	return slices.Concat(BasicDimensions, DependentDimensions, FactLoaders)
}

// Resources are the connections and scripts a run works with.
type Resources interface {
	// Prepare recreates the databases, connects, and creates and seeds
	// the schemas.
	Prepare(ctx context.Context) error

	// Connect opens the source and target connections only.
	Connect(ctx context.Context) error

	// LoaderEnv returns the loader environment bound to the open
	// connections.
	LoaderEnv() *loader.Env

	// ResetTarget closes and reopens the target connection, discarding
	// any transaction left open.
	ResetTarget(ctx context.Context) error

	// BuildIndexes creates the warehouse indexes.
	BuildIndexes(ctx context.Context) error

	// RecordRun stores the outcome of a run in the warehouse.
	RecordRun(ctx context.Context, report *Report) error

	Close(ctx context.Context) error
}

// StepResult is the outcome of one loader.
type StepResult struct {
	Loader   string
	Table    string
	Phase    State
	Result   loader.Result
	Err      error
	Duration time.Duration
}

// Report describes a finished run.
type Report struct {
	RunID    string
	State    State
	Err      error
	Steps    []StepResult
	Summary  Summary
	Started  time.Time
	Finished time.Time
}

// FailedSteps returns the steps that logged an error.
func (r *Report) FailedSteps() []StepResult {
	var failed []StepResult
	for _, s := range r.Steps {
		if s.Err != nil {
			failed = append(failed, s)
		}
	}
	return failed
}

// Pipeline runs the loaders against a set of resources.
type Pipeline struct {
	res   Resources
	state State
}

// New creates a pipeline over res.
func New(res Resources) *Pipeline {
	return &Pipeline{res: res}
}

// State returns the current phase.
func (p *Pipeline) State() State {
	return p.state
}

func (p *Pipeline) enter(s State) {
	p.state = s
	logging.Info().Str("state", s.String()).Msg("Pipeline phase")
}

// Run performs a full build. Only a failure to prepare the databases or
// to reconnect between phases fails the run; loader errors are logged and
// recorded on the report and the run moves on to the next loader.
func (p *Pipeline) Run(ctx context.Context) *Report {
	report := &Report{RunID: uuid.NewString(), Started: time.Now()}
	logging.WithRun(report.RunID)
	defer p.close(ctx)

	p.enter(Preparing)
	if err := p.res.Prepare(ctx); err != nil {
		return p.fail(report, fmt.Errorf("prepare: %w", err))
	}

	phases := []struct {
		state State
		names []string
	}{
		{LoadingBasicDimensions, BasicDimensions},
		{LoadingDependentDimensions, DependentDimensions},
		{LoadingFact, FactLoaders},
	}
	for i, phase := range phases {
		if i > 0 {
			if err := p.res.ResetTarget(ctx); err != nil {
				return p.fail(report, fmt.Errorf("reset target connection: %w", err))
			}
		}
		p.enter(phase.state)
		p.runLoaders(ctx, report, phase.state, phase.names)
	}

	p.enter(BuildingIndexes)
	if err := p.res.BuildIndexes(ctx); err != nil {
		logging.Warn().Err(err).Msg("Index build failed, continuing")
	}

	p.summarize(ctx, report)

	p.enter(Done)
	report.State = Done
	report.Finished = time.Now()
	if err := p.res.RecordRun(ctx, report); err != nil {
		logging.Warn().Err(err).Msg("Failed to record run metadata")
	}

	logging.Info().
		Str("state", report.State.String()).
		Int("failed_steps", len(report.FailedSteps())).
		Int64("total_rows", report.Summary.Total).
		Dur("elapsed", report.Finished.Sub(report.Started)).
		Msg("Pipeline finished")
	return report
}

// RunLoaders connects and runs the named loaders in dependency order,
// whatever order they are given in. The target connection is reset after
// a failed loader so the next one starts clean.
func (p *Pipeline) RunLoaders(ctx context.Context, names []string) (*Report, error) {
	ordered, err := Select(names)
	if err != nil {
		return nil, err
	}

	report := &Report{RunID: uuid.NewString(), Started: time.Now()}
	logging.WithRun(report.RunID)
	defer p.close(ctx)

	p.enter(Preparing)
	if err := p.res.Connect(ctx); err != nil {
		p.fail(report, fmt.Errorf("connect: %w", err))
		return report, report.Err
	}

	for _, name := range ordered {
		p.enter(phaseOf(name))
		before := len(report.FailedSteps())
		p.runLoaders(ctx, report, p.state, []string{name})
		if len(report.FailedSteps()) > before {
			if err := p.res.ResetTarget(ctx); err != nil {
				p.fail(report, fmt.Errorf("reset target connection: %w", err))
				return report, report.Err
			}
		}
	}

	p.summarize(ctx, report)
	p.enter(Done)
	report.State = Done
	report.Finished = time.Now()
	return report, nil
}

// Select validates names and returns them in dependency order without
// duplicates.
func Select(names []string) ([]string, error) {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		if !slices.Contains(Order(), n) {
			return nil, fmt.Errorf("unknown loader: %s", n)
		}
		want[n] = true
	}
	var ordered []string
	for _, n := range Order() {
		if want[n] {
			ordered = append(ordered, n)
		}
	}
	return ordered, nil
}

func phaseOf(name string) State {
	switch {
	case slices.Contains(BasicDimensions, name):
		return LoadingBasicDimensions
	case slices.Contains(DependentDimensions, name):
		return LoadingDependentDimensions
	default:
		return LoadingFact
	}
}

func (p *Pipeline) runLoaders(ctx context.Context, report *Report, phase State, names []string) {
	env := p.res.LoaderEnv()
	for _, name := range names {
		step := StepResult{Loader: name, Phase: phase}
		l, err := loader.Get(name, env)
		if err != nil {
			step.Err = err
			report.Steps = append(report.Steps, step)
			logging.Error().Err(err).Str("loader", name).Msg("Loader unavailable")
			continue
		}
		step.Table = l.Table()

		start := time.Now()
		step.Result, step.Err = l.Load(ctx)
		step.Duration = time.Since(start)
		report.Steps = append(report.Steps, step)

		if step.Err != nil {
			logging.Error().
				Err(step.Err).
				Str("stage", phase.String()).
				Str("loader", name).
				Msg("Loader failed, continuing with the next step")
		}
	}
}

func (p *Pipeline) summarize(ctx context.Context, report *Report) {
	p.enter(Summarizing)
	summary, err := Summarize(ctx, p.res.LoaderEnv().Target)
	if err != nil {
		logging.Warn().Err(err).Msg("Failed to summarize warehouse")
		// Counting inside a failed transaction leaves it aborted.
		_ = p.res.LoaderEnv().Target.Rollback(ctx)
		return
	}
	report.Summary = summary
	for _, t := range summary.Tables {
		logging.Info().Str("table", t.Table).Int64("rows", t.Rows).Msg("Warehouse table")
	}
}

func (p *Pipeline) fail(report *Report, err error) *Report {
	p.enter(Failed)
	report.State = Failed
	report.Err = err
	report.Finished = time.Now()
	logging.Error().Err(err).Msg("Pipeline failed")
	return report
}

func (p *Pipeline) close(ctx context.Context) {
	if err := p.res.Close(ctx); err != nil {
		logging.Warn().Err(err).Msg("Failed to close connections")
	}
}
