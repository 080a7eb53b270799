//-------------------------------------------------------------------------
//
// Global Retail ETL
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JezzDiego/ETL-GlobalRetail/internal/config"
	"github.com/JezzDiego/ETL-GlobalRetail/internal/datagen"
	"github.com/JezzDiego/ETL-GlobalRetail/internal/db"
	"github.com/JezzDiego/ETL-GlobalRetail/internal/loader"
	"github.com/JezzDiego/ETL-GlobalRetail/internal/logging"
	"github.com/JezzDiego/ETL-GlobalRetail/internal/normalize"
	"github.com/JezzDiego/ETL-GlobalRetail/internal/resolve"
	"github.com/JezzDiego/ETL-GlobalRetail/internal/script"
	"github.com/JezzDiego/ETL-GlobalRetail/internal/source"
	"github.com/JezzDiego/ETL-GlobalRetail/internal/warehouse"
)

// Postgres is the Resources implementation used by the command line. It
// holds one session to the source and one to the warehouse.
type Postgres struct {
	cfg    *config.Config
	policy db.RetryPolicy
	runner *script.Runner

	source *db.Session
	target *db.Session
	env    *loader.Env

	schemaChecksum uint64
}

// NewPostgres creates resources for cfg. Nothing is opened until Prepare
// or Connect is called.
func NewPostgres(cfg *config.Config) *Postgres {
	policy := db.RetryPolicy{Retries: cfg.Connect.Retries, Interval: cfg.RetryInterval()}
	return &Postgres{
		cfg:    cfg,
		policy: policy,
		runner: script.NewRunner(cfg.Load.ScriptProgressInterval),
		source: db.NewSession("source", cfg.Source.Connection, policy),
		target: db.NewSession("target", cfg.Target.Connection, policy),
	}
}

// Prepare recreates both databases when configured, connects, creates
// the source schema, seeds it and creates the warehouse schema.
func (p *Postgres) Prepare(ctx context.Context) error {
	if p.cfg.RecreateDatabases {
		if err := p.recreate(ctx); err != nil {
			return err
		}
	}

	if err := p.Connect(ctx); err != nil {
		return err
	}

	if _, err := p.runScript(ctx, p.source, "source schema", p.cfg.Scripts.SourceSchema, source.SchemaSQL); err != nil {
		return err
	}
	if err := p.seed(ctx); err != nil {
		return err
	}

	res, err := p.runScript(ctx, p.target, "warehouse schema", p.cfg.Scripts.WarehouseSchema, warehouse.SchemaSQL)
	if err != nil {
		return err
	}
	p.schemaChecksum = res.Checksum
	return nil
}

func (p *Postgres) recreate(ctx context.Context) error {
	admin, err := db.ConnectAdmin(ctx, p.cfg.AdminConnection, p.policy)
	if err != nil {
		return err
	}
	defer admin.Close()

	return db.RecreateDatabases(ctx, admin, p.cfg.Source.Connection, p.cfg.Target.Connection)
}

func (p *Postgres) seed(ctx context.Context) error {
	if p.cfg.Scripts.SourceSeed != "" {
		_, err := p.runScript(ctx, p.source, "source seed", p.cfg.Scripts.SourceSeed, "")
		return err
	}

	_, err := datagen.Generate(ctx, p.source, datagen.Config{
		Scale: p.cfg.Seed.Scale,
		Seed:  p.cfg.Seed.Seed,
		Batch: datagen.DefaultBatchConfig(),
	})
	if err != nil {
		return fmt.Errorf("generate source data: %w", err)
	}
	return nil
}

// runScript runs the file at path, or builtin when no path is configured.
func (p *Postgres) runScript(ctx context.Context, s *db.Session, what, path, builtin string) (script.Result, error) {
	var (
		res script.Result
		err error
	)
	if path != "" {
		res, err = p.runner.RunFile(ctx, s, path)
	} else {
		res, err = p.runner.Run(ctx, s, what, builtin)
	}
	if err != nil {
		return res, fmt.Errorf("%s: %w", what, err)
	}
	if res.Mode == script.PerStatement {
		logging.Warn().
			Str("script", what).
			Int("executed", res.Executed).
			Int("failed", res.Failed).
			Msg("Script only partially applied")
	}
	return res, nil
}

// Connect opens both sessions and binds the loader environment to them.
func (p *Postgres) Connect(ctx context.Context) error {
	if err := p.source.Open(ctx); err != nil {
		return err
	}
	if err := p.target.Open(ctx); err != nil {
		return err
	}

	formats, err := normalize.ParseDateFormats(p.cfg.Load.DateFormats)
	if err != nil {
		return err
	}
	start, end, err := p.cfg.CalendarRange()
	if err != nil {
		return err
	}

	store := warehouse.NewPGStore(p.target)
	p.env = &loader.Env{
		Source:        source.NewPGReader(p.source),
		Target:        store,
		Keys:          resolve.New(store, p.cfg.Load.CacheKeys),
		DateFormats:   formats,
		FactBatchSize: p.cfg.Load.FactBatchSize,
		CalendarStart: start,
		CalendarEnd:   end,
	}
	return nil
}

func (p *Postgres) LoaderEnv() *loader.Env {
	return p.env
}

func (p *Postgres) ResetTarget(ctx context.Context) error {
	return p.target.Reset(ctx)
}

// BuildIndexes runs the index script. A script of which no statement
// succeeded is reported as an error.
func (p *Postgres) BuildIndexes(ctx context.Context) error {
	_, err := p.runScript(ctx, p.target, "warehouse indexes", p.cfg.Scripts.WarehouseIndexes, warehouse.IndexesSQL)
	return err
}

// RecordRun writes the run outcome to the warehouse metadata table.
func (p *Postgres) RecordRun(ctx context.Context, report *Report) error {
	finished := report.Finished
	if finished.IsZero() {
		finished = time.Now()
	}
	err := db.SaveRunMetadata(ctx, p.target, db.RunMetadata{
		RunID:          report.RunID,
		State:          report.State.String(),
		SchemaChecksum: fmt.Sprintf("%016x", p.schemaChecksum),
		FinishedAt:     finished,
		TotalRows:      report.Summary.Total,
	})
	if err == nil {
		err = p.target.Commit(ctx)
	}
	if err != nil {
		_ = p.target.Rollback(ctx)
		return err
	}
	return nil
}

// Close releases both sessions.
func (p *Postgres) Close(ctx context.Context) error {
	return errors.Join(p.source.Close(ctx), p.target.Close(ctx))
}

// Seed recreates the source database when configured, creates the source
// schema and fills it with synthetic data.
func Seed(ctx context.Context, cfg *config.Config) (*datagen.Dataset, error) {
	p := NewPostgres(cfg)
	defer p.source.Close(ctx)

	if cfg.RecreateDatabases {
		admin, err := db.ConnectAdmin(ctx, cfg.AdminConnection, p.policy)
		if err != nil {
			return nil, err
		}
		err = db.RecreateDatabases(ctx, admin, cfg.Source.Connection)
		admin.Close()
		if err != nil {
			return nil, err
		}
	}

	if err := p.source.Open(ctx); err != nil {
		return nil, err
	}
	if _, err := p.runScript(ctx, p.source, "source schema", cfg.Scripts.SourceSchema, source.SchemaSQL); err != nil {
		return nil, err
	}
	return datagen.Generate(ctx, p.source, datagen.Config{
		Scale: cfg.Seed.Scale,
		Seed:  cfg.Seed.Seed,
		Batch: datagen.DefaultBatchConfig(),
	})
}

// WarehouseStatus connects to the warehouse, counts its rows and reads
// the metadata of the last recorded run.
func WarehouseStatus(ctx context.Context, cfg *config.Config) (Status, error) {
	policy := db.RetryPolicy{Retries: cfg.Connect.Retries, Interval: cfg.RetryInterval()}
	target := db.NewSession("target", cfg.Target.Connection, policy)
	if err := target.Open(ctx); err != nil {
		return Status{}, err
	}
	defer target.Close(ctx)

	summary, err := Summarize(ctx, warehouse.NewPGStore(target))
	if err != nil {
		return Status{}, err
	}
	lastRun, err := db.LastRun(ctx, target)
	if err != nil {
		return Status{Summary: summary}, err
	}
	return Status{Summary: summary, LastRun: lastRun}, nil
}
