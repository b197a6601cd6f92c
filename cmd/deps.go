package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/polegion/internal/adaptive"
	"github.com/abhisek/polegion/internal/config"
	"github.com/abhisek/polegion/internal/engine"
	"github.com/abhisek/polegion/internal/grading"
	"github.com/abhisek/polegion/internal/llm"
	"github.com/abhisek/polegion/internal/logging"
	"github.com/abhisek/polegion/internal/redisstore"
	"github.com/abhisek/polegion/internal/reward"
	"github.com/abhisek/polegion/internal/store"
)

// deps is everything a command needs, built from config and flags.
type deps struct {
	cfg    *config.Config
	log    *logging.Logger
	engine *engine.Service

	// Exactly one of these is set, matching cfg.Store.Backend.
	sqlite *store.Store
	redis  *redisstore.Repository
	memory *adaptive.MemoryRepository

	closers []func() error
}

// openDeps loads config, opens the selected backend and wires the engine.
func openDeps(cmd *cobra.Command) (*deps, error) {
	ctx := cmd.Context()

	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if b, _ := cmd.Flags().GetString("backend"); b != "" {
		cfg.Store.Backend = b
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	log, err := logging.New(cfg.Log.Mode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	d := &deps{cfg: cfg, log: log}

	var (
		repo   adaptive.Repository
		ledger reward.Ledger
	)
	switch cfg.Store.Backend {
	case config.BackendSQLite:
		dbPath, err := resolveDBPath(cmd, cfg.Store.DBPath)
		if err != nil {
			return nil, fmt.Errorf("resolve database path: %w", err)
		}
		s, err := store.Open(dbPath)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		d.sqlite = s
		d.closers = append(d.closers, s.Close)
		repo, ledger = s.StateRepo(), s.XPLedger()
	case config.BackendRedis:
		rdb, err := redisstore.NewClient(ctx, redisstore.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		d.redis = redisstore.New(rdb, cfg.Redis.Prefix)
		d.closers = append(d.closers, rdb.Close)
		repo, ledger = d.redis, redisstore.NewLedger(rdb, cfg.Redis.Prefix)
	case config.BackendMemory:
		d.memory = adaptive.NewMemoryRepository()
		repo, ledger = d.memory, reward.NewMemoryLedger()
	}

	ctrl, err := adaptive.NewController(cfg.Engine, repo, adaptive.WithLogger(log))
	if err != nil {
		d.Close()
		return nil, err
	}

	graders := []grading.Grader{grading.AnswerKeyGrader{}}
	if cfg.Grading.UseLLM {
		p, err := llm.NewProvider(ctx, cfg.LLM, log)
		if err != nil {
			d.Close()
			return nil, err
		}
		graders = append(graders, grading.NewLLMGrader(p, cfg.LLM.Timeout))
	}

	d.engine, err = engine.New(ctrl, grading.NewFallbackGrader(graders...), ledger, log)
	if err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

func (d *deps) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		errs = append(errs, d.closers[i]())
	}
	d.log.Sync()
	return errors.Join(errs...)
}

// requireSQLite fails for commands that read history only the SQLite
// backend keeps.
func (d *deps) requireSQLite(what string) error {
	if d.sqlite == nil {
		return fmt.Errorf("%s requires the sqlite backend (current: %s)", what, d.cfg.Store.Backend)
	}
	return nil
}
