package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/Divas-Gupta30/interview-agent/internal/api"
	"github.com/Divas-Gupta30/interview-agent/internal/applog"
	"github.com/Divas-Gupta30/interview-agent/internal/config"
	"github.com/Divas-Gupta30/interview-agent/internal/graph"
	"github.com/Divas-Gupta30/interview-agent/internal/ingestion"
	"github.com/Divas-Gupta30/interview-agent/internal/interview"
	"github.com/Divas-Gupta30/interview-agent/internal/llm"
	"github.com/Divas-Gupta30/interview-agent/internal/report"
	"github.com/Divas-Gupta30/interview-agent/internal/storage"
)

// app holds the components built from the configuration.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	llm     *llm.Client
	backend graph.Backend
	bank    graph.Importer
	reports *report.Generator
	archive *storage.Archive
	cache   *storage.StatusCache
	checks  []api.Option
	closers []func()
}

func loadApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg}
	if cfg.Log.Dir != "" {
		logger, files := applog.NewWithFiles(cfg.Log.Level, cfg.Log.Format, os.Stderr, applog.FileConfig{
			Dir:        cfg.Log.Dir,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
		})
		a.logger = logger
		a.closers = append(a.closers, func() { _ = files.Close() })
	} else {
		a.logger = applog.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	}
	slog.SetDefault(a.logger)

	llmOpts := llm.Options{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
		MaxRetries:  cfg.LLM.MaxRetries,
	}
	a.llm = llm.New(llmOpts)
	llmOpts.Temperature = cfg.LLM.ScoreTemperature
	scorer := llm.New(llmOpts)

	if err := a.openGraph(ctx); err != nil {
		a.Close()
		return nil, err
	}

	var genOpts []report.GeneratorOption
	if url := cfg.Archive.DatabaseURL; url != "" {
		archive, err := storage.OpenArchive(ctx, url, a.logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.archive = archive
		a.closers = append(a.closers, func() { archive.Close() })
		genOpts = append(genOpts, report.WithArchive(archive))
	}
	a.reports = report.NewGenerator(report.NewLLMScorer(scorer), genOpts...)

	if cfg.Redis.URL != "" {
		cache := storage.NewStatusCache(storage.RedisOptions{
			Addr:     cfg.Redis.URL,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, storage.DefaultStatusTTL)
		if err := cache.Ping(ctx); err != nil {
			a.logger.Warn("redis unavailable, status cache disabled", "error", err)
			cache.Close()
		} else {
			a.cache = cache
			a.closers = append(a.closers, func() { cache.Close() })
			a.checks = append(a.checks, api.WithHealthCheck("redis", cache.Ping))
		}
	}
	return a, nil
}

func (a *app) openGraph(ctx context.Context) error {
	switch a.cfg.Graph.Backend {
	case "postgres":
		pool, err := storage.OpenPool(ctx, a.cfg.Graph.DatabaseURL)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, pool.Close)
		store := storage.NewQuestionStore(pool)
		if err := store.Migrate(ctx); err != nil {
			return err
		}
		a.backend = store
		a.bank = store
		a.checks = append(a.checks, api.WithHealthCheck("postgres", pool.Ping))
	default:
		mem := graph.NewMemoryBackend()
		n, err := importQuestions(ctx, a.logger, mem, a.cfg.Graph.QuestionsDir)
		if err != nil {
			a.logger.Warn("question bank not loaded", "dir", a.cfg.Graph.QuestionsDir, "error", err)
		} else {
			a.logger.Info("question bank loaded", "questions", n)
		}
		a.backend = mem
		a.bank = mem
	}
	return nil
}

func (a *app) machine() *interview.Machine {
	opts := []interview.MachineOption{
		interview.WithRunner(interview.StageInitial, interview.InitialRunner{}),
		interview.WithRunner(interview.StageTheory, &interview.TheoryRunner{
			Graph:    graph.New(a.backend, graph.WithLogger(a.logger)),
			Dialogue: a.llm,
			Reports:  a.reports,
			TopK:     a.cfg.Interview.RelatedTopK,
			Hops:     a.cfg.Interview.RelatedHops,
		}),
		interview.WithRunner(interview.StageProject, &interview.ProjectRunner{
			Dialogue: a.llm,
			Reports:  a.reports,
			MaxTurns: a.cfg.Interview.ProjectMaxTurns,
		}),
		interview.WithRunner(interview.StageFinal, interview.FinalRunner{}),
		interview.WithFailureReporter(a.reports),
		interview.WithMachineLogger(a.logger),
	}
	if a.cache != nil {
		opts = append(opts, interview.WithStatusMirror(a.cache))
	}
	return interview.NewMachine(opts...)
}

func (a *app) service() *interview.Service {
	opts := []interview.ServiceOption{interview.WithServiceLogger(a.logger)}
	if a.cache != nil {
		opts = append(opts, interview.WithMirror(a.cache))
	}
	if a.archive != nil {
		opts = append(opts, interview.WithReportArchive(a.archive))
	}
	parser := ingestion.NewParser(a.llm)
	return interview.NewService(a.cfg.Server.DataDir, a.machine(), parser, opts...)
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// importQuestions reads every JSON question file under dir and replaces
// the contents of dst with them. Unreadable files are skipped.
func importQuestions(ctx context.Context, logger *slog.Logger, dst graph.Importer, dir string) (int, error) {
	files, err := ingestion.LoadLocalFiles(dir, ".json")
	if err != nil {
		return 0, fmt.Errorf("listing question files: %w", err)
	}
	var all []graph.Question
	for _, f := range files {
		qs, err := graph.ReadFile(f)
		if err != nil {
			logger.Warn("skip question file", "file", f, "error", err)
			continue
		}
		logger.Debug("read question file", "file", f, "questions", len(qs))
		all = append(all, qs...)
	}
	if err := dst.ReplaceAll(ctx, all); err != nil {
		return 0, fmt.Errorf("importing questions: %w", err)
	}
	return len(all), nil
}
