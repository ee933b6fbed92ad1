package main

import (
	"context"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/spf13/cobra"

	"github.com/pbrinkmeier/hoff/config"
	"github.com/pbrinkmeier/hoff/internal/entities"
	"github.com/pbrinkmeier/hoff/internal/git"
	"github.com/pbrinkmeier/hoff/internal/github"
	"github.com/pbrinkmeier/hoff/internal/logic"
	"github.com/pbrinkmeier/hoff/internal/queue"
	"github.com/pbrinkmeier/hoff/internal/repository"
	"github.com/pbrinkmeier/hoff/internal/repository/postgres"
	"github.com/pbrinkmeier/hoff/internal/transport/http/middleware"
	"github.com/pbrinkmeier/hoff/internal/transport/http/server/handlers-fiber"
	"github.com/pbrinkmeier/hoff/internal/trigger"
	"github.com/pbrinkmeier/hoff/pkg/logger"
)

var (
	serveConfigPath string
	serveReadOnly   bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Watch the configured projects and gate their target branches",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to the config file (default: config/config.yaml)")
	serveCmd.Flags().BoolVar(&serveReadOnly, "read-only", false, "Never push or comment, only observe")
	rootCmd.AddCommand(serveCmd)
}

// pipeline is the per-project chain serve runs: intake queue, adapter,
// logic worker.
type pipeline struct {
	intake  *queue.Queue[github.Envelope]
	adapter *github.Adapter
	worker  *logic.Worker
}

func runServe(parentCtx context.Context) error {
	ctx, stop := signal.NotifyContext(parentCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.NewConfig(serveConfigPath)
	if err != nil {
		return err
	}
	if serveReadOnly {
		cfg.ReadOnly = true
	}

	log, err := logger.New(cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer func() {
		_ = log.Sync()
	}()

	if cfg.ReadOnly {
		log.Infow("running in read-only mode, comments and pushes are suppressed")
	}

	host, err := github.NewClient(cfg.Github.AccessToken, cfg.Github.APIBaseURL, log)
	if err != nil {
		return err
	}
	parser := trigger.NewParser(cfg.Trigger.CommentPrefix)
	runner := git.CLIRunner{Timeout: cfg.Git.CommandTimeout}

	var db *postgres.DB
	if cfg.State.Backend == "postgres" {
		db = postgres.New(ctx, log, cfg.Postgres)
		if err := db.OnStart(ctx); err != nil {
			return err
		}
		defer func() {
			_ = db.OnStop(context.Background())
		}()
	}

	var (
		pipelines []pipeline
		handles   []*handlers_fiber.Project
	)
	for _, p := range cfg.Projects {
		store, err := repository.New(cfg.State.Backend, repository.Options{
			Project: p.FullName(),
			Path:    p.StatePath(cfg.Git.StateRoot),
			DB:      db,
		}, log)
		if err != nil {
			return err
		}

		checkout := git.NewRepository(git.Config{
			URL:          p.URL(),
			Dir:          p.CheckoutDir(cfg.Git.CheckoutRoot),
			Branch:       entities.Branch(p.Branch),
			TestBranch:   entities.Branch(p.TestBranch),
			Identity:     git.Identity{Name: cfg.Git.UserName, Email: cfg.Git.UserEmail},
			PushDisabled: cfg.ReadOnly,
		}, runner, log)

		interpreter := logic.NewInterpreter(
			p.Owner, p.Repository, entities.Branch(p.Branch), checkout, host, cfg.ReadOnly, log)
		handler := logic.NewHandler(parser, interpreter, log)

		intake := queue.New[github.Envelope](cfg.Queue.Capacity)
		events := queue.New[entities.Event](cfg.Queue.Capacity)
		register := logic.NewRegister()

		pipelines = append(pipelines, pipeline{
			intake:  intake,
			adapter: github.NewAdapter(p.FullName(), intake, events, log),
			worker:  logic.NewWorker(p.FullName(), handler, events, store, register, log),
		})
		handles = append(handles, &handlers_fiber.Project{
			Owner:      p.Owner,
			Repository: p.Repository,
			Branch:     entities.Branch(p.Branch),
			Intake:     intake,
			Register:   register,
		})

		log.Infow("project configured",
			"project", p.FullName(), "branch", p.Branch, "test_branch", p.TestBranch)
	}

	// The pipelines outlive the signal context so that queued events can
	// still drain during shutdown.
	pipelineCtx, cancelPipelines := context.WithCancel(context.Background())
	defer cancelPipelines()

	var wg sync.WaitGroup
	workerErrs := make(chan error, len(pipelines))
	for _, p := range pipelines {
		p := p
		wg.Add(2)
		go func() {
			defer wg.Done()
			p.adapter.Run(pipelineCtx)
		}()
		go func() {
			defer wg.Done()
			workerErrs <- p.worker.Run(pipelineCtx)
		}()
	}

	serv := fiber.New(fiber.Config{
		ReadTimeout:  cfg.HTTP.RequestTimeout,
		WriteTimeout: cfg.HTTP.RequestTimeout,
	})
	serv.Use(recover.New())
	serv.Use(requestid.New())
	serv.Use(middleware.RequestLogger(log))

	serv.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	h := handlers_fiber.NewHandler(log, cfg.Github.WebhookSecret, handles)
	h.Register(serv)

	listenErr := make(chan error, 1)
	go func() {
		if err := serv.Listen(cfg.ServerAddr()); err != nil {
			listenErr <- err
		}
	}()
	log.Infow("listening", "addr", cfg.ServerAddr(), "projects", len(handles))

	var runErr error
	select {
	case <-ctx.Done():
		log.Infow("shutdown signal received")
	case runErr = <-listenErr:
		log.Errorw("server failed", "error", runErr)
	case runErr = <-workerErrs:
		// A worker only returns while serving when its state is wedged;
		// keeping the process up would silently stall the project.
		log.Errorw("project pipeline failed", "error", runErr)
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = serv.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-shutdownCtx.Done():
		log.Warnw("server shutdown timeout", "timeout", cfg.Server.ShutdownTimeout)
	}

	// Closing the intakes lets adapters finish their backlog and close the
	// event queues, after which the workers drain and exit.
	for _, p := range pipelines {
		p.intake.Close()
	}
	drained := make(chan struct{})
	go func() {
		wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		log.Infow("pipelines drained")
	case <-time.After(cfg.Server.ShutdownTimeout):
		log.Warnw("pipeline drain timeout", "timeout", cfg.Server.ShutdownTimeout)
		cancelPipelines()
		<-drained
	}

	return runErr
}
