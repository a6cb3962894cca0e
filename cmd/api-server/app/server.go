package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	swagger "github.com/arsmn/fiber-swagger/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/etag"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/pquerna/ffjson/ffjson"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"mlbench-api-server/cmd/api-server/app/options"
	"mlbench-api-server/internal/api/common/auth"
	"mlbench-api-server/internal/api/common/errors"
	"mlbench-api-server/internal/api/metric"
	"mlbench-api-server/internal/api/pod"
	"mlbench-api-server/internal/api/run"
	cache2 "mlbench-api-server/internal/cache"
	"mlbench-api-server/internal/cluster"
	db "mlbench-api-server/internal/database"
	"mlbench-api-server/internal/jobs"
	applog "mlbench-api-server/internal/logger"
	"mlbench-api-server/internal/worker"
)

const (
	taskPollInterval = 10 * time.Second
	taskDeadline     = 24 * time.Hour
)

// Dependencies are the collaborators NewApp wires into the routes.
type Dependencies struct {
	DB         *gorm.DB
	Submitter  run.JobSubmitter
	Tracker    run.JobFetcher
	Cluster    cluster.Source // nil outside a cluster
	JWTSecret  string
	JobTimeout time.Duration
	Mode       string
}

// NewApp builds the fiber app serving the api. The run service is returned
// for the reconciler.
func NewApp(deps Dependencies, logger *zap.Logger) (*fiber.App, run.RunService) {
	app := fiber.New(fiber.Config{
		AppName:      "MLBench API Server",
		Prefork:      false,
		JSONEncoder:  ffjson.Marshal,
		ErrorHandler: errors.Handler(logger.Named("http")),
	})

	app.Use(cors.New())
	app.Use(compress.New())
	app.Use(etag.New())
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] [${ip}:${port}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	if deps.Mode == applog.ModeDebug {
		app.Use(pprof.New())
	}

	api := app.Group("/api/v1")

	// pod
	podLogger := logger.Named("pod")
	podService := pod.NewPodService(pod.NewPodRepository(deps.DB), podLogger)
	pod.PodRouter(api, podService, podLogger)
	// metric
	metricLogger := logger.Named("metric")
	metricService := metric.NewMetricService(metric.NewMetricRepository(deps.DB), deps.Cluster, metricLogger)
	metric.MetricRouter(api, metricService, metricLogger)
	// run
	runLogger := logger.Named("run")
	runService := run.NewRunService(run.NewRunRepository(deps.DB), deps.Submitter, deps.Tracker, deps.JobTimeout, runLogger)
	run.RunRouter(api, runService, auth.Guard(deps.JWTSecret), runLogger)

	app.Get("/dashboard", monitor.New())
	app.Get("/prometheus", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/swagger/*", swagger.Handler) // default

	app.All("*", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("Route '%s' does not exist in this API!", c.OriginalURL()))
	})

	return app, runService
}

type Server struct {
	app        *fiber.App
	db         *gorm.DB
	worker     *worker.Worker
	reconciler *run.Reconciler
	logger     *zap.Logger
}

func NewServer(opts *options.Options, logger *zap.Logger, errCh chan<- error) (*Server, error) {
	// connect postgres
	db, err := db.Connect(*opts.Mode)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	cache, err := cache2.NewCache()
	if err != nil {
		return nil, fmt.Errorf("unable to init cache: %w", err)
	}

	worker, err := worker.NewWorker(*opts.LogFile, *opts.Mode == applog.ModeDebug, logger.Named("worker"))
	if err != nil {
		return nil, fmt.Errorf("unable to initialize worker: %w", err)
	}

	var source cluster.Source
	if opts.UseCluster() {
		clientset, err := cluster.NewClientset(*opts.Kubeconfig, *opts.InCluster)
		if err != nil {
			return nil, fmt.Errorf("unable to reach cluster: %w", err)
		}
		source = cluster.New(clientset, *opts.Namespace)
	} else {
		logger.Warn("no cluster configured, worker pods are not followed")
	}

	tracker := jobs.NewTracker(worker, cache, opts.JobTimeoutDuration(), logger.Named("jobs"))

	app, runService := NewApp(Dependencies{
		DB:         db,
		Submitter:  worker,
		Tracker:    tracker,
		Cluster:    source,
		JWTSecret:  *opts.JWTSecret,
		JobTimeout: opts.JobTimeoutDuration(),
		Mode:       *opts.Mode,
	}, logger)

	taskLogger := logger.Named("task")
	task := run.NewBenchmarkTask(
		run.NewRunRepository(db),
		source,
		pod.NewPodService(pod.NewPodRepository(db), taskLogger),
		taskPollInterval,
		taskDeadline,
		taskLogger,
	)
	if err := worker.RegisterTask(run.TaskName, task.Run); err != nil {
		return nil, fmt.Errorf("unable to register %s: %w", run.TaskName, err)
	}
	worker.Launch(errCh)

	reconciler, err := run.NewReconciler(runService, opts.ReconcileIntervalDuration(), logger.Named("reconciler"))
	if err != nil {
		return nil, err
	}
	reconciler.Start()

	return &Server{
		app:        app,
		db:         db,
		worker:     worker,
		reconciler: reconciler,
		logger:     logger,
	}, nil
}

func (app *Server) Listen(port int, certFile, keyFile *string) error {
	app.logger.Info("Starting MLBench api-server ...")

	address := fmt.Sprintf(":%d", port)
	if certFile != nil && keyFile != nil {
		if *certFile != "" && *keyFile != "" {
			return app.app.ListenTLS(address, *certFile, *keyFile)
		}
	}
	return app.app.Listen(address)
}

func (app *Server) Shutdown(parentCtx context.Context) error {
	g, ctx := errgroup.WithContext(parentCtx)
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	g.Go(func() error {
		return app.app.Shutdown()
	})
	g.Go(func() error {
		// reconciler 가 멈춘 뒤에 worker 를 정리해야 함.
		app.reconciler.Stop(ctx)
		app.worker.Stop(ctx)

		sqlDB, err := app.db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})
	return g.Wait()
}

func Run(opts *options.Options, logger *zap.Logger) error {
	// Start api-server
	apiServerError := make(chan error, 1)

	server, err := NewServer(opts, logger, apiServerError)
	if err != nil {
		logger.Error("failed to initialize api-server", zap.Error(err))
		return err
	}

	go func() {
		if err := server.Listen(*opts.Port, opts.CertFile, opts.KeyFile); err != nil && err != http.ErrServerClosed {
			logger.Error("listen for api-server failed", zap.Error(err))
			apiServerError <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("Shutdown server ...")

		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("close api-server failed", zap.Error(err))
			return err
		}
	case err := <-apiServerError:
		return err
	}

	return nil
}
