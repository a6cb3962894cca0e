package worker

import (
	"context"
	"os"

	"github.com/RichardKnop/machinery/v1"
	"github.com/RichardKnop/machinery/v1/config"
	machinerylog "github.com/RichardKnop/machinery/v1/log"
	"github.com/RichardKnop/machinery/v1/tasks"
	"github.com/caarlos0/env/v6"
	"go.uber.org/zap"

	applog "mlbench-api-server/internal/logger"
)

const (
	cnfPath     = "/var/redis-config.yaml"
	consumerTag = "mlbench_worker"
)

type envConfig struct {
	Broker      string `env:"BROKER" envDefault:"redis://localhost:6379"`
	Backend     string `env:"RESULT_BACKEND" envDefault:"redis://localhost:6379"`
	Concurrency int    `env:"WORKER_CONCURRENCY" envDefault:"1"`
}

// Worker owns the machinery server used to submit jobs and look up their
// state, plus the in-process consumer executing them.
type Worker struct {
	server      *machinery.Server
	worker      *machinery.Worker
	concurrency int
	logger      *zap.Logger
}

func NewWorker(logFile string, debug bool, logger *zap.Logger) (*Worker, error) {
	cnf, concurrency, err := loadConfig()
	if err != nil {
		return nil, err
	}

	taskLogger, err := applog.NewTaskLogger(logFile+".machinery", debug)
	if err != nil {
		return nil, err
	}
	machinerylog.Set(taskLogger)

	server, err := machinery.NewServer(cnf)
	if err != nil {
		return nil, err
	}

	return &Worker{
		server:      server,
		concurrency: concurrency,
		logger:      logger,
	}, nil
}

func loadConfig() (*config.Config, int, error) {
	var cnf *config.Config

	envConfig := &envConfig{}
	opts := env.Options{}
	if err := env.Parse(envConfig, opts); err != nil {
		return nil, 0, err
	}

	if _, err := os.Stat(cnfPath); err != nil {
		cnf = &config.Config{
			DefaultQueue:    "mlbench_tasks",
			ResultsExpireIn: 7 * 24 * 3600, // runs are inspected long after they finished
			Broker:          envConfig.Broker,
			ResultBackend:   envConfig.Backend,
			Redis: &config.RedisConfig{
				MaxIdle:                3,
				IdleTimeout:            240,
				ReadTimeout:            15,
				WriteTimeout:           15,
				ConnectTimeout:         15,
				NormalTasksPollPeriod:  1000,
				DelayedTasksPollPeriod: 500,
			},
			NoUnixSignals: true,
		}
	} else {
		cnf, err = config.NewFromYaml(cnfPath, true)
		if err != nil {
			return nil, 0, err
		}
	}

	return cnf, envConfig.Concurrency, nil
}

// Launch starts consuming tasks. Registered tasks must be in place first.
func (w *Worker) Launch(errCh chan<- error) {
	w.worker = w.server.NewWorker(consumerTag, w.concurrency)
	w.worker.SetPreTaskHandler(w.preHandler)
	w.worker.SetErrorHandler(w.errorHandler)
	w.worker.SetPostTaskHandler(w.postHandler)

	go func() {
		if err := w.worker.Launch(); err != nil {
			errCh <- err
		}
	}()
}

func (w *Worker) preHandler(sig *tasks.Signature) {
	w.logger.Info("start task",
		zap.String("uuid", sig.UUID),
		zap.String("task", sig.Name),
		zap.Int("retry", sig.RetryCount))
}

func (w *Worker) errorHandler(err error) {
	w.logger.Error("error task", zap.Error(err))
}

func (w *Worker) postHandler(sig *tasks.Signature) {
	w.logger.Info("finish task",
		zap.String("uuid", sig.UUID),
		zap.String("task", sig.Name))
}

// SendTask submits the job and returns its handle.
func (w *Worker) SendTask(ctx context.Context, task *tasks.Signature) (string, error) {
	result, err := w.server.SendTaskWithContext(ctx, task)
	if err != nil {
		return "", err
	}
	return result.GetState().TaskUUID, nil
}

func (w *Worker) GetState(uuid string) (*tasks.TaskState, error) {
	return w.server.GetBackend().GetState(uuid)
}

func (w *Worker) RegisterTask(name string, task interface{}) error {
	return w.server.RegisterTask(name, task)
}

func (w *Worker) Stop(ctx context.Context) {
	if w.worker != nil {
		w.worker.Quit()
	}
}
