package metric

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"mlbench-api-server/internal/api/common/errors"
	"mlbench-api-server/internal/api/common/query"
	"mlbench-api-server/internal/cluster"
	"mlbench-api-server/internal/models"
	"mlbench-api-server/internal/telemetry"
	"mlbench-api-server/internal/utils"
)

const clusterTimeout = 10 * time.Second

type metricService struct {
	repository MetricRepository
	cluster    cluster.Source
	logger     *zap.Logger
}

var _ MetricService = (*metricService)(nil)

// NewMetricService builds the service. source may be nil outside a
// cluster, archives then break a run down by the pods recorded for it.
func NewMetricService(r MetricRepository, source cluster.Source, logger *zap.Logger) MetricService {
	return &metricService{
		repository: r,
		cluster:    source,
		logger:     logger,
	}
}

type sample struct {
	name       string
	date       time.Time
	value      string
	metadata   string
	cumulative bool
	podName    string
	runID      string
}

func validate(p IngestPayload) (sample, error) {
	var s sample

	podName := strings.TrimSpace(deref(p.PodName))
	runID := ""
	if p.RunID != nil {
		runID = strings.TrimSpace(string(*p.RunID))
	}
	switch {
	case podName == "" && runID == "":
		return s, errors.BadRequestErr("Pod Name or run id have to be supplied")
	case podName != "" && runID != "":
		return s, errors.BadRequestErr("only one of pod_name and run_id may be supplied")
	}
	s.podName, s.runID = podName, runID

	s.name = strings.TrimSpace(deref(p.Name))
	if s.name == "" {
		return s, errors.BadRequestErr("name is required")
	}

	if p.Date == nil || strings.TrimSpace(*p.Date) == "" {
		return s, errors.BadRequestErr("date is required")
	}
	date, err := utils.TimeParser(strings.TrimSpace(*p.Date))
	if err != nil {
		return s, errors.BadRequestErr("invalid date %q", *p.Date)
	}
	s.date = date

	if p.Value == nil {
		return s, errors.BadRequestErr("value is required")
	}
	s.value = strings.TrimSpace(string(*p.Value))
	if _, err := strconv.ParseFloat(s.value, 64); err != nil {
		return s, errors.BadRequestErr("value %q is not numeric", s.value)
	}

	if p.Cumulative == nil {
		return s, errors.BadRequestErr("cumulative is required")
	}
	s.cumulative = bool(*p.Cumulative)
	s.metadata = deref(p.Metadata)
	return s, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (ms *metricService) Ingest(ctx context.Context, payload IngestPayload) (*MetricView, error) {
	s, err := validate(payload)
	if err != nil {
		return nil, err
	}

	metric := &models.Metric{
		Name:       s.name,
		Date:       s.date,
		Value:      s.value,
		Metadata:   s.metadata,
		Cumulative: s.cumulative,
	}

	owner := string(query.OwnerRun)
	if s.podName != "" {
		owner = string(query.OwnerPod)
		pod, err := ms.repository.GetPodByName(ctx, s.podName)
		if err != nil {
			return nil, err
		}
		metric.PodID = &pod.ID
	} else {
		run, err := ms.repository.GetRun(ctx, s.runID)
		if err != nil {
			return nil, err
		}
		metric.RunID = &run.ID
	}

	if err := ms.repository.CreateMetric(ctx, metric); err != nil {
		ms.logger.Error("failed to store metric", zap.String("name", s.name), zap.Error(err))
		return nil, fmt.Errorf("store metric: %w", err)
	}
	telemetry.RecordMetricIngested(owner)

	view := NewMetricView(*metric)
	return &view, nil
}

func (ms *metricService) ListAll(ctx context.Context) (*AllMetrics, error) {
	var (
		pods    []models.Pod
		runs    []models.Run
		metrics []models.Metric
	)

	// one snapshot, so no metric refers to a pod or run the listing missed
	err := ms.repository.Snapshot(ctx, func(r MetricRepository) error {
		var err error
		if pods, err = r.GetAllPod(ctx); err != nil {
			return err
		}
		if runs, err = r.GetAllRun(ctx); err != nil {
			return err
		}
		metrics, err = r.GetAllMetric(ctx)
		return err
	})
	if err != nil {
		ms.logger.Error("failed to get metrics from database", zap.Error(err))
		return nil, err
	}

	byPod, byRun := partition(metrics)

	result := &AllMetrics{
		PodMetrics: make(map[string]Series, len(pods)),
		RunMetrics: make(map[string]Series, len(runs)),
	}
	for _, pod := range pods {
		result.PodMetrics[pod.Name] = GroupAndFilter(byPod[pod.ID], Window{})
	}

	// runs sharing a name share a key
	runsByName := make(map[string][]models.Metric, len(runs))
	for _, run := range runs {
		runsByName[run.Name] = append(runsByName[run.Name], byRun[run.ID]...)
	}
	for name, owned := range runsByName {
		result.RunMetrics[name] = GroupAndFilter(owned, Window{})
	}
	return result, nil
}

func (ms *metricService) Retrieve(ctx context.Context, q query.Query) (Series, error) {
	ms.logger.Debug("retrieve metrics",
		zap.String("id", q.ID),
		zap.String("kind", string(q.Kind)))

	metrics, err := ownedMetrics(ctx, ms.repository, q)
	if err != nil {
		return nil, err
	}
	return GroupAndFilter(metrics, Window{Since: q.Since}), nil
}

func ownedMetrics(ctx context.Context, r MetricRepository, q query.Query) ([]models.Metric, error) {
	if q.Kind == query.OwnerRun {
		run, err := r.GetRun(ctx, q.ID)
		if err != nil {
			return nil, err
		}
		return r.GetMetricsByRun(ctx, run.ID)
	}

	pod, err := r.GetPodByName(ctx, q.ID)
	if err != nil {
		return nil, err
	}
	return r.GetMetricsByPods(ctx, []uint{pod.ID})
}
