package metric

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"mlbench-api-server/internal/api/common/query"
	"mlbench-api-server/internal/models"
)

type MetricRepository interface {
	GetPodByName(ctx context.Context, name string) (*models.Pod, error)
	GetRun(ctx context.Context, id string) (*models.Run, error)
	GetPodsByRun(ctx context.Context, runID string) ([]models.Pod, error)
	GetAllPod(ctx context.Context) ([]models.Pod, error)
	GetAllRun(ctx context.Context) ([]models.Run, error)
	GetMetricsByPods(ctx context.Context, podIDs []uint) ([]models.Metric, error)
	GetMetricsByRun(ctx context.Context, runID string) ([]models.Metric, error)
	GetAllMetric(ctx context.Context) ([]models.Metric, error)
	CreateMetric(ctx context.Context, metric *models.Metric) error
	// Snapshot runs fn against a repository reading one consistent view.
	Snapshot(ctx context.Context, fn func(MetricRepository) error) error
}

type MetricService interface {
	Ingest(ctx context.Context, payload IngestPayload) (*MetricView, error)
	ListAll(ctx context.Context) (*AllMetrics, error)
	Retrieve(ctx context.Context, q query.Query) (Series, error)
	Export(ctx context.Context, q query.Query) (*Archive, error)
}

// Series maps a metric name to its samples in date order.
type Series map[string][]MetricView

type AllMetrics struct {
	PodMetrics map[string]Series `json:"pod_metrics"`
	RunMetrics map[string]Series `json:"run_metrics"`
}

type MetricView struct {
	Name       string    `json:"name"`
	Date       time.Time `json:"date"`
	Value      string    `json:"value"`
	Metadata   string    `json:"metadata"`
	Cumulative bool      `json:"cumulative"`
	PodID      uint      `json:"pod_id,omitempty"`
	RunID      string    `json:"run_id,omitempty"`
}

func NewMetricView(m models.Metric) MetricView {
	view := MetricView{
		Name:       m.Name,
		Date:       m.Date,
		Value:      m.Value,
		Metadata:   m.Metadata,
		Cumulative: m.Cumulative,
	}
	if m.PodID != nil {
		view.PodID = *m.PodID
	}
	if m.RunID != nil {
		view.RunID = *m.RunID
	}
	return view
}

type Archive struct {
	Filename string
	Data     []byte
}

// IngestPayload is the body workers post. Pointer fields tell absent
// apart from empty.
type IngestPayload struct {
	Name       *string     `json:"name"`
	Date       *string     `json:"date"`
	Value      *FlexString `json:"value"`
	Metadata   *string     `json:"metadata"`
	Cumulative *FlexBool   `json:"cumulative"`
	PodName    *string     `json:"pod_name"`
	RunID      *FlexString `json:"run_id"`
}

// FlexString accepts a JSON string or number and keeps the literal text.
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = FlexString(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*s = FlexString(num.String())
	return nil
}

// FlexBool accepts true/false or their string forms, "False" included.
type FlexBool bool

func (b *FlexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fmt.Errorf("expected boolean, got %s", data)
	}
	*b = FlexBool(v)
	return nil
}
