package metric

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/pquerna/ffjson/ffjson"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"mlbench-api-server/internal/api/common/query"
	"mlbench-api-server/internal/cluster"
	"mlbench-api-server/internal/models"
	"mlbench-api-server/internal/telemetry"
	"mlbench-api-server/internal/utils"
)

const resultFile = "result.json"

type archiveFile struct {
	Name string
	Data []byte
}

// Export bundles the owner's series into a zip. For a run every worker pod
// gets its own file holding that pod's metrics over the run's lifetime,
// created_at and finished_at included.
// The archive is built in memory, so a failure never leaves a partial one.
func (ms *metricService) Export(ctx context.Context, q query.Query) (*Archive, error) {
	defer telemetry.ObserveExport(string(q.Kind), time.Now())

	var (
		files    []archiveFile
		filename string
		err      error
	)
	if q.Kind == query.OwnerRun {
		files, filename, err = ms.runFiles(ctx, q)
	} else {
		files, filename, err = ms.podFiles(ctx, q)
	}
	if err != nil {
		return nil, err
	}

	data, err := buildArchive(ctx, time.Now().UTC(), files)
	if err != nil {
		return nil, fmt.Errorf("build archive: %w", err)
	}
	return &Archive{
		Filename: fmt.Sprintf("metrics_%s.zip", filename),
		Data:     data,
	}, nil
}

func (ms *metricService) podFiles(ctx context.Context, q query.Query) ([]archiveFile, string, error) {
	var (
		pod    *models.Pod
		series Series
	)
	err := ms.repository.Snapshot(ctx, func(r MetricRepository) error {
		var err error
		if pod, err = r.GetPodByName(ctx, q.ID); err != nil {
			return err
		}
		metrics, err := r.GetMetricsByPods(ctx, []uint{pod.ID})
		if err != nil {
			return err
		}
		series = GroupAndFilter(metrics, Window{Since: q.Since})
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	data, err := encodeSeries(series)
	if err != nil {
		return nil, "", err
	}
	return []archiveFile{{Name: resultFile, Data: data}}, utils.SecureFilename(pod.Name, "pod"), nil
}

func (ms *metricService) runFiles(ctx context.Context, q query.Query) ([]archiveFile, string, error) {
	if _, err := ms.repository.GetRun(ctx, q.ID); err != nil {
		return nil, "", err
	}

	// resolved before the snapshot so no transaction waits on the cluster
	live, breakdown := ms.workerNames(ctx, q.ID)

	var (
		run     *models.Run
		series  Series
		perPod  = make(map[string]Series)
		podList []models.Pod
	)
	err := ms.repository.Snapshot(ctx, func(r MetricRepository) error {
		var err error
		if run, err = r.GetRun(ctx, q.ID); err != nil {
			return err
		}
		metrics, err := r.GetMetricsByRun(ctx, run.ID)
		if err != nil {
			return err
		}
		series = GroupAndFilter(metrics, Window{Since: q.Since})

		if !breakdown {
			return nil
		}
		if podList, err = r.GetPodsByRun(ctx, run.ID); err != nil {
			return err
		}
		podMetrics, err := r.GetMetricsByPods(ctx, lo.Map(podList, func(p models.Pod, _ int) uint { return p.ID }))
		if err != nil {
			return err
		}
		byPod, _ := partition(podMetrics)
		lifetime := Window{Since: &run.CreatedAt, Until: run.FinishedAt, IncludeSince: true}
		for _, pod := range podList {
			perPod[pod.Name] = GroupAndFilter(byPod[pod.ID], lifetime)
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	data, err := encodeSeries(series)
	if err != nil {
		return nil, "", err
	}
	files := []archiveFile{{Name: resultFile, Data: data}}

	// workers the cluster reports before they were ever recorded have no samples yet
	for _, name := range live {
		if _, ok := perPod[name]; !ok {
			podList = append(podList, models.Pod{Name: name})
			perPod[name] = Series{}
		}
	}

	sort.Slice(podList, func(i, j int) bool { return podList[i].Name < podList[j].Name })
	used := map[string]bool{strings.ToLower(strings.TrimSuffix(resultFile, ".json")): true}
	for _, pod := range podList {
		data, err := encodeSeries(perPod[pod.Name])
		if err != nil {
			return nil, "", err
		}
		files = append(files, archiveFile{Name: podFilename(used, pod) + ".json", Data: data})
	}
	return files, utils.SecureFilename(run.Name, "run"), nil
}

// podFilename sanitizes the pod name and suffixes it until it is unique
// among used, compared case-insensitively.
func podFilename(used map[string]bool, pod models.Pod) string {
	base := utils.SecureFilename(pod.Name, fmt.Sprintf("pod-%d", pod.ID))
	name := base
	if used[strings.ToLower(name)] && pod.ID != 0 {
		name = fmt.Sprintf("%s-%d", base, pod.ID)
	}
	for i := 2; used[strings.ToLower(name)]; i++ {
		name = fmt.Sprintf("%s-%d", base, i)
	}
	used[strings.ToLower(name)] = true
	return name
}

// workerNames asks the cluster which workers belong to the run. Recorded pods
// are always exported; the cluster only adds workers not recorded yet. An
// unreachable cluster disables the per pod breakdown.
func (ms *metricService) workerNames(ctx context.Context, runID string) (names []string, breakdown bool) {
	if ms.cluster == nil {
		return nil, true
	}

	ctx, cancel := context.WithTimeout(ctx, clusterTimeout)
	defer cancel()

	pods, err := ms.cluster.ListPods(ctx, cluster.WorkerSelector(runID))
	if err != nil {
		ms.logger.Warn("cluster unavailable, exporting without per pod files",
			zap.String("run", runID),
			zap.Error(err))
		return nil, false
	}
	return lo.Map(pods, func(p cluster.WorkerPod, _ int) string { return p.Name }), true
}

func encodeSeries(series Series) ([]byte, error) {
	raw, err := ffjson.Marshal(series)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "    "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func buildArchive(ctx context.Context, modified time.Time, files []archiveFile) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			_ = zw.Close()
			return nil, err
		}
		header := &zip.FileHeader{
			Name:     file.Name,
			Method:   zip.Deflate,
			Modified: modified,
		}
		writer, err := zw.CreateHeader(header)
		if err != nil {
			_ = zw.Close()
			return nil, err
		}
		if _, err := writer.Write(file.Data); err != nil {
			_ = zw.Close()
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
