package metric

import (
	"sort"
	"time"

	"github.com/samber/lo"

	"mlbench-api-server/internal/models"
)

// Window is the half-open interval (Since, Until]. A nil bound is open.
// With IncludeSince set the lower bound is closed: [Since, Until].
type Window struct {
	Since        *time.Time
	Until        *time.Time
	IncludeSince bool
}

func (w Window) Contains(t time.Time) bool {
	if w.Since != nil {
		if t.Before(*w.Since) || (!w.IncludeSince && t.Equal(*w.Since)) {
			return false
		}
	}
	if w.Until != nil && t.After(*w.Until) {
		return false
	}
	return true
}

// GroupAndFilter partitions metrics by exact name and orders every group by
// date, insertion order breaking ties. A name whose samples all fall outside
// the window is kept with an empty list.
func GroupAndFilter(metrics []models.Metric, window Window) Series {
	groups := lo.GroupBy(metrics, func(m models.Metric) string {
		return m.Name
	})

	series := make(Series, len(groups))
	for name, group := range groups {
		sort.SliceStable(group, func(i, j int) bool {
			if !group[i].Date.Equal(group[j].Date) {
				return group[i].Date.Before(group[j].Date)
			}
			return group[i].ID < group[j].ID
		})

		views := make([]MetricView, 0, len(group))
		for _, m := range group {
			if window.Contains(m.Date) {
				views = append(views, NewMetricView(m))
			}
		}
		series[name] = views
	}
	return series
}

// partition splits metrics by owner. Metrics of unknown owners are dropped.
func partition(metrics []models.Metric) (byPod map[uint][]models.Metric, byRun map[string][]models.Metric) {
	byPod = make(map[uint][]models.Metric)
	byRun = make(map[string][]models.Metric)
	for _, m := range metrics {
		switch {
		case m.PodID != nil:
			byPod[*m.PodID] = append(byPod[*m.PodID], m)
		case m.RunID != nil:
			byRun[*m.RunID] = append(byRun[*m.RunID], m)
		}
	}
	return byPod, byRun
}
