package query

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"mlbench-api-server/internal/api/common/errors"
	"mlbench-api-server/internal/utils"
)

type OwnerKind string

const (
	OwnerPod OwnerKind = "pod"
	OwnerRun OwnerKind = "run"
)

type Format string

const (
	FormatJSON    Format = "json"
	FormatArchive Format = "archive"
)

// Query 파라미터들 parsing 하기 위해 사용함
type parseQuery struct {
	Since      string `query:"since"`
	MetricType string `query:"metric_type"`
	Format     string `query:"format"`
}

type Query struct {
	ID    string
	Since *time.Time
	Kind  OwnerKind
	Format
}

func (q parseQuery) ParseAndValidate(c *fiber.Ctx) (Query, error) {
	query := Query{
		ID:     c.Params("id"),
		Kind:   OwnerPod,
		Format: FormatJSON,
	}

	if q.Since != "" {
		since, err := utils.ParseSince(q.Since)
		if err != nil {
			return Query{}, errors.BadRequestErr("invalid since %q: expected UTC ISO 8601 timestamp", q.Since)
		}
		query.Since = &since
	}

	switch OwnerKind(q.MetricType) {
	case "", OwnerPod:
	case OwnerRun:
		query.Kind = OwnerRun
	default:
		return Query{}, errors.BadRequestErr("invalid metric_type %q: expected pod or run", q.MetricType)
	}

	switch q.Format {
	case "", string(FormatJSON):
	case string(FormatArchive), "zip":
		query.Format = FormatArchive
	default:
		return Query{}, errors.BadRequestErr("invalid format %q: expected json or archive", q.Format)
	}

	return query, nil
}

func ParseAndValidate(c *fiber.Ctx) (Query, error) {
	query := &parseQuery{}
	if err := c.QueryParser(query); err != nil {
		return Query{}, errors.BadRequestErr("invalid query: %v", err)
	}
	return query.ParseAndValidate(c)
}
