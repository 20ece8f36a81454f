package tracing

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/komandara/k10fabric/datarecording"
)

// A TaskQuery selects recorded tasks. Empty fields do not filter.
type TaskQuery struct {
	Kind     string
	Location string
	Limit    int
	Offset   int
}

// QueryTasks reads the tasks a DBTracer recorded, in start time order. The
// location matches as a prefix, so "K10.Xbar" selects every element of the
// crossbar. It also returns the number of tasks that match without the
// limit.
func QueryTasks(
	ctx context.Context,
	r datarecording.DataReader,
	q TaskQuery,
) ([]TaskEntry, int, error) {
	r.MapTable(TaskTableName, TaskEntry{})

	var (
		conds []string
		args  []any
	)

	if q.Kind != "" {
		conds = append(conds, "Kind = ?")
		args = append(args, q.Kind)
	}

	if q.Location != "" {
		conds = append(conds, "Location LIKE ?")
		args = append(args, q.Location+"%")
	}

	rows, total, err := r.Query(ctx, TaskTableName, datarecording.QueryParams{
		Where:   strings.Join(conds, " AND "),
		Args:    args,
		OrderBy: "StartTime, ID",
		Limit:   q.Limit,
		Offset:  q.Offset,
	})
	if err != nil {
		return nil, 0, errors.Wrap(err, "querying tasks")
	}

	tasks := make([]TaskEntry, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, *row.(*TaskEntry))
	}

	return tasks, total, nil
}
