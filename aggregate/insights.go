package aggregate

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
)

// DefaultLookback is the query range used when the window has no start.
const DefaultLookback = 24 * time.Hour

type InsightsAPI interface {
	StartQuery(ctx context.Context, params *cloudwatchlogs.StartQueryInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.StartQueryOutput, error)
	GetQueryResults(ctx context.Context, params *cloudwatchlogs.GetQueryResultsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.GetQueryResultsOutput, error)
}

var (
	pollInterval = time.Second
	now          = time.Now
)

// Run executes query against logGroups over window and waits for it to
// finish. Each result row maps field name to value; the internal @ptr field
// is dropped.
func Run(ctx context.Context, api InsightsAPI, query *Query, logGroups []string, window Window) ([]map[string]string, error) {
	if len(logGroups) == 0 {
		return nil, fmt.Errorf("no log groups to query")
	}

	end := window.End
	if end.IsZero() {
		end = now()
	}
	start := window.Start
	if start.IsZero() {
		start = end.Add(-DefaultLookback)
	}

	started, err := api.StartQuery(ctx, &cloudwatchlogs.StartQueryInput{
		LogGroupNames: logGroups,
		QueryString:   aws.String(query.Text),
		StartTime:     aws.Int64(start.Unix()),
		EndTime:       aws.Int64(end.Unix()),
	})
	if err != nil {
		return nil, fmt.Errorf("StartQuery failed: %w", err)
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		out, err := api.GetQueryResults(ctx, &cloudwatchlogs.GetQueryResultsInput{QueryId: started.QueryId})
		if err != nil {
			return nil, fmt.Errorf("GetQueryResults failed: %w", err)
		}

		switch out.Status {
		case types.QueryStatusComplete:
			return resultRows(out.Results), nil
		case types.QueryStatusFailed, types.QueryStatusCancelled, types.QueryStatusTimeout:
			return nil, fmt.Errorf("query %q ended with status %v", query.Title, out.Status)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func resultRows(results [][]types.ResultField) []map[string]string {
	rows := make([]map[string]string, 0, len(results))
	for _, fields := range results {
		row := map[string]string{}
		for _, f := range fields {
			name := aws.ToString(f.Field)
			if name == "" || name == "@ptr" {
				continue
			}
			row[name] = aws.ToString(f.Value)
		}
		rows = append(rows, row)
	}
	return rows
}
