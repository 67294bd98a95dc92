package digest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/kaz/kaltstart/aggregate"
	log "github.com/sirupsen/logrus"
)

type (
	LogsAPI interface {
		DescribeLogGroups(ctx context.Context, params *cloudwatchlogs.DescribeLogGroupsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeLogGroupsOutput, error)
		FilterLogEvents(ctx context.Context, params *cloudwatchlogs.FilterLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.FilterLogEventsOutput, error)
	}

	// LogsSource reads the log groups of every function whose group name
	// starts with groupPrefix+targetPrefix.
	LogsSource struct {
		ctx          context.Context
		cancel       context.CancelFunc
		api          LogsAPI
		groupPrefix  string
		targetPrefix string
		window       aggregate.Window
		err          error
		done         chan struct{}
	}
)

// Only these lines can become records.
const logsFilterPattern = `?"REPORT " ?"module_timings"`

func NewLogsSource(ctx context.Context, api LogsAPI, groupPrefix, targetPrefix string, window aggregate.Window) RecordSource {
	ctx, cancel := context.WithCancel(ctx)
	return &LogsSource{
		ctx:          ctx,
		cancel:       cancel,
		api:          api,
		groupPrefix:  groupPrefix,
		targetPrefix: targetPrefix,
		window:       window,
	}
}

func (ls *LogsSource) Records() chan interface{} {
	ch := make(chan interface{})
	ls.done = make(chan struct{})
	go func() {
		defer close(ls.done)
		defer close(ch)

		groups, err := ls.LogGroups()
		if err != nil {
			ls.err = fmt.Errorf("LogGroups failed: %w", err)
			return
		}
		for _, group := range groups {
			if err := ls.read(group, ch); err != nil {
				ls.err = fmt.Errorf("read %v failed: %w", group, err)
				return
			}
		}
	}()
	return ch
}

func (ls *LogsSource) Close() error {
	ls.cancel()
	if ls.done != nil {
		<-ls.done
	}
	return ls.err
}

// LogGroups lists the matching group names in API order.
func (ls *LogsSource) LogGroups() ([]string, error) {
	var groups []string
	var token *string
	for {
		out, err := ls.api.DescribeLogGroups(ls.ctx, &cloudwatchlogs.DescribeLogGroupsInput{
			LogGroupNamePrefix: aws.String(ls.groupPrefix + ls.targetPrefix),
			NextToken:          token,
		})
		if err != nil {
			return nil, fmt.Errorf("DescribeLogGroups failed: %w", err)
		}
		for _, g := range out.LogGroups {
			if name := aws.ToString(g.LogGroupName); name != "" {
				groups = append(groups, name)
			}
		}
		if aws.ToString(out.NextToken) == "" {
			return groups, nil
		}
		token = out.NextToken
	}
}

func (ls *LogsSource) read(group string, ch chan interface{}) error {
	function := strings.TrimPrefix(group, ls.groupPrefix)

	in := &cloudwatchlogs.FilterLogEventsInput{
		LogGroupName:  aws.String(group),
		FilterPattern: aws.String(logsFilterPattern),
	}
	if !ls.window.Start.IsZero() {
		in.StartTime = aws.Int64(ls.window.Start.UnixMilli())
	}
	if !ls.window.End.IsZero() {
		in.EndTime = aws.Int64(ls.window.End.UnixMilli())
	}

	for {
		out, err := ls.api.FilterLogEvents(ls.ctx, in)
		if err != nil {
			return fmt.Errorf("FilterLogEvents failed: %w", err)
		}

		for _, ev := range out.Events {
			at := time.UnixMilli(aws.ToInt64(ev.Timestamp)).UTC()
			rec, err := ParseLine(function, at, aws.ToString(ev.Message))
			if err != nil {
				log.WithField("group", group).Warnf("ParseLine failed: %v", err)
				continue
			}
			if rec == nil {
				continue
			}

			if err := send(ls.ctx, ch, rec); err != nil {
				return err
			}
		}

		if aws.ToString(out.NextToken) == "" {
			return nil
		}
		in.NextToken = out.NextToken
	}
}
