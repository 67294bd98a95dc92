// Package queue drives the queue-triggered targets by filling their queue
// with batches of messages.
package queue

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

const MaxBatchSize = 10

type (
	API interface {
		ListQueues(ctx context.Context, params *sqs.ListQueuesInput, optFns ...func(*sqs.Options)) (*sqs.ListQueuesOutput, error)
		SendMessageBatch(ctx context.Context, params *sqs.SendMessageBatchInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageBatchOutput, error)
	}

	Sender struct {
		api          API
		nameContains string
		batchSize    int
		body         string
		out          io.Writer
		now          func() time.Time
	}

	Result struct {
		QueueURL  string
		Succeeded int
		Failed    int
	}
)

func NewSender(api API, nameContains string, batchSize int, body string, out io.Writer) *Sender {
	if batchSize < 1 || batchSize > MaxBatchSize {
		batchSize = MaxBatchSize
	}
	return &Sender{
		api:          api,
		nameContains: nameContains,
		batchSize:    batchSize,
		body:         body,
		out:          out,
		now:          time.Now,
	}
}

// FindQueue returns the first queue URL containing the configured marker.
func (s *Sender) FindQueue(ctx context.Context) (string, error) {
	in := &sqs.ListQueuesInput{}
	for {
		out, err := s.api.ListQueues(ctx, in)
		if err != nil {
			return "", fmt.Errorf("ListQueues failed: %w", err)
		}
		for _, url := range out.QueueUrls {
			if strings.Contains(url, s.nameContains) {
				return url, nil
			}
		}
		if aws.ToString(out.NextToken) == "" {
			return "", fmt.Errorf("no queue URL contains %q", s.nameContains)
		}
		in.NextToken = out.NextToken
	}
}

// Send enqueues count messages numbered from 1. Entry ids are
// <batch timestamp>-<number>, so two runs never collide. A failed batch call
// aborts; entries the queue rejected are only counted.
func (s *Sender) Send(ctx context.Context, count int) (*Result, error) {
	if count < 0 {
		return nil, fmt.Errorf("count must not be negative, got %d", count)
	}

	url, err := s.FindQueue(ctx)
	if err != nil {
		return nil, fmt.Errorf("FindQueue failed: %w", err)
	}

	result := &Result{QueueURL: url}
	batchTS := s.now().Format("20060102150405")

	for first := 1; first <= count; first += s.batchSize {
		last := first + s.batchSize - 1
		if last > count {
			last = count
		}

		entries := make([]types.SendMessageBatchRequestEntry, 0, last-first+1)
		for i := first; i <= last; i++ {
			entries = append(entries, types.SendMessageBatchRequestEntry{
				Id:          aws.String(fmt.Sprintf("%v-%d", batchTS, i)),
				MessageBody: aws.String(s.body),
			})
		}

		fmt.Fprintf(s.out, "Sending messages %d to %d... \t", first, last)
		out, err := s.api.SendMessageBatch(ctx, &sqs.SendMessageBatchInput{QueueUrl: aws.String(url), Entries: entries})
		if err != nil {
			fmt.Fprintln(s.out)
			return result, fmt.Errorf("SendMessageBatch failed: %w", err)
		}
		fmt.Fprintf(s.out, "%d failed, %d succeeded\n", len(out.Failed), len(out.Successful))

		result.Failed += len(out.Failed)
		result.Succeeded += len(out.Successful)
	}

	return result, nil
}
