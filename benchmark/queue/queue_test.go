package queue

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	qt "github.com/frankban/quicktest"
)

type fakeSQS struct {
	pages   [][]string
	batches []*sqs.SendMessageBatchInput
	reject  map[string]bool
	sendErr error
}

func (f *fakeSQS) ListQueues(ctx context.Context, in *sqs.ListQueuesInput, _ ...func(*sqs.Options)) (*sqs.ListQueuesOutput, error) {
	i := 0
	if in.NextToken != nil {
		i = int(aws.ToString(in.NextToken)[0] - '0')
	}
	out := &sqs.ListQueuesOutput{}
	if i < len(f.pages) {
		out.QueueUrls = f.pages[i]
	}
	if i+1 < len(f.pages) {
		out.NextToken = aws.String(string(rune('0' + i + 1)))
	}
	return out, nil
}

func (f *fakeSQS) SendMessageBatch(ctx context.Context, in *sqs.SendMessageBatchInput, _ ...func(*sqs.Options)) (*sqs.SendMessageBatchOutput, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.batches = append(f.batches, in)

	out := &sqs.SendMessageBatchOutput{}
	for _, e := range in.Entries {
		if f.reject[aws.ToString(e.Id)] {
			out.Failed = append(out.Failed, types.BatchResultErrorEntry{Id: e.Id})
		} else {
			out.Successful = append(out.Successful, types.SendMessageBatchResultEntry{Id: e.Id})
		}
	}
	return out, nil
}

const queueURL = "https://sqs.eu-west-1.amazonaws.com/123/Stack-LambdaDatasciPerfQueue-X1"

func newTestSender(api API, out *bytes.Buffer) *Sender {
	s := NewSender(api, "LambdaDatasciPerfQueue", 10, "Hello", out)
	s.now = func() time.Time { return time.Date(2024, 3, 1, 10, 15, 0, 0, time.UTC) }
	return s
}

func TestSend(t *testing.T) {
	c := qt.New(t)

	api := &fakeSQS{
		pages:  [][]string{{"https://sqs/other"}, {queueURL}},
		reject: map[string]bool{"20240301101500-12": true},
	}
	var out bytes.Buffer

	result, err := newTestSender(api, &out).Send(context.Background(), 25)
	c.Assert(err, qt.IsNil)
	c.Assert(*result, qt.Equals, Result{QueueURL: queueURL, Succeeded: 24, Failed: 1})

	c.Assert(api.batches, qt.HasLen, 3)
	c.Assert(api.batches[0].Entries, qt.HasLen, 10)
	c.Assert(api.batches[2].Entries, qt.HasLen, 5)
	c.Assert(aws.ToString(api.batches[0].QueueUrl), qt.Equals, queueURL)
	c.Assert(aws.ToString(api.batches[0].Entries[0].Id), qt.Equals, "20240301101500-1")
	c.Assert(aws.ToString(api.batches[2].Entries[4].Id), qt.Equals, "20240301101500-25")
	c.Assert(aws.ToString(api.batches[1].Entries[3].MessageBody), qt.Equals, "Hello")

	c.Assert(strings.Split(strings.TrimSpace(out.String()), "\n"), qt.DeepEquals, []string{
		"Sending messages 1 to 10... \t0 failed, 10 succeeded",
		"Sending messages 11 to 20... \t1 failed, 9 succeeded",
		"Sending messages 21 to 25... \t0 failed, 5 succeeded",
	})
}

func TestSendZero(t *testing.T) {
	c := qt.New(t)

	api := &fakeSQS{pages: [][]string{{queueURL}}}
	result, err := newTestSender(api, &bytes.Buffer{}).Send(context.Background(), 0)
	c.Assert(err, qt.IsNil)
	c.Assert(result.Succeeded, qt.Equals, 0)
	c.Assert(api.batches, qt.HasLen, 0)
}

func TestSendErrors(t *testing.T) {
	c := qt.New(t)

	_, err := newTestSender(&fakeSQS{pages: [][]string{{queueURL}}}, &bytes.Buffer{}).Send(context.Background(), -1)
	c.Assert(err, qt.ErrorMatches, "count must not be negative, got -1")

	_, err = newTestSender(&fakeSQS{pages: [][]string{{"https://sqs/other"}}}, &bytes.Buffer{}).Send(context.Background(), 1)
	c.Assert(err, qt.ErrorMatches, `FindQueue failed: no queue URL contains "LambdaDatasciPerfQueue"`)

	api := &fakeSQS{pages: [][]string{{queueURL}}, sendErr: errors.New("access denied")}
	_, err = newTestSender(api, &bytes.Buffer{}).Send(context.Background(), 3)
	c.Assert(err, qt.ErrorMatches, "SendMessageBatch failed: access denied")
}

func TestNewSenderClampsBatchSize(t *testing.T) {
	c := qt.New(t)

	c.Assert(NewSender(nil, "", 50, "", nil).batchSize, qt.Equals, MaxBatchSize)
	c.Assert(NewSender(nil, "", 3, "", nil).batchSize, qt.Equals, 3)
}
