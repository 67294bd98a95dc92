package hq

import (
	"fmt"

	"github.com/kaz/kaltstart/benchmark/queue"
	"github.com/urfave/cli/v2"
)

func ActionSendMessages(context *cli.Context) error {
	count, err := countArg(context, "send-messages")
	if err != nil {
		return err
	}

	s, err := readConfig(context)
	if err != nil {
		return fmt.Errorf("readConfig failed: %w", err)
	}
	defer s.cancel()

	q := s.conf.Queue
	sender := queue.NewSender(newQueueAPI(s.aws), q.NameContains, q.BatchSize, q.Body, context.App.Writer)

	result, err := sender.Send(s.ctx, count)
	if err != nil {
		return fmt.Errorf("Sender.Send failed: %w", err)
	}

	fmt.Fprintf(context.App.Writer, "%d failed, %d succeeded in total (%v)\n", result.Failed, result.Succeeded, result.QueueURL)
	return nil
}
