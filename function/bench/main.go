// Command bench is the data-processing benchmark function. All module loads
// and client setup happen before the runtime starts polling, so they land in
// the platform's init phase.
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/kaz/kaltstart/workload"
	log "github.com/sirupsen/logrus"
)

func main() {
	fn, err := workload.Init(context.Background())
	if err != nil {
		log.Fatalf("workload.Init failed: %v", err)
	}

	lambda.Start(fn.Handle)
}
