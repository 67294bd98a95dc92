// Command measure is the measurement-only function; it reports the module
// load timings of its own process on every invocation.
package main

import (
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/kaz/kaltstart/imports"
	"github.com/kaz/kaltstart/workload"
	log "github.com/sirupsen/logrus"
)

func main() {
	service := os.Getenv(workload.EnvService)
	if service == "" {
		service = os.Getenv(workload.EnvFunction)
	}

	m, err := workload.InitializeMeasurement(imports.Default, os.Stdout, os.Getenv(workload.EnvNamespace), service)
	if err != nil {
		log.Fatalf("workload.InitializeMeasurement failed: %v", err)
	}

	lambda.Start(m.Handle)
}
