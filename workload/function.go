// Package workload is the data-processing function under benchmark. All heavy
// dependencies are acquired in Initialize, which the function binaries call
// exactly once before handing a handler to the runtime; the per-module cost of
// that phase is reported once, on the first (cold) invocation.
package workload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/kaz/kaltstart/imports"
	"github.com/kaz/kaltstart/telemetry"
	"github.com/kaz/kaltstart/timing"
	log "github.com/sirupsen/logrus"
)

const (
	EnvBucket    = "BUCKET_NAME"
	EnvNamespace = "METRICS_NAMESPACE"
	EnvService   = "SERVICE_NAME"
	EnvFunction  = "AWS_LAMBDA_FUNCTION_NAME"

	TelemetryInitTime = "telemetry_init_time"
	SDKInitTime       = "sdk_init_time"
)

type (
	ObjectPutter interface {
		PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	}

	Options struct {
		Registry *imports.Registry
		Output   io.Writer
		Getenv   func(string) string
		NewStore func(ctx context.Context) (ObjectPutter, error)
		Now      func() time.Time
	}

	Env struct {
		Bucket    string
		Namespace string
		Service   string
		Function  string
	}

	Function struct {
		env     Env
		mods    *modules
		timings *imports.Timings
		sink    *telemetry.Sink
		store   ObjectPutter
		now     func() time.Time

		cold int32
		mu   sync.Mutex
		rnd  *rand.Rand
	}

	Response struct {
		StatusCode int               `json:"statusCode"`
		Body       string            `json:"body"`
		Headers    map[string]string `json:"headers"`
	}
)

var (
	initOnce sync.Once
	initFn   *Function
	initErr  error
)

func DefaultOptions() Options {
	return Options{
		Registry: imports.Default,
		Output:   os.Stdout,
		Getenv:   os.Getenv,
		NewStore: func(ctx context.Context) (ObjectPutter, error) {
			cfg, err := config.LoadDefaultConfig(ctx)
			if err != nil {
				return nil, fmt.Errorf("config.LoadDefaultConfig failed: %w", err)
			}
			return s3.NewFromConfig(cfg), nil
		},
		Now: time.Now,
	}
}

// Init runs Initialize with the default options once per process and returns
// the same Function to every caller.
func Init(ctx context.Context) (*Function, error) {
	initOnce.Do(func() {
		initFn, initErr = Initialize(ctx, DefaultOptions())
	})
	return initFn, initErr
}

func ReadEnv(getenv func(string) string) (Env, error) {
	env := Env{
		Bucket:    getenv(EnvBucket),
		Namespace: getenv(EnvNamespace),
		Service:   getenv(EnvService),
		Function:  getenv(EnvFunction),
	}
	if env.Service == "" {
		env.Service = env.Function
	}

	if env.Bucket == "" {
		return env, fmt.Errorf("%v is not set", EnvBucket)
	}
	if env.Namespace == "" {
		return env, fmt.Errorf("%v is not set", EnvNamespace)
	}
	return env, nil
}

func Initialize(ctx context.Context, opts Options) (*Function, error) {
	rec := imports.NewRecorder(opts.Registry)
	mods, err := loadModules(rec)
	if err != nil {
		return nil, fmt.Errorf("loadModules failed: %w", err)
	}

	env, err := ReadEnv(opts.Getenv)
	if err != nil {
		return nil, fmt.Errorf("ReadEnv failed: %w", err)
	}

	fixed := imports.NewTimings()

	var sink *telemetry.Sink
	fixed.Set(TelemetryInitTime, timing.Measure(TelemetryInitTime, func() {
		sink = telemetry.New(opts.Output, env.Namespace, env.Service)
	}).ElapsedMicros)

	var store ObjectPutter
	fixed.Set(SDKInitTime, timing.Measure(SDKInitTime, func() {
		store, err = opts.NewStore(ctx)
	}).ElapsedMicros)
	if err != nil {
		return nil, fmt.Errorf("NewStore failed: %w", err)
	}

	return &Function{
		env:     env,
		mods:    mods,
		timings: rec.Timings().Merge(fixed),
		sink:    sink,
		store:   store,
		now:     opts.Now,
		cold:    1,
		rnd:     rand.New(rand.NewSource(opts.Now().UnixNano())),
	}, nil
}

func (f *Function) Timings() *imports.Timings {
	return f.timings
}

func (f *Function) Handle(ctx context.Context, _ json.RawMessage) (*Response, error) {
	if atomic.CompareAndSwapInt32(&f.cold, 1, 0) {
		f.reportColdStart()
	}

	f.sink.Entry().WithField("version", runtime.Version()).Info("Go version")

	f.mu.Lock()
	orders := generateOrders(f.rnd, OrderCount, f.now().In(f.mods.location))
	f.mu.Unlock()

	sum, err := tabulate(orders, f.mods.location)
	if err != nil {
		return nil, fmt.Errorf("tabulate failed: %w", err)
	}
	f.sink.Entry().WithFields(log.Fields{
		"df_head":      sum.Head,
		"rows":         sum.Rows,
		"revenue":      sum.Revenue,
		"avg_quantity": sum.AvgQuantity,
	}).Info("DataFrame")

	data, err := encodeParquet(orders, f.mods.schema)
	if err != nil {
		return nil, fmt.Errorf("encodeParquet failed: %w", err)
	}

	key := fmt.Sprintf("%v/%v.parquet", f.functionName(), requestID(ctx))
	_, err = f.store.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(f.env.Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return nil, fmt.Errorf("s3.PutObject failed: %w", err)
	}

	body, err := json.Marshal(map[string]string{
		"parquet_data_base64": f.mods.encoding.EncodeToString(data),
	})
	if err != nil {
		return nil, fmt.Errorf("json.Marshal failed: %w", err)
	}

	return &Response{
		StatusCode: 200,
		Body:       string(body),
		Headers:    map[string]string{"Content-Type": "application/json"},
	}, nil
}

func (f *Function) reportColdStart() {
	f.sink.ModuleTimings(f.timings)

	dims := map[string]string{"service": f.env.Service}
	f.sink.PutMetrics([]telemetry.Metric{{Name: telemetry.ColdStartMetric, Unit: telemetry.UnitCount, Value: 1}},
		map[string]string{"service": f.env.Service, "function_name": f.functionName()})
	f.sink.PutMetrics(telemetry.ModuleMetrics(f.timings), dims)
}

// functionName prefers the name the runtime reports over the environment.
func (f *Function) functionName() string {
	if lambdacontext.FunctionName != "" {
		return lambdacontext.FunctionName
	}
	if f.env.Function != "" {
		return f.env.Function
	}
	return f.env.Service
}

func requestID(ctx context.Context) string {
	if lc, ok := lambdacontext.FromContext(ctx); ok && lc.AwsRequestID != "" {
		return lc.AwsRequestID
	}
	return fmt.Sprintf("local-%d", time.Now().UnixNano())
}
