package controlplane

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/cenkalti/backoff/v4"
)

type (
	lambdaAPI interface {
		ListFunctions(ctx context.Context, params *lambda.ListFunctionsInput, optFns ...func(*lambda.Options)) (*lambda.ListFunctionsOutput, error)
		GetFunctionConfiguration(ctx context.Context, params *lambda.GetFunctionConfigurationInput, optFns ...func(*lambda.Options)) (*lambda.GetFunctionConfigurationOutput, error)
		UpdateFunctionConfiguration(ctx context.Context, params *lambda.UpdateFunctionConfigurationInput, optFns ...func(*lambda.Options)) (*lambda.UpdateFunctionConfigurationOutput, error)
		Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
	}

	// LambdaClient is the Client backed by the Lambda management API. Listing
	// and configuration calls are retried with exponential backoff while the
	// control plane throttles; invocations are never retried.
	LambdaClient struct {
		api        lambdaAPI
		newBackOff func() backoff.BackOff
	}
)

func NewLambdaClient(cfg aws.Config) *LambdaClient {
	return newLambdaClient(lambda.NewFromConfig(cfg))
}

func newLambdaClient(api lambdaAPI) *LambdaClient {
	return &LambdaClient{api: api, newBackOff: defaultBackOff}
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxElapsedTime = 30 * time.Second
	return backoff.WithMaxRetries(b, 6)
}

func (c *LambdaClient) ListPage(ctx context.Context, marker string) (*Page, error) {
	input := &lambda.ListFunctionsInput{}
	if marker != "" {
		input.Marker = aws.String(marker)
	}

	var out *lambda.ListFunctionsOutput
	err := c.retry(ctx, func() (err error) {
		out, err = c.api.ListFunctions(ctx, input)
		return
	})
	if err != nil {
		return nil, fmt.Errorf("lambda.ListFunctions failed: %w", err)
	}

	page := &Page{NextMarker: aws.ToString(out.NextMarker)}
	for _, fn := range out.Functions {
		conf := map[string]string{}
		if fn.Environment != nil {
			for k, v := range fn.Environment.Variables {
				conf[k] = v
			}
		}
		page.Targets = append(page.Targets, &Target{Name: aws.ToString(fn.FunctionName), Configuration: conf})
	}
	return page, nil
}

func (c *LambdaClient) Configuration(ctx context.Context, name string) (map[string]string, error) {
	var out *lambda.GetFunctionConfigurationOutput
	err := c.retry(ctx, func() (err error) {
		out, err = c.api.GetFunctionConfiguration(ctx, &lambda.GetFunctionConfigurationInput{FunctionName: aws.String(name)})
		return
	})
	if err != nil {
		return nil, fmt.Errorf("lambda.GetFunctionConfiguration failed: %w", err)
	}

	conf := map[string]string{}
	if out.Environment != nil {
		for k, v := range out.Environment.Variables {
			conf[k] = v
		}
	}
	return conf, nil
}

func (c *LambdaClient) UpdateConfiguration(ctx context.Context, name string, conf map[string]string) error {
	input := &lambda.UpdateFunctionConfigurationInput{
		FunctionName: aws.String(name),
		Environment:  &types.Environment{Variables: conf},
	}

	err := c.retry(ctx, func() error {
		_, err := c.api.UpdateFunctionConfiguration(ctx, input)
		return err
	})
	if err != nil {
		return fmt.Errorf("lambda.UpdateFunctionConfiguration failed: %w", err)
	}
	return nil
}

func (c *LambdaClient) InvokeAsync(ctx context.Context, name string, payload []byte) error {
	out, err := c.api.Invoke(ctx, &lambda.InvokeInput{
		FunctionName:   aws.String(name),
		InvocationType: types.InvocationTypeEvent,
		Payload:        payload,
	})
	if err != nil {
		return fmt.Errorf("lambda.Invoke failed: %w", err)
	}
	if out.StatusCode != 202 {
		return fmt.Errorf("lambda.Invoke returned status %d", out.StatusCode)
	}
	return nil
}

func (c *LambdaClient) retry(ctx context.Context, op func() error) error {
	return backoff.Retry(func() error {
		err := op()
		if err != nil && !Throttled(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(c.newBackOff(), ctx))
}

// Throttled reports whether err means "try again later": the control plane
// is rate limiting us, or a previous update of the same target is still
// being applied.
func Throttled(err error) bool {
	var (
		tooMany  *types.TooManyRequestsException
		conflict *types.ResourceConflictException
	)
	return errors.As(err, &tooMany) || errors.As(err, &conflict)
}
