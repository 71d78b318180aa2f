package pipeline_test

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jonwraymond/llmops/pipeline"
	"github.com/jonwraymond/llmops/resilience"
	"github.com/jonwraymond/llmops/stream"
)

// ExampleClient_Execute shows a non-streaming call through the full pipeline.
func ExampleClient_Execute() {
	exec := resilience.NewExecutor(
		resilience.WithRateLimiter(resilience.NewRateLimiter(resilience.RateLimiterConfig{Rate: 50, Burst: 10})),
		resilience.WithCircuitBreaker(resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{})),
		resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{MaxRetries: 2, BaseDelay: 100 * time.Millisecond})),
	)
	client := pipeline.NewClient(pipeline.WithExecutor(exec))

	res, err := client.Execute(context.Background(), pipeline.Operation{
		Provider: "anthropic",
		Name:     "messages",
		Do: func(ctx context.Context) ([]byte, error) {
			return []byte(`{"text":"hello"}`), nil
		},
	})
	if err != nil {
		fmt.Println("call failed:", err)
		return
	}

	fmt.Println(string(res.Body))
	// Output: {"text":"hello"}
}

type nopCloser struct{ io.Reader }

func (nopCloser) Close() error { return nil }

// ExampleClient_OpenStream shows consuming a streamed response.
func ExampleClient_OpenStream() {
	client := pipeline.NewClient()

	payload := "data: {\"type\":\"content_block_delta\",\"index\":0,\"delta\":{\"type\":\"text_delta\",\"text\":\"Hello, world\"}}\n\n" +
		"data: [DONE]\n\n"

	s, err := client.OpenStream(context.Background(), pipeline.StreamOperation{
		Provider: "anthropic",
		Name:     "messages",
		Open: func(ctx context.Context) (io.ReadCloser, error) {
			return nopCloser{strings.NewReader(payload)}, nil
		},
	})
	if err != nil {
		fmt.Println("open failed:", err)
		return
	}
	defer s.Close()

	for {
		ev, err := s.Next()
		if err != nil {
			break
		}
		if delta, ok := ev.(stream.ContentDelta); ok {
			fmt.Println(delta.Text)
		}
	}
	// Output: Hello, world
}
