package priority

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"dailyfix/pkg/circuitbreaker"
	"dailyfix/pkg/metrics"
	"dailyfix/pkg/trace"
)

// AgentClient talks to the agent service over HTTP. Calls are bounded by
// a short timeout and a circuit breaker so a stalled agent cannot stall
// ingestion.
type AgentClient struct {
	baseURL    string
	httpClient *http.Client
	cb         *circuitbreaker.CircuitBreaker
}

func NewAgentClient(baseURL string) *AgentClient {
	cbConfig := circuitbreaker.Config{
		FailureThreshold:    3,
		SuccessThreshold:    2,
		Timeout:             30 * time.Second,
		HalfOpenMaxRequests: 2,
	}

	return &AgentClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		cb: circuitbreaker.New(cbConfig),
	}
}

type classifyRequest struct {
	Trust   string `json:"trust"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type classifyResponse struct {
	Priority string `json:"priority"`
	Intent   string `json:"intent"`
}

// Classify requests a constrained classification. Any transport error,
// non-200 status or undecodable body is returned as an error; the caller
// decides how to degrade.
func (c *AgentClient) Classify(ctx context.Context, trust, subject, body string) (*classifyResponse, error) {
	var out *classifyResponse

	err := c.cb.Execute(func() error {
		start := time.Now()

		b, err := json.Marshal(classifyRequest{
			Trust:   trust,
			Subject: subject,
			Body:    body,
		})
		if err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/classify", bytes.NewReader(b))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		if traceID := trace.FromContext(ctx); traceID != "" {
			req.Header.Set(trace.HeaderName(), traceID)
		}

		resp, err := c.httpClient.Do(req)
		latency := time.Since(start)
		if err != nil {
			metrics.RecordAgentCallLatency("error", latency)
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			metrics.RecordAgentCallLatency("5xx", latency)
			return fmt.Errorf("agent service 5xx: %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			metrics.RecordAgentCallLatency(fmt.Sprintf("%d", resp.StatusCode), latency)
			return fmt.Errorf("agent service error: %d", resp.StatusCode)
		}

		var decoded classifyResponse
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			metrics.RecordAgentCallLatency("bad_body", latency)
			return fmt.Errorf("decode agent response: %w", err)
		}

		metrics.RecordAgentCallLatency("success", latency)
		out = &decoded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
