// Package planner contains the HTTP client for the external planning
// service. The service decides whether a new opportunity exists; pricing and
// ranking logic stays entirely on its side of the boundary.
package planner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"

	"dealhunt/internal/domain/entity"
	"dealhunt/pkg/httpx"
	"dealhunt/pkg/logx"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

const defaultRequestTimeout = 5 * time.Minute

type planRequest struct {
	Memory    []entity.Opportunity `json:"memory"`
	Recipient string               `json:"recipient,omitempty"`
}

// HTTPClient calls the planning service over HTTP. A 200 response carries the
// single new opportunity; 204 means none was found this attempt.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPClient(baseURL, token string, timeout time.Duration, logFieldMaxLen int) *HTTPClient {
	if timeout == 0 {
		timeout = defaultRequestTimeout
	}

	var transport http.RoundTripper = httpx.NewLoggingRoundTripper(
		http.DefaultTransport,
		httpx.WithSensitiveDataMasker(logx.NewSensitiveDataMasker()),
		httpx.WithLogFieldMaxLen(logFieldMaxLen),
	)

	if token != "" {
		transport = httpx.NewAuthBearerRoundTripper(transport, staticAuthenticator{token: token})
	}

	return &HTTPClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
	}
}

func (c *HTTPClient) Plan(
	ctx context.Context,
	memory []entity.Opportunity,
	recipient string,
) (*entity.Opportunity, error) {
	body, err := json.Marshal(planRequest{Memory: memory, Recipient: recipient})
	if err != nil {
		return nil, fmt.Errorf("json.Marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/v1/plan",
		bytes.NewReader(body),
	)
	if err != nil {
		return nil, fmt.Errorf("http.NewRequestWithContext: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpClient.Do: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent:
		return nil, nil

	case http.StatusOK:
		var opportunity entity.Opportunity
		if err := json.NewDecoder(resp.Body).Decode(&opportunity); err != nil {
			return nil, fmt.Errorf("json.Decode: %w", err)
		}

		return &opportunity, nil

	default:
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512)) //nolint:errcheck

		return nil, fmt.Errorf("planner responded %d: %s", resp.StatusCode, payload)
	}
}

type staticAuthenticator struct {
	token string
}

func (a staticAuthenticator) Authenticate(context.Context) error {
	return nil
}

func (a staticAuthenticator) BearerToken() string {
	return a.token
}
