package invoke

import (
	"context"
	"net/http"
	"time"

	"github.com/iamoneai/laneflow/pkg/engine"
	flowerrors "github.com/iamoneai/laneflow/pkg/errors"
	"github.com/iamoneai/laneflow/pkg/httputil"
)

const (
	defaultRemoteAttempts = 3
	defaultRemoteBackoff  = 500 * time.Millisecond
	defaultRemoteTimeout  = 60 * time.Second
)

// Remote invokes nodes against an external execution service. Each
// invocation is one POST to {BaseURL}/invoke carrying the template id,
// mode, and input payload; transient failures (transport errors and
// 5xx responses) are retried with doubling backoff.
type Remote struct {
	BaseURL string
	APIKey  string

	// Client defaults to an http.Client with a 60s timeout.
	Client *http.Client

	// Attempts and Backoff tune the retry loop; zero values take the
	// package defaults.
	Attempts int
	Backoff  time.Duration
}

var _ engine.NodeInvoker = (*Remote)(nil)

type remoteRequest struct {
	TemplateID string         `json:"templateId"`
	Mode       string         `json:"mode"`
	Inputs     map[string]any `json:"inputs"`
}

type remoteResponse struct {
	Outputs map[string]any `json:"outputs"`
	Fault   string         `json:"fault,omitempty"`
}

// Invoke posts one node invocation and returns the service's outputs.
// A fault reported by the service surfaces as an EXECUTION_FAULT
// error; exhausted retries surface as a NETWORK error.
func (r *Remote) Invoke(ctx context.Context, templateID string, mode engine.Mode, inputs map[string]any) (map[string]any, error) {
	if r.BaseURL == "" {
		return nil, flowerrors.New(flowerrors.ErrCodeInvalidInput, "remote invoker requires a base URL")
	}

	client := r.Client
	if client == nil {
		client = &http.Client{Timeout: defaultRemoteTimeout}
	}
	attempts := r.Attempts
	if attempts <= 0 {
		attempts = defaultRemoteAttempts
	}
	backoff := r.Backoff
	if backoff <= 0 {
		backoff = defaultRemoteBackoff
	}

	req := remoteRequest{TemplateID: templateID, Mode: string(mode), Inputs: inputs}
	var resp remoteResponse
	err := httputil.Retry(ctx, attempts, backoff, func() error {
		resp = remoteResponse{}
		return httputil.PostJSON(ctx, client, r.BaseURL+"/invoke", r.APIKey, req, &resp)
	})
	if err != nil {
		return nil, flowerrors.Wrap(flowerrors.ErrCodeNetwork, err, "remote invocation of template %s failed", templateID)
	}
	if resp.Fault != "" {
		return nil, flowerrors.New(flowerrors.ErrCodeExecutionFault, "%s", resp.Fault)
	}
	if resp.Outputs == nil {
		resp.Outputs = map[string]any{}
	}
	return resp.Outputs, nil
}
