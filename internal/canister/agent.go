package canister

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/surveychain/internal/config"
	"golang.org/x/time/rate"
)

// Agent is the HTTP transport to the canister gateway. It is safe for concurrent use.
type Agent struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	maxRetries int
	backoff    time.Duration
	limiter    *rate.Limiter
	log        zerolog.Logger
}

// NewAgent creates an Agent for the gateway configured in cfg.
func NewAgent(cfg *config.Config, log zerolog.Logger) *Agent {
	limit := rate.Inf
	if cfg.CallRate > 0 {
		limit = rate.Limit(cfg.CallRate)
	}
	burst := cfg.CallBurst
	if burst < 1 {
		burst = 1
	}
	return &Agent{
		baseURL:    strings.TrimRight(cfg.CanisterGatewayURL, "/"),
		httpClient: &http.Client{},
		timeout:    cfg.CallTimeout,
		maxRetries: cfg.CallMaxRetries,
		backoff:    cfg.CallBackoff,
		limiter:    rate.NewLimiter(limit, burst),
		log:        log.With().Str("component", "canister_agent").Logger(),
	}
}

type callBody struct {
	Args []any `json:"args"`
}

// Call invokes method on canisterID with positional args and decodes the
// candid reply into out. token, when set, is forwarded as the caller identity.
// Only HTTP 429 is retried; everything else is returned to the caller.
func (a *Agent) Call(ctx context.Context, token, canisterID, method string, args []any, out any) error {
	if args == nil {
		args = []any{}
	}
	payload, err := json.Marshal(callBody{Args: args})
	if err != nil {
		return &TransportError{Method: method, Err: fmt.Errorf("encode args: %w", err)}
	}

	endpoint := fmt.Sprintf("%s/canisters/%s/call/%s", a.baseURL, url.PathEscape(canisterID), url.PathEscape(method))
	log := a.log.With().Str("canister", canisterID).Str("method", method).Logger()

	for attempt := 0; ; attempt++ {
		if err := a.limiter.Wait(ctx); err != nil {
			return &TransportError{Method: method, Err: fmt.Errorf("wait for call slot: %w", err)}
		}
		status, body, err := a.do(ctx, token, endpoint, payload)
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempt+1).Msg("Canister call failed")
			return &TransportError{Method: method, Err: err}
		}

		if status == http.StatusTooManyRequests {
			if attempt >= a.maxRetries {
				return &TransportError{Method: method, Status: status, Err: ErrRateLimited}
			}
			wait := a.backoff * time.Duration(1<<attempt)
			log.Debug().Dur("wait", wait).Int("attempt", attempt+1).Msg("Rate limited, backing off")
			select {
			case <-ctx.Done():
				return &TransportError{Method: method, Err: ctx.Err()}
			case <-time.After(wait):
			}
			continue
		}

		if status < 200 || status >= 300 {
			return &TransportError{Method: method, Status: status, Err: errors.New(strings.TrimSpace(string(body)))}
		}

		if out == nil {
			return nil
		}
		if err := json.Unmarshal(body, out); err != nil {
			return &TransportError{Method: method, Status: status, Err: fmt.Errorf("decode reply: %w", err)}
		}
		log.Debug().Int("attempt", attempt+1).Msg("Canister call completed")
		return nil
	}
}

func (a *Agent) do(ctx context.Context, token, endpoint string, payload []byte) (int, []byte, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read reply: %w", err)
	}
	return resp.StatusCode, body, nil
}
