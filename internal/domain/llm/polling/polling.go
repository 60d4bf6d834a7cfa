package polling

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"

	"luaspark-server/internal/domain/llm"
	"luaspark-server/internal/domain/user/model"
	"luaspark-server/internal/platform/config"
	"luaspark-server/internal/platform/errors"
)

// Job states reported by the upstream.
const (
	statusPending   = "pending"
	statusRunning   = "running"
	statusCompleted = "completed"
	statusFailed    = "failed"
)

func init() {
	llm.Register(llm.ProviderPolling, func(cfg config.LLMConfig, logger model.Logger) (llm.Provider, error) {
		return New(cfg, logger)
	})
}

type submitRequest struct {
	Messages []llm.Message `json:"messages"`
}

type submitResponse struct {
	JobID string `json:"job_id"`
}

type jobResponse struct {
	Status string `json:"status"`
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Provider targets an asynchronous upstream that accepts a job and is polled
// for its result. Polling runs at a fixed interval until the job reaches a
// terminal state or the deadline expires.
type Provider struct {
	submitURL string
	interval  time.Duration
	deadline  time.Duration
	client    *http.Client
	logger    model.Logger
}

// New builds a polling provider from configuration.
func New(cfg config.LLMConfig, logger model.Logger) (*Provider, error) {
	if cfg.Poll.SubmitURL == "" {
		return nil, errors.New(errors.KindConfig, "llm.polling", "submit url is required")
	}
	interval := cfg.Poll.Interval
	if interval <= 0 {
		interval = 1200 * time.Millisecond
	}
	deadline := cfg.Poll.Deadline
	if deadline <= 0 {
		deadline = 60 * time.Second
	}

	return &Provider{
		submitURL: cfg.Poll.SubmitURL,
		interval:  interval,
		deadline:  deadline,
		client:    &http.Client{Timeout: 30 * time.Second},
		logger:    logger,
	}, nil
}

// Chat submits the conversation as a job, then polls until it completes.
func (p *Provider) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.deadline)
	defer cancel()

	jobID, err := p.submit(ctx, messages)
	if err != nil {
		return "", err
	}
	p.logger.Debug("[LLM] submitted job %s", jobID)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
				return "", errors.New(errors.KindUpstreamTimeout, "llm.polling",
					fmt.Sprintf("job %s did not complete within %s", jobID, p.deadline))
			}
			return "", errors.Wrap(errors.KindUpstreamFailed, "llm.polling", "polling cancelled", ctx.Err())
		case <-ticker.C:
			job, err := p.poll(ctx, jobID)
			if err != nil {
				return "", err
			}
			switch job.Status {
			case statusCompleted:
				return job.Result, nil
			case statusFailed:
				return "", errors.New(errors.KindUpstreamFailed, "llm.polling",
					fmt.Sprintf("job %s failed: %s", jobID, job.Error))
			case statusPending, statusRunning:
				// keep polling
			default:
				return "", errors.New(errors.KindUpstreamFailed, "llm.polling",
					fmt.Sprintf("job %s reported unknown status %q", jobID, job.Status))
			}
		}
	}
}

func (p *Provider) submit(ctx context.Context, messages []llm.Message) (string, error) {
	body, err := sonic.Marshal(submitRequest{Messages: messages})
	if err != nil {
		return "", errors.Wrap(errors.KindUpstreamFailed, "llm.polling", "failed to encode job", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.submitURL, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(errors.KindUpstreamFailed, "llm.polling", "failed to build submit request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", errors.Wrap(errors.KindUpstreamFailed, "llm.polling", "job submission failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return "", errors.New(errors.KindUpstreamFailed, "llm.polling",
			fmt.Sprintf("job submission returned status %d", resp.StatusCode))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(errors.KindUpstreamFailed, "llm.polling", "failed to read submit response", err)
	}
	var sr submitResponse
	if err := sonic.Unmarshal(data, &sr); err != nil || sr.JobID == "" {
		return "", errors.New(errors.KindUpstreamFailed, "llm.polling", "submit response missing job id")
	}
	return sr.JobID, nil
}

func (p *Provider) poll(ctx context.Context, jobID string) (jobResponse, error) {
	url := fmt.Sprintf("%s/%s", p.submitURL, jobID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return jobResponse{}, errors.Wrap(errors.KindUpstreamFailed, "llm.polling", "failed to build poll request", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
			return jobResponse{}, errors.New(errors.KindUpstreamTimeout, "llm.polling",
				fmt.Sprintf("job %s did not complete within %s", jobID, p.deadline))
		}
		return jobResponse{}, errors.Wrap(errors.KindUpstreamFailed, "llm.polling", "poll request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return jobResponse{}, errors.New(errors.KindUpstreamFailed, "llm.polling",
			fmt.Sprintf("poll returned status %d", resp.StatusCode))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return jobResponse{}, errors.Wrap(errors.KindUpstreamFailed, "llm.polling", "failed to read poll response", err)
	}
	var job jobResponse
	if err := sonic.Unmarshal(data, &job); err != nil {
		return jobResponse{}, errors.Wrap(errors.KindUpstreamFailed, "llm.polling", "failed to decode poll response", err)
	}
	return job, nil
}

var _ llm.Provider = (*Provider)(nil)
