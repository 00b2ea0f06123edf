package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
)

const defaultRequestTimeout = 60 * time.Second

// Config carries the connection settings for the management system API.
type Config struct {
	URL     string
	Token   string
	Timeout time.Duration
}

// HTTPStore is the JSON-over-HTTP Store implementation.
type HTTPStore struct {
	baseURL string
	token   string
	client  *http.Client
	log     log.Logger
}

// NewHTTPStore creates a store against the management system API.
func NewHTTPStore(cfg Config, logger log.Logger) (*HTTPStore, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("management system URL is required")
	}
	if _, err := url.Parse(cfg.URL); err != nil {
		return nil, fmt.Errorf("invalid management system URL: %w", err)
	}
	if logger == nil {
		logger = log.New()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultRequestTimeout
	}

	return &HTTPStore{
		baseURL: cfg.URL,
		token:   cfg.Token,
		client:  &http.Client{Timeout: timeout},
		log:     logger,
	}, nil
}

func (s *HTTPStore) RequirementByTitle(ctx context.Context, project, title string) (*Requirement, error) {
	u, err := s.endpoint(url.Values{"title": {title}}, "projects", project, "requirements")
	if err != nil {
		return nil, err
	}
	var req Requirement
	if err := s.do(ctx, http.MethodGet, u, nil, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (s *HTTPStore) CreateRequirement(ctx context.Context, req Requirement) (*Requirement, error) {
	u, err := s.endpoint(nil, "projects", req.Project, "requirements")
	if err != nil {
		return nil, err
	}
	var created Requirement
	if err := s.do(ctx, http.MethodPost, u, req, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *HTTPStore) TestCaseByIdentity(ctx context.Context, project, identity string) (*TestCase, error) {
	u, err := s.endpoint(nil, "projects", project, "testcases", identity)
	if err != nil {
		return nil, err
	}
	var tc TestCase
	if err := s.do(ctx, http.MethodGet, u, nil, &tc); err != nil {
		return nil, err
	}
	return &tc, nil
}

func (s *HTTPStore) CreateTestCase(ctx context.Context, tc TestCase) (*TestCase, error) {
	u, err := s.endpoint(nil, "projects", tc.Project, "testcases")
	if err != nil {
		return nil, err
	}
	var created TestCase
	if err := s.do(ctx, http.MethodPost, u, tc, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *HTTPStore) UpdateTestCase(ctx context.Context, tc TestCase) (*TestCase, error) {
	u, err := s.endpoint(nil, "projects", tc.Project, "testcases", tc.Identity)
	if err != nil {
		return nil, err
	}
	var updated TestCase
	if err := s.do(ctx, http.MethodPut, u, tc, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *HTTPStore) TestRunByID(ctx context.Context, project, runID string) (*TestRun, error) {
	u, err := s.endpoint(nil, "projects", project, "testruns", runID)
	if err != nil {
		return nil, err
	}
	var run TestRun
	if err := s.do(ctx, http.MethodGet, u, nil, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

func (s *HTTPStore) CreateTestRun(ctx context.Context, run TestRun) (*TestRun, error) {
	u, err := s.endpoint(nil, "projects", run.Project, "testruns")
	if err != nil {
		return nil, err
	}
	var created TestRun
	if err := s.do(ctx, http.MethodPost, u, run, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *HTTPStore) PlanByID(ctx context.Context, project, planID string) (*Plan, error) {
	u, err := s.endpoint(nil, "projects", project, "plans", planID)
	if err != nil {
		return nil, err
	}
	var plan Plan
	if err := s.do(ctx, http.MethodGet, u, nil, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (s *HTTPStore) CreatePlan(ctx context.Context, plan Plan) (*Plan, error) {
	u, err := s.endpoint(nil, "projects", plan.Project, "plans")
	if err != nil {
		return nil, err
	}
	var created Plan
	if err := s.do(ctx, http.MethodPost, u, plan, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *HTTPStore) BeginBatch(ctx context.Context, project, runID string) (RunBatch, error) {
	u, err := s.endpoint(nil, "projects", project, "testruns", runID, "batches")
	if err != nil {
		return nil, err
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := s.do(ctx, http.MethodPost, u, nil, &created); err != nil {
		return nil, fmt.Errorf("failed to begin record batch: %w", err)
	}
	if created.ID == "" {
		return nil, fmt.Errorf("management system returned no batch ID")
	}

	return &httpBatch{store: s, project: project, runID: runID, batchID: created.ID}, nil
}

func (s *HTTPStore) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// endpoint joins path parts onto the base URL and appends an optional query.
func (s *HTTPStore) endpoint(query url.Values, parts ...string) (string, error) {
	u, err := url.JoinPath(s.baseURL, parts...)
	if err != nil {
		return "", fmt.Errorf("failed to build request URL: %w", err)
	}
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u, nil
}

// do performs one JSON round trip. 404 and 409 map onto the package
// sentinels so callers can reconcile without inspecting HTTP details.
func (s *HTTPStore) do(ctx context.Context, method, endpoint string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.token))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusConflict:
		return ErrConflict
	case resp.StatusCode >= http.StatusBadRequest:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s %s: unexpected status %d: %s", method, endpoint, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}

// httpBatch is a remote record batch. The mutex keeps it safe to share
// across record workers.
type httpBatch struct {
	store   *HTTPStore
	project string
	runID   string
	batchID string
	mtx     sync.Mutex
}

func (b *httpBatch) AddRecord(ctx context.Context, rec TestRecord) error {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	u, err := b.store.endpoint(nil, "projects", b.project, "testruns", b.runID, "batches", b.batchID, "records")
	if err != nil {
		return err
	}
	if err := b.store.do(ctx, http.MethodPost, u, rec, nil); err != nil {
		return fmt.Errorf("failed to add test record: %w", err)
	}
	return nil
}

func (b *httpBatch) Commit(ctx context.Context) error {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	u, err := b.store.endpoint(nil, "projects", b.project, "testruns", b.runID, "batches", b.batchID, "commit")
	if err != nil {
		return err
	}
	if err := b.store.do(ctx, http.MethodPost, u, nil, nil); err != nil {
		return fmt.Errorf("failed to commit record batch: %w", err)
	}
	return nil
}

func (b *httpBatch) Rollback(ctx context.Context) {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	u, err := b.store.endpoint(nil, "projects", b.project, "testruns", b.runID, "batches", b.batchID)
	if err == nil {
		err = b.store.do(ctx, http.MethodDelete, u, nil, nil)
	}
	if err != nil {
		b.store.log.Error("error rolling back record batch", "run", b.runID, "err", err)
	}
}
