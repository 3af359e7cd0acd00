// Package probe fires a single request at a tasksync API and records the
// exchange as an api test.
package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/adanyl0v/go-tasksync/internal/models"
)

const testsEndpoint = "/api/tests"

var ErrInvalidRequest = errors.New("invalid probe request")

type Request struct {
	Endpoint string
	Method   string
	// Body is sent verbatim for every method except GET.
	Body string
}

type createApiTestRequest struct {
	Endpoint       string  `json:"endpoint"`
	Method         string  `json:"method"`
	RequestBody    *string `json:"requestBody"`
	ResponseStatus int     `json:"responseStatus"`
	ResponseBody   string  `json:"responseBody"`
}

// Run performs req against baseURL, then stores the exchange through
// POST /api/tests on the same server and returns the stored record.
func Run(ctx context.Context, client *http.Client, baseURL string, req Request) (*models.ApiTestRecord, error) {
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" || !strings.HasPrefix(req.Endpoint, "/") {
		return nil, fmt.Errorf("%w: endpoint %q method %q", ErrInvalidRequest, req.Endpoint, req.Method)
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	var body io.Reader
	if method != http.MethodGet && req.Body != "" {
		body = strings.NewReader(req.Body)
	}

	status, respBody, err := do(ctx, client, method, baseURL+req.Endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to execute probe: %w", err)
	}

	payload := createApiTestRequest{
		Endpoint:       req.Endpoint,
		Method:         method,
		ResponseStatus: status,
		ResponseBody:   string(respBody),
	}
	if req.Body != "" {
		payload.RequestBody = &req.Body
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	status, respBody, err = do(ctx, client, http.MethodPost, baseURL+testsEndpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to record probe: %w", err)
	}
	if status != http.StatusCreated && status != http.StatusOK {
		return nil, fmt.Errorf("failed to record probe: unexpected status %d: %s", status, respBody)
	}

	record := new(models.ApiTestRecord)
	err = json.Unmarshal(respBody, record)
	if err != nil {
		return nil, fmt.Errorf("failed to decode recorded probe: %w", err)
	}
	return record, nil
}

func do(ctx context.Context, client *http.Client, method, url string, body io.Reader) (int, []byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return 0, nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, data, nil
}
