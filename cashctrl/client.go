package cashctrl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	maxAttempts      = 3
	retryBackoffBase = 500 * time.Millisecond
	retryJitterMax   = 100 * time.Millisecond
)

// API is the uniform surface over the remote accounting REST service. All
// payloads are JSON dictionaries; endpoints come from the entity descriptors.
type API interface {
	List(ctx context.Context, endpoint string) ([]map[string]any, error)
	Create(ctx context.Context, endpoint string, payload map[string]any) (Response, error)
	Update(ctx context.Context, endpoint string, payload map[string]any) (Response, error)
	Delete(ctx context.Context, endpoint string, id int) (Response, error)
}

// Response is the remote service's mutation envelope. The id is present on
// create but must not be trusted when absent.
type Response struct {
	Success bool   `json:"success"`
	ID      int    `json:"id"`
	Error   string `json:"error"`
}

// One pool for all client instances; credentials live on the instance.
var sharedHTTPClient = &http.Client{
	Timeout: 30 * time.Second,
	Transport: &http.Transport{
		MaxConnsPerHost:     8,
		MaxIdleConnsPerHost: 8,
	},
}

type client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient builds an API bound to one organisation's credentials. The API
// key authenticates every call; nothing else is cached.
func NewClient(orgId string, apiKey string) (API, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("cashctrl api key is empty")
	}
	if strings.TrimSpace(orgId) == "" {
		return nil, errors.New("cashctrl org id is empty")
	}
	baseURL := strings.TrimSpace(os.Getenv("CASHCTRL_API_BASE_URL"))
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.cashctrl.com/api/v1", orgId)
	}
	return &client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    sharedHTTPClient,
	}, nil
}

func (c *client) List(ctx context.Context, endpoint string) ([]map[string]any, error) {
	body, err := c.doRetry(ctx, "list", endpoint, http.MethodGet, c.baseURL+"/"+endpoint+"/list.json", nil)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var records []map[string]any
	if err := dec.Decode(&records); err != nil {
		return nil, &TransportError{Op: "list", Endpoint: endpoint, Err: fmt.Errorf("decode response: %w", err)}
	}
	return records, nil
}

func (c *client) Create(ctx context.Context, endpoint string, payload map[string]any) (Response, error) {
	return c.mutate(ctx, "create", endpoint, c.baseURL+"/"+endpoint+"/create.json", payload)
}

func (c *client) Update(ctx context.Context, endpoint string, payload map[string]any) (Response, error) {
	return c.mutate(ctx, "update", endpoint, c.baseURL+"/"+endpoint+"/update.json", payload)
}

func (c *client) Delete(ctx context.Context, endpoint string, id int) (Response, error) {
	return c.mutate(ctx, "delete", endpoint, c.baseURL+"/"+endpoint+"/delete.json", map[string]any{"id": id})
}

func (c *client) mutate(ctx context.Context, op string, endpoint string, url string, payload map[string]any) (Response, error) {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return Response{}, fmt.Errorf("marshal %s payload: %w", endpoint, err)
	}

	body, err := c.doRetry(ctx, op, endpoint, http.MethodPost, url, reqBody)
	if err != nil {
		return Response{}, err
	}

	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return Response{}, &TransportError{Op: op, Endpoint: endpoint, Err: fmt.Errorf("decode response: %w", err)}
	}
	if !resp.Success {
		return resp, &RemoteRejection{Op: op, Endpoint: endpoint, Message: resp.Error}
	}
	return resp, nil
}

// doRetry performs one HTTP call with the transport retry policy: up to
// maxAttempts tries, exponential backoff (base 500 ms, factor 2) plus up to
// 100 ms of jitter. Only transport-level failures are retried.
func (c *client) doRetry(ctx context.Context, op string, endpoint string, method string, url string, body []byte) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := retryBackoffBase * time.Duration(1<<(attempt-1))
			backoff += time.Duration(rand.Int63n(int64(retryJitterMax)))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		respBody, err := c.do(ctx, op, endpoint, method, url, body)
		if err == nil {
			return respBody, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}
	return nil, lastErr
}

func (c *client) do(ctx context.Context, op string, endpoint string, method string, url string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, &TransportError{Op: op, Endpoint: endpoint, Err: err}
	}
	// cashCtrl authenticates with the API key as basic-auth user.
	req.SetBasicAuth(c.apiKey, "")
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, Endpoint: endpoint, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TransportError{
			Op:       op,
			Endpoint: endpoint,
			Status:   resp.StatusCode,
			Err:      fmt.Errorf("%s", strings.TrimSpace(string(respBody))),
		}
	}
	return respBody, nil
}
