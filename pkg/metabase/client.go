// Package metabase is the HTTP client for the Metabase REST API: request
// plumbing, session token management, and the error taxonomy compile
// surfaces to callers.
package metabase

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"log"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const (
	sessionHeader  = "X-Metabase-Session"
	requestTimeout = 30 * time.Second
)

// Client issues authenticated calls against one Metabase instance. It does
// not retry failed calls itself; the single retry-on-expiry lives in
// Session.
type Client struct {
	baseURL string
	token   string
	http    *retryablehttp.Client
}

func NewClient(baseURL string, token string) *Client {
	client := retryablehttp.NewClient()
	client.HTTPClient.Timeout = requestTimeout
	client.RetryMax = 0
	client.Logger = log.New(ioutil.Discard, "", 0)

	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		http:    client,
	}
}

func (c *Client) Get(endpoint string) (json.RawMessage, error) {
	return c.do("GET", endpoint, nil)
}

func (c *Client) Post(endpoint string, body interface{}) (json.RawMessage, error) {
	return c.do("POST", endpoint, body)
}

func (c *Client) Put(endpoint string, body interface{}) (json.RawMessage, error) {
	return c.do("PUT", endpoint, body)
}

func (c *Client) do(method string, endpoint string, body interface{}) (json.RawMessage, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s %s body: %w", method, endpoint, err)
		}
	}

	req, err := retryablehttp.NewRequest(method, fmt.Sprintf("%s/api%s", c.baseURL, endpoint), payload)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set(sessionHeader, c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	data, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	return data, nil
}

// Authenticate exchanges a credential for a session token via
// POST /api/session.
func Authenticate(baseURL string, username string, password string) (string, error) {
	client := NewClient(baseURL, "")
	data, err := client.Post("/session", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			return "", &AuthenticationError{Message: statusErr.Body}
		}
		return "", err
	}

	var session struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &session); err != nil {
		return "", fmt.Errorf("unexpected session response: %w", err)
	}

	return session.ID, nil
}
