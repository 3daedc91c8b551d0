// Package agent implements the stub front-ends. Each front-end owns the
// transport framing for its protocol, encodes what it reads into protocol
// events, and round-trips them to the manager's handle endpoint.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client posts protocol events for one stub to the manager.
type Client struct {
	endpoint string
	stubID   string
	http     *http.Client
}

// NewClient creates a client for stubID against a manager endpoint such
// as http://127.0.0.1:10080.
func NewClient(endpoint, stubID string) *Client {
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		stubID:   stubID,
		http:     &http.Client{Timeout: 60 * time.Second},
	}
}

// StubID returns the stub this client speaks for.
func (c *Client) StubID() string { return c.stubID }

// Result is the manager's answer to one protocol event.
type Result struct {
	Code int
	Body string
}

// TerminalState is the session payload of ssh and telnet responses.
type TerminalState struct {
	Output string                 `json:"output"`
	Prompt string                 `json:"prompt"`
	State  map[string]interface{} `json:"state"`
}

// Handle posts one protocol event and returns the raw result.
func (c *Client) Handle(ctx context.Context, event interface{}) (*Result, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/stubs/%s:handle", c.endpoint, c.stubID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("content-type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &Result{Code: resp.StatusCode, Body: string(body)}, nil
}

// SendTerminal posts an ssh or telnet event and decodes the terminal
// payload. A non-200 answer surfaces as an error carrying the manager's
// response.
func (c *Client) SendTerminal(ctx context.Context, protocol, status string,
	sessionID, username, input, prompt string, state map[string]interface{}) (*TerminalState, error) {

	if state == nil {
		state = map[string]interface{}{}
	}
	event := map[string]interface{}{
		"id":               c.stubID,
		"protocol":         protocol,
		"connectionStatus": status,
		"sessionId":        sessionID,
		"username":         username,
		"input":            input,
		"prompt":           prompt,
		"state":            state,
	}
	result, err := c.Handle(ctx, event)
	if err != nil {
		return nil, err
	}
	if result.Code != 200 {
		return nil, fmt.Errorf("%d: %s", result.Code, result.Body)
	}

	var terminal TerminalState
	if err := json.Unmarshal([]byte(result.Body), &terminal); err != nil {
		return nil, fmt.Errorf("invalid response from manager: %w", err)
	}
	return &terminal, nil
}

// SendNetconf posts a netconf event and returns the raw result; callers
// turn non-200 answers into rpc-error frames.
func (c *Client) SendNetconf(ctx context.Context, status string,
	sessionID int, username, rpc string) (*Result, error) {

	event := map[string]interface{}{
		"id":               c.stubID,
		"protocol":         "netconf",
		"connectionStatus": status,
		"sessionId":        sessionID,
		"username":         username,
		"rpc":              rpc,
	}
	return c.Handle(ctx, event)
}

// HTTPResult is the nested payload of http and https responses.
type HTTPResult struct {
	Code    int               `json:"code"`
	Headers map[string]string `json:"headers"`
	Body    string            `json:"body"`
}

// SendHTTP posts an http or https event and decodes the nested result.
func (c *Client) SendHTTP(ctx context.Context, protocol, method, path string,
	query map[string][]string, headers map[string]string, body string) (*HTTPResult, error) {

	if query == nil {
		query = map[string][]string{}
	}
	if headers == nil {
		headers = map[string]string{}
	}
	event := map[string]interface{}{
		"id":       c.stubID,
		"protocol": protocol,
		"method":   method,
		"path":     path,
		"query":    query,
		"headers":  headers,
		"body":     body,
	}
	result, err := c.Handle(ctx, event)
	if err != nil {
		return nil, err
	}
	if result.Code != 200 {
		return nil, fmt.Errorf("%d: %s", result.Code, result.Body)
	}

	var nested HTTPResult
	if err := json.Unmarshal([]byte(result.Body), &nested); err != nil {
		return nil, fmt.Errorf("invalid response from manager: %w", err)
	}
	return &nested, nil
}
