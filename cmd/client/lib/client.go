package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/rpc/v2/json2"

	"github.com/HMasataka/avgap/payload/analyze"
)

type Client struct {
	serverURL string
	client    *http.Client
}

func NewClient(serverURL string) *Client {
	return &Client{
		serverURL: serverURL,
		client:    &http.Client{},
	}
}

func (c *Client) call(method string, params any) (any, error) {
	body, err := json2.EncodeClientRequest(method, []any{params})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := c.client.Post(
		c.serverURL+"/rpc",
		"application/json",
		bytes.NewBuffer(body),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	var result any
	if err := json2.DecodeClientResponse(resp.Body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return result, nil
}

func (c *Client) Analyze(req analyze.Request) (*analyze.Result, error) {
	result, err := c.call("GapAnalyzer.Analyze", req)
	if err != nil {
		return nil, err
	}

	resultJSON, _ := json.Marshal(result)
	var res analyze.Result
	if err := json.Unmarshal(resultJSON, &res); err != nil {
		return nil, fmt.Errorf("failed to unmarshal analyze response: %w", err)
	}

	return &res, nil
}

func (c *Client) Health() (*analyze.HealthResponse, error) {
	result, err := c.call("GapAnalyzer.Health", analyze.HealthRequest{})
	if err != nil {
		return nil, err
	}

	resultJSON, _ := json.Marshal(result)
	var res analyze.HealthResponse
	if err := json.Unmarshal(resultJSON, &res); err != nil {
		return nil, fmt.Errorf("failed to unmarshal health response: %w", err)
	}

	return &res, nil
}
