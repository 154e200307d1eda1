package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/transvepo/evidencias-stack/evidencias/internal/models"
)

// APIError is a non-2xx answer from the service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.StatusCode)
}

// IsNotFound reports whether err is a 404 from the service.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// OrdenesClient talks to the operator dashboard API.
type OrdenesClient struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewOrdenesClient(baseURL, token string) *OrdenesClient {
	return &OrdenesClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *OrdenesClient) doRequest(method, path string, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewBuffer(bodyBytes)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	return c.client.Do(req)
}

// do sends the request and decodes a 200 answer into out.
func (c *OrdenesClient) do(method, path string, body, out interface{}) error {
	resp, err := c.doRequest(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(bodyBytes, &payload); err != nil || payload.Error == "" {
		payload.Error = strings.TrimSpace(string(bodyBytes))
	}
	return &APIError{StatusCode: resp.StatusCode, Message: payload.Error}
}

// ListOrdenes lists enriched records, optionally filtered by status.
func (c *OrdenesClient) ListOrdenes(status string) ([]models.Orden, error) {
	path := "/api/ordenes"
	if status != "" {
		path += "?" + url.Values{"status": {status}}.Encode()
	}

	var ordenes []models.Orden
	if err := c.do(http.MethodGet, path, nil, &ordenes); err != nil {
		return nil, err
	}
	return ordenes, nil
}

func (c *OrdenesClient) GetOrden(id int64) (*models.Orden, error) {
	var orden models.Orden
	if err := c.do(http.MethodGet, "/api/ordenes/"+strconv.FormatInt(id, 10), nil, &orden); err != nil {
		return nil, err
	}
	return &orden, nil
}

// SetStatus moves record id to status.
func (c *OrdenesClient) SetStatus(id int64, status string) error {
	body := models.UpdateStatusRequest{EvidenciaStatus: status}
	return c.do(http.MethodPatch, "/api/ordenes/"+strconv.FormatInt(id, 10), body, nil)
}
