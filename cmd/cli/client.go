package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// apiClient talks to a running vidgrab server
type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(baseURL string, timeout time.Duration) *apiClient {
	return &apiClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// apiError is the {"error": "..."} body every failing endpoint returns
type apiError struct {
	Status  int
	Message string `json:"error"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
}

func (c *apiClient) post(path string, payload interface{}) (*http.Response, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Post(c.baseURL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return resp, checkStatus(resp)
}

func (c *apiClient) get(path string) (*http.Response, error) {
	resp, err := c.http.Get(c.baseURL + path)
	if err != nil {
		return nil, err
	}
	return resp, checkStatus(resp)
}

// getJSON and postJSON decode a successful response into out
func (c *apiClient) getJSON(path string, out interface{}) error {
	resp, err := c.get(path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *apiClient) postJSON(path string, payload, out interface{}) error {
	resp, err := c.post(path, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(out)
}

// checkStatus turns a non-2xx response into an apiError and closes its body
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	defer resp.Body.Close()

	apiErr := &apiError{Status: resp.StatusCode}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

// download posts a download request and writes the attachment into outDir.
// It returns the written path and its size.
func (c *apiClient) download(payload interface{}, outDir string) (string, int64, error) {
	resp, err := c.post("/api/download", payload)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	name := filenameFromDisposition(resp.Header.Get("Content-Disposition"))
	if name == "" {
		name = "download"
	}
	path := filepath.Join(outDir, name)

	out, err := os.Create(path)
	if err != nil {
		return "", 0, err
	}
	written, err := io.Copy(out, resp.Body)
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return "", 0, err
	}
	return path, written, nil
}

// filenameFromDisposition extracts a safe base name from a Content-Disposition header
func filenameFromDisposition(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	name := filepath.Base(params["filename"])
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}
