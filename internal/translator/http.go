package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxErrorBody bounds how much of a failed response is kept for the error.
const maxErrorBody = 2048

// doJSON sends body (if any) as JSON and decodes a 2xx response into out.
// Every failure is returned as an *Error.
func doJSON(ctx context.Context, client *http.Client, service, method, url string, headers map[string]string, body, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return malformed(service, "failed to marshal request: %v", err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return malformed(service, "failed to create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return transportError(service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return statusError(service, resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if isTimeout(err) {
			return transportError(service, err)
		}
		return malformed(service, "failed to decode response: %v", err)
	}
	return nil
}

func requireText(service, text string) error {
	if strings.TrimSpace(text) == "" {
		return malformed(service, "empty translation in response")
	}
	return nil
}

func errorf(service string, kind Kind, format string, args ...any) error {
	return newError(service, kind, fmt.Errorf(format, args...))
}
