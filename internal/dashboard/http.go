package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// getJSON issues a GET and decodes the JSON body into out.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.doJSON(req, out)
}

// postJSON issues a POST with a JSON body and decodes the JSON response into
// out, which may be nil when the caller ignores the body.
func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doJSON(req, out)
}

func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		// Error responses still carry {"success":false,"error":...}, so a
		// decode failure means something other than the dashboard answered.
		return fmt.Errorf("unexpected response (status %d)", resp.StatusCode)
	}
	return nil
}

// postFragment posts a JSON payload and returns the raw HTML fragment the
// server renders.
func (c *Client) postFragment(ctx context.Context, path string, payload any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("server returned status %d", resp.StatusCode)
	}
	return string(data), nil
}

// fetchFragment GETs an HTML fragment, substituting an error panel when the
// request fails so one broken lookup never blanks the whole page.
func (c *Client) fetchFragment(ctx context.Context, path, failMsg string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return errorPanel(failMsg)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return errorPanel(failMsg)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil || resp.StatusCode != http.StatusOK {
		return errorPanel(failMsg)
	}
	return string(data)
}

// fetchSchemaFragment GETs a table's CREATE statement and wraps it for
// display. Schema failures render the server's error message in place.
func (c *Client) fetchSchemaFragment(ctx context.Context, name string) string {
	var resp struct {
		Success bool   `json:"success"`
		Schema  string `json:"schema"`
		Error   string `json:"error"`
	}
	if err := c.getJSON(ctx, "/api/table/"+name+"/schema", &resp); err != nil {
		return errorPanel("Failed to load schema")
	}
	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = "Failed to load schema"
		}
		return errorPanel(msg)
	}
	var b strings.Builder
	b.WriteString(`<pre class="schema-sql">`)
	b.WriteString(escape(resp.Schema))
	b.WriteString(`</pre>`)
	return b.String()
}

func errorPanel(msg string) string {
	return `<div class="panel-error">` + escape(msg) + `</div>`
}
