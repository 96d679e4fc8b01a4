package payfast

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"payfastBack/internal/models"
)

const (
	ModeLive    = "live"
	ModeSandbox = "sandbox"

	liveHost    = "https://www.payfast.co.za"
	sandboxHost = "https://sandbox.payfast.co.za"
)

// Endpoints holds the gateway URLs for one mode.
type Endpoints struct {
	Process  string
	Validate string
}

// EndpointsFor selects the gateway host for mode. Anything other than
// "sandbox" is treated as live.
func EndpointsFor(mode string) Endpoints {
	host := liveHost
	if strings.EqualFold(strings.TrimSpace(mode), ModeSandbox) {
		host = sandboxHost
	}
	return Endpoints{
		Process:  host + "/eng/process",
		Validate: host + "/eng/validate",
	}
}

// PostbackError is returned when the validate endpoint answers with a non-2xx status.
type PostbackError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *PostbackError) Error() string {
	if e == nil {
		return "<nil>"
	}
	bt := strings.TrimSpace(e.Body)
	if bt == "" {
		return fmt.Sprintf("payfast postback: %s", e.Status)
	}
	return fmt.Sprintf("payfast postback: %s: %s", e.Status, bt)
}

// Client talks to the gateway validate endpoint.
type Client struct {
	httpClient  *http.Client
	validateURL string
}

// NewClient constructs a Client. A nil httpClient gets a 10 second timeout.
func NewClient(httpClient *http.Client, validateURL string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{httpClient: httpClient, validateURL: validateURL}
}

// Postback re-posts the full notification field set to the validate endpoint.
// The outcome is reported as a delivery result and never as an error.
func (c *Client) Postback(ctx context.Context, fields map[string]string) models.DeliveryResult {
	res := models.DeliveryResult{Channel: models.ChannelPostback}

	form := url.Values{}
	for k, v := range fields {
		form.Set(k, v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.validateURL, strings.NewReader(form.Encode()))
	if err != nil {
		res.Err = fmt.Errorf("build postback request: %w", err)
		return res
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		res.Err = fmt.Errorf("postback request: %w", err)
		return res
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		res.Err = &PostbackError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(b)}
		return res
	}
	res.Detail = strings.TrimSpace(string(b))
	return res
}
