package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const (
	// BaseURL is the Google AI Studio API base URL
	BaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// DefaultTimeout for API requests
	DefaultTimeout = 2 * time.Minute
)

// Client is the Google Gemini API client
type Client struct {
	apiKey     string
	baseURL    string
	textModel  string
	imageModel string
	httpClient *http.Client
	debug      bool
}

// ClientOption configures the Client
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL (for testing)
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		parsed, err := url.Parse(baseURL)
		if err != nil {
			return
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return
		}
		if parsed.Host == "" {
			return
		}
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithTextModel overrides the model used for prompt refinement
func WithTextModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.textModel = model
		}
	}
}

// WithImageModel overrides the model used for page generation
func WithImageModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.imageModel = model
		}
	}
}

// WithDebug enables debug logging
func WithDebug(debug bool) ClientOption {
	return func(c *Client) {
		c.debug = debug
	}
}

// NewClient creates a new Google Gemini API client
func NewClient(apiKey string, opts ...ClientOption) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	c := &Client{
		apiKey:     apiKey,
		baseURL:    BaseURL,
		textModel:  ModelTextDefault,
		imageModel: ModelImageDefault,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		debug: false,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// NewClientFromEnv creates a client using the GEMINI_API_KEY or
// GOOGLE_API_KEY environment variable. GEMINI_TEXT_MODEL and
// GEMINI_IMAGE_MODEL override the defaults, DOODLEPRESS_DEBUG enables
// debug logging.
func NewClientFromEnv(opts ...ClientOption) (*Client, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY or GOOGLE_API_KEY environment variable not set")
	}

	envOpts := []ClientOption{
		WithTextModel(os.Getenv("GEMINI_TEXT_MODEL")),
		WithImageModel(os.Getenv("GEMINI_IMAGE_MODEL")),
		WithDebug(os.Getenv("DOODLEPRESS_DEBUG") != ""),
	}
	return NewClient(apiKey, append(envOpts, opts...)...)
}

// generateContent makes an API call to generate content
func (c *Client) generateContent(ctx context.Context, model string, req *GenerateContentRequest) (*GenerateContentResponse, error) {
	apiURL := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, model, c.apiKey)

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	if c.debug {
		fmt.Printf("[DEBUG] POST %s\n", strings.Replace(apiURL, c.apiKey, "***", 1))
		fmt.Printf("[DEBUG] Request parts: %d\n", len(req.Contents[0].Parts))
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if c.debug {
		fmt.Printf("[DEBUG] Response status: %d\n", resp.StatusCode)
		if len(respBody) < 2000 {
			fmt.Printf("[DEBUG] Response body: %s\n", string(respBody))
		} else {
			// Bodies with inline images are large; don't dump them whole
			fmt.Printf("[DEBUG] Response body (truncated): %s...\n", string(respBody[:2000]))
		}
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error struct {
				Code    int    `json:"code"`
				Message string `json:"message"`
				Status  string `json:"status"`
			} `json:"error"`
		}
		if err := json.Unmarshal(respBody, &apiErr); err != nil {
			return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
		}
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    apiErr.Error.Message,
			Details:    apiErr.Error.Status,
		}
	}

	var result GenerateContentResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &result, nil
}

// GetAPIKeyHelp returns help text for setting up the API key
func GetAPIKeyHelp() string {
	return `To generate coloring-book pages you need a Google Gemini API key.

1. Go to https://aistudio.google.com/apikey
2. Sign in with your Google account
3. Click "Create API key"
4. Copy the API key
5. Set the environment variable:

   export GEMINI_API_KEY="your-api-key"

Or create a .env file with:
   GEMINI_API_KEY=your-api-key`
}

// CheckConfig verifies the Gemini configuration is set up
func CheckConfig() error {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}
	if apiKey == "" {
		return fmt.Errorf("GEMINI_API_KEY or GOOGLE_API_KEY environment variable not set")
	}
	return nil
}
