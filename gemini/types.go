// Package gemini provides a client for the Google Gemini API used to refine
// a spoken or typed description into a coloring-book prompt and to generate
// printable line-art pages from it.
package gemini

// Model constants
const (
	// ModelTextDefault refines transcripts into coloring-book prompts
	ModelTextDefault = "gemini-2.0-flash"
	// ModelImageDefault generates the line-art pages
	ModelImageDefault = "gemini-2.5-flash-image"
)

// Page is one generated coloring-book page. Locator is an embedded-data
// resource reference (a data: URI); downstream code treats it as an opaque
// string compared by equality and never parses it.
type Page struct {
	// Style is the variant label ("classic" or "detailed")
	Style string

	// Locator embeds the image payload as a data URI
	Locator string

	// MIMEType of the embedded image
	MIMEType string

	// Size is the decoded payload size in bytes
	Size int64
}

// APIError represents an error from the Gemini API
type APIError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// GenerateContentRequest is the request structure for the Gemini API
type GenerateContentRequest struct {
	Contents          []*Content        `json:"contents"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
	SystemInstruction *Content          `json:"systemInstruction,omitempty"`
}

// Content represents a content block in the API
type Content struct {
	Role  string  `json:"role,omitempty"`
	Parts []*Part `json:"parts"`
}

// Part represents a part of content (text or inline data)
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
}

// InlineData represents binary data (images) inline
type InlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"` // Base64 encoded
}

// GenerationConfig contains generation parameters
type GenerationConfig struct {
	Temperature        *float64 `json:"temperature,omitempty"`
	MaxOutputTokens    *int     `json:"maxOutputTokens,omitempty"`
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

// GenerateContentResponse is the response from the Gemini API
type GenerateContentResponse struct {
	Candidates    []*Candidate   `json:"candidates"`
	UsageMetadata *UsageMetadata `json:"usageMetadata,omitempty"`
}

// Candidate represents a generated response candidate
type Candidate struct {
	Content      *Content `json:"content"`
	FinishReason string   `json:"finishReason"`
}

// UsageMetadata contains token usage information
type UsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}
