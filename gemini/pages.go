package gemini

import (
	"context"
	"encoding/base64"
	"fmt"
)

// StyleVariant is one of the two page styles generated per prompt.
type StyleVariant struct {
	// Name is the variant label shown to the user
	Name string

	// Suffix is appended to the refined prompt
	Suffix string
}

// StyleVariants are the two styles generated for every refined prompt, in
// the order their pages are returned.
var StyleVariants = []StyleVariant{
	{
		Name:   "classic",
		Suffix: " Simple composition with thick bold outlines and large open areas to color.",
	},
	{
		Name:   "detailed",
		Suffix: " Detailed composition with finer outlines and decorative patterns to color.",
	},
}

// GeneratePages generates one coloring page per style variant from a refined
// prompt. The underlying requests run one after another; a failure of either
// aborts the whole attempt and no partial result is returned.
func (c *Client) GeneratePages(ctx context.Context, prompt string) ([]Page, error) {
	if prompt == "" {
		return nil, fmt.Errorf("prompt is required")
	}

	pages := make([]Page, 0, len(StyleVariants))
	for _, variant := range StyleVariants {
		page, err := c.generatePage(ctx, prompt, variant)
		if err != nil {
			return nil, fmt.Errorf("%s variant: %w", variant.Name, err)
		}
		pages = append(pages, page)
	}

	return pages, nil
}

// generatePage runs one image-generation request for a single style variant.
func (c *Client) generatePage(ctx context.Context, prompt string, variant StyleVariant) (Page, error) {
	req := &GenerateContentRequest{
		Contents: []*Content{
			{
				Role: "user",
				Parts: []*Part{
					{Text: prompt + variant.Suffix},
				},
			},
		},
		GenerationConfig: &GenerationConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
		},
	}

	resp, err := c.generateContent(ctx, c.imageModel, req)
	if err != nil {
		return Page{}, err
	}

	data, err := firstInlineImage(resp)
	if err != nil {
		return Page{}, err
	}

	decoded, err := base64.StdEncoding.DecodeString(data.Data)
	if err != nil {
		return Page{}, fmt.Errorf("image payload is not valid base64: %w", err)
	}
	if len(decoded) == 0 {
		return Page{}, fmt.Errorf("image payload is empty")
	}

	mimeType := data.MIMEType
	if mimeType == "" {
		mimeType = "image/png"
	}

	return Page{
		Style:    variant.Name,
		Locator:  fmt.Sprintf("data:%s;base64,%s", mimeType, data.Data),
		MIMEType: mimeType,
		Size:     int64(len(decoded)),
	}, nil
}

// firstInlineImage extracts the first inline image part of the first
// candidate. Image models interleave text and image parts.
func firstInlineImage(resp *GenerateContentResponse) (*InlineData, error) {
	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates in response")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, fmt.Errorf("no content in response")
	}
	for _, part := range candidate.Content.Parts {
		if part.InlineData != nil && part.InlineData.Data != "" {
			return part.InlineData, nil
		}
	}
	return nil, fmt.Errorf("no decodable image payload in response")
}

// Locators returns the opaque locator strings for a set of pages, in order.
func Locators(pages []Page) []string {
	locs := make([]string, len(pages))
	for i, p := range pages {
		locs[i] = p.Locator
	}
	return locs
}
