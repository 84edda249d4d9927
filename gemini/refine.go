package gemini

import (
	"context"
	"fmt"
	"strings"
)

// refinementPrompt is the fixed template wrapped around the user's
// description. The output is used verbatim as the image-generation prompt.
const refinementPrompt = `You are helping create a children's coloring book.
Rewrite the following description as a single concise prompt for an image
generation model. The prompt must describe black and white line art suitable
for a children's coloring page: clear outlines, no shading, no color fills,
a friendly and simple composition.

Reply with the rewritten prompt only, no explanations.

Description: %s`

// RefinePrompt sends the raw transcript to the text model and returns the
// refined coloring-book prompt. It fails on service errors and on an empty
// or missing response.
func (c *Client) RefinePrompt(ctx context.Context, transcript string) (string, error) {
	if strings.TrimSpace(transcript) == "" {
		return "", fmt.Errorf("transcript is empty")
	}

	req := &GenerateContentRequest{
		Contents: []*Content{
			{
				Role: "user",
				Parts: []*Part{
					{Text: fmt.Sprintf(refinementPrompt, transcript)},
				},
			},
		},
		GenerationConfig: &GenerationConfig{
			MaxOutputTokens: intPtr(1024),
		},
	}

	resp, err := c.generateContent(ctx, c.textModel, req)
	if err != nil {
		return "", err
	}

	text := firstText(resp)
	text = stripCodeFences(text)
	if text == "" {
		return "", fmt.Errorf("no prompt text in response")
	}

	return text, nil
}

// firstText extracts the first text part of the first candidate.
func firstText(resp *GenerateContentResponse) string {
	if len(resp.Candidates) == 0 {
		return ""
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return ""
	}
	for _, part := range candidate.Content.Parts {
		if part.Text != "" {
			return part.Text
		}
	}
	return ""
}

// stripCodeFences removes markdown code fences some models wrap replies in.
func stripCodeFences(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```text") {
		text = strings.TrimPrefix(text, "```text")
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

func intPtr(i int) *int {
	return &i
}
