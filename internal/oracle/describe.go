package oracle

import (
	"context"
	"encoding/base64"
	"strings"

	perr "calorie-log/internal/platform/errors"
	"calorie-log/internal/platform/logger"
)

// DescribePrompt asks the vision model for a description detailed enough to estimate calories from
const DescribePrompt = `Look at this image of food. Describe what you see in detail for calorie estimation:
- List each food item
- Estimate quantity (e.g., "about 2 eggs", "1 slice of toast", "~150g chicken", "small portion of rice")
- Note any visible portions, plates, or serving sizes
- Be concise but specific enough for calorie calculation
Respond with a single paragraph description only, no preamble.`

// DescribeFood sends the photo to the vision model and returns its prose description
func (c *Client) DescribeFood(ctx context.Context, image []byte) (string, error) {
	content, err := c.chat(ctx, chatRequest{
		Model: c.visionModel,
		Messages: []chatMessage{
			{
				Role:    "user",
				Content: DescribePrompt,
				Images:  []string{base64.StdEncoding.EncodeToString(image)},
			},
		},
		Stream: false,
	})
	if err != nil {
		logger.C(ctx).Warn().Err(err).Str("model", c.visionModel).Msg("food photo description failed")
		return "", perr.Wrapf(err, perr.ErrorCodeUnavailable,
			"Vision model error. Is Ollama running? Run: ollama pull %s", c.visionModel)
	}

	description := strings.TrimSpace(content)
	if description == "" {
		return "", perr.New(perr.ErrorCodeEmptyDescription, "Vision model returned empty description")
	}
	return description, nil
}
