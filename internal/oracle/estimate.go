package oracle

import (
	"context"
	"fmt"

	"calorie-log/internal/models"
	perr "calorie-log/internal/platform/errors"
	"calorie-log/internal/platform/logger"
)

const estimateSystemPrompt = `You are a calorie estimation assistant. Given a food description, estimate the total calories.

Respond ONLY with valid JSON in this exact format (no markdown, no extra text):
{"calories": <number>, "breakdown": "<optional short breakdown>"}

Rules:
- Return only the JSON object
- calories must be a positive integer when the input describes food
- breakdown is optional, keep it brief (1-2 sentences max)
- Be reasonable: typical meals are 200-800 calories
- For fast food, use approximate known values

IMPORTANT: If the input does NOT describe food or a meal (e.g., greetings, questions, unclear text, random words, or anything not related to eating), respond with: {"calories": 0, "unrecognized": true}`

// EstimateCalories asks the text model for the calories in description.
// The reply is parsed best-effort; only transport failures are errors.
func (c *Client) EstimateCalories(ctx context.Context, description string) (models.Estimation, error) {
	content, err := c.chat(ctx, chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: estimateSystemPrompt},
			{Role: "user", Content: fmt.Sprintf("Estimate calories for: %s", description)},
		},
		Stream: false,
		Format: "json",
	})
	if err != nil {
		logger.C(ctx).Warn().Err(err).Str("model", c.model).Msg("calorie estimate failed")
		return models.Estimation{}, perr.Wrapf(err, perr.ErrorCodeUnavailable,
			"Could not estimate calories. Is Ollama running? Try: ollama run %s", c.model)
	}

	est := ParseEstimate(content)
	logger.C(ctx).Debug().
		Int("calories", est.Calories).
		Bool("unrecognized", est.Unrecognized).
		Msg("calorie estimate")
	return est, nil
}
