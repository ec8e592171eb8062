package oracle

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"calorie-log/internal/models"
)

var (
	jsonSpan     = regexp.MustCompile(`\{[\s\S]*\}`)
	calorieCount = regexp.MustCompile(`(?i)\b(\d{2,4})\s*(?:cal|calories?)\b`)
	anyCount     = regexp.MustCompile(`\b(\d{2,4})\b`)
	leadingInt   = regexp.MustCompile(`^[+-]?\d+`)
)

type rawEstimate struct {
	Calories     any `json:"calories"`
	Breakdown    any `json:"breakdown"`
	Unrecognized any `json:"unrecognized"`
}

// ParseEstimate reads a model reply: the outermost {...} span as JSON first,
// then a number near "cal", then any 2-4 digit number, then zero.
// Calories are always clamped to [0, models.MaxMealCalories].
func ParseEstimate(content string) models.Estimation {
	var est models.Estimation
	if raw, ok := parseJSONSpan(content); ok {
		est = models.Estimation{
			Calories:     toInt(raw.Calories),
			Unrecognized: truthy(raw.Unrecognized),
		}
		if s, ok := raw.Breakdown.(string); ok && s != "" {
			est.Breakdown = &s
		}
	} else {
		est.Calories = fallbackCalories(content)
	}
	est.Calories = clamp(est.Calories)
	return est
}

func parseJSONSpan(content string) (rawEstimate, bool) {
	span := jsonSpan.FindString(content)
	if span == "" {
		span = strings.TrimSpace(content)
	}
	var raw rawEstimate
	if err := json.Unmarshal([]byte(span), &raw); err != nil {
		return rawEstimate{}, false
	}
	return raw, true
}

func fallbackCalories(content string) int {
	m := calorieCount.FindStringSubmatch(content)
	if m == nil {
		m = anyCount.FindStringSubmatch(content)
	}
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// toInt accepts numbers and numeric strings ("350", "350 kcal"); anything else is 0
func toInt(v any) int {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0
		}
		if x > math.MaxInt32 {
			return math.MaxInt32
		}
		if x < math.MinInt32 {
			return math.MinInt32
		}
		return int(x)
	case string:
		d := leadingInt.FindString(strings.TrimSpace(x))
		if d == "" {
			return 0
		}
		n, err := strconv.Atoi(d)
		if err != nil {
			if strings.HasPrefix(d, "-") {
				return math.MinInt32
			}
			return math.MaxInt32
		}
		return n
	default:
		return 0
	}
}

func truthy(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case float64:
		return x != 0 && !math.IsNaN(x)
	case string:
		return x != ""
	case nil:
		return false
	default:
		return true
	}
}

func clamp(n int) int {
	if n < 0 {
		return 0
	}
	if n > models.MaxMealCalories {
		return models.MaxMealCalories
	}
	return n
}
