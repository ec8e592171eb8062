// Package intent decides what a chat message is asking for
package intent

import (
	"regexp"
	"strings"
)

// Kind is the request kind a chat message maps to
type Kind int

const (
	// MealLog adds a meal to the running total
	MealLog Kind = iota
	// CalorieCount reports the running total
	CalorieCount
	// LastMeal adds a meal and closes the day
	LastMeal
)

func (k Kind) String() string {
	switch k {
	case CalorieCount:
		return "calorie_count"
	case LastMeal:
		return "last_meal"
	default:
		return "meal"
	}
}

// Intent is the classified message. Food is the text to estimate; it is
// empty when the food must come from the photo description instead.
type Intent struct {
	Kind Kind
	Food string
}

var (
	countPhrases = regexp.MustCompile(`^(calorie count|total calories|how many calories|calories today|today'?s? calories|daily total)$`)
	countAsks    = regexp.MustCompile(`^((what'?s?|what is) (my |the )?(total |daily )?calories|show (my |me )?calories)$`)
	lastMealForm = regexp.MustCompile(`(?i)^last\s+meal\s*:\s*(.+)$`)
	lastMealAny  = regexp.MustCompile(`(?i)last\s+meal`)
)

// rule returns the intent it recognises and true, or false to pass
type rule func(text string, hasImage bool) (Intent, bool)

// rules are evaluated in order; the first match wins
var rules = []rule{
	calorieCountRule,
	lastMealRule,
}

// Classify maps a message and whether a photo came with it to an Intent.
// Anything no rule claims is a meal log of the whole text.
func Classify(text string, hasImage bool) Intent {
	text = strings.TrimSpace(text)
	for _, r := range rules {
		if in, ok := r(text, hasImage); ok {
			return in
		}
	}
	return Intent{Kind: MealLog, Food: text}
}

// IsCalorieCountQuery reports whether text is one of the fixed ways of asking for the total
func IsCalorieCountQuery(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	return countPhrases.MatchString(t) || countAsks.MatchString(t)
}

// ParseLastMeal returns the food after "last meal:" and true, or "", false
func ParseLastMeal(text string) (string, bool) {
	m := lastMealForm.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return "", false
	}
	food := strings.TrimSpace(m[1])
	return food, food != ""
}

func calorieCountRule(text string, hasImage bool) (Intent, bool) {
	if hasImage || !IsCalorieCountQuery(text) {
		return Intent{}, false
	}
	return Intent{Kind: CalorieCount}, true
}

func lastMealRule(text string, hasImage bool) (Intent, bool) {
	if food, ok := ParseLastMeal(text); ok {
		return Intent{Kind: LastMeal, Food: food}, true
	}
	if hasImage && lastMealAny.MatchString(text) {
		return Intent{Kind: LastMeal}, true
	}
	return Intent{}, false
}
