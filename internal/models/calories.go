// internal/models/calories.go
package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// MaxMealCalories caps a single estimate
const MaxMealCalories = 9999

// DateLayout is the calendar key used for history rows
const DateLayout = time.DateOnly

// HistoryEntry is one closed day
type HistoryEntry struct {
	Date          string `json:"date"`
	TotalCalories int    `json:"total_calories"`
}

// Estimation is what the text model said about one meal
type Estimation struct {
	Calories     int     `json:"calories"`
	Breakdown    *string `json:"breakdown"`
	Unrecognized bool    `json:"unrecognized"`
}

// ReplyType tags the chat reply variants
type ReplyType string

const (
	ReplyCalorieCount ReplyType = "calorie_count"
	ReplyUnrecognized ReplyType = "unrecognized"
	ReplyLastMeal     ReplyType = "last_meal"
	ReplyMeal         ReplyType = "meal"
)

// UnrecognizedMessage is sent when the model says the text is not food
const UnrecognizedMessage = "I'm sorry, I didn't recognize this meal. Would you please elaborate?"

// MealLogged is the result of adding a meal to the running total
type MealLogged struct {
	MealCalories int     `json:"mealCalories"`
	DailyTotal   int     `json:"dailyTotal"`
	Breakdown    *string `json:"breakdown"`
}

// DayClosed is the result of logging the last meal of a day
type DayClosed struct {
	MealCalories int     `json:"mealCalories"`
	DayTotal     int     `json:"dayTotal"`
	Breakdown    *string `json:"breakdown"`
	DaySaved     string  `json:"daySaved"`
}

// CalorieCount is the current running total
type CalorieCount struct {
	DailyTotal int `json:"dailyTotal"`
}

// ChatRequest is one message from the chat screen
type ChatRequest struct {
	Message string `json:"message"`
	Image   string `json:"image" validate:"image_payload"`
}

// FoodRequest is the body of the estimate and last-meal endpoints
type FoodRequest struct {
	Food string `json:"food"`
}

// Reply is the chat response, a tagged variant keyed by Type
type Reply struct {
	Type         ReplyType
	Message      string
	MealCalories int
	Total        int
	Breakdown    *string
	DaySaved     string
}

// MarshalJSON emits only the fields that belong to r.Type
func (r Reply) MarshalJSON() ([]byte, error) {
	switch r.Type {
	case ReplyCalorieCount:
		return json.Marshal(struct {
			Type       ReplyType `json:"type"`
			DailyTotal int       `json:"dailyTotal"`
			Message    string    `json:"message"`
		}{r.Type, r.Total, r.Message})
	case ReplyUnrecognized:
		return json.Marshal(struct {
			Type    ReplyType `json:"type"`
			Message string    `json:"message"`
		}{r.Type, r.Message})
	case ReplyLastMeal:
		return json.Marshal(struct {
			Type ReplyType `json:"type"`
			DayClosed
		}{r.Type, DayClosed{MealCalories: r.MealCalories, DayTotal: r.Total, Breakdown: r.Breakdown, DaySaved: r.DaySaved}})
	case ReplyMeal:
		return json.Marshal(struct {
			Type ReplyType `json:"type"`
			MealLogged
		}{r.Type, MealLogged{MealCalories: r.MealCalories, DailyTotal: r.Total, Breakdown: r.Breakdown}})
	default:
		return nil, fmt.Errorf("unknown reply type %q", r.Type)
	}
}
