package models

import (
	"encoding/json"
	"testing"
)

func TestReplyMarshalShapes(t *testing.T) {
	breakdown := "2 eggs ~140, toast ~80"
	cases := []struct {
		name  string
		reply Reply
		want  string
	}{
		{
			"calorie count",
			Reply{Type: ReplyCalorieCount, Total: 350, Message: "Your total for today: **350** calories."},
			`{"type":"calorie_count","dailyTotal":350,"message":"Your total for today: **350** calories."}`,
		},
		{
			"unrecognized",
			Reply{Type: ReplyUnrecognized, Message: UnrecognizedMessage},
			`{"type":"unrecognized","message":"I'm sorry, I didn't recognize this meal. Would you please elaborate?"}`,
		},
		{
			"last meal",
			Reply{Type: ReplyLastMeal, MealCalories: 220, Total: 1900, Breakdown: &breakdown, DaySaved: "2026-10-17"},
			`{"type":"last_meal","mealCalories":220,"dayTotal":1900,"breakdown":"2 eggs ~140, toast ~80","daySaved":"2026-10-17"}`,
		},
		{
			"meal without breakdown",
			Reply{Type: ReplyMeal, MealCalories: 300, Total: 800},
			`{"type":"meal","mealCalories":300,"dailyTotal":800,"breakdown":null}`,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			b, err := json.Marshal(c.reply)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(b) != c.want {
				t.Fatalf("got  %s\nwant %s", b, c.want)
			}
		})
	}
}

func TestReplyUnknownType(t *testing.T) {
	if _, err := json.Marshal(Reply{Type: "nope"}); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}
