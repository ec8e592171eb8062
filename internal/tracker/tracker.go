// Package tracker turns chat messages and photos into calorie log updates
package tracker

import (
	"context"
	"fmt"
	"strings"

	"calorie-log/internal/intent"
	"calorie-log/internal/models"
	perr "calorie-log/internal/platform/errors"
	"calorie-log/internal/platform/logger"
)

// Estimator estimates the calories in a food description
type Estimator interface {
	EstimateCalories(ctx context.Context, description string) (models.Estimation, error)
}

// Describer turns a food photo into a text description
type Describer interface {
	DescribeFood(ctx context.Context, image []byte) (string, error)
}

// Store holds the running total and the closed-day history
type Store interface {
	GetTotal(ctx context.Context) (int, error)
	SetTotal(ctx context.Context, total int) error
	CloseDay(ctx context.Context, finalTotal int) (string, error)
	GetHistory(ctx context.Context) ([]models.HistoryEntry, error)
}

// Messages shown to the user for rejected input
const (
	msgNoFood        = "Please provide a food description"
	msgNoMessage     = "Please enter a message or add an image"
	msgNothingLogged = "You haven't logged any calories today."
	msgTotalTemplate = "Your total for today: **%d** calories."
)

// Service routes requests to the models and keeps the daily total
type Service struct {
	estimator Estimator
	describer Describer
	store     Store
}

func New(estimator Estimator, describer Describer, store Store) *Service {
	return &Service{estimator: estimator, describer: describer, store: store}
}

// ChatInput is one chat message; Image holds decoded photo bytes when present
type ChatInput struct {
	Message string
	Image   []byte
}

// Chat classifies the message, estimates when needed and updates the total
func (s *Service) Chat(ctx context.Context, in ChatInput) (models.Reply, error) {
	text := strings.TrimSpace(in.Message)
	hasImage := len(in.Image) > 0
	if text == "" && !hasImage {
		return models.Reply{}, perr.WithField(perr.Validationf(msgNoMessage), "message")
	}

	var vision string
	if hasImage {
		d, err := s.describer.DescribeFood(ctx, in.Image)
		if err != nil {
			return models.Reply{}, err
		}
		vision = d
	}

	req := intent.Classify(text, hasImage)
	log := logger.C(ctx).With().Str("intent", req.Kind.String()).Bool("image", hasImage).Logger()
	log.Debug().Msg("chat classified")

	switch req.Kind {
	case intent.CalorieCount:
		total, err := s.store.GetTotal(ctx)
		if err != nil {
			return models.Reply{}, err
		}
		return models.Reply{Type: models.ReplyCalorieCount, Total: total, Message: totalMessage(total)}, nil

	case intent.LastMeal:
		food := req.Food
		if hasImage {
			food = joinDescription(food, text, vision)
		}
		est, err := s.estimator.EstimateCalories(ctx, food)
		if err != nil {
			return models.Reply{}, err
		}
		if est.Unrecognized {
			return unrecognized(), nil
		}
		closed, err := s.closeDay(ctx, est)
		if err != nil {
			return models.Reply{}, err
		}
		return models.Reply{
			Type:         models.ReplyLastMeal,
			MealCalories: closed.MealCalories,
			Total:        closed.DayTotal,
			Breakdown:    closed.Breakdown,
			DaySaved:     closed.DaySaved,
		}, nil

	default:
		food := text
		if hasImage {
			food = joinDescription("", text, vision)
		}
		est, err := s.estimator.EstimateCalories(ctx, food)
		if err != nil {
			return models.Reply{}, err
		}
		if est.Unrecognized {
			return unrecognized(), nil
		}
		logged, err := s.addMeal(ctx, est)
		if err != nil {
			return models.Reply{}, err
		}
		return models.Reply{
			Type:         models.ReplyMeal,
			MealCalories: logged.MealCalories,
			Total:        logged.DailyTotal,
			Breakdown:    logged.Breakdown,
		}, nil
	}
}

// Estimate adds the food to the running total without intent routing
func (s *Service) Estimate(ctx context.Context, food string) (models.MealLogged, error) {
	food = strings.TrimSpace(food)
	if food == "" {
		return models.MealLogged{}, perr.WithField(perr.Validationf(msgNoFood), "food")
	}
	est, err := s.estimator.EstimateCalories(ctx, food)
	if err != nil {
		return models.MealLogged{}, err
	}
	return s.addMeal(ctx, est)
}

// LastMeal adds the food and closes the day
func (s *Service) LastMeal(ctx context.Context, food string) (models.DayClosed, error) {
	food = strings.TrimSpace(food)
	if food == "" {
		return models.DayClosed{}, perr.WithField(perr.Validationf(msgNoFood), "food")
	}
	est, err := s.estimator.EstimateCalories(ctx, food)
	if err != nil {
		return models.DayClosed{}, err
	}
	return s.closeDay(ctx, est)
}

// CalorieCount returns the running total
func (s *Service) CalorieCount(ctx context.Context) (models.CalorieCount, error) {
	total, err := s.store.GetTotal(ctx)
	if err != nil {
		return models.CalorieCount{}, err
	}
	return models.CalorieCount{DailyTotal: total}, nil
}

// History returns closed days, oldest first
func (s *Service) History(ctx context.Context) ([]models.HistoryEntry, error) {
	return s.store.GetHistory(ctx)
}

func (s *Service) addMeal(ctx context.Context, est models.Estimation) (models.MealLogged, error) {
	current, err := s.store.GetTotal(ctx)
	if err != nil {
		return models.MealLogged{}, err
	}
	newTotal := current + est.Calories
	if err := s.store.SetTotal(ctx, newTotal); err != nil {
		return models.MealLogged{}, err
	}

	logger.C(ctx).Info().
		Int("meal_calories", est.Calories).
		Int("daily_total", newTotal).
		Msg("meal logged")
	return models.MealLogged{MealCalories: est.Calories, DailyTotal: newTotal, Breakdown: est.Breakdown}, nil
}

func (s *Service) closeDay(ctx context.Context, est models.Estimation) (models.DayClosed, error) {
	current, err := s.store.GetTotal(ctx)
	if err != nil {
		return models.DayClosed{}, err
	}
	dayTotal := current + est.Calories
	day, err := s.store.CloseDay(ctx, dayTotal)
	if err != nil {
		return models.DayClosed{}, err
	}

	logger.C(ctx).Info().
		Int("meal_calories", est.Calories).
		Int("day_total", dayTotal).
		Str("day", day).
		Msg("day closed")
	return models.DayClosed{MealCalories: est.Calories, DayTotal: dayTotal, Breakdown: est.Breakdown, DaySaved: day}, nil
}

// joinDescription puts the user's words before the photo description.
// food, when set, replaces the raw text (it is the part after "last meal:").
func joinDescription(food, text, vision string) string {
	lead := food
	if lead == "" {
		lead = text
	}
	if lead == "" {
		return vision
	}
	return lead + " " + vision
}

func totalMessage(total int) string {
	if total == 0 {
		return msgNothingLogged
	}
	return fmt.Sprintf(msgTotalTemplate, total)
}

func unrecognized() models.Reply {
	return models.Reply{Type: models.ReplyUnrecognized, Message: models.UnrecognizedMessage}
}
