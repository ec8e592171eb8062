package server

import (
	"net/http"

	"calorie-log/internal/models"
	"calorie-log/internal/platform/bind"
	perr "calorie-log/internal/platform/errors"
	"calorie-log/internal/platform/logger"
	"calorie-log/internal/tracker"
)

type handlers struct {
	svc *tracker.Service
}

func (h *handlers) estimate(w http.ResponseWriter, r *http.Request) {
	body, err := bind.ParseJSON[models.FoodRequest](r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.svc.Estimate(r.Context(), body.Food)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) calorieCount(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.CalorieCount(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) lastMeal(w http.ResponseWriter, r *http.Request) {
	body, err := bind.ParseJSON[models.FoodRequest](r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.svc.LastMeal(r.Context(), body.Food)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) chat(w http.ResponseWriter, r *http.Request) {
	body, err := bind.ParseJSON[models.ChatRequest](r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	in, err := chatInput(body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.svc.Chat(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) history(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.History(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]models.HistoryEntry{"history": out})
}

// chatInput decodes the optional photo; validation already rejected bad base64
func chatInput(body models.ChatRequest) (tracker.ChatInput, error) {
	in := tracker.ChatInput{Message: body.Message}
	if body.Image == "" {
		return in, nil
	}
	img, err := bind.ImageBase64(body.Image)
	if err != nil {
		return in, perr.WithField(perr.Validationf("image must be base64 image data"), "image")
	}
	in.Image = img
	return in, nil
}

// writeError maps err to its status and writes {"error": ..., "code": ...}
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, wire := perr.HTTP(err)
	log := logger.C(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	} else {
		log.Debug().Err(err).Str("path", r.URL.Path).Msg("request rejected")
	}
	writeJSON(w, status, wire)
}

func notFound(r *http.Request) error {
	return perr.NotFoundf("no route for %s %s", r.Method, r.URL.Path)
}
