// internal/server/tools.go
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"

	"calorie-log/internal/platform/bind"
	perr "calorie-log/internal/platform/errors"
	"calorie-log/internal/platform/logger"
	"calorie-log/internal/tracker"
)

type LogMealParams struct {
	Description string `json:"description" description:"Description of the meal eaten"`
}

type LastMealParams struct {
	Description string `json:"description" description:"Description of the last meal of the day; the day is closed after it is logged"`
}

type ChatParams struct {
	Message string `json:"message,omitempty" description:"Chat message, e.g. a meal, 'calorie count' or 'last meal: ...'"`
	Image   string `json:"image,omitempty" description:"Optional base64 photo of the food"`
}

type toolHandler func(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error)

// toolbox exposes the tracker as MCP tools over a plain HTTP POST
type toolbox struct {
	svc   *tracker.Service
	tools map[string]toolHandler
}

func newToolbox(svc *tracker.Service) *toolbox {
	t := &toolbox{svc: svc}
	t.tools = map[string]toolHandler{
		"log_meal":      t.handleLogMeal,
		"last_meal":     t.handleLastMeal,
		"calorie_count": t.handleCalorieCount,
		"get_history":   t.handleGetHistory,
		"chat":          t.handleChat,
	}
	return t
}

// names lists the registered tools in a stable order
func (t *toolbox) names() []string {
	out := make([]string, 0, len(t.tools))
	for name := range t.tools {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (t *toolbox) handleHTTP(w http.ResponseWriter, r *http.Request) {
	request, err := bind.ParseJSON[protocol.CallToolRequest](r, bind.JSONOptions{MaxBytes: bind.DefaultMaxBytes})
	if err != nil {
		writeError(w, r, err)
		return
	}

	handler, ok := t.tools[request.Name]
	if !ok {
		writeError(w, r, perr.NotFoundf("Unknown tool: %s (available: %v)", request.Name, t.names()))
		return
	}

	result, err := handler(r.Context(), &request)
	if err != nil {
		// domain failures go back to the MCP client as an error result
		status, _ := perr.HTTP(err)
		if status >= http.StatusInternalServerError {
			logger.C(r.Context()).Error().Err(err).Str("tool", request.Name).Msg("tool failed")
		}
		writeJSON(w, http.StatusOK, errorResult(err))
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// extractParams converts the request arguments map into target
func extractParams(req *protocol.CallToolRequest, target interface{}) error {
	jsonBytes, err := json.Marshal(req.Arguments)
	if err != nil {
		return perr.JSONErrf("failed to marshal arguments: %v", err)
	}

	if err := json.Unmarshal(jsonBytes, target); err != nil {
		return perr.JSONErrf("invalid parameters: %v", err)
	}

	return nil
}

func (t *toolbox) handleLogMeal(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params LogMealParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	out, err := t.svc.Estimate(ctx, params.Description)
	if err != nil {
		return nil, err
	}
	return createJSONResponse(out)
}

func (t *toolbox) handleLastMeal(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params LastMealParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	out, err := t.svc.LastMeal(ctx, params.Description)
	if err != nil {
		return nil, err
	}
	return createJSONResponse(out)
}

func (t *toolbox) handleCalorieCount(ctx context.Context, _ *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	out, err := t.svc.CalorieCount(ctx)
	if err != nil {
		return nil, err
	}
	return createJSONResponse(out)
}

func (t *toolbox) handleGetHistory(ctx context.Context, _ *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	out, err := t.svc.History(ctx)
	if err != nil {
		return nil, err
	}
	return createJSONResponse(map[string]interface{}{"history": out})
}

func (t *toolbox) handleChat(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params ChatParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	in := tracker.ChatInput{Message: params.Message}
	if params.Image != "" {
		img, err := bind.ImageBase64(params.Image)
		if err != nil {
			return nil, perr.WithField(perr.Validationf("image must be base64 image data"), "image")
		}
		in.Image = img
	}
	out, err := t.svc.Chat(ctx, in)
	if err != nil {
		return nil, err
	}
	return createJSONResponse(out)
}

func createJSONResponse(data interface{}) (*protocol.CallToolResult, error) {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}

	return &protocol.CallToolResult{
		Content: []protocol.Content{
			protocol.TextContent{
				Type: "text",
				Text: string(jsonBytes),
			},
		},
	}, nil
}

func errorResult(err error) *protocol.CallToolResult {
	return &protocol.CallToolResult{
		Content: []protocol.Content{
			protocol.TextContent{
				Type: "text",
				Text: perr.WireFrom(err).Message,
			},
		},
		IsError: true,
	}
}
