// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CuraDocs Contributors

package server

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	curaerr "github.com/curadocs-dev/curadocs/pkg/errors"
)

// RegisterServices sets the service dependencies and registers REST routes.
func (s *Server) RegisterServices(svc *Services) {
	s.services = svc
	s.registerAssistantRoutes()
	s.registerProfileRoutes()
}

func (s *Server) registerAssistantRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "assistant-send-message",
		Method:      http.MethodPost,
		Path:        "/api/assistant/message",
		Summary:     "Send a message to the health assistant",
		Tags:        []string{"assistant"},
	}, s.handleSendMessage)

	huma.Register(s.api, huma.Operation{
		OperationID: "assistant-get-history",
		Method:      http.MethodGet,
		Path:        "/api/assistant/history",
		Summary:     "Get conversation history",
		Tags:        []string{"assistant"},
	}, s.handleGetHistory)

	huma.Register(s.api, huma.Operation{
		OperationID: "assistant-clear-history",
		Method:      http.MethodDelete,
		Path:        "/api/assistant/history",
		Summary:     "Clear conversation history",
		Tags:        []string{"assistant"},
	}, s.handleClearHistory)

	huma.Register(s.api, huma.Operation{
		OperationID: "assistant-get-stats",
		Method:      http.MethodGet,
		Path:        "/api/assistant/stats",
		Summary:     "Get conversation statistics",
		Tags:        []string{"assistant"},
	}, s.handleGetStats)
}

// --- Request/Response types for huma ---

type sendMessageInput struct {
	Body struct {
		Message string `json:"message" doc:"User message"`
	}
}

type messageData struct {
	UserMessage string     `json:"userMessage" doc:"The submitted message"`
	BotResponse string     `json:"botResponse" doc:"Assistant reply"`
	Timestamp   *time.Time `json:"timestamp,omitempty" doc:"When the exchange was recorded"`
	Disclaimer  string     `json:"disclaimer,omitempty" doc:"Medical disclaimer"`
}

type sendMessageOutput struct {
	Body struct {
		Success          bool        `json:"success"`
		IsEmergency      bool        `json:"isEmergency"`
		EmergencyMessage string      `json:"emergencyMessage,omitempty" doc:"Fixed emergency advisory"`
		Data             messageData `json:"data"`
	}
}

type turnView struct {
	Speaker string    `json:"speaker" doc:"user or assistant"`
	Text    string    `json:"text"`
	At      time.Time `json:"at"`
}

type getHistoryInput struct {
	Limit int `query:"limit" default:"50" minimum:"1" maximum:"500" doc:"Maximum turns to return"`
}

type historyData struct {
	Messages      []turnView `json:"messages"`
	TotalMessages int        `json:"totalMessages"`
	SessionID     string     `json:"sessionId,omitempty"`
	CreatedAt     *time.Time `json:"createdAt,omitempty"`
}

type getHistoryOutput struct {
	Body struct {
		Success bool        `json:"success"`
		Data    historyData `json:"data"`
	}
}

type clearHistoryOutput struct {
	Body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
}

type statsData struct {
	TotalMessages     int        `json:"totalMessages"`
	TotalUserMessages int        `json:"totalUserMessages"`
	TotalBotMessages  int        `json:"totalBotMessages"`
	FirstMessageDate  *time.Time `json:"firstMessageDate"`
	LastMessageDate   *time.Time `json:"lastMessageDate"`
	SessionStarted    *time.Time `json:"sessionStarted"`
}

type getStatsOutput struct {
	Body struct {
		Success bool      `json:"success"`
		Data    statsData `json:"data"`
	}
}

// --- Handlers ---

func (s *Server) handleSendMessage(ctx context.Context, input *sendMessageInput) (*sendMessageOutput, error) {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("authentication required")
	}

	reply, err := s.services.assistant.SendMessage(ctx, id.ID, input.Body.Message)
	if err != nil {
		return nil, s.mapError(err, "Failed to get response from health assistant. Please try again.")
	}

	out := &sendMessageOutput{}
	out.Body.Success = true
	out.Body.IsEmergency = reply.IsEmergency
	out.Body.EmergencyMessage = reply.EmergencyNotice
	out.Body.Data = messageData{
		UserMessage: reply.UserMessage,
		BotResponse: reply.BotResponse,
		Disclaimer:  reply.Disclaimer,
	}
	if !reply.Timestamp.IsZero() {
		ts := reply.Timestamp
		out.Body.Data.Timestamp = &ts
	}
	return out, nil
}

func (s *Server) handleGetHistory(ctx context.Context, input *getHistoryInput) (*getHistoryOutput, error) {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("authentication required")
	}

	hist, err := s.services.assistant.History(ctx, id.ID, input.Limit)
	if err != nil {
		return nil, s.mapError(err, "Failed to retrieve chat history")
	}

	out := &getHistoryOutput{}
	out.Body.Success = true
	out.Body.Data.Messages = make([]turnView, 0, len(hist.Messages))
	for _, turn := range hist.Messages {
		out.Body.Data.Messages = append(out.Body.Data.Messages, turnView{
			Speaker: string(turn.Speaker),
			Text:    turn.Text,
			At:      turn.At,
		})
	}
	out.Body.Data.TotalMessages = hist.Total
	out.Body.Data.SessionID = hist.SessionID
	out.Body.Data.CreatedAt = hist.CreatedAt
	return out, nil
}

func (s *Server) handleClearHistory(ctx context.Context, _ *struct{}) (*clearHistoryOutput, error) {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("authentication required")
	}

	if err := s.services.assistant.Clear(ctx, id.ID); err != nil {
		return nil, s.mapError(err, "Failed to clear chat history")
	}

	out := &clearHistoryOutput{}
	out.Body.Success = true
	out.Body.Message = "Chat history cleared successfully. Starting fresh session."
	return out, nil
}

func (s *Server) handleGetStats(ctx context.Context, _ *struct{}) (*getStatsOutput, error) {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("authentication required")
	}

	stats, err := s.services.assistant.Stats(ctx, id.ID)
	if err != nil {
		return nil, s.mapError(err, "Failed to retrieve chat statistics")
	}

	out := &getStatsOutput{}
	out.Body.Success = true
	out.Body.Data.TotalMessages = stats.TotalMessages
	out.Body.Data.TotalUserMessages = stats.TotalUserMessages
	out.Body.Data.TotalBotMessages = stats.TotalBotMessages
	out.Body.Data.FirstMessageDate = stats.FirstMessageAt
	out.Body.Data.LastMessageDate = stats.LastMessageAt
	out.Body.Data.SessionStarted = stats.SessionStarted
	return out, nil
}

// mapError converts a pipeline error into a huma status error. Caller errors
// surface their own message; everything else gets the opaque message with
// the cause logged server-side only.
func (s *Server) mapError(err error, opaque string) error {
	status := curaerr.HTTPStatus(err)
	switch {
	case curaerr.IsInvalidInput(err):
		return huma.Error400BadRequest("Message is required")
	case status == http.StatusNotFound:
		return huma.Error404NotFound("Not found")
	case curaerr.IsUnauthorized(err):
		return huma.NewError(status, "Not permitted")
	default:
		s.logger.Error("request failed", "status", status, "error", err)
		return huma.NewError(status, opaque)
	}
}
