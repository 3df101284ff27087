// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CuraDocs Contributors

// Package assistant implements the conversational health-assistant pipeline:
// triage of incoming messages for emergency signals, bounded context window
// construction over persisted history, delegation to a generation backend,
// and atomic persistence of each completed exchange.
package assistant

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/curadocs-dev/curadocs/internal/provider"
	"github.com/curadocs-dev/curadocs/internal/store"
	curaerr "github.com/curadocs-dev/curadocs/pkg/errors"
)

// AlertPublisher receives a notification whenever the triage gate trips.
// Publishing is best-effort: a publish failure never fails the request.
type AlertPublisher interface {
	PublishEmergency(ctx context.Context, ownerID, message string) error
}

// Pipeline orchestrates a sendMessage exchange and serves derived views of
// the persisted session. It holds no per-request state; all durable state
// lives in the chat store.
type Pipeline struct {
	chats  store.ChatStore
	gen    provider.Generator
	alerts AlertPublisher // optional
	logger *slog.Logger

	model        string
	windowSize   int
	historyLimit int
	options      provider.Options
}

// Config carries the pipeline's construction parameters. Zero values fall
// back to the package defaults.
type Config struct {
	Model        string
	WindowSize   int
	HistoryLimit int
	Options      *provider.Options

	// Alerts, when non-nil, is notified of every emergency detection.
	Alerts AlertPublisher

	Logger *slog.Logger
}

// NewPipeline builds a pipeline over the given store and generator.
func NewPipeline(chats store.ChatStore, gen provider.Generator, cfg Config) (*Pipeline, error) {
	if chats == nil {
		return nil, curaerr.New(curaerr.CodeServerConfigInvalid, "assistant: chat store is required")
	}
	if gen == nil {
		return nil, curaerr.New(curaerr.CodeServerConfigInvalid, "assistant: generator is required")
	}

	p := &Pipeline{
		chats:        chats,
		gen:          gen,
		alerts:       cfg.Alerts,
		logger:       cfg.Logger,
		model:        cfg.Model,
		windowSize:   cfg.WindowSize,
		historyLimit: cfg.HistoryLimit,
		options:      DefaultOptions,
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.model == "" {
		p.model = DefaultModel
	}
	if p.windowSize <= 0 {
		p.windowSize = DefaultWindowSize
	}
	if p.historyLimit <= 0 {
		p.historyLimit = DefaultHistoryLimit
	}
	if cfg.Options != nil {
		p.options = *cfg.Options
	}
	return p, nil
}

// Reply is the outcome of a SendMessage call. Emergency replies carry the
// fixed advisory strings and no timestamp; nothing was generated or stored.
type Reply struct {
	IsEmergency     bool
	EmergencyNotice string
	UserMessage     string
	BotResponse     string
	Timestamp       time.Time
	Disclaimer      string
}

// History is a bounded, order-preserving view over a session's turns.
type History struct {
	Messages  []store.Turn
	Total     int
	SessionID string
	CreatedAt *time.Time
}

// Stats summarizes a session. Counts are zero and timestamps nil when the
// owner has no session.
type Stats struct {
	TotalMessages     int
	TotalUserMessages int
	TotalBotMessages  int
	FirstMessageAt    *time.Time
	LastMessageAt     *time.Time
	SessionStarted    *time.Time
}

// SendMessage runs one exchange: validate, triage, load, window, generate,
// persist. On the emergency path neither the store nor the generator is
// touched. On any generation or store failure nothing is persisted; the
// user turn and assistant turn are appended together or not at all.
func (p *Pipeline) SendMessage(ctx context.Context, ownerID, rawMessage string) (*Reply, error) {
	message := strings.TrimSpace(rawMessage)
	if message == "" {
		return nil, curaerr.New(curaerr.CodeAssistantMessageInvalid, "message is required", curaerr.FieldOwnerID(ownerID))
	}

	if IsEmergency(message) {
		p.notifyEmergency(ctx, ownerID, message)
		return &Reply{
			IsEmergency:     true,
			EmergencyNotice: EmergencyNotice,
			UserMessage:     message,
			BotResponse:     EmergencyResponse,
			Disclaimer:      EmergencyDisclaimer,
		}, nil
	}

	sess, err := p.chats.CreateIfAbsent(ctx, ownerID)
	if err != nil {
		return nil, curaerr.Wrap(err, curaerr.CodeStoreDatabaseFailure, "assistant: loading session", curaerr.FieldOwnerID(ownerID))
	}

	req := provider.Request{
		Model:        p.model,
		SystemPolicy: SystemPolicy,
		Window:       BuildWindow(sess.Turns, p.windowSize),
		Message:      message,
		Options:      p.options,
	}

	text, err := p.gen.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	// The caller may already be gone (disconnect, timeout). A reply no one
	// will observe is not persisted.
	if ctx.Err() != nil {
		return nil, curaerr.Wrap(ctx.Err(), curaerr.CodeAssistantCancelled, "assistant: request cancelled before persist", curaerr.FieldOwnerID(ownerID))
	}

	now := time.Now().UTC()
	_, err = p.chats.AppendTurns(ctx, ownerID, []store.Turn{
		{ID: uuid.NewString(), Speaker: store.SpeakerUser, Text: message, At: now},
		{ID: uuid.NewString(), Speaker: store.SpeakerAssistant, Text: text, At: now},
	})
	if err != nil {
		return nil, curaerr.Wrap(err, curaerr.CodeStoreDatabaseFailure, "assistant: persisting exchange", curaerr.FieldOwnerID(ownerID))
	}

	return &Reply{
		UserMessage: message,
		BotResponse: text,
		Timestamp:   now,
		Disclaimer:  Disclaimer,
	}, nil
}

// History returns the last limit turns of the owner's session in original
// order. An absent session yields an empty result, not an error. A limit of
// zero or less falls back to the configured history limit.
func (p *Pipeline) History(ctx context.Context, ownerID string, limit int) (*History, error) {
	if limit <= 0 {
		limit = p.historyLimit
	}

	sess, err := p.chats.Get(ctx, ownerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &History{Messages: []store.Turn{}}, nil
		}
		return nil, curaerr.Wrap(err, curaerr.CodeStoreDatabaseFailure, "assistant: loading history", curaerr.FieldOwnerID(ownerID))
	}

	turns := sess.Turns
	if len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}

	createdAt := sess.CreatedAt
	return &History{
		Messages:  turns,
		Total:     len(sess.Turns),
		SessionID: sess.SessionID,
		CreatedAt: &createdAt,
	}, nil
}

// Clear deletes the owner's session. Idempotent: clearing an absent session
// is not an error.
func (p *Pipeline) Clear(ctx context.Context, ownerID string) error {
	if _, err := p.chats.Delete(ctx, ownerID); err != nil {
		return curaerr.Wrap(err, curaerr.CodeStoreDatabaseFailure, "assistant: clearing session", curaerr.FieldOwnerID(ownerID))
	}
	return nil
}

// Stats summarizes the owner's session.
func (p *Pipeline) Stats(ctx context.Context, ownerID string) (*Stats, error) {
	sess, err := p.chats.Get(ctx, ownerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &Stats{}, nil
		}
		return nil, curaerr.Wrap(err, curaerr.CodeStoreDatabaseFailure, "assistant: loading stats", curaerr.FieldOwnerID(ownerID))
	}

	stats := &Stats{TotalMessages: len(sess.Turns)}
	for _, turn := range sess.Turns {
		if turn.Speaker == store.SpeakerUser {
			stats.TotalUserMessages++
		} else {
			stats.TotalBotMessages++
		}
	}
	if len(sess.Turns) > 0 {
		first := sess.Turns[0].At
		last := sess.Turns[len(sess.Turns)-1].At
		stats.FirstMessageAt = &first
		stats.LastMessageAt = &last
	}
	started := sess.CreatedAt
	stats.SessionStarted = &started
	return stats, nil
}

func (p *Pipeline) notifyEmergency(ctx context.Context, ownerID, message string) {
	if p.alerts == nil {
		return
	}
	if err := p.alerts.PublishEmergency(ctx, ownerID, message); err != nil {
		p.logger.Warn("emergency alert publish failed", "owner_id", ownerID, "error", err)
	}
}
