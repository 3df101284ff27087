// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CuraDocs Contributors

// Package alert publishes emergency-detection events to NATS so on-call
// clinical staff tooling can react out of band. Publishing is fire-and-
// forget; the assistant pipeline never blocks or fails on it.
package alert

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	curaerr "github.com/curadocs-dev/curadocs/pkg/errors"
)

// SubjectEmergencyDetected is the NATS subject for triage-gate hits.
const SubjectEmergencyDetected = "curadocs.assistant.emergency"

// Event is the payload published when the triage gate trips.
type Event struct {
	OwnerID    string    `json:"owner_id"`
	Message    string    `json:"message"`
	DetectedAt time.Time `json:"detected_at"`
}

// Publisher publishes emergency events over a NATS connection.
type Publisher struct {
	conn   *nats.Conn
	logger *slog.Logger
}

// Config carries the NATS connection parameters.
type Config struct {
	URL    string
	Token  string
	Logger *slog.Logger
}

// New connects to NATS and returns a publisher. The connection retries in
// the background, so a broker that is briefly down at startup does not
// fail the process.
func New(cfg Config) (*Publisher, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	opts := []nats.Option{
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, curaerr.Wrap(err, curaerr.CodeAlertPublishFailure, "alert: connecting to nats")
	}

	return &Publisher{conn: conn, logger: logger}, nil
}

// PublishEmergency emits an Event for the given owner and message.
func (p *Publisher) PublishEmergency(_ context.Context, ownerID, message string) error {
	event := Event{
		OwnerID:    ownerID,
		Message:    message,
		DetectedAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return curaerr.Wrap(err, curaerr.CodeAlertPublishFailure, "alert: marshaling event", curaerr.FieldOwnerID(ownerID))
	}
	if err := p.conn.Publish(SubjectEmergencyDetected, payload); err != nil {
		return curaerr.Wrap(err, curaerr.CodeAlertPublishFailure, "alert: publishing event", curaerr.FieldOwnerID(ownerID))
	}
	return nil
}

// Close drains the connection.
func (p *Publisher) Close() error {
	p.conn.Close()
	return nil
}
