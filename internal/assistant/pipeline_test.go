// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CuraDocs Contributors

package assistant

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curadocs-dev/curadocs/internal/provider"
	"github.com/curadocs-dev/curadocs/internal/store"
	curaerr "github.com/curadocs-dev/curadocs/pkg/errors"
)

// fakeGenerator echoes the incoming message, counting calls. A non-nil err
// fails every call; a non-nil hook runs before replying.
type fakeGenerator struct {
	mu      sync.Mutex
	calls   int
	lastReq provider.Request
	err     error
	hook    func()
}

func (f *fakeGenerator) Name() string { return "fake" }
func (f *fakeGenerator) Close() error { return nil }

func (f *fakeGenerator) Generate(_ context.Context, req provider.Request) (string, error) {
	f.mu.Lock()
	f.calls++
	f.lastReq = req
	hook := f.hook
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	if f.err != nil {
		return "", f.err
	}
	return "echo: " + req.Message, nil
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeAlerts struct {
	mu     sync.Mutex
	events []string
}

func (f *fakeAlerts) PublishEmergency(_ context.Context, ownerID, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ownerID+": "+message)
	return nil
}

func newTestPipeline(t *testing.T, cfg Config) (*Pipeline, *fakeGenerator, store.ChatStore) {
	t.Helper()

	chats := store.NewMemoryChatStore()
	gen := &fakeGenerator{}
	p, err := NewPipeline(chats, gen, cfg)
	require.NoError(t, err)
	return p, gen, chats
}

func TestSendMessageRejectsBlankInput(t *testing.T) {
	p, gen, _ := newTestPipeline(t, Config{})

	_, err := p.SendMessage(context.Background(), "u1", "   \t\n")
	assert.True(t, curaerr.HasCode(err, curaerr.CodeAssistantMessageInvalid))
	assert.Zero(t, gen.callCount())
}

func TestSendMessageEmergencyShortCircuit(t *testing.T) {
	alerts := &fakeAlerts{}
	p, gen, _ := newTestPipeline(t, Config{Alerts: alerts})

	reply, err := p.SendMessage(context.Background(), "u2", "I think I'm having a heart attack")
	require.NoError(t, err)

	assert.True(t, reply.IsEmergency)
	assert.Equal(t, EmergencyNotice, reply.EmergencyNotice)
	assert.Equal(t, EmergencyResponse, reply.BotResponse)
	assert.Equal(t, EmergencyDisclaimer, reply.Disclaimer)

	// No generation call, no store write.
	assert.Zero(t, gen.callCount())
	stats, err := p.Stats(context.Background(), "u2")
	require.NoError(t, err)
	assert.Zero(t, stats.TotalMessages)
	assert.Nil(t, stats.FirstMessageAt)
	assert.Nil(t, stats.SessionStarted)

	require.Len(t, alerts.events, 1)
	assert.Contains(t, alerts.events[0], "u2")
}

func TestSendMessagePersistsExchange(t *testing.T) {
	p, gen, _ := newTestPipeline(t, Config{})

	reply, err := p.SendMessage(context.Background(), "u1", "I have a mild headache")
	require.NoError(t, err)

	assert.False(t, reply.IsEmergency)
	assert.Equal(t, "I have a mild headache", reply.UserMessage)
	assert.Equal(t, "echo: I have a mild headache", reply.BotResponse)
	assert.Equal(t, Disclaimer, reply.Disclaimer)
	assert.False(t, reply.Timestamp.IsZero())

	// First exchange: the window sent upstream is empty, the new message
	// rides separately.
	assert.Empty(t, gen.lastReq.Window)
	assert.Equal(t, SystemPolicy, gen.lastReq.SystemPolicy)

	hist, err := p.History(context.Background(), "u1", 0)
	require.NoError(t, err)
	require.Len(t, hist.Messages, 2)
	assert.Equal(t, store.SpeakerUser, hist.Messages[0].Speaker)
	assert.Equal(t, "I have a mild headache", hist.Messages[0].Text)
	assert.Equal(t, store.SpeakerAssistant, hist.Messages[1].Speaker)
	assert.Equal(t, "echo: I have a mild headache", hist.Messages[1].Text)
	assert.NotEmpty(t, hist.SessionID)
	require.NotNil(t, hist.CreatedAt)
}

func TestSendMessageWindowsPriorTurns(t *testing.T) {
	p, gen, _ := newTestPipeline(t, Config{WindowSize: 4})

	ctx := context.Background()
	for _, msg := range []string{"first", "second", "third"} {
		_, err := p.SendMessage(ctx, "u1", msg)
		require.NoError(t, err)
	}

	// Before the third send the log held 4 turns, exactly the window size.
	require.Len(t, gen.lastReq.Window, 4)
	assert.Equal(t, "first", gen.lastReq.Window[0].Content)
	assert.Equal(t, provider.RoleAssistant, gen.lastReq.Window[1].Role)
	assert.Equal(t, "third", gen.lastReq.Message)
}

func TestSendMessageGenerationFailureLeavesNoTrace(t *testing.T) {
	p, gen, _ := newTestPipeline(t, Config{})
	gen.err = curaerr.New(curaerr.CodeProviderUpstreamFailure, "upstream down")

	_, err := p.SendMessage(context.Background(), "u1", "I have a mild headache")
	assert.True(t, curaerr.IsUpstreamFailure(err))

	hist, err := p.History(context.Background(), "u1", 0)
	require.NoError(t, err)
	assert.Empty(t, hist.Messages)
}

func TestSendMessageCancelledBeforePersist(t *testing.T) {
	p, gen, _ := newTestPipeline(t, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	gen.hook = cancel

	_, err := p.SendMessage(ctx, "u1", "I have a mild headache")
	assert.True(t, curaerr.IsCancelled(err))

	hist, err := p.History(context.Background(), "u1", 0)
	require.NoError(t, err)
	assert.Empty(t, hist.Messages)
}

func TestSendMessageConcurrentSameOwner(t *testing.T) {
	p, _, _ := newTestPipeline(t, Config{})

	var wg sync.WaitGroup
	for _, msg := range []string{"alpha", "beta"} {
		wg.Add(1)
		go func(msg string) {
			defer wg.Done()
			_, err := p.SendMessage(context.Background(), "u1", msg)
			assert.NoError(t, err)
		}(msg)
	}
	wg.Wait()

	hist, err := p.History(context.Background(), "u1", 0)
	require.NoError(t, err)
	require.Len(t, hist.Messages, 4)

	// Each user turn is immediately followed by its own assistant turn.
	for i := 0; i < 4; i += 2 {
		assert.Equal(t, store.SpeakerUser, hist.Messages[i].Speaker)
		assert.Equal(t, store.SpeakerAssistant, hist.Messages[i+1].Speaker)
		assert.Equal(t, "echo: "+hist.Messages[i].Text, hist.Messages[i+1].Text)
	}
}

func TestHistoryAbsentSession(t *testing.T) {
	p, _, _ := newTestPipeline(t, Config{})

	hist, err := p.History(context.Background(), "nobody", 0)
	require.NoError(t, err)
	assert.Empty(t, hist.Messages)
	assert.Zero(t, hist.Total)
	assert.Empty(t, hist.SessionID)
	assert.Nil(t, hist.CreatedAt)
}

func TestHistoryLimit(t *testing.T) {
	p, _, _ := newTestPipeline(t, Config{})

	ctx := context.Background()
	for _, msg := range []string{"one", "two", "three"} {
		_, err := p.SendMessage(ctx, "u1", msg)
		require.NoError(t, err)
	}

	hist, err := p.History(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, hist.Messages, 2)
	assert.Equal(t, 6, hist.Total)
	assert.Equal(t, "three", hist.Messages[0].Text)
	assert.Equal(t, "echo: three", hist.Messages[1].Text)
}

func TestClearIsIdempotent(t *testing.T) {
	p, _, _ := newTestPipeline(t, Config{})

	ctx := context.Background()
	_, err := p.SendMessage(ctx, "u1", "hello there")
	require.NoError(t, err)

	require.NoError(t, p.Clear(ctx, "u1"))
	require.NoError(t, p.Clear(ctx, "u1"))

	hist, err := p.History(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Empty(t, hist.Messages)
}

func TestStats(t *testing.T) {
	p, _, _ := newTestPipeline(t, Config{})

	ctx := context.Background()
	for _, msg := range []string{"one", "two"} {
		_, err := p.SendMessage(ctx, "u1", msg)
		require.NoError(t, err)
	}

	stats, err := p.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalMessages)
	assert.Equal(t, 2, stats.TotalUserMessages)
	assert.Equal(t, 2, stats.TotalBotMessages)
	require.NotNil(t, stats.FirstMessageAt)
	require.NotNil(t, stats.LastMessageAt)
	require.NotNil(t, stats.SessionStarted)
	assert.False(t, stats.LastMessageAt.Before(*stats.FirstMessageAt))
}

func TestNewPipelineValidation(t *testing.T) {
	chats := store.NewMemoryChatStore()

	_, err := NewPipeline(nil, &fakeGenerator{}, Config{})
	assert.Error(t, err)

	_, err = NewPipeline(chats, nil, Config{})
	assert.Error(t, err)
}
