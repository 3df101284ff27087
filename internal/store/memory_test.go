// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CuraDocs Contributors

package store_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curadocs-dev/curadocs/internal/store"
)

func TestMemoryChatStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	cs := store.NewMemoryChatStore()

	_, err := cs.Get(ctx, "usr-1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	sess, err := cs.CreateIfAbsent(ctx, "usr-1")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.SessionID)

	again, err := cs.CreateIfAbsent(ctx, "usr-1")
	require.NoError(t, err)
	assert.Equal(t, sess.SessionID, again.SessionID)

	now := time.Now()
	sess, err = cs.AppendTurns(ctx, "usr-1", []store.Turn{
		{ID: uuid.NewString(), Speaker: store.SpeakerUser, Text: "hello", At: now},
		{ID: uuid.NewString(), Speaker: store.SpeakerAssistant, Text: "hi", At: now},
	})
	require.NoError(t, err)
	require.Len(t, sess.Turns, 2)

	// Returned session is a copy; mutating it must not leak into the store.
	sess.Turns[0].Text = "mutated"
	fresh, err := cs.Get(ctx, "usr-1")
	require.NoError(t, err)
	assert.Equal(t, "hello", fresh.Turns[0].Text)

	existed, err := cs.Delete(ctx, "usr-1")
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = cs.Delete(ctx, "usr-1")
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestMemoryChatStore_ConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	cs := store.NewMemoryChatStore()
	_, err := cs.CreateIfAbsent(ctx, "usr-1")
	require.NoError(t, err)

	const writers = 16
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			now := time.Now()
			_, err := cs.AppendTurns(ctx, "usr-1", []store.Turn{
				{ID: uuid.NewString(), Speaker: store.SpeakerUser, Text: fmt.Sprintf("q-%d", i), At: now},
				{ID: uuid.NewString(), Speaker: store.SpeakerAssistant, Text: fmt.Sprintf("a-%d", i), At: now},
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	sess, err := cs.Get(ctx, "usr-1")
	require.NoError(t, err)
	require.Len(t, sess.Turns, writers*2)
	for i := 0; i < len(sess.Turns); i += 2 {
		require.Equal(t, store.SpeakerUser, sess.Turns[i].Speaker)
		require.Equal(t, store.SpeakerAssistant, sess.Turns[i+1].Speaker)
		assert.Equal(t, "a"+sess.Turns[i].Text[1:], sess.Turns[i+1].Text)
	}
}

func TestMemoryProfileStore_TokenLookup(t *testing.T) {
	ctx := context.Background()
	ps := store.NewMemoryProfileStore()

	require.NoError(t, ps.Put(ctx, &store.Profile{
		ID: "pat-1", Name: "Sam", Email: "sam@example.com",
		Role: store.RolePatient, Active: true, CreatedAt: time.Now(),
	}))
	require.NoError(t, ps.PutToken(ctx, "hash-1", "pat-1"))

	got, err := ps.GetByToken(ctx, "hash-1")
	require.NoError(t, err)
	assert.Equal(t, "pat-1", got.ID)

	_, err = ps.GetByToken(ctx, "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestNewFactory(t *testing.T) {
	cs, ps, err := store.New(store.Config{Backend: "memory"})
	require.NoError(t, err)
	assert.NotNil(t, cs)
	assert.NotNil(t, ps)

	_, _, err = store.New(store.Config{Backend: "cassandra"})
	assert.Error(t, err)
}
