package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillsync/internal/domain/profile"
	"skillsync/internal/usecase"
)

func runHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func fakeClient(hub *Hub, userID uuid.UUID, buffer int) *Client {
	return &Client{hub: hub, send: make(chan []byte, buffer), userID: userID}
}

func TestHub_SendToUserTargetsOnlyThatUser(t *testing.T) {
	hub := runHub(t)
	alice, bob := uuid.New(), uuid.New()
	a, b := fakeClient(hub, alice, 4), fakeClient(hub, bob, 4)
	hub.Register(a)
	hub.Register(b)
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	hub.SendToUser(alice, []byte("hi"))
	select {
	case msg := <-a.send:
		assert.Equal(t, "hi", string(msg))
	case <-time.After(time.Second):
		t.Fatal("alice got nothing")
	}
	assert.Empty(t, b.send)

	hub.Broadcast([]byte("all"))
	assert.Equal(t, "all", string(<-a.send))
	assert.Equal(t, "all", string(<-b.send))
}

func TestHub_DropsSlowClient(t *testing.T) {
	hub := runHub(t)
	user := uuid.New()
	slow := fakeClient(hub, user, 1)
	hub.Register(slow)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.SendToUser(user, []byte("1"))
	hub.SendToUser(user, []byte("2"))
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)

	_, open := <-slow.send
	assert.True(t, open)
	_, open = <-slow.send
	assert.False(t, open)
}

func TestHub_UnregisterAndShutdown(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { hub.Run(ctx); close(done) }()

	a, b := fakeClient(hub, uuid.New(), 1), fakeClient(hub, uuid.New(), 1)
	hub.Register(a)
	hub.Register(b)
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	hub.Unregister(a)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	<-done
	assert.Zero(t, hub.ClientCount())
	_, open := <-b.send
	assert.False(t, open)
}

func TestNotifier_EncodesEvent(t *testing.T) {
	hub := runHub(t)
	user := uuid.New()
	c := fakeClient(hub, user, 1)
	hub.Register(c)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	match := uuid.New()
	NewNotifier(hub).NotifyMatchFeedback(user, usecase.MatchFeedbackEvent{
		Type: usecase.EventMatchFeedback, MatchID: match, Feedback: profile.FeedbackSaved, Score: 81,
	})

	var got map[string]any
	require.NoError(t, json.Unmarshal(<-c.send, &got))
	assert.Equal(t, "match_feedback", got["type"])
	assert.Equal(t, match.String(), got["match_id"])
	assert.Equal(t, "saved", got["feedback"])
	assert.EqualValues(t, 81, got["score"])
}

func TestHandler_StreamsEventsOverWebSocket(t *testing.T) {
	hub := runHub(t)
	user := uuid.New()
	h := NewHandler(hub, nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.serve(w, r, user)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.SendToUser(user, []byte(`{"type":"match_feedback"}`))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"match_feedback"}`, string(msg))

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_RegisterAndUnregisterAfterShutdownDoNotBlock(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { hub.Run(ctx); close(done) }()
	cancel()
	<-done

	// Fill the buffers well past capacity; none of these calls may block.
	finished := make(chan struct{})
	late := fakeClient(hub, uuid.New(), 1)
	go func() {
		for range 300 {
			hub.Unregister(late)
		}
		hub.Register(late)
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("register or unregister blocked after shutdown")
	}
	_, open := <-late.send
	assert.False(t, open)
	assert.Zero(t, hub.ClientCount())
}
