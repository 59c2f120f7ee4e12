package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tailortalk/models"
	"tailortalk/services/agent"
	"tailortalk/services/session"
)

// fakeAgent echoes a scripted reply and records what it was asked.
type fakeAgent struct {
	reply string
	err   error

	calls       int
	lastHistory []models.Turn
	lastInput   string
}

func (f *fakeAgent) Converse(ctx context.Context, history []models.Turn, input string) (string, []models.Turn, error) {
	f.calls++
	f.lastHistory = append([]models.Turn(nil), history...)
	f.lastInput = input
	if f.err != nil {
		return "", history, f.err
	}
	extended := append(append([]models.Turn(nil), history...),
		models.Turn{Role: models.RoleUser, Content: input},
		models.Turn{Role: models.RoleAgent, Content: f.reply},
	)
	return f.reply, extended, nil
}

func newTestRouter(h *ChatHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/chat", h.HandleChat)
	r.GET("/api/chat/:sessionID/history", h.GetHistory)
	r.DELETE("/api/chat/:sessionID", h.DeleteSession)
	return r
}

func postChat(t *testing.T, r *gin.Engine, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandleChatMissingMessage(t *testing.T) {
	store := session.NewDefaultStore(30 * time.Minute)
	defer store.Stop()
	r := newTestRouter(NewChatHandler(&fakeAgent{}, store, 0))

	w := postChat(t, r, gin.H{"session_id": "abc"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid input")
	assert.Equal(t, 0, store.Len(), "rejected requests must not create sessions")
}

func TestHandleChatNewSession(t *testing.T) {
	store := session.NewDefaultStore(30 * time.Minute)
	defer store.Stop()
	ag := &fakeAgent{reply: "Hello! How can I help you book an appointment today?"}
	r := newTestRouter(NewChatHandler(ag, store, 0))

	w := postChat(t, r, gin.H{"message": "hi"})

	require.Equal(t, http.StatusOK, w.Code)
	var resp models.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, ag.reply, resp.Reply)
	require.Len(t, resp.History, 2)
	assert.Equal(t, "hi", ag.lastInput)
	assert.Empty(t, ag.lastHistory, "a fresh session starts with no history")

	sess, ok := store.Get(resp.SessionID)
	require.True(t, ok)
	assert.Len(t, sess.History, 2, "successful turns are persisted")
}

func TestHandleChatSessionContinuity(t *testing.T) {
	store := session.NewDefaultStore(30 * time.Minute)
	defer store.Stop()
	ag := &fakeAgent{reply: "Noted."}
	r := newTestRouter(NewChatHandler(ag, store, 0))

	w := postChat(t, r, gin.H{"message": "first"})
	var resp models.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	w = postChat(t, r, gin.H{"session_id": resp.SessionID, "message": "second"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, ag.calls)
	require.Len(t, ag.lastHistory, 2, "the second turn sees the first turn's history")
	assert.Equal(t, "first", ag.lastHistory[0].Content)

	sess, _ := store.Get(resp.SessionID)
	assert.Len(t, sess.History, 4)
}

func TestHandleChatAgentFailure(t *testing.T) {
	store := session.NewDefaultStore(30 * time.Minute)
	defer store.Stop()
	ag := &fakeAgent{err: &agent.ModelUnavailableError{Err: errors.New("rpc unavailable")}}
	r := newTestRouter(NewChatHandler(ag, store, 0))

	w := postChat(t, r, gin.H{"message": "book something"})

	require.Equal(t, http.StatusOK, w.Code, "turn failures are chat messages, not HTTP errors")
	var resp models.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Reply, "trouble reaching my language model")
	assert.Empty(t, resp.History)

	sess, ok := store.Get(resp.SessionID)
	require.True(t, ok)
	assert.Empty(t, sess.History, "failed turns are not recorded")
}

func TestGetHistory(t *testing.T) {
	store := session.NewDefaultStore(30 * time.Minute)
	defer store.Stop()
	ag := &fakeAgent{reply: "Sure."}
	r := newTestRouter(NewChatHandler(ag, store, 0))

	w := postChat(t, r, gin.H{"message": "hi"})
	var chatResp models.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &chatResp))

	req := httptest.NewRequest(http.MethodGet, "/api/chat/"+chatResp.SessionID+"/history", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var histResp struct {
		SessionID string        `json:"session_id"`
		History   []models.Turn `json:"history"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &histResp))
	assert.Equal(t, chatResp.SessionID, histResp.SessionID)
	assert.Len(t, histResp.History, 2)
}

func TestGetHistoryNotFound(t *testing.T) {
	store := session.NewDefaultStore(30 * time.Minute)
	defer store.Stop()
	r := newTestRouter(NewChatHandler(&fakeAgent{}, store, 0))

	req := httptest.NewRequest(http.MethodGet, "/api/chat/nope/history", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "session not found")
}

func TestDeleteSession(t *testing.T) {
	store := session.NewDefaultStore(30 * time.Minute)
	defer store.Stop()
	r := newTestRouter(NewChatHandler(&fakeAgent{reply: "ok"}, store, 0))

	w := postChat(t, r, gin.H{"message": "hi"})
	var resp models.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	req := httptest.NewRequest(http.MethodDelete, "/api/chat/"+resp.SessionID, nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, store.Len())

	// Deleting twice is a 404.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/chat/"+resp.SessionID, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
