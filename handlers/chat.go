package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tailortalk/models"
	"tailortalk/services/agent"
	"tailortalk/services/session"
	"tailortalk/utils"
)

// ChatHandler serves the conversational endpoints.
type ChatHandler struct {
	Agent       agent.AgentService
	Sessions    session.Store
	TurnTimeout time.Duration
}

func NewChatHandler(agentSvc agent.AgentService, sessions session.Store, turnTimeout time.Duration) *ChatHandler {
	return &ChatHandler{
		Agent:       agentSvc,
		Sessions:    sessions,
		TurnTimeout: turnTimeout,
	}
}

// HandleChat runs one conversation turn. Turn failures surface as chat
// messages with HTTP 200; the failed turn is not recorded, so the next
// message picks up from the previous history.
func (h *ChatHandler) HandleChat(c *gin.Context) {
	logger := utils.GetLogger()

	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Invalid chat request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	sess, created := h.Sessions.GetOrCreate(req.SessionID)
	if created {
		logger.Info("Started chat session", zap.String("session_id", sess.ID))
	}

	// One turn at a time per session.
	sess.Lock()
	defer sess.Unlock()

	ctx := c.Request.Context()
	if h.TurnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.TurnTimeout)
		defer cancel()
	}

	reply, history, err := h.Agent.Converse(ctx, sess.History, req.Message)
	if err != nil {
		logger.Error("Conversation turn failed",
			zap.String("session_id", sess.ID),
			zap.Error(err),
		)
		c.JSON(http.StatusOK, models.ChatResponse{
			SessionID: sess.ID,
			Reply:     fallbackReply(err),
			History:   sess.History,
		})
		return
	}

	sess.History = history
	c.JSON(http.StatusOK, models.ChatResponse{
		SessionID: sess.ID,
		Reply:     reply,
		History:   history,
	})
}

// GetHistory returns the full transcript for a session.
func (h *ChatHandler) GetHistory(c *gin.Context) {
	sessionID := c.Param("sessionID")
	sess, ok := h.Sessions.Get(sessionID)
	if !ok {
		utils.JSONError(c, http.StatusNotFound, "session not found", sessionID)
		return
	}

	sess.Lock()
	history := make([]models.Turn, len(sess.History))
	copy(history, sess.History)
	sess.Unlock()

	c.JSON(http.StatusOK, gin.H{"session_id": sess.ID, "history": history})
}

// DeleteSession drops a session and its history.
func (h *ChatHandler) DeleteSession(c *gin.Context) {
	sessionID := c.Param("sessionID")
	if !h.Sessions.Delete(sessionID) {
		utils.JSONError(c, http.StatusNotFound, "session not found", sessionID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted", "session_id": sessionID})
}

// fallbackReply turns an aborted turn into something the user can act on.
func fallbackReply(err error) string {
	var loopErr *agent.ToolLoopExceededError
	var modelErr *agent.ModelUnavailableError
	switch {
	case errors.As(err, &loopErr):
		return "I couldn't finish that request in a reasonable number of steps. Could you rephrase or break it into smaller pieces?"
	case errors.As(err, &modelErr):
		return "I'm having trouble reaching my language model right now. Please try again in a moment."
	case errors.Is(err, context.DeadlineExceeded):
		return "That took longer than expected and I had to stop. Please try again."
	default:
		return "Something went wrong while handling that. Please try again."
	}
}
