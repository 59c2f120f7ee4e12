package models

// ChatRequest is the payload coming from the frontend into /api/chat.
// SessionID is optional; the server mints one when absent.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message" binding:"required"`
}

// ChatResponse is what the chat handler returns to the frontend.
type ChatResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
	History   []Turn `json:"history"`
}
