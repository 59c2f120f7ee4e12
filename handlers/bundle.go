package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Chat endpoints
	ChatHandler          gin.HandlerFunc
	ChatHistoryHandler   gin.HandlerFunc
	DeleteSessionHandler gin.HandlerFunc
}
