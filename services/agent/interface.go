package agent

import (
	"context"

	"tailortalk/models"
)

// AgentService runs one conversation turn at a time.
type AgentService interface {
	// Converse is a pure function of the supplied history and input: it
	// never mutates history, returning an extended copy that ends with
	// the agent's final reply. On error the original history comes back
	// unchanged.
	Converse(ctx context.Context, history []models.Turn, input string) (string, []models.Turn, error)
}
