package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"tailortalk/models"
	"tailortalk/services/calendar"
	"tailortalk/utils"
)

// DefaultMaxToolIterations caps model round trips within a single turn.
const DefaultMaxToolIterations = 5

// DefaultAgentService implements AgentService with a model/tool loop: the
// model either answers directly or requests tool calls, whose results are
// appended to the conversation and sent back until a final reply emerges.
type DefaultAgentService struct {
	Model             ModelClient
	Tools             *Registry
	Timezone          *time.Location
	MaxToolIterations int

	// now is swappable so tests can pin the clock.
	now func() time.Time
}

func NewDefaultAgentService(model ModelClient, tools *Registry, tz *time.Location, maxIterations int) *DefaultAgentService {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxToolIterations
	}
	return &DefaultAgentService{
		Model:             model,
		Tools:             tools,
		Timezone:          tz,
		MaxToolIterations: maxIterations,
		now:               time.Now,
	}
}

// Converse runs one conversation turn. A turn that needs no tool never
// touches the calendar; a turn that hits the iteration cap aborts with
// ToolLoopExceededError and leaves the supplied history untouched.
func (s *DefaultAgentService) Converse(ctx context.Context, history []models.Turn, input string) (string, []models.Turn, error) {
	logger := utils.GetLogger()

	working := make([]models.Turn, len(history), len(history)+3)
	copy(working, history)
	working = append(working, models.Turn{
		Role:    models.RoleUser,
		Content: input,
		At:      s.now(),
	})

	system := systemPrompt(s.now(), s.Timezone)
	decls := s.Tools.Declarations()

	for iteration := 0; iteration < s.MaxToolIterations; iteration++ {
		reply, err := s.Model.Send(ctx, system, decls, working)
		if err != nil {
			logger.Error("Model call failed",
				zap.Int("iteration", iteration),
				zap.Error(err),
			)
			return "", history, err
		}

		if len(reply.Calls) == 0 {
			if reply.Text == "" {
				return "", history, &ModelUnavailableError{Err: fmt.Errorf("model returned an empty reply")}
			}
			working = append(working, models.Turn{
				Role:    models.RoleAgent,
				Content: reply.Text,
				At:      s.now(),
			})
			utils.ChatTurns.Inc()
			return reply.Text, working, nil
		}

		working = append(working, models.Turn{
			Role:      models.RoleAgent,
			Content:   reply.Text,
			ToolCalls: reply.Calls,
			At:        s.now(),
		})

		toolTurn := models.Turn{Role: models.RoleTool, At: s.now()}
		for _, call := range reply.Calls {
			toolTurn.ToolResults = append(toolTurn.ToolResults, s.execute(ctx, call))
		}
		working = append(working, toolTurn)
	}

	logger.Warn("Tool loop exceeded iteration cap", zap.Int("limit", s.MaxToolIterations))
	return "", history, &ToolLoopExceededError{Limit: s.MaxToolIterations}
}

// execute runs a single tool call. Failures never abort the turn; they
// travel back to the model as error results it can read and explain.
func (s *DefaultAgentService) execute(ctx context.Context, call models.ToolCall) models.ToolResult {
	tool, ok := s.Tools.Lookup(call.Name)
	if !ok {
		utils.ToolCalls.WithLabelValues(call.Name, "error").Inc()
		err := &MalformedToolCallError{Tool: call.Name, Reason: "no such tool"}
		return models.ToolResult{Name: call.Name, Content: err.Error(), IsError: true}
	}

	content, err := tool.Execute(ctx, call.Args)
	if err != nil {
		utils.ToolCalls.WithLabelValues(call.Name, "error").Inc()
		utils.GetLogger().Warn("Tool call failed",
			zap.String("tool", call.Name),
			zap.Error(err),
		)
		return models.ToolResult{Name: call.Name, Content: toolErrorText(err), IsError: true}
	}

	utils.ToolCalls.WithLabelValues(call.Name, "ok").Inc()
	return models.ToolResult{Name: call.Name, Content: content}
}

// toolErrorText renders a tool failure as text the model can relay. The
// typed calendar errors get stable phrasing; anything else falls back to
// the raw error.
func toolErrorText(err error) string {
	var invalidRange *calendar.InvalidRangeError
	var denied *calendar.PermissionDeniedError
	var unavailable *calendar.UpstreamUnavailableError
	var malformed *MalformedToolCallError

	switch {
	case errors.As(err, &invalidRange):
		return "The requested time range is invalid: the end must come after the start."
	case errors.As(err, &denied):
		return "The calendar refused access, so nothing was booked. Please check the calendar sharing settings."
	case errors.As(err, &unavailable):
		return "The calendar service could not be reached. Please try again in a moment."
	case errors.As(err, &malformed):
		return "Invalid tool arguments: " + malformed.Reason
	default:
		return "An error occurred: " + err.Error()
	}
}
