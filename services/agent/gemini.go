package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"tailortalk/models"
	"tailortalk/utils"
)

// ModelReply is one model response: a direct text answer, tool calls to
// execute, or both.
type ModelReply struct {
	Text  string
	Calls []models.ToolCall
}

// ModelClient is the conversational model behind the agent. Production
// wires GeminiClient; tests script replies.
type ModelClient interface {
	Send(ctx context.Context, system string, decls []*genai.FunctionDeclaration, history []models.Turn) (*ModelReply, error)
}

// GeminiClient implements ModelClient on the Gemini API.
type GeminiClient struct {
	client    *genai.Client
	modelName string
}

func NewGeminiClient(ctx context.Context, apiKey, modelName string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiClient{client: client, modelName: modelName}, nil
}

func (g *GeminiClient) Close() error {
	return g.client.Close()
}

// Send converts the conversation into Gemini chat content, fires one
// generation round trip, and folds the response into a ModelReply. The
// model is rebuilt per call because the system instruction carries
// today's date.
func (g *GeminiClient) Send(ctx context.Context, system string, decls []*genai.FunctionDeclaration, history []models.Turn) (*ModelReply, error) {
	contents := toGenaiContents(history)
	if len(contents) == 0 {
		return nil, &ModelUnavailableError{Err: fmt.Errorf("empty conversation")}
	}

	model := g.client.GenerativeModel(g.modelName)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	if len(decls) > 0 {
		model.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	cs := model.StartChat()
	cs.History = contents[:len(contents)-1]

	started := time.Now()
	resp, err := cs.SendMessage(ctx, contents[len(contents)-1].Parts...)
	utils.ModelLatency.Observe(time.Since(started).Seconds())
	if err != nil {
		utils.ModelCalls.WithLabelValues("error").Inc()
		return nil, &ModelUnavailableError{Err: err}
	}
	utils.ModelCalls.WithLabelValues("ok").Inc()

	return parseResponse(resp)
}

// toGenaiContents rebuilds the wire history from conversation turns.
func toGenaiContents(history []models.Turn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for _, turn := range history {
		switch turn.Role {
		case models.RoleUser:
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []genai.Part{genai.Text(turn.Content)},
			})
		case models.RoleAgent:
			content := &genai.Content{Role: "model"}
			if turn.Content != "" {
				content.Parts = append(content.Parts, genai.Text(turn.Content))
			}
			for _, call := range turn.ToolCalls {
				content.Parts = append(content.Parts, genai.FunctionCall{
					Name: call.Name,
					Args: call.Args,
				})
			}
			contents = append(contents, content)
		case models.RoleTool:
			content := &genai.Content{Role: "function"}
			for _, result := range turn.ToolResults {
				payload := map[string]any{"result": result.Content}
				if result.IsError {
					payload = map[string]any{"error": result.Content}
				}
				content.Parts = append(content.Parts, genai.FunctionResponse{
					Name:     result.Name,
					Response: payload,
				})
			}
			contents = append(contents, content)
		}
	}
	return contents
}

// parseResponse extracts reply text and any function calls from the
// first candidate.
func parseResponse(resp *genai.GenerateContentResponse) (*ModelReply, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, &ModelUnavailableError{Err: fmt.Errorf("response carried no candidates")}
	}

	reply := &ModelReply{}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			sb.WriteString(string(p))
		case genai.FunctionCall:
			reply.Calls = append(reply.Calls, models.ToolCall{
				Name: p.Name,
				Args: p.Args,
			})
		}
	}
	reply.Text = strings.TrimSpace(sb.String())
	return reply, nil
}
