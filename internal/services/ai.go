package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

type AIService struct {
	client *openai.Client
	model  string
}

// GeneratedChore is a chore suggested by the model. It is not persisted.
type GeneratedChore struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	Difficulty     int    `json:"difficulty"`
	Recurrence     string `json:"recurrence"`
	RequiredPeople int    `json:"required_people"`
}

func NewAIService(apiKey string) *AIService {
	return NewAIServiceWithConfig(openai.DefaultConfig(apiKey))
}

// NewAIServiceWithConfig allows pointing the client at another endpoint
func NewAIServiceWithConfig(cfg openai.ClientConfig) *AIService {
	return &AIService{
		client: openai.NewClientWithConfig(cfg),
		model:  openai.GPT4o,
	}
}

// SuggestChoresFromText asks the model to turn free text about a household
// into a list of chores
func (s *AIService) SuggestChoresFromText(ctx context.Context, text string) ([]GeneratedChore, error) {
	if s.client == nil {
		return nil, fmt.Errorf("OpenAI client not initialized")
	}

	prompt := fmt.Sprintf(`You help roommates split household chores. Extract the chores described in the text below.

Text:
%s

Reply with a JSON array in this format:
[
  {
    "name": "short chore name",
    "description": "what has to be done",
    "difficulty": 1,
    "recurrence": "weekly",
    "required_people": 1
  }
]

Rules:
- difficulty is an integer from 1 (trivial) to 5 (exhausting)
- recurrence is one of "one-time", "daily", "weekly", "bi-weekly", "monthly"
- required_people is how many roommates the chore needs each time, at least 1
- Return [] when there are no chores
- Return only JSON, no explanations`, text)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: s.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
		},
	)

	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	content := stripCodeFence(resp.Choices[0].Message.Content)

	var chores []GeneratedChore
	if err := json.Unmarshal([]byte(content), &chores); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w (response: %s)", err, content)
	}

	return chores, nil
}

// stripCodeFence removes a markdown fence the model sometimes wraps JSON in
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
