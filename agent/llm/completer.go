package llm

import (
	"context"
	"errors"

	contractx "github.com/Purvi09/credit-card-advisor/agent/contract"
	openrouterx "github.com/Purvi09/credit-card-advisor/pkg/openrouter"
)

// historyWindow bounds how many prior turns ride along with each
// completion call. Older turns add cost without improving extraction.
const historyWindow = 10

// Completer adapts the openrouter chat client to the single-call
// completion contract used by the extraction layer.
type Completer struct {
	client *openrouterx.Client
}

func NewCompleter(client *openrouterx.Client) (*Completer, error) {
	if client == nil {
		return nil, errors.New("openrouter client is required")
	}
	return &Completer{client: client}, nil
}

func (c *Completer) Complete(ctx context.Context, systemPrompt string, history []contractx.Turn, utterance string) (string, error) {
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}

	messages := make([]openrouterx.Message, 0, len(history)+2)
	messages = append(messages, openrouterx.Message{Role: openrouterx.RoleSystem, Content: systemPrompt})
	for _, turn := range history {
		role := openrouterx.RoleUser
		if turn.Role == contractx.RoleAssistant {
			role = openrouterx.RoleAssistant
		}
		messages = append(messages, openrouterx.Message{Role: role, Content: turn.Text})
	}
	messages = append(messages, openrouterx.Message{Role: openrouterx.RoleUser, Content: utterance})

	return c.client.Chat(ctx, messages)
}
