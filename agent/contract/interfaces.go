package contract

import "context"

// Completer is the external text-completion capability. Implementations
// must bound the call with a timeout; the returned text is best-effort
// and parsed defensively by callers.
type Completer interface {
	Complete(ctx context.Context, systemPrompt string, history []Turn, utterance string) (string, error)
}
