package goals

import "context"

// MessageRewriter post-processes a deterministic evaluation message into
// flavored text (e.g. an LLM "roast"). The evaluator never calls it; callers
// that want flavored notifications run the message through Rewrite before
// persisting or pushing.
type MessageRewriter interface {
	Rewrite(ctx context.Context, message string) (string, error)
}

// RewriteOrFallback applies the rewriter and falls back to the original
// message when the rewriter is nil, fails, or returns empty text.
func RewriteOrFallback(ctx context.Context, rw MessageRewriter, message string) string {
	if rw == nil {
		return message
	}
	out, err := rw.Rewrite(ctx, message)
	if err != nil || out == "" {
		return message
	}
	return out
}
