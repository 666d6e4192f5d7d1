package engine

import "context"

type ownerKey struct{}

// withOwner marks ctx as belonging to e's owner loop. Listener callbacks
// receive a context derived from it.
func withOwner(ctx context.Context, e *Engine) context.Context {
	return context.WithValue(ctx, ownerKey{}, e)
}

func isOwner(ctx context.Context, e *Engine) bool {
	owner, _ := ctx.Value(ownerKey{}).(*Engine)
	return owner == e
}

// IsOwnerContext reports whether ctx was handed out by e's owner loop, i.e.
// whether the caller is running inside a listener callback of e.
func (e *Engine) IsOwnerContext(ctx context.Context) bool {
	return isOwner(ctx, e)
}
