package domain

import "context"

type usageKey struct{}

// Usage records whether a request embedded query text and how many tokens it spent.
// The transport puts a pointer into the context, the search use case fills it in.
type Usage struct {
	Tokens   int
	Embedded bool
}

// WithUsage returns a context carrying a fresh usage collector.
func WithUsage(ctx context.Context) (context.Context, *Usage) {
	u := &Usage{}
	return context.WithValue(ctx, usageKey{}, u), u
}

// UsageFrom returns the collector stored in ctx, or nil.
func UsageFrom(ctx context.Context) *Usage {
	u, _ := ctx.Value(usageKey{}).(*Usage)
	return u
}

// Add records consumed tokens. Safe on a nil receiver.
func (u *Usage) Add(tokens int) {
	if u == nil {
		return
	}
	u.Tokens += tokens
	u.Embedded = true
}
