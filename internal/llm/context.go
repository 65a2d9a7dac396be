package llm

import "context"

// Purpose labels why a request was made. It is stored with every request
// event so usage can be broken down per call site.
type Purpose string

const (
	PurposeOpening Purpose = "opening"
	PurposeReply   Purpose = "reply"
	PurposeUnknown Purpose = "unknown"
)

type purposeKey struct{}

// WithPurpose attaches a purpose label to ctx.
func WithPurpose(ctx context.Context, p Purpose) context.Context {
	return context.WithValue(ctx, purposeKey{}, p)
}

// PurposeFrom returns the label set by WithPurpose, or PurposeUnknown.
func PurposeFrom(ctx context.Context) Purpose {
	if p, ok := ctx.Value(purposeKey{}).(Purpose); ok && p != "" {
		return p
	}
	return PurposeUnknown
}
