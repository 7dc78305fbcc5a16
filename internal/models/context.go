package models

import "context"

type requestMetaKey struct{}

// RequestMeta carries per-request caller details set by the HTTP layer
type RequestMeta struct {
	RequestId string
	RemoteIp  string
	Location  string // country hint from the edge proxy, may be empty
}

// WithRequestMeta attaches caller details to a context.
func WithRequestMeta(ctx context.Context, meta *RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// GetRequestMeta retrieves caller details from context, or an empty value if absent.
func GetRequestMeta(ctx context.Context) *RequestMeta {
	if meta, ok := ctx.Value(requestMetaKey{}).(*RequestMeta); ok && meta != nil {
		return meta
	}
	return &RequestMeta{}
}
