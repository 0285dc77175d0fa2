package core

import "context"

type contextKey string

const (
	ctxKeyIPAddress contextKey = "client_ip"
	ctxKeyUserAgent contextKey = "client_ua"
)

// ContextWithClient records the caller's address and user agent so service
// log entries can name who loaded a file.
func ContextWithClient(ctx context.Context, ip, userAgent string) context.Context {
	ctx = context.WithValue(ctx, ctxKeyIPAddress, ip)
	return context.WithValue(ctx, ctxKeyUserAgent, userAgent)
}

// ClientIP returns the address stored by ContextWithClient.
func ClientIP(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyIPAddress).(string)
	return v
}

// ClientUserAgent returns the user agent stored by ContextWithClient.
func ClientUserAgent(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyUserAgent).(string)
	return v
}

// clientAttrs returns slog key/value pairs for the client, if any.
func clientAttrs(ctx context.Context) []any {
	var attrs []any
	if ip := ClientIP(ctx); ip != "" {
		attrs = append(attrs, "ip", ip)
	}
	if ua := ClientUserAgent(ctx); ua != "" {
		attrs = append(attrs, "user_agent", ua)
	}
	return attrs
}
