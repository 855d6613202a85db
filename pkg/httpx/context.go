package httpx

import "context"

type ctxKey string

const (
	CtxKeySubject   ctxKey = "subject"
	CtxKeyPrincipal ctxKey = "principal"
)

// SubjectFromContext returns the authenticated subject set by AuthnMiddleware.
func SubjectFromContext(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(CtxKeySubject).(string)
	return s, ok && s != ""
}

// PrincipalFromContext returns the value the Authenticator resolved.
func PrincipalFromContext[T any](ctx context.Context) (T, bool) {
	p, ok := ctx.Value(CtxKeyPrincipal).(T)
	return p, ok
}

func contextWithPrincipal[T any](ctx context.Context, subject string, p T) context.Context {
	ctx = context.WithValue(ctx, CtxKeySubject, subject)
	ctx = context.WithValue(ctx, CtxKeyPrincipal, p)
	return ctx
}
