package i18n

import "context"

type contextKey struct{}

// WithLocale returns a copy of ctx carrying the caller's locale.
func WithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, contextKey{}, locale)
}

// LocaleFromContext returns the locale stored by WithLocale, or "".
func LocaleFromContext(ctx context.Context) string {
	locale, _ := ctx.Value(contextKey{}).(string)
	return locale
}
