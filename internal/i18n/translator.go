package i18n

import (
	"embed"
	"errors"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
)

//go:embed active.*.toml
var localeFS embed.FS

var localeFiles = []string{"active.en.toml", "active.hi.toml"}

// Translator is a thin wrapper around go-i18n's Bundle/Localizer.
type Translator struct {
	bundle          *i18n.Bundle
	defaultLanguage language.Tag
	matcher         language.Matcher
}

// NewTranslator builds a Translator backed by the embedded active.*.toml
// files, falling back to defaultLocale (e.g. "en").
func NewTranslator(defaultLocale string) *Translator {
	tag, err := language.Parse(defaultLocale)
	if err != nil {
		tag = language.English
	}
	bundle := i18n.NewBundle(tag)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	for _, file := range localeFiles {
		if _, err := bundle.LoadMessageFileFS(localeFS, file); err != nil {
			log.Error().Err(err).Str("file", file).Msg("i18n: failed to load message file")
		}
	}

	return &Translator{
		bundle:          bundle,
		defaultLanguage: tag,
		matcher:         language.NewMatcher(bundle.LanguageTags()),
	}
}

// T renders the message identified by key for the given locale.
// If the key/locale is not found, it falls back to the default locale,
// then finally to the key itself.
func (t *Translator) T(locale, key string, data map[string]any) string {
	if key == "" {
		return ""
	}

	cfg := &i18n.LocalizeConfig{MessageID: key, TemplateData: data}
	if locale != "" {
		msg, err := i18n.NewLocalizer(t.bundle, locale).Localize(cfg)
		if err == nil {
			return msg
		}
		var notFound *i18n.MessageNotFoundErr
		if !errors.As(err, &notFound) {
			log.Warn().Err(err).Str("key", key).Str("locale", locale).Msg("i18n: localize failed")
		}
	}

	msg, err := i18n.NewLocalizer(t.bundle, t.defaultLanguage.String()).Localize(cfg)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Str("locale", locale).Msg("i18n: localize failed")
		return key
	}
	return msg
}

// Match picks the best supported locale for an Accept-Language header value.
func (t *Translator) Match(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return t.defaultLanguage.String()
	}
	_, index, _ := t.matcher.Match(tags...)
	base, _ := t.bundle.LanguageTags()[index].Base()
	return base.String()
}
