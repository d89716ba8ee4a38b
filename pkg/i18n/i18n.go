// Package i18n serves the English and Afrikaans message catalogs.
package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

//go:embed messages/*.json
var messagesFS embed.FS

// Supported locales
const (
	LocaleEnglish   = "en"
	LocaleAfrikaans = "af"
	DefaultLocale   = LocaleEnglish
)

type localeKey struct{}

// catalog maps a dotted key such as "diff.location" to its text.
type catalog map[string]string

var (
	catalogs     map[string]catalog
	catalogsOnce sync.Once
)

func loadCatalogs() map[string]catalog {
	catalogsOnce.Do(func() {
		catalogs = make(map[string]catalog)
		for _, locale := range []string{LocaleEnglish, LocaleAfrikaans} {
			c, err := readCatalog(locale)
			if err != nil {
				panic(err)
			}
			catalogs[locale] = c
		}
	})
	return catalogs
}

func readCatalog(locale string) (catalog, error) {
	data, err := messagesFS.ReadFile("messages/" + locale + ".json")
	if err != nil {
		return nil, fmt.Errorf("i18n: missing catalog %s: %w", locale, err)
	}
	var tree map[string]interface{}
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("i18n: invalid catalog %s: %w", locale, err)
	}
	c := make(catalog)
	flatten(c, "", tree)
	return c, nil
}

func flatten(dst catalog, prefix string, tree map[string]interface{}) {
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case string:
			dst[key] = val
		case map[string]interface{}:
			flatten(dst, key, val)
		}
	}
}

// Supported reports whether locale has a catalog.
func Supported(locale string) bool {
	return locale == LocaleEnglish || locale == LocaleAfrikaans
}

// Localizer translates keys for one locale, falling back to English.
type Localizer struct {
	locale string
}

// NewLocalizer returns a localizer for locale, or for English if the locale
// is not supported.
func NewLocalizer(locale string) *Localizer {
	if !Supported(locale) {
		locale = DefaultLocale
	}
	return &Localizer{locale: locale}
}

// LocalizerFromContext uses the locale stored by Middleware.
func LocalizerFromContext(ctx context.Context) *Localizer {
	return NewLocalizer(GetLocaleFromContext(ctx))
}

// Locale returns the localizer's locale.
func (l *Localizer) Locale() string {
	return l.locale
}

// T translates key, substituting {name} placeholders from params. Unknown
// keys are returned unchanged.
func (l *Localizer) T(key string, params ...map[string]string) string {
	all := loadCatalogs()
	msg, ok := all[l.locale][key]
	if !ok {
		if msg, ok = all[DefaultLocale][key]; !ok {
			return key
		}
	}

	if len(params) == 0 || len(params[0]) == 0 {
		return msg
	}
	pairs := make([]string, 0, 2*len(params[0]))
	for k, v := range params[0] {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

// WithLocale stores locale in ctx.
func WithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, localeKey{}, locale)
}

// GetLocaleFromContext returns the stored locale, or the default.
func GetLocaleFromContext(ctx context.Context) string {
	if locale, ok := ctx.Value(localeKey{}).(string); ok && locale != "" {
		return locale
	}
	return DefaultLocale
}

// ParseAcceptLanguage returns the first supported locale in an Accept-Language
// header, honouring the order the client listed them in.
func ParseAcceptLanguage(header string) string {
	for _, part := range strings.Split(strings.ToLower(header), ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if primary := strings.SplitN(tag, "-", 2)[0]; Supported(primary) {
			return primary
		}
	}
	return DefaultLocale
}

// TWithLocale translates key for locale.
func TWithLocale(locale, key string, params ...map[string]string) string {
	return NewLocalizer(locale).T(key, params...)
}

// TFromContext translates key for the request locale.
func TFromContext(ctx context.Context, key string, params ...map[string]string) string {
	return LocalizerFromContext(ctx).T(key, params...)
}
