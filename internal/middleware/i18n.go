package middleware

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

type localeKey struct{}
type countryKey struct{}

var supportedLocales = []language.Tag{
	language.Indonesian,
	language.English,
}

var localeMatcher = language.NewMatcher(supportedLocales)

// CountryLookup resolves ISO country codes for an IP address.
type CountryLookup func(ip string) (string, error)

// I18N resolves the request locale from the X-Locale header, then
// Accept-Language, then the client country, then the configured default,
// and stores locale and country in the request context. lookup may be nil
// when no GeoIP database is configured.
func I18N(defaultLocale string, lookup CountryLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			country := resolveCountry(r, lookup)
			locale := detectLocale(r, defaultLocale, country)
			ctx := context.WithValue(r.Context(), localeKey{}, locale)
			if country != "" {
				ctx = context.WithValue(ctx, countryKey{}, country)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func detectLocale(r *http.Request, fallback, country string) string {
	prefs := make([]string, 0, 4)
	if v := r.Header.Get("X-Locale"); v != "" {
		prefs = append(prefs, v)
	}
	if v := r.Header.Get("Accept-Language"); v != "" {
		prefs = append(prefs, v)
	}
	if country != "" {
		if strings.EqualFold(country, "ID") {
			prefs = append(prefs, "id")
		} else {
			prefs = append(prefs, "en")
		}
	}
	if fallback != "" {
		prefs = append(prefs, fallback)
	}
	_, idx := language.MatchStrings(localeMatcher, prefs...)
	base, _ := supportedLocales[idx].Base()
	return base.String()
}

// resolveCountry resolves a best-effort ISO country code: proxy headers
// first, then the region of a locale header, then the GeoIP lookup.
func resolveCountry(r *http.Request, lookup CountryLookup) string {
	headerHints := []string{"X-Country-Code", "X-IP-Country", "CF-IPCountry", "X-Appengine-Country"}
	for _, key := range headerHints {
		if val := strings.TrimSpace(r.Header.Get(key)); val != "" {
			return strings.ToUpper(val)
		}
	}
	if region := localeRegion(r.Header.Get("X-Locale")); region != "" {
		return region
	}
	if region := localeRegion(r.Header.Get("Accept-Language")); region != "" {
		return region
	}
	if lookup != nil {
		if ip := clientIP(r); ip != "" {
			if country, err := lookup(ip); err == nil && country != "" {
				return strings.ToUpper(country)
			}
		}
	}
	return ""
}

func localeRegion(accept string) string {
	for _, part := range strings.Split(accept, ",") {
		token := strings.TrimSpace(strings.Split(part, ";")[0])
		if token == "" {
			continue
		}
		if idx := strings.IndexAny(token, "-_"); idx > 0 && idx < len(token)-1 {
			return strings.ToUpper(token[idx+1:])
		}
	}
	return ""
}

// LocaleFromContext returns the resolved request locale.
func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(localeKey{}).(string); ok {
		return v
	}
	return "en"
}

// CountryFromContext returns the ISO country code stored in the request
// context, or "" when none could be resolved.
func CountryFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(countryKey{}).(string); ok {
		return v
	}
	return ""
}
