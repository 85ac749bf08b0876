package chi

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"
)

// HeaderAPIKey is accepted as an alternative to Authorization: Bearer.
const HeaderAPIKey = "X-API-Key"

// PublicPaths are served without a key so probes and scrapers keep working.
var PublicPaths = []string{"/health", "/metrics"}

// APIKeyAuth rejects requests without one of keys, sent as a Bearer token or in
// X-API-Key. Paths in public skip the check. With no non-empty key the
// middleware is a pass-through.
func APIKeyAuth(keys []string, public ...string) func(http.Handler) http.Handler {
	var digests [][sha256.Size]byte
	for _, k := range keys {
		if k != "" {
			digests = append(digests, sha256.Sum256([]byte(k)))
		}
	}
	open := make(map[string]struct{}, len(public))
	for _, p := range public {
		open[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		if len(digests) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := open[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}
			key, msg := presentedKey(r)
			if msg != "" {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, msg)
				return
			}
			if !matches(digests, key) {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "invalid api key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// presentedKey returns the key from the request, or a rejection message.
func presentedKey(r *http.Request) (string, string) {
	if k := r.Header.Get(HeaderAPIKey); k != "" {
		return k, ""
	}
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", "missing api key"
	}
	scheme, token, ok := strings.Cut(auth, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", "authorization header must use the Bearer scheme"
	}
	return token, ""
}

// matches compares digests so the comparison time is independent of key length.
func matches(digests [][sha256.Size]byte, key string) bool {
	d := sha256.Sum256([]byte(key))
	found := 0
	for i := range digests {
		found |= subtle.ConstantTimeCompare(digests[i][:], d[:])
	}
	return found == 1
}
