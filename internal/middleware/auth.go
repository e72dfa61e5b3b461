package middleware

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	initdata "github.com/telegram-mini-apps/init-data-golang"
)

type contextKey string

const principalKey = contextKey("principal")

// initDataTTL bounds how old a Mini App launch may be.
const initDataTTL = 24 * time.Hour

// Principal is the Telegram user behind an admin request.
type Principal struct {
	ID       int64
	Username string
}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey).(*Principal)
	return p, ok
}

// Auth validates the Telegram Mini App initData sent as "Authorization: tma <initData>".
// When adminIDs is not empty only those Telegram users get through.
func Auth(botToken string, adminIDs []int64, log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Authorization header is required", http.StatusUnauthorized)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "tma" {
				http.Error(w, "Authorization header format must be 'tma <initData>'", http.StatusUnauthorized)
				return
			}

			if botToken == "" {
				log.Error().Msg("TELEGRAM_BOT_TOKEN is not set")
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}

			if err := initdata.Validate(parts[1], botToken, initDataTTL); err != nil {
				log.Warn().Err(err).Msg("invalid init data")
				http.Error(w, "Invalid init data", http.StatusUnauthorized)
				return
			}

			data, err := initdata.Parse(parts[1])
			if err != nil {
				log.Warn().Err(err).Msg("parsing init data")
				http.Error(w, "Error parsing init data", http.StatusBadRequest)
				return
			}

			if !isAdmin(adminIDs, data.User.ID) {
				log.Warn().Int64("telegram_id", data.User.ID).Msg("non-admin tried the admin routes")
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			ctx := WithPrincipal(r.Context(), &Principal{ID: data.User.ID, Username: data.User.Username})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func isAdmin(adminIDs []int64, id int64) bool {
	return len(adminIDs) == 0 || slices.Contains(adminIDs, id)
}
