package telegram

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// WebhookHandler handles one update per request. Telegram retries anything
// that is not 2xx, so handler outcomes are never reported back as errors.
func WebhookHandler(secret string, h Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if secret != "" {
			got := r.Header.Get(SecretHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
		}
		var u Update
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&u); err != nil {
			log.Warn().Err(err).Msg("telegram webhook: bad update")
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error().Interface("panic", rec).Int("update_id", u.ID).Msg("update handler panicked")
				}
			}()
			h.HandleUpdate(r.Context(), u)
		}()
		w.WriteHeader(http.StatusOK)
	})
}
