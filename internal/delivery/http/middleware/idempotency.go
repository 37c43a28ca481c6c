package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"nutrastore-backend/internal/infrastructure/idempotency"
	"nutrastore-backend/pkg/logger"
	"nutrastore-backend/pkg/utils"

	"github.com/google/uuid"
)

const (
	IdempotencyKeyHeader      = "Idempotency-Key"
	IdempotentReplayedHeader  = "Idempotent-Replayed"
	maxIdempotentRequestBytes = 1 << 20
)

// Idempotency replays the stored response when a request is repeated with
// the same Idempotency-Key and body. Keys are scoped per user. A request
// without a key gets a fresh one so downstream code can always rely on it.
// Responses with status >= 500 are not stored and the key is released.
// When the store is unavailable requests pass through unprotected.
func Idempotency(store idempotency.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(IdempotencyKeyHeader)
			if key == "" {
				r.Header.Set(IdempotencyKeyHeader, uuid.NewString())
				next.ServeHTTP(w, r)
				return
			}
			if len(key) > 255 {
				utils.WriteError(w, http.StatusBadRequest, "Idempotency-Key is too long.")
				return
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, maxIdempotentRequestBytes))
			if err != nil {
				utils.WriteError(w, http.StatusBadRequest, "Unable to read request body.")
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			scope := "anonymous"
			if user, ok := UserFromContext(r.Context()); ok {
				scope = user.ID
			}
			storeKey := scope + ":" + key
			sum := sha256.Sum256(append([]byte(r.Method+" "+r.URL.Path+"\n"), body...))
			hash := hex.EncodeToString(sum[:])

			log := logger.WithContext(r.Context())
			rec, reserved, err := store.Reserve(r.Context(), storeKey, hash)
			if err != nil {
				log.Warn().Err(err).Msg("idempotency: store unavailable, passing through")
				next.ServeHTTP(w, r)
				return
			}

			if !reserved {
				switch {
				case rec.RequestHash != hash:
					utils.WriteError(w, http.StatusConflict, "Idempotency-Key was already used with a different request.")
				case !rec.Completed:
					utils.WriteError(w, http.StatusConflict, "A request with this Idempotency-Key is still in progress.")
				default:
					if rec.ContentType != "" {
						w.Header().Set("Content-Type", rec.ContentType)
					}
					w.Header().Set(IdempotentReplayedHeader, "true")
					w.WriteHeader(rec.StatusCode)
					_, _ = w.Write(rec.Body)
				}
				return
			}

			capture := &captureWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(capture, r)

			// The outcome must be recorded even if the client has gone away.
			ctx := context.WithoutCancel(r.Context())
			if capture.statusCode >= 500 {
				if err := store.Release(ctx, storeKey); err != nil {
					log.Warn().Err(err).Msg("idempotency: release failed")
				}
				return
			}
			err = store.Complete(ctx, storeKey, idempotency.Record{
				RequestHash: hash,
				StatusCode:  capture.statusCode,
				ContentType: capture.Header().Get("Content-Type"),
				Body:        capture.body.Bytes(),
			})
			if err != nil {
				log.Warn().Err(err).Msg("idempotency: failed to store response")
			}
		})
	}
}

type captureWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
	body        bytes.Buffer
}

func (c *captureWriter) WriteHeader(code int) {
	if !c.wroteHeader {
		c.statusCode = code
		c.wroteHeader = true
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *captureWriter) Write(b []byte) (int, error) {
	c.wroteHeader = true
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}
