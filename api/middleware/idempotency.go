package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/devsergyo/sales-commissions/api/responses"
	pkgerrors "github.com/devsergyo/sales-commissions/pkg/errors"
	"github.com/devsergyo/sales-commissions/pkg/logger"
	pkgredis "github.com/devsergyo/sales-commissions/pkg/redis"
)

const (
	idempotencyHeader = "Idempotency-Key"
	replayedHeader    = "Idempotent-Replayed"
	maxIdempotencyKey = 255

	defaultIdempotencyTTL = 24 * time.Hour
	reportIdempotencyTTL  = 48 * time.Hour
	// pendingTTL bounds a reservation whose request never finished. Report
	// triggers add the cycle timeout on top, so a reservation outlives the
	// longest cycle the handler can run.
	pendingTTL = 2 * time.Minute

	msgKeyReused   = "Idempotency-Key reutilizada com outro corpo de requisição"
	msgKeyInFlight = "Requisição com esta Idempotency-Key ainda em processamento"
	msgKeyTooLong  = "Idempotency-Key muito longa"
)

type idempotencyRule struct {
	method string
	path   string
	prefix bool
	ttl    time.Duration
	// cycle marks routes that run a report cycle
	cycle bool
}

// Report triggers keep their key longer: a replay must never enqueue a second
// round of e-mails for the same day.
var idempotencyRules = []idempotencyRule{
	{method: http.MethodPost, path: "/api/v1/sellers", ttl: defaultIdempotencyTTL},
	{method: http.MethodPost, path: "/api/v1/sales", ttl: defaultIdempotencyTTL},
	{method: http.MethodPost, path: "/api/v1/reports/daily", prefix: true, ttl: reportIdempotencyTTL, cycle: true},
	{method: http.MethodPost, path: "/api/v1/reports/admin", ttl: reportIdempotencyTTL, cycle: true},
}

func (r idempotencyRule) matches(method, path string) bool {
	if r.method != method {
		return false
	}
	if r.prefix {
		return path == r.path || strings.HasPrefix(path, r.path+"/")
	}
	return path == r.path
}

func matchRule(method, path string) (idempotencyRule, bool) {
	for _, rule := range idempotencyRules {
		if rule.matches(method, path) {
			return rule, true
		}
	}
	return idempotencyRule{}, false
}

// pending is how long a reservation may stay unfinished.
func (r idempotencyRule) pending(cycleTimeout time.Duration) time.Duration {
	if r.cycle && cycleTimeout > 0 {
		return cycleTimeout + pendingTTL
	}
	return pendingTTL
}

// idempotencyRecord is either a reservation (Pending) or a finished response.
type idempotencyRecord struct {
	Pending     bool   `json:"pending,omitempty"`
	RequestHash string `json:"request_hash"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        string `json:"body,omitempty"`
}

// Idempotency replays the stored response of a matched route when the caller
// repeats an Idempotency-Key with the same body. The key is reserved before
// the handler runs, so a concurrent duplicate gets 409 instead of a second
// execution. 5xx responses release the key to allow a retry. cycleTimeout is
// the report cycle budget and sizes the reservation of report triggers.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger, cycleTimeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rule, ok := matchRule(r.Method, r.URL.Path)
			idemKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			if !ok || idemKey == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			if len(idemKey) > maxIdempotencyKey {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, msgKeyTooLong))
				return
			}
			ctx = logg.WithField(ctx, "idempotency_key", idemKey)

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Corpo da requisição inválido"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			hash := hashBody(body)
			key := store.IdempotencyKey(requestScope(r), idemKey)

			reserved, err := reserve(ctx, store, key, hash, rule.pending(cycleTimeout))
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reservar idempotency key"))
				return
			}
			if !reserved {
				replayOrReject(ctx, logg, w, store, key, hash)
				return
			}

			rec := &responseCapture{statusRecorder: statusRecorder{ResponseWriter: w}}
			next.ServeHTTP(rec, r.WithContext(ctx))

			// a failed request must stay retryable under the same key
			storeCtx := context.WithoutCancel(ctx)
			if rec.statusOrOK() >= http.StatusInternalServerError {
				if err := store.Del(storeCtx, key); err != nil {
					logg.Error(ctx, "idempotency.release_failed", err)
				}
				return
			}
			payload, err := json.Marshal(idempotencyRecord{
				RequestHash: hash,
				Status:      rec.statusOrOK(),
				ContentType: rec.Header().Get("Content-Type"),
				Body:        base64.StdEncoding.EncodeToString(rec.body.Bytes()),
			})
			if err == nil {
				err = store.Set(storeCtx, key, string(payload), rule.ttl)
			}
			if err != nil {
				logg.Error(ctx, "idempotency.persist_failed", err)
			}
		})
	}
}

func reserve(ctx context.Context, store pkgredis.IdempotencyStore, key, hash string, ttl time.Duration) (bool, error) {
	placeholder, err := json.Marshal(idempotencyRecord{Pending: true, RequestHash: hash})
	if err != nil {
		return false, err
	}
	return store.SetNX(ctx, key, string(placeholder), ttl)
}

func replayOrReject(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, store pkgredis.IdempotencyStore, key, hash string) {
	stored, err := store.Get(ctx, key)
	if errors.Is(err, pkgredis.Nil) {
		// reservation expired between SetNX and Get
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeConflict, msgKeyInFlight))
		return
	}
	if err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ler idempotency key"))
		return
	}

	var record idempotencyRecord
	if err := json.Unmarshal([]byte(stored), &record); err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decodificar idempotency key"))
		return
	}
	switch {
	case record.RequestHash != hash:
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeConflict, msgKeyReused))
	case record.Pending:
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeConflict, msgKeyInFlight))
	default:
		logg.Info(ctx, "request.replayed")
		writeStoredResponse(w, record)
	}
}

func requestScope(r *http.Request) string {
	return strings.Join([]string{r.Method, r.URL.Path, r.URL.RawQuery}, "|")
}

func writeStoredResponse(w http.ResponseWriter, record idempotencyRecord) {
	if record.ContentType != "" {
		w.Header().Set("Content-Type", record.ContentType)
	}
	w.Header().Set(replayedHeader, "true")
	w.WriteHeader(record.Status)
	if decoded, err := base64.StdEncoding.DecodeString(record.Body); err == nil {
		_, _ = w.Write(decoded)
	}
}

func hashBody(payload []byte) string {
	sum := sha256.Sum256(payload)
	return base64.StdEncoding.EncodeToString(sum[:])
}

// responseCapture tees the body so it can be stored for replay.
type responseCapture struct {
	statusRecorder
	body bytes.Buffer
}

func (r *responseCapture) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.statusRecorder.Write(b)
}
