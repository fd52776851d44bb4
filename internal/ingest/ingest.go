package ingest

import (
	"context"
	"net/http"

	goerrors "github.com/goliatone/go-errors"

	"github.com/PratikDhanave/sms-webhook-inbox/internal/auth"
	"github.com/PratikDhanave/sms-webhook-inbox/internal/metrics"
	"github.com/PratikDhanave/sms-webhook-inbox/internal/store"
	"github.com/PratikDhanave/sms-webhook-inbox/internal/validation"
)

// Outcome is the terminal classification of one webhook delivery.
type Outcome string

const (
	OutcomeInvalidSignature Outcome = "invalid_signature"
	OutcomeValidationError  Outcome = "validation_error"
	OutcomeCreated          Outcome = "created"
	OutcomeDuplicate        Outcome = "duplicate"
)

// TextCodeStorageUnavailable marks persistence faults.
const TextCodeStorageUnavailable = "STORAGE_UNAVAILABLE"

// Outcomes lists every classification, e.g. to pre-create metric series.
func Outcomes() []string {
	return []string{
		string(OutcomeInvalidSignature),
		string(OutcomeValidationError),
		string(OutcomeCreated),
		string(OutcomeDuplicate),
	}
}

// Result describes how a delivery ended.
type Result struct {
	Outcome    Outcome
	StatusCode int
	MessageID  string
	Violations []goerrors.FieldError
}

// Duplicate reports whether the delivery repeated a stored message_id.
func (r Result) Duplicate() bool {
	return r.Outcome == OutcomeDuplicate
}

// Ingestor runs authenticate -> validate -> insert for each delivery and
// short-circuits on the first failure.
type Ingestor struct {
	secret  []byte
	store   store.MessageStore
	metrics metrics.Recorder
}

func NewIngestor(secret string, st store.MessageStore, rec metrics.Recorder) *Ingestor {
	return &Ingestor{secret: []byte(secret), store: st, metrics: rec}
}

// Ingest processes one delivery. rawBody must be the bytes as received.
//
// The returned error is non-nil only for storage faults; the delivery then
// has no outcome and is not counted. Every other path returns exactly one
// outcome, counted once in webhook_requests_total.
func (in *Ingestor) Ingest(ctx context.Context, rawBody []byte, signature string) (Result, error) {
	if !auth.VerifySignature(in.secret, rawBody, signature) {
		return in.finish(Result{
			Outcome:    OutcomeInvalidSignature,
			StatusCode: http.StatusUnauthorized,
		}), nil
	}

	msg, err := validation.Parse(rawBody)
	if err != nil {
		violations := validation.Violations(err)
		if violations == nil {
			return Result{}, err
		}
		return in.finish(Result{
			Outcome:    OutcomeValidationError,
			StatusCode: http.StatusUnprocessableEntity,
			Violations: violations,
		}), nil
	}

	inserted, err := in.store.Insert(ctx, msg)
	if err != nil {
		wrapped := goerrors.Wrap(err, goerrors.CategoryInternal, "ingest: persist message").
			WithCode(http.StatusInternalServerError).
			WithTextCode(TextCodeStorageUnavailable)
		wrapped.WithMetadata(map[string]any{"message_id": msg.MessageID})
		return Result{MessageID: msg.MessageID}, wrapped
	}

	res := Result{Outcome: OutcomeCreated, StatusCode: http.StatusOK, MessageID: msg.MessageID}
	if !inserted {
		res.Outcome = OutcomeDuplicate
	}
	return in.finish(res), nil
}

func (in *Ingestor) finish(res Result) Result {
	in.metrics.IncWebhookOutcome(string(res.Outcome))
	return res
}
