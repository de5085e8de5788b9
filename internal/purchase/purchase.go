// Package purchase validates purchase messages delivered from the order queue.
package purchase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"books-gateway/internal/metrics"
)

// Message is a single purchase request.
type Message struct {
	BookID     string  `json:"bookId"`
	Quantity   int     `json:"quantity"`
	CustomerID *string `json:"customerId,omitempty"`
}

// Validate checks the message fields.
func (m Message) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.BookID, validation.Required, validation.By(isUUID)),
		validation.Field(&m.Quantity, validation.Required, validation.Min(1)),
		validation.Field(&m.CustomerID, validation.NilOrNotEmpty),
	)
}

func isUUID(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}
	// Only the canonical hyphenated form; uuid.Validate also takes URN and braced forms.
	if len(s) != 36 || uuid.Validate(s) != nil {
		return validation.NewError("validation_is_uuid", "must be a valid UUID")
	}
	return nil
}

// Record is one queue delivery.
type Record struct {
	MessageID string `json:"messageId"`
	Body      string `json:"body"`
}

// Event is a batch of queue deliveries.
type Event struct {
	Records []Record `json:"Records"`
}

// Rejection describes a record that failed decoding or validation.
type Rejection struct {
	MessageID string `json:"messageId"`
	Error     string `json:"error"`
}

// Result summarizes a processed batch.
type Result struct {
	Processed int         `json:"processed"`
	Rejected  []Rejection `json:"rejected"`
}

// ErrInvalidPayload marks a record whose body could not be decoded.
var ErrInvalidPayload = errors.New("invalid purchase payload")

// Validator checks and logs queued purchases. Invalid records are skipped
// without failing the batch.
type Validator struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewValidator creates a Validator. The metrics parameter is optional.
func NewValidator(logger *slog.Logger, m *metrics.Metrics) *Validator {
	return &Validator{
		logger:  logger.With("component", "purchase_validator"),
		metrics: m,
	}
}

// Decode parses and validates a record body.
func Decode(body string) (*Message, error) {
	var msg Message
	if err := json.Unmarshal([]byte(body), &msg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	if msg.CustomerID == nil && explicitNull([]byte(body), "customerId") {
		return nil, fmt.Errorf("%w: customerId: must be a string when present", ErrInvalidPayload)
	}
	if err := msg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return &msg, nil
}

// explicitNull reports whether key is present in the JSON object with a null value.
func explicitNull(body []byte, key string) bool {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return false
	}
	v, ok := fields[key]
	return ok && string(bytes.TrimSpace(v)) == "null"
}

// Process validates every record in ev. It stops early only when ctx is done.
func (v *Validator) Process(ctx context.Context, ev Event) (Result, error) {
	res := Result{Rejected: []Rejection{}}

	for _, rec := range ev.Records {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		msg, err := Decode(rec.Body)
		if err != nil {
			v.logger.Error("invalid purchase payload",
				"message_id", rec.MessageID,
				"err", err,
			)
			res.Rejected = append(res.Rejected, Rejection{MessageID: rec.MessageID, Error: err.Error()})
			v.record(metrics.OutcomeRejected)
			continue
		}

		attrs := []any{
			"book_id", msg.BookID,
			"quantity", msg.Quantity,
			"message_id", rec.MessageID,
		}
		if msg.CustomerID != nil {
			attrs = append(attrs, "customer_id", *msg.CustomerID)
		}
		v.logger.Info("processing purchase", attrs...)

		res.Processed++
		v.record(metrics.OutcomeProcessed)
	}

	return res, nil
}

func (v *Validator) record(outcome string) {
	if v.metrics != nil {
		v.metrics.PurchaseMessages.WithLabelValues(outcome).Inc()
	}
}
