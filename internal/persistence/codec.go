package persistence

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/spec-kit/clinic-records/internal/domain"
	"github.com/spec-kit/clinic-records/pkg/util"
)

// Codec turns records of one kind into single JSON lines and back.
// Decoding ignores unknown keys but requires every key in required to be
// present and non-null.
type Codec[T any] struct {
	kind     string
	required []string
}

// NewCodec builds a codec for kind.
func NewCodec[T any](kind string, required ...string) Codec[T] {
	return Codec[T]{kind: kind, required: required}
}

var (
	UserCodec = NewCodec[domain.User]("user",
		"username", "password", "created_at")
	BookingCodec = NewCodec[domain.Booking]("booking",
		"booking_id", "patient_name", "appointment_date", "services", "total_amount", "created_at", "status")
	CancellationCodec = NewCodec[domain.Cancellation]("cancellation",
		"cancellation_id", "booking_id", "patient_name", "appointment_date", "services", "total_amount", "cancellation_date")
	PasswordResetCodec = NewCodec[domain.PasswordReset]("password_reset",
		"reset_id", "username", "reset_date", "status")
)

// Kind names the record kind handled by the codec.
func (c Codec[T]) Kind() string {
	return c.kind
}

// Encode returns the record as one line without the trailing newline.
func (c Codec[T]) Encode(rec T) ([]byte, error) {
	line, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", c.kind, err)
	}
	if bytes.ContainsAny(line, "\r\n") {
		return nil, fmt.Errorf("encode %s: line break in output", c.kind)
	}
	return line, nil
}

// Decode parses one line. Failures are MALFORMED_RECORD errors.
func (c Codec[T]) Decode(line []byte) (T, error) {
	var zero T

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(line, &fields); err != nil {
		return zero, util.NewMalformedRecord(c.kind, 0, err)
	}
	for _, name := range c.required {
		raw, ok := fields[name]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return zero, util.NewMalformedRecord(c.kind, 0, fmt.Errorf("missing field %q", name))
		}
	}

	var rec T
	if err := json.Unmarshal(line, &rec); err != nil {
		return zero, util.NewMalformedRecord(c.kind, 0, err)
	}
	return rec, nil
}
