package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Webhook event types the portal mirrors
const (
	EventCheckoutSessionCompleted    = "checkout.session.completed"
	EventCustomerSubscriptionCreated = "customer.subscription.created"
	EventCustomerSubscriptionUpdated = "customer.subscription.updated"
	EventInvoicePaymentSucceeded     = "invoice.payment_succeeded"
)

// DefaultTolerance is the accepted clock skew for webhook timestamps
const DefaultTolerance = 5 * time.Minute

// Event is the Stripe webhook envelope
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// Signature verification errors
var (
	ErrInvalidHeader    = errors.New("invalid Stripe-Signature header")
	ErrNoValidSignature = errors.New("no valid signature found")
	ErrTimestampTooOld  = errors.New("webhook timestamp outside tolerance")
)

// ConstructEvent verifies the Stripe-Signature header against the raw
// payload and parses the event envelope. The header has the form
// "t=<unix>,v1=<hmac-sha256 hex>[,v1=...]".
func ConstructEvent(payload []byte, sigHeader, secret string, tolerance time.Duration) (*Event, error) {
	timestamp, signatures, err := parseSigHeader(sigHeader)
	if err != nil {
		return nil, err
	}

	if time.Since(time.Unix(timestamp, 0)) > tolerance {
		return nil, ErrTimestampTooOld
	}

	expected := computeSignature(timestamp, payload, secret)
	valid := false
	for _, sig := range signatures {
		decoded, err := hex.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(decoded, expected) {
			valid = true
			break
		}
	}
	if !valid {
		return nil, ErrNoValidSignature
	}

	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("failed to parse event: %w", err)
	}

	return &event, nil
}

// SignPayload produces a Stripe-Signature header value for a payload.
// Used by tests and by webhook replay tooling.
func SignPayload(payload []byte, secret string, at time.Time) string {
	timestamp := at.Unix()
	sig := computeSignature(timestamp, payload, secret)
	return fmt.Sprintf("t=%d,v1=%s", timestamp, hex.EncodeToString(sig))
}

func parseSigHeader(header string) (int64, []string, error) {
	if header == "" {
		return 0, nil, ErrInvalidHeader
	}

	var timestamp int64 = -1
	var signatures []string

	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts, err := strconv.ParseInt(kv[1], 10, 64)
			if err != nil {
				return 0, nil, ErrInvalidHeader
			}
			timestamp = ts
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}

	if timestamp < 0 || len(signatures) == 0 {
		return 0, nil, ErrInvalidHeader
	}

	return timestamp, signatures, nil
}

func computeSignature(timestamp int64, payload []byte, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return mac.Sum(nil)
}
