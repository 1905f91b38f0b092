package stripe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "whsec_test_secret"

func TestConstructEvent_ValidSignature(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"invoice.payment_succeeded","data":{"object":{"id":"in_1","subscription":"sub_1"}}}`)
	header := SignPayload(payload, testSecret, time.Now())

	event, err := ConstructEvent(payload, header, testSecret, DefaultTolerance)
	require.NoError(t, err)
	assert.Equal(t, "evt_1", event.ID)
	assert.Equal(t, EventInvoicePaymentSucceeded, event.Type)
	assert.NotEmpty(t, event.Data.Object)
}

func TestConstructEvent_WrongSecret(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"customer.subscription.updated"}`)
	header := SignPayload(payload, "whsec_other", time.Now())

	_, err := ConstructEvent(payload, header, testSecret, DefaultTolerance)
	assert.ErrorIs(t, err, ErrNoValidSignature)
}

func TestConstructEvent_TamperedPayload(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"customer.subscription.updated"}`)
	header := SignPayload(payload, testSecret, time.Now())

	tampered := []byte(`{"id":"evt_2","type":"customer.subscription.updated"}`)
	_, err := ConstructEvent(tampered, header, testSecret, DefaultTolerance)
	assert.ErrorIs(t, err, ErrNoValidSignature)
}

func TestConstructEvent_StaleTimestamp(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
	header := SignPayload(payload, testSecret, time.Now().Add(-time.Hour))

	_, err := ConstructEvent(payload, header, testSecret, DefaultTolerance)
	assert.ErrorIs(t, err, ErrTimestampTooOld)
}

func TestConstructEvent_MalformedHeader(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)

	for _, header := range []string{"", "garbage", "t=abc,v1=00", "v1=00"} {
		_, err := ConstructEvent(payload, header, testSecret, DefaultTolerance)
		assert.Error(t, err, "header %q should be rejected", header)
	}
}
