package gateway_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/chocohouse/order-service/internal/config"
	"github.com/chocohouse/order-service/internal/entities"
	"github.com/chocohouse/order-service/internal/gateway"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const webhookSecret = "whsec_test"

func newGateway(t *testing.T, apiBase string, timeout time.Duration) *gateway.StripeGateway {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return gateway.NewStripeGateway(logger, config.Stripe{
		SecretKey:     "sk_test",
		WebhookSecret: webhookSecret,
		APIBase:       apiBase,
		Currency:      "bhd",
		MinorUnits:    3,
		Timeout:       timeout,
	})
}

func TestStripeGateway_CreateIntent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "10500", r.PostForm.Get("amount"))
		assert.Equal(t, "bhd", r.PostForm.Get("currency"))
		assert.Equal(t, "order-1", r.PostForm.Get("metadata[order_id]"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"pi_123","client_secret":"pi_123_secret_abc"}`)
	}))
	defer srv.Close()

	g := newGateway(t, srv.URL, time.Second)

	intent, err := g.CreateIntent(context.Background(), decimal.RequireFromString("10.500"), "order-1")
	require.NoError(t, err)
	assert.Equal(t, "pi_123", intent.ID)
	assert.Equal(t, "pi_123_secret_abc", intent.ClientSecret)
}

func TestStripeGateway_CreateIntent_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"nope"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	g := newGateway(t, srv.URL, time.Second)

	_, err := g.CreateIntent(context.Background(), decimal.NewFromInt(5), "order-1")
	assert.ErrorIs(t, err, entities.ErrGatewayUnavailable)
}

func TestStripeGateway_CreateIntent_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	g := newGateway(t, srv.URL, 50*time.Millisecond)

	_, err := g.CreateIntent(context.Background(), decimal.NewFromInt(5), "order-1")
	assert.ErrorIs(t, err, entities.ErrGatewayUnavailable)
}

func signPayload(secret string, timestamp int64, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))
}

func TestStripeGateway_VerifyWebhook(t *testing.T) {
	g := newGateway(t, "http://unused", time.Second)

	succeeded := []byte(`{"type":"payment_intent.succeeded","data":{"object":{"id":"pi_123"}}}`)
	failed := []byte(`{"type":"payment_intent.payment_failed","data":{"object":{"id":"pi_456"}}}`)
	unknown := []byte(`{"type":"charge.refunded","data":{"object":{"id":"ch_789"}}}`)

	testCases := []struct {
		name     string
		payload  []byte
		header   func(payload []byte) string
		wantKind gateway.EventKind
		wantTxID string
		wantErr  error
	}{
		{
			name:     "succeeded event",
			payload:  succeeded,
			header:   func(p []byte) string { return signPayload(webhookSecret, time.Now().Unix(), p) },
			wantKind: gateway.EventPaymentSucceeded,
			wantTxID: "pi_123",
		},
		{
			name:     "failed event",
			payload:  failed,
			header:   func(p []byte) string { return signPayload(webhookSecret, time.Now().Unix(), p) },
			wantKind: gateway.EventPaymentFailed,
			wantTxID: "pi_456",
		},
		{
			name:     "unknown event kind is accepted",
			payload:  unknown,
			header:   func(p []byte) string { return signPayload(webhookSecret, time.Now().Unix(), p) },
			wantKind: gateway.EventUnknown,
			wantTxID: "ch_789",
		},
		{
			name:    "wrong secret",
			payload: succeeded,
			header:  func(p []byte) string { return signPayload("whsec_other", time.Now().Unix(), p) },
			wantErr: entities.ErrInvalidSignature,
		},
		{
			name:    "tampered payload",
			payload: succeeded,
			header: func(p []byte) string {
				return signPayload(webhookSecret, time.Now().Unix(), []byte(`{"type":"payment_intent.succeeded","data":{"object":{"id":"pi_evil"}}}`))
			},
			wantErr: entities.ErrInvalidSignature,
		},
		{
			name:    "stale timestamp",
			payload: succeeded,
			header: func(p []byte) string {
				return signPayload(webhookSecret, time.Now().Add(-time.Hour).Unix(), p)
			},
			wantErr: entities.ErrInvalidSignature,
		},
		{
			name:    "malformed header",
			payload: succeeded,
			header:  func(p []byte) string { return "garbage" },
			wantErr: entities.ErrInvalidSignature,
		},
		{
			name:    "missing digest",
			payload: succeeded,
			header:  func(p []byte) string { return fmt.Sprintf("t=%d", time.Now().Unix()) },
			wantErr: entities.ErrInvalidSignature,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			event, err := g.VerifyWebhook(tc.payload, tc.header(tc.payload))
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantKind, event.Kind)
			assert.Equal(t, tc.wantTxID, event.TransactionID)
		})
	}
}
