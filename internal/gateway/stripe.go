package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/chocohouse/order-service/internal/config"
	"github.com/chocohouse/order-service/internal/entities"

	"github.com/shopspring/decimal"
)

type EventKind string

const (
	EventPaymentSucceeded EventKind = "payment_succeeded"
	EventPaymentFailed    EventKind = "payment_failed"
	EventUnknown          EventKind = "unknown"
)

// Event is the verified, parsed webhook envelope. Type keeps the raw
// provider discriminator for logging; Kind is what the orchestrator
// dispatches on.
type Event struct {
	Kind          EventKind
	Type          string
	TransactionID string
}

type Intent struct {
	ID           string
	ClientSecret string
}

// signatureTolerance bounds how old a webhook timestamp may be before the
// signature is rejected, limiting replay of captured deliveries.
const signatureTolerance = 5 * time.Minute

type StripeGateway struct {
	logger *slog.Logger
	client *http.Client
	cfg    config.Stripe
}

func NewStripeGateway(logger *slog.Logger, cfg config.Stripe) *StripeGateway {
	return &StripeGateway{
		logger: logger.With(slog.String("gateway", "stripe")),
		client: &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
	}
}

type intentResponse struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

// CreateIntent registers a payment intent with the provider for the given
// amount. The amount is converted to integer minor units at this boundary
// only; everything upstream stays decimal. Any transport or provider
// failure surfaces as ErrGatewayUnavailable.
func (g *StripeGateway) CreateIntent(ctx context.Context, amount decimal.Decimal, orderID string) (Intent, error) {
	minor := amount.Shift(g.cfg.MinorUnits)
	if !minor.IsInteger() {
		return Intent{}, fmt.Errorf("amount %s is not representable in minor units", amount)
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(minor.IntPart(), 10))
	form.Set("currency", g.cfg.Currency)
	form.Set("metadata[order_id]", orderID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.cfg.APIBase+"/v1/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return Intent{}, fmt.Errorf("failed to build intent request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.cfg.SecretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := g.client.Do(req)
	if err != nil {
		return Intent{}, fmt.Errorf("%w: %v", entities.ErrGatewayUnavailable, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		g.logger.Error("payment intent request rejected",
			slog.Int("status", res.StatusCode),
			slog.String("body", string(body)),
		)
		return Intent{}, fmt.Errorf("%w: status %d", entities.ErrGatewayUnavailable, res.StatusCode)
	}

	var intent intentResponse
	if err := json.NewDecoder(res.Body).Decode(&intent); err != nil {
		return Intent{}, fmt.Errorf("%w: %v", entities.ErrGatewayUnavailable, err)
	}
	if intent.ID == "" || intent.ClientSecret == "" {
		return Intent{}, fmt.Errorf("%w: incomplete intent response", entities.ErrGatewayUnavailable)
	}

	return Intent{ID: intent.ID, ClientSecret: intent.ClientSecret}, nil
}

type webhookEnvelope struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID string `json:"id"`
		} `json:"object"`
	} `json:"data"`
}

// VerifyWebhook checks the provider signature over the raw payload and
// parses the event envelope. The signature header carries a timestamp and
// one or more HMAC-SHA256 digests of "<timestamp>.<payload>" keyed with
// the shared webhook secret. Verification failure is a hard reject.
func (g *StripeGateway) VerifyWebhook(payload []byte, signature string) (Event, error) {
	timestamp, digests, err := parseSignatureHeader(signature)
	if err != nil {
		return Event{}, fmt.Errorf("%w: %v", entities.ErrInvalidSignature, err)
	}

	age := time.Since(time.Unix(timestamp, 0))
	if age > signatureTolerance || age < -signatureTolerance {
		return Event{}, fmt.Errorf("%w: timestamp outside tolerance", entities.ErrInvalidSignature)
	}

	mac := hmac.New(sha256.New, []byte(g.cfg.WebhookSecret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	valid := false
	for _, digest := range digests {
		decoded, err := hex.DecodeString(digest)
		if err != nil {
			continue
		}
		if hmac.Equal(decoded, expected) {
			valid = true
			break
		}
	}
	if !valid {
		return Event{}, fmt.Errorf("%w: digest mismatch", entities.ErrInvalidSignature)
	}

	var envelope webhookEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return Event{}, fmt.Errorf("failed to parse webhook payload: %w", err)
	}

	event := Event{
		Type:          envelope.Type,
		TransactionID: envelope.Data.Object.ID,
	}
	switch envelope.Type {
	case "payment_intent.succeeded":
		event.Kind = EventPaymentSucceeded
	case "payment_intent.payment_failed":
		event.Kind = EventPaymentFailed
	default:
		event.Kind = EventUnknown
	}

	return event, nil
}

// parseSignatureHeader splits "t=<unix>,v1=<hex>[,v1=<hex>...]". Elements
// with other prefixes are ignored for forward compatibility.
func parseSignatureHeader(header string) (int64, []string, error) {
	var (
		timestamp int64 = -1
		digests   []string
	)

	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			ts, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("bad timestamp: %v", err)
			}
			timestamp = ts
		case "v1":
			digests = append(digests, value)
		}
	}

	if timestamp < 0 {
		return 0, nil, fmt.Errorf("missing timestamp")
	}
	if len(digests) == 0 {
		return 0, nil, fmt.Errorf("missing signature digest")
	}
	return timestamp, digests, nil
}
