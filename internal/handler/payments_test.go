package handler_test

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chocohouse/order-service/internal/entities"
	"github.com/chocohouse/order-service/internal/handler"
	mocks "github.com/chocohouse/order-service/internal/handler/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestPaymentHandler_CreateIntent(t *testing.T) {
	testCases := []struct {
		name         string
		body         string
		mockBehavior func(svc *mocks.MockPaymentService)
		wantStatus   int
		wantBody     string
	}{
		{
			name: "success",
			body: `{"order_id":"order-1"}`,
			mockBehavior: func(svc *mocks.MockPaymentService) {
				svc.EXPECT().
					CreatePaymentIntent(mock.Anything, "user-1", "order-1").
					Return("pi_42_secret", nil).Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   `"client_secret":"pi_42_secret"`,
		},
		{
			name:         "missing order id",
			body:         `{}`,
			mockBehavior: func(svc *mocks.MockPaymentService) {},
			wantStatus:   http.StatusBadRequest,
		},
		{
			name: "foreign order",
			body: `{"order_id":"order-1"}`,
			mockBehavior: func(svc *mocks.MockPaymentService) {
				svc.EXPECT().
					CreatePaymentIntent(mock.Anything, "user-1", "order-1").
					Return("", entities.ErrForbidden).Once()
			},
			wantStatus: http.StatusForbidden,
		},
		{
			name: "cash order",
			body: `{"order_id":"order-1"}`,
			mockBehavior: func(svc *mocks.MockPaymentService) {
				svc.EXPECT().
					CreatePaymentIntent(mock.Anything, "user-1", "order-1").
					Return("", entities.ErrInvalidOrder).Once()
			},
			wantStatus: http.StatusBadRequest,
			wantBody:   `"not a card order"`,
		},
		{
			name: "gateway unavailable",
			body: `{"order_id":"order-1"}`,
			mockBehavior: func(svc *mocks.MockPaymentService) {
				svc.EXPECT().
					CreatePaymentIntent(mock.Anything, "user-1", "order-1").
					Return("", entities.ErrGatewayUnavailable).Once()
			},
			wantStatus: http.StatusBadGateway,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := mocks.NewMockPaymentService(t)
			tc.mockBehavior(svc)

			r := newRouter(handler.NewPaymentHandler(testLogger(), svc))

			req := httptest.NewRequest(http.MethodPost, "/payments/intent", bytes.NewBufferString(tc.body))
			req.Header.Set("Authorization", bearerToken(t, "user-1", entities.RoleCustomer))
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)
			if tc.wantBody != "" {
				assert.Contains(t, rr.Body.String(), tc.wantBody)
			}
		})
	}
}

func TestPaymentHandler_Webhook(t *testing.T) {
	payload := `{"type":"payment_intent.succeeded","data":{"object":{"id":"pi_42"}}}`

	testCases := []struct {
		name         string
		signature    string
		mockBehavior func(svc *mocks.MockPaymentService)
		wantStatus   int
		wantBody     string
	}{
		{
			name:      "accepted",
			signature: "t=1,v1=abc",
			mockBehavior: func(svc *mocks.MockPaymentService) {
				svc.EXPECT().
					HandleWebhook(mock.Anything, []byte(payload), "t=1,v1=abc").
					Return(nil).Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   `"received":true`,
		},
		{
			name:      "invalid signature",
			signature: "t=1,v1=bad",
			mockBehavior: func(svc *mocks.MockPaymentService) {
				svc.EXPECT().
					HandleWebhook(mock.Anything, []byte(payload), "t=1,v1=bad").
					Return(entities.ErrInvalidSignature).Once()
			},
			wantStatus: http.StatusBadRequest,
			wantBody:   `"invalid signature"`,
		},
		{
			name:      "storage failure returns 500 so the gateway retries",
			signature: "t=1,v1=abc",
			mockBehavior: func(svc *mocks.MockPaymentService) {
				svc.EXPECT().
					HandleWebhook(mock.Anything, []byte(payload), "t=1,v1=abc").
					Return(errors.New("db error")).Once()
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := mocks.NewMockPaymentService(t)
			tc.mockBehavior(svc)

			r := newRouter(handler.NewPaymentHandler(testLogger(), svc))

			// Вебхук не требует авторизации: шлюз аутентифицируется подписью.
			req := httptest.NewRequest(http.MethodPost, "/payments/webhook", bytes.NewBufferString(payload))
			req.Header.Set("Stripe-Signature", tc.signature)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)
			if tc.wantBody != "" {
				assert.Contains(t, rr.Body.String(), tc.wantBody)
			}
		})
	}
}
