package handler_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chocohouse/order-service/internal/entities"
	"github.com/chocohouse/order-service/internal/handler"
	mocks "github.com/chocohouse/order-service/internal/handler/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestAdminHandler_UpdateStatus(t *testing.T) {
	preparing := sampleOrder()
	preparing.Status = entities.OrderStatusPreparing

	testCases := []struct {
		name         string
		body         string
		role         entities.Role
		mockBehavior func(svc *mocks.MockAdminService)
		wantStatus   int
		wantBody     string
	}{
		{
			name: "admin advances order",
			body: `{"order_id":"order-1","status":"PREPARING"}`,
			role: entities.RoleAdmin,
			mockBehavior: func(svc *mocks.MockAdminService) {
				svc.EXPECT().
					AdvanceStatus(mock.Anything, "order-1", entities.OrderStatusPreparing).
					Return(preparing, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   `"status":"PREPARING"`,
		},
		{
			name: "illegal transition",
			body: `{"order_id":"order-1","status":"COMPLETED"}`,
			role: entities.RoleAdmin,
			mockBehavior: func(svc *mocks.MockAdminService) {
				svc.EXPECT().
					AdvanceStatus(mock.Anything, "order-1", entities.OrderStatusCompleted).
					Return(entities.Order{}, entities.ErrInvalidTransition).Once()
			},
			wantStatus: http.StatusConflict,
			wantBody:   `"invalid status transition"`,
		},
		{
			name: "unknown order",
			body: `{"order_id":"ghost","status":"PREPARING"}`,
			role: entities.RoleAdmin,
			mockBehavior: func(svc *mocks.MockAdminService) {
				svc.EXPECT().
					AdvanceStatus(mock.Anything, "ghost", entities.OrderStatusPreparing).
					Return(entities.Order{}, entities.ErrOrderNotFound).Once()
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:         "status outside lifecycle",
			body:         `{"order_id":"order-1","status":"SHIPPED"}`,
			role:         entities.RoleAdmin,
			mockBehavior: func(svc *mocks.MockAdminService) {},
			wantStatus:   http.StatusBadRequest,
		},
		{
			name:         "customer forbidden",
			body:         `{"order_id":"order-1","status":"PREPARING"}`,
			role:         entities.RoleCustomer,
			mockBehavior: func(svc *mocks.MockAdminService) {},
			wantStatus:   http.StatusForbidden,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := mocks.NewMockAdminService(t)
			tc.mockBehavior(svc)

			r := newRouter(handler.NewAdminHandler(testLogger(), svc))

			req := httptest.NewRequest(http.MethodPost, "/admin/orders/status", bytes.NewBufferString(tc.body))
			req.Header.Set("Authorization", bearerToken(t, "admin-1", tc.role))
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)
			if tc.wantBody != "" {
				assert.Contains(t, rr.Body.String(), tc.wantBody)
			}
		})
	}
}

func TestAdminHandler_ListOrders(t *testing.T) {
	svc := mocks.NewMockAdminService(t)
	svc.EXPECT().
		ListOrders(mock.Anything, entities.OrderFilter{
			Status: entities.OrderStatusPending,
			Page:   1,
			Limit:  20,
			SortBy: entities.SortByDate,
		}).
		Return([]entities.Order{sampleOrder()}, 7, nil).Once()

	r := newRouter(handler.NewAdminHandler(testLogger(), svc))

	req := httptest.NewRequest(http.MethodPost, "/admin/orders", bytes.NewBufferString(`{"status":"PENDING","sort_by":"date"}`))
	req.Header.Set("Authorization", bearerToken(t, "admin-1", entities.RoleAdmin))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"total":7`)
}

func TestMenuHandler_ListProducts(t *testing.T) {
	svc := mocks.NewMockProductLister(t)
	svc.EXPECT().
		ListProducts(mock.Anything, entities.ProductFilter{CategoryID: "bars", Page: 1, Limit: 20}).
		Return([]entities.Product{{ID: "dark-70", Name: "Dark 70%"}}, 1, nil).Once()

	r := newRouter(handler.NewMenuHandler(testLogger(), svc))

	req := httptest.NewRequest(http.MethodPost, "/menu/products", bytes.NewBufferString(`{"category_id":"bars"}`))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"product_id":"dark-70"`)
}
