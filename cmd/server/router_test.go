package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/qhosting/cloudsms/internal/api"
	"github.com/qhosting/cloudsms/internal/handler"
	"github.com/qhosting/cloudsms/internal/models"
	"github.com/qhosting/cloudsms/internal/service"
	"github.com/qhosting/cloudsms/internal/service/mocks"
)

func TestRouter(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockEstimator := mocks.NewMockCostEstimator(ctrl)
	mockEstimator.EXPECT().Preview(gomock.Any(), int64(12), 5).Return([]*service.PreviewItem{}, nil)

	mockLedger := mocks.NewMockLedgerService(ctrl)
	mockLedger.EXPECT().Refund(gomock.Any(), int64(3), 6, "Credit refund", "7").Return(&models.CreditLedgerEntry{
		ID: 9, CompanyID: 3, Type: models.LedgerEntryRefund, Delta: 6, BalanceAfter: 40, Reference: "7",
	}, nil)

	mockDelivery := mocks.NewMockDeliveryService(ctrl)
	mockDelivery.EXPECT().Reports(gomock.Any(), int64(42)).Return([]*models.DeliveryReportRecord{
		{ID: 1, MessageID: 42, Desc: "DELIVRD", Outcome: models.DeliveryOutcomeDelivered, Applied: true},
	}, nil)

	router := setupRouter(handler.NewHandler(&service.Service{
		Estimator: mockEstimator,
		Ledger:    mockLedger,
		Delivery:  mockDelivery,
	}, zap.NewNop()))

	t.Run("routes bound parameters", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/campaigns/12/preview?limit=5", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var resp api.PreviewResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, int64(12), resp.CampaignId)
		assert.Empty(t, resp.Items)
	})

	t.Run("refund route", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/companies/3/credits/refund", strings.NewReader(`{"amount":6,"reference":"7"}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp api.TopUpResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, api.REFUND, resp.Entry.Type)
		assert.Equal(t, 40, resp.Balance)
	})

	t.Run("message reports route", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/messages/42/reports", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var resp api.DeliveryReportsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, int64(42), resp.MessageId)
		require.Len(t, resp.Reports, 1)
		assert.Equal(t, api.DELIVERED, resp.Reports[0].Outcome)
	})

	t.Run("invalid path parameter", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/campaigns/abc/estimate", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var resp api.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, handler.ErrorCodeInvalidParameter, resp.Error)
	})

	t.Run("invalid query parameter", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/companies/3/ledger?limit=many", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown route", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/unknown", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
