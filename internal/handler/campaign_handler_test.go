package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/qhosting/cloudsms/internal/api"
	"github.com/qhosting/cloudsms/internal/handler"
	"github.com/qhosting/cloudsms/internal/middleware"
	"github.com/qhosting/cloudsms/internal/models"
	"github.com/qhosting/cloudsms/internal/service"
	"github.com/qhosting/cloudsms/internal/service/mocks"
	"github.com/qhosting/cloudsms/internal/sms"
)

func newRequest(method, target string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, target, body)
	return req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "test-request-id"))
}

func decodeError(t *testing.T, body []byte) api.ErrorResponse {
	t.Helper()
	var resp api.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp
}

func ptr[T any](v T) *T {
	return &v
}

func TestHandler_DispatchCampaign(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{name: "success", expectedStatus: http.StatusOK},
		{name: "campaign not found", err: fmt.Errorf("campaign 7: %w", service.ErrNotFound), expectedStatus: http.StatusNotFound, expectedCode: handler.ErrorCodeNotFound},
		{name: "already sending", err: service.ErrInvalidState, expectedStatus: http.StatusConflict, expectedCode: handler.ErrorCodeInvalidState},
		{name: "no recipients", err: service.ErrNoRecipients, expectedStatus: http.StatusBadRequest, expectedCode: handler.ErrorCodeNoRecipients},
		{name: "insufficient credits", err: fmt.Errorf("need 12, have 3: %w", service.ErrInsufficientCredits), expectedStatus: http.StatusPaymentRequired, expectedCode: handler.ErrorCodeInsufficientCredits},
		{name: "database error", err: fmt.Errorf("begin tx: connection refused"), expectedStatus: http.StatusInternalServerError, expectedCode: middleware.ErrorCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockDispatch := mocks.NewMockDispatchService(ctrl)
			if tt.err != nil {
				mockDispatch.EXPECT().Dispatch(gomock.Any(), int64(7)).Return(nil, tt.err)
			} else {
				mockDispatch.EXPECT().Dispatch(gomock.Any(), int64(7)).Return(&service.DispatchResult{
					CampaignID:     7,
					TotalMessages:  4,
					CreditsCharged: 6,
					BalanceAfter:   94,
				}, nil)
			}

			h := handler.NewHandler(&service.Service{Dispatch: mockDispatch}, zap.NewNop())

			w := httptest.NewRecorder()
			h.DispatchCampaign(w, newRequest(http.MethodPost, "/campaigns/7/send", nil), 7)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.err != nil {
				resp := decodeError(t, w.Body.Bytes())
				assert.Equal(t, tt.expectedCode, resp.Error)
				assert.NotNil(t, resp.Timestamp)
				return
			}

			var resp api.DispatchResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, api.DispatchResponse{CampaignId: 7, TotalMessages: 4, CreditsCharged: 6, BalanceAfter: 94}, resp)
		})
	}
}

func TestHandler_DispatchCampaign_InternalErrorHidesCause(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDispatch := mocks.NewMockDispatchService(ctrl)
	mockDispatch.EXPECT().Dispatch(gomock.Any(), int64(1)).Return(nil, fmt.Errorf("pq: password authentication failed"))

	h := handler.NewHandler(&service.Service{Dispatch: mockDispatch}, zap.NewNop())
	w := httptest.NewRecorder()
	h.DispatchCampaign(w, newRequest(http.MethodPost, "/campaigns/1/send", nil), 1)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestHandler_GetCampaignEstimate(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		gsm := service.Render("Hi {firstName}, 20% off today", &models.Contact{ID: 1, Phone: "+525511112222"})
		ucs := service.Render("Hola {firstName} 😀", &models.Contact{ID: 2, Phone: "+525533334444"})

		mockEstimator := mocks.NewMockCostEstimator(ctrl)
		mockEstimator.EXPECT().Estimate(gomock.Any(), int64(3)).Return(&service.Estimate{
			CampaignID:   3,
			Recipients:   []*service.RenderedMessage{gsm, ucs},
			TotalCredits: gsm.Credits() + ucs.Credits(),
			ByEncoding:   map[sms.EncodingType]int{sms.GSM7: 1, sms.Unicode: 1},
		}, nil)

		h := handler.NewHandler(&service.Service{Estimator: mockEstimator}, zap.NewNop())
		w := httptest.NewRecorder()
		h.GetCampaignEstimate(w, newRequest(http.MethodGet, "/campaigns/3/estimate", nil), 3)

		require.Equal(t, http.StatusOK, w.Code)

		var resp api.EstimateResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, int64(3), resp.CampaignId)
		assert.Equal(t, 2, resp.TotalRecipients)
		assert.Equal(t, 2, resp.TotalCredits)
		assert.Equal(t, map[string]int{"GSM7": 1, "UNICODE": 1}, resp.ByEncoding)
		require.Len(t, resp.Recipients, 2)
		assert.Equal(t, api.RecipientCost{ContactId: 1, Phone: "+525511112222", Encoding: api.GSM7, Credits: 1}, resp.Recipients[0])
		assert.Equal(t, api.UNICODE, resp.Recipients[1].Encoding)
	})

	t.Run("not found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockEstimator := mocks.NewMockCostEstimator(ctrl)
		mockEstimator.EXPECT().Estimate(gomock.Any(), int64(99)).Return(nil, service.ErrNotFound)

		h := handler.NewHandler(&service.Service{Estimator: mockEstimator}, zap.NewNop())
		w := httptest.NewRecorder()
		h.GetCampaignEstimate(w, newRequest(http.MethodGet, "/campaigns/99/estimate", nil), 99)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, handler.ErrorCodeNotFound, decodeError(t, w.Body.Bytes()).Error)
	})
}

func TestHandler_GetCampaignPreview(t *testing.T) {
	tests := []struct {
		name          string
		limit         *int
		expectedLimit int
	}{
		{name: "default limit", limit: nil, expectedLimit: 3},
		{name: "custom limit", limit: ptr(5), expectedLimit: 5},
		{name: "zero falls back to default", limit: ptr(0), expectedLimit: 3},
		{name: "negative falls back to default", limit: ptr(-4), expectedLimit: 3},
		{name: "capped", limit: ptr(500), expectedLimit: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			rendered := service.Render("Hi {firstName}, see {company}", &models.Contact{ID: 4, Phone: "+15550001111"})

			mockEstimator := mocks.NewMockCostEstimator(ctrl)
			mockEstimator.EXPECT().Preview(gomock.Any(), int64(2), tt.expectedLimit).Return([]*service.PreviewItem{
				{RenderedMessage: rendered, UnresolvedTokens: sms.UnresolvedTokens(rendered.Text)},
			}, nil)

			h := handler.NewHandler(&service.Service{Estimator: mockEstimator}, zap.NewNop())
			w := httptest.NewRecorder()
			h.GetCampaignPreview(w, newRequest(http.MethodGet, "/campaigns/2/preview", nil), 2, api.GetCampaignPreviewParams{Limit: tt.limit})

			require.Equal(t, http.StatusOK, w.Code)

			var resp api.PreviewResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, int64(2), resp.CampaignId)
			require.Len(t, resp.Items, 1)

			item := resp.Items[0]
			assert.Equal(t, int64(4), item.ContactId)
			assert.Equal(t, rendered.Text, item.RenderedText)
			assert.Equal(t, api.GSM7, item.Encoding)
			assert.Equal(t, 1, item.Parts)
			assert.Equal(t, rendered.Encoding.CharacterCount, item.CharacterCount)
			assert.Equal(t, rendered.Encoding.Remaining, item.Remaining)
			assert.Equal(t, []string{sms.TokenFirstName, sms.TokenCompany}, item.UnresolvedTokens)
		})
	}
}

func TestHandler_GetCampaignPreview_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockEstimator := mocks.NewMockCostEstimator(ctrl)
	mockEstimator.EXPECT().Preview(gomock.Any(), int64(8), 3).Return(nil, service.ErrNotFound)

	h := handler.NewHandler(&service.Service{Estimator: mockEstimator}, zap.NewNop())
	w := httptest.NewRecorder()
	h.GetCampaignPreview(w, newRequest(http.MethodGet, "/campaigns/8/preview", nil), 8, api.GetCampaignPreviewParams{})

	assert.Equal(t, http.StatusNotFound, w.Code)
}
