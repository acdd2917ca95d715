package handler

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/qhosting/cloudsms/internal/api"
	"github.com/qhosting/cloudsms/internal/service"
	"github.com/qhosting/cloudsms/internal/sms"
)

const (
	defaultPreviewLimit = 3
	maxPreviewLimit     = 20
)

// DispatchCampaign implements api.ServerInterface.
func (h *Handler) DispatchCampaign(w http.ResponseWriter, r *http.Request, id int64) {
	result, err := h.service.Dispatch.Dispatch(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err, "dispatch campaign")
		return
	}

	render.JSON(w, r, api.DispatchResponse{
		CampaignId:     result.CampaignID,
		TotalMessages:  result.TotalMessages,
		CreditsCharged: result.CreditsCharged,
		BalanceAfter:   result.BalanceAfter,
	})
}

// GetCampaignEstimate implements api.ServerInterface.
func (h *Handler) GetCampaignEstimate(w http.ResponseWriter, r *http.Request, id int64) {
	estimate, err := h.service.Estimator.Estimate(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err, "estimate campaign")
		return
	}

	resp := api.EstimateResponse{
		CampaignId:      estimate.CampaignID,
		TotalCredits:    estimate.TotalCredits,
		TotalRecipients: len(estimate.Recipients),
		ByEncoding:      make(map[string]int, len(estimate.ByEncoding)),
		Recipients:      make([]api.RecipientCost, 0, len(estimate.Recipients)),
	}
	for typ, n := range estimate.ByEncoding {
		resp.ByEncoding[string(typ)] = n
	}
	for _, msg := range estimate.Recipients {
		resp.Recipients = append(resp.Recipients, api.RecipientCost{
			ContactId: msg.Contact.ID,
			Phone:     msg.Contact.Phone,
			Encoding:  encodingOf(msg.Encoding.Type),
			Credits:   msg.Credits(),
		})
	}

	render.JSON(w, r, resp)
}

// GetCampaignPreview implements api.ServerInterface.
func (h *Handler) GetCampaignPreview(w http.ResponseWriter, r *http.Request, id int64, params api.GetCampaignPreviewParams) {
	limit := defaultPreviewLimit
	if params.Limit != nil && *params.Limit >= 1 {
		limit = *params.Limit
		if limit > maxPreviewLimit {
			limit = maxPreviewLimit
		}
	}

	items, err := h.service.Estimator.Preview(r.Context(), id, limit)
	if err != nil {
		h.writeServiceError(w, r, err, "preview campaign")
		return
	}

	resp := api.PreviewResponse{
		CampaignId: id,
		Items:      make([]api.PreviewItem, 0, len(items)),
	}
	for _, item := range items {
		resp.Items = append(resp.Items, previewItem(item))
	}

	render.JSON(w, r, resp)
}

func previewItem(item *service.PreviewItem) api.PreviewItem {
	return api.PreviewItem{
		ContactId:        item.Contact.ID,
		Phone:            item.Contact.Phone,
		RenderedText:     item.Text,
		Encoding:         encodingOf(item.Encoding.Type),
		CharacterCount:   item.Encoding.CharacterCount,
		Parts:            item.Credits(),
		Remaining:        item.Encoding.Remaining,
		UnresolvedTokens: item.UnresolvedTokens,
	}
}

func encodingOf(t sms.EncodingType) api.AnalyzeResponseEncoding {
	if t == sms.Unicode {
		return api.UNICODE
	}
	return api.GSM7
}
