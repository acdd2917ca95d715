package handler

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/qhosting/cloudsms/internal/api"
	"github.com/qhosting/cloudsms/internal/sms"
)

// AnalyzeMessage implements api.ServerInterface.
func (h *Handler) AnalyzeMessage(w http.ResponseWriter, r *http.Request) {
	var req api.AnalyzeRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.sendError(w, r, http.StatusBadRequest, ErrorCodeInvalidRequest, "request body must be a JSON object with a text field")
		return
	}

	analysis := sms.Analyze(req.Text, h.maxParts)

	resp := api.AnalyzeResponse{
		Encoding:       encodingOf(analysis.Encoding.Type),
		CharacterCount: analysis.Encoding.CharacterCount,
		Parts:          analysis.Encoding.Parts,
		Remaining:      analysis.Encoding.Remaining,
		Valid:          analysis.Valid,
		Errors:         nonNil(analysis.Errors),
		Warnings:       nonNil(analysis.Warnings),
		Segments:       make([]api.Segment, 0, len(analysis.Parts)),
	}
	for _, p := range analysis.Parts {
		resp.Segments = append(resp.Segments, api.Segment{
			Number:         p.Number,
			Content:        p.Content,
			CharacterCount: p.CharacterCount,
		})
	}

	render.JSON(w, r, resp)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
