package handler

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"

	"github.com/go-chi/render"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/qhosting/cloudsms/internal/api"
	"github.com/qhosting/cloudsms/internal/middleware"
	"github.com/qhosting/cloudsms/internal/models"
	"github.com/qhosting/cloudsms/internal/service"
)

// Reports carry a handful of short fields; anything larger spills to disk.
const maxMultipartMemory = 1 << 20

// GetDeliveryReport implements api.ServerInterface. The carrier expects a
// plain "OK" body.
func (h *Handler) GetDeliveryReport(w http.ResponseWriter, r *http.Request) {
	report, err := decodeReport(r, false)
	if err != nil {
		h.sendError(w, r, http.StatusBadRequest, ErrorCodeMalformedWebhook, err.Error())
		return
	}

	if !h.reconcile(w, r, report) {
		return
	}

	render.PlainText(w, r, "OK")
}

// PostDeliveryReport implements api.ServerInterface.
func (h *Handler) PostDeliveryReport(w http.ResponseWriter, r *http.Request) {
	report, err := decodeReport(r, true)
	if err != nil {
		h.sendError(w, r, http.StatusBadRequest, ErrorCodeMalformedWebhook, err.Error())
		return
	}

	if !h.reconcile(w, r, report) {
		return
	}

	render.JSON(w, r, api.WebhookAck{Success: true})
}

// reconcile applies the report and reports whether the caller should write
// a success response. Reports for ids we never issued are acknowledged so the
// carrier stops retrying them.
func (h *Handler) reconcile(w http.ResponseWriter, r *http.Request, report *models.DeliveryReport) bool {
	result, err := h.service.Delivery.Reconcile(r.Context(), report)
	switch {
	case err == nil:
		h.logger.Debug("Delivery report reconciled",
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.String("subid", report.SubID),
			zap.Int64("message_id", result.MessageID),
			zap.String("outcome", string(result.Outcome)),
			zap.Bool("applied", result.Applied))
		return true
	case errors.Is(err, service.ErrUnknownExternalID):
		h.logger.Warn("Delivery report for unknown message",
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.String("subid", report.SubID))
		return true
	default:
		h.writeServiceError(w, r, err, "reconcile delivery report")
		return false
	}
}

// decodeReport reads the report from the query string and, when withBody is
// set, overlays fields from a JSON or form body.
func decodeReport(r *http.Request, withBody bool) (*models.DeliveryReport, error) {
	report := &models.DeliveryReport{}
	if err := decodeValues(r.URL.Query(), report); err != nil {
		return nil, err
	}

	if !withBody || r.ContentLength == 0 {
		return report, nil
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		var body map[string]interface{}
		if err := render.DecodeJSON(r.Body, &body); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("invalid JSON body: %w", err)
		}
		if err := decodeMap(body, report); err != nil {
			return nil, err
		}
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("invalid form body: %w", err)
		}
		if err := decodeValues(r.PostForm, report); err != nil {
			return nil, err
		}
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			return nil, fmt.Errorf("invalid multipart body: %w", err)
		}
		if err := decodeValues(url.Values(r.MultipartForm.Value), report); err != nil {
			return nil, err
		}
	}

	return report, nil
}

func decodeValues(values url.Values, report *models.DeliveryReport) error {
	m := make(map[string]interface{}, len(values))
	for k, v := range values {
		if len(v) > 0 {
			m[k] = v[0]
		}
	}
	return decodeMap(m, report)
}

func decodeMap(m map[string]interface{}, report *models.DeliveryReport) error {
	if len(m) == 0 {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           report,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(m); err != nil {
		return fmt.Errorf("invalid delivery report: %w", err)
	}
	return nil
}

// GetMessageReports implements api.ServerInterface.
func (h *Handler) GetMessageReports(w http.ResponseWriter, r *http.Request, id int64) {
	records, err := h.service.Delivery.Reports(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err, "get delivery reports")
		return
	}

	resp := api.DeliveryReportsResponse{
		MessageId: id,
		Reports:   make([]api.DeliveryReportEntry, 0, len(records)),
	}
	for _, rec := range records {
		entry := api.DeliveryReportEntry{
			Id:         rec.ID,
			AckLevel:   rec.AckLevel,
			Type:       rec.Type,
			Desc:       rec.Desc,
			Status:     rec.Status,
			Outcome:    api.DeliveryReportEntryOutcome(rec.Outcome),
			Applied:    rec.Applied,
			ReceivedAt: rec.ReceivedAt,
		}
		if rec.Timestamp.Valid {
			ts := rec.Timestamp.String
			entry.Timestamp = &ts
		}
		if rec.MSISDN.Valid {
			msisdn := rec.MSISDN.String
			entry.Msisdn = &msisdn
		}
		resp.Reports = append(resp.Reports, entry)
	}

	render.JSON(w, r, resp)
}
