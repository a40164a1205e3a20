package quotations

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/jag-erp/jag-erp/internal/platform/httpx"
	"github.com/jag-erp/jag-erp/internal/shared"
)

// DocumentRenderer turns a printable quotation into a PDF.
type DocumentRenderer interface {
	RenderQuotation(ctx context.Context, doc *Document) ([]byte, error)
}

type Handler struct {
	logger   *slog.Logger
	service  *Service
	renderer DocumentRenderer
}

func NewHandler(logger *slog.Logger, service *Service, renderer DocumentRenderer) *Handler {
	return &Handler{logger: logger, service: service, renderer: renderer}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := ListFilter{
		Search: strings.TrimSpace(query.Get("q")),
		Page:   shared.PageFromQuery(query),
	}
	if raw := query.Get("status"); raw != "" {
		status := QuotationStatus(raw)
		if status != QuotationStatusDraft && status != QuotationStatusFinal {
			httpx.RespondError(w, shared.NewValidationError("status", "must be one of draft final"))
			return
		}
		filter.Status = &status
	}
	if raw := query.Get("customer_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			httpx.RespondError(w, shared.NewValidationError("customer_id", "must be a positive integer"))
			return
		}
		filter.CustomerID = &id
	}
	if raw := query.Get("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil || year < 2000 || year > 9999 {
			httpx.RespondError(w, shared.NewValidationError("year", "must be a four digit year"))
			return
		}
		filter.Year = &year
	}

	items, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.fail(w, r, "list quotations failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.NewPage(items, filter.Page, total))
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	year := 0
	if raw := r.URL.Query().Get("year"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 2000 || v > 9999 {
			httpx.RespondError(w, shared.NewValidationError("year", "must be a four digit year"))
			return
		}
		year = v
	}
	stats, err := h.service.Stats(r.Context(), year)
	if err != nil {
		h.fail(w, r, "quotation stats failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	detail, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.fail(w, r, "get quotation failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, detail)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in QuotationInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	q, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, "create quotation failed", err)
		return
	}
	h.logger.Info("quotation created", slog.Int64("quotation_id", q.ID), slog.String("number", q.QuotationNo))
	w.Header().Set("Location", fmt.Sprintf("/api/quotations/%d", q.ID))
	httpx.JSON(w, http.StatusCreated, q)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in QuotationInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	q, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, "update quotation failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *Handler) Finalize(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	q, err := h.service.Finalize(r.Context(), id)
	if err != nil {
		h.fail(w, r, "finalize quotation failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.fail(w, r, "delete quotation failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) PDF(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	doc, err := h.service.Document(r.Context(), id)
	if err != nil {
		h.fail(w, r, "load quotation document failed", err)
		return
	}
	pdf, err := h.renderer.RenderQuotation(r.Context(), doc)
	if err != nil {
		h.logger.Error("render quotation pdf", slog.Int64("quotation_id", id), slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Bad Gateway", "document rendering is unavailable")
		return
	}
	filename := strings.ReplaceAll(doc.QuotationNo, "/", "-") + ".pdf"
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	level := slog.LevelWarn
	if httpx.StatusOf(err) >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, msg, slog.String("path", r.URL.Path), slog.Any("error", err))
	httpx.RespondError(w, err)
}
