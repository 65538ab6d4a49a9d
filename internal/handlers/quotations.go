package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"rfq/internal/apperr"
	"rfq/models"
)

type submitQuotationRequest struct {
	RFQID          int                        `json:"rfqId" validate:"required"`
	SupplierID     int                        `json:"supplierId" validate:"required"`
	Rates          map[string]decimal.Decimal `json:"rates" validate:"required,min=1"`
	Currency       string                     `json:"currency" validate:"required,len=3"`
	FreightTerms   string                     `json:"freightTerms" validate:"max=200"`
	PackingTerms   string                     `json:"packingTerms" validate:"max=200"`
	LeadTimeDays   int                        `json:"leadTimeDays" validate:"gte=0"`
	WarrantyMonths int                        `json:"warrantyMonths" validate:"gte=0"`
}

// SubmitQuotationHandler обрабатывает POST /api/quotations/new:
// ценовой ответ одного поставщика на заявку. Котировки накапливаются,
// пока заявка в статусе PENDING, статус заявки не меняется.
func (h *Handler) SubmitQuotationHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1048576)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var req submitQuotationRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON format", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rfq, err := h.Store.GetRFQ(r.Context(), req.RFQID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if rfq.Status != models.StatusPending {
		h.writeError(w, r, apperr.Conflict("RFQ_NOT_OPEN", "RFQ %d is %s, quotations are accepted only while PENDING", rfq.ID, rfq.Status))
		return
	}

	supplier, err := h.Store.GetSupplier(r.Context(), req.SupplierID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	// Проверка до записи; уникальный индекс в БД закрывает гонку
	exists, err := h.Store.HasQuotation(r.Context(), rfq.ID, supplier.ID)
	if err != nil {
		http.Error(w, "Failed to check quotation", http.StatusInternalServerError)
		return
	}
	if exists {
		h.writeError(w, r, apperr.Conflict("DUPLICATE_QUOTATION", "supplier %d already quoted RFQ %d", supplier.ID, rfq.ID))
		return
	}

	rfqItems, err := h.Store.GetRFQItems(r.Context(), rfq.ID)
	if err != nil {
		http.Error(w, "Failed to get RFQ items", http.StatusInternalServerError)
		return
	}

	items, total, err := models.BuildQuotationItems(rfqItems, req.Rates)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	seq, err := h.Store.NextSequence(r.Context(), models.SequenceScopeQuotation(rfq.Number, supplier.Code))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	quotation := models.Quotation{
		RFQID:          rfq.ID,
		SupplierID:     supplier.ID,
		Number:         models.QuotationNumber(rfq.Number, supplier.Code, seq),
		TotalAmount:    total,
		Currency:       req.Currency,
		FreightTerms:   req.FreightTerms,
		PackingTerms:   req.PackingTerms,
		LeadTimeDays:   req.LeadTimeDays,
		WarrantyMonths: req.WarrantyMonths,
		SupplierCode:   supplier.Code,
		SupplierName:   supplier.Name,
		Items:          items,
	}

	if err := h.Store.CreateQuotation(r.Context(), &quotation); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, quotation)
}

// GetQuotationsForRFQHandler возвращает котировки заявки с позициями
func (h *Handler) GetQuotationsForRFQHandler(w http.ResponseWriter, r *http.Request) {
	rfqID, err := strconv.Atoi(chi.URLParam(r, "rfqId"))
	if err != nil || rfqID <= 0 {
		http.Error(w, "Invalid rfqId", http.StatusBadRequest)
		return
	}
	if _, err := h.Store.GetRFQ(r.Context(), rfqID); err != nil {
		h.writeError(w, r, err)
		return
	}

	quotations, err := h.Store.GetQuotationsForRFQ(r.Context(), rfqID)
	if err != nil {
		http.Error(w, "Failed to get quotations", http.StatusInternalServerError)
		return
	}
	for i := range quotations {
		items, err := h.Store.GetQuotationItems(r.Context(), quotations[i].ID)
		if err != nil {
			http.Error(w, "Failed to get quotation items", http.StatusInternalServerError)
			return
		}
		quotations[i].Items = items
	}
	h.writeJSON(w, http.StatusOK, quotations)
}
