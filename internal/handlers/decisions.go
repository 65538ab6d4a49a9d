package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"rfq/internal/apperr"
	"rfq/internal/approval"
	"rfq/models"
)

type decisionItemRequest struct {
	RFQItemID       int             `json:"rfqItemId" validate:"required"`
	SupplierID      *int            `json:"supplierId"`
	QuotationID     *int            `json:"quotationId"`
	FinalUnitPrice  decimal.Decimal `json:"finalUnitPrice"`
	FinalTotalPrice decimal.Decimal `json:"finalTotalPrice"`
}

type createDecisionRequest struct {
	Status models.DecisionStatus `json:"status" validate:"required"`
	Notes  string                `json:"notes" validate:"max=1000"`
	// Заявленная клиентом сумма игнорируется: итог всегда
	// пересчитывается по позициям
	TotalApprovedAmount decimal.Decimal       `json:"totalApprovedAmount"`
	Items               []decisionItemRequest `json:"items" validate:"required,min=1,dive"`
}

// Ответ операций над решением: решение плюс новый статус заявки
type decisionResponse struct {
	Decision  *models.FinalDecision `json:"decision"`
	RFQStatus models.RFQStatus      `json:"rfqStatus"`
}

// CreateFinalDecisionHandler обрабатывает POST /api/rfqs/{rfqId}/decision.
// Решение, его позиции и переход статуса заявки фиксируются одной
// транзакцией. Повторное создание решения — конфликт, данные первого
// решения не меняются.
func (h *Handler) CreateFinalDecisionHandler(w http.ResponseWriter, r *http.Request) {
	rfqID, err := strconv.Atoi(chi.URLParam(r, "rfqId"))
	if err != nil || rfqID <= 0 {
		http.Error(w, "Invalid rfqId", http.StatusBadRequest)
		return
	}
	username := r.URL.Query().Get("username")
	if username == "" {
		http.Error(w, "Missing username parameter", http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1048576)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var req createDecisionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON format", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	employee, err := h.Store.GetEmployeeByUsername(r.Context(), username)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	rfq, err := h.Store.GetRFQ(r.Context(), rfqID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	// Решение создается только по заявке на рассмотрении
	if rfq.Status != models.StatusPending {
		h.writeError(w, r, apperr.Conflict("RFQ_NOT_OPEN", "RFQ %d is %s, decisions are created only while PENDING", rfq.ID, rfq.Status))
		return
	}

	// Ранняя проверка на дубликат; уникальный индекс закрывает гонку
	if _, err := h.Store.GetFinalDecisionByRFQ(r.Context(), rfqID); err == nil {
		h.writeError(w, r, apperr.Conflict("DECISION_EXISTS", "final decision already exists for RFQ %d", rfqID))
		return
	} else if apperr.KindOf(err) != apperr.KindNotFound {
		h.writeError(w, r, err)
		return
	}

	rfqItems, err := h.Store.GetRFQItems(r.Context(), rfqID)
	if err != nil {
		http.Error(w, "Failed to get RFQ items", http.StatusInternalServerError)
		return
	}

	submitted, err := h.resolveDecisionItems(r, req.Items)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	items, total, err := models.BuildDecisionItems(rfqItems, submitted)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	newStatus, err := approval.Route(h.Approval, total, req.Status, employee.Role, rfq.Status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	decision := models.FinalDecision{
		RFQID:               rfqID,
		ApproverUsername:    username,
		Status:              req.Status,
		TotalApprovedAmount: total,
		Currency:            rfq.Currency,
		Notes:               req.Notes,
		Items:               items,
	}
	if req.Status == models.DecisionApproved {
		now := time.Now().UTC()
		decision.ApprovedAt = &now
	}

	if err := h.Store.CreateFinalDecision(r.Context(), &decision, rfq.Status, newStatus); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, decisionResponse{Decision: &decision, RFQStatus: newStatus})
}

// resolveDecisionItems подставляет денормализованные код и имя
// поставщика; несуществующий поставщик — ошибка до любой записи.
func (h *Handler) resolveDecisionItems(r *http.Request, reqItems []decisionItemRequest) ([]models.FinalDecisionItem, error) {
	items := make([]models.FinalDecisionItem, 0, len(reqItems))
	for _, it := range reqItems {
		di := models.FinalDecisionItem{
			RFQItemID:       it.RFQItemID,
			SupplierID:      it.SupplierID,
			QuotationID:     it.QuotationID,
			FinalUnitPrice:  it.FinalUnitPrice,
			FinalTotalPrice: it.FinalTotalPrice,
		}
		if it.SupplierID != nil {
			supplier, err := h.Store.GetSupplier(r.Context(), *it.SupplierID)
			if err != nil {
				return nil, err
			}
			di.SupplierCode = supplier.Code
			di.SupplierName = supplier.Name
		}
		items = append(items, di)
	}
	return items, nil
}

// GetFinalDecisionHandler возвращает решение по заявке с позициями
func (h *Handler) GetFinalDecisionHandler(w http.ResponseWriter, r *http.Request) {
	rfqID, err := strconv.Atoi(chi.URLParam(r, "rfqId"))
	if err != nil || rfqID <= 0 {
		http.Error(w, "Invalid rfqId", http.StatusBadRequest)
		return
	}

	decision, err := h.Store.GetFinalDecisionByRFQ(r.Context(), rfqID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	decision.Items, err = h.Store.GetFinalDecisionItems(r.Context(), decision.ID)
	if err != nil {
		http.Error(w, "Failed to get decision items", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, decision)
}

type amendDecisionRequest struct {
	Notes string                `json:"notes" validate:"max=1000"`
	Items []decisionItemRequest `json:"items" validate:"required,min=1,dive"`
}

// AmendFinalDecisionHandler обрабатывает PATCH /api/rfqs/{rfqId}/decision.
// Единственный путь правки решения: позиции заменяются, сумма
// пересчитывается тем же способом, что и при создании.
func (h *Handler) AmendFinalDecisionHandler(w http.ResponseWriter, r *http.Request) {
	rfqID, err := strconv.Atoi(chi.URLParam(r, "rfqId"))
	if err != nil || rfqID <= 0 {
		http.Error(w, "Invalid rfqId", http.StatusBadRequest)
		return
	}
	username := r.URL.Query().Get("username")
	if username == "" {
		http.Error(w, "Missing username parameter", http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1048576)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var req amendDecisionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON format", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	employee, err := h.Store.GetEmployeeByUsername(r.Context(), username)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if employee.Role != models.RoleAdmin && employee.Role != models.RoleSuperAdmin {
		h.writeError(w, r, apperr.Permission("FORBIDDEN", "role %q cannot amend final decisions", string(employee.Role)))
		return
	}

	rfq, err := h.Store.GetRFQ(r.Context(), rfqID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	// Поля решения заморожены вместе с заявкой
	if rfq.Status.Terminal() {
		h.writeError(w, r, apperr.Conflict("RFQ_FINALIZED", "RFQ %d is %s, decision can no longer be amended", rfq.ID, rfq.Status))
		return
	}

	decision, err := h.Store.GetFinalDecisionByRFQ(r.Context(), rfqID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	rfqItems, err := h.Store.GetRFQItems(r.Context(), rfqID)
	if err != nil {
		http.Error(w, "Failed to get RFQ items", http.StatusInternalServerError)
		return
	}
	submitted, err := h.resolveDecisionItems(r, req.Items)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	items, total, err := models.BuildDecisionItems(rfqItems, submitted)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	decision.Notes = req.Notes
	decision.Items = items
	if err := h.Store.AmendFinalDecision(r.Context(), decision, total); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, decision)
}

// FinalizeDecisionHandler обрабатывает PUT /api/rfqs/{rfqId}/decision/finalize:
// вердикт по существующему решению. На заявке в PENDING это первый
// уровень согласования, на припаркованной в ADMIN_APPROVED — второй
// (только super_admin). Вердикт и статус заявки фиксируются вместе.
func (h *Handler) FinalizeDecisionHandler(w http.ResponseWriter, r *http.Request) {
	rfqID, err := strconv.Atoi(chi.URLParam(r, "rfqId"))
	if err != nil || rfqID <= 0 {
		http.Error(w, "Invalid rfqId", http.StatusBadRequest)
		return
	}
	username := r.URL.Query().Get("username")
	verdict := models.DecisionStatus(r.URL.Query().Get("verdict"))
	if username == "" || verdict == "" {
		http.Error(w, "Missing verdict or username", http.StatusBadRequest)
		return
	}
	if verdict != models.DecisionApproved && verdict != models.DecisionRejected {
		h.writeError(w, r, apperr.Validation("INVALID_STATUS", "verdict must be APPROVED or REJECTED, got %q", string(verdict)))
		return
	}

	employee, err := h.Store.GetEmployeeByUsername(r.Context(), username)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	rfq, err := h.Store.GetRFQ(r.Context(), rfqID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	decision, err := h.Store.GetFinalDecisionByRFQ(r.Context(), rfqID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	newStatus, err := approval.Route(h.Approval, decision.TotalApprovedAmount, verdict, employee.Role, rfq.Status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.Store.FinalizeDecision(r.Context(), decision.ID, rfqID, verdict, rfq.Status, newStatus); err != nil {
		h.writeError(w, r, err)
		return
	}

	// Ответ отражает запись: отметка одобрения живет только на
	// одобренном решении
	decision.Status = verdict
	now := time.Now().UTC()
	decision.UpdatedAt = now
	if verdict == models.DecisionApproved {
		if decision.ApprovedAt == nil {
			decision.ApprovedAt = &now
		}
	} else {
		decision.ApprovedAt = nil
	}
	h.writeJSON(w, http.StatusOK, decisionResponse{Decision: decision, RFQStatus: newStatus})
}
