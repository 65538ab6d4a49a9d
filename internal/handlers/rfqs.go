package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"rfq/db"
	"rfq/internal/apperr"
	"rfq/models"
)

type createRFQRequest struct {
	Title         string          `json:"title" validate:"required,max=200"`
	CommodityType string          `json:"commodityType" validate:"required,oneof=GOODS SERVICE TRANSPORT"`
	TotalValue    decimal.Decimal `json:"totalValue"`
	Currency      string          `json:"currency" validate:"required,len=3"`
	SiteID        int             `json:"siteId" validate:"required"`
	Draft         bool            `json:"draft"`
	Items         []createRFQItem `json:"items" validate:"required,min=1,dive"`
}

type createRFQItem struct {
	ItemCode         string          `json:"itemCode" validate:"required,max=50"`
	Description      string          `json:"description" validate:"required,max=500"`
	Spec             string          `json:"spec" validate:"max=1000"`
	Unit             string          `json:"unit" validate:"required,max=20"`
	RequiredQuantity decimal.Decimal `json:"requiredQuantity"`
	CatalogItemID    *int            `json:"catalogItemId"`
	TransportLegID   *int            `json:"transportLegId"`
}

// CreateRFQHandler обрабатывает POST /api/rfqs/new.
// Номер документа выдается аллокатором в рамках площадки и
// после создания не меняется.
func (h *Handler) CreateRFQHandler(w http.ResponseWriter, r *http.Request) {
	// Ограничение размера тела, чтобы избежать DoS
	r.Body = http.MaxBytesReader(w, r.Body, 1048576)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var req createRFQRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON format", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.TotalValue.LessThanOrEqual(decimal.Zero) {
		h.writeError(w, r, apperr.Validation("INVALID_AMOUNT", "totalValue must be positive, got %s", req.TotalValue))
		return
	}
	for _, it := range req.Items {
		if it.RequiredQuantity.LessThanOrEqual(decimal.Zero) {
			h.writeError(w, r, apperr.Validation("INVALID_QUANTITY", "requiredQuantity must be positive for item %q", it.ItemCode))
			return
		}
	}

	username := r.URL.Query().Get("username")
	if username == "" {
		http.Error(w, "Missing username parameter", http.StatusBadRequest)
		return
	}
	if _, err := h.Store.GetEmployeeByUsername(r.Context(), username); err != nil {
		h.writeError(w, r, err)
		return
	}

	site, err := h.Store.GetSite(r.Context(), req.SiteID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	seq, err := h.Store.NextSequence(r.Context(), models.SequenceScopeRFQ(site.Code))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	status := models.StatusPending
	if req.Draft {
		status = models.StatusDraft
	}

	rfq := models.RFQ{
		Number:          models.RFQNumber(site.Code, seq),
		Title:           req.Title,
		CommodityType:   req.CommodityType,
		TotalValue:      req.TotalValue,
		Currency:        req.Currency,
		SiteID:          req.SiteID,
		CreatorUsername: username,
		Status:          status,
	}
	for _, it := range req.Items {
		rfq.Items = append(rfq.Items, models.RFQItem{
			ItemCode:         it.ItemCode,
			Description:      it.Description,
			Spec:             it.Spec,
			Unit:             it.Unit,
			RequiredQuantity: it.RequiredQuantity,
			CatalogItemID:    it.CatalogItemID,
			TransportLegID:   it.TransportLegID,
		})
	}

	if err := h.Store.CreateRFQ(r.Context(), &rfq); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, rfq)
}

// GetRFQsHandler возвращает список заявок с фильтром по статусу
func (h *Handler) GetRFQsHandler(w http.ResponseWriter, r *http.Request) {
	params := parsePaginationParams(r)

	// Фильтр status — может быть несколько через query param,
	// неизвестное значение отклоняется, а не отбрасывается молча
	var filtered []string
	for _, v := range r.URL.Query()["status"] {
		if !models.RFQStatus(v).Valid() {
			h.writeError(w, r, apperr.Validation("INVALID_STATUS", "unknown status %q in filter", v))
			return
		}
		filtered = append(filtered, v)
	}

	rfqs, err := h.Store.GetRFQs(r.Context(), filtered, params.Limit, params.Offset)
	if err != nil {
		http.Error(w, "Failed to get RFQs", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, rfqs)
}

// GetUserRFQsHandler возвращает заявки, созданные пользователем
func (h *Handler) GetUserRFQsHandler(w http.ResponseWriter, r *http.Request) {
	params := parsePaginationParams(r)

	username := r.URL.Query().Get("username")
	if username == "" {
		http.Error(w, "Missing username parameter", http.StatusBadRequest)
		return
	}

	rfqs, err := h.Store.GetUserRFQs(r.Context(), username, params.Limit, params.Offset)
	if err != nil {
		http.Error(w, "Failed to get user RFQs", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, rfqs)
}

// GetRFQHandler возвращает заявку с позициями и котировками
func (h *Handler) GetRFQHandler(w http.ResponseWriter, r *http.Request) {
	rfqID, err := strconv.Atoi(chi.URLParam(r, "rfqId"))
	if err != nil || rfqID <= 0 {
		http.Error(w, "Invalid rfqId", http.StatusBadRequest)
		return
	}

	rfq, err := h.Store.GetRFQ(r.Context(), rfqID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	rfq.Items, err = h.Store.GetRFQItems(r.Context(), rfqID)
	if err != nil {
		http.Error(w, "Failed to get RFQ items", http.StatusInternalServerError)
		return
	}
	rfq.Quotations, err = h.Store.GetQuotationsForRFQ(r.Context(), rfqID)
	if err != nil {
		http.Error(w, "Failed to get quotations", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, rfq)
}

// ChangeRFQStatusHandler — подача черновика и отзыв заявки.
// Статусы согласования напрямую не выставляются, только через решения.
func (h *Handler) ChangeRFQStatusHandler(w http.ResponseWriter, r *http.Request) {
	rfqID, err := strconv.Atoi(chi.URLParam(r, "rfqId"))
	if err != nil || rfqID <= 0 {
		http.Error(w, "Invalid rfqId", http.StatusBadRequest)
		return
	}

	username := r.URL.Query().Get("username")
	newStatus := models.RFQStatus(r.URL.Query().Get("status"))
	if username == "" || newStatus == "" {
		http.Error(w, "Missing status or username", http.StatusBadRequest)
		return
	}
	if newStatus != models.StatusPending && newStatus != models.StatusCancelled {
		h.writeError(w, r, apperr.Validation("INVALID_STATUS", "only submit (PENDING) and withdraw (CANCELLED) are allowed here"))
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

	// Подать или отозвать заявку может автор либо согласующий
	if rfq.CreatorUsername != username && employee.Role != models.RoleAdmin && employee.Role != models.RoleSuperAdmin {
		h.writeError(w, r, apperr.Permission("FORBIDDEN", "user %q cannot change RFQ %d", username, rfqID))
		return
	}

	if err := models.CheckTransition(rfq.Status, newStatus); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Store.UpdateRFQStatus(r.Context(), rfqID, rfq.Status, newStatus); err != nil {
		h.writeError(w, r, err)
		return
	}

	rfq.Status = newStatus
	h.writeJSON(w, http.StatusOK, rfq)
}

// GetApprovalQueueHandler — очередь второго уровня для super_admin
func (h *Handler) GetApprovalQueueHandler(w http.ResponseWriter, r *http.Request) {
	params := parsePaginationParams(r)

	username := r.URL.Query().Get("username")
	if username == "" {
		http.Error(w, "Missing username parameter", http.StatusBadRequest)
		return
	}
	employee, err := h.Store.GetEmployeeByUsername(r.Context(), username)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if employee.Role != models.RoleSuperAdmin {
		h.writeError(w, r, apperr.Permission("FORBIDDEN", "approval queue requires super_admin, got %q", string(employee.Role)))
		return
	}

	rfqs, err := h.Store.GetApprovalQueue(r.Context(), h.Approval.Threshold, params.Limit, params.Offset)
	if err != nil {
		http.Error(w, "Failed to get approval queue", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, rfqs)
}

// Сравнение котировок по одной позиции заявки
type ComparisonLine struct {
	RFQItemID int                `json:"rfqItemId"`
	ItemCode  string             `json:"itemCode"`
	Best      *db.ComparisonRow  `json:"best,omitempty"`
	Offers    []db.ComparisonRow `json:"offers"`
}

// GetComparisonHandler возвращает предложения поставщиков по каждой
// позиции заявки; лучшим считается предложение с минимальной ставкой.
func (h *Handler) GetComparisonHandler(w http.ResponseWriter, r *http.Request) {
	rfqID, err := strconv.Atoi(chi.URLParam(r, "rfqId"))
	if err != nil || rfqID <= 0 {
		http.Error(w, "Invalid rfqId", http.StatusBadRequest)
		return
	}
	if _, err := h.Store.GetRFQ(r.Context(), rfqID); err != nil {
		h.writeError(w, r, err)
		return
	}

	rows, err := h.Store.GetComparisonRows(r.Context(), rfqID)
	if err != nil {
		http.Error(w, "Failed to get comparison", http.StatusInternalServerError)
		return
	}

	// Строки отсортированы по (позиция, ставка): первая строка группы — лучшая
	lines := []ComparisonLine{}
	for _, row := range rows {
		if len(lines) == 0 || lines[len(lines)-1].RFQItemID != row.RFQItemID {
			best := row
			lines = append(lines, ComparisonLine{
				RFQItemID: row.RFQItemID,
				ItemCode:  row.ItemCode,
				Best:      &best,
			})
		}
		last := &lines[len(lines)-1]
		last.Offers = append(last.Offers, row)
	}
	h.writeJSON(w, http.StatusOK, lines)
}
