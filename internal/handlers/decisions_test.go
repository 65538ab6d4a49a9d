package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"rfq/internal/handlers/testutils"
	"rfq/models"
)

type decisionResponse struct {
	Decision  *models.FinalDecision `json:"decision"`
	RFQStatus models.RFQStatus      `json:"rfqStatus"`
}

func decisionBody() string {
	// 10*100 + 5*25 = 1125; заявленная сумма 999999 должна игнорироваться
	return `{
        "status": "APPROVED",
        "totalApprovedAmount": "999999",
        "items": [
            {"rfqItemId": 1, "supplierId": 3, "finalUnitPrice": "100", "finalTotalPrice": "1000"},
            {"rfqItemId": 2, "supplierId": 3, "finalUnitPrice": "25", "finalTotalPrice": "125"}
        ]
    }`
}

func TestCreateFinalDecision(t *testing.T) {
	mockStore := &MockStorage{
		employee: adminEmployee(),
		rfq:      pendingRFQ(),
		rfqItems: twoRFQItems(),
		supplier: &models.Supplier{ID: 3, Code: "SUP1", Name: "Supplier One"},
	}
	handler := newTestHandler(mockStore)

	req := httptest.NewRequest(http.MethodPost, "/api/rfqs/1/decision?username=admin1", strings.NewReader(decisionBody()))
	req = testutils.WithRFQID(req, "1")
	rr := httptest.NewRecorder()

	handler.CreateFinalDecisionHandler(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var got decisionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	// Сумма ниже порога: одно согласование закрывает заявку
	require.Equal(t, models.StatusApproved, got.RFQStatus)
	require.NotNil(t, got.Decision.ApprovedAt)

	d := mockStore.createdDecision
	require.NotNil(t, d)
	require.True(t, decimal.NewFromInt(1125).Equal(d.TotalApprovedAmount), "got %s", d.TotalApprovedAmount)
	require.Equal(t, "SUP1", d.Items[0].SupplierCode)
}

func TestCreateFinalDecisionHighValueParks(t *testing.T) {
	mockStore := &MockStorage{
		employee: adminEmployee(),
		rfq:      pendingRFQ(),
		rfqItems: twoRFQItems(),
		supplier: &models.Supplier{ID: 3, Code: "SUP1"},
	}
	handler := newTestHandler(mockStore)

	// 10*30000 + 5*100 = 300500 > порога 200000
	body := `{
        "status": "APPROVED",
        "items": [
            {"rfqItemId": 1, "supplierId": 3, "finalUnitPrice": "30000", "finalTotalPrice": "300000"},
            {"rfqItemId": 2, "supplierId": 3, "finalUnitPrice": "100", "finalTotalPrice": "500"}
        ]
    }`
	req := httptest.NewRequest(http.MethodPost, "/api/rfqs/1/decision?username=admin1", strings.NewReader(body))
	req = testutils.WithRFQID(req, "1")
	rr := httptest.NewRecorder()

	handler.CreateFinalDecisionHandler(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var got decisionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Equal(t, models.StatusAdminApproved, got.RFQStatus)
}

func TestCreateFinalDecisionDuplicate(t *testing.T) {
	existing := &models.FinalDecision{
		ID:                  1,
		RFQID:               1,
		Status:              models.DecisionApproved,
		TotalApprovedAmount: decimal.NewFromInt(1125),
	}
	mockStore := &MockStorage{
		employee: adminEmployee(),
		rfq:      pendingRFQ(),
		rfqItems: twoRFQItems(),
		supplier: &models.Supplier{ID: 3, Code: "SUP1"},
		decision: existing,
	}
	handler := newTestHandler(mockStore)

	req := httptest.NewRequest(http.MethodPost, "/api/rfqs/1/decision?username=admin1", strings.NewReader(decisionBody()))
	req = testutils.WithRFQID(req, "1")
	rr := httptest.NewRecorder()

	handler.CreateFinalDecisionHandler(rr, req)
	require.Equal(t, http.StatusConflict, rr.Code)
	require.Contains(t, rr.Body.String(), "DECISION_EXISTS")

	// Первое решение осталось нетронутым
	require.Nil(t, mockStore.createdDecision)
	require.True(t, decimal.NewFromInt(1125).Equal(existing.TotalApprovedAmount))
}

func TestCreateFinalDecisionRequesterForbidden(t *testing.T) {
	mockStore := &MockStorage{
		employee: &models.Employee{ID: 2, Username: "user1", Role: models.RoleRequester},
		rfq:      pendingRFQ(),
		rfqItems: twoRFQItems(),
		supplier: &models.Supplier{ID: 3, Code: "SUP1"},
	}
	handler := newTestHandler(mockStore)

	req := httptest.NewRequest(http.MethodPost, "/api/rfqs/1/decision?username=user1", strings.NewReader(decisionBody()))
	req = testutils.WithRFQID(req, "1")
	rr := httptest.NewRecorder()

	handler.CreateFinalDecisionHandler(rr, req)
	require.Equal(t, http.StatusForbidden, rr.Code)
	require.Nil(t, mockStore.createdDecision)
}

func TestCreateFinalDecisionUnknownItem(t *testing.T) {
	mockStore := &MockStorage{
		employee: adminEmployee(),
		rfq:      pendingRFQ(),
		rfqItems: twoRFQItems(),
		supplier: &models.Supplier{ID: 3, Code: "SUP1"},
	}
	handler := newTestHandler(mockStore)

	body := `{
        "status": "APPROVED",
        "items": [{"rfqItemId": 99, "supplierId": 3, "finalUnitPrice": "100", "finalTotalPrice": "1000"}]
    }`
	req := httptest.NewRequest(http.MethodPost, "/api/rfqs/1/decision?username=admin1", strings.NewReader(body))
	req = testutils.WithRFQID(req, "1")
	rr := httptest.NewRecorder()

	handler.CreateFinalDecisionHandler(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "UNKNOWN_ITEM")
}

func TestGetFinalDecisionNotFound(t *testing.T) {
	mockStore := &MockStorage{rfq: pendingRFQ()}
	handler := newTestHandler(mockStore)

	req := httptest.NewRequest(http.MethodGet, "/api/rfqs/1/decision", nil)
	req = testutils.WithRFQID(req, "1")
	rr := httptest.NewRecorder()

	handler.GetFinalDecisionHandler(rr, req)
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Contains(t, rr.Body.String(), "DECISION_NOT_FOUND")
}

func TestAmendFinalDecision(t *testing.T) {
	mockStore := &MockStorage{
		employee: adminEmployee(),
		rfq:      pendingRFQ(),
		rfqItems: twoRFQItems(),
		supplier: &models.Supplier{ID: 3, Code: "SUP1"},
		decision: &models.FinalDecision{ID: 1, RFQID: 1, Status: models.DecisionPending, TotalApprovedAmount: decimal.NewFromInt(1125)},
	}
	handler := newTestHandler(mockStore)

	// Правим одну позицию: 10*90 = 900
	body := `{
        "notes": "renegotiated",
        "items": [{"rfqItemId": 1, "supplierId": 3, "finalUnitPrice": "90", "finalTotalPrice": "900"}]
    }`
	req := httptest.NewRequest(http.MethodPatch, "/api/rfqs/1/decision?username=admin1", strings.NewReader(body))
	req = testutils.WithRFQID(req, "1")
	rr := httptest.NewRecorder()

	handler.AmendFinalDecisionHandler(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.True(t, decimal.NewFromInt(900).Equal(mockStore.amendedTotal), "got %s", mockStore.amendedTotal)
}

func TestAmendFinalDecisionAfterTerminal(t *testing.T) {
	rfq := pendingRFQ()
	rfq.Status = models.StatusApproved
	mockStore := &MockStorage{
		employee: adminEmployee(),
		rfq:      rfq,
		decision: &models.FinalDecision{ID: 1, RFQID: 1, Status: models.DecisionApproved},
	}
	handler := newTestHandler(mockStore)

	body := `{"items": [{"rfqItemId": 1, "finalUnitPrice": "90", "finalTotalPrice": "900"}]}`
	req := httptest.NewRequest(http.MethodPatch, "/api/rfqs/1/decision?username=admin1", strings.NewReader(body))
	req = testutils.WithRFQID(req, "1")
	rr := httptest.NewRecorder()

	handler.AmendFinalDecisionHandler(rr, req)
	require.Equal(t, http.StatusConflict, rr.Code)
	require.Contains(t, rr.Body.String(), "RFQ_FINALIZED")
}

func TestFinalizeDecisionSecondTier(t *testing.T) {
	rfq := pendingRFQ()
	rfq.Status = models.StatusAdminApproved
	mockStore := &MockStorage{
		employee: &models.Employee{ID: 1, Username: "boss", Role: models.RoleSuperAdmin},
		rfq:      rfq,
		decision: &models.FinalDecision{ID: 1, RFQID: 1, Status: models.DecisionApproved, TotalApprovedAmount: decimal.NewFromInt(300500)},
	}
	handler := newTestHandler(mockStore)

	req := httptest.NewRequest(http.MethodPut, "/api/rfqs/1/decision/finalize?username=boss&verdict=APPROVED", nil)
	req = testutils.WithRFQID(req, "1")
	rr := httptest.NewRecorder()

	handler.FinalizeDecisionHandler(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var got decisionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Equal(t, models.StatusApproved, got.RFQStatus)
	require.NotNil(t, got.Decision.ApprovedAt)
	require.Equal(t, models.DecisionApproved, mockStore.finalizedVerdict)
	require.Equal(t, models.StatusApproved, mockStore.finalizedTo)
}

func TestFinalizeDecisionSecondTierReject(t *testing.T) {
	// Решение одобрено на первом уровне, отметка одобрения уже стоит
	approvedAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	rfq := pendingRFQ()
	rfq.Status = models.StatusAdminApproved
	mockStore := &MockStorage{
		employee: &models.Employee{ID: 1, Username: "boss", Role: models.RoleSuperAdmin},
		rfq:      rfq,
		decision: &models.FinalDecision{
			ID:                  1,
			RFQID:               1,
			Status:              models.DecisionApproved,
			TotalApprovedAmount: decimal.NewFromInt(300500),
			ApprovedAt:          &approvedAt,
		},
	}
	handler := newTestHandler(mockStore)

	req := httptest.NewRequest(http.MethodPut, "/api/rfqs/1/decision/finalize?username=boss&verdict=REJECTED", nil)
	req = testutils.WithRFQID(req, "1")
	rr := httptest.NewRecorder()

	handler.FinalizeDecisionHandler(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var got decisionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Equal(t, models.StatusRejected, got.RFQStatus)
	require.Equal(t, models.DecisionRejected, got.Decision.Status)
	// На отклоненном решении отметки одобрения быть не должно
	require.Nil(t, got.Decision.ApprovedAt)
}

func TestFinalizeDecisionSecondTierAdminForbidden(t *testing.T) {
	rfq := pendingRFQ()
	rfq.Status = models.StatusAdminApproved
	mockStore := &MockStorage{
		employee: adminEmployee(),
		rfq:      rfq,
		decision: &models.FinalDecision{ID: 1, RFQID: 1, Status: models.DecisionApproved, TotalApprovedAmount: decimal.NewFromInt(300500)},
	}
	handler := newTestHandler(mockStore)

	req := httptest.NewRequest(http.MethodPut, "/api/rfqs/1/decision/finalize?username=admin1&verdict=APPROVED", nil)
	req = testutils.WithRFQID(req, "1")
	rr := httptest.NewRecorder()

	handler.FinalizeDecisionHandler(rr, req)
	require.Equal(t, http.StatusForbidden, rr.Code)
	require.Empty(t, mockStore.finalizedVerdict)
}

func TestFinalizeDecisionReject(t *testing.T) {
	mockStore := &MockStorage{
		employee: adminEmployee(),
		rfq:      pendingRFQ(),
		decision: &models.FinalDecision{ID: 1, RFQID: 1, Status: models.DecisionPending, TotalApprovedAmount: decimal.NewFromInt(1125)},
	}
	handler := newTestHandler(mockStore)

	req := httptest.NewRequest(http.MethodPut, "/api/rfqs/1/decision/finalize?username=admin1&verdict=REJECTED", nil)
	req = testutils.WithRFQID(req, "1")
	rr := httptest.NewRecorder()

	handler.FinalizeDecisionHandler(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var got decisionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Equal(t, models.StatusRejected, got.RFQStatus)
	require.Equal(t, models.DecisionRejected, mockStore.finalizedVerdict)
}

func TestFinalizeDecisionBadVerdict(t *testing.T) {
	mockStore := &MockStorage{
		employee: adminEmployee(),
		rfq:      pendingRFQ(),
		decision: &models.FinalDecision{ID: 1, RFQID: 1},
	}
	handler := newTestHandler(mockStore)

	req := httptest.NewRequest(http.MethodPut, "/api/rfqs/1/decision/finalize?username=admin1&verdict=MAYBE", nil)
	req = testutils.WithRFQID(req, "1")
	rr := httptest.NewRecorder()

	handler.FinalizeDecisionHandler(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "INVALID_STATUS")
}
