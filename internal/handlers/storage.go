package handlers

import (
	"context"

	"github.com/shopspring/decimal"

	"rfq/db"
	"rfq/models"
)

type StorageInterface interface {
	GetSite(ctx context.Context, id int) (*models.Site, error)
	GetSupplier(ctx context.Context, id int) (*models.Supplier, error)
	GetEmployeeByUsername(ctx context.Context, username string) (*models.Employee, error)

	NextSequence(ctx context.Context, scopeKey string) (int, error)

	CreateRFQ(ctx context.Context, rfq *models.RFQ) error
	GetRFQ(ctx context.Context, rfqID int) (*models.RFQ, error)
	GetRFQItems(ctx context.Context, rfqID int) ([]models.RFQItem, error)
	UpdateRFQStatus(ctx context.Context, rfqID int, from, to models.RFQStatus) error
	GetRFQs(ctx context.Context, statuses []string, limit, offset int) ([]models.RFQ, error)
	GetUserRFQs(ctx context.Context, username string, limit, offset int) ([]models.RFQ, error)
	GetApprovalQueue(ctx context.Context, threshold decimal.Decimal, limit, offset int) ([]models.RFQ, error)

	CreateQuotation(ctx context.Context, q *models.Quotation) error
	HasQuotation(ctx context.Context, rfqID, supplierID int) (bool, error)
	GetQuotationsForRFQ(ctx context.Context, rfqID int) ([]models.Quotation, error)
	GetQuotationItems(ctx context.Context, quotationID int) ([]models.QuotationItem, error)
	GetComparisonRows(ctx context.Context, rfqID int) ([]db.ComparisonRow, error)

	CreateFinalDecision(ctx context.Context, d *models.FinalDecision, rfqFrom, rfqTo models.RFQStatus) error
	GetFinalDecisionByRFQ(ctx context.Context, rfqID int) (*models.FinalDecision, error)
	GetFinalDecisionItems(ctx context.Context, decisionID int) ([]models.FinalDecisionItem, error)
	AmendFinalDecision(ctx context.Context, d *models.FinalDecision, total decimal.Decimal) error
	FinalizeDecision(ctx context.Context, decisionID, rfqID int, verdict models.DecisionStatus, rfqFrom, rfqTo models.RFQStatus) error
}
