package db

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"rfq/internal/apperr"
	"rfq/models"
)

// CreateQuotation сохраняет котировку с позициями в одной транзакции.
// Уникальный индекс по (rfq_id, supplier_id) страхует проверку
// на дубликат от гонки двух одновременных отправок.
func (s *Storage) CreateQuotation(ctx context.Context, q *models.Quotation) error {
	return s.runTx(ctx, func(tx *sqlx.Tx) error {
		query := `
            INSERT INTO quotation
                (rfq_id, supplier_id, number, total_amount, currency,
                 freight_terms, packing_terms, lead_time_days, warranty_months)
            VALUES
                ($1, $2, $3, $4, $5, $6, $7, $8, $9)
            RETURNING id, created_at`
		err := tx.QueryRowContext(ctx, query,
			q.RFQID, q.SupplierID, q.Number, q.TotalAmount, q.Currency,
			q.FreightTerms, q.PackingTerms, q.LeadTimeDays, q.WarrantyMonths).
			Scan(&q.ID, &q.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return apperr.Conflict("DUPLICATE_QUOTATION", "supplier %d already quoted RFQ %d", q.SupplierID, q.RFQID)
			}
			return err
		}

		itemQuery := `
            INSERT INTO quotation_item
                (quotation_id, rfq_item_id, unit_price, quantity, total_price)
            VALUES
                ($1, $2, $3, $4, $5)
            RETURNING id`
		for i := range q.Items {
			it := &q.Items[i]
			it.QuotationID = q.ID
			err := tx.QueryRowContext(ctx, itemQuery,
				q.ID, it.RFQItemID, it.UnitPrice, it.Quantity, it.TotalPrice).
				Scan(&it.ID)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Storage) GetQuotation(ctx context.Context, id int) (*models.Quotation, error) {
	q := &models.Quotation{}
	query := `
        SELECT q.*, s.code AS supplier_code, s.name AS supplier_name
        FROM quotation q
        JOIN supplier s ON s.id = q.supplier_id
        WHERE q.id = $1`
	err := s.db.GetContext(ctx, q, query, id)
	if err != nil {
		return nil, notFoundOr(err, "QUOTATION_NOT_FOUND", "quotation %d not found", id)
	}
	return q, nil
}

// HasQuotation: есть ли активная котировка поставщика по заявке
func (s *Storage) HasQuotation(ctx context.Context, rfqID, supplierID int) (bool, error) {
	var count int
	query := `SELECT COUNT(1) FROM quotation WHERE rfq_id=$1 AND supplier_id=$2`
	err := s.db.GetContext(ctx, &count, query, rfqID, supplierID)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Storage) GetQuotationsForRFQ(ctx context.Context, rfqID int) ([]models.Quotation, error) {
	quotations := []models.Quotation{}
	query := `
        SELECT q.*, s.code AS supplier_code, s.name AS supplier_name
        FROM quotation q
        JOIN supplier s ON s.id = q.supplier_id
        WHERE q.rfq_id = $1
        ORDER BY q.created_at ASC`
	err := s.db.SelectContext(ctx, &quotations, query, rfqID)
	return quotations, err
}

func (s *Storage) GetQuotationItems(ctx context.Context, quotationID int) ([]models.QuotationItem, error) {
	items := []models.QuotationItem{}
	query := `SELECT * FROM quotation_item WHERE quotation_id=$1 ORDER BY id ASC`
	err := s.db.SelectContext(ctx, &items, query, quotationID)
	return items, err
}

// Строка сравнения котировок: ставка одного поставщика по одной позиции
type ComparisonRow struct {
	RFQItemID    int             `db:"rfq_item_id" json:"rfqItemId"`
	ItemCode     string          `db:"item_code" json:"itemCode"`
	QuotationID  int             `db:"quotation_id" json:"quotationId"`
	SupplierID   int             `db:"supplier_id" json:"supplierId"`
	SupplierCode string          `db:"supplier_code" json:"supplierCode"`
	SupplierName string          `db:"supplier_name" json:"supplierName"`
	UnitPrice    decimal.Decimal `db:"unit_price" json:"unitPrice"`
	TotalPrice   decimal.Decimal `db:"total_price" json:"totalPrice"`
}

func (s *Storage) GetComparisonRows(ctx context.Context, rfqID int) ([]ComparisonRow, error) {
	rows := []ComparisonRow{}
	query := `
        SELECT qi.rfq_item_id, ri.item_code, qi.quotation_id, q.supplier_id,
               s.code AS supplier_code, s.name AS supplier_name,
               qi.unit_price, qi.total_price
        FROM quotation_item qi
        JOIN quotation q ON q.id = qi.quotation_id
        JOIN supplier s ON s.id = q.supplier_id
        JOIN rfq_item ri ON ri.id = qi.rfq_item_id
        WHERE q.rfq_id = $1
        ORDER BY qi.rfq_item_id ASC, qi.unit_price ASC`
	err := s.db.SelectContext(ctx, &rows, query, rfqID)
	return rows, err
}
