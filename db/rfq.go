package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"rfq/internal/apperr"
	"rfq/models"
)

// runTx выполняет fn в одной транзакции: либо все записи операции
// фиксируются вместе, либо ни одной.
func (s *Storage) runTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// CreateRFQ сохраняет заявку вместе с позициями в одной транзакции.
// Номер уже выдан аллокатором и после создания не меняется.
func (s *Storage) CreateRFQ(ctx context.Context, rfq *models.RFQ) error {
	return s.runTx(ctx, func(tx *sqlx.Tx) error {
		query := `
            INSERT INTO rfq
                (number, title, commodity_type, total_value, currency, site_id, creator_username, status)
            VALUES
                ($1, $2, $3, $4, $5, $6, $7, $8)
            RETURNING id, created_at, updated_at`
		err := tx.QueryRowContext(ctx, query,
			rfq.Number, rfq.Title, rfq.CommodityType, rfq.TotalValue, rfq.Currency,
			rfq.SiteID, rfq.CreatorUsername, rfq.Status).
			Scan(&rfq.ID, &rfq.CreatedAt, &rfq.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return apperr.Conflict("DUPLICATE_NUMBER", "RFQ number %s already exists", rfq.Number)
			}
			return err
		}

		itemQuery := `
            INSERT INTO rfq_item
                (rfq_id, item_code, description, spec, unit, required_quantity, catalog_item_id, transport_leg_id)
            VALUES
                ($1, $2, $3, $4, $5, $6, $7, $8)
            RETURNING id, created_at`
		for i := range rfq.Items {
			it := &rfq.Items[i]
			it.RFQID = rfq.ID
			err := tx.QueryRowContext(ctx, itemQuery,
				rfq.ID, it.ItemCode, it.Description, it.Spec, it.Unit,
				it.RequiredQuantity, it.CatalogItemID, it.TransportLegID).
				Scan(&it.ID, &it.CreatedAt)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Storage) GetRFQ(ctx context.Context, id int) (*models.RFQ, error) {
	rfq := &models.RFQ{}
	query := `SELECT * FROM rfq WHERE id=$1`
	err := s.db.GetContext(ctx, rfq, query, id)
	if err != nil {
		return nil, notFoundOr(err, "RFQ_NOT_FOUND", "RFQ %d not found", id)
	}
	return rfq, nil
}

func (s *Storage) GetRFQItems(ctx context.Context, rfqID int) ([]models.RFQItem, error) {
	items := []models.RFQItem{}
	query := `SELECT * FROM rfq_item WHERE rfq_id=$1 ORDER BY id ASC`
	err := s.db.SelectContext(ctx, &items, query, rfqID)
	return items, err
}

// UpdateRFQStatus переводит заявку from -> to. Условие по текущему
// статусу в WHERE защищает от конкурентного изменения: если статус уже
// другой, обновления не будет и вернется конфликт.
func (s *Storage) UpdateRFQStatus(ctx context.Context, rfqID int, from, to models.RFQStatus) error {
	query := `UPDATE rfq SET status=$1, updated_at=NOW() WHERE id=$2 AND status=$3`
	res, err := s.db.ExecContext(ctx, query, to, rfqID, from)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.Conflict("ILLEGAL_TRANSITION", "RFQ %d is no longer in status %s", rfqID, from)
	}
	return nil
}

func (s *Storage) GetRFQs(ctx context.Context, statuses []string, limit, offset int) ([]models.RFQ, error) {
	baseQuery := `SELECT * FROM rfq`
	var args []interface{}
	filter := ""

	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i := range statuses {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
		}
		filter = fmt.Sprintf(" WHERE status IN (%s)", strings.Join(placeholders, ", "))
		for _, v := range statuses {
			args = append(args, v)
		}
	}

	query := baseQuery + filter + " ORDER BY created_at DESC"
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)

	rfqs := []models.RFQ{}
	err := s.db.SelectContext(ctx, &rfqs, query, args...)
	if err != nil {
		return nil, err
	}
	return rfqs, nil
}

func (s *Storage) GetUserRFQs(ctx context.Context, username string, limit, offset int) ([]models.RFQ, error) {
	query := `
        SELECT * FROM rfq
        WHERE creator_username = $1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3`
	rfqs := []models.RFQ{}
	err := s.db.SelectContext(ctx, &rfqs, query, username, limit, offset)
	return rfqs, err
}

// GetApprovalQueue — очередь второго уровня согласования: заявки,
// припаркованные в ADMIN_APPROVED с одобренным решением выше порога.
// Из обычных админских очередей такие заявки исключаются.
func (s *Storage) GetApprovalQueue(ctx context.Context, threshold decimal.Decimal, limit, offset int) ([]models.RFQ, error) {
	query := `
        SELECT r.* FROM rfq r
        JOIN final_decision d ON d.rfq_id = r.id
        WHERE r.status = $1
          AND d.status = $2
          AND d.total_approved_amount > $3
        ORDER BY r.created_at ASC
        LIMIT $4 OFFSET $5`
	rfqs := []models.RFQ{}
	err := s.db.SelectContext(ctx, &rfqs, query,
		models.StatusAdminApproved, models.DecisionApproved, threshold, limit, offset)
	return rfqs, err
}
