package db

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"rfq/internal/apperr"
	"rfq/models"
)

// CreateFinalDecision сохраняет решение, его позиции и новый статус
// заявки в одной транзакции: читатель никогда не увидит заявку, статус
// которой подразумевает еще не зафиксированное решение. Уникальный
// индекс по rfq_id гарантирует не более одного решения на заявку.
func (s *Storage) CreateFinalDecision(ctx context.Context, d *models.FinalDecision, rfqFrom, rfqTo models.RFQStatus) error {
	return s.runTx(ctx, func(tx *sqlx.Tx) error {
		query := `
            INSERT INTO final_decision
                (rfq_id, approver_username, status, total_approved_amount, currency, notes, approved_at)
            VALUES
                ($1, $2, $3, $4, $5, $6, $7)
            RETURNING id, created_at, updated_at`
		err := tx.QueryRowContext(ctx, query,
			d.RFQID, d.ApproverUsername, d.Status, d.TotalApprovedAmount,
			d.Currency, d.Notes, d.ApprovedAt).
			Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return apperr.Conflict("DECISION_EXISTS", "final decision already exists for RFQ %d", d.RFQID)
			}
			return err
		}

		if err := insertDecisionItems(ctx, tx, d); err != nil {
			return err
		}
		return updateRFQStatusTx(ctx, tx, d.RFQID, rfqFrom, rfqTo)
	})
}

func insertDecisionItems(ctx context.Context, tx *sqlx.Tx, d *models.FinalDecision) error {
	query := `
        INSERT INTO final_decision_item
            (decision_id, rfq_item_id, supplier_id, quotation_id,
             supplier_code, supplier_name, final_unit_price, final_total_price)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id`
	for i := range d.Items {
		it := &d.Items[i]
		it.DecisionID = d.ID
		err := tx.QueryRowContext(ctx, query,
			d.ID, it.RFQItemID, it.SupplierID, it.QuotationID,
			it.SupplierCode, it.SupplierName, it.FinalUnitPrice, it.FinalTotalPrice).
			Scan(&it.ID)
		if err != nil {
			return err
		}
	}
	return nil
}

func updateRFQStatusTx(ctx context.Context, tx *sqlx.Tx, rfqID int, from, to models.RFQStatus) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE rfq SET status=$1, updated_at=NOW() WHERE id=$2 AND status=$3`, to, rfqID, from)
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

func (s *Storage) GetFinalDecisionByRFQ(ctx context.Context, rfqID int) (*models.FinalDecision, error) {
	d := &models.FinalDecision{}
	query := `SELECT * FROM final_decision WHERE rfq_id=$1`
	err := s.db.GetContext(ctx, d, query, rfqID)
	if err != nil {
		return nil, notFoundOr(err, "DECISION_NOT_FOUND", "no final decision for RFQ %d", rfqID)
	}
	return d, nil
}

func (s *Storage) GetFinalDecisionItems(ctx context.Context, decisionID int) ([]models.FinalDecisionItem, error) {
	items := []models.FinalDecisionItem{}
	query := `SELECT * FROM final_decision_item WHERE decision_id=$1 ORDER BY id ASC`
	err := s.db.SelectContext(ctx, &items, query, decisionID)
	return items, err
}

// AmendFinalDecision заменяет позиции решения и пересчитанную сумму.
// Создание поверх существующего решения запрещено, правки идут только
// через эту операцию, итоговая сумма всегда пересчитана заново.
func (s *Storage) AmendFinalDecision(ctx context.Context, d *models.FinalDecision, total decimal.Decimal) error {
	return s.runTx(ctx, func(tx *sqlx.Tx) error {
		query := `
            UPDATE final_decision
            SET total_approved_amount=$1, notes=$2, updated_at=NOW()
            WHERE id=$3`
		if _, err := tx.ExecContext(ctx, query, total, d.Notes, d.ID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM final_decision_item WHERE decision_id=$1`, d.ID); err != nil {
			return err
		}
		d.TotalApprovedAmount = total
		return insertDecisionItems(ctx, tx, d)
	})
}

// FinalizeDecision — второй уровень согласования: фиксирует вердикт
// решения и перевод заявки в конечный статус одной транзакцией.
// approved_at живет только на одобренном решении: при одобрении
// сохраняется первая отметка, при отклонении поле очищается.
func (s *Storage) FinalizeDecision(ctx context.Context, decisionID, rfqID int, verdict models.DecisionStatus, rfqFrom, rfqTo models.RFQStatus) error {
	return s.runTx(ctx, func(tx *sqlx.Tx) error {
		var approvedAt *time.Time
		if verdict == models.DecisionApproved {
			now := time.Now().UTC()
			approvedAt = &now
		}
		query := `
            UPDATE final_decision
            SET status=$1, approved_at=CASE WHEN $1='APPROVED' THEN COALESCE($2, approved_at) ELSE NULL END, updated_at=NOW()
            WHERE id=$3`
		if _, err := tx.ExecContext(ctx, query, verdict, approvedAt, decisionID); err != nil {
			return err
		}
		return updateRFQStatusTx(ctx, tx, rfqID, rfqFrom, rfqTo)
	})
}
