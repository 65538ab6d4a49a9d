package models

import (
	"github.com/shopspring/decimal"

	"rfq/internal/apperr"
)

// BuildDecisionItems проверяет позиции итогового решения и считает
// итоговую сумму. Сумма выводится из позиций, заявленное клиентом
// значение игнорируется. Каждая позиция решения ссылается ровно на одну
// позицию этой заявки, двойные ссылки на одну позицию не допускаются.
func BuildDecisionItems(rfqItems []RFQItem, submitted []FinalDecisionItem) ([]FinalDecisionItem, decimal.Decimal, error) {
	if len(submitted) == 0 {
		return nil, decimal.Zero, apperr.Validation("EMPTY_DECISION", "final decision must contain at least one item")
	}

	known := make(map[int]bool, len(rfqItems))
	for _, it := range rfqItems {
		known[it.ID] = true
	}

	total := decimal.Zero
	seen := make(map[int]bool, len(submitted))
	items := make([]FinalDecisionItem, 0, len(submitted))
	for _, di := range submitted {
		if !known[di.RFQItemID] {
			return nil, decimal.Zero, apperr.Validation("UNKNOWN_ITEM", "RFQ item %d does not belong to this RFQ", di.RFQItemID)
		}
		if seen[di.RFQItemID] {
			return nil, decimal.Zero, apperr.Validation("DUPLICATE_ITEM", "RFQ item %d selected more than once", di.RFQItemID)
		}
		seen[di.RFQItemID] = true
		if di.FinalUnitPrice.IsNegative() || di.FinalTotalPrice.IsNegative() {
			return nil, decimal.Zero, apperr.Validation("INVALID_PRICE", "negative price for RFQ item %d", di.RFQItemID)
		}
		total = total.Add(di.FinalTotalPrice)
		items = append(items, di)
	}
	return items, total, nil
}
