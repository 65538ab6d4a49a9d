package models

import (
	"github.com/shopspring/decimal"

	"rfq/internal/apperr"
)

// BuildQuotationItems строит позиции котировки по ставкам поставщика.
// rates: код позиции заявки -> ставка за единицу. Каждая ставка должна
// ссылаться на позицию этой заявки. Сумма котировки вычисляется здесь и
// только здесь: line_total = rate * required_quantity, total = сумма строк.
func BuildQuotationItems(rfqItems []RFQItem, rates map[string]decimal.Decimal) ([]QuotationItem, decimal.Decimal, error) {
	total := decimal.Zero

	byCode := make(map[string]RFQItem, len(rfqItems))
	for _, it := range rfqItems {
		byCode[it.ItemCode] = it
	}
	for code := range rates {
		if _, ok := byCode[code]; !ok {
			return nil, decimal.Zero, apperr.Validation("UNKNOWN_ITEM", "item %q does not belong to this RFQ", code)
		}
	}

	var items []QuotationItem
	// Обходим позиции заявки, а не map, чтобы порядок был стабильным
	for _, it := range rfqItems {
		rate, ok := rates[it.ItemCode]
		if !ok {
			continue
		}
		if rate.IsNegative() {
			return nil, decimal.Zero, apperr.Validation("INVALID_AMOUNT", "negative rate for item %q", it.ItemCode)
		}
		lineTotal := rate.Mul(it.RequiredQuantity)
		items = append(items, QuotationItem{
			RFQItemID:  it.ID,
			UnitPrice:  rate,
			Quantity:   it.RequiredQuantity,
			TotalPrice: lineTotal,
		})
		total = total.Add(lineTotal)
	}

	// Котировка без единой оплаченной строки смысла не имеет
	if total.LessThanOrEqual(decimal.Zero) {
		return nil, decimal.Zero, apperr.Validation("INVALID_AMOUNT", "quotation total must be positive, got %s", total)
	}
	return items, total, nil
}
