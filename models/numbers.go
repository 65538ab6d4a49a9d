package models

import "fmt"

// Форматирование номеров документов. Сами целые выдает
// Storage.NextSequence, здесь только чистые функции.

// RFQNumber: GP-{siteCode}-{seq:03d}
func RFQNumber(siteCode string, seq int) string {
	return fmt.Sprintf("GP-%s-%03d", siteCode, seq)
}

// QuotationNumber: Q-{rfqNumber}-{supplierCode}-{seq:03d}
func QuotationNumber(rfqNumber, supplierCode string, seq int) string {
	return fmt.Sprintf("Q-%s-%s-%03d", rfqNumber, supplierCode, seq)
}

// Ключи последовательностей (scope) для выдачи номеров.
// Номера заявок уникальны и без пропусков в пределах площадки,
// котировок — в пределах пары (заявка, поставщик).
func SequenceScopeRFQ(siteCode string) string {
	return "rfq:" + siteCode
}

func SequenceScopeQuotation(rfqNumber, supplierCode string) string {
	return fmt.Sprintf("quotation:%s:%s", rfqNumber, supplierCode)
}
