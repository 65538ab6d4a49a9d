package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Площадка (место поставки), код входит в номер заявки
type Site struct {
	ID        int       `db:"id" json:"id"`
	Code      string    `db:"code" json:"code" validate:"required,max=10"`
	Name      string    `db:"name" json:"name" validate:"required,max=200"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"-"`
}

// Поставщик
type Supplier struct {
	ID        int       `db:"id" json:"id"`
	Code      string    `db:"code" json:"code" validate:"required,max=20"`
	Name      string    `db:"name" json:"name" validate:"required,max=200"`
	Email     string    `db:"email" json:"email" validate:"omitempty,email"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"-"`
}

// Сотрудник; роль определяет доступные действия по согласованию
type Employee struct {
	ID        int       `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	FirstName string    `db:"first_name" json:"firstName"`
	LastName  string    `db:"last_name" json:"lastName"`
	Role      Role      `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"-"`
}

// Заявка на закупку (RFQ). Number неизменяем после создания.
type RFQ struct {
	ID              int             `db:"id" json:"id"`
	Number          string          `db:"number" json:"number"`
	Title           string          `db:"title" json:"title" validate:"required,max=200"`
	CommodityType   string          `db:"commodity_type" json:"commodityType" validate:"required,oneof=GOODS SERVICE TRANSPORT"`
	TotalValue      decimal.Decimal `db:"total_value" json:"totalValue"`
	Currency        string          `db:"currency" json:"currency" validate:"required,len=3"`
	SiteID          int             `db:"site_id" json:"siteId" validate:"required"`
	CreatorUsername string          `db:"creator_username" json:"creatorUsername"`
	Status          RFQStatus       `db:"status" json:"status"`
	CreatedAt       time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time       `db:"updated_at" json:"-"`

	Items      []RFQItem   `db:"-" json:"items,omitempty"`
	Quotations []Quotation `db:"-" json:"quotations,omitempty"`
}

// Позиция заявки
type RFQItem struct {
	ID               int             `db:"id" json:"id"`
	RFQID            int             `db:"rfq_id" json:"rfqId"`
	ItemCode         string          `db:"item_code" json:"itemCode" validate:"required,max=50"`
	Description      string          `db:"description" json:"description" validate:"required,max=500"`
	Spec             string          `db:"spec" json:"spec" validate:"max=1000"`
	Unit             string          `db:"unit" json:"unit" validate:"required,max=20"`
	RequiredQuantity decimal.Decimal `db:"required_quantity" json:"requiredQuantity"`
	CatalogItemID    *int            `db:"catalog_item_id" json:"catalogItemId,omitempty"`
	TransportLegID   *int            `db:"transport_leg_id" json:"transportLegId,omitempty"`
	CreatedAt        time.Time       `db:"created_at" json:"createdAt"`
}

// Котировка поставщика по заявке. Не более одной на пару (RFQ, поставщик).
type Quotation struct {
	ID             int             `db:"id" json:"id"`
	RFQID          int             `db:"rfq_id" json:"rfqId"`
	SupplierID     int             `db:"supplier_id" json:"supplierId"`
	Number         string          `db:"number" json:"number"`
	TotalAmount    decimal.Decimal `db:"total_amount" json:"totalAmount"`
	Currency       string          `db:"currency" json:"currency"`
	FreightTerms   string          `db:"freight_terms" json:"freightTerms"`
	PackingTerms   string          `db:"packing_terms" json:"packingTerms"`
	LeadTimeDays   int             `db:"lead_time_days" json:"leadTimeDays"`
	WarrantyMonths int             `db:"warranty_months" json:"warrantyMonths"`
	CreatedAt      time.Time       `db:"created_at" json:"createdAt"`

	SupplierCode string `db:"supplier_code" json:"supplierCode,omitempty"`
	SupplierName string `db:"supplier_name" json:"supplierName,omitempty"`

	Items []QuotationItem `db:"-" json:"items,omitempty"`
}

// Позиция котировки; количество копируется из позиции заявки
type QuotationItem struct {
	ID          int             `db:"id" json:"id"`
	QuotationID int             `db:"quotation_id" json:"quotationId"`
	RFQItemID   int             `db:"rfq_item_id" json:"rfqItemId"`
	UnitPrice   decimal.Decimal `db:"unit_price" json:"unitPrice"`
	Quantity    decimal.Decimal `db:"quantity" json:"quantity"`
	TotalPrice  decimal.Decimal `db:"total_price" json:"totalPrice"`
}

// Итоговое решение по заявке, строго одно на RFQ.
// TotalApprovedAmount всегда вычисляется по позициям, от клиента не принимается.
type FinalDecision struct {
	ID                  int             `db:"id" json:"id"`
	RFQID               int             `db:"rfq_id" json:"rfqId"`
	ApproverUsername    string          `db:"approver_username" json:"approverUsername"`
	Status              DecisionStatus  `db:"status" json:"status"`
	TotalApprovedAmount decimal.Decimal `db:"total_approved_amount" json:"totalApprovedAmount"`
	Currency            string          `db:"currency" json:"currency"`
	Notes               string          `db:"notes" json:"notes"`
	ApprovedAt          *time.Time      `db:"approved_at" json:"approvedAt,omitempty"`
	CreatedAt           time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time       `db:"updated_at" json:"-"`

	Items []FinalDecisionItem `db:"-" json:"items,omitempty"`
}

// Позиция решения: победитель по одной позиции заявки.
// Код и имя поставщика денормализованы для устойчивости истории.
type FinalDecisionItem struct {
	ID              int             `db:"id" json:"id"`
	DecisionID      int             `db:"decision_id" json:"decisionId"`
	RFQItemID       int             `db:"rfq_item_id" json:"rfqItemId"`
	SupplierID      *int            `db:"supplier_id" json:"supplierId,omitempty"`
	QuotationID     *int            `db:"quotation_id" json:"quotationId,omitempty"`
	SupplierCode    string          `db:"supplier_code" json:"supplierCode"`
	SupplierName    string          `db:"supplier_name" json:"supplierName"`
	FinalUnitPrice  decimal.Decimal `db:"final_unit_price" json:"finalUnitPrice"`
	FinalTotalPrice decimal.Decimal `db:"final_total_price" json:"finalTotalPrice"`
}
