package models

import "rfq/internal/apperr"

// Статус заявки. Закрытое множество значений, переходы только по таблице ниже.
type RFQStatus string

const (
	StatusDraft              RFQStatus = "DRAFT"
	StatusPending            RFQStatus = "PENDING"
	StatusAdminApproved      RFQStatus = "ADMIN_APPROVED"
	StatusSuperAdminApproved RFQStatus = "SUPER_ADMIN_APPROVED"
	StatusApproved           RFQStatus = "APPROVED"
	StatusRejected           RFQStatus = "REJECTED"
	StatusCancelled          RFQStatus = "CANCELLED"
)

// Статус итогового решения
type DecisionStatus string

const (
	DecisionPending  DecisionStatus = "PENDING"
	DecisionApproved DecisionStatus = "APPROVED"
	DecisionRejected DecisionStatus = "REJECTED"
)

// Роль сотрудника
type Role string

const (
	RoleRequester  Role = "requester"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// Таблица допустимых переходов. CANCELLED доступен из любого
// нетерминального статуса и в таблицу не входит.
var rfqTransitions = map[RFQStatus][]RFQStatus{
	StatusDraft:              {StatusPending},
	StatusPending:            {StatusAdminApproved, StatusRejected},
	StatusAdminApproved:      {StatusSuperAdminApproved, StatusApproved, StatusRejected},
	StatusSuperAdminApproved: {StatusApproved},
}

func (s RFQStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusAdminApproved, StatusSuperAdminApproved,
		StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// Terminal: из этих статусов переходов нет, поля заявки заморожены.
func (s RFQStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusCancelled
}

func (s DecisionStatus) Valid() bool {
	return s == DecisionPending || s == DecisionApproved || s == DecisionRejected
}

// CheckTransition проверяет переход from -> to по таблице.
// Недопустимый переход — конфликт с указанием обоих статусов.
func CheckTransition(from, to RFQStatus) error {
	if !to.Valid() {
		return apperr.Validation("INVALID_STATUS", "unknown status %q", string(to))
	}
	if to == StatusCancelled {
		if from.Terminal() {
			return apperr.Conflict("ILLEGAL_TRANSITION", "cannot cancel RFQ in terminal status %s", from)
		}
		return nil
	}
	for _, allowed := range rfqTransitions[from] {
		if allowed == to {
			return nil
		}
	}
	return apperr.Conflict("ILLEGAL_TRANSITION", "transition %s -> %s is not allowed", from, to)
}

// CheckTransitionPath проверяет цепочку переходов из from через steps.
func CheckTransitionPath(from RFQStatus, steps ...RFQStatus) error {
	cur := from
	for _, next := range steps {
		if err := CheckTransition(cur, next); err != nil {
			return err
		}
		cur = next
	}
	return nil
}
