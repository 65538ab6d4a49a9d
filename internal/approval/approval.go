// Package approval — маршрутизация согласования итоговых решений.
// Route — чистая функция без обращений к хранилищу: по сумме решения,
// роли согласующего и текущему статусу заявки определяет новый статус.
package approval

import (
	"github.com/shopspring/decimal"

	"rfq/internal/apperr"
	"rfq/models"
)

// Config — единственный источник порога двухуровневого согласования.
// Порог в младших единицах валюты.
type Config struct {
	Threshold decimal.Decimal
}

func DefaultConfig() Config {
	return Config{Threshold: decimal.NewFromInt(200000)}
}

// Route определяет статус заявки после решения согласующего.
// Сумма выше порога паркует заявку в ADMIN_APPROVED до второго
// согласования ролью super_admin; отклонение на любом уровне сразу
// переводит заявку в REJECTED.
func Route(cfg Config, amount decimal.Decimal, requested models.DecisionStatus, role models.Role, current models.RFQStatus) (models.RFQStatus, error) {
	if !requested.Valid() {
		return "", apperr.Validation("INVALID_STATUS", "unknown decision status %q", string(requested))
	}
	if role != models.RoleAdmin && role != models.RoleSuperAdmin {
		return "", apperr.Permission("FORBIDDEN", "role %q cannot act on final decisions", string(role))
	}

	switch requested {
	case models.DecisionPending:
		// Решение сохранено без вердикта, заявка остается на рассмотрении
		if current != models.StatusPending {
			return "", apperr.Conflict("ILLEGAL_TRANSITION", "cannot record pending decision while RFQ is %s", current)
		}
		return models.StatusPending, nil

	case models.DecisionRejected:
		if err := models.CheckTransition(current, models.StatusRejected); err != nil {
			return "", err
		}
		return models.StatusRejected, nil

	case models.DecisionApproved:
		if amount.GreaterThan(cfg.Threshold) {
			return routeHighValue(role, current)
		}
		return routeLowValue(current)
	}
	return "", apperr.Validation("INVALID_STATUS", "unknown decision status %q", string(requested))
}

// Сумма в пределах порога: одного согласования достаточно.
func routeLowValue(current models.RFQStatus) (models.RFQStatus, error) {
	switch current {
	case models.StatusPending:
		if err := models.CheckTransitionPath(current, models.StatusAdminApproved, models.StatusApproved); err != nil {
			return "", err
		}
	case models.StatusAdminApproved:
		if err := models.CheckTransition(current, models.StatusApproved); err != nil {
			return "", err
		}
	default:
		return "", apperr.Conflict("ILLEGAL_TRANSITION", "cannot approve RFQ in status %s", current)
	}
	return models.StatusApproved, nil
}

// Сумма выше порога: первое согласование паркует заявку,
// финализировать может только super_admin.
func routeHighValue(role models.Role, current models.RFQStatus) (models.RFQStatus, error) {
	switch current {
	case models.StatusPending:
		if err := models.CheckTransition(current, models.StatusAdminApproved); err != nil {
			return "", err
		}
		return models.StatusAdminApproved, nil
	case models.StatusAdminApproved:
		if role != models.RoleSuperAdmin {
			return "", apperr.Permission("FORBIDDEN", "second-tier approval requires super_admin, got %q", string(role))
		}
		if err := models.CheckTransitionPath(current, models.StatusSuperAdminApproved, models.StatusApproved); err != nil {
			return "", err
		}
		return models.StatusApproved, nil
	default:
		return "", apperr.Conflict("ILLEGAL_TRANSITION", "cannot approve RFQ in status %s", current)
	}
}
