package db

import (
	"context"

	"rfq/internal/apperr"
)

// NextSequence выдает следующее целое в именованной последовательности.
// Атомарный upsert по счетчику: два конкурентных вызова для одного
// ключа всегда получают разные значения, пропусков и дубликатов нет.
// При недоступности БД возвращается повторяемая ошибка выдачи,
// дубликат не выдается никогда.
func (s *Storage) NextSequence(ctx context.Context, scopeKey string) (int, error) {
	var seq int
	query := `
        INSERT INTO document_sequence (scope_key, last_value)
        VALUES ($1, 1)
        ON CONFLICT (scope_key) DO UPDATE SET last_value = document_sequence.last_value + 1
        RETURNING last_value`
	if err := s.db.QueryRowContext(ctx, query, scopeKey).Scan(&seq); err != nil {
		return 0, apperr.Allocation(err)
	}
	return seq, nil
}
