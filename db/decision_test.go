package db_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"rfq/internal/apperr"
	"rfq/models"
)

// Отклонение решения снимает отметку одобрения: припаркованная заявка
// несет approved_at с первого уровня, и строка REJECTED не должна его
// сохранить.
func TestFinalizeDecisionRejectClearsApproval(t *testing.T) {
	store, mock := newMockStorage(t)

	mock.ExpectBegin()
	mock.ExpectExec(`approved_at=CASE WHEN \$1='APPROVED'`).
		WithArgs(models.DecisionRejected, nil, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE rfq SET status=`).
		WithArgs(models.StatusRejected, 9, models.StatusAdminApproved).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.FinalizeDecision(context.Background(), 1, 9,
		models.DecisionRejected, models.StatusAdminApproved, models.StatusRejected)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFinalizeDecisionApprove(t *testing.T) {
	store, mock := newMockStorage(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE final_decision`).
		WithArgs(models.DecisionApproved, sqlmock.AnyArg(), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE rfq SET status=`).
		WithArgs(models.StatusApproved, 9, models.StatusAdminApproved).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.FinalizeDecision(context.Background(), 1, 9,
		models.DecisionApproved, models.StatusAdminApproved, models.StatusApproved)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

// Заявка ушла из ожидаемого статуса между чтением и вердиктом:
// транзакция откатывается целиком, вердикт не фиксируется.
func TestFinalizeDecisionConcurrentStatusChange(t *testing.T) {
	store, mock := newMockStorage(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE final_decision`).
		WithArgs(models.DecisionRejected, nil, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE rfq SET status=`).
		WithArgs(models.StatusRejected, 9, models.StatusAdminApproved).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := store.FinalizeDecision(context.Background(), 1, 9,
		models.DecisionRejected, models.StatusAdminApproved, models.StatusRejected)
	require.Error(t, err)
	require.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}
