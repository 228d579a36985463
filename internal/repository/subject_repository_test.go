package repository

import (
	"context"
	"testing"

	"github.com/Freeeeeet/notebase/internal/model"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplaceSelectionRunsInTransaction(t *testing.T) {
	pool := newMockPool(t)
	repo := NewSubjectRepository(pool)

	pool.ExpectBegin()
	pool.ExpectExec("DELETE FROM user_subjects").
		WithArgs("u1").
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	pool.ExpectExec("INSERT INTO user_subjects").
		WithArgs("u1", []string{"s1", "s2"}, "O/L", (*string)(nil), "english").
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	pool.ExpectCommit()

	n, err := repo.ReplaceSelection(context.Background(), "u1", scopeOL(), []string{"s1", "s2"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, pool.ExpectationsWereMet())
}

func TestReplaceSelectionRollsBack(t *testing.T) {
	pool := newMockPool(t)
	repo := NewSubjectRepository(pool)

	pool.ExpectBegin()
	pool.ExpectExec("DELETE FROM user_subjects").
		WithArgs("u1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	pool.ExpectExec("INSERT INTO user_subjects").
		WithArgs("u1", []string{"s1"}, "O/L", (*string)(nil), "english").
		WillReturnError(assert.AnError)
	pool.ExpectRollback()

	_, err := repo.ReplaceSelection(context.Background(), "u1", scopeOL(), []string{"s1"})
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, pool.ExpectationsWereMet())
}

func scopeOL() model.Scope {
	return model.Scope{Grade: "O/L", Medium: "english"}
}
