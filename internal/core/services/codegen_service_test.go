package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tokosume/toko_backoffice_app/internal/apperrors"
	"github.com/tokosume/toko_backoffice_app/internal/core/domain"
	"github.com/tokosume/toko_backoffice_app/internal/core/services"
)

func TestGenerateCodeFormat(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockJournalRepository)
	gen := services.NewCodeGenService(mockRepo)

	mockRepo.On("NextSequence", ctx, domain.TypeSale, "store-1", mock.AnythingOfType("time.Time")).
		Return(42, nil).Once()

	code, seq, day, err := gen.GenerateCode(ctx, domain.TypeSale, "store-1")

	require.NoError(t, err)
	assert.Equal(t, 42, seq)
	assert.Equal(t, fmt.Sprintf("SALE-store-1-%s-0042", day.Format("20060102")), code)
	assert.Equal(t, time.UTC, day.Location())
	assert.Equal(t, day, day.Truncate(24*time.Hour), "seq day is a UTC midnight")
	mockRepo.AssertExpectations(t)
}

func TestGenerateCodePadsShortSequences(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockJournalRepository)
	gen := services.NewCodeGenService(mockRepo)

	mockRepo.On("NextSequence", ctx, domain.TypeAdjustment, "store-1", mock.AnythingOfType("time.Time")).
		Return(7, nil).Once()

	code, _, day, err := gen.GenerateCode(ctx, domain.TypeAdjustment, "store-1")
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("ADJ-store-1-%s-0007", day.Format("20060102")), code)
}

func TestGenerateCodeWideSequencesGrow(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockJournalRepository)
	gen := services.NewCodeGenService(mockRepo)

	mockRepo.On("NextSequence", ctx, domain.TypeSale, "store-1", mock.AnythingOfType("time.Time")).
		Return(12345, nil).Once()

	// Beyond four digits the padding just stops, the code stays unique.
	code, _, day, err := gen.GenerateCode(ctx, domain.TypeSale, "store-1")
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("SALE-store-1-%s-12345", day.Format("20060102")), code)
}

func TestGenerateCodeValidation(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockJournalRepository)
	gen := services.NewCodeGenService(mockRepo)

	_, _, _, err := gen.GenerateCode(ctx, domain.TypeSale, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, _, _, err = gen.GenerateCode(ctx, "BOGUS", "store-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	mockRepo.AssertNotCalled(t, "NextSequence", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerateCodePropagatesRepoError(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockJournalRepository)
	gen := services.NewCodeGenService(mockRepo)

	mockRepo.On("NextSequence", ctx, domain.TypeSale, "store-1", mock.AnythingOfType("time.Time")).
		Return(0, assert.AnError).Once()

	_, _, _, err := gen.GenerateCode(ctx, domain.TypeSale, "store-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}
