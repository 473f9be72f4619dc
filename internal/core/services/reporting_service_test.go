package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/tokosume/toko_backoffice_app/internal/apperrors"
	"github.com/tokosume/toko_backoffice_app/internal/core/domain"
	portssvc "github.com/tokosume/toko_backoffice_app/internal/core/ports/services"
	"github.com/tokosume/toko_backoffice_app/internal/core/services"
)

type ReportingServiceTestSuite struct {
	suite.Suite
	mockRepo *MockJournalRepository
	service  portssvc.ReportingSvcFacade
	tenantID string
}

func (suite *ReportingServiceTestSuite) SetupTest() {
	suite.mockRepo = new(MockJournalRepository)
	suite.service = services.NewReportingService(suite.mockRepo)
	suite.tenantID = "store-1"
}

func (suite *ReportingServiceTestSuite) TestDailyTotals_GroupsByUTCDay() {
	ctx := context.Background()
	start := time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 5, 17, 0, 0, 0, 0, time.UTC)

	facts := []domain.ReportFact{
		{JournalCode: "SALE-1", TypePrefix: domain.TypeSale, CreatedAt: time.Date(2025, 5, 12, 9, 0, 0, 0, time.UTC), Value: "1000"},
		{JournalCode: "SALE-2", TypePrefix: domain.TypeSale, CreatedAt: time.Date(2025, 5, 12, 17, 30, 0, 0, time.UTC), Value: "500"},
		{JournalCode: "BUY-1", TypePrefix: domain.TypeBuy, CreatedAt: time.Date(2025, 5, 12, 12, 0, 0, 0, time.UTC), Value: "750"},
		{JournalCode: "SALE-3", TypePrefix: domain.TypeSale, CreatedAt: time.Date(2025, 5, 14, 8, 0, 0, 0, time.UTC), Value: "2000"},
		{JournalCode: "SALE-4", TypePrefix: domain.TypeSale, CreatedAt: time.Date(2025, 5, 11, 8, 0, 0, 0, time.UTC), Value: "300"},
	}
	suite.mockRepo.On("ListReportFacts", ctx, suite.tenantID, "grand_total",
		[]domain.TransactionType{domain.TypeSale, domain.TypeBuy}, start, end).
		Return(facts, nil).Once()

	totals, err := suite.service.DailyTotals(ctx, suite.tenantID, start, end)

	suite.Require().NoError(err)
	suite.Require().Len(totals, 3)

	suite.Equal("2025-05-11", totals[0].Date, "days come back ascending")
	suite.True(totals[0].TotalSale.Equal(decimal.NewFromInt(300)))
	suite.True(totals[0].TotalBuy.IsZero())

	suite.Equal("2025-05-12", totals[1].Date)
	suite.True(totals[1].TotalSale.Equal(decimal.NewFromInt(1500)))
	suite.True(totals[1].TotalBuy.Equal(decimal.NewFromInt(750)))

	suite.Equal("2025-05-14", totals[2].Date)
	suite.True(totals[2].TotalSale.Equal(decimal.NewFromInt(2000)))
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *ReportingServiceTestSuite) TestDailyTotals_EmptyRangeIsEmptySlice() {
	ctx := context.Background()
	start := time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 5, 17, 0, 0, 0, 0, time.UTC)

	suite.mockRepo.On("ListReportFacts", ctx, suite.tenantID, "grand_total", mock.Anything, start, end).
		Return([]domain.ReportFact{}, nil).Once()

	totals, err := suite.service.DailyTotals(ctx, suite.tenantID, start, end)

	suite.Require().NoError(err)
	suite.NotNil(totals)
	suite.Empty(totals)
}

func (suite *ReportingServiceTestSuite) TestDailyTotals_ZeroRangeDefaultsToTrailingWeek() {
	ctx := context.Background()

	var gotFrom, gotTo time.Time
	suite.mockRepo.On("ListReportFacts", ctx, suite.tenantID, "grand_total", mock.Anything,
		mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time")).
		Run(func(args mock.Arguments) {
			gotFrom = args.Get(4).(time.Time)
			gotTo = args.Get(5).(time.Time)
		}).
		Return([]domain.ReportFact{}, nil).Once()

	_, err := suite.service.DailyTotals(ctx, suite.tenantID, time.Time{}, time.Time{})

	suite.Require().NoError(err)
	suite.Equal(7*24*time.Hour, gotTo.Sub(gotFrom), "default window is the trailing seven days")
	suite.WithinDuration(time.Now().UTC(), gotTo, time.Minute)
}

func (suite *ReportingServiceTestSuite) TestDailyTotals_SkipsNonNumericValues() {
	ctx := context.Background()
	start := time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 5, 17, 0, 0, 0, 0, time.UTC)

	facts := []domain.ReportFact{
		{JournalCode: "SALE-1", TypePrefix: domain.TypeSale, CreatedAt: start.Add(time.Hour), Value: "garbage"},
		{JournalCode: "SALE-2", TypePrefix: domain.TypeSale, CreatedAt: start.Add(2 * time.Hour), Value: "100"},
	}
	suite.mockRepo.On("ListReportFacts", ctx, suite.tenantID, "grand_total", mock.Anything, start, end).
		Return(facts, nil).Once()

	totals, err := suite.service.DailyTotals(ctx, suite.tenantID, start, end)

	suite.Require().NoError(err)
	suite.Require().Len(totals, 1)
	suite.True(totals[0].TotalSale.Equal(decimal.NewFromInt(100)))
}

func (suite *ReportingServiceTestSuite) TestDailyTotals_EndBeforeStartRejected() {
	start := time.Date(2025, 5, 17, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)

	_, err := suite.service.DailyTotals(context.Background(), suite.tenantID, start, end)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockRepo.AssertNotCalled(suite.T(), "ListReportFacts",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReportingServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ReportingServiceTestSuite))
}
