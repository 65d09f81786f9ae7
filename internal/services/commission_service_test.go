// internal/services/commission_service_test.go
package services

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fingrow/acf-backend/internal/acf"
	"github.com/fingrow/acf-backend/internal/config"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return db, mock
}

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		ACF: config.ACFConfig{
			SystemRootWorldID:  acf.SystemRootWorldID,
			DefaultRootWorldID: acf.DefaultACFRootWorldID,
			RespectAccepting:   true,
			DefaultAccepting:   true,
			AutoCloseWhenFull:  true,
			DefaultMaxChildren: acf.MaxChildrenPerNode,
		},
		Commission: config.CommissionConfig{DefaultRate: 0.15},
	}
}

func TestCreateOrderUnknownProductRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewCommissionService(db, testConfig())

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "insurance_products"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := svc.CreateOrder(&CreateOrderRequest{
		BuyerWorldID: "25AAA0002",
		ProductCode:  "NOPE-1",
	})

	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderUnknownBuyerRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewCommissionService(db, testConfig())

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "insurance_products"`).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "product_code", "premium_total", "commission_rate", "policy_type", "is_active"}).
			AddRow("7b5c2f3a-0000-0000-0000-000000000001", "CMI-600", 600.0, 0.15, "equal_sevenths", true))
	mock.ExpectQuery(`SELECT (.+) FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := svc.CreateOrder(&CreateOrderRequest{
		BuyerWorldID: "25AAA0099",
		ProductCode:  "CMI-600",
	})

	assert.ErrorIs(t, err, ErrBuyerNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderInsufficientFinpointBalance(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewCommissionService(db, testConfig())

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "insurance_products"`).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "product_code", "premium_total", "commission_rate", "policy_type", "is_active"}).
			AddRow("7b5c2f3a-0000-0000-0000-000000000001", "VMI-5000", 5000.0, 0.15, "equal_sevenths", true))
	mock.ExpectQuery(`SELECT (.+) FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "world_id", "run_number"}).
			AddRow("7b5c2f3a-0000-0000-0000-000000000002", "25AAA0002", 2))
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM "commission_distributions"`).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(50.0))
	mock.ExpectRollback()

	_, err := svc.CreateOrder(&CreateOrderRequest{
		BuyerWorldID:  "25AAA0002",
		ProductCode:   "VMI-5000",
		PaymentMethod: "finpoint",
	})

	var balanceErr *InsufficientBalanceError
	require.ErrorAs(t, err, &balanceErr)
	assert.Equal(t, 5000.0, balanceErr.Required)
	assert.Equal(t, 50.0, balanceErr.Available)
	assert.Equal(t, 4950.0, balanceErr.Shortage())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderValidation(t *testing.T) {
	svc := NewCommissionService(nil, testConfig())

	_, err := svc.CreateOrder(&CreateOrderRequest{
		BuyerWorldID: "not-a-world-id",
		ProductCode:  "CMI-600",
	})
	assert.Error(t, err)

	_, err = svc.CreateOrder(&CreateOrderRequest{
		BuyerWorldID: "25AAA0002",
	})
	assert.Error(t, err)
}

func TestGetBalance(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewCommissionService(db, testConfig())

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM "commission_distributions"`).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(123.45))

	balance, err := svc.GetBalance(uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 123.45, balance)
	assert.NoError(t, mock.ExpectationsWereMet())
}
