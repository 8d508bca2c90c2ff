package sqlrepository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gigmile/lending-service/internal/domain"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newMockMySQL opens GORM with the MySQL dialect over a mocked connection.
func newMockMySQL(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      mockDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger:                 gormlogger.Discard,
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)
	return db, mock
}

func TestPaymentRepository_MySQLDuplicateEntry(t *testing.T) {
	db, mock := newMockMySQL(t)
	repo := NewPaymentRepository(db, nil, zap.NewNop())

	mock.ExpectExec("INSERT INTO `payments`").
		WillReturnError(&mysqldriver.MySQLError{Number: 1062, Message: "Duplicate entry 'MPESA-1' for key 'payment_code'"})

	err := repo.Save(context.Background(), &domain.Payment{
		LoanID:      "loan-1",
		Amount:      decimal.NewFromInt(310),
		PaymentDate: time.Date(2024, time.February, 15, 0, 0, 0, 0, time.UTC),
		Method:      domain.PaymentMethodMobileMoney,
		Status:      domain.PaymentStatusCompleted,
		PaymentCode: "MPESA-1",
	})

	assert.ErrorIs(t, err, domain.ErrDuplicatePaymentCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoanRepository_MySQLVersionMismatch(t *testing.T) {
	db, mock := newMockMySQL(t)
	repo := NewLoanRepository(db, zap.NewNop())

	mock.ExpectExec("UPDATE `loans` SET").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Save(context.Background(), &domain.Loan{
		ID:             "loan-1",
		Status:         domain.LoanStatusClosed,
		CurrentBalance: decimal.Zero,
		Version:        3,
	})

	assert.ErrorIs(t, err, domain.ErrOptimisticLock)
	assert.ErrorIs(t, err, domain.ErrConflictingState)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoanRepository_MySQLRowLock(t *testing.T) {
	db, mock := newMockMySQL(t)
	repo := NewLoanRepository(db, zap.NewNop())

	rows := sqlmock.NewRows([]string{"id", "loan_code", "status", "current_balance", "version"}).
		AddRow("loan-1", "254700000001", "OVERDUE", "620.00", 4)

	mock.ExpectQuery("SELECT .* FROM `loans` WHERE id = .* FOR UPDATE").
		WillReturnRows(rows)

	loan, err := repo.FindByIDForUpdate(context.Background(), "loan-1")
	require.NoError(t, err)
	assert.Equal(t, domain.LoanStatusOverdue, loan.Status)
	assert.Equal(t, int64(4), loan.Version)
	assert.True(t, loan.CurrentBalance.Equal(decimal.NewFromInt(620)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsDuplicateError(t *testing.T) {
	assert.True(t, isDuplicateError(&mysqldriver.MySQLError{Number: 1062}))
	assert.True(t, isDuplicateError(gorm.ErrDuplicatedKey))
	assert.False(t, isDuplicateError(&mysqldriver.MySQLError{Number: 1213}))
	assert.False(t, isDuplicateError(nil))
}

type countingCustomerCache struct {
	gets int
}

func (c *countingCustomerCache) Get(ctx context.Context, customerID string) (*domain.Customer, error) {
	c.gets++
	return &domain.Customer{ID: customerID, Status: domain.CustomerStatusInactive}, nil
}

func (c *countingCustomerCache) Set(ctx context.Context, customer *domain.Customer) error { return nil }

func (c *countingCustomerCache) Delete(ctx context.Context, customerID string) error { return nil }

func TestCustomerRepository_MySQLRowLockSkipsCache(t *testing.T) {
	db, mock := newMockMySQL(t)
	cache := &countingCustomerCache{}
	repo := NewCustomerRepository(db, cache, zap.NewNop())

	rows := sqlmock.NewRows([]string{"id", "first_name", "phone", "loan_limit", "status"}).
		AddRow("cust-1", "Amina", "254700000001", "1000.00", "ACTIVE")

	mock.ExpectQuery("SELECT .* FROM `customers` WHERE id = .* FOR UPDATE").
		WillReturnRows(rows)
	mock.ExpectQuery("SELECT .* FROM `customer_notification_channels`").
		WillReturnRows(sqlmock.NewRows([]string{"customer_id", "channel"}).AddRow("cust-1", "SMS"))

	customer, err := repo.FindByIDForUpdate(context.Background(), "cust-1")
	require.NoError(t, err)
	assert.Equal(t, domain.CustomerStatusActive, customer.Status)
	assert.Equal(t, []domain.NotificationChannel{domain.ChannelSMS}, customer.Channels)
	assert.Zero(t, cache.gets)
	assert.NoError(t, mock.ExpectationsWereMet())
}
