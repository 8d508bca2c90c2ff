package service

import (
	"context"
	"testing"
	"time"

	"github.com/gigmile/lending-service/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type harness struct {
	store     *memStore
	notifier  *MockNotifier
	locker    *MockBatchLocker
	trigger   *NotificationTrigger
	feeEngine *FeeEngine
	loans     *LoanService
	payments  *PaymentService
	lifecycle *LifecycleService
	catalogue *CatalogueService
}

// newHarness wires the services over an in-memory store. The notifier
// accepts everything unless a test sets its own expectations first.
func newHarness(t *testing.T) *harness {
	t.Helper()

	store := newMemStore()
	logger := zap.NewNop()
	notifier := new(MockNotifier)
	locker := new(MockBatchLocker)

	customers := fakeCustomerRepo{store}
	products := fakeProductRepo{store}
	loans := fakeLoanRepo{store}
	installments := fakeInstallmentRepo{store}
	payments := fakePaymentRepo{store}
	loanFees := fakeLoanFeeRepo{store}

	trigger := NewNotificationTrigger(customers, products, notifier, allNotificationsEnabled(), logger)
	feeEngine := NewFeeEngine(loanFees, logger)

	return &harness{
		store:     store,
		notifier:  notifier,
		locker:    locker,
		trigger:   trigger,
		feeEngine: feeEngine,
		loans:     NewLoanService(fakeTransactor{}, customers, products, loans, installments, loanFees, payments, feeEngine, trigger, logger),
		payments:  NewPaymentService(fakeTransactor{}, loans, installments, payments, trigger, logger),
		lifecycle: NewLifecycleService(fakeTransactor{}, loans, installments, products, feeEngine, trigger, locker, time.Minute, logger),
		catalogue: NewCatalogueService(customers, products, logger),
	}
}

func (h *harness) acceptNotifications() {
	h.notifier.On("Notify", mock.Anything, mock.Anything).Return(true, nil).Maybe()
}

func (h *harness) allowLocks() {
	release := func(context.Context) error { return nil }
	h.locker.On("TryLock", mock.Anything, mock.Anything, mock.Anything).Return(release, true, nil).Maybe()
}

func (h *harness) seedCustomer(t *testing.T, phone string, limit string) *domain.Customer {
	t.Helper()
	customer, err := h.catalogue.CreateCustomer(context.Background(), domain.NewCustomerParams{
		FirstName:    "Amina",
		LastName:     "Njeri",
		Email:        phone + "@example.com",
		Phone:        phone,
		IDNumber:     "ID-" + phone,
		LoanLimit:    decimal.RequireFromString(limit),
		BillingCycle: domain.BillingCycleIndividual,
	})
	require.NoError(t, err)
	return customer
}

func (h *harness) seedProduct(t *testing.T, tenure domain.TenureType, value, graceDays int, fees ...domain.NewFeeParams) *domain.Product {
	t.Helper()
	ctx := context.Background()
	product, err := h.catalogue.CreateProduct(ctx, domain.NewProductParams{
		Name:                   "Quick Loan",
		TenureType:             tenure,
		TenureValue:            value,
		DaysAfterDueForLateFee: graceDays,
		NotificationsEnabled:   true,
	})
	require.NoError(t, err)

	for _, params := range fees {
		fee, err := h.catalogue.CreateFee(ctx, params)
		require.NoError(t, err)
		product, err = h.catalogue.AttachFee(ctx, product.ID, fee.ID)
		require.NoError(t, err)
	}
	return product
}

func (h *harness) openLoan(t *testing.T, customer *domain.Customer, product *domain.Product, principal string, structure domain.StructureType, disbursed time.Time) *domain.Loan {
	t.Helper()
	details, err := h.loans.CreateLoan(context.Background(), CreateLoanRequest{
		CustomerID:       customer.ID,
		ProductID:        product.ID,
		Principal:        decimal.RequireFromString(principal),
		StructureType:    structure,
		DisbursementDate: disbursed,
	})
	require.NoError(t, err)
	return details.Loan
}

func (h *harness) storedLoan(t *testing.T, id string) *domain.Loan {
	t.Helper()
	loan, err := fakeLoanRepo{h.store}.FindByID(context.Background(), id)
	require.NoError(t, err)
	return loan
}

func (h *harness) storedInstallments(t *testing.T, loanID string) []*domain.Installment {
	t.Helper()
	insts, err := fakeInstallmentRepo{h.store}.FindByLoanID(context.Background(), loanID)
	require.NoError(t, err)
	return insts
}

// setStatus forces a stored loan into status, as a batch would have.
func (h *harness) setStatus(id string, status domain.LoanStatus) {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	h.store.loans[id].Status = status
}

func fixedFee(name, value string) domain.NewFeeParams {
	return domain.NewFeeParams{
		Name:            name,
		Type:            domain.FeeTypeService,
		CalculationType: domain.CalculationFixed,
		Value:           decimal.RequireFromString(value),
		IsActive:        true,
	}
}

func lateFee(value string) domain.NewFeeParams {
	return domain.NewFeeParams{
		Name:            "Late fee",
		Type:            domain.FeeTypeLatePayment,
		CalculationType: domain.CalculationFixed,
		Value:           decimal.RequireFromString(value),
		IsActive:        true,
	}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
