package service

import (
	"context"
	"errors"
	"testing"

	"github.com/gigmile/lending-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func triggerFixture(t *testing.T, notificationsEnabled bool) (*memStore, *domain.Loan) {
	t.Helper()
	store := newMemStore()
	customer, err := domain.NewCustomer(domain.NewCustomerParams{
		FirstName: "Amina",
		LastName:  "Njeri",
		Phone:     "254700000001",
		LoanLimit: amount("1000"),
	})
	require.NoError(t, err)
	product, err := domain.NewProduct(domain.NewProductParams{
		Name:                 "Quick Loan",
		TenureType:           domain.TenureMonths,
		TenureValue:          1,
		NotificationsEnabled: notificationsEnabled,
	})
	require.NoError(t, err)
	require.NoError(t, fakeCustomerRepo{store}.Create(context.Background(), customer))
	require.NoError(t, fakeProductRepo{store}.Create(context.Background(), product))

	loan, err := domain.NewLoan(customer, product, domain.NewLoanParams{
		Principal:        amount("500"),
		StructureType:    domain.StructureLumpSum,
		DisbursementDate: date(2024, 3, 5),
	})
	require.NoError(t, err)
	return store, loan
}

func TestNotificationTrigger_BuildsTemplateVariables(t *testing.T) {
	store, loan := triggerFixture(t, true)
	notifier := new(MockNotifier)
	notifier.On("Notify", mock.Anything, mock.Anything).Return(true, nil)
	trigger := NewNotificationTrigger(fakeCustomerRepo{store}, fakeProductRepo{store}, notifier, allNotificationsEnabled(), zap.NewNop())

	delivered := trigger.Fire(context.Background(), domain.LoanEvent{
		Type:          domain.LoanEventPaymentReceived,
		Loan:          loan,
		PaymentAmount: amount("120.5"),
	})

	require.True(t, delivered)
	req := notifier.Calls[0].Arguments.Get(1).(domain.NotificationRequest)
	assert.Equal(t, domain.NotificationPaymentReceived, req.Type)
	assert.Equal(t, loan.ID, req.LoanID)
	assert.Equal(t, loan.CustomerID, req.CustomerID)
	assert.Equal(t, map[string]string{
		"customerName":   "Amina Njeri",
		"firstName":      "Amina",
		"loanCode":       "254700000001",
		"loanId":         "254700000001",
		"loanAmount":     "500.00",
		"paymentAmount":  "120.50",
		"currentBalance": "500.00",
		"lateFeeAmount":  "0.00",
		"dueDate":        "April 5, 2024",
		"productName":    "Quick Loan",
	}, req.Variables)
}

func TestNotificationTrigger_DisabledTypeIsNotSent(t *testing.T) {
	store, loan := triggerFixture(t, true)
	notifier := new(MockNotifier)
	settings := allNotificationsEnabled()
	settings.Enabled[domain.NotificationLoanOverdue] = false
	trigger := NewNotificationTrigger(fakeCustomerRepo{store}, fakeProductRepo{store}, notifier, settings, zap.NewNop())

	delivered := trigger.Fire(context.Background(), domain.LoanEvent{Type: domain.LoanEventOverdue, Loan: loan})

	assert.False(t, delivered)
	notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestNotificationTrigger_ProductOptOut(t *testing.T) {
	store, loan := triggerFixture(t, false)
	notifier := new(MockNotifier)
	trigger := NewNotificationTrigger(fakeCustomerRepo{store}, fakeProductRepo{store}, notifier, allNotificationsEnabled(), zap.NewNop())

	delivered := trigger.Fire(context.Background(), domain.LoanEvent{Type: domain.LoanEventCreated, Loan: loan})

	assert.False(t, delivered)
	notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestNotificationTrigger_SwallowsNotifierErrors(t *testing.T) {
	store, loan := triggerFixture(t, true)
	notifier := new(MockNotifier)
	notifier.On("Notify", mock.Anything, mock.Anything).Return(false, errors.New("stream unavailable"))
	trigger := NewNotificationTrigger(fakeCustomerRepo{store}, fakeProductRepo{store}, notifier, allNotificationsEnabled(), zap.NewNop())

	assert.NotPanics(t, func() {
		delivered := trigger.Fire(context.Background(), domain.LoanEvent{Type: domain.LoanEventClosed, Loan: loan})
		assert.False(t, delivered)
	})
}

func TestNotificationTrigger_MissingCustomer(t *testing.T) {
	store, loan := triggerFixture(t, true)
	loan.CustomerID = "gone"
	notifier := new(MockNotifier)
	trigger := NewNotificationTrigger(fakeCustomerRepo{store}, fakeProductRepo{store}, notifier, allNotificationsEnabled(), zap.NewNop())

	assert.False(t, trigger.Fire(context.Background(), domain.LoanEvent{Type: domain.LoanEventCreated, Loan: loan}))
	notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}
