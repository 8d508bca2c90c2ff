package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gigmile/lending-service/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// memStore is an in-memory stand-in for the relational store. Reads return
// copies so services cannot mutate stored state without saving it.
type memStore struct {
	mu            sync.Mutex
	customers     map[string]*domain.Customer
	products      map[string]*domain.Product
	fees          map[string]*domain.Fee
	productFees   map[string][]string
	loans         map[string]*domain.Loan
	installments  map[string]*domain.Installment
	loanFees      []*domain.LoanFee
	payments      []*domain.Payment
	notifications []*domain.Notification
	saveErrors    map[string]error
	customerLocks []string
}

func newMemStore() *memStore {
	return &memStore{
		customers:    make(map[string]*domain.Customer),
		products:     make(map[string]*domain.Product),
		fees:         make(map[string]*domain.Fee),
		productFees:  make(map[string][]string),
		loans:        make(map[string]*domain.Loan),
		installments: make(map[string]*domain.Installment),
		saveErrors:   make(map[string]error),
	}
}

func cloneLoan(l *domain.Loan) *domain.Loan {
	c := *l
	return &c
}

func cloneInstallment(i *domain.Installment) *domain.Installment {
	c := *i
	return &c
}

type fakeTransactor struct{}

func (fakeTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// customers

type fakeCustomerRepo struct{ s *memStore }

func (r fakeCustomerRepo) FindByID(_ context.Context, id string) (*domain.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.customers[id]
	if !ok {
		return nil, domain.ErrCustomerNotFound
	}
	cp := *c
	return &cp, nil
}

func (r fakeCustomerRepo) FindByIDForUpdate(ctx context.Context, id string) (*domain.Customer, error) {
	r.s.mu.Lock()
	r.s.customerLocks = append(r.s.customerLocks, id)
	r.s.mu.Unlock()
	return r.FindByID(ctx, id)
}

func (r fakeCustomerRepo) Create(_ context.Context, c *domain.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *c
	r.s.customers[c.ID] = &cp
	return nil
}

func (r fakeCustomerRepo) ExistsByContact(_ context.Context, email, phone, idNumber string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.customers {
		if (email != "" && c.Email == email) || c.Phone == phone || (idNumber != "" && c.IDNumber == idNumber) {
			return true, nil
		}
	}
	return false, nil
}

// products and fees

type fakeProductRepo struct{ s *memStore }

func (r fakeProductRepo) FindByID(_ context.Context, id string) (*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	cp := *p
	cp.Fees = nil
	for _, feeID := range r.s.productFees[id] {
		f := *r.s.fees[feeID]
		cp.Fees = append(cp.Fees, &f)
	}
	return &cp, nil
}

func (r fakeProductRepo) Create(_ context.Context, p *domain.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *p
	r.s.products[p.ID] = &cp
	return nil
}

func (r fakeProductRepo) CreateFee(_ context.Context, f *domain.Fee) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *f
	r.s.fees[f.ID] = &cp
	return nil
}

func (r fakeProductRepo) FindFeeByID(_ context.Context, id string) (*domain.Fee, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.fees[id]
	if !ok {
		return nil, domain.ErrFeeNotFound
	}
	cp := *f
	return &cp, nil
}

func (r fakeProductRepo) AttachFee(_ context.Context, productID, feeID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.productFees[productID] = append(r.s.productFees[productID], feeID)
	return nil
}

func (r fakeProductRepo) HasFee(_ context.Context, productID, feeID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, id := range r.s.productFees[productID] {
		if id == feeID {
			return true, nil
		}
	}
	return false, nil
}

// loans

type fakeLoanRepo struct{ s *memStore }

func (r fakeLoanRepo) Create(_ context.Context, l *domain.Loan) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.loans[l.ID] = cloneLoan(l)
	return nil
}

func (r fakeLoanRepo) Save(_ context.Context, l *domain.Loan) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.saveErrors[l.ID]; err != nil {
		return err
	}
	l.Version++
	r.s.loans[l.ID] = cloneLoan(l)
	return nil
}

func (r fakeLoanRepo) FindByID(_ context.Context, id string) (*domain.Loan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.loans[id]
	if !ok {
		return nil, domain.ErrLoanNotFound
	}
	return cloneLoan(l), nil
}

func (r fakeLoanRepo) FindByIDForUpdate(ctx context.Context, id string) (*domain.Loan, error) {
	return r.FindByID(ctx, id)
}

func (r fakeLoanRepo) FindPayableByCodeForUpdate(_ context.Context, code string) (*domain.Loan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, l := range r.s.loans {
		if l.LoanCode == code && l.Status.Payable() {
			return cloneLoan(l), nil
		}
	}
	return nil, domain.ErrLoanNotFound
}

func (r fakeLoanRepo) FindLatestByCode(_ context.Context, code string) (*domain.Loan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var latest *domain.Loan
	for _, l := range r.s.loans {
		if l.LoanCode == code && (latest == nil || l.CreatedAt.After(latest.CreatedAt)) {
			latest = l
		}
	}
	if latest == nil {
		return nil, domain.ErrLoanNotFound
	}
	return cloneLoan(latest), nil
}

func (r fakeLoanRepo) ExistsByCustomerAndStatuses(_ context.Context, customerID string, statuses []domain.LoanStatus) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, l := range r.s.loans {
		if l.CustomerID != customerID {
			continue
		}
		for _, st := range statuses {
			if l.Status == st {
				return true, nil
			}
		}
	}
	return false, nil
}

func (r fakeLoanRepo) FindByStatusAndDueDateBefore(_ context.Context, status domain.LoanStatus, before time.Time) ([]*domain.Loan, error) {
	return r.filter(func(l *domain.Loan) bool {
		return l.Status == status && l.DueDate.Before(before)
	}), nil
}

func (r fakeLoanRepo) FindByStatusAndDueDateBetween(_ context.Context, status domain.LoanStatus, from, to time.Time) ([]*domain.Loan, error) {
	return r.filter(func(l *domain.Loan) bool {
		return l.Status == status && !l.DueDate.Before(from) && !l.DueDate.After(to)
	}), nil
}

func (r fakeLoanRepo) filter(keep func(*domain.Loan) bool) []*domain.Loan {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Loan
	for _, l := range r.s.loans {
		if keep(l) {
			out = append(out, cloneLoan(l))
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].DueDate.Before(out[b].DueDate) })
	return out
}

// installments

type fakeInstallmentRepo struct{ s *memStore }

func (r fakeInstallmentRepo) CreateBatch(ctx context.Context, insts []*domain.Installment) error {
	return r.SaveAll(ctx, insts)
}

func (r fakeInstallmentRepo) SaveAll(_ context.Context, insts []*domain.Installment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, i := range insts {
		r.s.installments[i.ID] = cloneInstallment(i)
	}
	return nil
}

func (r fakeInstallmentRepo) FindByLoanID(_ context.Context, loanID string) ([]*domain.Installment, error) {
	return r.filter(func(i *domain.Installment) bool { return i.LoanID == loanID }), nil
}

func (r fakeInstallmentRepo) FindByLoanAndStatus(_ context.Context, loanID string, status domain.InstallmentStatus) ([]*domain.Installment, error) {
	return r.filter(func(i *domain.Installment) bool { return i.LoanID == loanID && i.Status == status }), nil
}

func (r fakeInstallmentRepo) CountByLoanStatusDueBefore(_ context.Context, loanID string, status domain.InstallmentStatus, before time.Time) (int64, error) {
	return int64(len(r.filter(func(i *domain.Installment) bool {
		return i.LoanID == loanID && i.Status == status && i.DueDate.Before(before)
	}))), nil
}

func (r fakeInstallmentRepo) FindDueBetween(_ context.Context, loanStatus domain.LoanStatus, status domain.InstallmentStatus, from, to time.Time) ([]*domain.Installment, error) {
	r.s.mu.Lock()
	statuses := make(map[string]domain.LoanStatus, len(r.s.loans))
	for id, l := range r.s.loans {
		statuses[id] = l.Status
	}
	r.s.mu.Unlock()

	return r.filter(func(i *domain.Installment) bool {
		return statuses[i.LoanID] == loanStatus && i.Status == status &&
			!i.DueDate.Before(from) && !i.DueDate.After(to)
	}), nil
}

func (r fakeInstallmentRepo) filter(keep func(*domain.Installment) bool) []*domain.Installment {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Installment
	for _, i := range r.s.installments {
		if keep(i) {
			out = append(out, cloneInstallment(i))
		}
	}
	domain.SortByDueDate(out)
	return out
}

// payments

type fakePaymentRepo struct{ s *memStore }

func (r fakePaymentRepo) Save(_ context.Context, p *domain.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.payments {
		if existing.PaymentCode == p.PaymentCode {
			return domain.ErrDuplicatePaymentCode
		}
	}
	cp := *p
	r.s.payments = append(r.s.payments, &cp)
	return nil
}

func (r fakePaymentRepo) FindByPaymentCode(_ context.Context, code string) (*domain.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.payments {
		if p.PaymentCode == code {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrPaymentNotFound
}

func (r fakePaymentRepo) FindByLoanID(_ context.Context, loanID string) ([]*domain.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Payment
	for _, p := range r.s.payments {
		if p.LoanID == loanID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r fakePaymentRepo) SumCompletedByLoanID(ctx context.Context, loanID string) (decimal.Decimal, error) {
	payments, _ := r.FindByLoanID(ctx, loanID)
	total := decimal.Zero
	for _, p := range payments {
		if p.Status == domain.PaymentStatusCompleted {
			total = total.Add(p.Amount)
		}
	}
	return total, nil
}

// loan fees

type fakeLoanFeeRepo struct{ s *memStore }

func (r fakeLoanFeeRepo) Create(_ context.Context, lf *domain.LoanFee) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *lf
	r.s.loanFees = append(r.s.loanFees, &cp)
	return nil
}

func (r fakeLoanFeeRepo) Exists(_ context.Context, loanID, feeID string, appliedAt time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, lf := range r.s.loanFees {
		if lf.LoanID == loanID && lf.FeeID == feeID && lf.AppliedAt.Equal(appliedAt) {
			return true, nil
		}
	}
	return false, nil
}

func (r fakeLoanFeeRepo) FindByLoanID(_ context.Context, loanID string) ([]*domain.LoanFee, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.LoanFee
	for _, lf := range r.s.loanFees {
		if lf.LoanID == loanID {
			cp := *lf
			out = append(out, &cp)
		}
	}
	return out, nil
}

// notifications

type fakeNotificationRepo struct{ s *memStore }

func (r fakeNotificationRepo) Create(_ context.Context, n *domain.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *n
	r.s.notifications = append(r.s.notifications, &cp)
	return nil
}

func (r fakeNotificationRepo) FindByLoanID(_ context.Context, loanID string) ([]*domain.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Notification
	for _, n := range r.s.notifications {
		if n.LoanID == loanID {
			out = append(out, n)
		}
	}
	return out, nil
}

// MockNotifier is a mock implementation of domain.Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, req domain.NotificationRequest) (bool, error) {
	args := m.Called(ctx, req)
	return args.Bool(0), args.Error(1)
}

// MockBatchLocker is a mock implementation of domain.BatchLocker
type MockBatchLocker struct {
	mock.Mock
}

func (m *MockBatchLocker) TryLock(ctx context.Context, name string, ttl time.Duration) (func(context.Context) error, bool, error) {
	args := m.Called(ctx, name, ttl)
	release, _ := args.Get(0).(func(context.Context) error)
	return release, args.Bool(1), args.Error(2)
}

func notificationOf(t domain.NotificationType) interface{} {
	return mock.MatchedBy(func(req domain.NotificationRequest) bool { return req.Type == t })
}

func allNotificationsEnabled() NotificationSettings {
	enabled := make(map[domain.NotificationType]bool)
	for _, t := range []domain.NotificationType{
		domain.NotificationLoanCreation, domain.NotificationPaymentReminder, domain.NotificationInstallmentReminder,
		domain.NotificationPaymentReceived, domain.NotificationLoanOverdue, domain.NotificationLoanDefault,
		domain.NotificationLoanWrittenOff, domain.NotificationLoanClosed, domain.NotificationFeeApplied,
	} {
		enabled[t] = true
	}
	return NotificationSettings{
		DefaultChannel: domain.ChannelSMS,
		Enabled:        enabled,
		Templates: map[domain.NotificationType]string{
			domain.NotificationPaymentReceived: "Dear {{firstName}}, we received {{paymentAmount}} for loan {{loanCode}}. Balance: {{currentBalance}}.",
			domain.NotificationLoanOverdue:     "Dear {{customerName}}, your {{productName}} loan due {{dueDate}} is overdue.",
		},
	}
}
