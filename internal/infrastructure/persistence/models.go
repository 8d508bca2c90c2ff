package persistence

import (
	"time"

	"github.com/gigmile/lending-service/internal/domain"
	"github.com/shopspring/decimal"
)

// CustomerModel represents the database schema for customers
type CustomerModel struct {
	ID                  string                 `gorm:"primaryKey;type:varchar(50)"`
	FirstName           string                 `gorm:"type:varchar(100);not null"`
	MiddleName          string                 `gorm:"type:varchar(100)"`
	LastName            string                 `gorm:"type:varchar(100);not null"`
	Email               string                 `gorm:"type:varchar(150);index"`
	Phone               string                 `gorm:"type:varchar(30);uniqueIndex;not null"`
	IDNumber            string                 `gorm:"type:varchar(50);index"`
	LoanLimit           decimal.Decimal        `gorm:"type:decimal(15,2);not null"`
	BillingCycle        string                 `gorm:"type:varchar(20);not null"`
	PreferredBillingDay int                    `gorm:"not null;default:0"`
	Status              string                 `gorm:"type:varchar(20);not null;index"`
	Channels            []CustomerChannelModel `gorm:"foreignKey:CustomerID"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (CustomerModel) TableName() string {
	return "customers"
}

// CustomerChannelModel is one notification channel a customer opted into.
type CustomerChannelModel struct {
	CustomerID string `gorm:"primaryKey;type:varchar(50)"`
	Channel    string `gorm:"primaryKey;type:varchar(10)"`
}

func (CustomerChannelModel) TableName() string {
	return "customer_notification_channels"
}

// ToDomain converts database model to domain entity
func (m *CustomerModel) ToDomain() *domain.Customer {
	customer := &domain.Customer{
		ID:                  m.ID,
		FirstName:           m.FirstName,
		MiddleName:          m.MiddleName,
		LastName:            m.LastName,
		Email:               m.Email,
		Phone:               m.Phone,
		IDNumber:            m.IDNumber,
		LoanLimit:           m.LoanLimit,
		BillingCycle:        domain.BillingCycle(m.BillingCycle),
		PreferredBillingDay: m.PreferredBillingDay,
		Status:              domain.CustomerStatus(m.Status),
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
	for _, ch := range m.Channels {
		customer.Channels = append(customer.Channels, domain.NotificationChannel(ch.Channel))
	}
	return customer
}

// CustomerModelFromDomain converts domain entity to database model
func CustomerModelFromDomain(c *domain.Customer) *CustomerModel {
	model := &CustomerModel{
		ID:                  c.ID,
		FirstName:           c.FirstName,
		MiddleName:          c.MiddleName,
		LastName:            c.LastName,
		Email:               c.Email,
		Phone:               c.Phone,
		IDNumber:            c.IDNumber,
		LoanLimit:           c.LoanLimit,
		BillingCycle:        string(c.BillingCycle),
		PreferredBillingDay: c.PreferredBillingDay,
		Status:              string(c.Status),
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
	}
	for _, ch := range c.Channels {
		model.Channels = append(model.Channels, CustomerChannelModel{CustomerID: c.ID, Channel: string(ch)})
	}
	return model
}

type ProductModel struct {
	ID                     string `gorm:"primaryKey;type:varchar(50)"`
	Name                   string `gorm:"type:varchar(100);not null"`
	Description            string `gorm:"type:text"`
	TenureType             string `gorm:"type:varchar(10);not null"`
	TenureValue            int    `gorm:"not null"`
	DaysAfterDueForLateFee int    `gorm:"not null;default:0"`
	Status                 string `gorm:"type:varchar(20);not null"`
	IsFixedTerm            bool   `gorm:"not null;default:false"`
	NotificationsEnabled   bool   `gorm:"not null;default:true"`
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

func (ProductModel) TableName() string {
	return "products"
}

func (m *ProductModel) ToDomain(fees []FeeModel) *domain.Product {
	product := &domain.Product{
		ID:                     m.ID,
		Name:                   m.Name,
		Description:            m.Description,
		TenureType:             domain.TenureType(m.TenureType),
		TenureValue:            m.TenureValue,
		DaysAfterDueForLateFee: m.DaysAfterDueForLateFee,
		Status:                 domain.ProductStatus(m.Status),
		IsFixedTerm:            m.IsFixedTerm,
		NotificationsEnabled:   m.NotificationsEnabled,
		CreatedAt:              m.CreatedAt,
		UpdatedAt:              m.UpdatedAt,
	}
	for i := range fees {
		product.Fees = append(product.Fees, fees[i].ToDomain())
	}
	return product
}

func ProductModelFromDomain(p *domain.Product) *ProductModel {
	return &ProductModel{
		ID:                     p.ID,
		Name:                   p.Name,
		Description:            p.Description,
		TenureType:             string(p.TenureType),
		TenureValue:            p.TenureValue,
		DaysAfterDueForLateFee: p.DaysAfterDueForLateFee,
		Status:                 string(p.Status),
		IsFixedTerm:            p.IsFixedTerm,
		NotificationsEnabled:   p.NotificationsEnabled,
		CreatedAt:              p.CreatedAt,
		UpdatedAt:              p.UpdatedAt,
	}
}

type FeeModel struct {
	ID                string          `gorm:"primaryKey;type:varchar(50)"`
	Name              string          `gorm:"type:varchar(100);not null"`
	Type              string          `gorm:"type:varchar(20);not null"`
	CalculationType   string          `gorm:"type:varchar(20);not null"`
	Value             decimal.Decimal `gorm:"type:decimal(15,4);not null"`
	ApplicationTiming string          `gorm:"type:varchar(20);not null"`
	Description       string          `gorm:"type:text"`
	IsActive          bool            `gorm:"not null;default:true"`
	CreatedAt         time.Time
}

func (FeeModel) TableName() string {
	return "fees"
}

func (m *FeeModel) ToDomain() *domain.Fee {
	return &domain.Fee{
		ID:                m.ID,
		Name:              m.Name,
		Type:              domain.FeeType(m.Type),
		CalculationType:   domain.CalculationType(m.CalculationType),
		Value:             m.Value,
		ApplicationTiming: domain.ApplicationTiming(m.ApplicationTiming),
		Description:       m.Description,
		IsActive:          m.IsActive,
		CreatedAt:         m.CreatedAt,
	}
}

func FeeModelFromDomain(f *domain.Fee) *FeeModel {
	return &FeeModel{
		ID:                f.ID,
		Name:              f.Name,
		Type:              string(f.Type),
		CalculationType:   string(f.CalculationType),
		Value:             f.Value,
		ApplicationTiming: string(f.ApplicationTiming),
		Description:       f.Description,
		IsActive:          f.IsActive,
		CreatedAt:         f.CreatedAt,
	}
}

// ProductFeeModel attaches a fee to a product.
type ProductFeeModel struct {
	ProductID string `gorm:"primaryKey;type:varchar(50)"`
	FeeID     string `gorm:"primaryKey;type:varchar(50)"`
	CreatedAt time.Time
}

func (ProductFeeModel) TableName() string {
	return "product_fees"
}

// LoanModel represents the database schema for loans
type LoanModel struct {
	ID               string          `gorm:"primaryKey;type:varchar(50)"`
	LoanCode         string          `gorm:"type:varchar(30);not null;index"`
	CustomerID       string          `gorm:"type:varchar(50);not null;index"`
	ProductID        string          `gorm:"type:varchar(50);not null"`
	Principal        decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	DisbursementDate time.Time       `gorm:"not null"`
	DueDate          time.Time       `gorm:"not null;index:idx_loans_status_due,priority:2"`
	StructureType    string          `gorm:"type:varchar(20);not null"`
	Status           string          `gorm:"type:varchar(20);not null;index:idx_loans_status_due,priority:1"`
	CurrentBalance   decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	Description      string          `gorm:"type:text"`
	Version          int64           `gorm:"not null;default:1"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (LoanModel) TableName() string {
	return "loans"
}

func (m *LoanModel) ToDomain() *domain.Loan {
	return &domain.Loan{
		ID:               m.ID,
		LoanCode:         m.LoanCode,
		CustomerID:       m.CustomerID,
		ProductID:        m.ProductID,
		Principal:        m.Principal,
		DisbursementDate: m.DisbursementDate.UTC(),
		DueDate:          m.DueDate.UTC(),
		StructureType:    domain.StructureType(m.StructureType),
		Status:           domain.LoanStatus(m.Status),
		CurrentBalance:   m.CurrentBalance,
		Description:      m.Description,
		Version:          m.Version,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func LoanModelFromDomain(l *domain.Loan) *LoanModel {
	return &LoanModel{
		ID:               l.ID,
		LoanCode:         l.LoanCode,
		CustomerID:       l.CustomerID,
		ProductID:        l.ProductID,
		Principal:        l.Principal,
		DisbursementDate: l.DisbursementDate,
		DueDate:          l.DueDate,
		StructureType:    string(l.StructureType),
		Status:           string(l.Status),
		CurrentBalance:   l.CurrentBalance,
		Description:      l.Description,
		Version:          l.Version,
		CreatedAt:        l.CreatedAt,
		UpdatedAt:        l.UpdatedAt,
	}
}

type InstallmentModel struct {
	ID         string          `gorm:"primaryKey;type:varchar(50)"`
	LoanID     string          `gorm:"type:varchar(50);not null;index"`
	Amount     decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	AmountPaid decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	DueDate    time.Time       `gorm:"not null;index"`
	Status     string          `gorm:"type:varchar(20);not null;index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (InstallmentModel) TableName() string {
	return "installments"
}

func (m *InstallmentModel) ToDomain() *domain.Installment {
	return &domain.Installment{
		ID:         m.ID,
		LoanID:     m.LoanID,
		Amount:     m.Amount,
		AmountPaid: m.AmountPaid,
		DueDate:    m.DueDate.UTC(),
		Status:     domain.InstallmentStatus(m.Status),
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func InstallmentModelFromDomain(i *domain.Installment) *InstallmentModel {
	return &InstallmentModel{
		ID:         i.ID,
		LoanID:     i.LoanID,
		Amount:     i.Amount,
		AmountPaid: i.AmountPaid,
		DueDate:    i.DueDate,
		Status:     string(i.Status),
		CreatedAt:  i.CreatedAt,
		UpdatedAt:  i.UpdatedAt,
	}
}

// PaymentModel represents the database schema for payments
type PaymentModel struct {
	ID          string          `gorm:"primaryKey;type:varchar(50)"`
	LoanID      string          `gorm:"type:varchar(50);not null;index"`
	Amount      decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	PaymentDate time.Time       `gorm:"not null;index"`
	Method      string          `gorm:"type:varchar(20);not null"`
	Status      string          `gorm:"type:varchar(20);not null"`
	PaymentCode string          `gorm:"type:varchar(100);uniqueIndex;not null"`
	CreatedAt   time.Time
}

func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts database model to domain entity
func (m *PaymentModel) ToDomain() *domain.Payment {
	return &domain.Payment{
		ID:          m.ID,
		LoanID:      m.LoanID,
		Amount:      m.Amount,
		PaymentDate: m.PaymentDate,
		Method:      domain.PaymentMethod(m.Method),
		Status:      domain.PaymentStatus(m.Status),
		PaymentCode: m.PaymentCode,
		CreatedAt:   m.CreatedAt,
	}
}

// PaymentModelFromDomain converts domain entity to database model
func PaymentModelFromDomain(p *domain.Payment) *PaymentModel {
	return &PaymentModel{
		ID:          p.ID,
		LoanID:      p.LoanID,
		Amount:      p.Amount,
		PaymentDate: p.PaymentDate,
		Method:      string(p.Method),
		Status:      string(p.Status),
		PaymentCode: p.PaymentCode,
		CreatedAt:   p.CreatedAt,
	}
}

// LoanFeeModel is one application of a fee. A fee applies at most once per
// loan and day.
type LoanFeeModel struct {
	ID        string          `gorm:"primaryKey;type:varchar(50)"`
	LoanID    string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_loan_fee_day,priority:1"`
	FeeID     string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_loan_fee_day,priority:2"`
	Amount    decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	AppliedAt time.Time       `gorm:"not null;uniqueIndex:idx_loan_fee_day,priority:3"`
}

func (LoanFeeModel) TableName() string {
	return "loan_fees"
}

func (m *LoanFeeModel) ToDomain() *domain.LoanFee {
	return &domain.LoanFee{
		ID:        m.ID,
		LoanID:    m.LoanID,
		FeeID:     m.FeeID,
		Amount:    m.Amount,
		AppliedAt: m.AppliedAt.UTC(),
	}
}

func LoanFeeModelFromDomain(lf *domain.LoanFee) *LoanFeeModel {
	return &LoanFeeModel{
		ID:        lf.ID,
		LoanID:    lf.LoanID,
		FeeID:     lf.FeeID,
		Amount:    lf.Amount,
		AppliedAt: lf.AppliedAt,
	}
}

type NotificationModel struct {
	ID         string `gorm:"primaryKey;type:varchar(50)"`
	CustomerID string `gorm:"type:varchar(50);not null;index"`
	LoanID     string `gorm:"type:varchar(50);index"`
	Type       string `gorm:"type:varchar(30);not null"`
	Channel    string `gorm:"type:varchar(10);not null"`
	Content    string `gorm:"type:text"`
	Status     string `gorm:"type:varchar(20);not null"`
	SentAt     *time.Time
	CreatedAt  time.Time
}

func (NotificationModel) TableName() string {
	return "notifications"
}

func (m *NotificationModel) ToDomain() *domain.Notification {
	return &domain.Notification{
		ID:         m.ID,
		CustomerID: m.CustomerID,
		LoanID:     m.LoanID,
		Type:       domain.NotificationType(m.Type),
		Channel:    domain.NotificationChannel(m.Channel),
		Content:    m.Content,
		Status:     domain.NotificationStatus(m.Status),
		SentAt:     m.SentAt,
		CreatedAt:  m.CreatedAt,
	}
}

func NotificationModelFromDomain(n *domain.Notification) *NotificationModel {
	return &NotificationModel{
		ID:         n.ID,
		CustomerID: n.CustomerID,
		LoanID:     n.LoanID,
		Type:       string(n.Type),
		Channel:    string(n.Channel),
		Content:    n.Content,
		Status:     string(n.Status),
		SentAt:     n.SentAt,
		CreatedAt:  n.CreatedAt,
	}
}

// Models lists every table for AutoMigrate.
func Models() []interface{} {
	return []interface{}{
		&CustomerModel{},
		&CustomerChannelModel{},
		&ProductModel{},
		&FeeModel{},
		&ProductFeeModel{},
		&LoanModel{},
		&InstallmentModel{},
		&PaymentModel{},
		&LoanFeeModel{},
		&NotificationModel{},
	}
}
