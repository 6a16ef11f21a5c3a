package domain

import "time"

// Enumerations
const (
	RoleAdmin   UserRole = "admin"
	RoleCashier UserRole = "cashier"
	RoleBarber  UserRole = "barber"

	LogInfo    ActivityLogType = "info"
	LogWarning ActivityLogType = "warning"
	LogError   ActivityLogType = "error"

	PaymentCash PaymentMethod = "cash"
	PaymentQRIS PaymentMethod = "qris"

	CommissionPercentage CommissionType = "percentage"
	CommissionFlat       CommissionType = "flat"

	ShiftOpen   ShiftStatus = "open"
	ShiftClosed ShiftStatus = "closed"

	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"

	OutboxPending OutboxStatus = "pending"
	OutboxSent    OutboxStatus = "sent"
	OutboxFailed  OutboxStatus = "failed"

	CapitalIn  CapitalType = "in"
	CapitalOut CapitalType = "out"
)

type UserRole string
type ActivityLogType string
type PaymentMethod string
type CommissionType string
type ShiftStatus string
type BookingStatus string
type OutboxStatus string
type CapitalType string

func (m PaymentMethod) Valid() bool {
	return m == PaymentCash || m == PaymentQRIS
}

func (c CommissionType) Valid() bool {
	return c == CommissionPercentage || c == CommissionFlat
}

func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleCashier || r == RoleBarber
}

type User struct {
	ID              int64
	Name            string
	Email           string
	Phone           string
	Role            UserRole
	IsGoogle        bool
	PasswordHash    *string
	PinHash         *string
	CommissionType  *CommissionType
	CommissionValue *float64
	Active          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       *time.Time
}

// Service is a bookable/sellable catalog entry. Price is in minor currency units.
type Service struct {
	ID              int64
	Name            string
	Price           int64
	CommissionType  CommissionType
	CommissionValue float64
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Customer struct {
	ID          int64
	Name        string
	Phone       string
	TotalVisits int
	LastVisit   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Transaction is an immutable invoice. Items carry a snapshot of name and price,
// not a reference to the catalog.
type Transaction struct {
	ID            int64
	InvoiceCode   string
	Date          time.Time
	BarberID      int64
	BarberName    string
	CustomerName  *string
	CustomerPhone *string
	Items         []TransactionItem
	TotalAmount   int64
	PaymentMethod PaymentMethod
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type TransactionItem struct {
	ID            int64
	TransactionID int64
	Name          string
	Price         int64
	Qty           int
}

// ItemsTotal returns Σ price×qty.
func ItemsTotal(items []TransactionItem) int64 {
	var sum int64
	for _, it := range items {
		sum += it.Price * int64(it.Qty)
	}
	return sum
}

type CashShift struct {
	ID            int64
	OpenedByID    int64
	OpenedByName  string
	ClosedByID    *int64
	StartCash     int64
	ActualEndCash *int64
	TotalRevenue  int64
	Status        ShiftStatus
	StartTime     time.Time
	EndTime       *time.Time
}

// ExpectedCash is the drawer amount implied by the accrued revenue.
func (s CashShift) ExpectedCash() int64 {
	return s.StartCash + s.TotalRevenue
}

type ShiftSummary struct {
	ShiftID      int64
	TotalCash    int64
	TotalQRIS    int64
	Transactions int64
}

type Booking struct {
	ID            int64
	BarberID      int64
	BarberName    string
	CustomerName  string
	CustomerPhone string
	BookingDate   time.Time
	TimeSlot      string
	ServiceID     *int64
	ServiceName   string
	ServicePrice  *int64
	Status        BookingStatus
	PaymentProof  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type OffDay struct {
	ID        int64
	BarberID  int64
	Date      time.Time
	Reason    string
	CreatedAt time.Time
}

type Expense struct {
	ID          int64
	Description string
	Amount      int64
	Category    string
	Date        time.Time
	CreatedAt   time.Time
}

type Capital struct {
	ID          int64
	Description string
	Amount      int64
	Type        CapitalType
	Date        time.Time
	CreatedAt   time.Time
}

// PayrollRow is the on-demand commission summary for one staff member.
type PayrollRow struct {
	BarberID            int64
	BarberName          string
	Year                int
	Month               time.Month
	TotalTransactions   int64
	TotalRevenue        int64
	EstimatedCommission int64
}

type ProfitLoss struct {
	Revenue    int64
	Expenses   int64
	Profit     int64
	CapitalIn  int64
	CapitalOut int64
}

type ActivityLog struct {
	ID         int64
	Title      string
	Message    string
	Actor      string
	Type       ActivityLogType
	EntityType string
	EntityID   *int64
	OldValue   *string
	NewValue   *string
	LoggedAt   time.Time
}

// OutboxMessage is a WhatsApp message awaiting delivery.
type OutboxMessage struct {
	ID            int64
	Kind          string
	Phone         string
	Message       string
	Status        OutboxStatus
	Attempts      int
	LastError     *string
	NextAttemptAt time.Time
	SentAt        *time.Time
	CreatedAt     time.Time
}
