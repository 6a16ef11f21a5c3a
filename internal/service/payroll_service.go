package service

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nicolaananda/barber-pos-sub000/internal/domain"
)

// PayrollService computes monthly commission per staff member by replaying
// the month's transactions against the service catalog.
type PayrollService struct {
	Transactions TransactionStore
	Users        UserStore
	Catalog      CatalogStore
	Location     *time.Location
}

var hundred = decimal.NewFromInt(100)

// Compute returns one row per non-admin user. Active staff always appear;
// inactive staff appear only when they have transactions in the month.
func (s PayrollService) Compute(ctx context.Context, year int, month time.Month) ([]domain.PayrollRow, error) {
	if month < time.January || month > time.December {
		return nil, domain.ValidationError("month must be between 1 and 12")
	}
	if year < 2000 || year > 9999 {
		return nil, domain.ValidationError("year is out of range")
	}

	users, err := s.Users.List(ctx, true)
	if err != nil {
		return nil, domain.PersistenceError("list users", err)
	}
	services, err := s.Catalog.List(ctx, true)
	if err != nil {
		return nil, domain.PersistenceError("list services", err)
	}
	start, end := domain.MonthBounds(year, month, s.Location)
	txs, err := s.Transactions.ListBetween(ctx, start, end)
	if err != nil {
		return nil, domain.PersistenceError("list transactions", err)
	}

	rules := CommissionRules(services)
	type acc struct {
		count      int64
		revenue    int64
		commission decimal.Decimal
	}
	byBarber := make(map[int64]*acc)
	usersByID := make(map[int64]domain.User, len(users))
	for _, u := range users {
		usersByID[u.ID] = u
	}
	for _, tx := range txs {
		a := byBarber[tx.BarberID]
		if a == nil {
			a = &acc{commission: decimal.Zero}
			byBarber[tx.BarberID] = a
		}
		a.count++
		a.revenue += tx.TotalAmount
		u := usersByID[tx.BarberID]
		a.commission = a.commission.Add(TransactionCommission(tx, rules, u))
	}

	rows := make([]domain.PayrollRow, 0, len(users))
	for _, u := range users {
		if u.Role == domain.RoleAdmin {
			continue
		}
		a := byBarber[u.ID]
		if a == nil && !u.Active {
			continue
		}
		row := domain.PayrollRow{BarberID: u.ID, BarberName: u.Name, Year: year, Month: month}
		if a != nil {
			row.TotalTransactions = a.count
			row.TotalRevenue = a.revenue
			row.EstimatedCommission = a.commission.Round(0).IntPart()
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// CommissionRules indexes services by normalized name. Inactive services are
// kept so historical line items still resolve.
func CommissionRules(services []domain.Service) map[string]domain.Service {
	rules := make(map[string]domain.Service, len(services))
	for _, svc := range services {
		key := serviceKey(svc.Name)
		if existing, ok := rules[key]; ok && existing.IsActive && !svc.IsActive {
			continue
		}
		rules[key] = svc
	}
	return rules
}

// TransactionCommission returns the unrounded commission for one transaction.
// Line items matched to a service use that service's rule; the rest fall back
// to the staff member's own rate, where a flat rate counts once per
// transaction.
func TransactionCommission(tx domain.Transaction, rules map[string]domain.Service, barber domain.User) decimal.Decimal {
	total := decimal.Zero
	var unmatchedRevenue int64
	unmatched := false
	for _, it := range tx.Items {
		svc, ok := rules[serviceKey(it.Name)]
		if !ok {
			unmatched = true
			unmatchedRevenue += it.Price * int64(it.Qty)
			continue
		}
		total = total.Add(lineCommission(it, svc.CommissionType, decimal.NewFromFloat(svc.CommissionValue)))
	}
	if !unmatched || barber.CommissionType == nil || barber.CommissionValue == nil {
		return total
	}
	rate := decimal.NewFromFloat(*barber.CommissionValue)
	switch *barber.CommissionType {
	case domain.CommissionPercentage:
		total = total.Add(decimal.NewFromInt(unmatchedRevenue).Mul(rate).Div(hundred))
	case domain.CommissionFlat:
		total = total.Add(rate)
	}
	return total
}

func lineCommission(it domain.TransactionItem, typ domain.CommissionType, value decimal.Decimal) decimal.Decimal {
	qty := decimal.NewFromInt(int64(it.Qty))
	switch typ {
	case domain.CommissionPercentage:
		return decimal.NewFromInt(it.Price).Mul(qty).Mul(value).Div(hundred)
	case domain.CommissionFlat:
		return value.Mul(qty)
	}
	return decimal.Zero
}

func serviceKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
