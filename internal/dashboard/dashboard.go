// Package dashboard loads the back-office landing page.
package dashboard

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/ariefcatur/scent-admin/internal/orders"
	"github.com/ariefcatur/scent-admin/internal/resource"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultRecentOrders = 5
	DefaultActivity     = 10
)

type Summary struct {
	Revenue       decimal.Decimal `json:"revenue"`
	Orders        int             `json:"orders"`
	Customers     int             `json:"customers"`
	Products      int             `json:"products"`
	PendingOrders int             `json:"pendingOrders"`
	LowStock      int             `json:"lowStock"`
	RevenueChange float64         `json:"revenueChange"`
	OrdersChange  float64         `json:"ordersChange"`
	AverageOrder  decimal.Decimal `json:"averageOrder"`
}

type Activity struct {
	ID      string    `json:"id"`
	Type    string    `json:"type"`
	Message string    `json:"message"`
	Actor   string    `json:"actor,omitempty"`
	At      time.Time `json:"at"`
}

type SalesPoint struct {
	Label   string          `json:"label"`
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int             `json:"orders"`
}

// Overview is the part of the dashboard that renders together.
type Overview struct {
	Summary      Summary        `json:"summary"`
	RecentOrders []orders.Order `json:"recentOrders"`
	Activity     []Activity     `json:"activity"`
}

type rawSummary struct {
	Revenue        decimal.Decimal `json:"revenue"`
	TotalRevenue   decimal.Decimal `json:"totalRevenue"`
	Orders         resource.Int    `json:"orders"`
	TotalOrders    resource.Int    `json:"totalOrders"`
	Customers      resource.Int    `json:"customers"`
	TotalCustomers resource.Int    `json:"totalCustomers"`
	Products       resource.Int    `json:"products"`
	TotalProducts  resource.Int    `json:"totalProducts"`
	PendingOrders  resource.Int    `json:"pendingOrders"`
	LowStock       resource.Int    `json:"lowStock"`
	LowStockCount  resource.Int    `json:"lowStockCount"`
	RevenueChange  float64         `json:"revenueChange"`
	OrdersChange   float64         `json:"ordersChange"`
}

func normalizeSummary(r rawSummary) Summary {
	s := Summary{
		Revenue:       r.Revenue,
		Orders:        int(r.Orders),
		Customers:     int(r.Customers),
		Products:      int(r.Products),
		PendingOrders: int(r.PendingOrders),
		LowStock:      int(r.LowStock),
		RevenueChange: r.RevenueChange,
		OrdersChange:  r.OrdersChange,
	}
	if s.Revenue.IsZero() {
		s.Revenue = r.TotalRevenue
	}
	if s.Orders == 0 {
		s.Orders = int(r.TotalOrders)
	}
	if s.Customers == 0 {
		s.Customers = int(r.TotalCustomers)
	}
	if s.Products == 0 {
		s.Products = int(r.TotalProducts)
	}
	if s.LowStock == 0 {
		s.LowStock = int(r.LowStockCount)
	}
	if s.Orders > 0 {
		s.AverageOrder = s.Revenue.DivRound(decimal.NewFromInt(int64(s.Orders)), 2)
	}
	return s
}

type rawActivity struct {
	ID          resource.ID `json:"id"`
	MongoID     resource.ID `json:"_id"`
	Type        string      `json:"type"`
	Action      string      `json:"action"`
	Message     string      `json:"message"`
	Description string      `json:"description"`
	User        string      `json:"user"`
	Timestamp   time.Time   `json:"timestamp"`
	CreatedAt   time.Time   `json:"createdAt"`
}

type rawSalesPoint struct {
	Label   string          `json:"label"`
	Date    string          `json:"date"`
	ID      string          `json:"_id"`
	Revenue decimal.Decimal `json:"revenue"`
	Sales   decimal.Decimal `json:"sales"`
	Orders  resource.Int    `json:"orders"`
	Count   resource.Int    `json:"count"`
}

type Service struct {
	resource.Service
}

// NewService expects svc to carry the dashboard TTL.
func NewService(svc resource.Service) *Service {
	return &Service{Service: svc}
}

func (s *Service) Summary(ctx context.Context) (Summary, error) {
	return resource.Read(ctx, s.Service, "dashboard/summary", "/admin/dashboard/summary", nil, func(r resource.Data[rawSummary]) Summary {
		return normalizeSummary(r.Value)
	})
}

func (s *Service) RecentOrders(ctx context.Context, limit int) ([]orders.Order, error) {
	if limit <= 0 {
		limit = DefaultRecentOrders
	}
	q := url.Values{"limit": {strconv.Itoa(limit)}}
	page, err := resource.Read(ctx, s.Service, "dashboard/recent-orders", "/admin/dashboard/recent-orders", q, func(r orders.RawList) orders.OrderPage {
		return orders.NormalizePage(r, resource.PageQuery{Limit: limit})
	})
	return page.Items, err
}

func (s *Service) ActivityFeed(ctx context.Context, limit int) ([]Activity, error) {
	if limit <= 0 {
		limit = DefaultActivity
	}
	q := url.Values{"limit": {strconv.Itoa(limit)}}
	return resource.Read(ctx, s.Service, "dashboard/activity-feed", "/admin/dashboard/activity-feed", q, func(r resource.ListBody[rawActivity]) []Activity {
		out := make([]Activity, 0, len(r.Items))
		for _, a := range r.Items {
			act := Activity{
				ID:      resource.FirstID(a.ID, a.MongoID),
				Type:    first(a.Type, a.Action),
				Message: first(a.Message, a.Description),
				Actor:   a.User,
				At:      a.Timestamp,
			}
			if act.At.IsZero() {
				act.At = a.CreatedAt
			}
			out = append(out, act)
		}
		return out
	})
}

// SalesData is the revenue series for period ("7d", "30d", "12m").
func (s *Service) SalesData(ctx context.Context, period string) ([]SalesPoint, error) {
	if period == "" {
		period = "7d"
	}
	q := url.Values{"period": {period}}
	return resource.Read(ctx, s.Service, "dashboard/sales-data", "/admin/dashboard/sales-data", q, func(r resource.ListBody[rawSalesPoint]) []SalesPoint {
		out := make([]SalesPoint, 0, len(r.Items))
		for _, p := range r.Items {
			sp := SalesPoint{Label: first(p.Label, p.Date, p.ID), Revenue: p.Revenue, Orders: int(p.Orders)}
			if sp.Revenue.IsZero() {
				sp.Revenue = p.Sales
			}
			if sp.Orders == 0 {
				sp.Orders = int(p.Count)
			}
			out = append(out, sp)
		}
		return out
	})
}

// Load fetches summary, recent orders and the activity feed in parallel.
// It succeeds only if all three do; a partial overview is never returned.
func (s *Service) Load(ctx context.Context) (Overview, error) {
	var ov Overview
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sum, err := s.Summary(ctx)
		ov.Summary = sum
		return err
	})
	g.Go(func() error {
		recent, err := s.RecentOrders(ctx, DefaultRecentOrders)
		ov.RecentOrders = recent
		return err
	})
	g.Go(func() error {
		feed, err := s.ActivityFeed(ctx, DefaultActivity)
		ov.Activity = feed
		return err
	})
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}
	return ov, nil
}

func first(vs ...string) string {
	for _, v := range vs {
		if v != "" {
			return v
		}
	}
	return ""
}
