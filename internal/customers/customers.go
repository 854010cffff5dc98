// Package customers wraps the admin customer endpoints.
package customers

import (
	"context"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/ariefcatur/scent-admin/internal/notes"
	"github.com/ariefcatur/scent-admin/internal/orders"
	"github.com/ariefcatur/scent-admin/internal/resource"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

type Stats struct {
	TotalOrders int             `json:"totalOrders"`
	TotalSpent  decimal.Decimal `json:"totalSpent"`
	LastOrderAt time.Time       `json:"lastOrderAt,omitempty"`
}

type Customer struct {
	ID        string         `json:"id"`
	FirstName string         `json:"firstName"`
	LastName  string         `json:"lastName"`
	FullName  string         `json:"fullName"`
	Email     string         `json:"email"`
	Phone     string         `json:"phone,omitempty"`
	Address   orders.Address `json:"address"`
	VIP       bool           `json:"vip"`
	Flagged   bool           `json:"flagged"`
	Status    Status         `json:"status"`
	Stats     Stats          `json:"stats"`
	Notes     []notes.Note   `json:"notes"`
	CreatedAt time.Time      `json:"createdAt"`
}

type Page struct {
	Items      []Customer          `json:"items"`
	Pagination resource.Pagination `json:"pagination"`
}

func (p Page) Clone() Page {
	p.Items = slices.Clone(p.Items)
	return p
}

type Query struct {
	resource.PageQuery
	Status string
	VIP    bool
}

func (q Query) Values() url.Values {
	v := q.PageQuery.Values()
	resource.Set(v, "status", q.Status)
	if q.VIP {
		v.Set("vip", "true")
	}
	return v
}

// Update carries only the fields the operator may change. Nil pointers are
// left out of the request.
type Update struct {
	FirstName *string         `json:"firstName,omitempty"`
	LastName  *string         `json:"lastName,omitempty"`
	Phone     *string         `json:"phone,omitempty"`
	Address   *orders.Address `json:"address,omitempty"`
	VIP       *bool           `json:"isVip,omitempty"`
	Flagged   *bool           `json:"isFlagged,omitempty"`
	Status    *Status         `json:"status,omitempty"`
}

type rawStats struct {
	TotalOrders resource.Int    `json:"totalOrders"`
	OrderCount  resource.Int    `json:"orderCount"`
	TotalSpent  decimal.Decimal `json:"totalSpent"`
	LastOrderAt time.Time       `json:"lastOrderAt"`
}

type rawCustomer struct {
	ID        resource.ID       `json:"id"`
	MongoID   resource.ID       `json:"_id"`
	FirstName string            `json:"firstName"`
	LastName  string            `json:"lastName"`
	Name      string            `json:"name"`
	Email     string            `json:"email"`
	Phone     string            `json:"phone"`
	Address   orders.RawAddress `json:"address"`
	IsVIP     bool              `json:"isVip"`
	VIP       bool              `json:"vip"`
	IsFlagged bool              `json:"isFlagged"`
	Flagged   bool              `json:"flagged"`
	Status    string            `json:"status"`
	IsActive  *bool             `json:"isActive"`
	Stats     *rawStats         `json:"stats"`
	rawStats
	Notes     []notes.Raw `json:"notes"`
	CreatedAt time.Time   `json:"createdAt"`
}

func normalize(r rawCustomer) Customer {
	c := Customer{
		ID:        resource.FirstID(r.ID, r.MongoID),
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Phone:     r.Phone,
		Address:   r.Address.Normalize(),
		VIP:       r.IsVIP || r.VIP,
		Flagged:   r.IsFlagged || r.Flagged,
		Notes:     notes.NormalizeAll(r.Notes),
		CreatedAt: r.CreatedAt,
	}
	c.FullName = strings.TrimSpace(c.FirstName + " " + c.LastName)
	if c.FullName == "" {
		c.FullName = strings.TrimSpace(r.Name)
		if c.FirstName == "" && c.FullName != "" {
			c.FirstName, c.LastName, _ = strings.Cut(c.FullName, " ")
		}
	}
	if c.FullName == "" {
		c.FullName = c.Email
	}

	switch {
	case r.Status != "":
		c.Status = Status(strings.ToLower(r.Status))
	case r.IsActive != nil && !*r.IsActive:
		c.Status = StatusInactive
	default:
		c.Status = StatusActive
	}

	// stats come either nested or flattened onto the customer
	s := r.rawStats
	if r.Stats != nil {
		s = *r.Stats
	}
	c.Stats = Stats{
		TotalOrders: int(s.TotalOrders),
		TotalSpent:  s.TotalSpent,
		LastOrderAt: s.LastOrderAt,
	}
	if c.Stats.TotalOrders == 0 {
		c.Stats.TotalOrders = int(s.OrderCount)
	}
	return c
}

type Service struct {
	resource.Service
}

func NewService(svc resource.Service) *Service {
	return &Service{Service: svc}
}

func (s *Service) List(ctx context.Context, q Query) (Page, error) {
	return resource.Read(ctx, s.Service, "customers", "/admin/customers", q.Values(), func(r resource.ListBody[rawCustomer]) Page {
		items := make([]Customer, 0, len(r.Items))
		for _, raw := range r.Items {
			items = append(items, normalize(raw))
		}
		return Page{Items: items, Pagination: r.Pagination.Normalize(len(items), q.PageQuery)}
	})
}

func (s *Service) Get(ctx context.Context, id string) (Customer, error) {
	if id == "" {
		return Customer{}, resource.ErrMissingID
	}
	return resource.Read(ctx, s.Service, "customers/"+id, path(id), nil, func(r resource.Data[rawCustomer]) Customer {
		return normalize(r.Value)
	})
}

func (s *Service) Update(ctx context.Context, id string, in Update) (Customer, error) {
	if id == "" {
		return Customer{}, resource.ErrMissingID
	}
	var out resource.Data[rawCustomer]
	if err := s.Mutate(ctx, http.MethodPut, path(id), in, &out); err != nil {
		return Customer{}, err
	}
	return normalize(out.Value), nil
}

// Orders is the customer's order history.
func (s *Service) Orders(ctx context.Context, id string, q resource.PageQuery) (orders.OrderPage, error) {
	if id == "" {
		return orders.OrderPage{}, resource.ErrMissingID
	}
	return resource.Read(ctx, s.Service, "customers/"+id+"/orders", path(id)+"/orders", q.Values(), func(r orders.RawList) orders.OrderPage {
		return orders.NormalizePage(r, q)
	})
}

func (s *Service) AddNote(ctx context.Context, id, text string) (notes.Note, error) {
	if id == "" {
		return notes.Note{}, resource.ErrMissingID
	}
	if strings.TrimSpace(text) == "" {
		return notes.Note{}, notes.ErrEmpty
	}
	var out notes.AddResponse
	if err := s.Mutate(ctx, http.MethodPost, path(id)+"/notes", map[string]string{"note": text}, &out); err != nil {
		return notes.Note{}, err
	}
	if out.Note.Text == "" {
		out.Note.Text = text
	}
	return out.Note, nil
}

func path(id string) string { return "/admin/customers/" + url.PathEscape(id) }
