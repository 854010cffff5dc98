package orders

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ariefcatur/scent-admin/internal/notes"
	"github.com/ariefcatur/scent-admin/internal/resource"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidStatus = errors.New("unknown order status")
	ErrEmptyEmail    = errors.New("email subject and message are required")
	ErrRefundAmount  = errors.New("refund amount must be positive")
)

type Query struct {
	resource.PageQuery
	Status        string
	PaymentStatus string
	From          string // YYYY-MM-DD
	To            string
}

func (q Query) Values() url.Values {
	v := q.PageQuery.Values()
	resource.Set(v, "status", q.Status)
	resource.Set(v, "payment_status", q.PaymentStatus)
	resource.Set(v, "from", q.From)
	resource.Set(v, "to", q.To)
	return v
}

type StatusUpdate struct {
	Status         Status `json:"status"`
	Note           string `json:"note,omitempty"`
	TrackingNumber string `json:"trackingNumber,omitempty"`
	NotifyCustomer bool   `json:"notifyCustomer"`
}

// RefundInput with a zero Amount asks for a full refund.
type RefundInput struct {
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason"`
}

type Email struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type Service struct {
	resource.Service
}

func NewService(svc resource.Service) *Service {
	return &Service{Service: svc}
}

// List propagates failures; the orders page shows a retry state instead of
// an empty table.
func (s *Service) List(ctx context.Context, q Query) (OrderPage, error) {
	return resource.Read(ctx, s.Service, "orders", "/admin/orders", q.Values(), func(r resource.ListBody[rawOrder]) OrderPage {
		return NormalizePage(r, q.PageQuery)
	})
}

// NormalizePage turns a decoded list body into an OrderPage. The customers
// service uses it for a customer's order history.
func NormalizePage(r resource.ListBody[rawOrder], q resource.PageQuery) OrderPage {
	items := make([]Order, 0, len(r.Items))
	for _, raw := range r.Items {
		items = append(items, normalizeOrder(raw))
	}
	return OrderPage{Items: items, Pagination: r.Pagination.Normalize(len(items), q)}
}

// RawList is the decoded form of an order list response.
type RawList = resource.ListBody[rawOrder]

func (s *Service) Get(ctx context.Context, id string) (Order, error) {
	if id == "" {
		return Order{}, resource.ErrMissingID
	}
	return resource.Read(ctx, s.Service, "orders/"+id, path(id), nil, func(r resource.Data[rawOrder]) Order {
		return normalizeOrder(r.Value)
	})
}

// UpdateStatus only checks that in.Status is a known status; transition
// rules belong to the server.
func (s *Service) UpdateStatus(ctx context.Context, id string, in StatusUpdate) (Order, error) {
	if id == "" {
		return Order{}, resource.ErrMissingID
	}
	if !in.Status.Valid() {
		return Order{}, fmt.Errorf("%w: %q", ErrInvalidStatus, in.Status)
	}
	return s.write(ctx, http.MethodPut, path(id, "status"), in)
}

func (s *Service) Refund(ctx context.Context, id string, in RefundInput) (Order, error) {
	if id == "" {
		return Order{}, resource.ErrMissingID
	}
	if in.Amount.IsNegative() {
		return Order{}, ErrRefundAmount
	}
	return s.write(ctx, http.MethodPost, path(id, "refund"), in)
}

func (s *Service) AddNote(ctx context.Context, id, text string) (notes.Note, error) {
	if id == "" {
		return notes.Note{}, resource.ErrMissingID
	}
	if strings.TrimSpace(text) == "" {
		return notes.Note{}, notes.ErrEmpty
	}
	var out notes.AddResponse
	if err := s.Mutate(ctx, http.MethodPost, path(id, "notes"), map[string]string{"note": text}, &out); err != nil {
		return notes.Note{}, err
	}
	if out.Note.Text == "" {
		out.Note.Text = text
	}
	return out.Note, nil
}

func (s *Service) SendEmail(ctx context.Context, id string, in Email) error {
	if id == "" {
		return resource.ErrMissingID
	}
	if strings.TrimSpace(in.Subject) == "" || strings.TrimSpace(in.Message) == "" {
		return ErrEmptyEmail
	}
	return s.Mutate(ctx, http.MethodPost, path(id, "email"), in, nil)
}

func (s *Service) write(ctx context.Context, method, p string, body any) (Order, error) {
	var out resource.Data[rawOrder]
	if err := s.Mutate(ctx, method, p, body, &out); err != nil {
		return Order{}, err
	}
	return normalizeOrder(out.Value), nil
}

func path(id string, sub ...string) string {
	p := "/admin/orders/" + url.PathEscape(id)
	for _, s := range sub {
		p += "/" + s
	}
	return p
}
