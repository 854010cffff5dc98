// Package inventory is the stock view over products: status derivation,
// guarded adjustments, history and the report/export downloads.
package inventory

import (
	"context"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/ariefcatur/scent-admin/internal/apiclient"
	"github.com/ariefcatur/scent-admin/internal/notes"
	"github.com/ariefcatur/scent-admin/internal/resource"
	"github.com/shopspring/decimal"
)

const DefaultThreshold = 10

type Item struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	SKU           string          `json:"sku"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stockQuantity"`
	Threshold     int             `json:"lowStockThreshold"`
	Status        StockStatus     `json:"status"`
	CategoryName  string          `json:"categoryName,omitempty"`
	Image         string          `json:"image,omitempty"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

type Page struct {
	Items      []Item              `json:"items"`
	Pagination resource.Pagination `json:"pagination"`
}

func (p Page) Clone() Page {
	p.Items = slices.Clone(p.Items)
	return p
}

type Query struct {
	resource.PageQuery
	Status   string
	Category string
}

func (q Query) Values() url.Values {
	v := q.PageQuery.Values()
	resource.Set(v, "status", q.Status)
	resource.Set(v, "category", q.Category)
	return v
}

type HistoryEntry struct {
	ID        string    `json:"id"`
	Reason    Reason    `json:"reason"`
	Delta     int       `json:"delta"`
	Before    int       `json:"before"`
	After     int       `json:"after"`
	Note      string    `json:"note,omitempty"`
	User      string    `json:"user,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type HistoryPage struct {
	Items      []HistoryEntry      `json:"items"`
	Pagination resource.Pagination `json:"pagination"`
}

func (p HistoryPage) Clone() HistoryPage {
	p.Items = slices.Clone(p.Items)
	return p
}

type rawImage struct {
	URL    string `json:"url"`
	IsMain bool   `json:"isMain"`
}

type rawItem struct {
	ID                resource.ID     `json:"id"`
	MongoID           resource.ID     `json:"_id"`
	Name              string          `json:"name"`
	SKU               string          `json:"sku"`
	Price             decimal.Decimal `json:"price"`
	StockQuantity     resource.Int    `json:"stockQuantity"`
	Stock             resource.Int    `json:"stock"`
	Quantity          resource.Int    `json:"quantity"`
	LowStockThreshold resource.Int    `json:"lowStockThreshold"`
	Status            string          `json:"status"`
	StockStatus       string          `json:"stockStatus"`
	Category          resource.Ref    `json:"category"`
	Image             string          `json:"image"`
	Images            []rawImage      `json:"images"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

type rawHistory struct {
	ID               resource.ID  `json:"id"`
	MongoID          resource.ID  `json:"_id"`
	Reason           string       `json:"reason"`
	Type             string       `json:"type"`
	Quantity         resource.Int `json:"quantity"`
	Delta            resource.Int `json:"delta"`
	PreviousQuantity resource.Int `json:"previousQuantity"`
	NewQuantity      resource.Int `json:"newQuantity"`
	Note             string       `json:"note"`
	User             notes.Author `json:"user"`
	CreatedBy        notes.Author `json:"createdBy"`
	CreatedAt        time.Time    `json:"createdAt"`
}

type Service struct {
	resource.Service
	// Threshold is used for items that carry no threshold of their own.
	Threshold int
}

func NewService(svc resource.Service, threshold int) *Service {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Service{Service: svc, Threshold: threshold}
}

func (s *Service) normalize(r rawItem) Item {
	it := Item{
		ID:            resource.FirstID(r.ID, r.MongoID),
		Name:          r.Name,
		SKU:           r.SKU,
		Price:         r.Price,
		StockQuantity: int(r.StockQuantity),
		Threshold:     int(r.LowStockThreshold),
		CategoryName:  r.Category.Name,
		Image:         r.Image,
		UpdatedAt:     r.UpdatedAt,
	}
	if it.StockQuantity == 0 {
		it.StockQuantity = int(r.Stock)
	}
	if it.StockQuantity == 0 {
		it.StockQuantity = int(r.Quantity)
	}
	if it.Threshold <= 0 {
		it.Threshold = s.Threshold
	}
	if it.Image == "" {
		for _, img := range r.Images {
			if img.IsMain || it.Image == "" {
				it.Image = img.URL
			}
			if img.IsMain {
				break
			}
		}
	}

	// server status wins when it is one we know
	it.Status = StockStatus(strings.ToLower(r.StockStatus))
	if !it.Status.Valid() {
		it.Status = StockStatus(strings.ToLower(r.Status))
	}
	if !it.Status.Valid() {
		it.Status = ClassifyStock(it.StockQuantity, it.Threshold)
	}
	return it
}

func (s *Service) page(r resource.ListBody[rawItem], q resource.PageQuery) Page {
	items := make([]Item, 0, len(r.Items))
	for _, raw := range r.Items {
		items = append(items, s.normalize(raw))
	}
	return Page{Items: items, Pagination: r.Pagination.Normalize(len(items), q)}
}

func (s *Service) List(ctx context.Context, q Query) (Page, error) {
	return resource.Read(ctx, s.Service, "inventory", "/admin/inventory", q.Values(), func(r resource.ListBody[rawItem]) Page {
		return s.page(r, q.PageQuery)
	})
}

// LowStock is the separate low-stock view. It is cached under its own key
// and cleared by the same global invalidation as everything else.
func (s *Service) LowStock(ctx context.Context) ([]Item, error) {
	p, err := resource.Read(ctx, s.Service, "inventory/low-stock", "/admin/inventory/low-stock", nil, func(r resource.ListBody[rawItem]) Page {
		return s.page(r, resource.PageQuery{})
	})
	return p.Items, err
}

// Adjust validates a against the quantity the operator is looking at and
// submits it. Server rejections come back as ordinary errors.
func (s *Service) Adjust(ctx context.Context, id string, current int, a Adjustment) (Item, error) {
	if id == "" {
		return Item{}, resource.ErrMissingID
	}
	if err := ValidateAdjustment(current, a); err != nil {
		return Item{}, err
	}
	var out resource.Data[rawItem]
	if err := s.Mutate(ctx, http.MethodPost, path(id, "adjust"), a, &out); err != nil {
		return Item{}, err
	}
	it := s.normalize(out.Value)
	if it.ID == "" {
		// reply carried no item; report what we asked for
		it.ID = id
		it.StockQuantity = current + a.Delta
		it.Threshold = s.Threshold
		it.Status = ClassifyStock(it.StockQuantity, it.Threshold)
	}
	return it, nil
}

func (s *Service) History(ctx context.Context, id string, q resource.PageQuery) (HistoryPage, error) {
	if id == "" {
		return HistoryPage{}, resource.ErrMissingID
	}
	return resource.Read(ctx, s.Service, "inventory/"+id+"/history", path(id, "history"), q.Values(), func(r resource.ListBody[rawHistory]) HistoryPage {
		items := make([]HistoryEntry, 0, len(r.Items))
		for _, h := range r.Items {
			items = append(items, normalizeHistory(h))
		}
		return HistoryPage{Items: items, Pagination: r.Pagination.Normalize(len(items), q)}
	})
}

func normalizeHistory(h rawHistory) HistoryEntry {
	e := HistoryEntry{
		ID:        resource.FirstID(h.ID, h.MongoID),
		Reason:    Reason(strings.ToLower(firstNonEmpty(h.Reason, h.Type))),
		Delta:     int(h.Delta),
		Before:    int(h.PreviousQuantity),
		After:     int(h.NewQuantity),
		Note:      h.Note,
		CreatedAt: h.CreatedAt,
	}
	if e.Delta == 0 {
		e.Delta = int(h.Quantity)
	}
	if e.After == 0 && e.Before+e.Delta > 0 {
		e.After = e.Before + e.Delta
	}
	e.User = firstNonEmpty(string(h.User), string(h.CreatedBy))
	return e
}

// Report downloads the stock report as a PDF.
func (s *Service) Report(ctx context.Context, q Query) (apiclient.Blob, error) {
	return s.API.Download(ctx, "/admin/inventory/report", q.Values())
}

// Export downloads the inventory as CSV.
func (s *Service) Export(ctx context.Context, q Query) (apiclient.Blob, error) {
	v := q.Values()
	v.Set("format", "csv")
	return s.API.Download(ctx, "/admin/inventory/export", v)
}

func path(id, sub string) string {
	return "/admin/inventory/" + url.PathEscape(id) + "/" + sub
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if v != "" {
			return v
		}
	}
	return ""
}
