package inventory

import (
	"context"
	"net/url"
	"sync"

	"github.com/ariefcatur/scent-admin/internal/listview"
	"golang.org/x/sync/errgroup"
)

// Screen is the inventory page: the filtered stock list plus the separate
// low-stock panel.
type Screen struct {
	svc  *Service
	List *listview.Controller[Page]

	mu     sync.Mutex
	low    []Item
	lowErr error
}

// QueryFromState maps list page state to an inventory query.
func QueryFromState(st listview.State) Query {
	return Query{PageQuery: st.Query(), Status: st.Filter("status"), Category: st.Filter("category")}
}

func NewScreen(ctx context.Context, svc *Service, initial url.Values, opts listview.Options[Page]) *Screen {
	fetch := func(ctx context.Context, st listview.State) (Page, error) {
		return svc.List(ctx, QueryFromState(st))
	}
	return &Screen{svc: svc, List: listview.New(ctx, listview.Inventory, initial, fetch, opts)}
}

// Load fetches the list and the low-stock panel together. The screen counts
// as loaded only when both succeed.
func (s *Screen) Load(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return s.List.Load().Err })
	g.Go(func() error { return s.reloadLowStock(ctx) })
	return g.Wait()
}

func (s *Screen) LowStock() ([]Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Item(nil), s.low...), s.lowErr
}

// Adjust applies a to item, using the quantity the operator saw for the
// client-side guard. After a successful adjustment both the list and the
// low-stock panel are fetched again rather than patched.
func (s *Screen) Adjust(ctx context.Context, item Item, a Adjustment) (Item, error) {
	updated, err := s.svc.Adjust(ctx, item.ID, item.StockQuantity, a)
	if err != nil {
		return Item{}, err
	}
	var g errgroup.Group
	g.Go(func() error { return s.List.Retry().Err })
	g.Go(func() error { return s.reloadLowStock(ctx) })
	if err := g.Wait(); err != nil {
		s.svc.Log.WithError(err).WithField("item", item.ID).Warn("refresh after adjustment failed")
	}
	return updated, nil
}

func (s *Screen) Close() { s.List.Close() }

func (s *Screen) reloadLowStock(ctx context.Context) error {
	items, err := s.svc.LowStock(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		s.low = items
	}
	s.lowErr = err
	return err
}
