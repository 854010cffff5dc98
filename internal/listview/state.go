// Package listview keeps a list page's pagination, filter and search state
// in step with its URL query string and drives the page's fetches.
package listview

import (
	"maps"
	"net/url"
	"strconv"
	"strings"

	"github.com/ariefcatur/scent-admin/internal/resource"
)

const MaxLimit = 100

// State is everything a list page encodes in its URL.
type State struct {
	Page    int               `json:"page"`
	Limit   int               `json:"limit"`
	Search  string            `json:"search"`
	Filters map[string]string `json:"filters"`
	View    string            `json:"view"`
}

func (s State) Clone() State {
	s.Filters = maps.Clone(s.Filters)
	if s.Filters == nil {
		s.Filters = map[string]string{}
	}
	return s
}

func (s State) Equal(o State) bool {
	return s.Page == o.Page && s.Limit == o.Limit && s.Search == o.Search && s.View == o.View &&
		maps.Equal(s.Filters, o.Filters)
}

func (s State) Filter(key string) string { return s.Filters[key] }

// Query is the pagination and search part of s in service form.
func (s State) Query() resource.PageQuery {
	return resource.PageQuery{Page: s.Page, Limit: s.Limit, Search: s.Search}
}

// Spec describes one list page: the filter keys it understands, its default
// page size and the views it can switch between (first is the default).
type Spec struct {
	Name         string
	Filters      []string
	DefaultLimit int
	Views        []string
}

var (
	Products = Spec{
		Name:         "products",
		Filters:      []string{"status", "category"},
		DefaultLimit: 20,
		Views:        []string{"list", "grid"},
	}
	Orders = Spec{
		Name:         "orders",
		Filters:      []string{"status", "payment_status", "from", "to"},
		DefaultLimit: 20,
		Views:        []string{"list"},
	}
	Customers = Spec{
		Name:         "customers",
		Filters:      []string{"status", "vip"},
		DefaultLimit: 20,
		Views:        []string{"list"},
	}
	Categories = Spec{
		Name:         "categories",
		Filters:      []string{"parent", "featured"},
		DefaultLimit: 50,
		Views:        []string{"list", "tree"},
	}
	Inventory = Spec{
		Name:         "inventory",
		Filters:      []string{"status", "category"},
		DefaultLimit: 20,
		Views:        []string{"list"},
	}
)

// Specs indexes the built-in pages by name.
var Specs = map[string]Spec{
	Products.Name:   Products,
	Orders.Name:     Orders,
	Customers.Name:  Customers,
	Categories.Name: Categories,
	Inventory.Name:  Inventory,
}

func (sp Spec) Default() State {
	return State{Page: 1, Limit: sp.limit(), Filters: map[string]string{}, View: sp.defaultView()}
}

func (sp Spec) HasFilter(key string) bool {
	for _, f := range sp.Filters {
		if f == key {
			return true
		}
	}
	return false
}

func (sp Spec) HasView(v string) bool {
	for _, x := range sp.Views {
		if x == v {
			return true
		}
	}
	return false
}

// Decode builds a State from a query string. Missing or malformed values
// fall back to the page defaults and unknown keys are ignored.
func (sp Spec) Decode(q url.Values) State {
	st := sp.Default()
	if n, err := strconv.Atoi(q.Get("page")); err == nil && n > 0 {
		st.Page = n
	}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 {
		st.Limit = min(n, MaxLimit)
	}
	st.Search = strings.TrimSpace(q.Get("search"))
	for _, f := range sp.Filters {
		if v := strings.TrimSpace(q.Get(f)); v != "" {
			st.Filters[f] = v
		}
	}
	if v := q.Get("view"); sp.HasView(v) {
		st.View = v
	}
	return st
}

// Encode writes only what differs from the defaults, so a fresh page has a
// clean URL. Decode(Encode(s)) == s for any State built by this Spec.
func (sp Spec) Encode(st State) url.Values {
	q := url.Values{}
	if st.Page > 1 {
		q.Set("page", strconv.Itoa(st.Page))
	}
	if st.Limit > 0 && st.Limit != sp.limit() {
		q.Set("limit", strconv.Itoa(st.Limit))
	}
	resource.Set(q, "search", st.Search)
	for _, f := range sp.Filters {
		resource.Set(q, f, st.Filters[f])
	}
	if st.View != "" && st.View != sp.defaultView() {
		q.Set("view", st.View)
	}
	return q
}

func (sp Spec) limit() int {
	if sp.DefaultLimit > 0 {
		return sp.DefaultLimit
	}
	return 20
}

func (sp Spec) defaultView() string {
	if len(sp.Views) > 0 {
		return sp.Views[0]
	}
	return "list"
}
