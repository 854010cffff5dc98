package httpx

import (
	"context"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/ariefcatur/scent-admin/internal/apiclient"
	"github.com/ariefcatur/scent-admin/internal/catalog"
	"github.com/ariefcatur/scent-admin/internal/customers"
	"github.com/ariefcatur/scent-admin/internal/dashboard"
	"github.com/ariefcatur/scent-admin/internal/inventory"
	"github.com/ariefcatur/scent-admin/internal/listview"
	"github.com/ariefcatur/scent-admin/internal/orders"
	"github.com/ariefcatur/scent-admin/internal/resource"
	"github.com/ariefcatur/scent-admin/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

const requestTimeout = 10 * time.Second

// ConsoleHandler serves the admin pages as JSON. The query string of every
// list endpoint is the page state, decoded the same way the list controller
// does.
type ConsoleHandler struct {
	Products   *catalog.Products
	Categories *catalog.Categories
	Orders     *orders.Service
	Customers  *customers.Service
	Inventory  *inventory.Service
	Dashboard  *dashboard.Service
	Auth       *session.Authenticator
	Log        logrus.FieldLogger
}

// ListResponse is one list page: the normalized state, the canonical query
// string for it and the data.
type ListResponse[T any] struct {
	State listview.State `json:"state"`
	Query string         `json:"query"`
	Data  T              `json:"data"`
}

type adjustReq struct {
	inventory.Adjustment
	Current int `json:"current"`
}

type noteReq struct {
	Note string `json:"note"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *ConsoleHandler) Register(r chi.Router) {
	r.Route("/console", func(r chi.Router) {
		r.Post("/login", h.login)
		r.Post("/logout", h.logout)

		r.Get("/dashboard", h.dashboard)
		r.Get("/dashboard/sales", h.sales)

		r.Get("/products", h.listProducts)
		r.Get("/categories", h.listCategories)
		r.Delete("/categories/{id}", h.deleteCategory)

		r.Get("/orders", h.listOrders)
		r.Get("/orders/{id}", h.getOrder)
		r.Put("/orders/{id}/status", h.updateOrderStatus)
		r.Post("/orders/{id}/notes", h.addOrderNote)

		r.Get("/customers", h.listCustomers)

		r.Get("/inventory", h.listInventory)
		r.Get("/inventory/low-stock", h.lowStock)
		r.Get("/inventory/report", h.inventoryReport)
		r.Get("/inventory/export", h.inventoryExport)
		r.Post("/inventory/{id}/adjust", h.adjustStock)
		r.Get("/inventory/{id}/history", h.stockHistory)
	})
}

func (h *ConsoleHandler) log() logrus.FieldLogger {
	if h.Log == nil {
		return logrus.StandardLogger()
	}
	return h.Log
}

func timeout(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), requestTimeout)
}

func listPage[T any](w http.ResponseWriter, r *http.Request, spec listview.Spec, fetch func(context.Context, listview.State) (T, error)) {
	st := spec.Decode(r.URL.Query())
	ctx, cancel := timeout(r)
	defer cancel()

	data, err := fetch(ctx, st)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse[T]{State: st, Query: spec.Encode(st).Encode(), Data: data})
}

// ---- auth ----

func (h *ConsoleHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if !decodeBody(w, r, &req) {
		return
	}
	ctx, cancel := timeout(r)
	defer cancel()
	if err := h.Auth.Login(ctx, req.Email, req.Password); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"authenticated": true})
}

func (h *ConsoleHandler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Auth.Logout(r.Context()); err != nil {
		h.log().WithError(err).Warn("logout")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"redirect": "/login"})
}

// ---- dashboard ----

func (h *ConsoleHandler) dashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeout(r)
	defer cancel()
	ov, err := h.Dashboard.Load(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ov)
}

func (h *ConsoleHandler) sales(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeout(r)
	defer cancel()
	points, err := h.Dashboard.SalesData(ctx, r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

// ---- catalog ----

func (h *ConsoleHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	listPage(w, r, listview.Products, func(ctx context.Context, st listview.State) (catalog.ProductPage, error) {
		return h.Products.List(ctx, catalog.ProductQuery{
			PageQuery: st.Query(),
			Status:    st.Filter("status"),
			Category:  st.Filter("category"),
		}), nil
	})
}

func (h *ConsoleHandler) listCategories(w http.ResponseWriter, r *http.Request) {
	listPage(w, r, listview.Categories, func(ctx context.Context, st listview.State) (catalog.CategoryPage, error) {
		q := catalog.CategoryQuery{PageQuery: st.Query(), Parent: st.Filter("parent"), Tree: st.View == "tree"}
		if b, err := strconv.ParseBool(st.Filter("featured")); err == nil {
			q.Featured = &b
		}
		return h.Categories.List(ctx, q), nil
	})
}

// deleteCategory always asks the backend; a category that still has
// products is refused there, and that message is returned as is.
func (h *ConsoleHandler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeout(r)
	defer cancel()
	if err := h.Categories.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- orders ----

func (h *ConsoleHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	listPage(w, r, listview.Orders, func(ctx context.Context, st listview.State) (orders.OrderPage, error) {
		return h.Orders.List(ctx, orders.Query{
			PageQuery:     st.Query(),
			Status:        st.Filter("status"),
			PaymentStatus: st.Filter("payment_status"),
			From:          st.Filter("from"),
			To:            st.Filter("to"),
		})
	})
}

func (h *ConsoleHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeout(r)
	defer cancel()
	o, err := h.Orders.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *ConsoleHandler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var in orders.StatusUpdate
	if !decodeBody(w, r, &in) {
		return
	}
	ctx, cancel := timeout(r)
	defer cancel()
	o, err := h.Orders.UpdateStatus(ctx, chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *ConsoleHandler) addOrderNote(w http.ResponseWriter, r *http.Request) {
	var in noteReq
	if !decodeBody(w, r, &in) {
		return
	}
	ctx, cancel := timeout(r)
	defer cancel()
	n, err := h.Orders.AddNote(ctx, chi.URLParam(r, "id"), in.Note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

// ---- customers ----

func (h *ConsoleHandler) listCustomers(w http.ResponseWriter, r *http.Request) {
	listPage(w, r, listview.Customers, func(ctx context.Context, st listview.State) (customers.Page, error) {
		vip, _ := strconv.ParseBool(st.Filter("vip"))
		return h.Customers.List(ctx, customers.Query{PageQuery: st.Query(), Status: st.Filter("status"), VIP: vip})
	})
}

// ---- inventory ----

func (h *ConsoleHandler) listInventory(w http.ResponseWriter, r *http.Request) {
	listPage(w, r, listview.Inventory, func(ctx context.Context, st listview.State) (inventory.Page, error) {
		return h.Inventory.List(ctx, inventory.QueryFromState(st))
	})
}

func (h *ConsoleHandler) lowStock(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeout(r)
	defer cancel()
	items, err := h.Inventory.LowStock(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// adjustStock takes the quantity the operator was looking at in "current",
// so the negative-stock guard runs against what they saw.
func (h *ConsoleHandler) adjustStock(w http.ResponseWriter, r *http.Request) {
	var req adjustReq
	if !decodeBody(w, r, &req) {
		return
	}
	ctx, cancel := timeout(r)
	defer cancel()
	it, err := h.Inventory.Adjust(ctx, chi.URLParam(r, "id"), req.Current, req.Adjustment)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (h *ConsoleHandler) stockHistory(w http.ResponseWriter, r *http.Request) {
	st := listview.Inventory.Decode(r.URL.Query())
	ctx, cancel := timeout(r)
	defer cancel()
	hist, err := h.Inventory.History(ctx, chi.URLParam(r, "id"), resource.PageQuery{Page: st.Page, Limit: st.Limit})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hist)
}

func (h *ConsoleHandler) inventoryReport(w http.ResponseWriter, r *http.Request) {
	h.download(w, r, h.Inventory.Report, "inventory-report.pdf")
}

func (h *ConsoleHandler) inventoryExport(w http.ResponseWriter, r *http.Request) {
	h.download(w, r, h.Inventory.Export, "inventory.csv")
}

func (h *ConsoleHandler) download(w http.ResponseWriter, r *http.Request, get func(context.Context, inventory.Query) (apiclient.Blob, error), fallbackName string) {
	st := listview.Inventory.Decode(r.URL.Query())
	ctx, cancel := timeout(r)
	defer cancel()
	blob, err := get(ctx, inventory.QueryFromState(st))
	if err != nil {
		writeError(w, err)
		return
	}
	name := blob.Filename
	if name == "" {
		name = fallbackName
	}
	if blob.ContentType != "" {
		w.Header().Set("Content-Type", blob.ContentType)
	}
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(blob.Data)
}
