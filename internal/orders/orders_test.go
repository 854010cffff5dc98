package orders_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/ariefcatur/scent-admin/internal/apiclient"
	"github.com/ariefcatur/scent-admin/internal/apitest"
	"github.com/ariefcatur/scent-admin/internal/cache"
	"github.com/ariefcatur/scent-admin/internal/notes"
	"github.com/ariefcatur/scent-admin/internal/orders"
	"github.com/ariefcatur/scent-admin/internal/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(b *apitest.Backend) *orders.Service {
	return orders.NewService(resource.NewService(b.Client, b.Cache, cache.CatalogTTL, b.Log))
}

const orderDetail = `{"success":true,"data":{
  "_id":"o1","orderNumber":"SC-1001","status":"Canceled",
  "customer":{"_id":"u1","firstName":"Mira","lastName":"Hale","email":"mira@example.com"},
  "paymentMethod":"card",
  "items":[
    {"product":{"_id":"p1","name":"Rose Noir"},"price":"64.50","quantity":2},
    {"productId":"p2","name":"Amber Candle","unitPrice":18,"qty":1,"subtotal":"15.00"}
  ],
  "shippingAddress":{"fullName":"Mira Hale","street":"1 Canal St","city":"Leeds","zipCode":"LS1","country":"GB"},
  "shippingFee":null,"tax":"4.20","totalAmount":"148.20",
  "statusHistory":[
    {"status":"processing","timestamp":"2026-04-02T09:00:00Z"},
    {"status":"pending","date":"2026-04-01T09:00:00Z","comment":"placed"}
  ],
  "notes":[{"_id":"n1","note":"fragile","createdBy":{"name":"Ops"}}]
}}`

func TestGet_Normalizes(t *testing.T) {
	b := apitest.New(t)
	b.Router.Get("/admin/orders/o1", apitest.Raw(orderDetail))

	o, err := newService(b).Get(context.Background(), "o1")
	require.NoError(t, err)

	assert.Equal(t, "SC-1001", o.Number)
	assert.Equal(t, orders.StatusCancelled, o.Status)
	assert.True(t, o.Status.IsTerminal())
	assert.Equal(t, "Mira Hale", o.Customer.Name)
	assert.Equal(t, orders.PaymentPending, o.Payment.Status)
	assert.Equal(t, "card", o.Payment.Method)

	require.Len(t, o.Items, 2)
	assert.Equal(t, "p1", o.Items[0].ProductID)
	assert.Equal(t, "Rose Noir", o.Items[0].Name)
	assert.Equal(t, "129", o.Items[0].Subtotal.String())
	assert.Equal(t, "15", o.Items[1].Subtotal.String(), "server subtotal wins")
	assert.Equal(t, 3, o.ItemCount())

	assert.Equal(t, "144", o.Subtotal.String())
	assert.True(t, o.ShippingFee.IsZero())
	assert.Equal(t, "148.2", o.Total.String())

	assert.Equal(t, "1 Canal St", o.ShippingAddress.Line1)
	assert.Equal(t, "LS1", o.ShippingAddress.PostalCode)

	require.Len(t, o.Timeline, 2)
	assert.Equal(t, orders.StatusPending, o.Timeline[0].Status)
	assert.Equal(t, "placed", o.Timeline[0].Note)
	assert.Equal(t, orders.StatusProcessing, o.Timeline[1].Status)

	require.Len(t, o.Notes, 1)
	assert.Equal(t, "Ops", o.Notes[0].Author)
}

func TestList_PropagatesFailure(t *testing.T) {
	b := apitest.New(t)
	b.Router.Get("/admin/orders", apitest.Fail(http.StatusInternalServerError, "boom"))

	_, err := newService(b).List(context.Background(), orders.Query{})

	require.Error(t, err)
	assert.True(t, apiclient.IsKind(err, apiclient.KindServer))
}

func TestList_ForwardsFilters(t *testing.T) {
	b := apitest.New(t)
	b.Router.Get("/admin/orders", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "paid", r.URL.Query().Get("payment_status"))
		assert.Equal(t, "shipped", r.URL.Query().Get("status"))
		apitest.Raw(`{"orders":[{"_id":"o1","customer":"u9"}],"total":41,"page":3,"limit":20}`)(w, r)
	})

	page, err := newService(b).List(context.Background(), orders.Query{Status: "shipped", PaymentStatus: "paid"})

	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "u9", page.Items[0].Customer.ID)
	assert.Equal(t, "o1", page.Items[0].Number)
	assert.EqualValues(t, 3, page.Pagination.TotalPages)
}

func TestUpdateStatus(t *testing.T) {
	b := apitest.New(t)
	b.Router.Put("/admin/orders/o1/status", func(w http.ResponseWriter, r *http.Request) {
		var in map[string]any
		apitest.Decode(t, r, &in)
		assert.Equal(t, "pending", in["status"], "no client-side transition rules")
		apitest.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"_id": "o1", "status": "pending"}})
	})
	svc := newService(b)

	o, err := svc.UpdateStatus(context.Background(), "o1", orders.StatusUpdate{Status: orders.StatusPending})
	require.NoError(t, err)
	assert.Equal(t, orders.StatusPending, o.Status)

	_, err = svc.UpdateStatus(context.Background(), "o1", orders.StatusUpdate{Status: "lost"})
	assert.ErrorIs(t, err, orders.ErrInvalidStatus)
}

func TestMutationFailurePropagatesAndInvalidates(t *testing.T) {
	b := apitest.New(t)
	b.Router.Get("/admin/orders/o1", apitest.Raw(`{"_id":"o1","status":"delivered"}`))
	b.Router.Post("/admin/orders/o1/refund", apitest.Fail(http.StatusUnprocessableEntity, "Order is not paid"))
	svc := newService(b)
	ctx := context.Background()

	_, err := svc.Get(ctx, "o1")
	require.NoError(t, err)

	_, err = svc.Refund(ctx, "o1", orders.RefundInput{Reason: "damaged"})
	require.Error(t, err)
	assert.Equal(t, "Order is not paid", apiclient.Message(err))

	_, err = svc.Get(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, 2, b.Hits(http.MethodGet, "/admin/orders/o1"))
}

func TestAddNoteAndEmail(t *testing.T) {
	b := apitest.New(t)
	b.Router.Post("/admin/orders/o1/notes", func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		apitest.Decode(t, r, &in)
		apitest.JSON(w, http.StatusCreated, map[string]any{"data": map[string]any{
			"_id": "o1", "notes": []map[string]any{{"_id": "n1", "note": "old"}, {"_id": "n2", "note": in["note"]}},
		}})
	})
	b.Router.Post("/admin/orders/o1/email", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	svc := newService(b)
	ctx := context.Background()

	n, err := svc.AddNote(ctx, "o1", "Called courier")
	require.NoError(t, err)
	assert.Equal(t, "n2", n.ID)
	assert.Equal(t, "Called courier", n.Text)

	_, err = svc.AddNote(ctx, "o1", "  ")
	assert.ErrorIs(t, err, notes.ErrEmpty)

	require.NoError(t, svc.SendEmail(ctx, "o1", orders.Email{Subject: "Shipped", Message: "On its way"}))
	assert.ErrorIs(t, svc.SendEmail(ctx, "o1", orders.Email{}), orders.ErrEmptyEmail)
}

func TestStatusHelpers(t *testing.T) {
	assert.Equal(t, orders.StatusCancelled, orders.ParseStatus("CANCELED"))
	assert.Equal(t, orders.StatusPending, orders.ParseStatus(""))
	assert.False(t, orders.StatusShipped.IsTerminal())
	assert.True(t, orders.StatusRefunded.IsTerminal())
	assert.Equal(t, orders.PaymentPaid, orders.ParsePaymentStatus("succeeded"))
	assert.Len(t, orders.Statuses(), 7)
}
