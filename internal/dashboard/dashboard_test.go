package dashboard_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/ariefcatur/scent-admin/internal/apitest"
	"github.com/ariefcatur/scent-admin/internal/cache"
	"github.com/ariefcatur/scent-admin/internal/dashboard"
	"github.com/ariefcatur/scent-admin/internal/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(b *apitest.Backend) *dashboard.Service {
	return dashboard.NewService(resource.NewService(b.Client, b.Cache, cache.DashboardTTL, b.Log))
}

func routes(b *apitest.Backend) {
	b.Router.Get("/admin/dashboard/summary", apitest.Raw(`{"data":{"totalRevenue":"1250.00","totalOrders":"25","totalCustomers":18,"lowStockCount":3,"revenueChange":12.5}}`))
	b.Router.Get("/admin/dashboard/recent-orders", apitest.Raw(`{"data":[{"_id":"o1","orderNumber":"SC-1","status":"processing","total":"64.50"}]}`))
	b.Router.Get("/admin/dashboard/activity-feed", apitest.Raw(`[{"_id":"a1","action":"order.created","description":"New order SC-1","createdAt":"2026-03-01T08:00:00Z"}]`))
}

func TestLoad_AllThree(t *testing.T) {
	b := apitest.New(t)
	routes(b)

	ov, err := newService(b).Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "1250", ov.Summary.Revenue.String())
	assert.Equal(t, 25, ov.Summary.Orders)
	assert.Equal(t, 3, ov.Summary.LowStock)
	assert.Equal(t, "50", ov.Summary.AverageOrder.String())
	require.Len(t, ov.RecentOrders, 1)
	assert.Equal(t, "SC-1", ov.RecentOrders[0].Number)
	require.Len(t, ov.Activity, 1)
	assert.Equal(t, "order.created", ov.Activity[0].Type)
	assert.Equal(t, "New order SC-1", ov.Activity[0].Message)
}

func TestLoad_OneFailureFailsTheWholeLoad(t *testing.T) {
	b := apitest.New(t)
	b.Router.Get("/admin/dashboard/summary", apitest.Raw(`{"totalOrders":1}`))
	b.Router.Get("/admin/dashboard/recent-orders", apitest.Fail(http.StatusInternalServerError, "query timeout"))
	b.Router.Get("/admin/dashboard/activity-feed", apitest.Raw(`[]`))

	ov, err := newService(b).Load(context.Background())

	require.Error(t, err)
	assert.Equal(t, dashboard.Overview{}, ov)
}

func TestReads_UseDashboardTTL(t *testing.T) {
	b := apitest.New(t)
	routes(b)
	svc := newService(b)
	ctx := context.Background()

	_, err := svc.Summary(ctx)
	require.NoError(t, err)
	b.Clock.Advance(59 * time.Second)
	_, err = svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, b.Hits(http.MethodGet, "/admin/dashboard/summary"))

	b.Clock.Advance(time.Second)
	_, err = svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, b.Hits(http.MethodGet, "/admin/dashboard/summary"))
}

func TestSalesData(t *testing.T) {
	b := apitest.New(t)
	b.Router.Get("/admin/dashboard/sales-data", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "30d", r.URL.Query().Get("period"))
		apitest.Raw(`{"data":[{"_id":"2026-02-28","sales":"310.5","count":4},{"label":"Mar 1","revenue":99,"orders":1}]}`)(w, r)
	})

	points, err := newService(b).SalesData(context.Background(), "30d")

	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, "2026-02-28", points[0].Label)
	assert.Equal(t, "310.5", points[0].Revenue.String())
	assert.Equal(t, 4, points[0].Orders)
	assert.Equal(t, "Mar 1", points[1].Label)
}
