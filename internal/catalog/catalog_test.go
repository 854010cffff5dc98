package catalog_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/ariefcatur/scent-admin/internal/apiclient"
	"github.com/ariefcatur/scent-admin/internal/apitest"
	"github.com/ariefcatur/scent-admin/internal/cache"
	"github.com/ariefcatur/scent-admin/internal/catalog"
	"github.com/ariefcatur/scent-admin/internal/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func services(b *apitest.Backend) (*catalog.Products, *catalog.Categories) {
	svc := resource.NewService(b.Client, b.Cache, cache.CatalogTTL, b.Log)
	return catalog.NewProducts(svc), catalog.NewCategories(svc)
}

// =============================================================================
// Products
// =============================================================================

const productList = `{
  "success": true,
  "data": {
    "products": [
      {
        "_id": "p1", "name": "Rose Noir", "sku": "RN-50", "price": "64.50", "stock": 7,
        "category": {"_id": "c1", "name": "Eau de Parfum"}, "status": "Published",
        "images": [
          {"_id": "i1", "url": "a.jpg"},
          {"_id": "i2", "url": "b.jpg", "isMain": true},
          {"_id": "i3", "url": "c.jpg", "isMain": true}
        ],
        "variants": [{"_id": "v1", "name": "100ml", "sku": "RN-100", "price": 99, "stockQuantity": 2}]
      },
      {"id": 2, "name": "Amber Candle", "price": 18, "categoryId": "c2", "status": "draft", "images": [{"url": "x.jpg"}]}
    ],
    "pagination": {"page": 1, "limit": 20, "total": 2}
  }
}`

func TestProducts_ListNormalizes(t *testing.T) {
	b := apitest.New(t)
	b.Router.Get("/admin/products", apitest.Raw(productList))
	products, _ := services(b)

	page := products.List(context.Background(), catalog.ProductQuery{})

	require.Len(t, page.Items, 2)
	p := page.Items[0]
	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, "64.5", p.Price.String())
	assert.Equal(t, 7, p.StockQuantity)
	assert.Equal(t, "c1", p.CategoryID)
	assert.Equal(t, "Eau de Parfum", p.CategoryName)
	assert.Equal(t, catalog.StatusPublished, p.Status)
	assert.Equal(t, "b.jpg", p.MainImage)
	assert.False(t, p.Images[0].IsMain)
	assert.True(t, p.Images[1].IsMain)
	assert.False(t, p.Images[2].IsMain, "only one image may stay main")
	assert.Equal(t, 2, p.Variants[0].StockQuantity)

	q := page.Items[1]
	assert.Equal(t, "2", q.ID)
	assert.Equal(t, 0, q.StockQuantity)
	assert.Equal(t, "c2", q.CategoryID)
	assert.Equal(t, catalog.StatusDraft, q.Status)
	assert.Equal(t, "x.jpg", q.MainImage)

	assert.EqualValues(t, 1, page.Pagination.TotalPages)
}

func TestProducts_ListForwardsFiltersAndCaches(t *testing.T) {
	b := apitest.New(t)
	var gotQuery string
	b.Router.Get("/admin/products", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		apitest.JSON(w, http.StatusOK, map[string]any{"data": []any{}})
	})
	products, _ := services(b)
	q := catalog.ProductQuery{
		PageQuery: resource.PageQuery{Page: 2, Limit: 10, Search: "rose"},
		Status:    "published",
	}

	products.List(context.Background(), q)
	products.List(context.Background(), q)

	assert.Equal(t, "limit=10&page=2&search=rose&status=published", gotQuery)
	assert.Equal(t, 1, b.Hits(http.MethodGet, "/admin/products"))

	b.Clock.Advance(cache.CatalogTTL)
	products.List(context.Background(), q)
	assert.Equal(t, 2, b.Hits(http.MethodGet, "/admin/products"))
}

func TestProducts_ListResultIsPrivateToCaller(t *testing.T) {
	b := apitest.New(t)
	b.Router.Get("/admin/products", apitest.Raw(productList))
	products, _ := services(b)
	ctx := context.Background()

	first := products.List(ctx, catalog.ProductQuery{})
	require.NotEmpty(t, first.Items)
	first.Items[0].Name = "renamed locally"

	second := products.List(ctx, catalog.ProductQuery{})
	assert.Equal(t, "Rose Noir", second.Items[0].Name)
	assert.Equal(t, 1, b.Hits(http.MethodGet, "/admin/products"))
}

func TestProducts_ListDegradesToEmpty(t *testing.T) {
	b := apitest.New(t)
	b.Router.Get("/admin/products", apitest.Fail(http.StatusInternalServerError, "db down"))
	products, _ := services(b)

	page := products.List(context.Background(), catalog.ProductQuery{PageQuery: resource.PageQuery{Limit: 20}})

	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
	assert.EqualValues(t, 1, page.Pagination.Page)
	assert.EqualValues(t, 0, page.Pagination.Total)
}

func TestProducts_WriteInvalidatesEverything(t *testing.T) {
	b := apitest.New(t)
	b.Router.Get("/admin/products", apitest.Raw(`[]`))
	b.Router.Get("/admin/categories", apitest.Raw(`[]`))
	b.Router.Post("/admin/products", func(w http.ResponseWriter, r *http.Request) {
		var in map[string]any
		apitest.Decode(t, r, &in)
		assert.Equal(t, "Vetiver", in["name"])
		assert.Equal(t, "c1", in["category"])
		apitest.JSON(w, http.StatusCreated, map[string]any{"data": map[string]any{"_id": "p9", "name": "Vetiver"}})
	})
	products, categories := services(b)
	ctx := context.Background()

	products.List(ctx, catalog.ProductQuery{})
	categories.List(ctx, catalog.CategoryQuery{})

	created, err := products.Create(ctx, catalog.ProductInput{Name: "Vetiver", CategoryID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, "p9", created.ID)

	products.List(ctx, catalog.ProductQuery{})
	categories.List(ctx, catalog.CategoryQuery{})
	assert.Equal(t, 2, b.Hits(http.MethodGet, "/admin/products"))
	assert.Equal(t, 2, b.Hits(http.MethodGet, "/admin/categories"))
}

func TestProducts_ImagesAndSKU(t *testing.T) {
	b := apitest.New(t)
	b.Router.Put("/admin/products/p1/images/i2/main", apitest.Raw(`{"data":{"_id":"p1","images":[{"_id":"i2","url":"b.jpg","isMain":true}]}}`))
	b.Router.Delete("/admin/products/p1/images/i3", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	b.Router.Get("/admin/products/generate-sku", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Rose Noir", r.URL.Query().Get("name"))
		apitest.JSON(w, http.StatusOK, map[string]string{"sku": "EDP-RN-001"})
	})
	products, _ := services(b)
	ctx := context.Background()

	p, err := products.SetMainImage(ctx, "p1", "i2")
	require.NoError(t, err)
	assert.Equal(t, "b.jpg", p.MainImage)

	require.NoError(t, products.DeleteImage(ctx, "p1", "i3"))

	sku, err := products.GenerateSKU(ctx, "Rose Noir", "")
	require.NoError(t, err)
	assert.Equal(t, "EDP-RN-001", sku)
	_, _ = products.GenerateSKU(ctx, "Rose Noir", "")
	assert.Equal(t, 2, b.Hits(http.MethodGet, "/admin/products/generate-sku"))
}

// =============================================================================
// Categories
// =============================================================================

func TestCategories_TreeNormalization(t *testing.T) {
	b := apitest.New(t)
	b.Router.Get("/admin/categories", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("tree"))
		apitest.Raw(`{"data":[
		  {"_id":"c1","name":"Candles","productsCount":0,"children":[
		    {"_id":"c2","name":"Soy Candles","productCount":4},
		    {"_id":"c3","name":"Tea Lights","slug":"tea-lights"}
		  ]},
		  {"_id":"c4","name":"Gift Sets","isFeatured":true}
		]}`)(w, r)
	})
	_, categories := services(b)

	page := categories.List(context.Background(), catalog.CategoryQuery{Tree: true})

	require.Len(t, page.Items, 2)
	candles := page.Items[0]
	assert.Equal(t, 2, candles.SubcategoryCount)
	assert.False(t, candles.CanDelete())
	require.Len(t, candles.Children, 2)
	assert.Equal(t, "c1", candles.Children[0].ParentID)
	assert.Equal(t, "soy-candles", candles.Children[0].Slug)
	assert.False(t, candles.Children[0].CanDelete())
	assert.True(t, candles.Children[1].CanDelete())

	gifts := page.Items[1]
	assert.True(t, gifts.Featured)
	assert.True(t, gifts.CanDelete())
}

func TestCategories_DeleteSurfacesServerMessageVerbatim(t *testing.T) {
	b := apitest.New(t)
	msg := "Cannot delete category with 3 products. Reassign them first."
	b.Router.Delete("/admin/categories/c2", apitest.Fail(http.StatusBadRequest, msg))
	_, categories := services(b)

	err := categories.Delete(context.Background(), "c2")

	require.Error(t, err)
	assert.Equal(t, msg, apiclient.Message(err))
}

func TestCategories_UpdateRejectsOwnParent(t *testing.T) {
	b := apitest.New(t)
	_, categories := services(b)
	self := "c1"

	_, err := categories.Update(context.Background(), "c1", catalog.CategoryInput{Name: "Candles", ParentID: &self})

	assert.ErrorIs(t, err, catalog.ErrOwnParent)
	assert.Equal(t, 0, b.Hits(http.MethodPut, "/admin/categories/c1"))
}

func TestCategories_CreateDefaultsSlug(t *testing.T) {
	b := apitest.New(t)
	b.Router.Post("/admin/categories", func(w http.ResponseWriter, r *http.Request) {
		var in map[string]any
		apitest.Decode(t, r, &in)
		assert.Equal(t, "reed-diffusers-home", in["slug"])
		assert.Nil(t, in["parent"])
		apitest.JSON(w, http.StatusCreated, map[string]any{"_id": "c9", "name": in["name"], "slug": in["slug"]})
	})
	_, categories := services(b)
	empty := ""

	c, err := categories.Create(context.Background(), catalog.CategoryInput{Name: " Reed Diffusers & Home ", ParentID: &empty})

	require.NoError(t, err)
	assert.Equal(t, "c9", c.ID)

	_, err = categories.Create(context.Background(), catalog.CategoryInput{Name: "  "})
	assert.ErrorIs(t, err, catalog.ErrMissingName)
}
