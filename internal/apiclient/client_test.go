package apiclient_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/ariefcatur/scent-admin/internal/apiclient"
	"github.com/ariefcatur/scent-admin/internal/apitest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_AttachesBearerToken(t *testing.T) {
	b := apitest.New(t)
	require.NoError(t, b.Tokens.SetToken(context.Background(), "tok-123"))

	var gotAuth string
	b.Router.Get("/admin/products", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		apitest.JSON(w, http.StatusOK, map[string]any{"data": []any{}})
	})

	require.NoError(t, b.Client.Get(context.Background(), "/admin/products", nil, nil))
	assert.Equal(t, "Bearer tok-123", gotAuth)
}

func TestClient_NoTokenNoHeader(t *testing.T) {
	b := apitest.New(t)

	var hadAuth bool
	b.Router.Get("/admin/products", func(w http.ResponseWriter, r *http.Request) {
		_, hadAuth = r.Header["Authorization"]
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, b.Client.Get(context.Background(), "/admin/products", nil, nil))
	assert.False(t, hadAuth)
}

func TestClient_UnauthorizedClearsSessionAndRedirects(t *testing.T) {
	b := apitest.New(t)
	ctx := context.Background()
	require.NoError(t, b.Tokens.SetToken(ctx, "expired"))
	b.Router.Get("/admin/orders", apitest.Fail(http.StatusUnauthorized, "jwt expired"))

	err := b.Client.Get(ctx, "/admin/orders", nil, nil)

	require.Error(t, err)
	assert.True(t, apiclient.IsKind(err, apiclient.KindAuth))
	token, _ := b.Tokens.Token(ctx)
	assert.Empty(t, token)
	authed, _ := b.Tokens.IsAuthenticated(ctx)
	assert.False(t, authed)
	assert.Equal(t, apiclient.LoginRoute, b.Nav.CurrentRoute())
}

type countingNavigator struct {
	route string
	calls int
}

func (n *countingNavigator) CurrentRoute() string { return n.route }
func (n *countingNavigator) Navigate(route string) {
	n.calls++
	n.route = route
}

func TestClient_UnauthorizedOnLoginPageDoesNotNavigate(t *testing.T) {
	b := apitest.New(t)
	nav := &countingNavigator{route: apiclient.LoginRoute}
	client, err := apiclient.New(apiclient.Config{
		BaseURL:   b.Server.URL + apitest.BasePath,
		Tokens:    b.Tokens,
		Navigator: nav,
		Logger:    b.Log,
	})
	require.NoError(t, err)
	b.Router.Post("/admin/auth/login", apitest.Fail(http.StatusUnauthorized, ""))

	err = client.Post(context.Background(), "/admin/auth/login", map[string]string{}, nil)

	require.Error(t, err)
	assert.Equal(t, 0, nav.calls)
	assert.Equal(t, apiclient.SessionMessage, apiclient.Message(err))
}

func TestClient_ForbiddenNotifiesServerMessage(t *testing.T) {
	b := apitest.New(t)
	b.Router.Delete("/admin/users/u1", apitest.Fail(http.StatusForbidden, "Only owners can remove staff"))

	err := b.Client.Delete(context.Background(), "/admin/users/u1", nil)

	assert.True(t, apiclient.IsKind(err, apiclient.KindForbidden))
	notes := b.Notes.Drain()
	require.Len(t, notes, 1)
	assert.Equal(t, "Only owners can remove staff", notes[0].Message)
	assert.Equal(t, "/inventory", b.Nav.CurrentRoute())
}

func TestClient_ServerErrorFallsBackToGenericMessage(t *testing.T) {
	b := apitest.New(t)
	b.Router.Get("/admin/dashboard/summary", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	err := b.Client.Get(context.Background(), "/admin/dashboard/summary", nil, nil)

	assert.True(t, apiclient.IsKind(err, apiclient.KindServer))
	notes := b.Notes.Drain()
	require.Len(t, notes, 1)
	assert.Equal(t, apiclient.ServerMessage, notes[0].Message)
}

func TestClient_ValidationErrorsStayInline(t *testing.T) {
	b := apitest.New(t)
	b.Router.Post("/admin/categories", func(w http.ResponseWriter, r *http.Request) {
		apitest.JSON(w, http.StatusUnprocessableEntity, map[string]any{
			"message": "Validation failed",
			"errors":  []map[string]string{{"field": "slug", "message": "taken"}},
		})
	})
	b.Router.Put("/admin/products/p1", func(w http.ResponseWriter, r *http.Request) {
		apitest.JSON(w, http.StatusBadRequest, map[string]any{
			"message": "Validation failed",
			"errors":  map[string]any{"sku": "SKU already exists", "price": []string{"must be positive"}},
		})
	})

	err := b.Client.Put(context.Background(), "/admin/products/p1", map[string]any{}, nil)
	var apiErr *apiclient.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apiclient.KindValidation, apiErr.Kind)
	assert.Equal(t, map[string]string{"sku": "SKU already exists", "price": "must be positive"}, apiErr.FieldErrors)

	err = b.Client.Post(context.Background(), "/admin/categories", map[string]any{}, nil)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, map[string]string{"slug": "taken"}, apiErr.FieldErrors)

	assert.Empty(t, b.Notes.Drain())
}

func TestClient_OtherClientErrorNotifiesWhenMessagePresent(t *testing.T) {
	b := apitest.New(t)
	b.Router.Delete("/admin/categories/c1", apitest.Fail(http.StatusConflict, "Category has 3 products"))

	err := b.Client.Delete(context.Background(), "/admin/categories/c1", nil)

	assert.Equal(t, "Category has 3 products", apiclient.Message(err))
	assert.Len(t, b.Notes.Drain(), 1)
}

func TestClient_NetworkFailure(t *testing.T) {
	b := apitest.New(t)
	b.Server.Close()

	err := b.Client.Get(context.Background(), "/admin/products", nil, nil)

	assert.True(t, apiclient.IsKind(err, apiclient.KindNetwork))
	notes := b.Notes.Drain()
	require.Len(t, notes, 1)
	assert.Equal(t, apiclient.NetworkMessage, notes[0].Message)
}

func TestClient_CanceledRequestIsSilent(t *testing.T) {
	b := apitest.New(t)
	b.Router.Get("/admin/products", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := b.Client.Get(ctx, "/admin/products", nil, nil)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, b.Notes.Drain())
}

func TestClient_Download(t *testing.T) {
	b := apitest.New(t)
	b.Router.Get("/admin/inventory/export", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="inventory.csv"`)
		_, _ = w.Write([]byte("sku,qty\nROSE-50,4\n"))
	})

	blob, err := b.Client.Download(context.Background(), "/admin/inventory/export", nil)

	require.NoError(t, err)
	assert.Equal(t, "text/csv", blob.ContentType)
	assert.Equal(t, "inventory.csv", blob.Filename)
	assert.Equal(t, "sku,qty\nROSE-50,4\n", string(blob.Data))
}

func TestNewLimiter(t *testing.T) {
	assert.Nil(t, apiclient.NewLimiter(0))
	l := apiclient.NewLimiter(20)
	require.NotNil(t, l)
	assert.Equal(t, 20, l.Burst())
}
