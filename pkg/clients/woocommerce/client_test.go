package woocommerce

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetProduct(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wp-json/wc/v3/products/5", r.URL.Path)
		assert.Equal(t, "ck", r.URL.Query().Get("consumer_key"))
		assert.Equal(t, "cs", r.URL.Query().Get("consumer_secret"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":5,"name":"חולצה כחולה","price":"50","status":"publish"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "ck", "cs", false)
	product, err := client.GetProduct(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), product.ID)
	assert.Equal(t, "חולצה כחולה", product.Name)
	assert.Equal(t, "50", product.Price)
}

func TestSearchProducts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wp-json/wc/v3/products", r.URL.Path)
		assert.Equal(t, "חולצה", r.URL.Query().Get("search"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":5,"name":"חולצה כחולה"},{"id":6,"name":"חולצה אדומה"}]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "ck", "cs", false)
	products, err := client.SearchProducts(context.Background(), "חולצה")
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "חולצה כחולה", products[0].Name)
}

func TestGetOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wp-json/wc/v3/orders/77", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":77,"status":"completed","total":"100","billing":{"first_name":"דנה","last_name":"לוי"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "ck", "cs", false)
	order, err := client.GetOrder(context.Background(), 77)
	require.NoError(t, err)
	assert.Equal(t, "completed", order.Status)
	assert.Equal(t, "דנה", order.Billing.FirstName)
}

func TestErrorStatusSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"code":"woocommerce_rest_product_invalid_id"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "ck", "cs", false)
	_, err := client.GetProduct(context.Background(), 999)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}
