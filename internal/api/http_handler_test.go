package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storefront-catalog-service/internal/domain"
	"storefront-catalog-service/internal/store"
)

// MockCatalogStore is a mock implementation of store.CatalogStorer.
type MockCatalogStore struct {
	mock.Mock
}

func (m *MockCatalogStore) Snapshot(ctx context.Context) ([]domain.ResolvedProduct, uint64, error) {
	args := m.Called(ctx)
	var products []domain.ResolvedProduct
	if arg0 := args.Get(0); arg0 != nil {
		products = arg0.([]domain.ResolvedProduct)
	}
	return products, args.Get(1).(uint64), args.Error(2)
}

func (m *MockCatalogStore) GetProductByID(ctx context.Context, id string) (*domain.ResolvedProduct, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ResolvedProduct), args.Error(1)
}

func (m *MockCatalogStore) Replace(ctx context.Context, products []domain.ResolvedProduct) (uint64, error) {
	args := m.Called(ctx, products)
	return args.Get(0).(uint64), args.Error(1)
}

// MockRefresher is a mock implementation of CatalogRefresher.
type MockRefresher struct {
	mock.Mock
}

func (m *MockRefresher) Load(at time.Time) ([]domain.ResolvedProduct, error) {
	args := m.Called(at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ResolvedProduct), args.Error(1)
}

func setupTestServer(t *testing.T, cs store.CatalogStorer, refresher CatalogRefresher) *httptest.Server {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	handler := NewHTTPHandler(cs, refresher, nil, log)
	router := chi.NewRouter()
	handler.RegisterRoutes(router)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func testProduct(id, name string, price int64, stock int32) domain.ResolvedProduct {
	p := decimal.NewFromInt(price)
	return domain.ResolvedProduct{
		ID:                  id,
		Name:                name,
		CategoryID:          "c1",
		IsSimple:            true,
		SimpleStockQuantity: stock,
		BasePrice:           p,
		DisplayPrice:        p,
		PriceRange:          domain.PriceRange{Min: p, Max: p},
		HasStock:            stock > 0,
		AllInStock:          stock > 0,
		TotalStock:          stock,
	}
}

func variantProduct(id string) domain.ResolvedProduct {
	p := testProduct(id, "Shirt", 25, 0)
	p.IsSimple = false
	p.Variants = []domain.Variant{
		{
			ID: id + "-1", ProductID: id, Quantity: 2, IsDefault: true,
			FinalPrice: decimal.NewFromInt(25),
			Attributes: []domain.AttributeAssignment{
				{GroupID: "g1", GroupName: "Color", ValueID: "red", ValueName: "Red"},
				{GroupID: "g2", GroupName: "Size", ValueID: "s", ValueName: "S"},
			},
		},
		{
			ID: id + "-2", ProductID: id, Quantity: 1,
			FinalPrice: decimal.NewFromInt(27),
			Attributes: []domain.AttributeAssignment{
				{GroupID: "g1", GroupName: "Color", ValueID: "blue", ValueName: "Blue"},
				{GroupID: "g2", GroupName: "Size", ValueID: "s", ValueName: "S"},
			},
		},
	}
	p.HasStock = true
	p.TotalStock = 3
	return p
}

func TestListProducts_Success(t *testing.T) {
	mockStore := new(MockCatalogStore)
	server := setupTestServer(t, mockStore, nil)

	snapshot := []domain.ResolvedProduct{
		testProduct("3", "Cheap", 5, 1),
		testProduct("1", "Mid", 20, 1),
		testProduct("2", "Fancy", 90, 1),
	}
	mockStore.On("Snapshot", mock.Anything).Return(snapshot, uint64(1), nil).Once()

	res, err := http.Get(server.URL + "/api/v1/products?sort_by=price&sort_order=asc&limit=2")
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)

	var payload ProductListResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&payload))

	require.Len(t, payload.Data, 2)
	assert.Equal(t, "3", payload.Data[0].ID)
	assert.Equal(t, "1", payload.Data[1].ID)
	assert.Equal(t, 3, payload.Pagination.TotalItems)
	assert.Equal(t, 2, payload.Pagination.TotalPages)
	assert.Equal(t, 1, payload.Pagination.Page)

	mockStore.AssertExpectations(t)
}

func TestListProducts_SecondPage(t *testing.T) {
	mockStore := new(MockCatalogStore)
	server := setupTestServer(t, mockStore, nil)

	snapshot := make([]domain.ResolvedProduct, 0, 5)
	for i := 1; i <= 5; i++ {
		snapshot = append(snapshot, testProduct(fmt.Sprintf("%d", i), "P", int64(i), 1))
	}
	mockStore.On("Snapshot", mock.Anything).Return(snapshot, uint64(1), nil).Once()

	res, err := http.Get(server.URL + "/api/v1/products?sort_by=price&page=2&limit=3")
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	var payload ProductListResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&payload))

	require.Len(t, payload.Data, 2)
	assert.Equal(t, "4", payload.Data[0].ID)
	assert.Equal(t, "5", payload.Data[1].ID)
	assert.Equal(t, 5, payload.Pagination.TotalItems)
}

func TestListProducts_AttributeFilter(t *testing.T) {
	mockStore := new(MockCatalogStore)
	server := setupTestServer(t, mockStore, nil)

	snapshot := []domain.ResolvedProduct{variantProduct("1"), testProduct("2", "Plain", 5, 1)}
	mockStore.On("Snapshot", mock.Anything).Return(snapshot, uint64(1), nil).Once()

	res, err := http.Get(server.URL + "/api/v1/products?attr=Color:Red")
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	var payload ProductListResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&payload))
	require.Len(t, payload.Data, 1)
	assert.Equal(t, "1", payload.Data[0].ID)
}

func TestListProducts_InvalidQueryParam(t *testing.T) {
	mockStore := new(MockCatalogStore)
	server := setupTestServer(t, mockStore, nil)

	for _, path := range []string{
		"/api/v1/products?min_price=abc",
		"/api/v1/products?in_stock=maybe",
		"/api/v1/products?sort_by=popularity",
		"/api/v1/products?limit=0",
		"/api/v1/products?attr=ColorRed",
	} {
		res, err := http.Get(server.URL + path)
		require.NoError(t, err)
		res.Body.Close()
		assert.Equal(t, http.StatusBadRequest, res.StatusCode, "path %s", path)
	}

	// Parsing fails before the store is touched.
	mockStore.AssertNotCalled(t, "Snapshot", mock.Anything)
}

func TestListProducts_PriceBoundsRejectedByEngine(t *testing.T) {
	mockStore := new(MockCatalogStore)
	server := setupTestServer(t, mockStore, nil)

	mockStore.On("Snapshot", mock.Anything).Return([]domain.ResolvedProduct{}, uint64(1), nil).Once()

	res, err := http.Get(server.URL + "/api/v1/products?min_price=50&max_price=10")
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	var errResp ErrorResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&errResp))
	assert.Contains(t, errResp.Error, "priceMin")
}

func TestGetProductByID_Found(t *testing.T) {
	mockStore := new(MockCatalogStore)
	server := setupTestServer(t, mockStore, nil)

	product := testProduct("42", "Found", 10, 1)
	mockStore.On("GetProductByID", mock.Anything, "42").Return(&product, nil).Once()

	res, err := http.Get(server.URL + "/api/v1/products/42")
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	var got domain.ResolvedProduct
	require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
	assert.Equal(t, "42", got.ID)
	assert.Equal(t, "Found", got.Name)

	mockStore.AssertExpectations(t)
}

func TestGetProductByID_NotFound(t *testing.T) {
	mockStore := new(MockCatalogStore)
	server := setupTestServer(t, mockStore, nil)

	mockStore.On("GetProductByID", mock.Anything, "99").Return(nil, store.ErrProductNotFound).Once()

	res, err := http.Get(server.URL + "/api/v1/products/99")
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestGetFacets(t *testing.T) {
	mockStore := new(MockCatalogStore)
	server := setupTestServer(t, mockStore, nil)

	snapshot := []domain.ResolvedProduct{variantProduct("1"), testProduct("2", "Plain", 5, 0)}
	mockStore.On("Snapshot", mock.Anything).Return(snapshot, uint64(3), nil)

	res, err := http.Get(server.URL + "/api/v1/products/facets")
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	var facets struct {
		Attributes    map[string][]string `json:"attributes"`
		HasPriceRange bool                `json:"has_price_range"`
		Stock         struct {
			InStock    int `json:"in_stock"`
			OutOfStock int `json:"out_of_stock"`
		} `json:"stock"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&facets))

	assert.Equal(t, []string{"Blue", "Red"}, facets.Attributes["Color"])
	assert.True(t, facets.HasPriceRange)
	assert.Equal(t, 1, facets.Stock.InStock)
	assert.Equal(t, 1, facets.Stock.OutOfStock)

	// A second unfiltered call at the same revision hits the facet cache;
	// the payload must be identical.
	res2, err := http.Get(server.URL + "/api/v1/products/facets")
	require.NoError(t, err)
	defer res2.Body.Close()
	assert.Equal(t, http.StatusOK, res2.StatusCode)
}

func TestGetVariantOptions(t *testing.T) {
	mockStore := new(MockCatalogStore)
	server := setupTestServer(t, mockStore, nil)

	product := variantProduct("7")
	mockStore.On("GetProductByID", mock.Anything, "7").Return(&product, nil)

	res, err := http.Get(server.URL + "/api/v1/products/7/variant-options?group=g1&sel=g2:s")
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	var payload VariantOptionsResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&payload))

	assert.Equal(t, "g1", payload.GroupID)
	require.Len(t, payload.Values, 2)
	assert.Equal(t, "Red", payload.Values[0].ValueName)
	assert.Equal(t, "Blue", payload.Values[1].ValueName)
}

func TestGetVariantOptions_MissingGroup(t *testing.T) {
	mockStore := new(MockCatalogStore)
	server := setupTestServer(t, mockStore, nil)

	res, err := http.Get(server.URL + "/api/v1/products/7/variant-options")
	require.NoError(t, err)
	res.Body.Close()

	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	mockStore.AssertNotCalled(t, "GetProductByID", mock.Anything, mock.Anything)
}

func TestRefreshCatalog(t *testing.T) {
	mockStore := new(MockCatalogStore)
	refresher := new(MockRefresher)
	server := setupTestServer(t, mockStore, refresher)

	products := []domain.ResolvedProduct{testProduct("1", "A", 10, 1)}
	refresher.On("Load", mock.AnythingOfType("time.Time")).Return(products, nil).Once()
	mockStore.On("Replace", mock.Anything, products).Return(uint64(4), nil).Once()

	res, err := http.Post(server.URL+"/api/v1/catalog/refresh", "application/json", nil)
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	var payload RefreshResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&payload))
	assert.Equal(t, uint64(4), payload.Revision)
	assert.Equal(t, 1, payload.Products)

	mockStore.AssertExpectations(t)
	refresher.AssertExpectations(t)
}

func TestRefreshCatalog_NotConfigured(t *testing.T) {
	mockStore := new(MockCatalogStore)
	server := setupTestServer(t, mockStore, nil)

	res, err := http.Post(server.URL+"/api/v1/catalog/refresh", "application/json", nil)
	require.NoError(t, err)
	res.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
}
