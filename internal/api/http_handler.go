package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"storefront-catalog-service/internal/cache"
	"storefront-catalog-service/internal/catalog"
	"storefront-catalog-service/internal/domain"
	"storefront-catalog-service/internal/store"
)

// CatalogRefresher reloads the catalog feed, resolving prices at the given
// evaluation time. The feed loader implements it.
type CatalogRefresher interface {
	Load(at time.Time) ([]domain.ResolvedProduct, error)
}

// HTTPHandler holds dependencies for HTTP handlers.
type HTTPHandler struct {
	store     store.CatalogStorer
	refresher CatalogRefresher   // Optional; refresh endpoint 503s without it
	results   *cache.ResultCache // Optional; nil disables response caching
	facets    *catalog.FacetCache
	validate  *validator.Validate
	log       *logrus.Logger
}

// NewHTTPHandler creates a new HTTPHandler with dependencies. refresher and
// results may be nil.
func NewHTTPHandler(cs store.CatalogStorer, refresher CatalogRefresher, results *cache.ResultCache, log *logrus.Logger) *HTTPHandler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &HTTPHandler{
		store:     cs,
		refresher: refresher,
		results:   results,
		facets:    &catalog.FacetCache{},
		validate:  validator.New(),
		log:       log,
	}
}

// --- Helpers ---

// ErrorResponse defines the structure for JSON error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			logrus.WithError(err).Error("failed to encode JSON response")
		}
	}
}

// Pagination is the page metadata attached to every list response.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

// ProductListResponse is the envelope for product list queries.
type ProductListResponse struct {
	Data       []domain.ResolvedProduct `json:"data"`
	Pagination Pagination               `json:"pagination"`
}

// --- Query parsing ---

// productQueryInput carries the primitive query parameters subject to
// transport-level validation; cross-field price/sort consistency is the
// engine's own contract and is checked there.
type productQueryInput struct {
	Page      int    `validate:"gte=1"`
	Limit     int    `validate:"gte=1,lte=100"`
	SortBy    string `validate:"omitempty,oneof=price name stock id"`
	SortOrder string `validate:"omitempty,oneof=asc desc"`
}

// parseFilterSpec maps query parameters onto a catalog.FilterSpec plus the
// page/limit pair used for the response envelope.
func (h *HTTPHandler) parseFilterSpec(r *http.Request, paginate bool) (catalog.FilterSpec, int, int, error) {
	q := r.URL.Query()

	input := productQueryInput{
		Page:      1,
		Limit:     10,
		SortBy:    q.Get("sort_by"),
		SortOrder: q.Get("sort_order"),
	}
	if pageStr := q.Get("page"); pageStr != "" {
		page, err := strconv.Atoi(pageStr)
		if err != nil {
			return catalog.FilterSpec{}, 0, 0, fmt.Errorf("invalid page value %q", pageStr)
		}
		input.Page = page
	}
	if limitStr := q.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return catalog.FilterSpec{}, 0, 0, fmt.Errorf("invalid limit value %q", limitStr)
		}
		input.Limit = limit
	}
	if err := h.validate.Struct(input); err != nil {
		return catalog.FilterSpec{}, 0, 0, fmt.Errorf("validation failed: %w", err)
	}

	spec := catalog.FilterSpec{
		CategoryIDs:     splitMulti(q["category_id"]),
		ManufacturerIDs: splitMulti(q["manufacturer_id"]),
		SearchText:      q.Get("q"),
		SortKey:         catalog.SortKey(input.SortBy),
		SortDirection:   catalog.SortDirection(input.SortOrder),
	}

	var err error
	if spec.PriceMin, err = parsePrice(q.Get("min_price"), "min_price"); err != nil {
		return catalog.FilterSpec{}, 0, 0, err
	}
	if spec.PriceMax, err = parsePrice(q.Get("max_price"), "max_price"); err != nil {
		return catalog.FilterSpec{}, 0, 0, err
	}
	if spec.InStockOnly, err = parseBoolParam(q.Get("in_stock"), "in_stock"); err != nil {
		return catalog.FilterSpec{}, 0, 0, err
	}
	if spec.AllVariantsInStockOnly, err = parseBoolParam(q.Get("all_in_stock"), "all_in_stock"); err != nil {
		return catalog.FilterSpec{}, 0, 0, err
	}
	if spec.OnSaleOnly, err = parseBoolParam(q.Get("on_sale"), "on_sale"); err != nil {
		return catalog.FilterSpec{}, 0, 0, err
	}
	if spec.AttributeFilters, err = parseAttrParams(q["attr"]); err != nil {
		return catalog.FilterSpec{}, 0, 0, err
	}

	if paginate {
		spec.Offset = (input.Page - 1) * input.Limit
		limit := input.Limit
		spec.Limit = &limit
	}
	return spec, input.Page, input.Limit, nil
}

// splitMulti accepts both repeated parameters and comma-separated lists.
func splitMulti(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parsePrice(value, name string) (*decimal.Decimal, error) {
	if value == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q", name, value)
	}
	return &d, nil
}

func parseBoolParam(value, name string) (bool, error) {
	if value == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s value: must be true or false", name)
	}
	return b, nil
}

// parseAttrParams decodes repeated attr=Group:Value pairs into the engine's
// group-to-accepted-values map.
func parseAttrParams(values []string) (map[string][]string, error) {
	if len(values) == 0 {
		return nil, nil
	}
	filters := make(map[string][]string)
	for _, v := range values {
		group, value, ok := strings.Cut(v, ":")
		if !ok || group == "" || value == "" {
			return nil, fmt.Errorf("invalid attr value %q, expected group:value", v)
		}
		filters[group] = append(filters[group], value)
	}
	return filters, nil
}

// --- Product Handlers ---

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	spec, page, limit, err := h.parseFilterSpec(r, true)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	products, revision, err := h.store.Snapshot(r.Context())
	if err != nil {
		h.log.WithError(err).Error("snapshot failed")
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve products")
		return
	}

	cacheKey := cache.Key(revision, r.URL.RawQuery)
	if payload, ok := h.results.Get(r.Context(), cacheKey); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(payload)
		return
	}

	result, err := catalog.Filter(products, spec)
	if err != nil {
		var specErr *catalog.SpecError
		if errors.As(err, &specErr) {
			respondWithError(w, http.StatusBadRequest, specErr.Error())
			return
		}
		h.log.WithError(err).Error("filter failed")
		respondWithError(w, http.StatusInternalServerError, "Failed to filter products")
		return
	}

	totalPages := 0
	if result.Total > 0 {
		totalPages = (result.Total + limit - 1) / limit
	}
	response := ProductListResponse{
		Data: result.Items,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			TotalItems: result.Total,
			TotalPages: totalPages,
		},
	}

	payload, err := json.Marshal(response)
	if err != nil {
		h.log.WithError(err).Error("failed to marshal product list")
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	h.results.Set(r.Context(), cacheKey, payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(payload)
}

func (h *HTTPHandler) GetProductByID(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")

	product, err := h.store.GetProductByID(r.Context(), productID)
	if err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			respondWithError(w, http.StatusNotFound, store.ErrProductNotFound.Error())
			return
		}
		h.log.WithError(err).WithField("product_id", productID).Error("get product failed")
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve product")
		return
	}
	respondWithJSON(w, http.StatusOK, product)
}

// GetFacets returns the attribute values, price bounds and stock counts of
// the current snapshot, optionally narrowed by the same filter parameters
// as the list endpoint. The unfiltered set is memoized per revision.
func (h *HTTPHandler) GetFacets(w http.ResponseWriter, r *http.Request) {
	spec, _, _, err := h.parseFilterSpec(r, false)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	products, revision, err := h.store.Snapshot(r.Context())
	if err != nil {
		h.log.WithError(err).Error("snapshot failed")
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve products")
		return
	}

	unfiltered := isUnfiltered(spec)
	if unfiltered {
		if facets, ok := h.facets.Get(revision); ok {
			respondWithJSON(w, http.StatusOK, facets)
			return
		}
	}

	result, err := catalog.Filter(products, spec)
	if err != nil {
		var specErr *catalog.SpecError
		if errors.As(err, &specErr) {
			respondWithError(w, http.StatusBadRequest, specErr.Error())
			return
		}
		h.log.WithError(err).Error("filter failed")
		respondWithError(w, http.StatusInternalServerError, "Failed to compute facets")
		return
	}

	facets := catalog.ComputeFacets(result.Items)
	if unfiltered {
		h.facets.Set(revision, facets)
	}
	respondWithJSON(w, http.StatusOK, facets)
}

// VariantOptionsResponse lists the values still selectable for one
// attribute group given a partial selection.
type VariantOptionsResponse struct {
	GroupID string                       `json:"group_id"`
	Values  []domain.AttributeAssignment `json:"values"`
}

// GetVariantOptions powers the variant picker: given a target attribute
// group and the already-selected values of the other groups
// (sel=groupID:valueID, repeated), it returns the target group's values
// that still lead to an existing variant.
func (h *HTTPHandler) GetVariantOptions(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")
	groupID := r.URL.Query().Get("group")
	if groupID == "" {
		respondWithError(w, http.StatusBadRequest, "Missing required group parameter")
		return
	}

	selections := make(map[string]string)
	for _, sel := range r.URL.Query()["sel"] {
		g, v, ok := strings.Cut(sel, ":")
		if !ok || g == "" || v == "" {
			respondWithError(w, http.StatusBadRequest, fmt.Sprintf("invalid sel value %q, expected group:value", sel))
			return
		}
		selections[g] = v
	}

	product, err := h.store.GetProductByID(r.Context(), productID)
	if err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			respondWithError(w, http.StatusNotFound, store.ErrProductNotFound.Error())
			return
		}
		h.log.WithError(err).WithField("product_id", productID).Error("get product failed")
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve product")
		return
	}

	values := catalog.AvailableAttributeValues(product.Variants, groupID, selections)
	if values == nil {
		values = []domain.AttributeAssignment{}
	}
	respondWithJSON(w, http.StatusOK, VariantOptionsResponse{GroupID: groupID, Values: values})
}

// RefreshResponse reports the outcome of a catalog reload.
type RefreshResponse struct {
	Revision uint64 `json:"revision"`
	Products int    `json:"products"`
}

// RefreshCatalog reloads the feed, re-resolves prices at the current time
// and swaps the new snapshot in.
func (h *HTTPHandler) RefreshCatalog(w http.ResponseWriter, r *http.Request) {
	if h.refresher == nil {
		respondWithError(w, http.StatusServiceUnavailable, "Catalog refresh is not configured")
		return
	}

	products, err := h.refresher.Load(time.Now())
	if err != nil {
		h.log.WithError(err).Error("catalog refresh failed")
		respondWithError(w, http.StatusInternalServerError, "Failed to reload catalog feed")
		return
	}

	revision, err := h.store.Replace(r.Context(), products)
	if err != nil {
		h.log.WithError(err).Error("snapshot replace failed")
		respondWithError(w, http.StatusInternalServerError, "Failed to store catalog snapshot")
		return
	}

	h.log.WithFields(logrus.Fields{"revision": revision, "products": len(products)}).Info("catalog refreshed")
	respondWithJSON(w, http.StatusOK, RefreshResponse{Revision: revision, Products: len(products)})
}

// isUnfiltered reports whether the spec applies no predicate, i.e. facets
// describe the whole snapshot and can be memoized per revision.
func isUnfiltered(spec catalog.FilterSpec) bool {
	return len(spec.CategoryIDs) == 0 &&
		len(spec.ManufacturerIDs) == 0 &&
		spec.PriceMin == nil && spec.PriceMax == nil &&
		!spec.InStockOnly && !spec.AllVariantsInStockOnly && !spec.OnSaleOnly &&
		spec.SearchText == "" &&
		len(spec.AttributeFilters) == 0
}

// --- Route Registration ---

// RegisterRoutes sets up the HTTP routes for the service.
func (h *HTTPHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		// Registered before {productId} so "facets" is not parsed as an id.
		r.Get("/facets", h.GetFacets)

		r.Route("/{productId}", func(r chi.Router) {
			r.Get("/", h.GetProductByID)
			r.Get("/variant-options", h.GetVariantOptions)
		})
	})

	r.Post("/api/v1/catalog/refresh", h.RefreshCatalog)
}
