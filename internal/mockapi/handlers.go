package mockapi

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/adyen/shopcheck/internal/models"
	"github.com/adyen/shopcheck/internal/pagination"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ProductList is the body of GET /api/products
type ProductList = pagination.Page[models.Product]

// productPageTemplate mirrors the markup of the storefront product page
var productPageTemplate = template.Must(template.New("product").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>{{.Name}}</title></head>
<body>
  <main class="product" data-product-id="{{.ID}}">
    {{if .ImageURL}}<img class="product-image" src="{{.ImageURL}}" alt="{{.Name}}">{{end}}
    <h1 class="product-name">{{.Name}}</h1>
    <p class="product-description">{{.Description}}</p>
    <p class="product-price">{{.DisplayPrice}}</p>
    <form action="/checkout" method="get"><button type="submit">Buy Now</button></form>
  </main>
</body>
</html>
`))

type handlers struct {
	catalog  *Catalog
	maxLimit int
	baseURL  string
}

// listProducts handles GET /api/products?page=&limit=
func (h *handlers) listProducts(w http.ResponseWriter, r *http.Request) {
	window := pagination.Normalize(pagination.FromQuery(r.URL.Query()), h.maxLimit)
	page := pagination.Window(h.catalog.All(), window)

	if window.WasClamped {
		log.Debug().
			Str("query", r.URL.RawQuery).
			Int("page", window.Page).
			Int("limit", window.Limit).
			Msg("pagination parameters clamped")
	}

	sendJSON(w, http.StatusOK, page)
}

// getProduct handles GET /api/products/{id}
func (h *handlers) getProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.Get(chi.URLParam(r, "id"))
	if errors.Is(err, ErrProductNotFound) {
		sendErrorResponse(w, err.Error(), http.StatusNotFound)
		return
	}
	sendJSON(w, http.StatusOK, product)
}

// productPage handles GET /products/{id}
func (h *handlers) productPage(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.Get(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}
	h.renderProduct(w, product)
}

// home handles GET / by rendering the first product, like the storefront does
func (h *handlers) home(w http.ResponseWriter, r *http.Request) {
	products := h.catalog.All()
	if len(products) == 0 {
		http.Error(w, "No products", http.StatusNotFound)
		return
	}
	h.renderProduct(w, products[0])
}

func (h *handlers) renderProduct(w http.ResponseWriter, product models.Product) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := productPageTemplate.Execute(w, product); err != nil {
		log.Error().Err(err).Str("product_id", product.ID).Msg("error rendering product page")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc string `xml:"loc"`
}

// sitemap handles GET /sitemap.xml
func (h *handlers) sitemap(w http.ResponseWriter, r *http.Request) {
	base := h.baseURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}
	base = strings.TrimRight(base, "/")

	set := sitemapURLSet{
		Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  []sitemapURL{{Loc: base + "/"}},
	}
	for _, p := range h.catalog.All() {
		set.URLs = append(set.URLs, sitemapURL{Loc: base + "/products/" + p.ID})
	}

	w.Header().Set("Content-Type", "application/xml")
	w.Write([]byte(xml.Header))
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		log.Error().Err(err).Msg("error encoding sitemap")
	}
}

// sendJSON writes v as a JSON response
func sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("error encoding response")
	}
}

// sendErrorResponse sends a JSON error response
func sendErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	sendJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}
