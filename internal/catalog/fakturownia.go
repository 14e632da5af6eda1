// File: internal/catalog/fakturownia.go
package catalog

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/kubryk/vegetables-shop/internal/data"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

const (
	// PerPage is the largest page Fakturownia serves.
	PerPage = 50

	// WebsiteTag marks the products offered in the shop.
	WebsiteTag = "website"

	defaultCategory = "Vegetables"
	defaultTimeout  = 15 * time.Second
	maxPages        = 200
)

var ErrNotConfigured = errors.New("catalog: fakturownia account or api key is not set")

// ----------------------------------------------------------------------
//
//	Definitions
//
// ----------------------------------------------------------------------

// MetadataSource provides the operator's overlays keyed by product id.
type MetadataSource interface {
	All(ctx context.Context) (map[string]*data.ProductMetadata, error)
}

// Config holds the Fakturownia account settings.
type Config struct {
	Account string
	APIKey  string
	// BaseURL overrides https://{account}.fakturownia.pl.
	BaseURL    string
	HTTPClient *http.Client
}

// Client reads the product catalog from Fakturownia.
type Client struct {
	baseURL  string
	apiKey   string
	http     *http.Client
	metadata MetadataSource
	logger   *slog.Logger
}

// remoteProduct is a product as Fakturownia returns it. Numbers arrive as
// strings and some fields may be missing.
type remoteProduct struct {
	ID           any      `json:"id"`
	Name         string   `json:"name"`
	PriceNet     any      `json:"price_net"`
	Quantity     any      `json:"quantity"`
	QuantityUnit string   `json:"quantity_unit"`
	TagList      []string `json:"tag_list"`
	Currency     string   `json:"currency"`
	Disabled     bool     `json:"disabled"`
}

// ----------------------------------------------------------------------
//
//	Methods
//
// ----------------------------------------------------------------------

// New creates a catalog client. metadata may be nil.
func New(cfg Config, metadata MetadataSource, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" || (cfg.Account == "" && cfg.BaseURL == "") {
		return nil, ErrNotConfigured
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://" + cfg.Account + ".fakturownia.pl"
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   cfg.APIKey,
		http:     httpClient,
		metadata: metadata,
		logger:   logger,
	}, nil
}

// All returns the website products with local metadata merged in, highest
// position first.
func (c *Client) All(ctx context.Context) ([]*data.Product, error) {
	overlays := c.loadMetadata(ctx)

	var products []*data.Product
	for page := 1; page <= maxPages; page++ {
		batch, err := c.fetchPage(ctx, page)
		if err != nil {
			return nil, err
		}

		for _, rp := range batch {
			p := c.toProduct(rp)
			if p == nil {
				continue
			}
			overlays[p.ID].Apply(p)
			products = append(products, p)
		}

		if len(batch) < PerPage {
			break
		}
	}

	slices.SortStableFunc(products, func(a, b *data.Product) int {
		return cmp.Compare(b.Position, a.Position)
	})
	return products, nil
}

// Get returns one website product by id.
func (c *Client) Get(ctx context.Context, id string) (*data.Product, error) {
	products, err := c.All(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, data.ErrRecordNotFound
}

// loadMetadata never fails the catalog: without overlays the remote values
// are still usable.
func (c *Client) loadMetadata(ctx context.Context) map[string]*data.ProductMetadata {
	if c.metadata == nil {
		return map[string]*data.ProductMetadata{}
	}
	overlays, err := c.metadata.All(ctx)
	if err != nil {
		c.logger.Error("load product metadata", slog.String("error", err.Error()))
		return map[string]*data.ProductMetadata{}
	}
	return overlays
}

func (c *Client) fetchPage(ctx context.Context, page int) ([]remoteProduct, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("per_page", strconv.Itoa(PerPage))
	query.Set("api_token", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/products.json?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch products page %d: %w", page, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch products page %d: unexpected status %s", page, resp.Status)
	}

	var batch []remoteProduct
	if err := json.NewDecoder(resp.Body).Decode(&batch); err != nil {
		return nil, fmt.Errorf("decode products page %d: %w", page, err)
	}
	return batch, nil
}

// toProduct maps a remote product, or returns nil when it is not sold on
// the website. Fakturownia's quantity is the weight of one box.
func (c *Client) toProduct(rp remoteProduct) *data.Product {
	if !slices.Contains(rp.TagList, WebsiteTag) {
		return nil
	}

	id := strings.TrimSpace(cast.ToString(rp.ID))
	if id == "" {
		return nil
	}

	pricePerUnit := decimal.NewFromFloat(toFloat(rp.PriceNet))
	boxWeight := toFloat(rp.Quantity)

	unit := rp.QuantityUnit
	if unit == "" {
		unit = data.UnitKg
	}
	currency := strings.ToUpper(rp.Currency)
	if currency == "" {
		currency = data.DefaultCurrency
	}

	return &data.Product{
		ID:                id,
		Name:              strings.TrimSpace(rp.Name),
		Category:          defaultCategory,
		Unit:              unit,
		NetWeight:         boxWeight,
		UnitPerCardboard:  1,
		PricePerUnit:      pricePerUnit,
		PricePerCardboard: pricePerUnit.Mul(decimal.NewFromFloat(boxWeight)).Round(2),
		Currency:          currency,
		Active:            !rp.Disabled,
		AggregationType:   data.AggregationCardboard,
		ExternalURL:       c.baseURL + "/products/" + id,
	}
}

func toFloat(v any) float64 {
	if s, ok := v.(string); ok {
		v = strings.TrimSpace(s)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0
	}
	return f
}
