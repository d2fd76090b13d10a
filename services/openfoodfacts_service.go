package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"pantrytrack/mappers"
	"pantrytrack/models"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	offAttempts = 3
	offCacheTTL = 15 * time.Minute
	offPageSize = 20
)

// errOFFMiss is a definitive "no such product" answer; it is never retried.
var errOFFMiss = errors.New("product not found")

// OFFClient talks to the OpenFoodFacts API. Successful responses are cached
// by URL and identical in-flight requests share one call. Lookups never
// fail: exhausted retries yield nil or empty results.
type OFFClient struct {
	baseURL   string
	userAgent string
	client    *http.Client
	log       *zap.Logger

	attempts int
	ttl      time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
	now      func() time.Time

	mu    sync.Mutex
	cache map[string]offCacheEntry
	group singleflight.Group
}

type offCacheEntry struct {
	body    []byte
	expires time.Time
}

func NewOFFClient(baseURL, userAgent string, log *zap.Logger) *OFFClient {
	if log == nil {
		log = zap.NewNop()
	}
	return &OFFClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		client:    &http.Client{Timeout: 10 * time.Second},
		log:       log,
		attempts:  offAttempts,
		ttl:       offCacheTTL,
		sleep:     sleepCtx,
		now:       time.Now,
		cache:     make(map[string]offCacheEntry),
	}
}

// OFFProduct is the subset of an OpenFoodFacts product we read.
type OFFProduct struct {
	Code            string       `json:"code"`
	ProductName     string       `json:"product_name"`
	Brands          string       `json:"brands"`
	Categories      string       `json:"categories"`
	ServingSize     string       `json:"serving_size"`
	ServingQuantity flexFloat    `json:"serving_quantity"`
	ImageURL        string       `json:"image_url"`
	Nutriments      offNutrients `json:"nutriments"`
}

type offNutrients struct {
	KcalServing    flexFloat `json:"energy-kcal_serving"`
	Kcal100g       flexFloat `json:"energy-kcal_100g"`
	ProteinServing flexFloat `json:"proteins_serving"`
	Protein100g    flexFloat `json:"proteins_100g"`
	CarbsServing   flexFloat `json:"carbohydrates_serving"`
	Carbs100g      flexFloat `json:"carbohydrates_100g"`
	FatServing     flexFloat `json:"fat_serving"`
	Fat100g        flexFloat `json:"fat_100g"`
	FiberServing   flexFloat `json:"fiber_serving"`
	Fiber100g      flexFloat `json:"fiber_100g"`
	SugarServing   flexFloat `json:"sugars_serving"`
	Sugar100g      flexFloat `json:"sugars_100g"`
	SodiumServing  flexFloat `json:"sodium_serving"` // grams
	Sodium100g     flexFloat `json:"sodium_100g"`
	SatFatServing  flexFloat `json:"saturated-fat_serving"`
	SatFat100g     flexFloat `json:"saturated-fat_100g"`
}

// flexFloat accepts numbers and numeric strings; OpenFoodFacts emits both.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexFloat(v)
	return nil
}

// ToFoodItem drafts a pantry item from the product. Per-serving values are
// used when the product declares them, otherwise values per 100 g.
func (p OFFProduct) ToFoodItem() models.FoodItem {
	name := strings.TrimSpace(p.ProductName)
	if name == "" {
		name = strings.TrimSpace(strings.Join([]string{p.Brands, p.Code}, " "))
	}
	category := mappers.DefaultCategory
	if first, _, _ := strings.Cut(p.Categories, ","); strings.TrimSpace(first) != "" {
		category = strings.TrimSpace(first)
	}
	fi := models.FoodItem{
		Name:     name,
		Category: category,
		InStock:  true,
		Barcode:  p.Code,
		ImageURL: p.ImageURL,
	}

	n := p.Nutriments
	if n.KcalServing > 0 {
		fi.ServingSize = 1
		fi.ServingUnit = mappers.DefaultServingUnit
		if p.ServingQuantity > 0 {
			g := float64(p.ServingQuantity)
			fi.ServingSizeGrams = &g
		}
		fi.Nutrition = models.Nutrition{
			Calories: float64(n.KcalServing),
			Protein:  float64(n.ProteinServing),
			Carbs:    float64(n.CarbsServing),
			Fat:      float64(n.FatServing),
			Fiber:    float64(n.FiberServing),
			Sugar:    float64(n.SugarServing),
			Sodium:   float64(n.SodiumServing) * 1000,
			SatFat:   float64(n.SatFatServing),
		}
		return fi
	}

	g := 100.0
	fi.ServingSize = 100
	fi.ServingUnit = "g"
	fi.ServingSizeGrams = &g
	fi.Nutrition = models.Nutrition{
		Calories: float64(n.Kcal100g),
		Protein:  float64(n.Protein100g),
		Carbs:    float64(n.Carbs100g),
		Fat:      float64(n.Fat100g),
		Fiber:    float64(n.Fiber100g),
		Sugar:    float64(n.Sugar100g),
		Sodium:   float64(n.Sodium100g) * 1000,
		SatFat:   float64(n.SatFat100g),
	}
	return fi
}

// LookupBarcode returns the product for a barcode, or nil when it is unknown
// or the API could not be reached.
func (c *OFFClient) LookupBarcode(ctx context.Context, code string) *OFFProduct {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil
	}
	u := fmt.Sprintf("%s/api/v2/product/%s.json", c.baseURL, url.PathEscape(code))
	body, err := c.get(ctx, u)
	if err != nil {
		if !errors.Is(err, errOFFMiss) {
			c.log.Warn("openfoodfacts barcode lookup failed", zap.String("code", code), zap.Error(err))
		}
		return nil
	}

	var out struct {
		Status  int        `json:"status"`
		Product OFFProduct `json:"product"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		c.log.Warn("decode openfoodfacts product", zap.String("code", code), zap.Error(err))
		return nil
	}
	if out.Status == 0 {
		return nil
	}
	if out.Product.Code == "" {
		out.Product.Code = code
	}
	return &out.Product
}

// SearchProducts runs a free-text product search. page starts at 1.
func (c *OFFClient) SearchProducts(ctx context.Context, query string, page int) []OFFProduct {
	query = strings.TrimSpace(query)
	if query == "" {
		return []OFFProduct{}
	}
	if page < 1 {
		page = 1
	}
	params := url.Values{}
	params.Set("search_terms", query)
	params.Set("search_simple", "1")
	params.Set("action", "process")
	params.Set("json", "1")
	params.Set("page", strconv.Itoa(page))
	params.Set("page_size", strconv.Itoa(offPageSize))
	u := c.baseURL + "/cgi/search.pl?" + params.Encode()

	body, err := c.get(ctx, u)
	if err != nil {
		if !errors.Is(err, errOFFMiss) {
			c.log.Warn("openfoodfacts search failed", zap.String("query", query), zap.Error(err))
		}
		return []OFFProduct{}
	}
	var out struct {
		Products []OFFProduct `json:"products"`
	}
	if err := json.Unmarshal(body, &out); err != nil || out.Products == nil {
		return []OFFProduct{}
	}
	return out.Products
}

// get returns the response body for u from the cache or a shared fetch. The
// fetch runs detached from any one caller's cancellation so other waiters on
// the same URL still get the result.
func (c *OFFClient) get(ctx context.Context, u string) ([]byte, error) {
	if body, ok := c.cached(u); ok {
		return body, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(u, func() (any, error) {
		if body, ok := c.cached(u); ok {
			return body, nil
		}
		body, err := c.fetchWithRetry(fetchCtx, u)
		if err != nil {
			return nil, err
		}
		c.store(u, body)
		return body, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

// fetchWithRetry makes up to c.attempts requests, waiting 2^(n-1) seconds
// after failed attempt n.
func (c *OFFClient) fetchWithRetry(ctx context.Context, u string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		body, retry, err := c.do(ctx, u)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retry || attempt == c.attempts {
			break
		}
		wait := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
		if err := c.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *OFFClient) do(ctx context.Context, u string) (body []byte, retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, false, err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, fmt.Errorf("call openfoodfacts: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return nil, true, fmt.Errorf("read openfoodfacts response: %w", err)
		}
		return body, false, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, errOFFMiss
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("openfoodfacts API error %d", resp.StatusCode)
	default:
		return nil, false, fmt.Errorf("openfoodfacts API error %d", resp.StatusCode)
	}
}

func (c *OFFClient) cached(u string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.cache[u]
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expires) {
		delete(c.cache, u)
		return nil, false
	}
	return e.body, true
}

func (c *OFFClient) store(u string, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for k, e := range c.cache {
		if !now.Before(e.expires) {
			delete(c.cache, k)
		}
	}
	c.cache[u] = offCacheEntry{body: body, expires: now.Add(c.ttl)}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
