package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const nutellaJSON = `{"status":1,"product":{
	"code":"3017620422003","product_name":"Nutella","categories":"Spreads, Sweet spreads",
	"serving_quantity":"15","image_url":"https://img/nutella.jpg",
	"nutriments":{"energy-kcal_serving":80,"proteins_serving":0.9,"carbohydrates_serving":"8.6",
		"fat_serving":4.6,"sugars_serving":8.4,"sodium_serving":0.006,"saturated-fat_serving":1.6,
		"energy-kcal_100g":539}}}`

// offStub serves the given status codes in order, then 200 with body.
type offStub struct {
	hits     atomic.Int32
	statuses []int
	body     string
	lastURL  atomic.Value
}

func (s *offStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n := int(s.hits.Add(1))
	s.lastURL.Store(r.URL.String())
	if n <= len(s.statuses) {
		w.WriteHeader(s.statuses[n-1])
		return
	}
	_, _ = w.Write([]byte(s.body))
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newTestOFF(t *testing.T, stub *offStub) (*OFFClient, *[]time.Duration, *fakeClock) {
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)
	c := NewOFFClient(srv.URL+"/", "pantrytrack-test", nil)
	var sleeps []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}
	clock := &fakeClock{t: time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)}
	c.now = clock.Now
	return c, &sleeps, clock
}

func TestOFFClient_LookupBarcode(t *testing.T) {
	stub := &offStub{body: nutellaJSON}
	c, sleeps, _ := newTestOFF(t, stub)

	p := c.LookupBarcode(context.Background(), " 3017620422003 ")
	require.NotNil(t, p)
	assert.Equal(t, "Nutella", p.ProductName)
	assert.Equal(t, "/api/v2/product/3017620422003.json", stub.lastURL.Load())
	assert.Empty(t, *sleeps)

	fi := p.ToFoodItem()
	assert.Equal(t, "Nutella", fi.Name)
	assert.Equal(t, "Spreads", fi.Category)
	assert.Equal(t, 1.0, fi.ServingSize)
	assert.Equal(t, "serving", fi.ServingUnit)
	require.NotNil(t, fi.ServingSizeGrams)
	assert.Equal(t, 15.0, *fi.ServingSizeGrams)
	assert.Equal(t, 80.0, fi.Nutrition.Calories)
	assert.Equal(t, 8.6, fi.Nutrition.Carbs)
	assert.InDelta(t, 6.0, fi.Nutrition.Sodium, 1e-9)
	assert.Equal(t, "3017620422003", fi.Barcode)
	assert.True(t, fi.InStock)
}

func TestOFFClient_Cache(t *testing.T) {
	stub := &offStub{body: nutellaJSON}
	c, _, clock := newTestOFF(t, stub)
	ctx := context.Background()

	require.NotNil(t, c.LookupBarcode(ctx, "3017620422003"))
	require.NotNil(t, c.LookupBarcode(ctx, "3017620422003"))
	assert.EqualValues(t, 1, stub.hits.Load())

	clock.t = clock.t.Add(14 * time.Minute)
	require.NotNil(t, c.LookupBarcode(ctx, "3017620422003"))
	assert.EqualValues(t, 1, stub.hits.Load())

	clock.t = clock.t.Add(2 * time.Minute)
	require.NotNil(t, c.LookupBarcode(ctx, "3017620422003"))
	assert.EqualValues(t, 2, stub.hits.Load())
}

func TestOFFClient_Retry(t *testing.T) {
	t.Run("exhausted", func(t *testing.T) {
		stub := &offStub{statuses: []int{503, 503, 503}, body: nutellaJSON}
		c, sleeps, _ := newTestOFF(t, stub)
		assert.Nil(t, c.LookupBarcode(context.Background(), "1"))
		assert.EqualValues(t, 3, stub.hits.Load())
		assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *sleeps)
	})

	t.Run("recovers", func(t *testing.T) {
		stub := &offStub{statuses: []int{500}, body: nutellaJSON}
		c, sleeps, _ := newTestOFF(t, stub)
		assert.NotNil(t, c.LookupBarcode(context.Background(), "1"))
		assert.EqualValues(t, 2, stub.hits.Load())
		assert.Equal(t, []time.Duration{time.Second}, *sleeps)
	})

	t.Run("not found is final", func(t *testing.T) {
		stub := &offStub{statuses: []int{404}}
		c, sleeps, _ := newTestOFF(t, stub)
		assert.Nil(t, c.LookupBarcode(context.Background(), "1"))
		assert.EqualValues(t, 1, stub.hits.Load())
		assert.Empty(t, *sleeps)
	})

	t.Run("failures are not cached", func(t *testing.T) {
		stub := &offStub{statuses: []int{429, 429, 429}, body: nutellaJSON}
		c, _, _ := newTestOFF(t, stub)
		assert.Nil(t, c.LookupBarcode(context.Background(), "1"))
		assert.NotNil(t, c.LookupBarcode(context.Background(), "1"))
		assert.EqualValues(t, 4, stub.hits.Load())
	})
}

func TestOFFClient_UnknownProduct(t *testing.T) {
	stub := &offStub{body: `{"status":0,"status_verbose":"product not found"}`}
	c, _, _ := newTestOFF(t, stub)
	assert.Nil(t, c.LookupBarcode(context.Background(), "000"))
	assert.Nil(t, c.LookupBarcode(context.Background(), "  "))
	assert.EqualValues(t, 1, stub.hits.Load())
}

func TestOFFClient_SearchProducts(t *testing.T) {
	stub := &offStub{body: `{"count":2,"products":[
		{"code":"1","product_name":"Oat Drink","nutriments":{"energy-kcal_100g":"46","proteins_100g":1}},
		{"code":"2","product_name":"Oat Flakes","categories":""}]}`}
	c, _, _ := newTestOFF(t, stub)

	got := c.SearchProducts(context.Background(), "oat", 0)
	require.Len(t, got, 2)
	assert.Contains(t, stub.lastURL.Load(), "search_terms=oat")
	assert.Contains(t, stub.lastURL.Load(), "page=1")

	fi := got[0].ToFoodItem()
	assert.Equal(t, 100.0, fi.ServingSize)
	assert.Equal(t, "g", fi.ServingUnit)
	assert.Equal(t, 46.0, fi.Nutrition.Calories)
	assert.Equal(t, "Other", got[1].ToFoodItem().Category)

	assert.Equal(t, []OFFProduct{}, c.SearchProducts(context.Background(), "   ", 1))
	assert.EqualValues(t, 1, stub.hits.Load())
}

func TestOFFClient_SearchFailureIsEmpty(t *testing.T) {
	stub := &offStub{statuses: []int{502, 502, 502}}
	c, _, _ := newTestOFF(t, stub)
	got := c.SearchProducts(context.Background(), "oat", 2)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestOFFClient_CanceledContext(t *testing.T) {
	stub := &offStub{statuses: []int{503, 503, 503}}
	c, _, _ := newTestOFF(t, stub)
	c.sleep = sleepCtx
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Nil(t, c.LookupBarcode(ctx, "1"))
}

func TestOFFClient_CanceledCallerDoesNotFailOthers(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			close(started)
		}
		<-release
		_, _ = w.Write([]byte(nutellaJSON))
	}))
	t.Cleanup(srv.Close)
	c := NewOFFClient(srv.URL, "pantrytrack-test", nil)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan *OFFProduct, 1)
	go func() { first <- c.LookupBarcode(ctx, "3017620422003") }()
	<-started

	second := make(chan *OFFProduct, 1)
	go func() { second <- c.LookupBarcode(context.Background(), "3017620422003") }()

	cancel()
	assert.Nil(t, <-first)

	// give the second caller time to join the in-flight request
	time.Sleep(20 * time.Millisecond)
	close(release)

	p := <-second
	require.NotNil(t, p)
	assert.Equal(t, "Nutella", p.ProductName)
	assert.EqualValues(t, 1, hits.Load())
}

func TestOFFProduct_NameFallback(t *testing.T) {
	p := OFFProduct{Code: "42", Brands: "Acme"}
	assert.Equal(t, "Acme 42", p.ToFoodItem().Name)
}

func TestOFFClient_ConcurrentLookupsShareOneRequest(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	stub := &offStub{body: nutellaJSON}
	srv := httptest.NewServer(stub)
	c := NewOFFClient(srv.URL, "pantrytrack-test", nil)

	var wg sync.WaitGroup
	names := make([]string, 8)
	for i := range names {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if p := c.LookupBarcode(context.Background(), "3017620422003"); p != nil {
				names[i] = p.ProductName
			}
		}()
	}
	wg.Wait()

	for _, n := range names {
		assert.Equal(t, "Nutella", n)
	}
	assert.EqualValues(t, 1, stub.hits.Load())

	c.client.CloseIdleConnections()
	srv.Close()
}
