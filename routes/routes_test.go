package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pantrytrack/config"
	"pantrytrack/middlewares"
	"pantrytrack/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const testSecret = "test-secret"

type testAPI struct {
	t      *testing.T
	router *gin.Engine
	off    *httptest.Server
}

func newTestAPI(t *testing.T, source config.DataSource) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, config.Migrate(db))

	off := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v2/product/737628064502.json" {
			_, _ = w.Write([]byte(`{"status":1,"product":{"code":"737628064502","product_name":"Rice Noodles",` +
				`"nutriments":{"energy-kcal_100g":364}}}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(off.Close)

	cfg := &config.Config{Env: "test", JWTSecret: testSecret, JWTTTL: time.Hour, CORSOrigins: []string{"*"}}
	log := zap.NewNop()
	d := Deps{Config: cfg, Source: source, Log: log, DB: db}
	d.RT = services.NewRealtimeHub()
	d.Alerts = services.NewAlertBus(db, d.RT, nil, log)
	d.Settings = services.NewSettingsService(db)
	d.Goals = services.NewGoalService(db)
	d.Auth = services.NewAuthService(db, cfg.JWTSecret, cfg.JWTTTL, nil, log)
	d.Items = services.NewItemService(db, d.Settings, d.Alerts, nil, log)
	d.Food = services.NewFoodService(services.NewOFFClient(off.URL, "test", log), nil)
	d.AI = services.NewAIService(nil, d.Items, log)
	d.Recipes = services.NewRecipeService(db, d.Settings)
	d.Tags = services.NewTagService(db)
	d.MealLogs = services.NewMealLogService(db, d.Recipes, d.AI)
	d.MealPlans = services.NewMealPlanService(db, d.Recipes)
	d.Analytics = services.NewAnalyticsService(db)

	return &testAPI{t: t, router: SetupRouter(d), off: off}
}

func (a *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testAPI) register(email string) string {
	a.t.Helper()
	w := a.do(http.MethodPost, "/auth/register", "", gin.H{"email": email, "password": "s3cret-pass"})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	var out services.AuthResult
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &out))
	require.NotEmpty(a.t, out.Token)
	return out.Token
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	t.Run("database", func(t *testing.T) {
		api := newTestAPI(t, config.SourceDatabase)
		w := api.do(http.MethodGet, "/health", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, string(config.SourceDatabase), w.Header().Get(middlewares.DataSourceHeader))
		assert.NotEmpty(t, w.Header().Get(middlewares.RequestIDHeader))
		assert.NotContains(t, decode[map[string]any](t, w), "banner")
	})

	t.Run("demo", func(t *testing.T) {
		api := newTestAPI(t, config.SourceDemo)
		w := api.do(http.MethodGet, "/health", "", nil)
		body := decode[map[string]any](t, w)
		assert.Equal(t, config.DemoBanner, body["banner"])
		assert.Equal(t, string(config.SourceDemo), w.Header().Get(middlewares.DataSourceHeader))
	})
}

func TestAuthFlow(t *testing.T) {
	api := newTestAPI(t, config.SourceDatabase)
	token := api.register("ada@example.com")

	w := api.do(http.MethodPost, "/auth/register", "", gin.H{"email": "ada@example.com", "password": "another-pass"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = api.do(http.MethodPost, "/auth/login", "", gin.H{"email": "ada@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(http.MethodPost, "/auth/login", "", gin.H{"email": "ada@example.com", "password": "s3cret-pass"})
	require.Equal(t, http.StatusOK, w.Code)

	w = api.do(http.MethodGet, "/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ada@example.com", decode[services.UserView](t, w).Email)

	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/me", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/me", "garbage", nil).Code)
}

func TestItemsAPI(t *testing.T) {
	api := newTestAPI(t, config.SourceDatabase)
	token := api.register("cook@example.com")

	oats := gin.H{"name": "Rolled Oats", "category": "Grains", "in_stock": true, "serving_size": 40, "serving_unit": "g"}
	w := api.do(http.MethodPost, "/items", token, oats)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode[map[string]any](t, w)["id"]

	w = api.do(http.MethodPost, "/items", token, gin.H{"name": "  rolled   OATS "})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "already exists")

	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodPost, "/items", token, gin.H{"category": "x"}).Code)
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/items?in_stock=maybe", token, nil).Code)
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/items/abc", token, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/items/999", token, nil).Code)

	w = api.do(http.MethodGet, "/items/search?q=oat", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[services.SearchResult](t, w)
	assert.Equal(t, services.SearchSubstring, res.Source)
	require.Len(t, res.Items, 1)

	other := api.register("other@example.com")
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, fmt.Sprintf("/items/%v", id), other, nil).Code)

	w = api.do(http.MethodGet, "/settings/recent-searches", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "oat")
}

func TestItemsAPI_CreateDefaultsInStock(t *testing.T) {
	api := newTestAPI(t, config.SourceDatabase)
	token := api.register("cook@example.com")

	w := api.do(http.MethodPost, "/items", token, gin.H{"name": "Rice"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, true, decode[map[string]any](t, w)["in_stock"])

	w = api.do(http.MethodPost, "/items", token, gin.H{"name": "Saffron", "in_stock": false})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, false, decode[map[string]any](t, w)["in_stock"])

	w = api.do(http.MethodGet, "/items?in_stock=true", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Rice")
	assert.NotContains(t, w.Body.String(), "Saffron")
}

func TestFoodAPI(t *testing.T) {
	api := newTestAPI(t, config.SourceDatabase)
	token := api.register("cook@example.com")

	w := api.do(http.MethodGet, "/food/barcode/737628064502", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Rice Noodles", decode[map[string]any](t, w)["name"])

	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/food/barcode/1", token, nil).Code)

	w = api.do(http.MethodPost, "/food/recognize", token, gin.H{"image_base64": "data:image/png;base64,iVBORw0KGgo="})
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestRecipesAndAnalyticsAPI(t *testing.T) {
	api := newTestAPI(t, config.SourceDatabase)
	token := api.register("cook@example.com")

	w := api.do(http.MethodPost, "/recipes/generate", token, gin.H{"prompt": "dinner"})
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w = api.do(http.MethodPost, "/tags", token, gin.H{"name": "Vegan", "color": "#22c55e"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = api.do(http.MethodPost, "/tags", token, gin.H{"name": "vegan", "color": "#22c55e"})
	assert.Equal(t, http.StatusConflict, w.Code)

	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/analytics/weekly?mode=pie", token, nil).Code)
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/analytics/summary?from=yesterday", token, nil).Code)
	assert.Equal(t, http.StatusBadRequest,
		api.do(http.MethodGet, "/analytics/summary?from=2026-03-10&to=2026-03-01", token, nil).Code)
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/analytics/inventory", token, nil).Code)

	assert.Equal(t, http.StatusServiceUnavailable, api.do(http.MethodPost, "/devices", token, gin.H{"platform": "ios", "token": "t"}).Code)
	assert.Equal(t, http.StatusServiceUnavailable, api.do(http.MethodPost, "/dev/push-test", token, gin.H{}).Code)
}

func TestSearchWebsocket(t *testing.T) {
	api := newTestAPI(t, config.SourceDatabase)
	token := api.register("cook@example.com")
	require.Equal(t, http.StatusCreated,
		api.do(http.MethodPost, "/items", token, gin.H{"name": "Whole Milk", "category": "Dairy"}).Code)

	srv := httptest.NewServer(api.router)
	t.Cleanup(srv.Close)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/search?token=" + token

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	for _, q := range []string{"m", "mi", "milk"} {
		require.NoError(t, conn.WriteJSON(gin.H{"query": q}))
	}
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var res services.SearchResult
	require.NoError(t, conn.ReadJSON(&res))
	assert.Equal(t, "milk", res.Query)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Whole Milk", res.Items[0].Name)

	_, _, err = websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/search", nil)
	assert.Error(t, err)
}
