package routes

import (
	"pantrytrack/config"
	"pantrytrack/controllers"
	"pantrytrack/middlewares"
	"pantrytrack/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps is everything the router needs. Push, Rekognition and the AI
// generator are optional; their endpoints report unavailability when nil.
type Deps struct {
	Config *config.Config
	Source config.DataSource
	Log    *zap.Logger
	DB     *gorm.DB

	Auth      *services.AuthService
	Items     *services.ItemService
	Food      *services.FoodService
	AI        *services.AIService
	Recipes   *services.RecipeService
	Tags      *services.TagService
	MealLogs  *services.MealLogService
	MealPlans *services.MealPlanService
	Analytics *services.AnalyticsService
	Settings  *services.SettingsService
	Goals     *services.GoalService
	Alerts    *services.AlertBus
	Push      *services.PushService
	RT        *services.RealtimeHub
}

func SetupRouter(d Deps) *gin.Engine {
	if d.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestLogger(d.Log))
	r.Use(middlewares.CORSMiddleware(d.Config.CORSOrigins))
	r.Use(middlewares.DataSource(d.Source))

	authCtl := controllers.NewAuthController(d.Auth)
	itemCtl := controllers.NewItemController(d.Items)
	foodCtl := controllers.NewFoodController(d.Food)
	recipeCtl := controllers.NewRecipeController(d.Recipes, d.AI)
	tagCtl := controllers.NewTagController(d.Tags)
	logCtl := controllers.NewMealLogController(d.MealLogs)
	planCtl := controllers.NewMealPlanController(d.MealPlans)
	analyticsCtl := controllers.NewAnalyticsController(d.Analytics)
	settingsCtl := controllers.NewSettingsController(d.Settings, d.Goals)
	deviceCtl := controllers.NewDeviceController(d.Push)
	notifyCtl := controllers.NewNotificationController(d.DB, d.Alerts, d.Push)
	rtCtl := controllers.NewRealtimeController(d.RT, d.Items)

	r.GET("/health", controllers.Health(d.Source))

	// Public auth routes
	auth := r.Group("/auth")
	{
		auth.POST("/register", authCtl.Register)
		auth.POST("/login", authCtl.Login)
		auth.POST("/forgot-password", authCtl.ForgotPassword)
		auth.POST("/reset-password", authCtl.ResetPassword)
	}

	ws := r.Group("/ws")
	ws.Use(middlewares.WSAuthMiddleware(d.Config.JWTSecret))
	{
		ws.GET("/alerts", rtCtl.AlertsWS)
		ws.GET("/search", rtCtl.SearchWS)
	}

	api := r.Group("/")
	api.Use(middlewares.AuthMiddleware(d.Config.JWTSecret))
	{
		api.GET("/me", authCtl.Me)

		items := api.Group("/items")
		items.GET("", itemCtl.List)
		items.POST("", itemCtl.Create)
		items.GET("/search", itemCtl.Search)
		items.GET("/categories", itemCtl.Categories)
		items.GET("/:id", itemCtl.Get)
		items.PUT("/:id", itemCtl.Update)
		items.DELETE("/:id", itemCtl.Delete)
		items.PATCH("/:id/stock", itemCtl.SetStock)
		items.POST("/:id/image", itemCtl.UploadImage)
		items.GET("/:id/assessment", itemCtl.Assessment)

		food := api.Group("/food")
		food.GET("/barcode/:code", foodCtl.Barcode)
		food.GET("/search", foodCtl.Search)
		food.POST("/recognize", foodCtl.Recognize)
		food.POST("/bulk", foodCtl.Bulk)

		recipes := api.Group("/recipes")
		recipes.GET("", recipeCtl.List)
		recipes.POST("", recipeCtl.Create)
		recipes.POST("/generate", recipeCtl.Generate)
		recipes.GET("/:id", recipeCtl.Get)
		recipes.PUT("/:id", recipeCtl.Update)
		recipes.DELETE("/:id", recipeCtl.Delete)

		tags := api.Group("/tags")
		tags.GET("", tagCtl.List)
		tags.POST("", tagCtl.Create)
		tags.PUT("/:id", tagCtl.Update)
		tags.DELETE("/:id", tagCtl.Delete)

		logs := api.Group("/meal-logs")
		logs.GET("", logCtl.List)
		logs.POST("", logCtl.Create)
		logs.GET("/:id", logCtl.Get)
		logs.PUT("/:id", logCtl.Update)
		logs.DELETE("/:id", logCtl.Delete)

		plans := api.Group("/meal-plans")
		plans.GET("", planCtl.List)
		plans.POST("", planCtl.Create)
		plans.GET("/:id", planCtl.Get)
		plans.PUT("/:id", planCtl.Update)
		plans.DELETE("/:id", planCtl.Delete)
		plans.POST("/:id/blocks", planCtl.AddBlock)
		plans.DELETE("/:id/blocks/:blockId", planCtl.DeleteBlock)
		plans.POST("/:id/apply-rotation", planCtl.ApplyRotation)
		plans.GET("/:id/shopping-list", planCtl.ShoppingList)

		rotations := api.Group("/rotations")
		rotations.GET("", planCtl.ListRotations)
		rotations.POST("", planCtl.CreateRotation)
		rotations.GET("/:id", planCtl.GetRotation)
		rotations.PUT("/:id", planCtl.UpdateRotation)
		rotations.DELETE("/:id", planCtl.DeleteRotation)

		analytics := api.Group("/analytics")
		analytics.GET("/summary", analyticsCtl.GetAnalyticsSummary)
		analytics.GET("/weekly", analyticsCtl.GetWeeklyOverview)
		analytics.GET("/inventory", analyticsCtl.GetInventoryStats)

		api.GET("/goals", settingsCtl.GetGoals)
		api.PUT("/goals", settingsCtl.UpdateGoals)
		api.GET("/settings", settingsCtl.Get)
		api.PUT("/settings", settingsCtl.Update)
		api.GET("/settings/recent-searches", settingsCtl.RecentSearches)
		api.DELETE("/settings/recent-searches", settingsCtl.ClearRecentSearches)

		api.POST("/devices", deviceCtl.Register)
		api.POST("/notifications/toggle", notifyCtl.Toggle)
		api.GET("/alerts", notifyCtl.ListAlerts)
		api.POST("/alerts/:id/read", notifyCtl.MarkRead)
		if !d.Config.IsProduction() {
			api.POST("/dev/push-test", notifyCtl.PushTest)
		}
	}

	return r
}
