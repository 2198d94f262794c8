// Package router assembles the gin engine: middleware, services and routes.
package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"pocketledger/internal/config"
	"pocketledger/internal/handlers"
	"pocketledger/internal/middleware"
	"pocketledger/internal/services"
	"pocketledger/internal/validator"

	_ "pocketledger/internal/docs" // swagger docs
)

// New builds the HTTP engine over db using cfg for auth, CORS and reporting.
func New(cfg *config.Config, db *gorm.DB) *gin.Engine {
	validator.Register()

	loc := cfg.ReportLocation
	if loc == nil {
		loc = time.UTC
	}

	// Services
	userService := services.NewUserService(db)
	categoryService := services.NewCategoryService(db)
	tagService := services.NewTagService(db)
	transactionService := services.NewTransactionService(db)
	budgetService := services.NewBudgetService(db, loc)
	reportService := services.NewReportService(db, loc, transactionService)
	auditService := services.NewAuditService(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, cfg.JWTSecret, cfg.JWTExpirationDur)
	categoryHandler := handlers.NewCategoryHandler(categoryService, auditService)
	tagHandler := handlers.NewTagHandler(tagService, auditService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, auditService)
	budgetHandler := handlers.NewBudgetHandler(budgetService, auditService, loc)
	reportHandler := handlers.NewReportHandler(reportService)
	analysisHandler := handlers.NewAnalysisHandler()
	auditHandler := handlers.NewAuditHandler(auditService)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.CORS(cfg.CORSAllowedOrigin))
	router.Use(middleware.ErrorHandler())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// Protected routes
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(cfg.JWTSecret))

	protected.GET("/profile", authHandler.GetProfile)

	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetUserTransactions)
	transactions.GET("/:id", transactionHandler.GetTransaction)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetUserCategories)
	categories.GET("/:id", categoryHandler.GetCategoryByID)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	tags := protected.Group("/tags")
	tags.POST("", tagHandler.CreateTag)
	tags.GET("", tagHandler.GetUserTags)
	tags.DELETE("/:id", tagHandler.DeleteTag)

	budgets := protected.Group("/budgets")
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.GetBudgets)
	budgets.GET("/progress", budgetHandler.GetBudgetProgress)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)

	protected.GET("/dashboard", reportHandler.GetDashboard)
	protected.GET("/summary", reportHandler.GetSummary)

	charts := protected.Group("/charts")
	charts.GET("/expense-by-category", reportHandler.GetExpenseByCategory)
	charts.GET("/income-vs-expense", reportHandler.GetIncomeVsExpense)
	charts.GET("/monthly-expenditure", reportHandler.GetMonthlyExpenditure)

	analysis := protected.Group("/analysis")
	analysis.POST("/budget-rule", analysisHandler.BudgetRule)
	analysis.POST("/affordability", analysisHandler.Affordability)

	protected.GET("/audit-logs", auditHandler.ListAuditLogs)

	return router
}
