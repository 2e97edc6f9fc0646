package main

import (
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/mmdatafocus/mandi_backend/config"
	"github.com/mmdatafocus/mandi_backend/middlewares"
	"github.com/mmdatafocus/mandi_backend/models"
	"github.com/mmdatafocus/mandi_backend/utils"
	"github.com/mmdatafocus/mandi_backend/workflow"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const defaultPort = "8080"

// respondError maps the error taxonomy onto HTTP statuses: bad input is 400,
// missing or cross-tenant is 404, state conflicts are 409.
func respondError(c *gin.Context, err error) {
	var validationErr *utils.ValidationError
	var notFoundErr *utils.NotFoundError
	var invalidStateErr *utils.InvalidStateError
	var alreadyReversedErr *utils.AlreadyReversedError
	var duplicateErr *utils.DuplicateSettlementError
	var stockErr *utils.InsufficientStockError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &invalidStateErr),
		errors.As(err, &alreadyReversedErr),
		errors.As(err, &duplicateErr),
		errors.As(err, &stockErr):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger := config.GetLogger()
		config.LogError(logger, "server.go", "respondError", "unhandled", c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func pathId(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": utils.ProcessValidationErrors(err)})
			return false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

func optionalIntQuery(c *gin.Context, name string) *int {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &v
}

func correlationIdMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationId := c.Request.Header.Get("X-Correlation-Id")
		if correlationId == "" {
			correlationId = uuid.NewString()
		}
		ctx := utils.SetCorrelationIdInContext(c.Request.Context(), correlationId)
		c.Request = c.Request.WithContext(ctx)
		c.Writer.Header().Set("X-Correlation-Id", correlationId)
		c.Next()
	}
}

func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		correlationId, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
		logger.WithFields(logrus.Fields{
			"method":        c.Request.Method,
			"path":          c.Request.URL.Path,
			"status":        c.Writer.Status(),
			"durationMs":    time.Since(start).Milliseconds(),
			"correlationId": correlationId,
		}).Info("request")
	}
}

func registerFarmerRoutes(api *gin.RouterGroup) {
	api.POST("/farmers", func(c *gin.Context) {
		var input models.NewFarmer
		if !bindJSON(c, &input) {
			return
		}
		farmer, err := models.CreateFarmer(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, farmer)
	})
	api.PUT("/farmers/:id", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		var input models.NewFarmer
		if !bindJSON(c, &input) {
			return
		}
		farmer, err := models.UpdateFarmer(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, farmer)
	})
	api.GET("/farmers/:id", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		farmer, err := models.GetFarmer(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, farmer)
	})
	api.GET("/farmers", func(c *gin.Context) {
		rows, err := workflow.ListFarmersWithDues(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, rows)
	})
}

func registerBuyerRoutes(api *gin.RouterGroup) {
	api.POST("/buyers", func(c *gin.Context) {
		var input models.NewBuyer
		if !bindJSON(c, &input) {
			return
		}
		buyer, err := models.CreateBuyer(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, buyer)
	})
	api.PUT("/buyers/:id", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		var input models.NewBuyer
		if !bindJSON(c, &input) {
			return
		}
		buyer, err := models.UpdateBuyer(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, buyer)
	})
	api.GET("/buyers/:id", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		buyer, err := models.GetBuyer(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, buyer)
	})
	api.GET("/buyers", func(c *gin.Context) {
		rows, err := workflow.ListBuyersWithDues(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, rows)
	})
}

func registerLotRoutes(api *gin.RouterGroup) {
	api.POST("/lots", func(c *gin.Context) {
		var input models.NewLot
		if !bindJSON(c, &input) {
			return
		}
		lot, err := models.CreateLot(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, lot)
	})
	api.PATCH("/lots/:id", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		var input models.LotPatch
		if !bindJSON(c, &input) {
			return
		}
		lot, err := models.UpdateLot(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, lot)
	})
	api.GET("/lots", func(c *gin.Context) {
		var crop, search *string
		if v := c.Query("crop"); v != "" {
			crop = &v
		}
		if v := c.Query("search"); v != "" {
			search = &v
		}
		var date *time.Time
		if v := c.Query("date"); v != "" {
			parsed, err := time.Parse("2006-01-02", v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
				return
			}
			date = &parsed
		}
		lots, err := models.ListLots(c.Request.Context(), crop, date, search)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, lots)
	})
	api.GET("/lots/:id", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		lot, err := models.GetLot(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, lot)
	})
	api.GET("/lots/:id/activity", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		activity, err := models.GetLotActivity(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, activity)
	})
	api.POST("/lots/:id/return", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		soldBags, err := models.ReturnLotToFarmer(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"sold_bags": soldBags})
	})
	api.GET("/lots/:id/bids", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		bids, err := models.ListBidsForLot(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, bids)
	})
}

func registerBidRoutes(api *gin.RouterGroup) {
	api.POST("/bids", func(c *gin.Context) {
		var input models.NewBid
		if !bindJSON(c, &input) {
			return
		}
		bid, err := models.CreateBid(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, bid)
	})
	api.PATCH("/bids/:id", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		var input models.BidPatch
		if !bindJSON(c, &input) {
			return
		}
		bid, err := models.UpdateBid(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, bid)
	})
	api.DELETE("/bids/:id", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		bid, err := models.DeleteBid(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, bid)
	})
}

func registerTransactionRoutes(api *gin.RouterGroup) {
	api.POST("/transactions", func(c *gin.Context) {
		var input workflow.NewSettlement
		if !bindJSON(c, &input) {
			return
		}
		transaction, err := workflow.CreateTransaction(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, transaction)
	})
	api.PUT("/transactions/:id", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		var input workflow.NewSettlement
		if !bindJSON(c, &input) {
			return
		}
		transaction, err := workflow.UpdateTransaction(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, transaction)
	})
	api.POST("/transactions/:id/reverse", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		bagsReturned, err := workflow.ReverseTransaction(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"bags_returned": bagsReturned})
	})
	api.GET("/transactions/:id", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		transaction, err := models.GetTransaction(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, transaction)
	})
	api.GET("/transactions", func(c *gin.Context) {
		transactions, err := models.ListTransactions(c.Request.Context(),
			optionalIntQuery(c, "lotId"),
			optionalIntQuery(c, "farmerId"),
			optionalIntQuery(c, "buyerId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, transactions)
	})
}

func registerCashRoutes(api *gin.RouterGroup) {
	api.POST("/cash-entries", func(c *gin.Context) {
		var input models.NewCashEntry
		if !bindJSON(c, &input) {
			return
		}
		entry, err := models.CreateCashEntry(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, entry)
	})
	api.POST("/cash-entries/:id/reverse", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		var body struct {
			Reason string `json:"reason"`
		}
		if c.Request.ContentLength > 0 && !bindJSON(c, &body) {
			return
		}
		entry, err := models.ReverseCashEntry(c.Request.Context(), id, body.Reason)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, entry)
	})
	api.GET("/cash-entries/:id", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		entry, err := models.GetCashEntry(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, entry)
	})
	api.GET("/cash-entries", func(c *gin.Context) {
		var category *models.CashCategory
		if v := c.Query("category"); v != "" {
			cat := models.CashCategory(v)
			category = &cat
		}
		entries, err := models.ListCashEntries(c.Request.Context(), category,
			optionalIntQuery(c, "farmerId"),
			optionalIntQuery(c, "buyerId"),
			optionalIntQuery(c, "bankAccountId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, entries)
	})
	api.GET("/cash-summary", func(c *gin.Context) {
		summary, err := workflow.GetCashSummary(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, summary)
	})
}

func registerBankAccountRoutes(api *gin.RouterGroup) {
	api.POST("/bank-accounts", func(c *gin.Context) {
		var input models.NewBankAccount
		if !bindJSON(c, &input) {
			return
		}
		account, err := models.CreateBankAccount(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, account)
	})
	api.PUT("/bank-accounts/:id", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		var input models.NewBankAccount
		if !bindJSON(c, &input) {
			return
		}
		account, err := models.UpdateBankAccount(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, account)
	})
	api.DELETE("/bank-accounts/:id", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		if err := models.DeleteBankAccount(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})
	api.GET("/bank-accounts/:id", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		account, err := models.GetBankAccount(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, account)
	})
	api.GET("/bank-accounts", func(c *gin.Context) {
		accounts, err := models.ListBankAccounts(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, accounts)
	})
}

func registerChargeSettingRoutes(api *gin.RouterGroup) {
	api.GET("/charge-settings", func(c *gin.Context) {
		setting, err := models.GetChargeSetting(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, setting)
	})
	api.PUT("/charge-settings", func(c *gin.Context) {
		var input models.ChargeSettingPatch
		if !bindJSON(c, &input) {
			return
		}
		setting, err := models.UpdateChargeSetting(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, setting)
	})
}

func main() {
	decimal.MarshalJSONWithoutQuotes = true

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	logger := config.GetLogger()

	r := gin.New()
	r.Use(correlationIdMiddleware())
	r.Use(requestLogger(logger))
	r.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AddAllowHeaders("Authorization", "X-Correlation-Id")
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS")
	r.Use(cors.New(corsConfig))

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	api := r.Group("/api", middlewares.AuthMiddleware())
	registerFarmerRoutes(api)
	registerBuyerRoutes(api)
	registerLotRoutes(api)
	registerBidRoutes(api)
	registerTransactionRoutes(api)
	registerCashRoutes(api)
	registerBankAccountRoutes(api)
	registerChargeSettingRoutes(api)

	logger.WithField("port", port).Info("mandi backend listening")
	if err := r.Run(":" + port); err != nil {
		logger.Fatal(err)
	}
}
