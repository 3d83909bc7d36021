package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"valutatrade/internal/handlers"
	"valutatrade/internal/logger"
	"valutatrade/internal/middleware"
	"valutatrade/internal/models"
	"valutatrade/internal/rates"
	"valutatrade/internal/services"
	"valutatrade/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.User{},
		&models.Wallet{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)
	table := rates.Default()

	// Services
	userService := services.NewUserService(db)
	portfolioService := services.NewPortfolioService(db, table)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService)
	portfolioHandler := handlers.NewPortfolioHandler(portfolioService)
	ratesHandler := handlers.NewRatesHandler(table)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	// Public auth routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.RefreshToken)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)
	protected.PUT("/profile/username", authHandler.UpdateUsername)
	protected.PUT("/profile/password", authHandler.ChangePassword)

	protected.GET("/rates", ratesHandler.GetRates)

	portfolio := protected.Group("/portfolio")
	portfolio.POST("/wallets", portfolioHandler.AddCurrency)
	portfolio.GET("/wallets", portfolioHandler.GetUserWallets)
	portfolio.GET("/wallets/:code", portfolioHandler.GetWallet)
	portfolio.POST("/wallets/:code/deposit", portfolioHandler.Deposit)
	portfolio.POST("/wallets/:code/withdraw", portfolioHandler.Withdraw)
	portfolio.POST("/buy", portfolioHandler.BuyCurrency)
	portfolio.POST("/sell", portfolioHandler.SellCurrency)
	portfolio.GET("/value", portfolioHandler.GetTotalValue)

	return &testApp{DB: db, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// registerUser registers a new user and returns the access token, refresh token, and user ID.
func (app *testApp) registerUser(t *testing.T, username, password string) (accessToken, refreshToken string, userID float64) {
	t.Helper()
	body := fmt.Sprintf(`{"username":%q,"password":%q}`, username, password)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["access_token"].(string), result["refresh_token"].(string), user["user_id"].(float64)
}

// loginUser logs in and returns the access and refresh tokens.
func (app *testApp) loginUser(t *testing.T, username, password string) (accessToken, refreshToken string) {
	t.Helper()
	body := fmt.Sprintf(`{"username":%q,"password":%q}`, username, password)
	rec := app.request("POST", "/api/v1/auth/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	return result["access_token"].(string), result["refresh_token"].(string)
}

// addWallet creates a wallet for the given currency.
func (app *testApp) addWallet(t *testing.T, token, code string) {
	t.Helper()
	rec := app.request("POST", "/api/v1/portfolio/wallets",
		fmt.Sprintf(`{"currency_code":%q}`, code), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add wallet %s failed: %d %s", code, rec.Code, rec.Body.String())
	}
}

// deposit adds funds to a wallet.
func (app *testApp) deposit(t *testing.T, token, code, amount string) {
	t.Helper()
	rec := app.request("POST", "/api/v1/portfolio/wallets/"+code+"/deposit",
		fmt.Sprintf(`{"amount":%q}`, amount), token)
	if rec.Code != http.StatusOK {
		t.Fatalf("deposit %s %s failed: %d %s", amount, code, rec.Code, rec.Body.String())
	}
}

// walletBalance reads a wallet's balance as a string.
func (app *testApp) walletBalance(t *testing.T, token, code string) string {
	t.Helper()
	rec := app.request("GET", "/api/v1/portfolio/wallets/"+code, "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("get wallet %s failed: %d %s", code, rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	wallet := result["wallet"].(map[string]interface{})
	return wallet["balance"].(string)
}
