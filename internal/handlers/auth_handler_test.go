package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "valutatrade/internal/errors"
	"valutatrade/internal/middleware"
	"valutatrade/internal/models"
	"valutatrade/internal/services"
	"valutatrade/internal/validator"
)

// --- mock user service ---

type mockUserService struct {
	registerFn              func(username, password string) (*models.User, error)
	getUserByIDFn           func(id uint) (*models.User, error)
	getUserByUsernameFn     func(username string) (*models.User, error)
	attemptLoginFn          func(username, password string) (*models.User, error)
	changePasswordFn        func(userID uint, currentPassword, newPassword string) error
	updateUsernameFn        func(userID uint, newUsername string) (*models.User, error)
	storeRefreshTokenHashFn func(userID uint, tokenHash string) error
	getRefreshTokenHashFn   func(userID uint) (string, error)
}

func (m *mockUserService) Register(username, password string) (*models.User, error) {
	if m.registerFn != nil {
		return m.registerFn(username, password)
	}
	return &models.User{}, nil
}

func (m *mockUserService) GetUserByID(id uint) (*models.User, error) {
	if m.getUserByIDFn != nil {
		return m.getUserByIDFn(id)
	}
	return &models.User{}, nil
}

func (m *mockUserService) GetUserByUsername(username string) (*models.User, error) {
	if m.getUserByUsernameFn != nil {
		return m.getUserByUsernameFn(username)
	}
	return &models.User{}, nil
}

func (m *mockUserService) AttemptLogin(username, password string) (*models.User, error) {
	if m.attemptLoginFn != nil {
		return m.attemptLoginFn(username, password)
	}
	return &models.User{}, nil
}

func (m *mockUserService) ChangePassword(userID uint, currentPassword, newPassword string) error {
	if m.changePasswordFn != nil {
		return m.changePasswordFn(userID, currentPassword, newPassword)
	}
	return nil
}

func (m *mockUserService) UpdateUsername(userID uint, newUsername string) (*models.User, error) {
	if m.updateUsernameFn != nil {
		return m.updateUsernameFn(userID, newUsername)
	}
	return &models.User{}, nil
}

func (m *mockUserService) StoreRefreshTokenHash(userID uint, tokenHash string) error {
	if m.storeRefreshTokenHashFn != nil {
		return m.storeRefreshTokenHashFn(userID, tokenHash)
	}
	return nil
}

func (m *mockUserService) GetRefreshTokenHash(userID uint) (string, error) {
	if m.getRefreshTokenHashFn != nil {
		return m.getRefreshTokenHashFn(userID)
	}
	return "", nil
}

// verify interface compliance
var _ services.UserServicer = (*mockUserService)(nil)

// --- test helpers ---

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

func setupAuthRouter(handler *AuthHandler) *gin.Engine {
	r := gin.New()
	r.POST("/auth/register", handler.Register)
	r.POST("/auth/login", handler.Login)
	r.POST("/auth/refresh", handler.RefreshToken)
	r.GET("/profile", injectUserID(1), handler.GetProfile)
	r.PUT("/profile/username", injectUserID(1), handler.UpdateUsername)
	r.PUT("/profile/password", injectUserID(1), handler.ChangePassword)
	return r
}

func injectUserID(uid uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", uid)
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}

// --- tests ---

func TestAuthHandler_Register(t *testing.T) {
	t.Run("returns 201 with a token pair", func(t *testing.T) {
		userSvc := &mockUserService{
			registerFn: func(username, password string) (*models.User, error) {
				return &models.User{
					Base:     models.Base{ID: 1, CreatedAt: time.Now()},
					Username: username,
				}, nil
			},
		}
		handler := NewAuthHandler(userSvc)
		r := setupAuthRouter(handler)

		rec := doRequest(r, "POST", "/auth/register", `{"username":"alice","password":"password123"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["access_token"] == "" || result["refresh_token"] == "" {
			t.Error("expected both tokens in response")
		}
		user := result["user"].(map[string]interface{})
		if user["username"] != "alice" {
			t.Errorf("expected alice, got %v", user["username"])
		}
	})

	t.Run("returns 400 on a short password", func(t *testing.T) {
		handler := NewAuthHandler(&mockUserService{})
		r := setupAuthRouter(handler)

		rec := doRequest(r, "POST", "/auth/register", `{"username":"alice","password":"abc"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 409 on a duplicate username", func(t *testing.T) {
		userSvc := &mockUserService{
			registerFn: func(username, password string) (*models.User, error) {
				return nil, apperrors.ErrDuplicateUsername
			},
		}
		handler := NewAuthHandler(userSvc)
		r := setupAuthRouter(handler)

		rec := doRequest(r, "POST", "/auth/register", `{"username":"alice","password":"password123"}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "DUPLICATE_USERNAME")
	})
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("returns 200 with a token pair", func(t *testing.T) {
		userSvc := &mockUserService{
			attemptLoginFn: func(username, password string) (*models.User, error) {
				return &models.User{Base: models.Base{ID: 7}, Username: username}, nil
			},
		}
		handler := NewAuthHandler(userSvc)
		r := setupAuthRouter(handler)

		rec := doRequest(r, "POST", "/auth/login", `{"username":"alice","password":"password123"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["access_token"] == "" {
			t.Error("expected an access token")
		}
	})

	t.Run("returns 401 on bad credentials", func(t *testing.T) {
		userSvc := &mockUserService{
			attemptLoginFn: func(username, password string) (*models.User, error) {
				return nil, apperrors.ErrInvalidCredentials
			},
		}
		handler := NewAuthHandler(userSvc)
		r := setupAuthRouter(handler)

		rec := doRequest(r, "POST", "/auth/login", `{"username":"alice","password":"wrong"}`)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_CREDENTIALS")
	})

	t.Run("returns 423 on a locked account", func(t *testing.T) {
		userSvc := &mockUserService{
			attemptLoginFn: func(username, password string) (*models.User, error) {
				return nil, apperrors.ErrAccountLocked
			},
		}
		handler := NewAuthHandler(userSvc)
		r := setupAuthRouter(handler)

		rec := doRequest(r, "POST", "/auth/login", `{"username":"alice","password":"password123"}`)

		if rec.Code != http.StatusLocked {
			t.Fatalf("expected 423, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "ACCOUNT_LOCKED")
	})
}

func TestAuthHandler_RefreshToken(t *testing.T) {
	user := &models.User{Base: models.Base{ID: 3}, Username: "alice"}

	t.Run("returns 200 for a valid stored token", func(t *testing.T) {
		refreshToken, err := middleware.GenerateRefreshToken(user)
		if err != nil {
			t.Fatalf("failed to generate refresh token: %v", err)
		}

		userSvc := &mockUserService{
			getRefreshTokenHashFn: func(userID uint) (string, error) {
				return middleware.HashToken(refreshToken), nil
			},
			getUserByIDFn: func(id uint) (*models.User, error) {
				return user, nil
			},
		}
		handler := NewAuthHandler(userSvc)
		r := setupAuthRouter(handler)

		rec := doRequest(r, "POST", "/auth/refresh", `{"refresh_token":"`+refreshToken+`"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("returns 401 when the hash does not match", func(t *testing.T) {
		refreshToken, err := middleware.GenerateRefreshToken(user)
		if err != nil {
			t.Fatalf("failed to generate refresh token: %v", err)
		}

		userSvc := &mockUserService{
			getRefreshTokenHashFn: func(userID uint) (string, error) {
				return "some-other-hash", nil
			},
		}
		handler := NewAuthHandler(userSvc)
		r := setupAuthRouter(handler)

		rec := doRequest(r, "POST", "/auth/refresh", `{"refresh_token":"`+refreshToken+`"}`)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("returns 401 for garbage tokens", func(t *testing.T) {
		handler := NewAuthHandler(&mockUserService{})
		r := setupAuthRouter(handler)

		rec := doRequest(r, "POST", "/auth/refresh", `{"refresh_token":"not-a-jwt"}`)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("returns 401 for an access token", func(t *testing.T) {
		accessToken, err := middleware.GenerateAccessToken(user)
		if err != nil {
			t.Fatalf("failed to generate access token: %v", err)
		}

		handler := NewAuthHandler(&mockUserService{})
		r := setupAuthRouter(handler)

		rec := doRequest(r, "POST", "/auth/refresh", `{"refresh_token":"`+accessToken+`"}`)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}

func TestAuthHandler_GetProfile(t *testing.T) {
	t.Run("returns the public view of the user", func(t *testing.T) {
		userSvc := &mockUserService{
			getUserByIDFn: func(id uint) (*models.User, error) {
				return &models.User{
					Base:           models.Base{ID: id, CreatedAt: time.Now()},
					Username:       "alice",
					HashedPassword: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
					Salt:           "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
				}, nil
			},
		}
		handler := NewAuthHandler(userSvc)
		r := setupAuthRouter(handler)

		rec := doRequest(r, "GET", "/profile", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		body := rec.Body.String()
		if strings.Contains(body, "aaaaaaaa") || strings.Contains(body, "bbbbbbbb") {
			t.Error("profile response must not contain the credential hash or salt")
		}
		result := parseJSON(t, rec)
		user := result["user"].(map[string]interface{})
		if user["username"] != "alice" {
			t.Errorf("expected alice, got %v", user["username"])
		}
		if _, ok := user["user_id"]; !ok {
			t.Error("expected user_id in profile")
		}
		if _, ok := user["registration_date"]; !ok {
			t.Error("expected registration_date in profile")
		}
	})

	t.Run("returns 404 for a vanished user", func(t *testing.T) {
		userSvc := &mockUserService{
			getUserByIDFn: func(id uint) (*models.User, error) {
				return nil, apperrors.ErrUserNotFound
			},
		}
		handler := NewAuthHandler(userSvc)
		r := setupAuthRouter(handler)

		rec := doRequest(r, "GET", "/profile", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestAuthHandler_UpdateUsername(t *testing.T) {
	t.Run("returns the updated profile", func(t *testing.T) {
		userSvc := &mockUserService{
			updateUsernameFn: func(userID uint, newUsername string) (*models.User, error) {
				return &models.User{Base: models.Base{ID: userID}, Username: newUsername}, nil
			},
		}
		handler := NewAuthHandler(userSvc)
		r := setupAuthRouter(handler)

		rec := doRequest(r, "PUT", "/profile/username", `{"username":"bob"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		user := result["user"].(map[string]interface{})
		if user["username"] != "bob" {
			t.Errorf("expected bob, got %v", user["username"])
		}
	})

	t.Run("returns 409 when the name is taken", func(t *testing.T) {
		userSvc := &mockUserService{
			updateUsernameFn: func(userID uint, newUsername string) (*models.User, error) {
				return nil, apperrors.ErrDuplicateUsername
			},
		}
		handler := NewAuthHandler(userSvc)
		r := setupAuthRouter(handler)

		rec := doRequest(r, "PUT", "/profile/username", `{"username":"bob"}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
	})
}

func TestAuthHandler_ChangePassword(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		called := false
		userSvc := &mockUserService{
			changePasswordFn: func(userID uint, currentPassword, newPassword string) error {
				called = true
				return nil
			},
		}
		handler := NewAuthHandler(userSvc)
		r := setupAuthRouter(handler)

		rec := doRequest(r, "PUT", "/profile/password",
			`{"current_password":"oldpass","new_password":"newpass"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !called {
			t.Error("expected the service to be called")
		}
	})

	t.Run("returns 401 on a wrong current password", func(t *testing.T) {
		userSvc := &mockUserService{
			changePasswordFn: func(userID uint, currentPassword, newPassword string) error {
				return apperrors.ErrInvalidCredentials
			},
		}
		handler := NewAuthHandler(userSvc)
		r := setupAuthRouter(handler)

		rec := doRequest(r, "PUT", "/profile/password",
			`{"current_password":"wrong","new_password":"newpass"}`)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on missing fields", func(t *testing.T) {
		handler := NewAuthHandler(&mockUserService{})
		r := setupAuthRouter(handler)

		rec := doRequest(r, "PUT", "/profile/password", `{"new_password":"newpass"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}
