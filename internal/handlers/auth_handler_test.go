package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "pocketledger/internal/errors"
	"pocketledger/internal/logger"
	"pocketledger/internal/middleware"
	"pocketledger/internal/models"
	"pocketledger/internal/pagination"
	"pocketledger/internal/validator"
)

const testSecret = "test-secret"

// --- mock services ---

type mockUserService struct {
	createUserFn     func(username, email, password string) (*models.User, error)
	getUserByEmailFn func(email string) (*models.User, error)
	getUserByIDFn    func(id uint) (*models.User, error)
	authenticateFn   func(email, password string) (*models.User, error)
}

func (m *mockUserService) CreateUser(_ context.Context, username, email, password string) (*models.User, error) {
	if m.createUserFn != nil {
		return m.createUserFn(username, email, password)
	}
	return &models.User{}, nil
}

func (m *mockUserService) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	if m.getUserByEmailFn != nil {
		return m.getUserByEmailFn(email)
	}
	return &models.User{}, nil
}

func (m *mockUserService) GetUserByID(_ context.Context, id uint) (*models.User, error) {
	if m.getUserByIDFn != nil {
		return m.getUserByIDFn(id)
	}
	return &models.User{}, nil
}

func (m *mockUserService) VerifyPassword(_ *models.User, _ string) bool { return true }

func (m *mockUserService) Authenticate(_ context.Context, email, password string) (*models.User, error) {
	if m.authenticateFn != nil {
		return m.authenticateFn(email, password)
	}
	return &models.User{}, nil
}

type auditEntry struct {
	userID     uint
	action     string
	resource   string
	resourceID uint
}

type mockAuditService struct {
	mu      sync.Mutex
	entries []auditEntry
	listFn  func(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.AuditLog], error)
}

func (m *mockAuditService) Log(_ context.Context, userID uint, action, resourceType string, resourceID uint, _ string, _ map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, auditEntry{userID: userID, action: action, resource: resourceType, resourceID: resourceID})
}

func (m *mockAuditService) ListAuditLogs(_ context.Context, userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.AuditLog], error) {
	if m.listFn != nil {
		return m.listFn(userID, page)
	}
	resp := pagination.NewPage[models.AuditLog](nil, page.Normalize(), 0)
	return &resp, nil
}

func (m *mockAuditService) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// --- test helpers ---

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

func setupAuthRouter(handler *AuthHandler) *gin.Engine {
	r := gin.New()
	r.POST("/auth/register", handler.Register)
	r.POST("/auth/login", handler.Login)
	r.GET("/profile", injectUserID(1), handler.GetProfile)
	return r
}

func injectUserID(uid uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, uid)
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

func assertErrorField(t *testing.T, result map[string]interface{}, field string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["field"] != field {
		t.Errorf("expected error field %q, got %v", field, errObj["field"])
	}
}

// --- tests ---

func TestAuthHandler_Register(t *testing.T) {
	t.Run("returns 201 with a usable token", func(t *testing.T) {
		userSvc := &mockUserService{
			createUserFn: func(username, email, _ string) (*models.User, error) {
				return &models.User{Base: models.Base{ID: 7}, Username: username, Email: email}, nil
			},
		}
		r := setupAuthRouter(NewAuthHandler(userSvc, testSecret, time.Hour))

		rec := doRequest(r, "POST", "/auth/register",
			`{"name":"John","email":"test@example.com","password":"password123"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		token, _ := result["token"].(string)
		if token == "" {
			t.Fatal("expected non-empty token")
		}
		claims, err := middleware.ParseToken(token, testSecret)
		if err != nil {
			t.Fatalf("token did not parse: %v", err)
		}
		if claims.UserID != 7 {
			t.Errorf("expected user_id 7 in claims, got %d", claims.UserID)
		}
		user := result["user"].(map[string]interface{})
		if user["email"] != "test@example.com" || user["name"] != "John" {
			t.Errorf("unexpected user payload: %v", user)
		}
	})

	t.Run("returns 400 on missing email", func(t *testing.T) {
		r := setupAuthRouter(NewAuthHandler(&mockUserService{}, testSecret, time.Hour))

		rec := doRequest(r, "POST", "/auth/register", `{"name":"x","password":"password123"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		assertErrorCode(t, result, "INVALID_INPUT")
		assertErrorField(t, result, "email")
	})

	t.Run("returns 400 on short password", func(t *testing.T) {
		r := setupAuthRouter(NewAuthHandler(&mockUserService{}, testSecret, time.Hour))

		rec := doRequest(r, "POST", "/auth/register", `{"name":"x","email":"test@example.com","password":"short"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorField(t, parseJSON(t, rec), "password")
	})

	t.Run("returns 400 on invalid email format", func(t *testing.T) {
		r := setupAuthRouter(NewAuthHandler(&mockUserService{}, testSecret, time.Hour))

		rec := doRequest(r, "POST", "/auth/register", `{"name":"x","email":"not-an-email","password":"password123"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on malformed JSON", func(t *testing.T) {
		r := setupAuthRouter(NewAuthHandler(&mockUserService{}, testSecret, time.Hour))

		rec := doRequest(r, "POST", "/auth/register", `{bad json`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 409 on duplicate email", func(t *testing.T) {
		userSvc := &mockUserService{
			createUserFn: func(_, _, _ string) (*models.User, error) {
				return nil, apperrors.ErrDuplicateEmail
			},
		}
		r := setupAuthRouter(NewAuthHandler(userSvc, testSecret, time.Hour))

		rec := doRequest(r, "POST", "/auth/register",
			`{"name":"x","email":"dup@example.com","password":"password123"}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "DUPLICATE_EMAIL")
	})
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("returns 200 with token", func(t *testing.T) {
		userSvc := &mockUserService{
			authenticateFn: func(email, _ string) (*models.User, error) {
				return &models.User{Base: models.Base{ID: 1}, Email: email}, nil
			},
		}
		r := setupAuthRouter(NewAuthHandler(userSvc, testSecret, time.Hour))

		rec := doRequest(r, "POST", "/auth/login", `{"email":"test@example.com","password":"password123"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if tok, _ := parseJSON(t, rec)["token"].(string); tok == "" {
			t.Error("expected non-empty token")
		}
	})

	t.Run("returns 401 on bad credentials", func(t *testing.T) {
		userSvc := &mockUserService{
			authenticateFn: func(_, _ string) (*models.User, error) {
				return nil, apperrors.ErrInvalidCredentials
			},
		}
		r := setupAuthRouter(NewAuthHandler(userSvc, testSecret, time.Hour))

		rec := doRequest(r, "POST", "/auth/login", `{"email":"test@example.com","password":"wrong"}`)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_CREDENTIALS")
	})

	t.Run("returns 400 on missing password", func(t *testing.T) {
		r := setupAuthRouter(NewAuthHandler(&mockUserService{}, testSecret, time.Hour))

		rec := doRequest(r, "POST", "/auth/login", `{"email":"test@example.com"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestAuthHandler_GetProfile(t *testing.T) {
	t.Run("returns 200 with user", func(t *testing.T) {
		userSvc := &mockUserService{
			getUserByIDFn: func(id uint) (*models.User, error) {
				return &models.User{Base: models.Base{ID: id}, Username: "John", Email: "test@example.com"}, nil
			},
		}
		r := setupAuthRouter(NewAuthHandler(userSvc, testSecret, time.Hour))

		rec := doRequest(r, "GET", "/profile", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		user := parseJSON(t, rec)["user"].(map[string]interface{})
		if user["email"] != "test@example.com" {
			t.Errorf("expected email test@example.com, got %v", user["email"])
		}
		if _, leaked := user["password"]; leaked {
			t.Error("password must not be returned")
		}
	})

	t.Run("returns 404 when user is gone", func(t *testing.T) {
		userSvc := &mockUserService{
			getUserByIDFn: func(_ uint) (*models.User, error) {
				return nil, apperrors.ErrUserNotFound
			},
		}
		r := setupAuthRouter(NewAuthHandler(userSvc, testSecret, time.Hour))

		rec := doRequest(r, "GET", "/profile", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("returns 401 without user in context", func(t *testing.T) {
		r := gin.New()
		r.GET("/profile", NewAuthHandler(&mockUserService{}, testSecret, time.Hour).GetProfile)

		rec := doRequest(r, "GET", "/profile", "")

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}
