package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/swaggo/swag"
	"gorm.io/gorm"

	"pocketledger/internal/config"
	"pocketledger/internal/logger"
	"pocketledger/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
}

func testConfig() *config.Config {
	return &config.Config{
		Env:               "test",
		CORSAllowedOrigin: "*",
		JWTSecret:         "router-test-secret",
		JWTExpirationDur:  time.Hour,
		ReportLocation:    time.UTC,
	}
}

type apiClient struct {
	t      *testing.T
	engine *gin.Engine
	token  string
}

func (c *apiClient) do(method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	c.t.Helper()
	req := httptest.NewRequest(method, "/api/v1"+path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	rec := httptest.NewRecorder()
	c.engine.ServeHTTP(rec, req)

	var result map[string]interface{}
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
			c.t.Fatalf("invalid JSON from %s %s: %v\n%s", method, path, err, rec.Body.String())
		}
	}
	return rec, result
}

func (c *apiClient) mustStatus(status int, method, path, body string) map[string]interface{} {
	c.t.Helper()
	rec, result := c.do(method, path, body)
	if rec.Code != status {
		c.t.Fatalf("%s %s: expected %d, got %d: %s", method, path, status, rec.Code, rec.Body.String())
	}
	return result
}

// register signs up a fresh user and returns a client holding their token.
func register(t *testing.T, engine *gin.Engine, email string) *apiClient {
	t.Helper()
	c := &apiClient{t: t, engine: engine}
	result := c.mustStatus(http.StatusCreated, "POST", "/auth/register",
		fmt.Sprintf(`{"name":"tester","email":%q,"password":"password123"}`, email))
	c.token = result["token"].(string)
	return c
}

func (c *apiClient) createID(path, body, key string) uint {
	c.t.Helper()
	result := c.mustStatus(http.StatusCreated, "POST", path, body)
	return uint(result[key].(map[string]interface{})["id"].(float64))
}

func setup(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })
	return New(testConfig(), db), db
}

func TestHealth(t *testing.T) {
	engine, _ := setup(t)

	req := httptest.NewRequest("GET", "/api/health", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	engine, _ := setup(t)
	anon := &apiClient{t: t, engine: engine}

	for _, path := range []string{"/transactions", "/categories", "/tags", "/budgets", "/dashboard", "/audit-logs"} {
		rec, result := anon.do("GET", path, "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", path, rec.Code)
			continue
		}
		if result["error"].(map[string]interface{})["code"] != "UNAUTHORIZED" {
			t.Errorf("%s: unexpected body %v", path, result)
		}
	}
}

func TestTransactionFlow(t *testing.T) {
	t.Run("groceries_scenario", func(t *testing.T) {
		engine, _ := setup(t)
		c := register(t, engine, "owner@example.com")

		foodID := c.createID("/categories", `{"name":"Food","type":"Expense"}`, "category")
		weeklyID := c.createID("/tags", `{"name":"weekly"}`, "tag")
		familyID := c.createID("/tags", `{"name":"family"}`, "tag")

		rec, result := c.do("POST", "/transactions", fmt.Sprintf(
			`{"amount":250.00,"description":"Groceries","category_id":%d,"payment_mode":"Cash","tag_ids":[%d,%d]}`,
			foodID, weeklyID, familyID))
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), `"amount":250.00`) {
			t.Errorf("expected amount 250.00 in body, got %s", rec.Body.String())
		}
		tx := result["transaction"].(map[string]interface{})
		if tx["category"] != "Food" {
			t.Errorf("expected category Food, got %v", tx["category"])
		}
		if tx["tags"] != "weekly, family" {
			t.Errorf("expected tags 'weekly, family', got %v", tx["tags"])
		}
		if tx["payment_mode"] != "Cash" || tx["description"] != "Groceries" {
			t.Errorf("unexpected transaction %v", tx)
		}

		list := c.mustStatus(http.StatusOK, "GET", "/transactions", "")["transactions"].([]interface{})
		if len(list) != 1 {
			t.Fatalf("expected 1 transaction, got %d", len(list))
		}
		if list[0].(map[string]interface{})["tags"] != "weekly, family" {
			t.Errorf("read-back lost tags: %v", list[0])
		}
	})

	t.Run("invalid_tag_rolls_back_create", func(t *testing.T) {
		engine, db := setup(t)
		c := register(t, engine, "owner@example.com")
		tagID := c.createID("/tags", `{"name":"ok"}`, "tag")

		rec, result := c.do("POST", "/transactions", fmt.Sprintf(`{"amount":10,"tag_ids":[%d,999]}`, tagID))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
		}
		if result["error"].(map[string]interface{})["code"] != "INVALID_TAG" {
			t.Errorf("expected INVALID_TAG, got %v", result)
		}
		if n := testutil.CountRows(t, db, "transaction", ""); n != 0 {
			t.Errorf("expected no transaction rows, got %d", n)
		}
		if n := testutil.CountRows(t, db, "transaction_tags", ""); n != 0 {
			t.Errorf("expected no tag links, got %d", n)
		}
	})

	t.Run("tag_replacement", func(t *testing.T) {
		engine, db := setup(t)
		c := register(t, engine, "owner@example.com")
		a := c.createID("/tags", `{"name":"a"}`, "tag")
		b := c.createID("/tags", `{"name":"b"}`, "tag")
		d := c.createID("/tags", `{"name":"d"}`, "tag")
		txID := c.createID("/transactions", fmt.Sprintf(`{"amount":5,"tag_ids":[%d,%d]}`, a, b), "transaction")

		result := c.mustStatus(http.StatusOK, "PUT", fmt.Sprintf("/transactions/%d", txID),
			fmt.Sprintf(`{"tag_ids":[%d]}`, d))

		if tags := result["transaction"].(map[string]interface{})["tags"]; tags != "d" {
			t.Errorf("expected tags 'd', got %v", tags)
		}
		if n := testutil.CountRows(t, db, "transaction_tags", "transaction_id = ?", txID); n != 1 {
			t.Errorf("expected exactly one link, got %d", n)
		}

		result = c.mustStatus(http.StatusOK, "PUT", fmt.Sprintf("/transactions/%d", txID), `{"tag_ids":[]}`)
		if tags := result["transaction"].(map[string]interface{})["tags"]; tags != "" {
			t.Errorf("expected no tags, got %v", tags)
		}
	})

	t.Run("delete_cascades_links", func(t *testing.T) {
		engine, db := setup(t)
		c := register(t, engine, "owner@example.com")
		tagID := c.createID("/tags", `{"name":"x"}`, "tag")
		txID := c.createID("/transactions", fmt.Sprintf(`{"amount":5,"tag_ids":[%d]}`, tagID), "transaction")

		c.mustStatus(http.StatusOK, "DELETE", fmt.Sprintf("/transactions/%d", txID), "")

		if n := testutil.CountRows(t, db, "transaction_tags", "transaction_id = ?", txID); n != 0 {
			t.Errorf("expected links removed, got %d", n)
		}
		c.mustStatus(http.StatusNotFound, "GET", fmt.Sprintf("/transactions/%d", txID), "")
	})
}

func TestOwnerIsolation(t *testing.T) {
	engine, db := setup(t)
	alice := register(t, engine, "alice@example.com")
	bob := register(t, engine, "bob@example.com")

	aliceCat := alice.createID("/categories", `{"name":"Rent","type":"Expense"}`, "category")
	aliceTag := alice.createID("/tags", `{"name":"home"}`, "tag")
	aliceTx := alice.createID("/transactions", fmt.Sprintf(`{"amount":900,"category_id":%d}`, aliceCat), "transaction")

	t.Run("foreign_category_rejected", func(t *testing.T) {
		rec, _ := bob.do("POST", "/transactions", fmt.Sprintf(`{"amount":1,"category_id":%d}`, aliceCat))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("foreign_tag_rejected", func(t *testing.T) {
		rec, _ := bob.do("POST", "/transactions", fmt.Sprintf(`{"amount":1,"tag_ids":[%d]}`, aliceTag))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("cross_tenant_update_and_delete_not_found", func(t *testing.T) {
		path := fmt.Sprintf("/transactions/%d", aliceTx)
		bob.mustStatus(http.StatusNotFound, "PUT", path, `{"amount":1}`)
		bob.mustStatus(http.StatusNotFound, "DELETE", path, "")
		bob.mustStatus(http.StatusNotFound, "GET", path, "")

		if n := testutil.CountRows(t, db, "transaction", "id = ?", aliceTx); n != 1 {
			t.Errorf("alice's transaction must survive, got %d rows", n)
		}
	})

	t.Run("lists_are_scoped", func(t *testing.T) {
		list := bob.mustStatus(http.StatusOK, "GET", "/transactions", "")["transactions"].([]interface{})
		if len(list) != 0 {
			t.Errorf("bob should see no transactions, got %d", len(list))
		}
	})
}

func TestReportsAndBudgets(t *testing.T) {
	engine, _ := setup(t)
	c := register(t, engine, "owner@example.com")

	month := time.Now().UTC().Format("2006-01")
	salary := c.createID("/categories", `{"name":"Salary","type":"Income"}`, "category")
	food := c.createID("/categories", `{"name":"Food","type":"Expense"}`, "category")
	c.createID("/transactions", fmt.Sprintf(`{"amount":2000,"category_id":%d}`, salary), "transaction")
	c.createID("/transactions", fmt.Sprintf(`{"amount":250,"category_id":%d}`, food), "transaction")
	c.createID("/budgets", fmt.Sprintf(`{"category_id":%d,"limit":500,"month":%q}`, food, month), "budget")

	rec, _ := c.do("GET", "/dashboard", "")
	if !strings.Contains(rec.Body.String(), `"total_balance":1750.00`) {
		t.Errorf("unexpected dashboard %s", rec.Body.String())
	}

	progress := c.mustStatus(http.StatusOK, "GET", "/budgets/progress", "")["progress"].([]interface{})
	if len(progress) != 1 {
		t.Fatalf("expected 1 budget, got %d", len(progress))
	}
	if pct := progress[0].(map[string]interface{})["percentage"]; pct != 50.0 {
		t.Errorf("expected 50%% used, got %v", pct)
	}

	logs := c.mustStatus(http.StatusOK, "GET", "/audit-logs?page_size=2", "")
	if logs["total_items"].(float64) < 5 {
		t.Errorf("expected audit entries for every write, got %v", logs["total_items"])
	}
	if len(logs["data"].([]interface{})) != 2 {
		t.Errorf("expected a page of 2, got %v", logs["data"])
	}
}

func TestOutOfRangeAmountsRejected(t *testing.T) {
	engine, _ := setup(t)
	c := register(t, engine, "owner@example.com")
	food := c.createID("/categories", `{"name":"Food","type":"Expense"}`, "category")

	tests := []struct {
		name  string
		path  string
		body  string
		field string
	}{
		{"transaction", "/transactions", `{"amount":1e50000000}`, "amount"},
		{"budget", "/budgets", fmt.Sprintf(`{"category_id":%d,"limit":1e50000000,"month":"2025-03"}`, food), "limit"},
		{"budget_rule", "/analysis/budget-rule", `{"monthly_income":1e-50000000}`, "monthly_income"},
		{"affordability", "/analysis/affordability",
			`{"item_cost":1000,"current_savings":0,"monthly_savings":1e-22,"desired_date":"2030-01-01"}`, "monthly_savings"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := time.Now()
			body := c.mustStatus(http.StatusBadRequest, "POST", tt.path, tt.body)
			if elapsed := time.Since(start); elapsed > time.Second {
				t.Errorf("rejection took %s", elapsed)
			}
			errObj := body["error"].(map[string]interface{})
			if errObj["field"] != tt.field {
				t.Errorf("expected field %s, got %v", tt.field, errObj)
			}
		})
	}
}

func TestSwaggerDocumentsEveryRoute(t *testing.T) {
	engine, _ := setup(t)

	raw, err := swag.ReadDoc()
	if err != nil {
		t.Fatalf("read swagger doc: %v", err)
	}
	var doc struct {
		Paths map[string]map[string]json.RawMessage `json:"paths"`
	}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("swagger doc is not valid JSON: %v", err)
	}

	const base = "/api/v1"
	for _, route := range engine.Routes() {
		if !strings.HasPrefix(route.Path, base) {
			continue
		}
		path := strings.ReplaceAll(strings.TrimPrefix(route.Path, base), ":id", "{id}")
		if _, ok := doc.Paths[path][strings.ToLower(route.Method)]; !ok {
			t.Errorf("%s %s is not documented", route.Method, path)
		}
	}

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"/transactions/{id}"`) {
		t.Errorf("expected the served doc, got %d", rec.Code)
	}
}
