package handlers

import (
	"database/sql"
	"net/http"
	"regexp"
	"testing"
	"time"

	"storefront-svc/middleware"
	"storefront-svc/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

var productRowColumns = []string{"id", "name", "description", "price", "discount_price", "stock", "images", "created_at", "updated_at"}

func setupProductTest(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *gin.Engine) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock database: %v", err)
	}

	logger := zaptest.NewLogger(t, zaptest.Level(zap.InfoLevel))
	// A nil cache disables caching.
	handler := NewProductHandler(store.NewPostgresStore(db), nil, logger, false)

	gin.SetMode(gin.TestMode)
	middleware.RegisterValidators()
	router := gin.New()
	router.GET("/products", handler.GetProducts)
	router.GET("/products/:id", handler.GetProduct)
	router.POST("/products", handler.CreateProduct)
	router.PUT("/products/:id", handler.UpdateProduct)
	router.DELETE("/products/:id", handler.DeleteProduct)

	return db, mock, router
}

func TestProductHandler_GetProducts_Success(t *testing.T) {
	db, mock, router := setupProductTest(t)
	defer db.Close()

	rows := sqlmock.NewRows(productRowColumns).
		AddRow("p-1", "Brass Lamp", "", 499.0, 449.0, 10, "{lamp.jpg}", time.Now(), time.Now()).
		AddRow("p-2", "Clay Pot", "", 199.0, 0.0, 0, "{}", time.Now(), time.Now())

	mock.ExpectQuery(regexp.QuoteMeta("FROM products ORDER BY created_at DESC")).
		WillReturnRows(rows)

	w := doJSON(router, http.MethodGet, "/products", nil, "")

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	if data, _ := decodeResponse(t, w)["data"].([]any); len(data) != 2 {
		t.Errorf("Expected 2 products, got %d", len(data))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestProductHandler_GetProduct_Success(t *testing.T) {
	db, mock, router := setupProductTest(t)
	defer db.Close()

	rows := sqlmock.NewRows(productRowColumns).
		AddRow("p-1", "Brass Lamp", "", 499.0, 449.0, 10, "{lamp.jpg}", time.Now(), time.Now())

	mock.ExpectQuery("FROM products WHERE id = \\$1").
		WithArgs("p-1").
		WillReturnRows(rows)

	w := doJSON(router, http.MethodGet, "/products/p-1", nil, "")

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestProductHandler_GetProduct_NotFound(t *testing.T) {
	db, mock, router := setupProductTest(t)
	defer db.Close()

	mock.ExpectQuery("FROM products WHERE id = \\$1").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	w := doJSON(router, http.MethodGet, "/products/missing", nil, "")

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, w.Code)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestProductHandler_CreateProduct_Success(t *testing.T) {
	db, mock, router := setupProductTest(t)
	defer db.Close()

	mock.ExpectExec("INSERT INTO products").
		WithArgs(sqlmock.AnyArg(), "New Lamp", "", 15.99, 0.0, 200, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := doJSON(router, http.MethodPost, "/products", gin.H{"name": "New Lamp", "price": 15.99, "stock": 200}, "")

	if w.Code != http.StatusCreated {
		t.Errorf("Expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestProductHandler_CreateProduct_Invalid(t *testing.T) {
	db, mock, router := setupProductTest(t)
	defer db.Close()

	w := doJSON(router, http.MethodPost, "/products", gin.H{"name": "No Price"}, "")

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestProductHandler_UpdateProduct_Success(t *testing.T) {
	db, mock, router := setupProductTest(t)
	defer db.Close()

	rows := sqlmock.NewRows(productRowColumns).
		AddRow("p-1", "Brass Lamp", "", 499.0, 449.0, 10, "{lamp.jpg}", time.Now(), time.Now())
	mock.ExpectQuery("FROM products WHERE id = \\$1").
		WithArgs("p-1").
		WillReturnRows(rows)

	mock.ExpectExec("UPDATE products SET").
		WithArgs("Brass Lamp", "", 499.0, 449.0, 25, sqlmock.AnyArg(), sqlmock.AnyArg(), "p-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := doJSON(router, http.MethodPut, "/products/p-1", gin.H{"stock": 25}, "")

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestProductHandler_DeleteProduct_Success(t *testing.T) {
	db, mock, router := setupProductTest(t)
	defer db.Close()

	mock.ExpectExec("DELETE FROM products WHERE id = \\$1").
		WithArgs("p-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := doJSON(router, http.MethodDelete, "/products/p-1", nil, "")

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestProductHandler_DeleteProduct_NotFound(t *testing.T) {
	db, mock, router := setupProductTest(t)
	defer db.Close()

	mock.ExpectExec("DELETE FROM products WHERE id = \\$1").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	w := doJSON(router, http.MethodDelete, "/products/missing", nil, "")

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, w.Code)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}
