package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storefront-svc/models"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

func bindCustomer(t *testing.T, body string) error {
	t.Helper()
	RegisterValidators()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	var req struct {
		Customer        models.Customer        `json:"customer"`
		ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	}
	return c.ShouldBindJSON(&req)
}

func TestCustomValidators(t *testing.T) {
	valid := `{"customer":{"name":"Asha","email":"asha@example.com","phone":"9876543210"},
		"shippingAddress":{"address":"12 MG Road","city":"Pune","state":"MH","pincode":"411001"}}`
	if err := bindCustomer(t, valid); err != nil {
		t.Fatalf("Expected valid payload, got %v", err)
	}

	tests := []struct {
		name  string
		body  string
		field string
		tag   string
	}{
		{
			"phone starting with 5",
			`{"customer":{"name":"Asha","email":"asha@example.com","phone":"5876543210"},"shippingAddress":{"address":"a","city":"b","state":"c","pincode":"411001"}}`,
			"phone", "in_phone",
		},
		{
			"short pincode",
			`{"customer":{"name":"Asha","email":"asha@example.com","phone":"9876543210"},"shippingAddress":{"address":"a","city":"b","state":"c","pincode":"4110"}}`,
			"pincode", "pincode",
		},
		{
			"blank name",
			`{"customer":{"name":"   ","email":"asha@example.com","phone":"9876543210"},"shippingAddress":{"address":"a","city":"b","state":"c","pincode":"411001"}}`,
			"name", "notblank",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := bindCustomer(t, tt.body)
			var verrs validator.ValidationErrors
			if !errors.As(err, &verrs) || len(verrs) != 1 {
				t.Fatalf("Expected one validation error, got %v", err)
			}
			if verrs[0].Field() != tt.field || verrs[0].Tag() != tt.tag {
				t.Errorf("Expected %s/%s, got %s/%s", tt.field, tt.tag, verrs[0].Field(), verrs[0].Tag())
			}
		})
	}
}
