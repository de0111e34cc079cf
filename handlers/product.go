package handlers

import (
	"net/http"
	"strings"
	"time"

	"storefront-svc/cache"
	"storefront-svc/models"
	"storefront-svc/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type ProductHandler struct {
	errorResponder
	products store.ProductStore
	cache    *cache.ProductCache
	now      func() time.Time
}

// NewProductHandler serves the catalog. productCache may be nil.
func NewProductHandler(products store.ProductStore, productCache *cache.ProductCache, logger *zap.Logger, exposeErrors bool) *ProductHandler {
	return &ProductHandler{
		errorResponder: errorResponder{logger: logger, exposeErrors: exposeErrors},
		products:       products,
		cache:          productCache,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (h *ProductHandler) GetProducts(c *gin.Context) {
	ctx, span := otel.Tracer("storefront").Start(c.Request.Context(), "GetProducts")
	defer span.End()

	products, err := h.products.ListProducts(ctx)
	if err != nil {
		span.RecordError(err)
		h.respond(c, err, "Error fetching products")
		return
	}

	span.SetAttributes(attribute.Int("products.count", len(products)))
	ok(c, http.StatusOK, "", products)
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	ctx, span := otel.Tracer("storefront").Start(c.Request.Context(), "GetProduct")
	defer span.End()

	id := c.Param("id")
	span.SetAttributes(attribute.String("product.id", id))

	cached, err := h.cache.Get(ctx, id)
	if err != nil {
		h.logger.Warn("Product cache read failed", zap.String("product_id", id), zap.Error(err))
	}
	if cached != nil {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		ok(c, http.StatusOK, "", cached)
		return
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	product, err := h.products.GetProduct(ctx, id)
	if err != nil {
		h.respond(c, err, "Error fetching product")
		return
	}

	if err := h.cache.Set(ctx, product); err != nil {
		h.logger.Warn("Product cache write failed", zap.String("product_id", id), zap.Error(err))
	}
	ok(c, http.StatusOK, "", product)
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	ctx, span := otel.Tracer("storefront").Start(c.Request.Context(), "CreateProduct")
	defer span.End()

	var req models.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	now := h.now()
	product := &models.Product{
		ID:            uuid.NewString(),
		Name:          strings.TrimSpace(req.Name),
		Description:   strings.TrimSpace(req.Description),
		Price:         req.Price,
		DiscountPrice: req.DiscountPrice,
		Stock:         req.Stock,
		Images:        req.Images,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if product.Images == nil {
		product.Images = []string{}
	}

	if err := h.products.CreateProduct(ctx, product); err != nil {
		span.RecordError(err)
		h.respond(c, err, "Error creating product")
		return
	}

	span.SetAttributes(attribute.String("product.id", product.ID))
	h.logger.Info("Product created", zap.String("product_id", product.ID))
	ok(c, http.StatusCreated, "Product created successfully", product)
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	ctx, span := otel.Tracer("storefront").Start(c.Request.Context(), "UpdateProduct")
	defer span.End()

	id := c.Param("id")
	span.SetAttributes(attribute.String("product.id", id))

	var req models.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	product, err := h.products.GetProduct(ctx, id)
	if err != nil {
		h.respond(c, err, "Error updating product")
		return
	}
	req.Apply(product)
	product.UpdatedAt = h.now()

	if err := h.products.UpdateProduct(ctx, product); err != nil {
		span.RecordError(err)
		h.respond(c, err, "Error updating product")
		return
	}

	h.invalidate(c, id)
	h.logger.Info("Product updated", zap.String("product_id", id))
	ok(c, http.StatusOK, "Product updated successfully", product)
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	ctx, span := otel.Tracer("storefront").Start(c.Request.Context(), "DeleteProduct")
	defer span.End()

	id := c.Param("id")
	span.SetAttributes(attribute.String("product.id", id))

	if err := h.products.DeleteProduct(ctx, id); err != nil {
		span.RecordError(err)
		h.respond(c, err, "Error deleting product")
		return
	}

	h.invalidate(c, id)
	h.logger.Info("Product deleted", zap.String("product_id", id))
	ok(c, http.StatusOK, "Product deleted successfully", nil)
}

func (h *ProductHandler) invalidate(c *gin.Context, id string) {
	if err := h.cache.Delete(c.Request.Context(), id); err != nil {
		h.logger.Warn("Product cache invalidation failed", zap.String("product_id", id), zap.Error(err))
	}
}
