// internal/handlers/product.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/storefront/catalog-api/internal/config"
	"github.com/storefront/catalog-api/internal/i18n"
	"github.com/storefront/catalog-api/internal/services"
	"github.com/storefront/catalog-api/internal/utils"
)

const productResource = "product"

type ProductHandler struct {
	productService *services.ProductService
	catalog        config.CatalogConfig
}

func NewProductHandler(productService *services.ProductService, catalog config.CatalogConfig) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		catalog:        catalog,
	}
}

// GET /products
func (h *ProductHandler) GetProducts(c *gin.Context) {
	params := utils.GetPaginationParams(c, h.catalog.DefaultPageSize, h.catalog.MaxPageSize)

	result, err := h.productService.ListProducts(c.Request.Context(), params)
	if err != nil {
		respondError(c, err, productResource)
		return
	}

	utils.PaginatedResponse(c, *result)
}

// GET /products/trash
func (h *ProductHandler) GetTrash(c *gin.Context) {
	products, err := h.productService.ListTrashed(c.Request.Context())
	if err != nil {
		respondError(c, err, productResource)
		return
	}

	utils.SuccessResponse(c, products)
}

// POST /products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req services.CreateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.productService.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, productResource)
		return
	}

	entry(c).WithField("product_id", product.ID).Info("Product created")
	utils.CreatedResponse(c, product)
}

// GET /products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	product, err := h.productService.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, productResource)
		return
	}

	utils.SuccessResponse(c, product)
}

// PUT /products/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	var req services.UpdateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.productService.UpdateProduct(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, err, productResource)
		return
	}

	utils.SuccessResponse(c, product)
}

// DELETE /products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	if err := h.productService.SoftDelete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err, productResource)
		return
	}

	entry(c).WithField("product_id", c.Param("id")).Info("Product soft-deleted")
	utils.MessageOnlyResponse(c, i18n.KeyProductSoftDeleted)
}

// PATCH /products/:id/restore
func (h *ProductHandler) RestoreProduct(c *gin.Context) {
	product, err := h.productService.Restore(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, productResource)
		return
	}

	entry(c).WithField("product_id", product.ID).Info("Product restored")
	utils.SuccessResponse(c, utils.MessageResponse{
		Message: i18n.T(utils.GetLangFromContext(c), i18n.KeyProductRestored),
		Product: product,
	})
}
