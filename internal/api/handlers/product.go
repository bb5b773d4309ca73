package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/foodnetwork-backend/internal/services"
	"github.com/princeprakhar/foodnetwork-backend/internal/utils"
)

type ProductHandler struct {
	productService *services.ProductService
	reviewService  *services.ReviewService
}

func NewProductHandler(productService *services.ProductService, reviewService *services.ReviewService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		reviewService:  reviewService,
	}
}

func (h *ProductHandler) ListProducts(c *gin.Context) {
	var filter services.ProductFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		utils.SendValidationError(c, "Invalid query parameters")
		return
	}

	products, err := h.productService.ListProducts(c.Request.Context(), filter)
	if err != nil {
		respondError(c, "Failed to retrieve products", err)
		return
	}

	utils.SendSuccess(c, "Products retrieved successfully", products)
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	productID, ok := paramID(c, "id")
	if !ok {
		return
	}

	product, err := h.productService.GetProduct(c.Request.Context(), productID, visibilityFor(c))
	if err != nil {
		respondError(c, "Failed to retrieve product", err)
		return
	}

	utils.SendSuccess(c, "Product retrieved successfully", product)
}

func (h *ProductHandler) GetProductReviews(c *gin.Context) {
	productID, ok := paramID(c, "id")
	if !ok {
		return
	}

	reviews, err := h.reviewService.ListProductReviews(c.Request.Context(), productID, bindPage(c), visibilityFor(c))
	if err != nil {
		respondError(c, "Failed to fetch reviews", err)
		return
	}

	utils.SendSuccess(c, "Reviews retrieved successfully", reviews)
}

func (h *ProductHandler) GetFilterOptions(c *gin.Context) {
	options, err := h.productService.FilterOptions(c.Request.Context())
	if err != nil {
		respondError(c, "Failed to retrieve filter options", err)
		return
	}

	utils.SendSuccess(c, "Filter options retrieved successfully", options)
}
