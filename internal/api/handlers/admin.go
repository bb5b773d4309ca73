package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/foodnetwork-backend/internal/models"
	"github.com/princeprakhar/foodnetwork-backend/internal/services"
	"github.com/princeprakhar/foodnetwork-backend/internal/utils"
	"github.com/princeprakhar/foodnetwork-backend/pkg/logger"
	"github.com/sirupsen/logrus"
)

type AdminHandler struct {
	adminService *services.AdminService
	ratings      *services.RatingAggregator
}

func NewAdminHandler(adminService *services.AdminService, ratings *services.RatingAggregator) *AdminHandler {
	return &AdminHandler{adminService: adminService, ratings: ratings}
}

func (h *AdminHandler) ListCompanies(c *gin.Context) {
	companies, err := h.adminService.ListCompanies(c.Request.Context())
	if err != nil {
		respondError(c, "Failed to fetch companies", err)
		return
	}

	utils.SendSuccess(c, "Companies retrieved successfully", companies)
}

func (h *AdminHandler) CreateCompany(c *gin.Context) {
	var req models.CompanyRequest
	if !bindJSON(c, &req) {
		return
	}

	company, err := h.adminService.CreateCompany(c.Request.Context(), req)
	if err != nil {
		respondError(c, "Failed to create company", err)
		return
	}

	utils.SendCreated(c, "Company created successfully", company)
}

func (h *AdminHandler) UpdateCompany(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req models.CompanyRequest
	if !bindJSON(c, &req) {
		return
	}

	company, err := h.adminService.UpdateCompany(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, "Failed to update company", err)
		return
	}

	utils.SendSuccess(c, "Company updated successfully", company)
}

func (h *AdminHandler) DeleteCompany(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.adminService.DeleteCompany(c.Request.Context(), id); err != nil {
		respondError(c, "Failed to delete company", err)
		return
	}

	utils.SendSuccess(c, "Company deleted successfully", nil)
}

func (h *AdminHandler) CreateBrand(c *gin.Context) {
	var req models.BrandRequest
	if !bindJSON(c, &req) {
		return
	}

	brand, err := h.adminService.CreateBrand(c.Request.Context(), req)
	if err != nil {
		respondError(c, "Failed to create brand", err)
		return
	}

	utils.SendCreated(c, "Brand created successfully", brand)
}

func (h *AdminHandler) UpdateBrand(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req models.BrandRequest
	if !bindJSON(c, &req) {
		return
	}

	brand, err := h.adminService.UpdateBrand(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, "Failed to update brand", err)
		return
	}

	utils.SendSuccess(c, "Brand updated successfully", brand)
}

func (h *AdminHandler) DeleteBrand(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.adminService.DeleteBrand(c.Request.Context(), id); err != nil {
		respondError(c, "Failed to delete brand", err)
		return
	}

	utils.SendSuccess(c, "Brand deleted successfully", nil)
}

func (h *AdminHandler) CreateProduct(c *gin.Context) {
	var req models.FoodProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.adminService.CreateProduct(c.Request.Context(), req)
	if err != nil {
		respondError(c, "Failed to create product", err)
		return
	}

	utils.SendCreated(c, "Product created successfully", product)
}

func (h *AdminHandler) UpdateProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req models.FoodProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.adminService.UpdateProduct(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, "Failed to update product", err)
		return
	}

	utils.SendSuccess(c, "Product updated successfully", product)
}

func (h *AdminHandler) DeleteProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.adminService.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, "Failed to delete product", err)
		return
	}

	utils.SendSuccess(c, "Product deleted successfully", nil)
}

func (h *AdminHandler) UploadProductImage(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	file, err := c.FormFile("image")
	if err != nil {
		utils.SendValidationError(c, "No image file provided")
		return
	}

	product, err := h.adminService.UploadProductImage(c.Request.Context(), id, file)
	if err != nil {
		respondError(c, "Failed to upload image", err)
		return
	}

	utils.SendSuccess(c, "Image uploaded successfully", product)
}

func (h *AdminHandler) CreateSource(c *gin.Context) {
	var req models.SourceRequest
	if !bindJSON(c, &req) {
		return
	}

	source, err := h.adminService.CreateSource(c.Request.Context(), req)
	if err != nil {
		respondError(c, "Failed to create source", err)
		return
	}

	utils.SendCreated(c, "Source created successfully", source)
}

func (h *AdminHandler) AttachSource(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req models.AttachSourceRequest
	if !bindJSON(c, &req) {
		return
	}

	link, err := h.adminService.AttachSource(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, "Failed to attach source", err)
		return
	}

	utils.SendCreated(c, "Source attached successfully", link)
}

func (h *AdminHandler) DetachSource(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	sourceID, ok := paramID(c, "source_id")
	if !ok {
		return
	}

	if err := h.adminService.DetachSource(c.Request.Context(), id, sourceID, c.Query("field_type")); err != nil {
		respondError(c, "Failed to detach source", err)
		return
	}

	utils.SendSuccess(c, "Source detached successfully", nil)
}

// UploadCSV imports products from a multipart "csv" file.
func (h *AdminHandler) UploadCSV(c *gin.Context) {
	header, err := c.FormFile("csv")
	if err != nil {
		utils.SendValidationError(c, "No CSV file provided")
		return
	}
	file, err := header.Open()
	if err != nil {
		utils.SendValidationError(c, "Failed to read CSV file")
		return
	}
	defer file.Close()

	summary, err := h.adminService.ImportProducts(c.Request.Context(), file)
	if err != nil {
		respondError(c, "Failed to process CSV", err)
		return
	}

	logger.WithFields(logrus.Fields{
		"user_id":  c.GetUint("user_id"),
		"filename": header.Filename,
	}).Info("csv uploaded")
	utils.SendSuccess(c, "CSV processed successfully", summary)
}

func (h *AdminHandler) GetDashboard(c *gin.Context) {
	stats, err := h.adminService.GetDashboardStats(c.Request.Context())
	if err != nil {
		respondError(c, "Failed to fetch dashboard stats", err)
		return
	}

	utils.SendSuccess(c, "Dashboard stats retrieved successfully", stats)
}

// RecomputeRating rebuilds a product's cached rating from its visible reviews.
func (h *AdminHandler) RecomputeRating(c *gin.Context) {
	productID, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.ratings.RecomputeRating(c.Request.Context(), productID); err != nil {
		respondError(c, "Failed to recompute rating", err)
		return
	}

	utils.SendSuccess(c, "Rating recomputed successfully", nil)
}
