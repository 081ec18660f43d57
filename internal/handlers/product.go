package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/VarunVijay1912/inventory-exchange-backend/internal/database"
	"github.com/VarunVijay1912/inventory-exchange-backend/internal/models"
	"github.com/VarunVijay1912/inventory-exchange-backend/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
)

// CreateProduct POST /products (verified sellers only)
func CreateProduct(c *gin.Context) {
	sellerID := c.MustGet("userId").(string)

	var req struct {
		Title       string   `json:"title" binding:"required"`
		Description string   `json:"description"`
		Category    string   `json:"category"`
		Price       float64  `json:"price" binding:"required,gt=0"`
		Quantity    int      `json:"quantity" binding:"required,gt=0"`
		Unit        string   `json:"unit"`
		Images      []string `json:"images"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product details"})
		return
	}

	product := models.Product{
		ID:          utils.GenerateID(),
		SellerID:    sellerID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		Quantity:    req.Quantity,
		Unit:        req.Unit,
		Images:      pq.StringArray(req.Images),
		Status:      models.ProductAvailable,
		CreatedAt:   time.Now(),
	}
	if err := database.DB.Create(&product).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"product": product})
}

// ListProducts GET /products?category=&minPrice=&maxPrice=&q=&page=&pageSize=
func ListProducts(c *gin.Context) {
	q := database.DB.Model(&models.Product{}).Where("status = ?", models.ProductAvailable)

	if category := c.Query("category"); category != "" {
		q = q.Where("category = ?", category)
	}
	if minPrice, err := strconv.ParseFloat(c.Query("minPrice"), 64); err == nil {
		q = q.Where("price >= ?", minPrice)
	}
	if maxPrice, err := strconv.ParseFloat(c.Query("maxPrice"), 64); err == nil {
		q = q.Where("price <= ?", maxPrice)
	}
	if search := c.Query("q"); search != "" {
		like := "%" + search + "%"
		q = q.Where("title ILIKE ? OR description ILIKE ?", like, like)
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	var total int64
	q.Count(&total)

	var products []models.Product
	if err := q.Order("created_at desc").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&products).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
	})
}

// GetProduct GET /products/:id
func GetProduct(c *gin.Context) {
	id := c.Param("id")
	if !utils.IsUUID(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	var product models.Product
	if err := database.DB.Preload("Seller").First(&product, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": product})
}

// UpdateProduct PUT /products/:id (owner only)
// The seller of record cannot be reassigned; existing conversations keep the
// seller they were created with either way.
func UpdateProduct(c *gin.Context) {
	userID := c.MustGet("userId").(string)

	var product models.Product
	if err := database.DB.First(&product, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	if product.SellerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not your listing"})
		return
	}

	var req struct {
		Title       *string   `json:"title"`
		Description *string   `json:"description"`
		Category    *string   `json:"category"`
		Price       *float64  `json:"price"`
		Quantity    *int      `json:"quantity"`
		Unit        *string   `json:"unit"`
		Images      *[]string `json:"images"`
		Status      *string   `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.Price != nil && *req.Price > 0 {
		updates["price"] = *req.Price
	}
	if req.Quantity != nil && *req.Quantity >= 0 {
		updates["quantity"] = *req.Quantity
	}
	if req.Unit != nil {
		updates["unit"] = *req.Unit
	}
	if req.Images != nil {
		updates["images"] = pq.StringArray(*req.Images)
	}
	if req.Status != nil {
		switch models.ProductStatus(*req.Status) {
		case models.ProductAvailable, models.ProductSold:
			updates["status"] = *req.Status
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
			return
		}
	}

	if len(updates) > 0 {
		if err := database.DB.Model(&product).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"product": product})
}

// DeleteProduct DELETE /products/:id (owner only, soft)
// Conversations referencing the product are kept for audit.
func DeleteProduct(c *gin.Context) {
	userID := c.MustGet("userId").(string)

	var product models.Product
	if err := database.DB.First(&product, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	if product.SellerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not your listing"})
		return
	}

	if err := database.DB.Model(&product).UpdateColumn("status", models.ProductRemoved).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove product"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": true})
}
