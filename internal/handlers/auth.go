package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/VarunVijay1912/inventory-exchange-backend/internal/database"
	"github.com/VarunVijay1912/inventory-exchange-backend/internal/models"
	"github.com/VarunVijay1912/inventory-exchange-backend/pkg/logger"
	"github.com/VarunVijay1912/inventory-exchange-backend/pkg/utils"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// Register POST /auth/register
// Accounts start unverified; GST verification unlocks marketplace writes.
func Register(c *gin.Context) {
	var req struct {
		Email       string `json:"email" binding:"required,email"`
		Password    string `json:"password" binding:"required,min=8"`
		CompanyName string `json:"companyName" binding:"required"`
		Phone       string `json:"phone"`
		GSTNumber   string `json:"gstNumber"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid registration details"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var existing models.User
	if err := database.DB.Where("email = ?", email).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	user := models.User{
		ID:          utils.GenerateID(),
		Email:       email,
		CompanyName: req.CompanyName,
		Phone:       req.Phone,
		GSTNumber:   strings.ToUpper(strings.TrimSpace(req.GSTNumber)),
		Password:    string(hashed),
		CreatedAt:   time.Now(),
	}
	if err := database.DB.Create(&user).Error; err != nil {
		logger.Error().Err(err).Msg("Failed to create user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	token, err := utils.GenerateToken(user.ID, user.IsVerified)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"token": token, "user": user})
}

// Login POST /auth/login
func Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password required"})
		return
	}

	var user models.User
	if err := database.DB.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := utils.GenerateToken(user.ID, user.IsVerified)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

// Me GET /auth/me
func Me(c *gin.Context) {
	userID := c.MustGet("userId").(string)

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// VerifyGST POST /auth/verify-gst
// Checks the account's GSTIN and flips is_verified on success. The format
// check stands in for the GST registry API call; swap in the real endpoint
// in production.
func VerifyGST(c *gin.Context) {
	userID := c.MustGet("userId").(string)

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if user.IsVerified {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Already verified"})
		return
	}

	if !utils.IsValidGSTIN(user.GSTNumber) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"success": false, "message": "Invalid GST format"})
		return
	}

	if err := database.DB.Model(&user).UpdateColumn("is_verified", true).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Verification failed"})
		return
	}

	logger.Info().Str("user_id", user.ID).Msg("User GST verified")
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "GST verified successfully"})
}
