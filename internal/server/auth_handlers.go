package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/auburnhacks/sponsor-portal/internal/auth"
	"github.com/auburnhacks/sponsor-portal/internal/models"
)

// AdminLoginRequest represents an admin login request
type AdminLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// SponsorLoginRequest represents a sponsor login request
type SponsorLoginRequest struct {
	Email             string `json:"email" binding:"required,email"`
	PasswordPlainText string `json:"password_plain_text" binding:"required"`
}

// AdminDetail represents admin information returned in responses
type AdminDetail struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	ACL   string `json:"ACL"`
}

// AdminLoginResponse represents an admin login response
type AdminLoginResponse struct {
	Token string       `json:"token"`
	Admin *AdminDetail `json:"admin"`
}

// UpdateProfileRequest changes the caller's own profile. Email addresses
// cannot be changed.
type UpdateProfileRequest struct {
	Name     string `json:"name" binding:"omitempty,min=1,max=120"`
	Password string `json:"password" binding:"omitempty,min=8"`
}

// CreateAdminRequest is sent by an admin to add another admin
type CreateAdminRequest struct {
	Admin struct {
		Name     string `json:"name" binding:"required,max=120"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
		ACL      string `json:"ACL"`
	} `json:"admin"`
}

func adminDetail(a *models.Admin) *AdminDetail {
	return &AdminDetail{
		ID:    a.ID,
		Name:  a.Name,
		Email: a.Email,
		ACL:   a.ACL,
	}
}

// @Router /admin/login [post]
func (s *Server) loginAdmin(c *gin.Context) {
	var req AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var admin models.Admin
	if err := s.db.Where("email = ?", req.Email).First(&admin).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find admin")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := auth.VerifyPassword(req.Password, admin.PasswordHash); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	token, err := auth.GenerateToken(admin.ID, auth.RoleAdmin, admin.ACL)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	s.logger.Info().Str("admin_id", admin.ID).Str("email", admin.Email).Msg("Admin logged in")

	c.JSON(http.StatusOK, AdminLoginResponse{
		Token: token,
		Admin: adminDetail(&admin),
	})
}

// @Router /admin/{id} [get]
func (s *Server) getAdmin(c *gin.Context) {
	var admin models.Admin
	if err := s.db.Where("id = ?", c.Param("id")).First(&admin).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Admin not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find admin")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"admin": adminDetail(&admin)})
}

// @Router /admin/{id} [put]
func (s *Server) updateAdmin(c *gin.Context) {
	sessionData, _ := GetSessionData(c)
	if !sessionData.IsAdmin() || sessionData.UserID != c.Param("id") {
		c.JSON(http.StatusForbidden, gin.H{"error": "Admins can only update their own profile"})
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var admin models.Admin
	if err := s.db.Where("id = ?", sessionData.UserID).First(&admin).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to find admin")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if req.Name != "" {
		admin.Name = req.Name
	}
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to hash password")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
			return
		}
		admin.PasswordHash = hash
	}

	if err := s.db.Save(&admin).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to save admin")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	s.logger.Info().Str("admin_id", admin.ID).Msg("Admin profile updated")
	c.JSON(http.StatusOK, gin.H{"admin": adminDetail(&admin)})
}

// @Router /admin [post]
func (s *Server) createAdmin(c *gin.Context) {
	var req CreateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var existing int64
	if err := s.db.Model(&models.Admin{}).Where("email = ?", req.Admin.Email).Count(&existing).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to check admin email")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if existing > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already exists"})
		return
	}

	hash, err := auth.HashPassword(req.Admin.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create admin"})
		return
	}

	acl := auth.JoinACL(auth.ParseACL(req.Admin.ACL))
	if acl == "" {
		acl = auth.DefaultAdminACL
	}

	admin := &models.Admin{
		Name:         req.Admin.Name,
		Email:        req.Admin.Email,
		PasswordHash: hash,
		ACL:          acl,
	}
	if err := s.db.Create(admin).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create admin")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create admin"})
		return
	}

	sessionData, _ := GetSessionData(c)
	s.logger.Info().
		Str("admin_id", admin.ID).
		Str("acl", acl).
		Str("created_by", sessionData.UserID).
		Msg("Admin created")

	c.JSON(http.StatusCreated, gin.H{"admin": adminDetail(admin)})
}

// @Router /admin/{id} [delete]
func (s *Server) deleteAdmin(c *gin.Context) {
	sessionData, _ := GetSessionData(c)
	id := c.Param("id")
	if sessionData.UserID == id {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Admins cannot delete themselves"})
		return
	}

	result := s.db.Where("id = ?", id).Delete(&models.Admin{})
	if result.Error != nil {
		s.logger.Error().Err(result.Error).Msg("Failed to delete admin")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete admin"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Admin not found"})
		return
	}

	s.logger.Info().Str("admin_id", id).Str("deleted_by", sessionData.UserID).Msg("Admin deleted")
	c.JSON(http.StatusOK, gin.H{"message": "Admin deleted"})
}
