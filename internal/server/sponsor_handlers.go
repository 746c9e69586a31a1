package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/auburnhacks/sponsor-portal/internal/auth"
	"github.com/auburnhacks/sponsor-portal/internal/models"
)

// CompanyDetail represents a company in responses
type CompanyDetail struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Logo string `json:"logo"`
}

// SponsorDetail represents sponsor information returned in responses
type SponsorDetail struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Email   string         `json:"email"`
	ACL     string         `json:"ACL"`
	Company *CompanyDetail `json:"company"`
}

// SponsorLoginResponse represents a sponsor login response
type SponsorLoginResponse struct {
	Token   string         `json:"token"`
	Sponsor *SponsorDetail `json:"sponsor"`
}

// CreateSponsorRequest is sent by an admin to create a sponsor account
type CreateSponsorRequest struct {
	Sponsor struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
		ACL      string `json:"ACL"`
		Company  struct {
			ID string `json:"id" binding:"required"`
		} `json:"company"`
	} `json:"sponsor"`
}

// CreateCompanyRequest creates a company sponsors can be attached to
type CreateCompanyRequest struct {
	Name string `json:"name" binding:"required"`
	Logo string `json:"logo" binding:"omitempty,url"`
}

func companyDetail(c *models.Company) *CompanyDetail {
	return &CompanyDetail{
		ID:   c.ID,
		Name: c.Name,
		Logo: c.Logo,
	}
}

func sponsorDetail(sp *models.Sponsor) *SponsorDetail {
	return &SponsorDetail{
		ID:      sp.ID,
		Name:    sp.Name,
		Email:   sp.Email,
		ACL:     sp.ACL,
		Company: companyDetail(&sp.Company),
	}
}

// @Router /sponsor/login [post]
func (s *Server) loginSponsor(c *gin.Context) {
	var req SponsorLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var sponsor models.Sponsor
	if err := s.db.Preload("Company").Where("email = ?", req.Email).First(&sponsor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find sponsor")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := auth.VerifyPassword(req.PasswordPlainText, sponsor.PasswordHash); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	token, err := auth.GenerateToken(sponsor.ID, auth.RoleSponsor, sponsor.ACL)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	s.logger.Info().Str("sponsor_id", sponsor.ID).Str("company_id", sponsor.CompanyID).Msg("Sponsor logged in")

	c.JSON(http.StatusOK, SponsorLoginResponse{
		Token:   token,
		Sponsor: sponsorDetail(&sponsor),
	})
}

// @Router /sponsor/{id}/info [get]
func (s *Server) getSponsorInfo(c *gin.Context) {
	sessionData, _ := GetSessionData(c)
	id := c.Param("id")
	if !sessionData.IsAdmin() && sessionData.UserID != id {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not allowed to view this sponsor"})
		return
	}

	var sponsor models.Sponsor
	if err := s.db.Preload("Company").Where("id = ?", id).First(&sponsor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Sponsor not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find sponsor")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sponsor": sponsorDetail(&sponsor)})
}

// @Router /sponsor [post]
func (s *Server) createSponsor(c *gin.Context) {
	var req CreateSponsorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var company models.Company
	if err := s.db.Where("id = ?", req.Sponsor.Company.ID).First(&company).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Company not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find company")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var existing int64
	if err := s.db.Model(&models.Sponsor{}).Where("email = ?", req.Sponsor.Email).Count(&existing).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to check sponsor email")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if existing > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already exists"})
		return
	}

	hash, err := auth.HashPassword(req.Sponsor.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create sponsor"})
		return
	}

	acl := auth.JoinACL(auth.ParseACL(req.Sponsor.ACL))
	if acl == "" {
		acl = auth.DefaultSponsorACL
	}

	sponsor := &models.Sponsor{
		Name:         req.Sponsor.Name,
		Email:        req.Sponsor.Email,
		PasswordHash: hash,
		ACL:          acl,
		CompanyID:    company.ID,
		Company:      company,
	}
	if err := s.db.Omit("Company").Create(sponsor).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create sponsor")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create sponsor"})
		return
	}

	sessionData, _ := GetSessionData(c)
	s.logger.Info().
		Str("sponsor_id", sponsor.ID).
		Str("company_id", company.ID).
		Str("acl", acl).
		Str("created_by", sessionData.UserID).
		Msg("Sponsor created")

	c.JSON(http.StatusCreated, gin.H{"sponsor": sponsorDetail(sponsor)})
}

// @Router /sponsor/{id} [put]
func (s *Server) updateSponsor(c *gin.Context) {
	sessionData, _ := GetSessionData(c)
	id := c.Param("id")
	if sessionData.Role != auth.RoleSponsor || sessionData.UserID != id {
		c.JSON(http.StatusForbidden, gin.H{"error": "Sponsors can only update their own profile"})
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var sponsor models.Sponsor
	if err := s.db.Preload("Company").Where("id = ?", id).First(&sponsor).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to find sponsor")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if req.Name != "" {
		sponsor.Name = req.Name
	}
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to hash password")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
			return
		}
		sponsor.PasswordHash = hash
	}

	if err := s.db.Omit("Company").Save(&sponsor).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to save sponsor")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	s.logger.Info().Str("sponsor_id", sponsor.ID).Msg("Sponsor profile updated")
	c.JSON(http.StatusOK, gin.H{"sponsor": sponsorDetail(&sponsor)})
}

// @Router /companies [get]
func (s *Server) listCompanies(c *gin.Context) {
	var companies []models.Company
	if err := s.db.Order("name ASC").Find(&companies).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list companies")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	details := make([]*CompanyDetail, len(companies))
	for i := range companies {
		details[i] = companyDetail(&companies[i])
	}

	c.JSON(http.StatusOK, gin.H{"companies": details})
}

// @Router /company [post]
func (s *Server) createCompany(c *gin.Context) {
	var req CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	company := &models.Company{Name: req.Name, Logo: req.Logo}
	if err := s.db.Create(company).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create company")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create company"})
		return
	}

	s.logger.Info().Str("company_id", company.ID).Str("name", company.Name).Msg("Company created")
	c.JSON(http.StatusCreated, gin.H{"company": companyDetail(company)})
}
