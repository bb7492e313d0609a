package fixtureapp

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/medara-io/medara-e2e/internal/models"
)

type registerRequest struct {
	AccountType models.AccountType `json:"account_type" binding:"required,oneof=employer freelancer"`
	PrimaryRole string             `json:"primary_role"`
	Industries  []string           `json:"industries"`
	FirstName   string             `json:"first_name" binding:"required"`
	LastName    string             `json:"last_name" binding:"required"`
	Email       string             `json:"email" binding:"required,email"`
	Password    string             `json:"password"`
}

func (a *App) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleRegister creates a pre-verified account for fixture setup.
func (a *App) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid registration", "message": err.Error()})
		return
	}
	if req.Password != "" && len(req.Password) < minPasswordLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid registration", "message": "password too short"})
		return
	}

	profile := models.AccountProfile{
		AccountType:     req.AccountType,
		PrimaryRole:     req.PrimaryRole,
		Industries:      req.Industries,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.Password,
	}
	acct, ok := a.store.createAccount(profile, true, req.Password == "")
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered", "message": req.Email})
		return
	}
	a.metrics.Registrations.Inc()
	a.logger.Info("account registered through API", zap.String("email", acct.Profile.Email))

	c.JSON(http.StatusCreated, gin.H{
		"id":           acct.ID,
		"email":        acct.Profile.Email,
		"account_type": acct.Profile.AccountType,
		"first_name":   acct.Profile.FirstName,
		"last_name":    acct.Profile.LastName,
	})
}

// handleCleanupUser deletes a test account.
func (a *App) handleCleanupUser(c *gin.Context) {
	email := c.Param("email")
	if !a.store.deleteAccount(email) {
		a.metrics.Cleanups.WithLabelValues("missing").Inc()
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found", "message": email})
		return
	}
	a.metrics.Cleanups.WithLabelValues("deleted").Inc()
	a.logger.Debug("test user deleted", zap.String("email", email))
	c.Status(http.StatusNoContent)
}
