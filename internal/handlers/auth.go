package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/readshelf/backend/internal/middleware"
	"github.com/emilythestrangee/readshelf/backend/internal/service"
)

type AuthHandler struct {
	auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Signup creates an account and returns it with a bearer token
func (h *AuthHandler) Signup(c *gin.Context) {
	var input service.SignupInput
	if err := bindJSON(c, &input); err != nil {
		fail(c, err)
		return
	}

	session, err := h.auth.Signup(c.Request.Context(), input)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

// Login exchanges credentials for a bearer token
func (h *AuthHandler) Login(c *gin.Context) {
	var input service.LoginInput
	if err := bindJSON(c, &input); err != nil {
		fail(c, err)
		return
	}

	session, err := h.auth.Login(c.Request.Context(), input)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// Logout revokes the token the request was made with (PROTECTED)
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context(), middleware.CurrentToken(c)); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// ForgotPassword sends a reset link when the email belongs to an account
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var input service.ForgotPasswordInput
	if err := bindJSON(c, &input); err != nil {
		fail(c, err)
		return
	}

	if err := h.auth.ForgotPassword(c.Request.Context(), input); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "If the email exists, a reset link will be sent"})
}

// ResetPassword sets a new password using a reset token
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var input service.ResetPasswordInput
	if err := bindJSON(c, &input); err != nil {
		fail(c, err)
		return
	}

	if err := h.auth.ResetPassword(c.Request.Context(), input); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password reset successfully"})
}
