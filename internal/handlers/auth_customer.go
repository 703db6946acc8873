package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mukeshkumar44/e-commerce-backend/internal/service/auth"
)

type RegisterUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

func Register(accounts *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/auth/signup"
		defer handlePanic(c, route)

		var req RegisterUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		session, err := accounts.Register(c.Request.Context(), req.Name, req.Email, req.Password)
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		respondOK(c, http.StatusCreated, session)
	}
}

func Login(accounts *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/auth/login"
		defer handlePanic(c, route)

		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		session, err := accounts.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		respondOK(c, http.StatusOK, session)
	}
}

func Refresh(accounts *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/auth/refresh"
		defer handlePanic(c, route)

		var req RefreshRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		session, err := accounts.Refresh(c.Request.Context(), req.RefreshToken)
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		respondOK(c, http.StatusOK, session)
	}
}

func Logout(accounts *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/auth/logout"
		defer handlePanic(c, route)

		var req RefreshRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		if err := accounts.Logout(c.Request.Context(), req.RefreshToken); err != nil {
			respondWithError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "logged out"})
	}
}

func GetMe(accounts *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/auth/me"
		defer handlePanic(c, route)

		actor, err := currentActor(c)
		if err != nil {
			respondWithError(c, route, err)
			return
		}

		user, err := accounts.Me(c.Request.Context(), actor)
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		respondOK(c, http.StatusOK, user)
	}
}
