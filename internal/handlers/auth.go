package handlers

import (
  "net/http"
  "github.com/gin-gonic/gin"
  "github.com/amplifylms/amplify-backend/internal/logger"
  "github.com/amplifylms/amplify-backend/internal/services"
)

type AuthHandler struct {
  log         *logger.Logger
  authService services.AuthService
}

func NewAuthHandler(log *logger.Logger, authService services.AuthService) *AuthHandler {
  return &AuthHandler{
    log:         log.With("handler", "AuthHandler"),
    authService: authService,
  }
}

func (ah *AuthHandler) Register(c *gin.Context) {
  var req struct {
    Email    string `json:"email"`
    Password string `json:"password"`
    Name     string `json:"name"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  user, err := ah.authService.Register(c.Request.Context(), req.Email, req.Password, req.Name)
  if err != nil {
    respondError(c, ah.log, err)
    return
  }
  c.JSON(http.StatusCreated, gin.H{"id": user.ID, "email": user.Email, "role": user.Role})
}

func (ah *AuthHandler) Login(c *gin.Context) {
  var req struct {
    Email    string `json:"email"`
    Password string `json:"password"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  accessToken, user, err := ah.authService.Login(c.Request.Context(), req.Email, req.Password)
  if err != nil {
    respondError(c, ah.log, err)
    return
  }
  expiresIn := int(ah.authService.GetAccessTTL().Seconds())
  c.JSON(http.StatusOK, gin.H{
    "access_token": accessToken,
    "expires_in":   expiresIn,
    "user":         gin.H{"id": user.ID, "email": user.Email, "role": user.Role},
  })
}
