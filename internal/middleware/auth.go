package middleware

import (
  "errors"
  "net/http"
  "github.com/gin-gonic/gin"
  "github.com/amplifylms/amplify-backend/internal/apierr"
  "github.com/amplifylms/amplify-backend/internal/logger"
  "github.com/amplifylms/amplify-backend/internal/requestdata"
  "github.com/amplifylms/amplify-backend/internal/services"
)

type AuthMiddleware struct {
  log      *logger.Logger
  resolver services.IdentityResolver
}

func NewAuthMiddleware(log *logger.Logger, resolver services.IdentityResolver) *AuthMiddleware {
  middlewareLogger := log.With("Middleware", "AuthMiddleware")
  return &AuthMiddleware{log: middlewareLogger, resolver: resolver}
}

func credentialsFromRequest(c *gin.Context) services.Credentials {
  identityHeader := c.GetHeader("X-User-Id")
  if identityHeader == "" {
    identityHeader = c.GetHeader("X-Demo-User-Id")
  }
  ownerParam := c.Query("owner_id")
  if ownerParam == "" {
    ownerParam = c.Query("ownerId")
  }
  return services.Credentials{
    Authorization:  c.GetHeader("Authorization"),
    IdentityHeader: identityHeader,
    OwnerIDParam:   ownerParam,
  }
}

// RequireOwner rejects requests whose credentials cannot be resolved to a
// caller identity. The resolved owner id lands in the request context.
func (am *AuthMiddleware) RequireOwner() gin.HandlerFunc {
  return func(c *gin.Context) {
    callerID, err := am.resolver.Resolve(c.Request.Context(), credentialsFromRequest(c))
    if err != nil {
      var apiErr *apierr.Error
      if errors.As(err, &apiErr) {
        c.AbortWithStatusJSON(apiErr.Status, gin.H{"error": apiErr.Err.Error()})
        return
      }
      c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid credentials"})
      return
    }
    ctx := requestdata.WithRequestData(c.Request.Context(), &requestdata.RequestData{UserID: callerID})
    c.Request = c.Request.WithContext(ctx)
    c.Next()
  }
}

// OptionalOwner resolves an identity when one is presented but lets
// anonymous requests through. Handlers decide what anonymity means.
func (am *AuthMiddleware) OptionalOwner() gin.HandlerFunc {
  return func(c *gin.Context) {
    callerID, err := am.resolver.ResolveOptional(c.Request.Context(), credentialsFromRequest(c))
    if err != nil {
      var apiErr *apierr.Error
      if errors.As(err, &apiErr) {
        c.AbortWithStatusJSON(apiErr.Status, gin.H{"error": apiErr.Err.Error()})
        return
      }
      c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
      return
    }
    if callerID != "" {
      ctx := requestdata.WithRequestData(c.Request.Context(), &requestdata.RequestData{UserID: callerID})
      c.Request = c.Request.WithContext(ctx)
    }
    c.Next()
  }
}
