package services

import (
  "bytes"
  "context"
  "encoding/json"
  "fmt"
  "io"
  "net/http"
  "strings"
  "time"
  "github.com/golang-jwt/jwt/v5"
  "github.com/amplifylms/amplify-backend/internal/apierr"
  "github.com/amplifylms/amplify-backend/internal/logger"
)

// Credentials is a pure snapshot of the auth-relevant parts of a request.
// Resolvers read it and never touch the request itself.
type Credentials struct {
  Authorization  string
  IdentityHeader string
  OwnerIDParam   string
}

func (c Credentials) bearerToken() string {
  header := strings.TrimSpace(c.Authorization)
  if header == "" {
    return ""
  }
  parts := strings.SplitN(header, " ", 2)
  if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
    return ""
  }
  return strings.TrimSpace(parts[1])
}

func (c Credentials) empty() bool {
  return c.bearerToken() == "" && c.IdentityHeader == "" && c.OwnerIDParam == ""
}

// IdentityResolver maps request credentials to a caller identity string.
// Resolve fails with unauthorized when no identity can be determined;
// ResolveOptional returns "" instead, for endpoints that behave differently
// for anonymous callers.
type IdentityResolver interface {
  Resolve(ctx context.Context, creds Credentials) (string, error)
  ResolveOptional(ctx context.Context, creds Credentials) (string, error)
}

func errUnauthorized(msg string) *apierr.Error {
  return apierr.New(http.StatusUnauthorized, "unauthorized", fmt.Errorf("%s", msg))
}

// ---------------------------------------------------------------------------
// Shared-secret JWT strategy (HS256, Supabase-style)
// ---------------------------------------------------------------------------

type jwtIdentityResolver struct {
  log    *logger.Logger
  secret []byte
}

func NewJWTIdentityResolver(log *logger.Logger, secret string) (IdentityResolver, error) {
  if secret == "" {
    return nil, fmt.Errorf("jwt identity resolver requires a signing secret")
  }
  return &jwtIdentityResolver{
    log:    log.With("service", "JWTIdentityResolver"),
    secret: []byte(secret),
  }, nil
}

func (r *jwtIdentityResolver) Resolve(ctx context.Context, creds Credentials) (string, error) {
  tokenString := creds.bearerToken()
  if tokenString == "" {
    return "", errUnauthorized("Missing Authorization Bearer token")
  }

  token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
    if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
      return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
    }
    return r.secret, nil
  })
  if err != nil || !token.Valid {
    r.log.Debug("Token verification failed", "error", err)
    return "", errUnauthorized("Invalid or expired token")
  }

  claims, ok := token.Claims.(jwt.MapClaims)
  if !ok {
    return "", errUnauthorized("Invalid token claims")
  }
  sub, _ := claims["sub"].(string)
  if sub == "" {
    return "", errUnauthorized("Token missing sub")
  }
  return sub, nil
}

func (r *jwtIdentityResolver) ResolveOptional(ctx context.Context, creds Credentials) (string, error) {
  if creds.bearerToken() == "" {
    return "", nil
  }
  return r.Resolve(ctx, creds)
}

// ---------------------------------------------------------------------------
// Remote-verification strategy (Clerk)
// ---------------------------------------------------------------------------

type clerkIdentityResolver struct {
  log        *logger.Logger
  httpClient *http.Client
  baseURL    string
  secretKey  string
}

func NewClerkIdentityResolver(log *logger.Logger, httpClient *http.Client, baseURL, secretKey string) (IdentityResolver, error) {
  if secretKey == "" {
    return nil, fmt.Errorf("clerk identity resolver requires CLERK_SECRET_KEY")
  }
  if httpClient == nil {
    httpClient = &http.Client{Timeout: 5 * time.Second}
  }
  return &clerkIdentityResolver{
    log:        log.With("service", "ClerkIdentityResolver"),
    httpClient: httpClient,
    baseURL:    strings.TrimRight(baseURL, "/"),
    secretKey:  secretKey,
  }, nil
}

func (r *clerkIdentityResolver) Resolve(ctx context.Context, creds Credentials) (string, error) {
  token := creds.bearerToken()
  if token == "" {
    return "", errUnauthorized("Missing Authorization Bearer token")
  }

  body, err := json.Marshal(map[string]string{"token": token})
  if err != nil {
    return "", err
  }
  req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/v1/tokens/verify", bytes.NewReader(body))
  if err != nil {
    return "", err
  }
  req.Header.Set("Authorization", "Bearer "+r.secretKey)
  req.Header.Set("Content-Type", "application/json")

  resp, err := r.httpClient.Do(req)
  if err != nil {
    r.log.Warn("Identity provider unreachable", "error", err)
    return "", apierr.New(http.StatusServiceUnavailable, "identity_provider_unavailable",
      fmt.Errorf("Unable to verify authentication token right now"))
  }
  defer resp.Body.Close()

  if resp.StatusCode != http.StatusOK {
    r.log.Debug("Token verification rejected", "status", resp.StatusCode)
    return "", errUnauthorized("Invalid authentication token")
  }

  raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
  if err != nil {
    return "", apierr.New(http.StatusBadGateway, "identity_provider_bad_response",
      fmt.Errorf("Authentication service returned invalid response"))
  }
  var payload struct {
    Sub    string `json:"sub"`
    UserID string `json:"user_id"`
    Data   struct {
      Claims struct {
        Sub string `json:"sub"`
      } `json:"claims"`
    } `json:"data"`
  }
  if err := json.Unmarshal(raw, &payload); err != nil {
    return "", apierr.New(http.StatusBadGateway, "identity_provider_bad_response",
      fmt.Errorf("Authentication service returned invalid response"))
  }
  userID := payload.Sub
  if userID == "" {
    userID = payload.UserID
  }
  if userID == "" {
    userID = payload.Data.Claims.Sub
  }
  if userID == "" {
    return "", errUnauthorized("Authentication token missing user context")
  }
  return userID, nil
}

func (r *clerkIdentityResolver) ResolveOptional(ctx context.Context, creds Credentials) (string, error) {
  if creds.bearerToken() == "" {
    return "", nil
  }
  return r.Resolve(ctx, creds)
}

// ---------------------------------------------------------------------------
// Trusted-header strategy (demo deployments only)
// ---------------------------------------------------------------------------

type headerIdentityResolver struct {
  log *logger.Logger
}

// NewHeaderIdentityResolver trusts identity headers with no verification.
// Constructing it requires the demo flag so a production config cannot pick
// it up by accident.
func NewHeaderIdentityResolver(log *logger.Logger, demoMode bool) (IdentityResolver, error) {
  if !demoMode {
    return nil, fmt.Errorf("header identity resolution is only available when DEMO_MODE is enabled")
  }
  return &headerIdentityResolver{log: log.With("service", "HeaderIdentityResolver")}, nil
}

func (r *headerIdentityResolver) Resolve(ctx context.Context, creds Credentials) (string, error) {
  if creds.IdentityHeader != "" {
    return creds.IdentityHeader, nil
  }
  if creds.OwnerIDParam != "" {
    return creds.OwnerIDParam, nil
  }
  return "", errUnauthorized("Authentication required. Provide an X-User-Id header")
}

func (r *headerIdentityResolver) ResolveOptional(ctx context.Context, creds Credentials) (string, error) {
  if creds.empty() {
    return "", nil
  }
  return r.Resolve(ctx, creds)
}
