package services

import (
  "context"
  "fmt"
  "net/http"
  "strings"
  "time"
  "golang.org/x/crypto/bcrypt"
  "github.com/golang-jwt/jwt/v5"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/amplifylms/amplify-backend/internal/apierr"
  "github.com/amplifylms/amplify-backend/internal/logger"
  "github.com/amplifylms/amplify-backend/internal/repos"
  "github.com/amplifylms/amplify-backend/internal/types"
)

type AuthService interface {
  Register(ctx context.Context, email, password, name string) (*types.User, error)
  Login(ctx context.Context, email, password string) (string, *types.User, error)
  GetAccessTTL() time.Duration
}

type authService struct {
  db           *gorm.DB
  log          *logger.Logger
  userRepo     repos.UserRepo
  jwtSecretKey string
  accessTTL    time.Duration
}

func NewAuthService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, jwtSecretKey string, accessTTL time.Duration) AuthService {
  serviceLog := log.With("service", "AuthService")
  return &authService{
    db:           db,
    log:          serviceLog,
    userRepo:     userRepo,
    jwtSecretKey: jwtSecretKey,
    accessTTL:    accessTTL,
  }
}

func (as *authService) Register(ctx context.Context, email, password, name string) (*types.User, error) {
  email = strings.ToLower(strings.TrimSpace(email))
  if email == "" {
    return nil, apierr.New(http.StatusBadRequest, "email_required", fmt.Errorf("An email is required to register"))
  }
  if password == "" {
    return nil, apierr.New(http.StatusBadRequest, "password_required", fmt.Errorf("A password is required to register"))
  }

  exists, err := as.userRepo.EmailExists(ctx, nil, email)
  if err != nil {
    return nil, fmt.Errorf("Failed to check user email: %w", err)
  }
  if exists {
    return nil, apierr.New(http.StatusConflict, "email_in_use", fmt.Errorf("Email is already in use"))
  }

  hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
  if err != nil {
    return nil, fmt.Errorf("Failed to hash password: %w", err)
  }

  user := &types.User{
    ID:           uuid.NewString(),
    Email:        email,
    PasswordHash: string(hashed),
    Role:         "instructor",
  }
  if trimmed := strings.TrimSpace(name); trimmed != "" {
    user.Name = &trimmed
  }

  if _, err := as.userRepo.Create(ctx, nil, user); err != nil {
    return nil, fmt.Errorf("Failed to create user: %w", err)
  }
  return user, nil
}

func (as *authService) Login(ctx context.Context, email, password string) (string, *types.User, error) {
  email = strings.ToLower(strings.TrimSpace(email))

  user, err := as.userRepo.GetByEmail(ctx, nil, email)
  if err != nil {
    return "", nil, fmt.Errorf("Failed to load user by email: %w", err)
  }
  if user == nil {
    return "", nil, apierr.New(http.StatusUnauthorized, "invalid_credentials", fmt.Errorf("Invalid credentials"))
  }
  if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
    return "", nil, apierr.New(http.StatusUnauthorized, "invalid_credentials", fmt.Errorf("Invalid credentials"))
  }

  now := time.Now()
  claims := jwt.MapClaims{
    "sub": user.ID,
    "iat": now.Unix(),
    "exp": now.Add(as.accessTTL).Unix(),
  }
  token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
  signed, err := token.SignedString([]byte(as.jwtSecretKey))
  if err != nil {
    return "", nil, fmt.Errorf("Failed to sign access token: %w", err)
  }
  return signed, user, nil
}

func (as *authService) GetAccessTTL() time.Duration {
  return as.accessTTL
}
