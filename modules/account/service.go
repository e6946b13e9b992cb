package account

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/eatgreet/eatgreet/pkg/jwt"
)

// Claims is the token payload issued at login. RestaurantName lets the
// tenant layer resolve the partition without a database round trip.
type Claims struct {
	jwt.StandardClaims
	Role           Role   `json:"role"`
	RestaurantName string `json:"restaurantName"`
}

// Config holds account service settings.
type Config struct {
	JWTSigningKey string        `env:"JWT_SIGNING_KEY,required"`
	TokenTTL      time.Duration `env:"JWT_TOKEN_TTL" envDefault:"720h"`
}

// Service implements registration and login against the shared accounts
// collection.
type Service struct {
	store    Store
	jwt      *jwt.Service
	tokenTTL time.Duration
	log      *slog.Logger
}

// NewService wires the account service. The jwt service signs login tokens
// with HS256.
func NewService(cfg Config, store Store, log *slog.Logger) (*Service, error) {
	signer, err := jwt.New([]byte(cfg.JWTSigningKey))
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &Service{store: store, jwt: signer, tokenTTL: ttl, log: log}, nil
}

// RegisterInput carries a signup request.
type RegisterInput struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	RestaurantName string `json:"restaurantName"`
	Role           Role   `json:"role"`
}

func (in RegisterInput) validate() error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return errors.New("name is required")
	case strings.TrimSpace(in.Email) == "" || !strings.Contains(in.Email, "@"):
		return errors.New("a valid email is required")
	case len(in.Password) < 8:
		return errors.New("password must be at least 8 characters")
	case strings.TrimSpace(in.RestaurantName) == "":
		return errors.New("restaurant name is required")
	}
	return nil
}

// Register creates an account with a bcrypt password hash.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Account, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Join(ErrFailedToCreate, err)
	}

	role := in.Role
	if role == "" {
		role = RoleAdmin
	}

	acc := &Account{
		Name:           strings.TrimSpace(in.Name),
		Email:          strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash:   string(hash),
		Role:           role,
		RestaurantName: strings.TrimSpace(in.RestaurantName),
	}
	if err := s.store.Create(ctx, acc); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "account registered",
		slog.String("account_id", acc.ID.Hex()),
		slog.String("restaurant", acc.RestaurantName),
	)
	return acc, nil
}

// Login verifies credentials and issues a signed token carrying the
// account's role and restaurant name.
func (s *Service) Login(ctx context.Context, email, password string) (*Account, string, error) {
	acc, err := s.store.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	now := time.Now()
	token, err := s.jwt.Generate(Claims{
		StandardClaims: jwt.StandardClaims{
			Subject:   acc.ID.Hex(),
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.tokenTTL).Unix(),
		},
		Role:           acc.Role,
		RestaurantName: acc.RestaurantName,
	})
	if err != nil {
		return nil, "", err
	}
	return acc, token, nil
}

// ParseToken verifies a token and returns its claims.
func (s *Service) ParseToken(token string) (*Claims, error) {
	var claims Claims
	if err := s.jwt.Parse(token, &claims); err != nil {
		return nil, err
	}
	return &claims, nil
}
