package jwt

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// JWT header constants required by RFC 7519.
const (
	HeaderType      = "JWT"
	HeaderAlgorithm = "HS256"
)

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token has expired")
	ErrInvalidSigningKey  = errors.New("invalid signing key")
	ErrSignatureMismatch  = errors.New("token signature mismatch")
	ErrUnsupportedAlgo    = errors.New("unsupported signing algorithm")
	ErrFailedToSignToken  = errors.New("failed to sign token")
	ErrFailedToParseToken = errors.New("failed to parse token")
)

type header struct {
	Type      string `json:"typ"`
	Algorithm string `json:"alg"`
}

// StandardClaims represents the registered JWT claims defined in RFC 7519.
// Temporal claims use Unix timestamps; zero values are treated as unset.
type StandardClaims struct {
	ID        string `json:"jti,omitempty"`
	Subject   string `json:"sub,omitempty"`
	Issuer    string `json:"iss,omitempty"`
	Audience  string `json:"aud,omitempty"`
	ExpiresAt int64  `json:"exp,omitempty"`
	NotBefore int64  `json:"nbf,omitempty"`
	IssuedAt  int64  `json:"iat,omitempty"`
}

// Valid validates the temporal claims against the current time.
func (c StandardClaims) Valid() error {
	now := time.Now().Unix()
	if c.ExpiresAt > 0 && now > c.ExpiresAt {
		return ErrExpiredToken
	}
	if c.NotBefore > 0 && now < c.NotBefore {
		return ErrInvalidToken
	}
	return nil
}

// Service handles JWT generation and validation using HMAC-SHA256.
type Service struct {
	signingKey []byte
}

// New creates a JWT service with the provided signing key.
func New(signingKey []byte) (*Service, error) {
	if len(signingKey) == 0 {
		return nil, ErrInvalidSigningKey
	}
	return &Service{signingKey: signingKey}, nil
}

// Generate signs the claims into a compact JWT string.
func (s *Service) Generate(claims any) (string, error) {
	headerJSON, err := json.Marshal(header{Type: HeaderType, Algorithm: HeaderAlgorithm})
	if err != nil {
		return "", errors.Join(ErrFailedToSignToken, err)
	}
	claimsJSON, err := json.Marshal(claims)
	if err != nil {
		return "", errors.Join(ErrFailedToSignToken, err)
	}

	payload := base64.RawURLEncoding.EncodeToString(headerJSON) + "." +
		base64.RawURLEncoding.EncodeToString(claimsJSON)

	return payload + "." + s.sign(payload), nil
}

// Parse verifies the token signature and temporal claims, then unmarshals
// the claims payload into dst.
func (s *Service) Parse(token string, dst any) error {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return ErrInvalidToken
	}

	payload := parts[0] + "." + parts[1]
	if subtle.ConstantTimeCompare([]byte(s.sign(payload)), []byte(parts[2])) != 1 {
		return ErrSignatureMismatch
	}

	headerJSON, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return errors.Join(ErrFailedToParseToken, err)
	}
	var h header
	if err := json.Unmarshal(headerJSON, &h); err != nil {
		return errors.Join(ErrFailedToParseToken, err)
	}
	if h.Algorithm != HeaderAlgorithm {
		return fmt.Errorf("%w: %s", ErrUnsupportedAlgo, h.Algorithm)
	}

	claimsJSON, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return errors.Join(ErrFailedToParseToken, err)
	}

	var std StandardClaims
	if err := json.Unmarshal(claimsJSON, &std); err != nil {
		return errors.Join(ErrFailedToParseToken, err)
	}
	if err := std.Valid(); err != nil {
		return err
	}

	if err := json.Unmarshal(claimsJSON, dst); err != nil {
		return errors.Join(ErrFailedToParseToken, err)
	}
	return nil
}

func (s *Service) sign(payload string) string {
	mac := hmac.New(sha256.New, s.signingKey)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
