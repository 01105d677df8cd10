// Package jwt emite y valida los tokens de tenant (HS256) que autentican
// las llamadas server-to-server a la API.
package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken  = errors.New("invalid_jwt")
	ErrInvalidIssuer = errors.New("invalid_issuer")
	ErrMissingTenant = errors.New("missing_tenant")
	ErrWeakSecret    = errors.New("jwt secret too short")
)

// leeway tolera pequeñas diferencias de reloj en exp/nbf.
const leeway = 30 * time.Second

// minSecretLen es el mínimo de bytes para HS256.
const minSecretLen = 16

// TenantClaims identifica account + environment.
type TenantClaims struct {
	AccountID     string `json:"acc"`
	EnvironmentID string `json:"env"`
	jwtv5.RegisteredClaims
}

// Codec firma y valida TenantClaims.
type Codec struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewCodec crea un Codec. issuer vacío no chequea iss.
func NewCodec(secret, issuer string) (*Codec, error) {
	if len(strings.TrimSpace(secret)) < minSecretLen {
		return nil, ErrWeakSecret
	}
	return &Codec{secret: []byte(secret), issuer: issuer, now: time.Now}, nil
}

// Mint emite un token para el tenant con la vida indicada.
func (c *Codec) Mint(accountID, environmentID string, ttl time.Duration) (string, error) {
	if accountID == "" || environmentID == "" {
		return "", ErrMissingTenant
	}
	now := c.now()
	claims := TenantClaims{
		AccountID:     accountID,
		EnvironmentID: environmentID,
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   accountID,
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("jwt: sign: %w", err)
	}
	return signed, nil
}

// Parse valida firma, exp e iss y retorna las claims.
func (c *Codec) Parse(token string) (*TenantClaims, error) {
	opts := []jwtv5.ParserOption{
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}),
		jwtv5.WithLeeway(leeway),
		jwtv5.WithExpirationRequired(),
		jwtv5.WithTimeFunc(c.now),
	}
	var claims TenantClaims
	tok, err := jwtv5.ParseWithClaims(token, &claims, func(*jwtv5.Token) (any, error) {
		return c.secret, nil
	}, opts...)
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	if c.issuer != "" && claims.Issuer != c.issuer {
		return nil, ErrInvalidIssuer
	}
	if claims.AccountID == "" || claims.EnvironmentID == "" {
		return nil, ErrMissingTenant
	}
	return &claims, nil
}
