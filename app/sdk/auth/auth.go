// Package auth provides authentication support for issuing and verifying
// the RS256 tokens that carry a caller's principal, role and organization.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jcpaschoal/crm-tenancy/business/domain/policybus"
	"github.com/jcpaschoal/crm-tenancy/business/types/role"
	"github.com/jcpaschoal/crm-tenancy/foundation/logger"
)

// Set of errors returned while verifying a token.
var (
	ErrKIDMissing   = errors.New("kid missing from token header")
	ErrKIDMalformed = errors.New("kid in token header is malformed")
	ErrInvalidRole  = errors.New("token contains an invalid role")
	ErrInvalidScope = errors.New("token organization does not fit its role")
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.RegisteredClaims
	OrgID string `json:"org_id,omitempty"`
	Role  string `json:"role"`
}

// Caller converts the claims into the identity the policy engine evaluates.
func (c Claims) Caller() (policybus.Caller, error) {
	principalID, err := uuid.Parse(c.Subject)
	if err != nil {
		return policybus.Caller{}, fmt.Errorf("parsing subject %q: %w", c.Subject, err)
	}

	r, err := role.Parse(c.Role)
	if err != nil {
		return policybus.Caller{}, ErrInvalidRole
	}

	var orgID uuid.UUID
	if c.OrgID != "" {
		orgID, err = uuid.Parse(c.OrgID)
		if err != nil {
			return policybus.Caller{}, fmt.Errorf("parsing org id %q: %w", c.OrgID, err)
		}
	}

	if r.TenantScoped() == (orgID == uuid.Nil) {
		return policybus.Caller{}, ErrInvalidScope
	}

	caller := policybus.Caller{
		PrincipalID: principalID,
		Role:        r,
		OrgID:       orgID,
	}

	return caller, nil
}

// KeyLookup declares a method set of behavior for looking up
// private and public keys for JWT use.
type KeyLookup interface {
	PrivateKey(kid string) (key string, err error)
	PublicKey(kid string) (key string, err error)
}

// Config represents information required to initialize auth.
type Config struct {
	Log       *logger.Logger
	KeyLookup KeyLookup
	ActiveKID string
	Issuer    string
	TTL       time.Duration
}

// Auth is used to authenticate clients.
type Auth struct {
	log       *logger.Logger
	keyLookup KeyLookup
	activeKID string
	method    jwt.SigningMethod
	parser    *jwt.Parser
	issuer    string
	ttl       time.Duration
}

// New creates an Auth to support authentication.
func New(cfg Config) *Auth {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}

	return &Auth{
		log:       cfg.Log,
		keyLookup: cfg.KeyLookup,
		activeKID: cfg.ActiveKID,
		method:    jwt.GetSigningMethod(jwt.SigningMethodRS256.Name),
		parser:    jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Name}), jwt.WithIssuer(cfg.Issuer)),
		issuer:    cfg.Issuer,
		ttl:       ttl,
	}
}

// Issuer provides the configured issuer used to authenticate tokens.
func (a *Auth) Issuer() string {
	return a.issuer
}

// GenerateToken signs a token for the caller with the active key.
func (a *Auth) GenerateToken(caller policybus.Caller) (string, error) {
	var orgID string
	if caller.OrgID != uuid.Nil {
		orgID = caller.OrgID.String()
	}

	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   caller.PrincipalID.String(),
			Issuer:    a.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		OrgID: orgID,
		Role:  caller.Role.String(),
	}

	token := jwt.NewWithClaims(a.method, claims)
	token.Header["kid"] = a.activeKID

	privateKeyPEM, err := a.keyLookup.PrivateKey(a.activeKID)
	if err != nil {
		return "", fmt.Errorf("private key: %w", err)
	}

	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(privateKeyPEM))
	if err != nil {
		return "", fmt.Errorf("parsing private key from PEM: %w", err)
	}

	str, err := token.SignedString(privateKey)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}

	return str, nil
}

// Authenticate processes the token to validate the sender's token is valid.
func (a *Auth) Authenticate(ctx context.Context, bearerToken string) (Claims, error) {
	parts := strings.SplitN(bearerToken, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return Claims{}, errors.New("expected authorization header format: Bearer <token>")
	}

	jwtUnverified := parts[1]

	var claims Claims
	token, _, err := a.parser.ParseUnverified(jwtUnverified, &claims)
	if err != nil {
		return Claims{}, fmt.Errorf("error parsing token: %w", err)
	}

	kidRaw, exists := token.Header["kid"]
	if !exists {
		return Claims{}, ErrKIDMissing
	}

	kid, ok := kidRaw.(string)
	if !ok {
		return Claims{}, ErrKIDMalformed
	}

	pem, err := a.keyLookup.PublicKey(kid)
	if err != nil {
		return Claims{}, fmt.Errorf("fetching public key for kid %q: %w", kid, err)
	}

	verified, err := a.verify(jwtUnverified, pem)
	if err != nil {
		a.log.Info(ctx, "auth: authenticate failed", "subject", claims.Subject, "err", err)
		return Claims{}, fmt.Errorf("authentication failed: %w", err)
	}

	if _, err := role.Parse(verified.Role); err != nil {
		return Claims{}, ErrInvalidRole
	}

	return verified, nil
}

// verify parses the token with the public key, validates the signature and
// checks the issuer claim.
func (a *Auth) verify(tokenStr, pemStr string) (Claims, error) {
	publicKey, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pemStr))
	if err != nil {
		return Claims{}, fmt.Errorf("parsing public key: %w", err)
	}

	var claims Claims
	token, err := a.parser.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		return publicKey, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("validating token signature: %w", err)
	}

	if !token.Valid {
		return Claims{}, errors.New("token is invalid")
	}

	return claims, nil
}
