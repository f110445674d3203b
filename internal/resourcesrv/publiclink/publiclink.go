// Package publiclink mints and verifies the signed tokens behind shareable
// public links. Tokens grant at most viewer access to one object; link
// storage and rendering live outside this service.
package publiclink

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kudocloud/kudo-internal/internal/common/apperrors"
	"github.com/kudocloud/kudo-internal/internal/resourcesrv/capability"
	"github.com/kudocloud/kudo-internal/internal/resourcesrv/rescommon"
)

var (
	ErrPublicLink   apperrors.Error = apperrors.New("public link error").SetStatusCode(http.StatusInternalServerError)
	ErrInvalidToken apperrors.Error = ErrPublicLink.New("invalid or expired link token").SetStatusCode(http.StatusUnauthorized)
	ErrInvalidGrant apperrors.Error = ErrPublicLink.New("public links can grant viewer access only").SetStatusCode(http.StatusBadRequest)
)

const issuerName = "kudo-resource-index"

type linkClaims struct {
	jwt.RegisteredClaims
	ResourceType string `json:"rt"`
	ObjectID     string `json:"oid"`
	Role         string `json:"role"`
}

// Grant is a verified public-link grant.
type Grant struct {
	ResourceType rescommon.ResourceType
	ObjectID     string
	Role         capability.Role
}

type Issuer struct {
	key      []byte
	validity time.Duration
}

func NewIssuer(key []byte, validity time.Duration) *Issuer {
	return &Issuer{key: key, validity: validity}
}

// Issue mints a signed viewer token for the object.
func (i *Issuer) Issue(resourceType rescommon.ResourceType, objectID string) (string, apperrors.Error) {
	if !resourceType.IsValid() || objectID == "" {
		return "", ErrInvalidGrant
	}
	now := time.Now()
	claims := linkClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuerName,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.validity)),
		},
		ResourceType: string(resourceType),
		ObjectID:     objectID,
		Role:         string(capability.RoleViewer),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", ErrPublicLink.Err(err)
	}
	return token, nil
}

// Verify parses a link token back into its grant.
func (i *Issuer) Verify(token string) (*Grant, apperrors.Error) {
	var claims linkClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return i.key, nil
	}, jwt.WithIssuer(issuerName), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken.Err(err)
	}
	if claims.Role != string(capability.RoleViewer) {
		return nil, ErrInvalidToken
	}
	return &Grant{
		ResourceType: rescommon.ResourceType(claims.ResourceType),
		ObjectID:     claims.ObjectID,
		Role:         capability.Role(claims.Role),
	}, nil
}
