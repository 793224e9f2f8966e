package echoapi

import (
	"context"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/Wrug-hu/school-portal/core"
	"github.com/Wrug-hu/school-portal/core/principal"
)

var (
	// appJWTConfig is the default JWT auth middleware config.
	appJWTConfig = middleware.JWTConfig{
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    "principalToken",
		Claims:        new(Claims),
	}
	contextIdentityKey = "identity"
)

// initJWTConfig completes the JWT config; the secret key is only known
// once core.Conf is loaded.
func initJWTConfig() {
	appJWTConfig.SigningKey = core.Conf.SecretKey
}

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	FullName     string `json:"full_name,omitempty"`
	Email        string `json:"email,omitempty"`
	Role         string `json:"role,omitempty"`
	IsStudent    bool   `json:"is_student,omitempty"` // -> STUDENT PORTAL
	IsParent     bool   `json:"is_parent,omitempty"`  // -> PARENT PORTAL
	IsTeacher    bool   `json:"is_teacher,omitempty"` // -> TEACHER PORTAL
	IsAdmin      bool   `json:"is_admin,omitempty"`   // -> ADMIN PORTAL
}

func GetPrincipalClaims(p principal.Principal, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	var oriat int64
	if len(origIat) > 0 {
		oriat = origIat[0]
	} else {
		oriat = nownix
	}

	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    core.Conf.AppName,
			Subject:   p.ID,
			Audience:  "SchoolPortal",
			ExpiresAt: now.Add(core.Conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		FullName:     p.FullName,
		Email:        p.Email,
		Role:         p.Role.String(),
		IsStudent:    p.IsStudent(),
		IsParent:     p.IsParent(),
		IsTeacher:    p.IsTeacher(),
		IsAdmin:      p.IsAdmin(),
	}
	return claims
}

func authenticate(ctx context.Context, email, pwd string, svc principal.Service) (*Claims, error) {
	p, err := svc.GetByEmail(ctx, email)
	if err != nil {
		if err == principal.ErrNotFound {
			return nil, err // login maps this to "invalid credentials"
		}
		return nil, errors.Wrap(err, "finding principal by email")
	}
	if err = p.CheckPassword(pwd); err != nil {
		return nil, errAuthenticationFailed
	}
	if !p.Active() {
		return nil, errAccountDeactivated
	}
	p, err = svc.SetLastLogin(ctx, p)
	if err != nil {
		return nil, errors.Wrap(err, "setting lastLogin")
	}
	return GetPrincipalClaims(p), nil
}

// GenerateToken generates a signed JWT token string representing the principal Claims.
func GenerateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(appJWTConfig.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(appJWTConfig.SigningKey)
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(appJWTConfig.ContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// getContextIdentity resolves the caller's identity and caches it on the
// request context. provisioned is false when the account exists but its
// role profile is missing; read handlers render an empty state in that
// case.
func getContextIdentity(ctx echo.Context, svc principal.Service) (ident principal.Identity, provisioned bool, err error) {
	if ident, ok := ctx.Get(contextIdentityKey).(principal.Identity); ok {
		return ident, true, nil
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return principal.Identity{}, false, errors.Wrap(err, "getting context claims")
	}

	ident, err = svc.Resolve(ctx.Request().Context(), claims.Subject)
	if err != nil {
		if core.IsNotProvisioned(err) {
			return ident, false, nil
		}
		return principal.Identity{}, false, errors.Wrap(err, "resolving identity")
	}
	ctx.Set(contextIdentityKey, ident)
	return ident, true, nil
}

func refreshToken(ctx echo.Context, svc principal.Service) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}

	p, err := svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return "", errors.Wrap(err, "finding principal by ID")
	}

	// check if principal is still active
	if !p.Active() {
		return "", errAccountDeactivated
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(core.Conf.Server.JWTRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return "", errRefreshExpired
	}

	newClaims := GetPrincipalClaims(p, claims.OrigIssuedAt)
	token, err := GenerateToken(newClaims)
	return token, errors.Wrap(err, "generating token")
}
