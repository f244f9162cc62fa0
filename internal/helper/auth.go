package helper

import (
	"errors"
	"strings"
	"time"

	"github.com/SundayYogurt/school_service/internal/dto"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	PurposeVerifyEmail = "verify_email"
	PurposeSession     = "session"
	PurposeRecovery    = "recovery"

	bcryptCost = 10
)

var tokenTTL = map[string]time.Duration{
	PurposeVerifyEmail: 10 * time.Minute,
	PurposeSession:     7 * 24 * time.Hour,
	PurposeRecovery:    2 * time.Hour,
}

var (
	ErrMissingToken    = errors.New("missing token")
	ErrInvalidToken    = errors.New("invalid token")
	ErrTokenPurpose    = errors.New("token issued for another purpose")
	ErrInvalidPassword = errors.New("invalid email or password")
)

type Auth struct {
	Secret string
	now    func() time.Time
}

type schoolClaims struct {
	ID      uint   `json:"id"`
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

func SetupAuth(s string) Auth {
	return Auth{
		Secret: s,
		now:    time.Now,
	}
}

// WithClock returns a copy of a that reads time from now.
func (a Auth) WithClock(now func() time.Time) Auth {
	a.now = now
	return a
}

func (a Auth) clock() time.Time {
	if a.now == nil {
		return time.Now()
	}
	return a.now()
}

// TokenTTL returns how long tokens of the given purpose stay valid.
func TokenTTL(purpose string) time.Duration {
	return tokenTTL[purpose]
}

func (a Auth) GenerateToken(schoolID uint, email, purpose string) (string, error) {
	if schoolID == 0 || email == "" {
		return "", errors.New("required inputs are missing to generate token")
	}
	ttl, ok := tokenTTL[purpose]
	if !ok {
		return "", errors.New("unknown token purpose " + purpose)
	}

	now := a.clock()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, schoolClaims{
		ID:      schoolID,
		Email:   email,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})

	tokenStr, err := token.SignedString([]byte(a.Secret))
	if err != nil {
		return "", errors.New("unable to sign the token")
	}
	return tokenStr, nil
}

// VerifyToken accepts "<token>" or "Bearer <token>" and checks signature,
// expiry and that the token was issued for purpose.
func (a Auth) VerifyToken(tokenString, purpose string) (dto.AuthResponse, error) {
	fields := strings.Fields(tokenString)
	if len(fields) > 0 && strings.EqualFold(fields[0], "bearer") {
		fields = fields[1:]
	}
	if len(fields) == 0 {
		return dto.AuthResponse{}, ErrMissingToken
	}
	if len(fields) > 1 {
		return dto.AuthResponse{}, ErrInvalidToken
	}
	tokenString = fields[0]

	claims := &schoolClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(a.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.clock),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return dto.AuthResponse{}, errors.Join(ErrInvalidToken, err)
	}
	if claims.Purpose != purpose {
		return dto.AuthResponse{}, ErrTokenPurpose
	}

	resp := dto.AuthResponse{
		SchoolID:  claims.ID,
		Email:     claims.Email,
		Purpose:   claims.Purpose,
		ExpiresAt: claims.ExpiresAt.Unix(),
	}
	if claims.IssuedAt != nil {
		resp.IssuedAt = claims.IssuedAt.Unix()
	}
	return resp, nil
}

func (a Auth) GetCurrentUser(ctx *fiber.Ctx) (dto.AuthResponse, error) {
	claims, ok := ctx.Locals("user").(dto.AuthResponse)
	if !ok {
		return dto.AuthResponse{}, errors.New("missing auth user in context")
	}
	return claims, nil
}

func (a Auth) HashPassword(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (a Auth) VerifyPassword(plain, hashed string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)); err != nil {
		return ErrInvalidPassword
	}
	return nil
}
