package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/localnerve/aris-backend/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Token types carried in the typ claim
const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

// passwordCost is the bcrypt cost used for new password hashes
var passwordCost = bcrypt.DefaultCost

// Claims are the JWT claims issued by TokenIssuer
type Claims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

// TokenPair is the result of a login or refresh
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// TokenIssuer signs and verifies HS256 access and refresh tokens
type TokenIssuer struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenIssuer creates a TokenIssuer
func NewTokenIssuer(secret, issuer string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// WithClock replaces the issuer's clock, used for both signing and verification
func (t *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	t.now = now
	return t
}

// Issue creates an access and refresh token for userID
func (t *TokenIssuer) Issue(userID uint64) (*TokenPair, error) {
	access, err := t.sign(userID, TokenAccess, t.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := t.sign(userID, TokenRefresh, t.refreshTTL)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(t.accessTTL.Seconds()),
	}, nil
}

func (t *TokenIssuer) sign(userID uint64, typ string, ttl time.Duration) (string, error) {
	now := t.now()
	claims := Claims{
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    t.issuer,
			Subject:   strconv.FormatUint(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", typ, err)
	}
	return signed, nil
}

// Verify checks a token of the given type and returns the user id it was issued for
func (t *TokenIssuer) Verify(token, typ string) (uint64, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	if !parsed.Valid || claims.Type != typ {
		return 0, fmt.Errorf("%w: expected %s token", ErrInvalidCredentials, typ)
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || userID == 0 {
		return 0, fmt.Errorf("%w: bad subject", ErrInvalidCredentials)
	}
	return userID, nil
}

// HashPassword hashes a password with bcrypt
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// RegisterInput carries a new account
type RegisterInput struct {
	Name     string `json:"name"`
	Initials string `json:"initials"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the registration before anything is written
func (in RegisterInput) Validate() error {
	return asValidationError(validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&in.Initials, validation.Length(0, 8)),
		validation.Field(&in.Email, validation.Required, is.EmailFormat, validation.Length(1, 255)),
		validation.Field(&in.Password, validation.Required, validation.Length(8, 0), validation.By(bcryptLimit)),
	))
}

// bcryptLimit rejects passwords bcrypt would refuse
func bcryptLimit(value interface{}) error {
	if s, _ := value.(string); len(s) > 72 {
		return errors.New("must be no more than 72 bytes")
	}
	return nil
}

// Initials derives up to three upper-case initials from a name
func Initials(name string) string {
	var b strings.Builder
	count := 0
	for _, word := range strings.Fields(name) {
		for _, r := range word {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				b.WriteRune(unicode.ToUpper(r))
				count++
				break
			}
		}
		if count == 3 {
			break
		}
	}
	return b.String()
}

// normalizeEmail lower-cases and trims an address
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account. Addresses of soft-deleted accounts stay taken.
func Register(ctx context.Context, db *gorm.DB, input RegisterInput) (*models.User, error) {
	input.Email = normalizeEmail(input.Email)
	input.Name = strings.TrimSpace(input.Name)
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var taken int64
	if err := quiet(db.WithContext(ctx)).Unscoped().Model(&models.User{}).
		Where("email = ?", input.Email).Count(&taken).Error; err != nil {
		return nil, err
	}
	if taken > 0 {
		return nil, fmt.Errorf("%w: email already registered", ErrConflict)
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	initials := strings.TrimSpace(input.Initials)
	if initials == "" {
		initials = Initials(input.Name)
	}

	user := &models.User{
		Name:         input.Name,
		Initials:     initials,
		Email:        input.Email,
		PasswordHash: hash,
	}
	if err := db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, translate(err)
	}

	return user, nil
}

// Login checks credentials and issues a token pair
func Login(ctx context.Context, db *gorm.DB, issuer *TokenIssuer, email, password string) (*models.User, *TokenPair, error) {
	var user models.User
	err := quiet(db.WithContext(ctx)).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, err
	}

	if !CheckPassword(user.PasswordHash, password) {
		return nil, nil, ErrInvalidCredentials
	}

	tokens, err := issuer.Issue(user.ID)
	if err != nil {
		return nil, nil, err
	}
	return &user, tokens, nil
}

// Refresh exchanges a refresh token of a live account for a new token pair
func Refresh(ctx context.Context, db *gorm.DB, issuer *TokenIssuer, refreshToken string) (*TokenPair, error) {
	userID, err := issuer.Verify(refreshToken, TokenRefresh)
	if err != nil {
		return nil, err
	}

	if _, err := GetUser(ctx, db, userID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	return issuer.Issue(userID)
}
