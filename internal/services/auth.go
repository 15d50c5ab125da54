package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	dataagg "github.com/yungbote/taskmaster-backend/internal/data/aggregates"
	"github.com/yungbote/taskmaster-backend/internal/data/repos"
	types "github.com/yungbote/taskmaster-backend/internal/domain"
	domainagg "github.com/yungbote/taskmaster-backend/internal/domain/aggregates"
	"github.com/yungbote/taskmaster-backend/internal/platform/ctxutil"
	"github.com/yungbote/taskmaster-backend/internal/platform/dbctx"
	"github.com/yungbote/taskmaster-backend/internal/platform/logger"
)

const (
	minPasswordLength = 6
	maxPasswordLength = 100
	maxUsernameLength = 50
	maxEmailLength    = 100
	maxPersonName     = 50
)

var errInvalidCredentials = errors.New("invalid username/email or password")

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*types.User, error)
	Login(ctx context.Context, usernameOrEmail, password string) (*LoginResult, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

type LoginResult struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
	User        *types.User
}

type JWTClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type authService struct {
	db           *gorm.DB
	log          *logger.Logger
	userRepo     repos.UserRepo
	jwtSecretKey []byte
	accessTTL    time.Duration
	bcryptCost   int
	now          func() time.Time
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	jwtSecretKey string,
	accessTTL time.Duration,
) AuthService {
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	return &authService{
		db:           db,
		log:          log.With("service", "AuthService"),
		userRepo:     userRepo,
		jwtSecretKey: []byte(jwtSecretKey),
		accessTTL:    accessTTL,
		bcryptCost:   bcrypt.DefaultCost,
		now:          time.Now,
	}
}

func (as *authService) GetAccessTTL() time.Duration { return as.accessTTL }

func (as *authService) Register(ctx context.Context, in RegisterInput) (*types.User, error) {
	const op = "Auth.Register"
	user, password, err := normalizeRegistration(in)
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), as.bcryptCost)
	if err != nil {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "failed to hash password", err)
	}
	user.Password = string(hash)

	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		taken, err := as.userRepo.UsernameExists(dbc, user.Username)
		if err != nil {
			return err
		}
		if taken {
			return dataagg.ConflictError("username is already taken")
		}
		inUse, err := as.userRepo.EmailExists(dbc, user.Email, uuid.Nil)
		if err != nil {
			return err
		}
		if inUse {
			return dataagg.ConflictError("email address is already in use")
		}
		_, err = as.userRepo.Create(dbc, []*types.User{user})
		return err
	})
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	as.log.Info("User registered", "user_id", user.ID)
	return user, nil
}

func normalizeRegistration(in RegisterInput) (*types.User, string, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || utf8.RuneCountInString(username) > maxUsernameLength {
		return nil, "", dataagg.ValidationError(fmt.Sprintf("username must be 1 to %d characters", maxUsernameLength))
	}
	if strings.ContainsAny(username, "@ \t\n") {
		return nil, "", dataagg.ValidationError("username must not contain spaces or '@'")
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, "", err
	}
	if n := utf8.RuneCountInString(in.Password); n < minPasswordLength || n > maxPasswordLength {
		return nil, "", dataagg.ValidationError(fmt.Sprintf("password must be %d to %d characters", minPasswordLength, maxPasswordLength))
	}
	first, err := personName("first name", in.FirstName)
	if err != nil {
		return nil, "", err
	}
	last, err := personName("last name", in.LastName)
	if err != nil {
		return nil, "", err
	}
	return &types.User{
		ID:        uuid.New(),
		Username:  username,
		Email:     email,
		FirstName: first,
		LastName:  last,
	}, in.Password, nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" || utf8.RuneCountInString(email) > maxEmailLength {
		return "", dataagg.ValidationError(fmt.Sprintf("email must be 1 to %d characters", maxEmailLength))
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", dataagg.ValidationError("email is not a valid address")
	}
	return email, nil
}

func personName(field, raw string) (string, error) {
	v := strings.TrimSpace(raw)
	if utf8.RuneCountInString(v) > maxPersonName {
		return "", dataagg.ValidationError(fmt.Sprintf("%s must be at most %d characters", field, maxPersonName))
	}
	return v, nil
}

func (as *authService) Login(ctx context.Context, usernameOrEmail, password string) (*LoginResult, error) {
	const op = "Auth.Login"
	login := strings.TrimSpace(usernameOrEmail)
	if login == "" || password == "" {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "username/email and password are required", nil)
	}

	user, err := as.userRepo.GetByUsernameOrEmail(dbctx.Context{Ctx: ctx}, login)
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	if user == nil {
		// keep timing close to the wrong-password path
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5BWX4Z5ylLpC8b6l0pDkUMu2mqH9K"), []byte(password))
		return nil, domainagg.NewError(domainagg.CodeUnauthenticated, op, errInvalidCredentials.Error(), nil)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		as.log.Info("Login rejected", "user_id", user.ID)
		return nil, domainagg.NewError(domainagg.CodeUnauthenticated, op, errInvalidCredentials.Error(), nil)
	}

	token, expiresAt, err := as.generateAccessToken(user)
	if err != nil {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "failed to issue access token", err)
	}
	return &LoginResult{AccessToken: token, TokenType: "Bearer", ExpiresAt: expiresAt, User: user}, nil
}

func (as *authService) generateAccessToken(user *types.User) (string, time.Time, error) {
	now := as.now().UTC()
	expiresAt := now.Add(as.accessTTL)
	claims := JWTClaims{
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(as.jwtSecretKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// SetContextFromToken verifies an access token and returns ctx carrying the
// principal. The user must still exist.
func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	const op = "Auth.VerifyToken"
	unauthenticated := func(cause error) error {
		return domainagg.NewError(domainagg.CodeUnauthenticated, op, "invalid or expired token", cause)
	}

	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return as.jwtSecretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(as.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return ctx, unauthenticated(err)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, unauthenticated(err)
	}
	exists, err := as.userRepo.Exists(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return ctx, dataagg.MapError(op, err)
	}
	if !exists {
		return ctx, unauthenticated(nil)
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		TokenString: tokenString,
		UserID:      userID,
	}), nil
}
