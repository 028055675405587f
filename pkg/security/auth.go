package security

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

type Credentials struct {
	Username     string
	Password     string
	PasswordHash string
	JWTSecret    string
}

// Authenticator checks the single operator account configured for the desk
// and issues the tokens the API accepts.
type Authenticator struct {
	username     string
	passwordHash []byte
	secret       []byte
	now          func() time.Time
}

// NewAuthenticator prefers PasswordHash; a plain Password is hashed once here.
func NewAuthenticator(c Credentials) (*Authenticator, error) {
	if c.Username == "" {
		return nil, errors.New("username is required")
	}
	if c.JWTSecret == "" {
		return nil, errors.New("jwt secret is required")
	}

	hash := []byte(c.PasswordHash)
	if len(hash) == 0 {
		if c.Password == "" {
			return nil, errors.New("password or password hash is required")
		}
		var err error
		if hash, err = bcrypt.GenerateFromPassword([]byte(c.Password), bcrypt.DefaultCost); err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
	} else if _, err := bcrypt.Cost(hash); err != nil {
		return nil, fmt.Errorf("password hash is not a bcrypt hash: %w", err)
	}

	return &Authenticator{
		username:     c.Username,
		passwordHash: hash,
		secret:       []byte(c.JWTSecret),
		now:          time.Now,
	}, nil
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (a *Authenticator) Authenticate(username, password string) error {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	passErr := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password))
	if !userOK || passErr != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// GenerateJWT issues a token without expiry. Rotating the secret revokes it.
func (a *Authenticator) GenerateJWT(username string) (string, error) {
	claims := jwt.MapClaims{
		"username": username,
		"iat":      a.now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// ParseJWT returns the username carried by a valid token.
func (a *Authenticator) ParseJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return "", errors.New("invalid token")
	}

	claims := token.Claims.(jwt.MapClaims)
	username, ok := claims["username"].(string)
	if !ok || username != a.username {
		return "", errors.New("invalid token subject")
	}
	return username, nil
}
