// Package auth issues and verifies operator bearer tokens.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// OperatorSubject is the token subject of the single operator account.
const OperatorSubject = "operator"

var (
	// ErrInvalidCredentials means the login password did not match.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken covers malformed, expired and badly signed tokens.
	ErrInvalidToken = errors.New("invalid token")

	// ErrLoginDisabled means no operator password hash is configured.
	ErrLoginDisabled = errors.New("operator login disabled")
)

// Issuer signs and verifies HS256 tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer constructs an Issuer.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// SetClock replaces time.Now. Used by tests.
func (i *Issuer) SetClock(now func() time.Time) { i.now = now }

// Issue returns a signed token for subject and its expiry.
func (i *Issuer) Issue(subject string) (string, time.Time, error) {
	now := i.now()
	exp := now.Add(i.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth.Issuer.Issue: %w", err)
	}
	return signed, exp, nil
}

// Verify checks the signature and expiry of token and returns its subject.
func (i *Issuer) Verify(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims.Subject, nil
}

// Login checks password against the operator's bcrypt hash and issues a
// token on success.
func (i *Issuer) Login(hash, password string) (string, time.Time, error) {
	if hash == "" {
		return "", time.Time{}, ErrLoginDisabled
	}
	if err := CheckPassword(hash, password); err != nil {
		return "", time.Time{}, err
	}
	return i.Issue(OperatorSubject)
}

// CheckPassword compares password with a bcrypt hash.
func CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Operator binds an Issuer to the configured operator password hash.
type Operator struct {
	issuer *Issuer
	hash   string
}

// NewOperator constructs an Operator. An empty hash disables login.
func NewOperator(issuer *Issuer, hash string) *Operator {
	return &Operator{issuer: issuer, hash: hash}
}

// Login checks password and issues an operator token.
func (o *Operator) Login(password string) (string, time.Time, error) {
	return o.issuer.Login(o.hash, password)
}
