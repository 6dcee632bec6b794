//
// See the file COPYRIGHT for copyright information.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

package authz

import (
	"errors"
	"fmt"
	"github.com/golang-jwt/jwt/v5"
	"strings"
)

const issuer = "cadfield"

var (
	ErrNoToken          = errors.New("no token provided")
	ErrWrongKind        = errors.New("wrong kind of token")
	ErrNoPayrollID      = errors.New("payroll ID is required")
	ErrInvalidSignature = jwt.ErrTokenSignatureInvalid
)

type JWTer struct {
	SecretKey string
}

func (j JWTer) createJWT(claims OfficerClaims) (string, error) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(j.SecretKey))
	if err != nil {
		return "", fmt.Errorf("[SignedString]: %w", err)
	}
	return token, nil
}

func (j JWTer) authenticateJWT(tokenStr string, kind TokenKind) (*OfficerClaims, error) {
	tokenStr = strings.TrimSpace(strings.TrimPrefix(tokenStr, "Bearer "))
	if tokenStr == "" {
		return nil, ErrNoToken
	}
	claims := OfficerClaims{}
	tok, err := jwt.ParseWithClaims(tokenStr, &claims, func(*jwt.Token) (any, error) {
		return []byte(j.SecretKey), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("[jwt.ParseWithClaims]: %w", err)
	}
	if tok == nil || !tok.Valid {
		return nil, errors.New("token is invalid")
	}
	if claims.Kind != kind {
		return nil, fmt.Errorf("%w: want %v, got %q", ErrWrongKind, kind, claims.Kind)
	}
	if claims.PayrollID() == "" {
		return nil, ErrNoPayrollID
	}
	return &claims, nil
}
