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
	"github.com/golang-jwt/jwt/v5"
	"time"
)

type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

// OfficerClaims are the claims in every token issued to a field officer. The subject is
// the officer's payroll ID.
type OfficerClaims struct {
	jwt.RegisteredClaims
	Name  string    `json:"nam"`
	Roles []Role    `json:"rol,omitempty"`
	Kind  TokenKind `json:"knd"`
}

func NewOfficerClaims() OfficerClaims {
	return OfficerClaims{}
}

func (c OfficerClaims) WithExpiration(t time.Time) OfficerClaims {
	c.ExpiresAt = jwt.NewNumericDate(t)
	return c
}

func (c OfficerClaims) WithIssuedAt(t time.Time) OfficerClaims {
	c.IssuedAt = jwt.NewNumericDate(t)
	return c
}

func (c OfficerClaims) WithIssuer(s string) OfficerClaims {
	c.Issuer = s
	return c
}

func (c OfficerClaims) WithSubject(s string) OfficerClaims {
	c.Subject = s
	return c
}

func (c OfficerClaims) WithOfficerName(s string) OfficerClaims {
	c.Name = s
	return c
}

func (c OfficerClaims) WithRoles(roles ...Role) OfficerClaims {
	c.Roles = roles
	return c
}

func (c OfficerClaims) WithKind(k TokenKind) OfficerClaims {
	c.Kind = k
	return c
}

func (c OfficerClaims) OfficerName() string {
	return c.Name
}

// PayrollID returns the officer's payroll ID, or "" if the token has no subject.
func (c OfficerClaims) PayrollID() string {
	sub, err := c.GetSubject()
	if err != nil {
		return ""
	}
	return sub
}

func (c OfficerClaims) Permissions() PermissionMask {
	return RolesPermissions(c.Roles...)
}
