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
	"time"
)

// SuggestedEarlyAccessTokenRefresh is how long before an access token actually expires that
// clients should consider refreshing it, so a request doesn't race the expiry.
const SuggestedEarlyAccessTokenRefresh time.Duration = -10 * time.Second

func (j JWTer) CreateAccessToken(
	officerName string,
	payrollID string,
	roles []Role,
	expiration time.Time,
) (string, error) {
	return j.createJWT(
		NewOfficerClaims().
			WithIssuedAt(time.Now()).
			WithExpiration(expiration).
			WithIssuer(issuer).
			WithKind(KindAccess).
			WithOfficerName(officerName).
			WithRoles(roles...).
			WithSubject(payrollID),
	)
}

// AuthenticateJWT gives the claims of a valid access token, or an error if the token was
// signed by a different key, has expired, or isn't an access token.
func (j JWTer) AuthenticateJWT(jwtStr string) (*OfficerClaims, error) {
	return j.authenticateJWT(jwtStr, KindAccess)
}

// CreateRefreshToken creates a token the client can trade for a new access token. The new
// access token picks up any changes to the officer's directory entry. Refresh tokens aren't
// persisted, so they can't be revoked before they expire.
func (j JWTer) CreateRefreshToken(officerName, payrollID string, expiration time.Time) (string, error) {
	return j.createJWT(
		NewOfficerClaims().
			WithIssuedAt(time.Now()).
			WithExpiration(expiration).
			WithIssuer(issuer).
			WithKind(KindRefresh).
			WithOfficerName(officerName).
			WithSubject(payrollID),
	)
}

// AuthenticateRefreshToken is AuthenticateJWT for refresh tokens. Clients should treat refresh
// tokens as opaque strings.
func (j JWTer) AuthenticateRefreshToken(refreshToken string) (*OfficerClaims, error) {
	return j.authenticateJWT(refreshToken, KindRefresh)
}
