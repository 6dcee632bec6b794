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

// Package directory knows which officers may sign in, and checks their passwords.
package directory

import (
	"context"
	"errors"
	"fmt"
	"github.com/fieldcad/cadfield/cad"
	"github.com/fieldcad/cadfield/conf"
	"github.com/fieldcad/cadfield/lib/authn"
	"github.com/fieldcad/cadfield/lib/cache"
	"github.com/fieldcad/cadfield/store"
	"github.com/fieldcad/cadfield/store/caddb"
	"log/slog"
	"slices"
	"strings"
	"time"
)

var (
	// ErrBadCredentials covers both an unknown payroll ID and a wrong password.
	ErrBadCredentials = errors.New("invalid payroll ID or password")
	ErrDisabled       = errors.New("officer account is disabled")
)

// Credential is an officer who may sign in.
type Credential struct {
	Officer      cad.Officer
	PasswordHash string
	Enabled      bool
}

// OfficerStore reads credentials from either the companion database or a fixed list of
// test officers.
type OfficerStore struct {
	testOfficers []Credential
	dbq          *store.DBQ

	credentials *cache.InMemory[map[string]Credential]
}

func NewOfficerStore(testOfficers []conf.TestOfficer, dbq *store.DBQ, cacheTTL time.Duration) (*OfficerStore, error) {
	if dbq == nil && testOfficers == nil {
		return nil, errors.New("NewOfficerStore: exactly one of dbq or testOfficers must be provided (got none)")
	}
	if dbq != nil && testOfficers != nil {
		return nil, errors.New("NewOfficerStore: exactly one of dbq or testOfficers must be provided (got both)")
	}
	s := &OfficerStore{dbq: dbq}
	for _, to := range testOfficers {
		s.testOfficers = append(s.testOfficers, Credential{
			Officer:      testOfficer(to),
			PasswordHash: authn.NewSaltedArgon2idDevOnly(to.Password),
			Enabled:      true,
		})
	}
	s.credentials = cache.New[map[string]Credential](cacheTTL, s.loadCredentials)
	return s, nil
}

func (s *OfficerStore) loadCredentials(ctx context.Context) (map[string]Credential, error) {
	byID := make(map[string]Credential)
	if s.dbq == nil {
		for _, c := range s.testOfficers {
			byID[c.Officer.PayrollID] = c
		}
		return byID, nil
	}
	rows, err := s.dbq.Officers(ctx, s.dbq)
	if err != nil {
		return nil, fmt.Errorf("[Officers]: %w", err)
	}
	for _, r := range rows {
		byID[r.PayrollID] = Credential{
			Officer: cad.Officer{
				PayrollID:  r.PayrollID,
				Rank:       r.Rank,
				GivenName:  r.GivenName,
				FamilyName: r.FamilyName,
			},
			PasswordHash: r.Password,
			Enabled:      r.Enabled,
		}
	}
	return byID, nil
}

// Officers returns every officer who may sign in, ordered by payroll ID.
func (s *OfficerStore) Officers(ctx context.Context) ([]cad.Officer, error) {
	creds, err := s.credentials.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("[credentials.Get]: %w", err)
	}
	officers := make([]cad.Officer, 0, len(*creds))
	for _, c := range *creds {
		if c.Enabled {
			officers = append(officers, c.Officer)
		}
	}
	slices.SortFunc(officers, func(a, b cad.Officer) int {
		return strings.Compare(a.PayrollID, b.PayrollID)
	})
	return officers, nil
}

// Authenticate checks the password for payrollID and returns the officer.
func (s *OfficerStore) Authenticate(ctx context.Context, payrollID, password string) (cad.Officer, error) {
	creds, err := s.credentials.Get(ctx)
	if err != nil {
		return cad.Officer{}, fmt.Errorf("[credentials.Get]: %w", err)
	}
	c, found := (*creds)[strings.TrimSpace(payrollID)]
	if !found {
		return cad.Officer{}, ErrBadCredentials
	}
	valid, err := authn.Verify(ctx, password, c.PasswordHash)
	if err != nil {
		return cad.Officer{}, fmt.Errorf("[Verify]: %w", err)
	}
	if !valid {
		return cad.Officer{}, ErrBadCredentials
	}
	if !c.Enabled {
		return cad.Officer{}, ErrDisabled
	}
	return c.Officer, nil
}

// Invalidate drops cached credentials, e.g. after an officer is added.
func (s *OfficerStore) Invalidate() {
	s.credentials.Invalidate()
}

// SeedOfficers hashes each test officer's password and writes them to the database.
func SeedOfficers(ctx context.Context, dbq *store.DBQ, officers []conf.TestOfficer) error {
	for _, to := range officers {
		err := dbq.UpsertOfficer(ctx, dbq, caddb.UpsertOfficerParams{
			PayrollID:  to.PayrollID,
			Rank:       to.Rank,
			GivenName:  to.GivenName,
			FamilyName: to.FamilyName,
			Password:   authn.NewSaltedArgon2idDevOnly(to.Password),
			Enabled:    true,
		})
		if err != nil {
			return fmt.Errorf("[UpsertOfficer]: %w", err)
		}
	}
	slog.Info("Seeded test officers", "count", len(officers))
	return nil
}

func testOfficer(to conf.TestOfficer) cad.Officer {
	return cad.Officer{
		PayrollID:  to.PayrollID,
		Rank:       to.Rank,
		GivenName:  to.GivenName,
		FamilyName: to.FamilyName,
	}
}
