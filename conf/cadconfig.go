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

package conf

import (
	"crypto/rand"
	"errors"
	"fmt"
	"github.com/fieldcad/cadfield/lib/redact"
	"net/url"
	"time"
)

// DefaultCAD is the base configuration for the companion server. It gets overridden by
// values in the .env file, then by environment variables.
func DefaultCAD() *CADConfig {
	return &CADConfig{
		Core: ConfigCore{
			Host:                 "localhost",
			Port:                 8480,
			JWTSecret:            rand.Text(),
			Deployment:           DeploymentTypeDev,
			LogLevel:             "INFO",
			AccessTokenLifetime:  15 * time.Minute,
			RefreshTokenLifetime: 12 * time.Hour,
			CacheControlShort:    5 * time.Minute,
			MaxRequestBytes:      50 << 20,
		},
		Backend: Backend{
			Type:           BackendTypeFake,
			RequestTimeout: 20 * time.Second,
			PollInterval:   time.Minute,
			StreamRetry:    3 * time.Second,
		},
		Workflow: Workflow{
			SubmitTimeout: 30 * time.Second,
		},
		Store: DBStore{
			Type: DBStoreTypeMaria,
			MariaDB: DBStoreMaria{
				HostName:     "localhost",
				HostPort:     3306,
				Database:     "cadfield",
				MaxOpenConns: 20,
			},
			Fake: DBStoreMaria{
				HostName: "localhost",
				// HostPort can be left as 0 for automatic port selection on startup
				HostPort:     0,
				Database:     "cadfield-fake",
				Username:     "cadfield-fake-user",
				Password:     rand.Text(),
				MaxOpenConns: 5,
			},
			ActionLogEnabled: true,
		},
		Directory: Directory{
			Directory:        DirectoryTypeDB,
			TestOfficers:     defaultTestOfficers(),
			InMemoryCacheTTL: 10 * time.Minute,
		},
		Manifest: Manifest{
			CacheTTL:   15 * time.Minute,
			StaleGrace: 2 * time.Hour,
		},
		AttachmentsStore: AttachmentsStore{
			Type: AttachmentsStoreNone,
		},
	}
}

// Validate should be called after a CADConfig has been fully configured.
func (c *CADConfig) Validate() error {
	var errs []error
	errs = append(errs, c.Core.Deployment.Validate())
	errs = append(errs, c.Backend.Type.Validate())
	if c.Backend.Type == BackendTypeHTTP {
		if u, err := url.Parse(c.Backend.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("http backend requires an absolute base URL, got %q", c.Backend.BaseURL))
		}
	}
	if c.Backend.PollInterval <= 0 {
		errs = append(errs, errors.New("backend poll interval must be positive"))
	}
	if c.Workflow.SubmitTimeout <= 0 {
		errs = append(errs, errors.New("workflow submit timeout must be positive"))
	}
	errs = append(errs, c.Store.Type.Validate())
	if c.Store.Type == DBStoreTypeNoOp {
		c.Store.MariaDB = DBStoreMaria{}
	}
	errs = append(errs, c.Directory.Directory.Validate())
	// the fake store is seeded with the test officers
	if c.Directory.Directory != DirectoryTypeTestOfficers && c.Store.Type != DBStoreTypeFake {
		c.Directory.TestOfficers = nil
	}
	errs = append(errs, c.AttachmentsStore.Type.Validate())
	switch c.AttachmentsStore.Type {
	case AttachmentsStoreLocal:
		if c.AttachmentsStore.Local.Dir == "" {
			errs = append(errs, errors.New("local attachments store requires a local directory"))
		}
		c.AttachmentsStore.S3 = S3Attachments{}
	case AttachmentsStoreS3:
		s3 := c.AttachmentsStore.S3
		if s3.AWSAccessKeyID == "" || s3.AWSSecretAccessKey == "" || s3.AWSRegion == "" || s3.Bucket == "" {
			errs = append(errs, errors.New("s3 attachments store requires Key ID, Secret Key, Default AWSRegion, and Bucket"))
		}
		c.AttachmentsStore.Local = LocalAttachments{}
	}
	if c.Core.Deployment != DeploymentTypeDev {
		if c.Directory.Directory == DirectoryTypeTestOfficers {
			errs = append(errs, errors.New("do not use TestOfficers outside dev! An officer DB must be provided"))
		}
		if c.Backend.Type == BackendTypeFake {
			errs = append(errs, errors.New("do not use the fake CAD backend outside dev"))
		}
	}
	if c.Core.AccessTokenLifetime > c.Core.RefreshTokenLifetime {
		errs = append(errs, errors.New("access token lifetime should not be greater than refresh token lifetime"))
	}
	return errors.Join(errs...)
}

func (c *CADConfig) PrintRedacted() string {
	return c.String()
}

func (c *CADConfig) String() string {
	b, err := redact.ToBytes(c)
	if err != nil {
		return fmt.Sprintf("[redact]: %v", err)
	}
	return string(b)
}

type CADConfig struct {
	Core             ConfigCore
	Backend          Backend
	Workflow         Workflow
	Store            DBStore
	Directory        Directory
	Manifest         Manifest
	AttachmentsStore AttachmentsStore
}

type BackendType string
type DirectoryType string
type AttachmentsStoreType string
type DeploymentType string
type DBStoreType string

const (
	BackendTypeHTTP           BackendType          = "http"
	BackendTypeFake           BackendType          = "fake"
	DirectoryTypeDB           DirectoryType        = "db"
	DirectoryTypeTestOfficers DirectoryType        = "testofficers"
	AttachmentsStoreLocal     AttachmentsStoreType = "local"
	AttachmentsStoreS3        AttachmentsStoreType = "s3"
	AttachmentsStoreNone      AttachmentsStoreType = "none"
	DeploymentTypeDev         DeploymentType       = "dev"
	DeploymentTypeStaging     DeploymentType       = "staging"
	DeploymentTypeProduction  DeploymentType       = "production"
	DBStoreTypeMaria          DBStoreType          = "mariadb"
	DBStoreTypeNoOp           DBStoreType          = "noop"
	DBStoreTypeFake           DBStoreType          = "fake"
)

func (b BackendType) Validate() error {
	switch b {
	case BackendTypeHTTP, BackendTypeFake:
		return nil
	default:
		return fmt.Errorf("unknown backend type %v", b)
	}
}

func (d DBStoreType) Validate() error {
	switch d {
	case DBStoreTypeMaria, DBStoreTypeNoOp, DBStoreTypeFake:
		return nil
	default:
		return fmt.Errorf("unknown DB store type %v", d)
	}
}

func (d DirectoryType) Validate() error {
	switch d {
	case DirectoryTypeDB, DirectoryTypeTestOfficers:
		return nil
	default:
		return fmt.Errorf("unknown directory type %v", d)
	}
}

func (a AttachmentsStoreType) Validate() error {
	switch a {
	case AttachmentsStoreLocal, AttachmentsStoreS3, AttachmentsStoreNone:
		return nil
	default:
		return fmt.Errorf("unknown attachments store type %v", a)
	}
}

func (d DeploymentType) Validate() error {
	switch d {
	case DeploymentTypeDev, DeploymentTypeStaging, DeploymentTypeProduction:
		return nil
	default:
		return fmt.Errorf("unknown deployment type %v", d)
	}
}

type ConfigCore struct {
	Host                 string
	Port                 int32
	AccessTokenLifetime  time.Duration
	RefreshTokenLifetime time.Duration
	// Supervisors are payroll IDs of officers who may act on any resource.
	Supervisors []string
	JWTSecret   string `redact:"true"`
	Deployment  DeploymentType

	// CatalogFile is a YAML status catalog. Empty means the built-in catalog.
	CatalogFile string

	// CacheControlShort is set in Cache-Control headers for responses that rarely change,
	// e.g. the status catalog. Set this to 0 to disable client-side caching.
	CacheControlShort time.Duration

	// LogLevel should be one of DEBUG, INFO, WARN, or ERROR
	LogLevel string

	// MaxRequestBytes is a hard limit on request sizes, including report attachments.
	MaxRequestBytes int64
}

// Backend is the CAD system the field client syncs with.
type Backend struct {
	Type    BackendType
	BaseURL string
	APIKey  string `redact:"true"`
	// RequestTimeout bounds each snapshot fetch. Status submissions use Workflow.SubmitTimeout.
	RequestTimeout time.Duration
	// PollInterval is how often to sync when the change stream is quiet or unavailable.
	PollInterval time.Duration
	// StreamRetry is the initial reconnect delay for the change stream.
	StreamRetry time.Duration
}

type Workflow struct {
	SubmitTimeout time.Duration
}

type DBStore struct {
	Type             DBStoreType
	MariaDB          DBStoreMaria
	Fake             DBStoreMaria
	ActionLogEnabled bool
}

type DBStoreMaria struct {
	HostName     string
	HostPort     int32
	Database     string
	Username     string
	Password     string `redact:"true"`
	MaxOpenConns int32
}

type TestOfficer struct {
	PayrollID  string
	Rank       string
	GivenName  string
	FamilyName string
	Password   string `redact:"true"`
}

type Directory struct {
	Directory        DirectoryType
	TestOfficers     []TestOfficer
	InMemoryCacheTTL time.Duration
}

// Manifest is the cached reference data, e.g. secondary codes.
type Manifest struct {
	CacheTTL time.Duration
	// StaleGrace is how long past CacheTTL stale entries are still served if a refresh fails.
	StaleGrace time.Duration
}

type AttachmentsStore struct {
	Type  AttachmentsStoreType
	Local LocalAttachments
	S3    S3Attachments
}

type LocalAttachments struct {
	Dir string
}

type S3Attachments struct {
	AWSAccessKeyID     string
	AWSSecretAccessKey string `redact:"true"`
	AWSRegion          string
	Bucket             string
	CommonKeyPrefix    string
}
