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

package cmd

import (
	"context"
	"github.com/fieldcad/cadfield/conf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

// TestMustApplyEnvConfig should be the only test in the whole repo that
// plays around with environment variables, since parallel testing means
// other tests would notice the result of "Setenvs" that occur at the same time.
func TestMustApplyEnvConfig(t *testing.T) {
	t.Setenv("CAD_HOSTNAME", "host")
	t.Setenv("CAD_PORT", "1234")
	t.Setenv("CAD_DEPLOYMENT", "Staging")
	t.Setenv("CAD_REFRESH_TOKEN_LIFETIME", "10h")
	t.Setenv("CAD_ACCESS_TOKEN_LIFETIME", "5m")
	t.Setenv("CAD_CACHE_CONTROL_SHORT", "3m")
	t.Setenv("CAD_MAX_REQUEST_BYTES", "1048576")
	t.Setenv("CAD_LOG_LEVEL", "WARN")
	t.Setenv("CAD_SUPERVISORS", "100999,100998")
	t.Setenv("CAD_JWT_SECRET", `"shhh"`)
	t.Setenv("CAD_CATALOG_FILE", "/etc/cadfield/statuses.yaml")
	t.Setenv("CAD_BACKEND", "http")
	t.Setenv("CAD_BACKEND_URL", "https://cad.example.net/")
	t.Setenv("CAD_BACKEND_API_KEY", "key")
	t.Setenv("CAD_BACKEND_REQUEST_TIMEOUT", "7s")
	t.Setenv("CAD_BACKEND_POLL_INTERVAL", "2m")
	t.Setenv("CAD_BACKEND_STREAM_RETRY", "1s")
	t.Setenv("CAD_SUBMIT_TIMEOUT", "45s")
	t.Setenv("CAD_DB_STORE_TYPE", "MariaDB")
	t.Setenv("CAD_DB_HOST_NAME", "db")
	t.Setenv("CAD_DB_HOST_PORT", "555")
	t.Setenv("CAD_DB_DATABASE", "cad")
	t.Setenv("CAD_DB_USER_NAME", "me")
	t.Setenv("CAD_DB_PASSWORD", "boo")
	t.Setenv("CAD_ACTION_LOG_ENABLED", "off")
	t.Setenv("CAD_DIRECTORY", "db")
	t.Setenv("CAD_DIRECTORY_CACHE_TTL", "15m")
	t.Setenv("CAD_MANIFEST_CACHE_TTL", "1h")
	t.Setenv("CAD_MANIFEST_STALE_GRACE", "6h")
	t.Setenv("CAD_ATTACHMENTS_STORE", "s3")
	t.Setenv("CAD_ATTACHMENTS_LOCAL_DIR", "/var/cadfield")
	t.Setenv("AWS_ACCESS_KEY_ID", "my name")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "my key")
	t.Setenv("AWS_REGION", "ap-southeast-2")
	t.Setenv("CAD_ATTACHMENTS_S3_BUCKET", "big-bucket")
	t.Setenv("CAD_ATTACHMENTS_S3_COMMON_KEY_PREFIX", "reports/")

	cfg := mustApplyEnvConfig(conf.DefaultCAD(), envFileDefaultName)

	assert.Equal(t, "host", cfg.Core.Host)
	assert.Equal(t, int32(1234), cfg.Core.Port)
	assert.Equal(t, conf.DeploymentTypeStaging, cfg.Core.Deployment)
	assert.Equal(t, 10*time.Hour, cfg.Core.RefreshTokenLifetime)
	assert.Equal(t, 5*time.Minute, cfg.Core.AccessTokenLifetime)
	assert.Equal(t, 3*time.Minute, cfg.Core.CacheControlShort)
	assert.Equal(t, int64(1<<20), cfg.Core.MaxRequestBytes)
	assert.Equal(t, "WARN", cfg.Core.LogLevel)
	assert.Equal(t, []string{"100999", "100998"}, cfg.Core.Supervisors)
	assert.Equal(t, "shhh", cfg.Core.JWTSecret)
	assert.Equal(t, "/etc/cadfield/statuses.yaml", cfg.Core.CatalogFile)
	assert.Equal(t, conf.BackendTypeHTTP, cfg.Backend.Type)
	assert.Equal(t, "https://cad.example.net/", cfg.Backend.BaseURL)
	assert.Equal(t, "key", cfg.Backend.APIKey)
	assert.Equal(t, 7*time.Second, cfg.Backend.RequestTimeout)
	assert.Equal(t, 2*time.Minute, cfg.Backend.PollInterval)
	assert.Equal(t, time.Second, cfg.Backend.StreamRetry)
	assert.Equal(t, 45*time.Second, cfg.Workflow.SubmitTimeout)
	assert.Equal(t, conf.DBStoreTypeMaria, cfg.Store.Type)
	assert.Equal(t, "db", cfg.Store.MariaDB.HostName)
	assert.Equal(t, int32(555), cfg.Store.MariaDB.HostPort)
	assert.Equal(t, "cad", cfg.Store.MariaDB.Database)
	assert.Equal(t, "me", cfg.Store.MariaDB.Username)
	assert.Equal(t, "boo", cfg.Store.MariaDB.Password)
	assert.False(t, cfg.Store.ActionLogEnabled)
	assert.Equal(t, conf.DirectoryTypeDB, cfg.Directory.Directory)
	assert.Equal(t, 15*time.Minute, cfg.Directory.InMemoryCacheTTL)
	assert.Equal(t, time.Hour, cfg.Manifest.CacheTTL)
	assert.Equal(t, 6*time.Hour, cfg.Manifest.StaleGrace)
	assert.Equal(t, conf.AttachmentsStoreS3, cfg.AttachmentsStore.Type)
	assert.Equal(t, "/var/cadfield", cfg.AttachmentsStore.Local.Dir)
	assert.Equal(t, "my name", cfg.AttachmentsStore.S3.AWSAccessKeyID)
	assert.Equal(t, "my key", cfg.AttachmentsStore.S3.AWSSecretAccessKey)
	assert.Equal(t, "ap-southeast-2", cfg.AttachmentsStore.S3.AWSRegion)
	assert.Equal(t, "big-bucket", cfg.AttachmentsStore.S3.Bucket)
	assert.Equal(t, "reports/", cfg.AttachmentsStore.S3.CommonKeyPrefix)
	require.NoError(t, cfg.Validate())
}

func TestRunServer(t *testing.T) {
	t.Parallel()
	cfg := conf.DefaultCAD()

	// this will have the server pick a random port
	cfg.Core.Port = 0
	cfg.Directory.Directory = conf.DirectoryTypeTestOfficers
	cfg.Store.Type = conf.DBStoreTypeNoOp
	cfg.AttachmentsStore.Type = conf.AttachmentsStoreLocal
	cfg.AttachmentsStore.Local.Dir = t.TempDir()

	ctx, cancel := context.WithCancel(t.Context())
	listening := make(chan string, 1)
	exitCode := make(chan int, 1)
	go func() {
		exitCode <- runServerInternal(ctx, cfg, false, listening)
	}()

	addr := <-listening
	assert.Equal(t, 0, runHealthCheckInternal(t.Context(), "http://"+addr))

	cancel()
	select {
	case code := <-exitCode:
		assert.Equal(t, exitShutdown, code)
	case <-time.After(15 * time.Second):
		t.Fatal("server didn't shut down")
	}
}
