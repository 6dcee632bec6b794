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
	"fmt"
	"github.com/fieldcad/cadfield/conf"
	"github.com/fieldcad/cadfield/lib/conv"
	"github.com/joho/godotenv"
	"log/slog"
	"os"
	"strings"
	"time"
)

// mustApplyEnvConfig reads in the .env file and ENV variables and applies those to baseCfg.
func mustApplyEnvConfig(baseCfg *conf.CADConfig, envFileName string) *conf.CADConfig {
	err := godotenv.Load(envFileName)

	if err != nil && !os.IsNotExist(err) {
		must(err)
	}
	if os.IsNotExist(err) {
		// if it's not the default
		if envFileName != envFileDefaultName {
			must(fmt.Errorf("envfile '%v' was set by the caller, but the file was not found", envFileName))
		}
		slog.Info("No .env file found. Carrying on with CADConfig defaults and environment variable overrides")
	}

	if v, ok := lookupEnv("CAD_HOSTNAME"); ok {
		baseCfg.Core.Host = v
	}
	if v, ok := lookupEnv("CAD_PORT"); ok {
		baseCfg.Core.Port, err = conv.ParseInt32(v)
		must(err)
	}
	if v, ok := lookupEnv("CAD_DEPLOYMENT"); ok {
		baseCfg.Core.Deployment = conf.DeploymentType(strings.ToLower(v))
	}
	// Durations must carry a unit, e.g. "20s" or "5m10s". A bare number fails to parse.
	if v, ok := lookupEnv("CAD_REFRESH_TOKEN_LIFETIME"); ok {
		baseCfg.Core.RefreshTokenLifetime = mustDuration(v)
	}
	if v, ok := lookupEnv("CAD_ACCESS_TOKEN_LIFETIME"); ok {
		baseCfg.Core.AccessTokenLifetime = mustDuration(v)
	}
	if v, ok := lookupEnv("CAD_CACHE_CONTROL_SHORT"); ok {
		baseCfg.Core.CacheControlShort = mustDuration(v)
	}
	if v, ok := lookupEnv("CAD_MAX_REQUEST_BYTES"); ok {
		baseCfg.Core.MaxRequestBytes, err = conv.ParseInt64(v)
		must(err)
	}
	if v, ok := lookupEnv("CAD_LOG_LEVEL"); ok {
		baseCfg.Core.LogLevel = v
	}
	if v, ok := lookupEnv("CAD_SUPERVISORS"); ok {
		baseCfg.Core.Supervisors = strings.Split(v, ",")
	}
	if v, ok := lookupEnv("CAD_JWT_SECRET"); ok {
		baseCfg.Core.JWTSecret = v
	}
	if v, ok := lookupEnv("CAD_CATALOG_FILE"); ok {
		baseCfg.Core.CatalogFile = v
	}

	if v, ok := lookupEnv("CAD_BACKEND"); ok {
		baseCfg.Backend.Type = conf.BackendType(strings.ToLower(v))
	}
	if v, ok := lookupEnv("CAD_BACKEND_URL"); ok {
		baseCfg.Backend.BaseURL = v
	}
	if v, ok := lookupEnv("CAD_BACKEND_API_KEY"); ok {
		baseCfg.Backend.APIKey = v
	}
	if v, ok := lookupEnv("CAD_BACKEND_REQUEST_TIMEOUT"); ok {
		baseCfg.Backend.RequestTimeout = mustDuration(v)
	}
	if v, ok := lookupEnv("CAD_BACKEND_POLL_INTERVAL"); ok {
		baseCfg.Backend.PollInterval = mustDuration(v)
	}
	if v, ok := lookupEnv("CAD_BACKEND_STREAM_RETRY"); ok {
		baseCfg.Backend.StreamRetry = mustDuration(v)
	}
	if v, ok := lookupEnv("CAD_SUBMIT_TIMEOUT"); ok {
		baseCfg.Workflow.SubmitTimeout = mustDuration(v)
	}

	if v, ok := lookupEnv("CAD_DB_STORE_TYPE"); ok {
		baseCfg.Store.Type = conf.DBStoreType(strings.ToLower(v))
	}
	if v, ok := lookupEnv("CAD_DB_HOST_NAME"); ok {
		baseCfg.Store.MariaDB.HostName = v
	}
	if v, ok := lookupEnv("CAD_DB_HOST_PORT"); ok {
		baseCfg.Store.MariaDB.HostPort, err = conv.ParseInt32(v)
		must(err)
	}
	if v, ok := lookupEnv("CAD_DB_DATABASE"); ok {
		baseCfg.Store.MariaDB.Database = v
	}
	if v, ok := lookupEnv("CAD_DB_USER_NAME"); ok {
		baseCfg.Store.MariaDB.Username = v
	}
	if v, ok := lookupEnv("CAD_DB_PASSWORD"); ok {
		baseCfg.Store.MariaDB.Password = v
	}
	if v, ok := lookupEnv("CAD_ACTION_LOG_ENABLED"); ok {
		baseCfg.Store.ActionLogEnabled, err = conv.ParseBool(v)
		must(err)
	}

	if v, ok := lookupEnv("CAD_DIRECTORY"); ok {
		baseCfg.Directory.Directory = conf.DirectoryType(strings.ToLower(v))
	}
	if v, ok := lookupEnv("CAD_DIRECTORY_CACHE_TTL"); ok {
		baseCfg.Directory.InMemoryCacheTTL = mustDuration(v)
	}
	if v, ok := lookupEnv("CAD_MANIFEST_CACHE_TTL"); ok {
		baseCfg.Manifest.CacheTTL = mustDuration(v)
	}
	if v, ok := lookupEnv("CAD_MANIFEST_STALE_GRACE"); ok {
		baseCfg.Manifest.StaleGrace = mustDuration(v)
	}

	if v, ok := lookupEnv("CAD_ATTACHMENTS_STORE"); ok {
		baseCfg.AttachmentsStore.Type = conf.AttachmentsStoreType(strings.ToLower(v))
	}
	if v, ok := lookupEnv("CAD_ATTACHMENTS_LOCAL_DIR"); ok {
		baseCfg.AttachmentsStore.Local.Dir = v
	}
	// These three AWS env vars use the standard names, hence no "CAD_" prefix.
	if v, ok := lookupEnv("AWS_ACCESS_KEY_ID"); ok {
		baseCfg.AttachmentsStore.S3.AWSAccessKeyID = v
	}
	if v, ok := lookupEnv("AWS_SECRET_ACCESS_KEY"); ok {
		baseCfg.AttachmentsStore.S3.AWSSecretAccessKey = v
	}
	if v, ok := lookupEnv("AWS_REGION"); ok {
		baseCfg.AttachmentsStore.S3.AWSRegion = v
	}
	if v, ok := lookupEnv("CAD_ATTACHMENTS_S3_BUCKET"); ok {
		baseCfg.AttachmentsStore.S3.Bucket = v
	}
	if v, ok := lookupEnv("CAD_ATTACHMENTS_S3_COMMON_KEY_PREFIX"); ok {
		baseCfg.AttachmentsStore.S3.CommonKeyPrefix = v
	}

	return baseCfg
}

func mustDuration(v string) time.Duration {
	d, err := time.ParseDuration(v)
	must(err)
	return d
}

func lookupEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	// `docker run --env-file .env` passes values through with their double-quotes still on.
	// https://github.com/docker/cli/issues/3630
	if strings.HasPrefix(v, "\"") && strings.HasSuffix(v, "\"") {
		v = v[1 : len(v)-1]
	}
	return v, true
}
