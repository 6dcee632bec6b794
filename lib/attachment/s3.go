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

// Package attachment stores report attachments, either in S3 or in a local directory.
package attachment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"io"
	"log/slog"
	"time"
)

// S3Funcs is the part of the S3 API the S3 store uses. *s3.Client implements it.
type S3Funcs interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

var _ S3Funcs = (*s3.Client)(nil)

// S3 stores attachments as objects in one bucket, each key prefixed with CommonKeyPrefix.
type S3 struct {
	S3Funcs         S3Funcs
	Bucket          string
	CommonKeyPrefix string
}

// NewS3 creates an S3 store using the default AWS config chain for credentials and region.
func NewS3(ctx context.Context, bucket, commonKeyPrefix string) (*S3, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("[LoadDefaultConfig]: %w", err)
	}
	return &S3{
		S3Funcs:         s3.NewFromConfig(cfg),
		Bucket:          bucket,
		CommonKeyPrefix: commonKeyPrefix,
	}, nil
}

func (c *S3) Put(ctx context.Context, key, contentType string, file io.Reader) error {
	start := time.Now()
	_, err := c.S3Funcs.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.Bucket),
		Key:         aws.String(c.CommonKeyPrefix + key),
		Body:        file,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("[PutObject]: %w", err)
	}
	slog.Debug("Uploaded attachment to S3", "key", key, "duration", time.Since(start))
	return nil
}

// Get reads an attachment. A missing key is exists == false with a nil error.
func (c *S3) Get(ctx context.Context, key string) (file io.ReadSeeker, exists bool, err error) {
	start := time.Now()
	output, err := c.S3Funcs.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.Bucket),
		Key:    aws.String(c.CommonKeyPrefix + key),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchKey" {
			slog.Debug("No such key in S3", "bucket", c.Bucket, "key", key)
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("[GetObject]: %w", err)
	}
	defer output.Body.Close()

	// whole object in memory, so callers can use http.ServeContent
	buf := bytes.Buffer{}
	_, err = io.Copy(&buf, output.Body)
	slog.Debug("Read attachment from S3", "key", key, "duration", time.Since(start))
	if err != nil {
		return nil, true, fmt.Errorf("[io.Copy]: %w", err)
	}
	return bytes.NewReader(buf.Bytes()), true, nil
}
