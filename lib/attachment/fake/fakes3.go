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

// Package fake is an in-memory S3 for attachment tests.
package fake

import (
	"bytes"
	"context"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/fieldcad/cadfield/lib/attachment"
	"io"
	"sync"
)

type S3Funcs struct {
	mu      sync.Mutex
	objects map[BucketAndKey][]byte
}

type BucketAndKey struct {
	Bucket string
	Key    string
}

func NewS3Funcs() *S3Funcs {
	return &S3Funcs{
		objects: make(map[BucketAndKey][]byte),
	}
}

func (s *S3Funcs) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	b, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[BucketAndKey{*params.Bucket, *params.Key}] = b
	return &s3.PutObjectOutput{}, nil
}

func (s *S3Funcs) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[BucketAndKey{*params.Bucket, *params.Key}]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body: io.NopCloser(bytes.NewReader(obj)),
	}, nil
}

// Keys lists the stored objects.
func (s *S3Funcs) Keys() []BucketAndKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]BucketAndKey, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	return keys
}

// force the fake to implement the interface.
var _ attachment.S3Funcs = (*S3Funcs)(nil)
