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

package attachment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// Local stores attachments as files in one directory. Keys can't escape the directory.
type Local struct {
	dir *os.Root
}

func NewLocal(dir string) (*Local, error) {
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("[os.OpenRoot]: %w", err)
	}
	return &Local{dir: root}, nil
}

func (l *Local) Put(_ context.Context, key, _ string, file io.Reader) (err error) {
	out, err := l.dir.OpenFile(key, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return fmt.Errorf("[OpenFile]: %w", err)
	}
	defer func() {
		err = errors.Join(err, out.Close())
	}()
	if _, err = io.Copy(out, file); err != nil {
		return fmt.Errorf("[io.Copy]: %w", err)
	}
	return nil
}

func (l *Local) Get(_ context.Context, key string) (file io.ReadSeeker, exists bool, err error) {
	f, err := l.dir.Open(key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("[Open]: %w", err)
	}
	return f, true, nil
}

func (l *Local) Close() error {
	return l.dir.Close()
}
