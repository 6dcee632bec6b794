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
	"errors"
	"fmt"
	"github.com/google/uuid"
	"io"
	"mime"
	"net/http"
)

// sniffLen must be at least http.DetectContentType's limit.
const sniffLen = 512

// Sniff detects the content type of file from its first bytes, rather than trusting
// whatever a client claims.
func Sniff(file io.ReaderAt) (contentType, extension string, err error) {
	head := make([]byte, sniffLen)
	n, err := file.ReadAt(head, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", "", fmt.Errorf("[ReadAt]: %w", err)
	}
	contentType = http.DetectContentType(head[:n])
	return contentType, ExtensionByType(contentType), nil
}

// ExtensionByType gives the usual file extension for a MIME type, or "".
func ExtensionByType(contentType string) string {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if mediaType == "" {
		return ""
	}
	// mime.ExtensionsByType's first choice is often odd, e.g. ".jpe"
	switch mediaType {
	case "image/jpeg":
		return ".jpg"
	case "text/html":
		return ".html"
	case "text/plain":
		return ".txt"
	case "video/mp4":
		return ".mp4"
	default:
		extensions, _ := mime.ExtensionsByType(mediaType)
		if len(extensions) > 0 {
			return extensions[0]
		}
	}
	return ""
}

// NewKey generates a unique key for an attachment on an incident.
func NewKey(incidentID, extension string) string {
	return fmt.Sprintf("incident_%v_%v%v", incidentID, uuid.NewString(), extension)
}
