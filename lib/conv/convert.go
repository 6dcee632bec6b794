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

// Package conv converts between Go values and their database and environment encodings.
package conv

import (
	"database/sql"
	"math"
	"strconv"
	"strings"
	"time"
)

type IntLike interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

func FormatInt[T IntLike](i T) string {
	return strconv.FormatInt(int64(i), 10)
}

func ParseInt32(s string) (int32, error) {
	i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, err
	}
	return int32(i), nil
}

func ParseInt64(s string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
}

// MustInt32 converts an int64 into an int32, and it panics if this would cause
// an overflow. This is intended for use when the input is known to be within
// bounds, because panics are bad.
func MustInt32(i int64) int32 {
	if i < math.MinInt32 || i > math.MaxInt32 {
		panic("int32 overflow")
	}
	return int32(i)
}

func SqlToString(v sql.NullString) string {
	if v.Valid {
		return v.String
	}
	return ""
}

// StringToSql converts a string into a sql.NullString, with "" becoming NULL.
//
// The string will be truncated at maxLength bytes, if maxLength > 0, without splitting
// a UTF-8 sequence.
func StringToSql(s string, maxLength int) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	if maxLength > 0 && len(s) > maxLength {
		s = strings.ToValidUTF8(s[:maxLength], "")
	}
	return sql.NullString{String: s, Valid: true}
}

// FloatToTime converts the float number of seconds since Unix epoch into a time.Time.
func FloatToTime(f float64) time.Time {
	return time.Unix(int64(f), int64(f*1e9)%1e9)
}

// TimeToFloat converts a time.Time into the float number of seconds since Unix epoch.
func TimeToFloat(t time.Time) float64 {
	decimalPart := float64(t.Nanosecond()) / 1e9
	return decimalPart + float64(t.Unix())
}

// ParseBool accepts the usual strconv forms plus "yes" and "no".
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "on":
		return true, nil
	case "no", "n", "off":
		return false, nil
	}
	return strconv.ParseBool(strings.TrimSpace(s))
}
