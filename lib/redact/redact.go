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

// Package redact prints configuration structs with secret fields blanked out.
//
// A field tagged `redact:"true"` is printed with its name but not its value.
package redact

import (
	"bytes"
	"fmt"
	"io"
	"reflect"
	"slices"
	"strings"
)

const (
	nestIndent   = "    "
	hiddenScalar = "🤐🤐🤐"
	hiddenList   = "[🤐🤐🤐🤐]"
	hiddenStruct = "🤐🤐🤐🤐🤐"
	hiddenElem   = "🤐🤐"
)

// ToBytes renders the struct that pointerToStruct points at, one field per line.
func ToBytes(pointerToStruct any) ([]byte, error) {
	v := reflect.ValueOf(pointerToStruct)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("expected a pointer to a struct, got %v", v.Kind())
	}
	output := &bytes.Buffer{}
	if err := writeStruct(output, v.Elem(), ""); err != nil {
		return nil, fmt.Errorf("[writeStruct]: %w", err)
	}
	return output.Bytes(), nil
}

func writeStruct(w io.Writer, v reflect.Value, indent string) error {
	t := v.Type()
	for i := range v.NumField() {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		hide := strings.EqualFold(field.Tag.Get("redact"), "true")
		if err := writeField(w, field.Name, v.Field(i), hide, indent); err != nil {
			return err
		}
	}
	return nil
}

func writeField(w io.Writer, name string, f reflect.Value, hide bool, indent string) error {
	var err error
	switch f.Kind() {
	case reflect.Struct:
		_, err = fmt.Fprintf(w, "%v%v\n", indent, name)
		if err != nil {
			return err
		}
		if hide {
			_, err = fmt.Fprintf(w, "%v%v\n", indent+nestIndent, hiddenStruct)
			return err
		}
		return writeStruct(w, f, indent+nestIndent)
	case reflect.Pointer:
		if f.IsNil() {
			_, err = fmt.Fprintf(w, "%v%v = <nil>\n", indent, name)
			return err
		}
		if f.Elem().Kind() == reflect.Struct && !isStringer(f) {
			return writeField(w, name, f.Elem(), hide, indent)
		}
		return writeScalar(w, name, f, hide, indent)
	case reflect.Slice, reflect.Array:
		return writeList(w, name, f, hide, indent)
	case reflect.Map:
		return writeMap(w, name, f, hide, indent)
	case reflect.String, reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32,
		reflect.Int64, reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Uintptr, reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return writeScalar(w, name, f, hide, indent)
	case reflect.Invalid, reflect.Chan, reflect.Func, reflect.Interface, reflect.UnsafePointer:
		fallthrough
	default:
		return fmt.Errorf("unsupported field kind: %v", f.Kind().String())
	}
}

func isStringer(v reflect.Value) bool {
	_, ok := v.Interface().(fmt.Stringer)
	return ok
}

func writeScalar(w io.Writer, name string, f reflect.Value, hide bool, indent string) error {
	printVal := hiddenScalar
	if !hide {
		printVal = fmt.Sprint(f.Interface())
	}
	_, err := fmt.Fprintf(w, "%v%v = %v\n", indent, name, printVal)
	return err
}

func writeList(w io.Writer, name string, f reflect.Value, hide bool, indent string) error {
	if f.Type().Elem().Kind() != reflect.Struct {
		printVal := hiddenList
		if !hide {
			printVal = fmt.Sprint(f.Interface())
		}
		_, err := fmt.Fprintf(w, "%v%v = %v\n", indent, name, printVal)
		return err
	}
	for j := range f.Len() {
		if _, err := fmt.Fprintf(w, "%v%v[%d]\n", indent, name, j); err != nil {
			return err
		}
		var err error
		if hide {
			_, err = fmt.Fprintf(w, "%v%v\n", indent+nestIndent, hiddenElem)
		} else {
			err = writeStruct(w, f.Index(j), indent+nestIndent)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// writeMap prints map entries in key order. Redacting a map hides its values, not its keys.
func writeMap(w io.Writer, name string, f reflect.Value, hide bool, indent string) error {
	keys := f.MapKeys()
	slices.SortFunc(keys, func(a, b reflect.Value) int {
		return strings.Compare(fmt.Sprint(a.Interface()), fmt.Sprint(b.Interface()))
	})
	for _, k := range keys {
		entryName := fmt.Sprintf("%v[%v]", name, k.Interface())
		if err := writeField(w, entryName, f.MapIndex(k), hide, indent); err != nil {
			return err
		}
	}
	return nil
}
