package codec

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"
)

// ErrInvalidUTF8 is returned when a string in the value is not valid UTF-8.
// JSON would replace the bad bytes with U+FFFD, so the value could not be
// read back unchanged. Store raw bytes as []byte instead.
var ErrInvalidUTF8 = errors.New("string is not valid UTF-8")

// checkUTF8 walks the parts of v that encoding/json serializes and fails on
// the first string that is not valid UTF-8. It must only be called on values
// json.Marshal accepted, so it never meets a reference cycle.
func checkUTF8(v reflect.Value, path string) error {
	switch v.Kind() {
	case reflect.String:
		if !utf8.ValidString(v.String()) {
			return fmt.Errorf("%w at %s", ErrInvalidUTF8, path)
		}
	case reflect.Pointer, reflect.Interface:
		if !v.IsNil() {
			return checkUTF8(v.Elem(), path)
		}
	case reflect.Slice, reflect.Array:
		// []byte is base64 in JSON and survives exactly.
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return nil
		}
		for i := 0; i < v.Len(); i++ {
			if err := checkUTF8(v.Index(i), fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			k := iter.Key()
			if k.Kind() == reflect.String && !utf8.ValidString(k.String()) {
				return fmt.Errorf("%w in map key at %s", ErrInvalidUTF8, path)
			}
			if err := checkUTF8(iter.Value(), fmt.Sprintf("%s[%v]", path, k)); err != nil {
				return err
			}
		}
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() && !f.Anonymous {
				continue
			}
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				continue
			}
			if name == "" {
				name = f.Name
			}
			if err := checkUTF8(v.Field(i), path+"."+name); err != nil {
				return err
			}
		}
	}
	return nil
}
