// Package env fills tagged config structs from the process environment.
//
//	type Engine struct {
//		MaxIterations int `env:"RECUR_MAX_ITERATIONS" default:"1000"`
//	}
//
// A default applies only when the variable is unset; an empty value is decoded
// as given. Untagged struct fields are walked as nested sections.
package env

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var (
	ErrNotStructPointer = errors.New("env: target must be a non-nil pointer to a struct")
	ErrUnsupportedType  = errors.New("env: unsupported field type")
)

// Validator is implemented by config sections that check themselves once filled.
type Validator interface {
	Validate() error
}

// FieldError reports a variable whose value could not be decoded into its field.
type FieldError struct {
	Var   string
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s=%q: cannot set %s: %v", e.Var, e.Value, e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// decoders handle field types whose kind alone does not say how to parse them.
// Struct types listed here are leaves, not sections.
var decoders = map[reflect.Type]func(string) (any, error){
	reflect.TypeFor[time.Duration](): func(s string) (any, error) { return time.ParseDuration(s) },
	reflect.TypeFor[[]string]():      func(s string) (any, error) { return splitList(s), nil },
}

// Load fills target from the environment and then runs Validate on every
// section that has one, innermost first.
func Load(target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w, got %T", ErrNotStructPointer, target)
	}
	return fill(rv.Elem())
}

func fill(section reflect.Value) error {
	st := section.Type()
	for i := range st.NumField() {
		sf, fv := st.Field(i), section.Field(i)
		if !fv.CanSet() {
			continue
		}

		if _, leaf := decoders[fv.Type()]; fv.Kind() == reflect.Struct && !leaf {
			if err := fill(fv); err != nil {
				return err
			}
			continue
		}

		name := sf.Tag.Get("env")
		if name == "" {
			continue
		}
		raw, ok := os.LookupEnv(name)
		if !ok {
			if raw, ok = sf.Tag.Lookup("default"); !ok {
				continue
			}
		}
		if err := decode(fv, raw); err != nil {
			return &FieldError{Var: name, Field: sf.Name, Value: raw, Err: err}
		}
	}

	if v, ok := section.Addr().Interface().(Validator); ok {
		return v.Validate()
	}
	return nil
}

func decode(field reflect.Value, raw string) error {
	if dec, ok := decoders[field.Type()]; ok {
		v, err := dec(raw)
		if err != nil {
			return err
		}
		field.Set(reflect.ValueOf(v).Convert(field.Type()))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetUint(n)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedType, field.Type())
	}
	return nil
}

// splitList reads a comma-separated list, dropping blank items.
func splitList(s string) []string {
	var items []string
	for item := range strings.SplitSeq(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
