package util

import (
	"fmt"
	"reflect"
)

// IsStructInitialized reports an error for the first nil pointer, interface, map, slice, func or chan field of
// the struct pointed to by s. Fields tagged `wire:"-"` are skipped as they are set up after injection.
func IsStructInitialized(s any) error {
	val := reflect.ValueOf(s)
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return fmt.Errorf("struct is nil")
		}
		val = val.Elem()
	}

	if val.Kind() != reflect.Struct {
		return fmt.Errorf("expected struct, got %s", val.Kind())
	}

	typ := val.Type()
	for i := 0; i < val.NumField(); i++ {
		field := typ.Field(i)
		if field.Tag.Get("wire") == "-" || !field.IsExported() {
			continue
		}

		//nolint:exhaustive
		switch val.Field(i).Kind() {
		case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			if val.Field(i).IsNil() {
				return fmt.Errorf("struct field %q is not initialized", field.Name)
			}
		}
	}

	return nil
}
