package config

import (
	"errors"
	"reflect"
)

// MergeConfig 将 src 中的非零值深度合并到 dst 并返回 dst
//
// dst 为 nil 时返回 src，src 为 nil 时返回 dst，两者都为 nil 返回错误。
// 结构体逐字段合并，map 逐键合并，切片整体覆盖，指针按指向的值合并。
// 零值（包括 false 和 0）不会覆盖 dst，因此默认值为 true 的开关无法通过 src 关闭。
func MergeConfig[T any](dst, src *T) (*T, error) {
	switch {
	case dst == nil && src == nil:
		return nil, errors.New("config: both dst and src are nil")
	case dst == nil:
		return src, nil
	case src == nil:
		return dst, nil
	}

	mergeValue(reflect.ValueOf(dst).Elem(), reflect.ValueOf(src).Elem())
	return dst, nil
}

func mergeValue(dst, src reflect.Value) {
	if !src.IsValid() || src.IsZero() || isEmptyContainer(src) {
		return
	}

	switch dst.Kind() {
	case reflect.Struct:
		t := src.Type()
		for i := 0; i < t.NumField(); i++ {
			if !t.Field(i).IsExported() {
				continue
			}
			if f := dst.Field(i); f.CanSet() {
				mergeValue(f, src.Field(i))
			}
		}

	case reflect.Map:
		if dst.IsNil() {
			dst.Set(reflect.MakeMapWithSize(dst.Type(), src.Len()))
		}
		iter := src.MapRange()
		for iter.Next() {
			existing := dst.MapIndex(iter.Key())
			if !existing.IsValid() {
				dst.SetMapIndex(iter.Key(), iter.Value())
				continue
			}
			merged := reflect.New(dst.Type().Elem()).Elem()
			merged.Set(existing)
			mergeValue(merged, iter.Value())
			dst.SetMapIndex(iter.Key(), merged)
		}

	case reflect.Pointer:
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		mergeValue(dst.Elem(), src.Elem())

	default:
		if dst.CanSet() {
			dst.Set(src)
		}
	}
}

// isEmptyContainer 长度为 0 的非 nil 切片或 map 同样视为未设置
func isEmptyContainer(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	}
	return false
}
