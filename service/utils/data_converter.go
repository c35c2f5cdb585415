/**
 * @module data_converter
 * @description 字段读取工具，按别名顺序从解码后的 JSON 对象中读取并转换字段
 * @architecture 工具函数模式，无状态
 * @stateFlow 原始 JSON -> Fields -> 类型化取值
 * @rules
 *   - 取值函数从不 panic，字段缺失或类型不符时返回 ok=false
 *   - 别名按给定顺序尝试，第一个可用的值胜出
 *   - null 视同字段缺失
 * @dependencies
 *   - github.com/spf13/cast: 类型转换
 * @refs
 *   - service/asset, service/inspection, service/notification: 结构规范化
 */

package utils

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strings"

	"github.com/spf13/cast"
)

// Fields 解码后的 JSON 对象
type Fields map[string]interface{}

// DecodeFields 解码 JSON 对象，非对象（数组、标量、非法 JSON）返回 false
func DecodeFields(raw []byte) (Fields, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}
	var f Fields
	if err := json.Unmarshal(trimmed, &f); err != nil || f == nil {
		return nil, false
	}
	return f, true
}

// AsFields 将任意解码值视为对象
func AsFields(v interface{}) (Fields, bool) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, false
	}
	return Fields(m), true
}

// Has 任一键存在且非 null
func (f Fields) Has(keys ...string) bool {
	for _, k := range keys {
		if v, ok := f[k]; ok && v != nil {
			return true
		}
	}
	return false
}

// Lookup 返回第一个存在且非 null 的值
func (f Fields) Lookup(keys ...string) (interface{}, bool) {
	for _, k := range keys {
		if v, ok := f[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// StrictString 仅接受 JSON 字符串
func (f Fields) StrictString(keys ...string) (string, bool) {
	for _, k := range keys {
		if s, ok := f[k].(string); ok {
			return s, true
		}
	}
	return "", false
}

// String 接受字符串与数字，数字按最短形式格式化
func (f Fields) String(keys ...string) (string, bool) {
	for _, k := range keys {
		switch v := f[k].(type) {
		case string:
			return v, true
		case float64, json.Number:
			if s, err := cast.ToStringE(v); err == nil {
				return s, true
			}
		}
	}
	return "", false
}

// NonEmptyString 仅接受非空 JSON 字符串，空串视同缺失
func (f Fields) NonEmptyString(keys ...string) (string, bool) {
	for _, k := range keys {
		if s, ok := f[k].(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

// StringOr 读取字符串，缺失时返回默认值
func (f Fields) StringOr(def string, keys ...string) string {
	if s, ok := f.String(keys...); ok {
		return s
	}
	return def
}

// Int64 接受 JSON 数字与数字字符串；非整数与布尔值不接受
func (f Fields) Int64(keys ...string) (int64, bool) {
	for _, k := range keys {
		switch v := f[k].(type) {
		case float64:
			if v == math.Trunc(v) && !math.IsInf(v, 0) {
				return int64(v), true
			}
		case json.Number, string:
			s := strings.TrimSpace(cast.ToString(v))
			if n, err := cast.ToInt64E(s); err == nil && s != "" {
				return n, true
			}
		}
	}
	return 0, false
}

// Number 仅接受 JSON 数字
func (f Fields) Number(keys ...string) (float64, bool) {
	for _, k := range keys {
		if n, ok := f[k].(float64); ok {
			return n, true
		}
	}
	return 0, false
}

// StrictBool 仅接受 JSON 布尔值
func (f Fields) StrictBool(keys ...string) (bool, bool) {
	for _, k := range keys {
		if b, ok := f[k].(bool); ok {
			return b, true
		}
	}
	return false, false
}

// Objects 读取对象数组，非对象元素被跳过；字段不是数组时返回 false
func (f Fields) Objects(key string) ([]Fields, bool) {
	arr, ok := f[key].([]interface{})
	if !ok {
		return nil, false
	}
	out := make([]Fields, 0, len(arr))
	for _, el := range arr {
		if obj, ok := AsFields(el); ok {
			out = append(out, obj)
		}
	}
	return out, true
}

// OrderedKeys 按文档顺序返回 JSON 对象的顶层键
func OrderedKeys(raw []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("不是JSON对象")
	}

	var keys []string
	seen := make(map[string]bool)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, errors.New("非法的对象键")
		}
		// 跳过值
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	return keys, nil
}
