package store

import (
	"encoding/json"
)

// CanonicalJSON 将任意 JSON 重新编码为键有序、无多余空白的形式
func CanonicalJSON(raw []byte) (string, error) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", err
	}
	out, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// sameShape 比较原始记录与规范化结果的规范序列化
func sameShape(raw []byte, normalized interface{}) bool {
	before, err := CanonicalJSON(raw)
	if err != nil {
		return false
	}
	encoded, err := json.Marshal(normalized)
	if err != nil {
		return false
	}
	after, err := CanonicalJSON(encoded)
	if err != nil {
		return false
	}
	return before == after
}
