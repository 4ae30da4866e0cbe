package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// ComputeKey 依請求參數產生標準化指紋。
//
// 參數先序列化為 JSON，物件鍵依字典序輸出，所有陣列元素排序後再計算 SHA-256，
// 因此只差在清單順序的兩個請求會得到相同的 key。namespace 用來隔離不同呼叫點。
func ComputeKey(namespace string, params interface{}) (string, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cache params: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic interface{}
	if err := dec.Decode(&generic); err != nil {
		return "", fmt.Errorf("failed to decode cache params: %w", err)
	}

	canonical, err := canonicalize(generic)
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(canonical)
	if err != nil {
		return "", fmt.Errorf("failed to marshal canonical params: %w", err)
	}

	hash := sha256.Sum256(data)
	return namespace + ":" + hex.EncodeToString(hash[:]), nil
}

func canonicalize(v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			c, err := canonicalize(val)
			if err != nil {
				return nil, err
			}
			out[k] = c
		}
		return out, nil
	case []interface{}:
		type item struct {
			value   interface{}
			encoded string
		}
		items := make([]item, 0, len(t))
		for _, val := range t {
			c, err := canonicalize(val)
			if err != nil {
				return nil, err
			}
			enc, err := json.Marshal(c)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal list element: %w", err)
			}
			items = append(items, item{value: c, encoded: string(enc)})
		}
		sort.Slice(items, func(i, j int) bool { return items[i].encoded < items[j].encoded })
		out := make([]interface{}, len(items))
		for i, it := range items {
			out[i] = it.value
		}
		return out, nil
	default:
		return v, nil
	}
}
