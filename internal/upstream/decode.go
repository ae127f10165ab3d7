package upstream

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// listResult is a decoded list body. Elements that are not JSON objects are counted in
// Malformed and left out of Items; objects are always kept.
type listResult[T any] struct {
	Items     []T
	Malformed int
	NotAList  bool
}

func decodeList[T any](data []byte) (listResult[T], error) {
	var res listResult[T]

	data = bytes.TrimSpace(data)
	if !json.Valid(data) {
		return res, fmt.Errorf("response body is not valid JSON")
	}
	if len(data) == 0 || data[0] != '[' {
		res.NotAList = true
		res.Items = []T{}
		return res, nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return res, fmt.Errorf("decode list: %w", err)
	}

	res.Items = make([]T, 0, len(elems))
	for _, elem := range elems {
		if !isObject(elem) {
			res.Malformed++
			continue
		}
		var item T
		if err := json.Unmarshal(elem, &item); err != nil {
			res.Malformed++
			continue
		}
		res.Items = append(res.Items, item)
	}
	return res, nil
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}
