package rpc

import (
	"bytes"
	"encoding/json"
)

// UnwrapProxyBody returns the payload of proxies that wrap the upstream
// response as {"contents": "..."}. Other bodies are returned unchanged.
func UnwrapProxyBody(body []byte) []byte {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' || !bytes.Contains(trimmed, []byte(`"contents"`)) {
		return body
	}

	var wrapped struct {
		Contents *string `json:"contents"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil || wrapped.Contents == nil {
		return body
	}
	return []byte(*wrapped.Contents)
}
