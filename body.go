package client

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/bytedance/sonic"
)

// jsonAPI leaves HTML characters and non-ASCII text unescaped.
var jsonAPI = sonic.ConfigDefault

const bodyIndent = "    "

// encodeBody serialises a request body as indented JSON. A nil body yields no
// bytes at all, so nothing is sent.
func encodeBody(p *Params) ([]byte, error) {
	if p == nil {
		return nil, nil
	}

	raw, err := jsonAPI.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", bodyIndent); err != nil {
		return nil, fmt.Errorf("failed to indent request body: %w", err)
	}

	return buf.Bytes(), nil
}

// decodeBody parses a response body. Anything that is not a JSON value, and
// a JSON null, decodes to an empty object.
func decodeBody(body string) any {
	var v any
	if err := jsonAPI.UnmarshalFromString(body, &v); err != nil || v == nil {
		return map[string]any{}
	}

	return v
}
