package loader

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/tidwall/jsonc"
)

// ParseJSON parses JSON data into a map. Comments and trailing commas are
// allowed. Numbers are kept as float64.
func ParseJSON(source string, data []byte) (map[string]any, error) {
	// ToJSON keeps the input length, so error offsets still point into data.
	stripped := jsonc.ToJSON(data)
	if len(bytes.TrimSpace(stripped)) == 0 {
		return make(map[string]any), nil
	}

	var config map[string]any
	if err := json.Unmarshal(stripped, &config); err != nil {
		perr := &ParseError{Path: source, Message: err.Error(), Err: err}
		var serr *json.SyntaxError
		var terr *json.UnmarshalTypeError
		switch {
		case errors.As(err, &serr):
			perr.Line, perr.Column = position(data, serr.Offset)
		case errors.As(err, &terr):
			perr.Line, perr.Column = position(data, terr.Offset)
		}
		return nil, perr
	}
	if config == nil {
		config = make(map[string]any)
	}
	return config, nil
}
