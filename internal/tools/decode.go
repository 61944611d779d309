package tools

import (
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"
)

var decimalType = reflect.TypeOf(decimal.Decimal{})

// decimalHook converts JSON numbers and strings into decimal.Decimal so
// money fields never pass through a float64 representation the caller can
// see. JSON unmarshaling upstream produces float64 for numbers; the hook
// re-renders via the shortest round-trip string.
func decimalHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != decimalType {
		return data, nil
	}
	switch v := data.(type) {
	case float64:
		return decimal.NewFromFloat(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, fmt.Errorf("invalid decimal value %q", v)
		}
		return d, nil
	default:
		return data, nil
	}
}

// decodeArgs decodes a raw argument map into a typed struct. Unknown keys
// are ignored; type mismatches fail so malformed arguments surface as
// invalid-params errors at the transport layer rather than zero values.
func decodeArgs(input interface{}, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:     out,
		TagName:    "mapstructure",
		DecodeHook: mapstructure.ComposeDecodeHookFunc(decimalHook),
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

// argString reads an optional string argument.
func argString(args map[string]interface{}, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

// argBool reads an optional bool argument.
func argBool(args map[string]interface{}, key string) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return false
}

// argInt reads an optional integer argument; JSON numbers arrive as
// float64.
func argInt(args map[string]interface{}, key string) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

// argDecimal reads an optional numeric argument as a decimal. JSON numbers
// arrive as float64; strings are accepted for exact amounts.
func argDecimal(args map[string]interface{}, key string) (decimal.Decimal, bool) {
	switch v := args[key].(type) {
	case float64:
		return decimal.NewFromFloat(v), true
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Decimal{}, false
		}
		return d, true
	default:
		return decimal.Decimal{}, false
	}
}

// argMap reads an optional object argument.
func argMap(args map[string]interface{}, key string) map[string]interface{} {
	if v, ok := args[key].(map[string]interface{}); ok {
		return v
	}
	return nil
}
