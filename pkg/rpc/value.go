package rpc

import (
	"fmt"
	"math"

	"github.com/devdesc/devdesc-go/pkg/variant"
)

func toNative(v variant.Variant) any {
	switch v.Kind() {
	case variant.KindBoolean:
		return v.BoolValue()
	case variant.KindInteger:
		return v.IntValue()
	case variant.KindFloat:
		return v.FloatValue()
	case variant.KindString:
		return v.StringValue()
	case variant.KindBinary:
		b := v.BinaryValue()
		if b == nil {
			b = []byte{}
		}
		return b
	case variant.KindArray:
		items := make([]any, len(v.Items()))
		for i, item := range v.Items() {
			items[i] = toNative(item)
		}
		return items
	case variant.KindStruct:
		fields := make(map[string]any, len(v.Fields()))
		for k, f := range v.Fields() {
			fields[k] = toNative(f)
		}
		return fields
	default:
		return nil
	}
}

func fromNative(x any) (variant.Variant, error) {
	switch t := x.(type) {
	case nil:
		return variant.Void(), nil
	case bool:
		return variant.Bool(t), nil
	case int64:
		return variant.Int(t), nil
	case uint64:
		if t > math.MaxInt64 {
			return variant.Void(), fmt.Errorf("integer %d overflows int64", t)
		}
		return variant.Int(int64(t)), nil
	case float32:
		return variant.Float(float64(t)), nil
	case float64:
		return variant.Float(t), nil
	case string:
		return variant.String(t), nil
	case []byte:
		return variant.Binary(t), nil
	case []any:
		items := make([]variant.Variant, len(t))
		for i, item := range t {
			v, err := fromNative(item)
			if err != nil {
				return variant.Void(), fmt.Errorf("array item %d: %w", i, err)
			}
			items[i] = v
		}
		return variant.Array(items...), nil
	case map[string]any:
		fields := make(map[string]variant.Variant, len(t))
		for k, f := range t {
			v, err := fromNative(f)
			if err != nil {
				return variant.Void(), fmt.Errorf("struct field %q: %w", k, err)
			}
			fields[k] = v
		}
		return variant.Struct(fields), nil
	default:
		return variant.Void(), fmt.Errorf("unsupported rpc value type %T", x)
	}
}
