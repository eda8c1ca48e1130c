package config

import (
	"fmt"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
	"github.com/shopspring/decimal"
)

var decimalType = reflect.TypeOf(decimal.Decimal{})

// decimalHook extends Viper's default decode hooks with decimal.Decimal
// support so currency settings keep exact values.
func decimalHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		func(from reflect.Type, to reflect.Type, data any) (any, error) {
			if to != decimalType {
				return data, nil
			}
			switch v := data.(type) {
			case string:
				d, err := decimal.NewFromString(v)
				if err != nil {
					return nil, fmt.Errorf("parsing decimal %q: %w", v, err)
				}
				return d, nil
			case int:
				return decimal.NewFromInt(int64(v)), nil
			case int64:
				return decimal.NewFromInt(v), nil
			case float64:
				return decimal.NewFromFloat(v), nil
			case decimal.Decimal:
				return v, nil
			}
			return data, nil
		},
	)
}
