package utils

import (
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// DefaultDecodeHooks are applied when viper decodes the config into structs.
// Comma separated env values such as FEED_BACKOFF="0s,2s,5s" become slices,
// and every element goes through the duration hook.
func DefaultDecodeHooks() []mapstructure.DecodeHookFunc {
	return []mapstructure.DecodeHookFunc{
		TrimStringHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		mapstructure.StringToTimeDurationHookFunc(),
	}
}

// TrimStringHookFunc trims surrounding whitespace from string values.
func TrimStringHookFunc() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if from.Kind() != reflect.String {
			return data, nil
		}
		return strings.TrimSpace(data.(string)), nil
	}
}
