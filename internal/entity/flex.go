package entity

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
)

// FlexString accepts a JSON string, number or null. Upstream feeds are not
// consistent about ids: the same field arrives as "123", 123 or null.
type FlexString struct {
	Value string
	Valid bool
}

func NewFlexString(value string) FlexString {
	return FlexString{Value: value, Valid: true}
}

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = FlexString{}
		return nil
	}

	if data[0] == '"' {
		var value string
		if err := sonic.Unmarshal(data, &value); err != nil {
			return err
		}
		*f = FlexString{Value: value, Valid: true}
		return nil
	}

	// Number or bool literal, keep the literal text.
	*f = FlexString{Value: string(data), Valid: true}
	return nil
}

func (f FlexString) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return sonic.Marshal(f.Value)
}

// Present reports whether the field carried a non-blank value.
func (f FlexString) Present() bool {
	return f.Valid && strings.TrimSpace(f.Value) != ""
}

// FlexFloat accepts a JSON number, numeric string or null. Anything that
// does not parse is treated as absent instead of failing the whole record.
type FlexFloat struct {
	Value float64
	Valid bool
}

func NewFlexFloat(value float64) FlexFloat {
	return FlexFloat{Value: value, Valid: true}
}

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*f = FlexFloat{}

	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	text := string(data)
	if data[0] == '"' {
		var value string
		if err := sonic.Unmarshal(data, &value); err != nil {
			return nil
		}
		text = strings.TrimSuffix(strings.TrimSpace(value), "%")
	}

	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil
	}
	*f = FlexFloat{Value: value, Valid: true}
	return nil
}

func (f FlexFloat) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(f.Value, 'f', -1, 64)), nil
}
