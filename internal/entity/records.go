package entity

import (
	"encoding/json"

	"github.com/bytedance/sonic"
)

// RawMatches is a record array decoded one element at a time. An element
// that does not fit RawMatch is dropped; its siblings are kept.
type RawMatches []RawMatch

func (r *RawMatches) UnmarshalJSON(data []byte) error {
	records, _, err := DecodeRecords(data)
	if err != nil {
		return err
	}
	*r = records
	return nil
}

// DecodeRecords decodes a JSON array of raw records and reports how many
// elements were rejected. Only a payload that is not an array is an error.
func DecodeRecords(data []byte) (RawMatches, int, error) {
	var items []json.RawMessage
	if err := sonic.Unmarshal(data, &items); err != nil {
		return nil, 0, err
	}

	records := make(RawMatches, 0, len(items))
	rejected := 0
	for _, item := range items {
		var record RawMatch
		if err := sonic.Unmarshal(item, &record); err != nil {
			rejected++
			continue
		}
		records = append(records, record)
	}

	return records, rejected, nil
}
