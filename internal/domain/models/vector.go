package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Vector is a fixed-dimension embedding stored as a JSON array column.
// An empty vector means the owning record is not embeddable.
type Vector []float32

func (v Vector) IsEmpty() bool {
	return len(v) == 0
}

func (v Vector) Value() (driver.Value, error) {
	if len(v) == 0 {
		return "", nil
	}
	data, err := json.Marshal([]float32(v))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (v *Vector) Scan(src any) error {
	var data []byte
	switch value := src.(type) {
	case nil:
		*v = nil
		return nil
	case string:
		data = []byte(value)
	case []byte:
		data = value
	default:
		return fmt.Errorf("unsupported vector column type %T", src)
	}

	if len(data) == 0 {
		*v = nil
		return nil
	}
	return json.Unmarshal(data, (*[]float32)(v))
}
