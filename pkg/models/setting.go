package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// SettingDataType tells how a stored setting value is decoded
type SettingDataType string

const (
	SettingString  SettingDataType = "string"
	SettingInteger SettingDataType = "integer"
	SettingFloat   SettingDataType = "float"
	SettingBoolean SettingDataType = "boolean"
	SettingJSON    SettingDataType = "json"
)

// SystemSetting is a typed key/value configuration row
type SystemSetting struct {
	Key         string          `json:"key" db:"key"`
	Value       string          `json:"value" db:"value"`
	DataType    SettingDataType `json:"data_type" db:"data_type"`
	Description string          `json:"description,omitempty" db:"description"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// TypedValue decodes Value according to DataType
func (s *SystemSetting) TypedValue() (interface{}, error) {
	switch s.DataType {
	case SettingInteger:
		return strconv.Atoi(s.Value)
	case SettingFloat:
		return strconv.ParseFloat(s.Value, 64)
	case SettingBoolean:
		switch s.Value {
		case "true", "1", "yes", "on", "True":
			return true, nil
		}
		return false, nil
	case SettingJSON:
		var v interface{}
		if err := json.Unmarshal([]byte(s.Value), &v); err != nil {
			return nil, fmt.Errorf("invalid json setting %q: %w", s.Key, err)
		}
		return v, nil
	default:
		return s.Value, nil
	}
}

// NewSystemSetting encodes value and infers its data type
func NewSystemSetting(key string, value interface{}, description string) (*SystemSetting, error) {
	s := &SystemSetting{Key: key, Description: description}
	switch v := value.(type) {
	case bool:
		s.DataType, s.Value = SettingBoolean, strconv.FormatBool(v)
	case int:
		s.DataType, s.Value = SettingInteger, strconv.Itoa(v)
	case int64:
		s.DataType, s.Value = SettingInteger, strconv.FormatInt(v, 10)
	case float64:
		s.DataType, s.Value = SettingFloat, strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		s.DataType, s.Value = SettingString, v
	case time.Time:
		s.DataType, s.Value = SettingString, v.Format(time.RFC3339)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode setting %q: %w", key, err)
		}
		s.DataType, s.Value = SettingJSON, string(data)
	}
	return s, nil
}
