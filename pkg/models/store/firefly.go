package store

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// FlexString accepts JSON strings, numbers and booleans. Null decodes to "".
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case float64:
		*f = FlexString(strconv.FormatFloat(t, 'f', -1, 64))
	case bool:
		*f = FlexString(strconv.FormatBool(t))
	default:
		*f = FlexString(string(data))
	}
	return nil
}

// StringList accepts either a single string or an array of strings.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if data[0] == '[' {
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*l = items
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*l = nil
		return nil
	}
	*l = StringList{s}
	return nil
}

type LoginRequest struct {
	AccessKey string `json:"accessKey"`
	SecretKey string `json:"secretKey"`
}

type LoginResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresAt   int64  `json:"expiresAt"`
	TokenType   string `json:"tokenType,omitempty"`
}

type InventoryRequest struct {
	AssetState string          `json:"assetState,omitempty"`
	AssetTypes []string        `json:"assetTypes,omitempty"`
	Size       int             `json:"size,omitempty"`
	Governance string          `json:"governance,omitempty"`
	AfterKey   json.RawMessage `json:"afterKey,omitempty"`
}

type InventoryResponse struct {
	ResponseObjects []InventoryAsset `json:"responseObjects"`
	TotalObjects    int              `json:"totalObjects"`
	AfterKey        json.RawMessage  `json:"afterKey"`
}

type InventoryAsset struct {
	AssetID    string                `json:"assetId"`
	AssetType  string                `json:"assetType"`
	Name       string                `json:"name"`
	Arn        string                `json:"arn"`
	ResourceID string                `json:"resourceId"`
	Provider   string                `json:"provider"`
	Region     string                `json:"region"`
	Owner      FlexString            `json:"owner"`
	Tags       map[string]FlexString `json:"tags"`
	TfObject   *TfObject             `json:"tfObject,omitempty"`
	TagsList   []string              `json:"tagsList"`
}

type TfObject struct {
	Tags map[string]FlexString `json:"tags"`
}

type InsightsRequest struct {
	Frameworks         []string        `json:"frameworks"`
	OnlyMatchingAssets bool            `json:"onlyMatchingAssets"`
	AfterKey           json.RawMessage `json:"afterKey,omitempty"`
}

type InsightsResponse struct {
	Hits     []Policy        `json:"hits"`
	AfterKey json.RawMessage `json:"afterKey"`
}

type Policy struct {
	Name        string     `json:"name"`
	Severity    FlexString `json:"severity"`
	Category    FlexString `json:"category"`
	Badge       FlexString `json:"badge"`
	Type        StringList `json:"type"`
	Frameworks  StringList `json:"frameworks"`
	TotalAssets int        `json:"total_assets"`
}
