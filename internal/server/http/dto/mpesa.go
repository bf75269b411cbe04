package dto

import (
	"encoding/json"
	"strconv"
	"strings"
)

// STKCallbackRequest is the collection result posted by the gateway.
type STKCallbackRequest struct {
	Body struct {
		STKCallback STKCallback `json:"stkCallback"`
	} `json:"Body"`
}

type STKCallback struct {
	MerchantRequestID string            `json:"MerchantRequestID"`
	CheckoutRequestID string            `json:"CheckoutRequestID" validate:"required"`
	ResultCode        *int              `json:"ResultCode" validate:"required"`
	ResultDesc        string            `json:"ResultDesc"`
	CallbackMetadata  *CallbackMetadata `json:"CallbackMetadata"`
}

type CallbackMetadata struct {
	Item []MetadataItem `json:"Item"`
}

// MetadataItem values arrive as numbers or strings depending on the item.
type MetadataItem struct {
	Name  string          `json:"Name"`
	Value json.RawMessage `json:"Value"`
}

// Lookup returns the named metadata value as a string.
func (m *CallbackMetadata) Lookup(name string) string {
	if m == nil {
		return ""
	}
	for _, item := range m.Item {
		if item.Name != name || len(item.Value) == 0 {
			continue
		}
		var s string
		if err := json.Unmarshal(item.Value, &s); err == nil {
			return s
		}
		var n json.Number
		if err := json.Unmarshal(item.Value, &n); err == nil {
			return n.String()
		}
		return strings.Trim(string(item.Value), `"`)
	}
	return ""
}

// B2CResultRequest is the disbursement result or timeout posted by the gateway.
type B2CResultRequest struct {
	Result B2CResult `json:"Result"`
}

type B2CResult struct {
	ResultType               *int        `json:"ResultType"`
	ResultCode               FlexibleInt `json:"ResultCode"`
	ResultDesc               string      `json:"ResultDesc"`
	OriginatorConversationID string      `json:"OriginatorConversationID" validate:"required_without=ConversationID"`
	ConversationID           string      `json:"ConversationID" validate:"required_without=OriginatorConversationID"`
	TransactionID            string      `json:"TransactionID"`
}

// FlexibleInt accepts a JSON number or a numeric string. Timeout payloads
// sometimes carry the code as a string.
type FlexibleInt int

func (f *FlexibleInt) UnmarshalJSON(b []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if raw == "" || raw == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return err
	}
	*f = FlexibleInt(n)
	return nil
}
