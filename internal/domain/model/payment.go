package model

// Collection asks the gateway to prompt a payer for funds.
type Collection struct {
	Phone       string
	Amount      int64
	Reference   string
	Description string
}

// CollectionReceipt is the gateway acknowledgement of a collection request.
type CollectionReceipt struct {
	MerchantRequestID string
	CheckoutRequestID string
	CustomerMessage   string
}

// Disbursement asks the gateway to send funds to a recipient. Reference
// is unique per payout attempt and identifies it in gateway callbacks.
type Disbursement struct {
	Phone     string
	Amount    int64
	Reference string
	Remarks   string
}

type DisbursementReceipt struct {
	ConversationID           string
	OriginatorConversationID string
}

// PaymentResult is the asynchronous outcome of a collection.
type PaymentResult struct {
	CheckoutRequestID string
	ResultCode        int
	ResultDesc        string
	ReceiptNumber     string
}

func (r PaymentResult) Succeeded() bool { return r.ResultCode == 0 }

// PayoutResult is the asynchronous outcome of a disbursement.
type PayoutResult struct {
	OriginatorConversationID string
	ConversationID           string
	ResultCode               int
	ResultDesc               string
	TransactionID            string
}

func (r PayoutResult) Succeeded() bool { return r.ResultCode == 0 }
