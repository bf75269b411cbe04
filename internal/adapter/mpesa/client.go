package mpesa

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/polkiloo/agristar/internal/domain/model"
)

const (
	SandboxBaseURL    = "https://sandbox.safaricom.co.ke"
	ProductionBaseURL = "https://api.safaricom.co.ke"

	// DefaultTimeout bounds every gateway call.
	DefaultTimeout = 30 * time.Second

	timestampLayout = "20060102150405"

	CollectionCallbackPath = "/api/mpesa/callback"
	PayoutResultPath       = "/api/mpesa/b2c/result"
	PayoutTimeoutPath      = "/api/mpesa/b2c/timeout"
)

const (
	outcomeOK       = "ok"
	outcomeRejected = "rejected"
	outcomeError    = "error"
)

// eat is the gateway's clock for STK timestamps.
var eat = time.FixedZone("EAT", 3*60*60)

// Collector starts customer-to-business collections.
type Collector interface {
	InitiateCollection(ctx context.Context, req model.Collection) (*model.CollectionReceipt, error)
}

// Disburser starts business-to-customer payouts.
type Disburser interface {
	InitiateDisbursement(ctx context.Context, req model.Disbursement) (*model.DisbursementReceipt, error)
}

// Observer receives gateway call outcomes.
type Observer interface {
	ObserveGatewayCall(op, outcome string, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveGatewayCall(string, string, time.Duration) {}

// Config holds gateway credentials.
type Config struct {
	BaseURL            string
	ConsumerKey        string
	ConsumerSecret     string
	ShortCode          string
	PassKey            string
	B2CShortCode       string
	InitiatorName      string
	SecurityCredential string
	CallbackBaseURL    string
	Timeout            time.Duration
}

// Client talks to the Daraja API.
type Client struct {
	http     *resty.Client
	cfg      Config
	cache    TokenCache
	observer Observer
	logger   *slog.Logger
	now      func() time.Time
}

// NewClient validates configuration and builds a gateway client. Calls
// are never retried automatically.
func NewClient(cfg Config, cache TokenCache, observer Observer, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = SandboxBaseURL
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse mpesa url: %w", err)
	}
	if !base.IsAbs() {
		return nil, fmt.Errorf("mpesa url must be absolute")
	}
	callback, err := url.Parse(cfg.CallbackBaseURL)
	if err != nil || !callback.IsAbs() {
		return nil, fmt.Errorf("mpesa callback url must be absolute")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.B2CShortCode == "" {
		cfg.B2CShortCode = cfg.ShortCode
	}
	cfg.CallbackBaseURL = strings.TrimRight(cfg.CallbackBaseURL, "/")
	if cache == nil {
		cache = NewMemoryTokenCache()
	}
	if observer == nil {
		observer = nopObserver{}
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(0)

	return &Client{
		http:     httpClient,
		cfg:      cfg,
		cache:    cache,
		observer: observer,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Password derives the STK push password for the given timestamp.
func Password(shortCode, passKey, timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(shortCode + passKey + timestamp))
}

type stkPushRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            int64  `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

type stkPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

// InitiateCollection sends an STK push prompt to the payer's phone.
func (c *Client) InitiateCollection(ctx context.Context, req model.Collection) (*model.CollectionReceipt, error) {
	timestamp := c.now().In(eat).Format(timestampLayout)
	body := stkPushRequest{
		BusinessShortCode: c.cfg.ShortCode,
		Password:          Password(c.cfg.ShortCode, c.cfg.PassKey, timestamp),
		Timestamp:         timestamp,
		TransactionType:   "CustomerPayBillOnline",
		Amount:            req.Amount,
		PartyA:            req.Phone,
		PartyB:            c.cfg.ShortCode,
		PhoneNumber:       req.Phone,
		CallBackURL:       c.cfg.CallbackBaseURL + CollectionCallbackPath,
		AccountReference:  req.Reference,
		TransactionDesc:   req.Description,
	}

	var out stkPushResponse
	if err := c.post(ctx, "stk_push", "/mpesa/stkpush/v1/processrequest", body, &out); err != nil {
		return nil, err
	}
	if out.ResponseCode != "0" || out.CheckoutRequestID == "" {
		return nil, &GatewayError{Op: "stk_push", Code: out.ResponseCode, Description: out.ResponseDescription}
	}

	c.logger.Info("stk push accepted",
		slog.String("checkout_request_id", out.CheckoutRequestID),
		slog.String("reference", req.Reference),
	)
	return &model.CollectionReceipt{
		MerchantRequestID: out.MerchantRequestID,
		CheckoutRequestID: out.CheckoutRequestID,
		CustomerMessage:   out.CustomerMessage,
	}, nil
}

type b2cRequest struct {
	OriginatorConversationID string `json:"OriginatorConversationID"`
	InitiatorName            string `json:"InitiatorName"`
	SecurityCredential       string `json:"SecurityCredential"`
	CommandID                string `json:"CommandID"`
	Amount                   int64  `json:"Amount"`
	PartyA                   string `json:"PartyA"`
	PartyB                   string `json:"PartyB"`
	Remarks                  string `json:"Remarks"`
	QueueTimeOutURL          string `json:"QueueTimeOutURL"`
	ResultURL                string `json:"ResultURL"`
	Occasion                 string `json:"Occasion"`
}

type b2cResponse struct {
	ConversationID           string `json:"ConversationID"`
	OriginatorConversationID string `json:"OriginatorConversationID"`
	ResponseCode             string `json:"ResponseCode"`
	ResponseDescription      string `json:"ResponseDescription"`
}

// InitiateDisbursement sends a business payment to the recipient. The
// request reference is passed as OriginatorConversationID so result
// callbacks can be matched to the payout claim.
func (c *Client) InitiateDisbursement(ctx context.Context, req model.Disbursement) (*model.DisbursementReceipt, error) {
	body := b2cRequest{
		OriginatorConversationID: req.Reference,
		InitiatorName:            c.cfg.InitiatorName,
		SecurityCredential:       c.cfg.SecurityCredential,
		CommandID:                "BusinessPayment",
		Amount:                   req.Amount,
		PartyA:                   c.cfg.B2CShortCode,
		PartyB:                   req.Phone,
		Remarks:                  req.Remarks,
		QueueTimeOutURL:          c.cfg.CallbackBaseURL + PayoutTimeoutPath,
		ResultURL:                c.cfg.CallbackBaseURL + PayoutResultPath,
	}

	var out b2cResponse
	if err := c.post(ctx, "b2c", "/mpesa/b2c/v3/paymentrequest", body, &out); err != nil {
		return nil, err
	}
	if out.ResponseCode != "0" {
		return nil, &GatewayError{Op: "b2c", Code: out.ResponseCode, Description: out.ResponseDescription}
	}

	c.logger.Info("b2c payment accepted",
		slog.String("reference", req.Reference),
		slog.String("conversation_id", out.ConversationID),
	)
	originator := out.OriginatorConversationID
	if originator == "" {
		originator = req.Reference
	}
	return &model.DisbursementReceipt{
		ConversationID:           out.ConversationID,
		OriginatorConversationID: originator,
	}, nil
}

type errorResponse struct {
	RequestID    string `json:"requestId"`
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

func (c *Client) post(ctx context.Context, op, path string, body, out any) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	started := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetBody(body).
		Post(path)
	if err != nil {
		c.observe(op, outcomeError, started)
		c.logger.Error("mpesa request failed", slog.String("op", op), slog.String("error", err.Error()))
		return &GatewayError{Op: op, Ambiguous: true, Err: err}
	}
	if resp.IsError() {
		c.observe(op, outcomeRejected, started)
		gwErr := c.rejection(op, resp.StatusCode(), resp.Body())
		gwErr.Ambiguous = resp.StatusCode() >= 500
		c.logger.Error("mpesa request rejected",
			slog.String("op", op),
			slog.Int("status", resp.StatusCode()),
			slog.String("code", gwErr.Code),
			slog.String("description", gwErr.Description),
		)
		return gwErr
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		c.observe(op, outcomeError, started)
		return &GatewayError{Op: op, StatusCode: resp.StatusCode(), Description: "malformed response", Ambiguous: true, Err: err}
	}
	c.observe(op, outcomeOK, started)
	return nil
}

func (c *Client) rejection(op string, status int, body []byte) *GatewayError {
	gwErr := &GatewayError{Op: op, StatusCode: status}
	var data errorResponse
	if err := json.Unmarshal(body, &data); err == nil {
		gwErr.Code = data.ErrorCode
		gwErr.Description = data.ErrorMessage
	} else {
		gwErr.Description = strings.TrimSpace(string(body))
	}
	return gwErr
}

func (c *Client) observe(op, outcome string, started time.Time) {
	c.observer.ObserveGatewayCall(op, outcome, time.Since(started))
}
