package mpesa

import (
	"context"
	"log/slog"

	"github.com/polkiloo/agristar/internal/domain/model"
)

// StubDisburser acknowledges payouts without contacting the gateway. It is
// used where no B2C credentials are provisioned.
type StubDisburser struct {
	logger *slog.Logger
}

func NewStubDisburser(logger *slog.Logger) *StubDisburser {
	return &StubDisburser{logger: logger}
}

func (s *StubDisburser) InitiateDisbursement(_ context.Context, req model.Disbursement) (*model.DisbursementReceipt, error) {
	s.logger.Warn("b2c disbursement stubbed",
		slog.String("reference", req.Reference),
		slog.String("phone", req.Phone),
		slog.Int64("amount", req.Amount),
	)
	return &model.DisbursementReceipt{
		ConversationID:           "STUB-" + req.Reference,
		OriginatorConversationID: req.Reference,
	}, nil
}
