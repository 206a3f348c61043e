package conversation

import (
	"context"

	"github.com/xpanvictor/convoinfer/internal/types"
	"github.com/xpanvictor/convoinfer/pkg/Logger"
	pio "github.com/xpanvictor/convoinfer/pkg/io"
)

// TurnSink stores published turns and then pushes them to the item's
// watchers. A store failure is returned and nothing is pushed.
type TurnSink struct {
	repository ConversationRepository
	publisher  *pio.Publisher
	logger     *Logger.Logger
}

func NewTurnSink(repository ConversationRepository, publisher *pio.Publisher, logger *Logger.Logger) *TurnSink {
	return &TurnSink{repository: repository, publisher: publisher, logger: logger}
}

// AppendTurn implements adapters.TurnPublisher.
func (s *TurnSink) AppendTurn(ctx context.Context, turn types.PublishedTurn) error {
	if err := s.repository.AppendTurn(ctx, turn); err != nil {
		return err
	}
	if s.publisher != nil {
		n := s.publisher.SendTurn(ctx, turn)
		s.logger.Debugw("turn pushed", "item", turn.ItemID, "watchers", n, "final", turn.Final)
	}
	return nil
}
