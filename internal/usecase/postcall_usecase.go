package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"voicehub/internal/domain/entity"
	"voicehub/internal/domain/repository"
)

// fanoutTimeout bounds the detached post-call fan-out as a whole.
const fanoutTimeout = 2 * time.Minute

// PostCallUsecase handles the "call completed" webhook from the
// conversational-AI provider: persist the record, then fan out to hook
// platforms and native automations in the background.
type PostCallUsecase interface {
	// ProcessCallCompleted saves the call record and triggers the fan-out.
	// Only the save can fail the caller; fan-out runs detached with its own
	// error boundary.
	ProcessCallCompleted(ctx context.Context, payload *entity.CallCompletedPayload) error
}

type postCallUsecase struct {
	calls       repository.CallRepository
	automations repository.AutomationRepository
	dispatcher  DispatchUsecase
	executor    AutomationUsecase
	logger      *zap.Logger
}

func NewPostCallUsecase(
	calls repository.CallRepository,
	automations repository.AutomationRepository,
	dispatcher DispatchUsecase,
	executor AutomationUsecase,
	logger *zap.Logger,
) PostCallUsecase {
	return &postCallUsecase{
		calls:       calls,
		automations: automations,
		dispatcher:  dispatcher,
		executor:    executor,
		logger:      logger,
	}
}

func (u *postCallUsecase) ProcessCallCompleted(ctx context.Context, payload *entity.CallCompletedPayload) error {
	startedAt, err := time.Parse(time.RFC3339, payload.StartedAt)
	if err != nil {
		return fmt.Errorf("invalid started_at %q: %w", payload.StartedAt, err)
	}

	call := &entity.CallRecord{
		CallID:     payload.CallID,
		ClientID:   payload.ClientID,
		FromNumber: payload.FromNumber,
		ToNumber:   payload.ToNumber,
		Status:     payload.Status,
		StartedAt:  startedAt,
		DurationS:  payload.DurationS,
		Summary:    payload.Summary,
		Transcript: payload.Transcript,
	}

	if err := u.calls.Save(ctx, call); err != nil {
		return err
	}

	u.logger.Info("Call record saved",
		zap.String("client_id", call.ClientID),
		zap.String("call_id", call.CallID),
		zap.Int("duration_seconds", call.DurationS),
	)

	// Fan out after the primary write is committed. The webhook response must
	// not wait on third-party endpoints, and fan-out failures must never
	// surface to the calling agent platform.
	go u.fanOut(call)

	return nil
}

func (u *postCallUsecase) fanOut(call *entity.CallRecord) {
	defer func() {
		if r := recover(); r != nil {
			u.logger.Error("Post-call fan-out panicked",
				zap.String("call_id", call.CallID),
				zap.Any("panic", r),
			)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), fanoutTimeout)
	defer cancel()

	payload := map[string]interface{}{
		"call_id":          call.CallID,
		"client_id":        call.ClientID,
		"from_number":      call.FromNumber,
		"to_number":        call.ToNumber,
		"status":           call.Status,
		"started_at":       call.StartedAt.Format(time.RFC3339),
		"duration_seconds": call.DurationS,
		"summary":          call.Summary,
	}

	u.dispatcher.DispatchAll(ctx, call.ClientID, entity.EventCallCompleted, payload)

	automations, err := u.automations.ListEnabled(ctx, call.ClientID)
	if err != nil {
		u.logger.Error("Failed to load enabled automations",
			zap.String("client_id", call.ClientID),
			zap.Error(err),
		)
		return
	}

	for _, automation := range automations {
		if err := u.executor.Execute(ctx, automation, call); err != nil {
			// One recipe failing must not stop the rest.
			u.logger.Error("Automation execution failed",
				zap.String("client_id", call.ClientID),
				zap.String("recipe", automation.Recipe),
				zap.String("provider", automation.Provider),
				zap.Error(err),
			)
		}
	}
}
