package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"foros/internal/cache"
	"foros/internal/featureflags"
	"foros/internal/middleware"
	"foros/internal/models"
	"foros/internal/observability"
	"foros/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultVoteMaxAttempts = 3
	maxMyVotesBatch        = 100
	defaultVoteRetryDelay  = 100 * time.Millisecond
)

// VoteRetryPolicy bounds how often a conflicting vote is re-read and retried.
// Attempt n (1-based) that conflicts waits BaseDelay*n before the next one.
type VoteRetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultVoteRetryPolicy is three attempts with a 100ms linear backoff.
func DefaultVoteRetryPolicy() VoteRetryPolicy {
	return VoteRetryPolicy{MaxAttempts: defaultVoteMaxAttempts, BaseDelay: defaultVoteRetryDelay}
}

// VoteService applies votes to the ledger and keeps each hilo's counter in step.
type VoteService struct {
	votes          repository.VoteRepository
	notificaciones *NotificacionService
	publisher      EventPublisher
	flags          FlagChecker
	policy         VoteRetryPolicy
}

func NewVoteService(
	votes repository.VoteRepository,
	notificaciones *NotificacionService,
	publisher EventPublisher,
	flags FlagChecker,
	policy VoteRetryPolicy,
) *VoteService {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = defaultVoteMaxAttempts
	}
	if policy.BaseDelay < 0 {
		policy.BaseDelay = 0
	}
	return &VoteService{
		votes:          votes,
		notificaciones: notificaciones,
		publisher:      publisher,
		flags:          flags,
		policy:         policy,
	}
}

// voteOutcome is what a committed attempt wrote.
type voteOutcome struct {
	count    int
	version  uint
	action   models.VoteAction
	value    int
	authorID uint
}

// VoteOnHilo records voterID's vote in direction on the hilo and returns the
// counter value committed with it. Conflicting concurrent writes are retried
// per the policy; when every attempt conflicts the result is a CONFLICT error.
func (s *VoteService) VoteOnHilo(ctx context.Context, hiloID, voterID uint, direction string) (int, error) {
	unit, err := ParseDirection(direction)
	if err != nil {
		return 0, err
	}
	if voterID == 0 {
		return 0, models.NewUnauthorizedError("Authentication required")
	}

	span, ctx := observability.NewSpan(ctx, "VoteService.VoteOnHilo",
		attribute.Int64("hilo.id", int64(hiloID)),
		attribute.String("vote.direction", direction),
	)
	defer span.End()

	var lastErr error
	for attempt := 1; attempt <= s.policy.MaxAttempts; attempt++ {
		out, err := s.attempt(ctx, hiloID, voterID, unit)
		if err == nil {
			observability.VotesTotal.WithLabelValues(string(out.action)).Inc()
			observability.VoteAttempts.Observe(float64(attempt))
			span.AddAttributes(
				attribute.Int("vote.attempts", attempt),
				attribute.String("vote.action", string(out.action)),
			)
			s.afterCommit(ctx, hiloID, voterID, out)
			return out.count, nil
		}

		if !errors.Is(err, repository.ErrConcurrencyConflict) {
			span.SetError(err)
			return 0, err
		}

		observability.VoteConflicts.Inc()
		lastErr = err
		middleware.Logger.DebugContext(ctx, "vote conflict",
			"hilo_id", hiloID, "attempt", attempt, "max_attempts", s.policy.MaxAttempts)

		if attempt < s.policy.MaxAttempts {
			if !sleepContext(ctx, s.policy.BaseDelay*time.Duration(attempt)) {
				span.SetError(ctx.Err())
				return 0, fmt.Errorf("vote retry interrupted: %w", ctx.Err())
			}
		}
	}

	observability.VoteRetryExhausted.Inc()
	observability.VoteAttempts.Observe(float64(s.policy.MaxAttempts))
	span.AddAttributes(attribute.Int("vote.attempts", s.policy.MaxAttempts))
	err = models.NewConflictError("Concurrent update, please retry", lastErr)
	span.SetError(err)
	middleware.Logger.WarnContext(ctx, "vote retries exhausted",
		"hilo_id", hiloID, "attempts", s.policy.MaxAttempts)
	return 0, err
}

// attempt runs one read-decide-write cycle.
func (s *VoteService) attempt(ctx context.Context, hiloID, voterID uint, unit int) (voteOutcome, error) {
	tally, err := s.votes.GetTally(ctx, hiloID)
	if err != nil {
		return voteOutcome{}, err
	}
	existing, err := s.votes.GetVote(ctx, voterID, hiloID)
	if err != nil {
		return voteOutcome{}, err
	}

	var existingValue *int
	if existing != nil {
		v := existing.Value
		existingValue = &v
	}
	decision := DecideVote(existingValue, unit)

	m := repository.VoteMutation{
		HiloID:      hiloID,
		UserID:      voterID,
		ReadVersion: tally.Version,
		NewCount:    tally.VoteCount + decision.Delta,
		Action:      decision.Action,
		NewValue:    decision.NewValue,
	}
	if existing != nil {
		m.VoteID = existing.ID
		m.ReadValue = existing.Value
	}

	if err := s.votes.ApplyVote(ctx, m); err != nil {
		return voteOutcome{}, err
	}
	return voteOutcome{
		count:    m.NewCount,
		version:  tally.Version + 1,
		action:   decision.Action,
		value:    decision.NewValue,
		authorID: tally.AuthorID,
	}, nil
}

// afterCommit runs best-effort side effects; none of them can undo the vote.
func (s *VoteService) afterCommit(ctx context.Context, hiloID, voterID uint, out voteOutcome) {
	cache.InvalidateHilo(ctx, hiloID)

	if s.publisher != nil {
		if err := s.publisher.PublishVoteCount(ctx, hiloID, out.count, out.version); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to publish vote count",
				"hilo_id", hiloID, "error", err)
		}
	}

	if !s.shouldNotify(voterID, out) {
		return
	}
	actorID := voterID
	hid := hiloID
	n := &models.Notificacion{
		UserID:  out.authorID,
		ActorID: &actorID,
		Type:    models.NotificacionVote,
		HiloID:  &hid,
		Message: "Your hilo received an upvote",
	}
	if err := s.notificaciones.Notify(ctx, n); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to create vote notification",
			"hilo_id", hiloID, "author_id", out.authorID, "error", err)
	}
}

func (s *VoteService) shouldNotify(voterID uint, out voteOutcome) bool {
	return s.notificaciones != nil &&
		s.flags != nil &&
		out.action == models.VoteActionCreate &&
		out.value == models.VoteUp &&
		out.authorID != 0 &&
		out.authorID != voterID &&
		s.flags.Enabled(featureflags.VoteNotifications, out.authorID)
}

// Tally returns the hilo's committed counter and version straight from storage.
func (s *VoteService) Tally(ctx context.Context, hiloID uint) (*repository.HiloTally, error) {
	return s.votes.GetTally(ctx, hiloID)
}

// MyVotes returns the caller's vote on each of hiloIDs that they voted on.
func (s *VoteService) MyVotes(ctx context.Context, userID uint, hiloIDs []uint) (map[uint]int, error) {
	if userID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	if len(hiloIDs) > maxMyVotesBatch {
		return nil, models.NewValidationError(fmt.Sprintf("at most %d hilos per request", maxMyVotesBatch))
	}
	return s.votes.GetUserVotes(ctx, userID, hiloIDs)
}
