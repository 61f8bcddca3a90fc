package achievement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"rpgTodoAPI/internal/progression"
)

var ErrUnknownTrigger = errors.New("unknown achievement trigger")

// EarnedStore records which achievements a user holds. RecordEarned inserts
// only when no record exists and reports whether it did.
type EarnedStore interface {
	HasEarned(ctx context.Context, userID string, achievementID uuid.UUID) (bool, error)
	RecordEarned(ctx context.Context, userID string, achievementID uuid.UUID, at time.Time) (bool, error)
}

// Counter supplies the per-user facts milestones are checked against.
type Counter interface {
	CountTasks(ctx context.Context, userID string) (int, error)
	CountCompletedTasks(ctx context.Context, userID string, priority progression.Priority) (int, error)
	CountLabels(ctx context.Context, userID string) (int, error)
}

type XPApplier interface {
	Apply(ctx context.Context, userID string, xpDelta int) (progression.Result, error)
}

type MilestoneMode string

const (
	// MilestoneExact awards only when the post-action count equals the milestone.
	MilestoneExact MilestoneMode = "exact"
	// MilestoneAtLeast awards every milestone the count has reached that is not yet earned.
	MilestoneAtLeast MilestoneMode = "at_least"
)

func ParseMilestoneMode(raw string) (MilestoneMode, error) {
	switch MilestoneMode(raw) {
	case "", MilestoneExact:
		return MilestoneExact, nil
	case MilestoneAtLeast:
		return MilestoneAtLeast, nil
	default:
		return "", fmt.Errorf("unknown milestone mode %q", raw)
	}
}

// Trigger is the event an evaluation runs for. Priority is read for
// task_completion and Level for level_milestone.
type Trigger struct {
	Action   CriteriaType
	Priority progression.Priority
	Level    int
}

// Outcome lists what an evaluation awarded. Failures holds the errors that
// were logged and skipped; a non-empty list means bookkeeping is degraded
// even though the triggering action succeeded.
type Outcome struct {
	Awarded  []Achievement
	BonusXP  int
	Failures []error
}

func (o Outcome) Degraded() bool {
	return len(o.Failures) > 0
}

func (o *Outcome) Merge(other Outcome) {
	o.Awarded = append(o.Awarded, other.Awarded...)
	o.BonusXP += other.BonusXP
	o.Failures = append(o.Failures, other.Failures...)
}

type Evaluator struct {
	catalog *Catalog
	earned  EarnedStore
	counter Counter
	xp      XPApplier
	mode    MilestoneMode
	log     zerolog.Logger
	now     func() time.Time
}

type Option func(*Evaluator)

func WithMilestoneMode(mode MilestoneMode) Option {
	return func(e *Evaluator) { e.mode = mode }
}

func WithLogger(log zerolog.Logger) Option {
	return func(e *Evaluator) { e.log = log }
}

func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) { e.now = now }
}

func NewEvaluator(catalog *Catalog, earned EarnedStore, counter Counter, xp XPApplier, opts ...Option) *Evaluator {
	e := &Evaluator{
		catalog: catalog,
		earned:  earned,
		counter: counter,
		xp:      xp,
		mode:    MilestoneExact,
		log:     zerolog.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Evaluator) Catalog() *Catalog {
	return e.catalog
}

// Evaluate awards every achievement newly satisfied by trigger. It never
// returns an error: individual failures are logged and reported in the
// Outcome so the triggering action is never failed by bookkeeping.
func (e *Evaluator) Evaluate(ctx context.Context, userID string, trigger Trigger) Outcome {
	var out Outcome

	values, err := e.candidates(ctx, userID, trigger)
	if err != nil {
		e.log.Error().Err(err).Str("user_id", userID).Str("action", string(trigger.Action)).Msg("achievement check failed")
		out.Failures = append(out.Failures, err)
		return out
	}

	for _, value := range values {
		a, awarded, err := e.award(ctx, userID, trigger.Action, value)
		if err != nil {
			e.log.Error().Err(err).
				Str("user_id", userID).
				Str("criteria_type", string(trigger.Action)).
				Int("criteria_value", value).
				Msg("achievement award failed")
			out.Failures = append(out.Failures, err)
		}
		if awarded {
			out.Awarded = append(out.Awarded, a)
			if err == nil {
				out.BonusXP += a.XPBonus
			}
		}
	}
	return out
}

// candidates returns the criteria values satisfied by the trigger.
func (e *Evaluator) candidates(ctx context.Context, userID string, trigger Trigger) ([]int, error) {
	switch trigger.Action {
	case CriteriaTaskCreation:
		count, err := e.counter.CountTasks(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("count tasks: %w", err)
		}
		return e.reached(TaskCreationMilestones, count), nil

	case CriteriaTaskCompletion:
		if !trigger.Priority.Valid() {
			return nil, nil
		}
		count, err := e.counter.CountCompletedTasks(ctx, userID, trigger.Priority)
		if err != nil {
			return nil, fmt.Errorf("count completed %s tasks: %w", trigger.Priority, err)
		}
		if count == 1 || (e.mode == MilestoneAtLeast && count > 1) {
			return []int{trigger.Priority.Code()}, nil
		}
		return nil, nil

	case CriteriaLevelMilestone:
		if trigger.Level <= 0 {
			return nil, nil
		}
		return e.reached(LevelMilestones, trigger.Level), nil

	case CriteriaLabelCreation:
		count, err := e.counter.CountLabels(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("count labels: %w", err)
		}
		return e.reached(LabelCreationMilestones, count), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTrigger, trigger.Action)
	}
}

func (e *Evaluator) reached(milestones []int, value int) []int {
	var out []int
	for _, m := range milestones {
		if value == m || (e.mode == MilestoneAtLeast && value > m) {
			out = append(out, m)
		}
	}
	return out
}

// award moves one achievement from unearned to earned. The bool reports
// whether the earned record was created by this call; a bonus XP failure is
// returned alongside awarded=true since the record already exists.
func (e *Evaluator) award(ctx context.Context, userID string, kind CriteriaType, value int) (Achievement, bool, error) {
	a, ok := e.catalog.Lookup(kind, value)
	if !ok {
		return Achievement{}, false, nil
	}

	has, err := e.earned.HasEarned(ctx, userID, a.ID)
	if err != nil {
		return Achievement{}, false, fmt.Errorf("check earned %q: %w", a.Name, err)
	}
	if has {
		return Achievement{}, false, nil
	}

	inserted, err := e.earned.RecordEarned(ctx, userID, a.ID, e.now())
	if err != nil {
		return Achievement{}, false, fmt.Errorf("record earned %q: %w", a.Name, err)
	}
	if !inserted {
		return Achievement{}, false, nil
	}

	e.log.Info().Str("user_id", userID).Str("achievement", a.Name).Int("xp_bonus", a.XPBonus).Msg("achievement unlocked")

	if a.XPBonus > 0 {
		if _, err := e.xp.Apply(ctx, userID, a.XPBonus); err != nil {
			return a, true, fmt.Errorf("apply %d bonus xp for %q: %w", a.XPBonus, a.Name, err)
		}
	}
	return a, true, nil
}
