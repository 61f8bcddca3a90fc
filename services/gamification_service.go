package services

import (
	"context"

	"github.com/rs/zerolog"

	"rpgTodoAPI/internal/achievement"
	"rpgTodoAPI/internal/progression"
)

// Notifier is told about level-ups and unlocked achievements. Calls must not
// block the request.
type Notifier interface {
	NotifyLevelUp(userID string, level int)
	NotifyAchievement(userID string, a achievement.Achievement)
}

type CompletionResult struct {
	XPEarned        int                       `json:"xp_earned"`
	PreviousLevel   int                       `json:"previous_level"`
	NewLevel        int                       `json:"new_level"`
	LeveledUp       bool                      `json:"level_up"`
	NewTotalXP      int                       `json:"new_total_xp"`
	BonusXP         int                       `json:"bonus_xp"`
	NewAchievements []achievement.Achievement `json:"new_achievements"`
	Degraded        bool                      `json:"bookkeeping_degraded"`
}

type GamificationService struct {
	updater   *progression.Updater
	evaluator *achievement.Evaluator
	notifier  Notifier
	log       zerolog.Logger
}

func NewGamificationService(updater *progression.Updater, evaluator *achievement.Evaluator, notifier Notifier, log zerolog.Logger) *GamificationService {
	return &GamificationService{
		updater:   updater,
		evaluator: evaluator,
		notifier:  notifier,
		log:       log,
	}
}

func (s *GamificationService) Levels() *progression.LevelTable {
	return s.updater.Levels()
}

func (s *GamificationService) Catalog() *achievement.Catalog {
	return s.evaluator.Catalog()
}

// AwardTaskCompletionXP grants the XP for a completed task of the given
// priority, then evaluates first-completion and, on a level-up, level
// milestone achievements. Only the base update can fail the call.
// NewLevel, LeveledUp and NewTotalXP describe the base update; bonus XP
// granted afterwards is reported in BonusXP.
func (s *GamificationService) AwardTaskCompletionXP(ctx context.Context, userID string, priority progression.Priority) (*CompletionResult, error) {
	xp := progression.CalculateXP(priority)

	res, err := s.updater.Apply(ctx, userID, xp)
	if err != nil {
		return nil, err
	}
	xpAwardedTotal.WithLabelValues("task").Add(float64(xp))

	outcome := s.evaluate(ctx, userID, achievement.Trigger{
		Action:   achievement.CriteriaTaskCompletion,
		Priority: priority,
	})

	if res.LeveledUp {
		levelUpsTotal.Inc()
		s.log.Info().Str("user_id", userID).Int("from", res.PreviousLevel).Int("to", res.NewLevel).Msg("level up")
		if s.notifier != nil {
			s.notifier.NotifyLevelUp(userID, res.NewLevel)
		}
		outcome.Merge(s.evaluate(ctx, userID, achievement.Trigger{
			Action: achievement.CriteriaLevelMilestone,
			Level:  res.NewLevel,
		}))
	}

	return &CompletionResult{
		XPEarned:        xp,
		PreviousLevel:   res.PreviousLevel,
		NewLevel:        res.NewLevel,
		LeveledUp:       res.LeveledUp,
		NewTotalXP:      res.NewTotalXP,
		BonusXP:         outcome.BonusXP,
		NewAchievements: nonNil(outcome.Awarded),
		Degraded:        outcome.Degraded(),
	}, nil
}

// CheckAchievements evaluates one trigger on its own, for actions that earn
// no base XP such as creating a task or a label. It never fails.
func (s *GamificationService) CheckAchievements(ctx context.Context, userID string, trigger achievement.Trigger) achievement.Outcome {
	out := s.evaluate(ctx, userID, trigger)
	out.Awarded = nonNil(out.Awarded)
	return out
}

func (s *GamificationService) evaluate(ctx context.Context, userID string, trigger achievement.Trigger) achievement.Outcome {
	out := s.evaluator.Evaluate(ctx, userID, trigger)

	if n := len(out.Failures); n > 0 {
		bookkeepingFailuresTotal.WithLabelValues(string(trigger.Action)).Add(float64(n))
	}
	if out.BonusXP > 0 {
		xpAwardedTotal.WithLabelValues("bonus").Add(float64(out.BonusXP))
	}
	for _, a := range out.Awarded {
		achievementsUnlockedTotal.WithLabelValues(string(a.CriteriaType)).Inc()
		if s.notifier != nil {
			s.notifier.NotifyAchievement(userID, a)
		}
	}
	return out
}

func nonNil(in []achievement.Achievement) []achievement.Achievement {
	if in == nil {
		return []achievement.Achievement{}
	}
	return in
}
