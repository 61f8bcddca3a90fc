package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"rpgTodoAPI/internal/achievement"
	"rpgTodoAPI/internal/notification"
)

type PushProvider interface {
	SendPush(ctx context.Context, tokens []notification.DeviceToken, push notification.Push) error
}

type DeviceTokenSource interface {
	TokensForUser(ctx context.Context, userID string) ([]notification.DeviceToken, error)
}

// PushDispatcher delivers pushes on a fixed worker pool so request handlers
// never wait on FCM.
type PushDispatcher struct {
	provider     PushProvider
	tokens       DeviceTokenSource
	workers      int
	jobQueue     chan notification.Push
	stopChan     chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
	queueTimeout time.Duration
	log          zerolog.Logger
}

func NewPushDispatcher(provider PushProvider, tokens DeviceTokenSource, workers int, log zerolog.Logger) *PushDispatcher {
	if workers <= 0 {
		workers = 5
	}
	d := &PushDispatcher{
		provider:     provider,
		tokens:       tokens,
		workers:      workers,
		jobQueue:     make(chan notification.Push, 100),
		stopChan:     make(chan struct{}),
		queueTimeout: time.Second,
		log:          log,
	}
	d.startWorkers()
	return d
}

func (d *PushDispatcher) startWorkers() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
}

func (d *PushDispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case push := <-d.jobQueue:
			d.processJob(push)
		case <-d.stopChan:
			return
		}
	}
}

func (d *PushDispatcher) processJob(push notification.Push) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tokens, err := d.tokens.TokensForUser(ctx, push.UserID)
	if err != nil {
		d.log.Error().Err(err).Str("user_id", push.UserID).Msg("push: token lookup failed")
		pushDispatchTotal.WithLabelValues("failed").Inc()
		return
	}
	if len(tokens) == 0 {
		pushDispatchTotal.WithLabelValues("skipped").Inc()
		return
	}

	if err := d.provider.SendPush(ctx, tokens, push); err != nil {
		d.log.Error().Err(err).Str("user_id", push.UserID).Str("type", string(push.Type)).Msg("push: send failed")
		pushDispatchTotal.WithLabelValues("failed").Inc()
		return
	}
	pushDispatchTotal.WithLabelValues("sent").Inc()
}

// Dispatch queues a push. A full queue drops it after a short wait.
func (d *PushDispatcher) Dispatch(push notification.Push) {
	select {
	case d.jobQueue <- push:
	case <-d.stopChan:
		pushDispatchTotal.WithLabelValues("dropped").Inc()
	case <-time.After(d.queueTimeout):
		d.log.Warn().Str("user_id", push.UserID).Str("type", string(push.Type)).Msg("push: queue full, dropping")
		pushDispatchTotal.WithLabelValues("dropped").Inc()
	}
}

func (d *PushDispatcher) NotifyLevelUp(userID string, level int) {
	d.Dispatch(notification.Push{
		UserID: userID,
		Type:   notification.PushLevelUp,
		Title:  "Level up!",
		Body:   fmt.Sprintf("You reached level %d.", level),
		Data:   map[string]any{"level": level},
	})
}

func (d *PushDispatcher) NotifyAchievement(userID string, a achievement.Achievement) {
	body := a.Description
	if a.XPBonus > 0 {
		body = fmt.Sprintf("%s (+%d XP)", a.Description, a.XPBonus)
	}
	d.Dispatch(notification.Push{
		UserID: userID,
		Type:   notification.PushAchievement,
		Title:  "Achievement unlocked: " + a.Name,
		Body:   body,
		Data:   map[string]any{"achievement_id": a.ID.String(), "xp_bonus": a.XPBonus},
	})
}

// Stop drains in-flight jobs and stops the workers. Queued jobs that no
// worker picked up are discarded.
func (d *PushDispatcher) Stop() {
	d.stopOnce.Do(func() {
		d.log.Info().Msg("stopping push dispatcher")
		close(d.stopChan)
		d.wg.Wait()
	})
}

// LogPushProvider stands in for FCM when no credentials are configured.
type LogPushProvider struct {
	Log zerolog.Logger
}

func (p LogPushProvider) SendPush(ctx context.Context, tokens []notification.DeviceToken, push notification.Push) error {
	p.Log.Debug().Int("devices", len(tokens)).Str("title", push.Title).Msg("push (no provider configured)")
	return nil
}
