// Package jobs holds the periodic maintenance and delivery tasks run by the
// cron scheduler.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/logger"

	"loterias/internal/models"
	"loterias/internal/services"
)

// CacheEvicter drops analysis cache entries nobody used recently.
type CacheEvicter interface {
	EvictStale(ttl time.Duration) int
}

// CardGenerator produces suggested cards for a game.
type CardGenerator interface {
	Generate(g models.Game, prefs models.GeneratorPreferences) ([]models.GeneratedCard, error)
}

// Accounts defines the account operations needed by the jobs.
type Accounts interface {
	ExpireSubscriptions(ctx context.Context) (int64, error)
	CleanExpiredCodes(ctx context.Context) (int64, error)
	ActiveSendSettings(ctx context.Context) ([]models.SendSettings, error)
	ActiveSubscription(ctx context.Context, userID string) (*models.Subscription, error)
	RecordSend(ctx context.Context, settings models.SendSettings, message string, sendErr error) error
}

// Sender delivers a message through the channel of a user's settings.
type Sender interface {
	Send(ctx context.Context, settings models.SendSettings, message string) error
}

// LogSender simulates delivery by writing the message to the log.
type LogSender struct{}

// Send implements Sender.
func (LogSender) Send(ctx context.Context, settings models.SendSettings, message string) error {
	logger.Infof("[%s -> %s] %s", settings.Canal, settings.Destino, message)
	return nil
}

// Options configures the jobs.
type Options struct {
	CacheTTL    time.Duration
	LicensePath string
}

// Jobs contains the logic for all scheduled tasks.
type Jobs struct {
	cache    CacheEvicter
	cards    CardGenerator
	accounts Accounts
	sender   Sender
	opts     Options
	now      func() time.Time
}

// NewJobs creates a new Jobs runner.
func NewJobs(cache CacheEvicter, cards CardGenerator, accounts Accounts, sender Sender, opts Options) *Jobs {
	if sender == nil {
		sender = LogSender{}
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Hour
	}
	return &Jobs{
		cache:    cache,
		cards:    cards,
		accounts: accounts,
		sender:   sender,
		opts:     opts,
		now:      time.Now,
	}
}

// EvictCache removes analysis cache entries idle for longer than the TTL.
func (j *Jobs) EvictCache() {
	if n := j.cache.EvictStale(j.opts.CacheTTL); n > 0 {
		logger.Infof("Evicted %d idle game caches", n)
	}
}

// ExpireSubscriptions flags subscriptions whose period has ended.
func (j *Jobs) ExpireSubscriptions() {
	n, err := j.accounts.ExpireSubscriptions(context.Background())
	if err != nil {
		logger.Warningf("Failed to expire subscriptions: %v", err)
		return
	}
	if n > 0 {
		logger.Infof("Expired %d subscriptions", n)
	}
}

// CleanConfirmationCodes removes used and expired confirmation codes.
func (j *Jobs) CleanConfirmationCodes() {
	n, err := j.accounts.CleanExpiredCodes(context.Background())
	if err != nil {
		logger.Warningf("Failed to clean confirmation codes: %v", err)
		return
	}
	if n > 0 {
		logger.Infof("Removed %d confirmation codes", n)
	}
}

// SendDailyCards sends one suggested card to every user with delivery
// enabled and an active subscription. It returns how many were sent.
func (j *Jobs) SendDailyCards() int {
	ctx := context.Background()
	settings, err := j.accounts.ActiveSendSettings(ctx)
	if err != nil {
		logger.Warningf("Failed to list delivery settings: %v", err)
		return 0
	}

	sent := 0
	for _, s := range settings {
		if _, err := j.accounts.ActiveSubscription(ctx, s.UsuarioID); err != nil {
			if !errors.Is(err, services.ErrNoActiveSubscription) {
				logger.Warningf("Failed to check subscription of user %s: %v", s.UsuarioID, err)
			}
			continue
		}
		g, ok := models.GameBySlug(s.Jogo)
		if !ok {
			logger.Warningf("User %s has unknown game %q in delivery settings", s.UsuarioID, s.Jogo)
			continue
		}

		message, err := j.dailyMessage(g)
		if err != nil {
			logger.Warningf("Failed to generate card for user %s: %v", s.UsuarioID, err)
			continue
		}
		sendErr := j.sender.Send(ctx, s, message)
		if err := j.accounts.RecordSend(ctx, s, message, sendErr); err != nil {
			logger.Warningf("Failed to record delivery to user %s: %v", s.UsuarioID, err)
		}
		if sendErr != nil {
			logger.Warningf("Failed to deliver card to user %s: %v", s.UsuarioID, sendErr)
			continue
		}
		sent++
	}
	logger.Infof("Daily cards sent: %d of %d", sent, len(settings))
	return sent
}

func (j *Jobs) dailyMessage(g models.Game) (string, error) {
	prefs := services.MergePreferences(g, models.GeneratorPreferences{Quantidade: 1})
	cards, err := j.cards.Generate(g, prefs)
	if err != nil {
		return "", err
	}
	if len(cards) == 0 {
		return "", fmt.Errorf("nenhum cartão gerado")
	}
	nums := make([]string, len(cards[0].Numbers))
	for i, n := range cards[0].Numbers {
		nums[i] = fmt.Sprintf("%02d", n)
	}
	msg := fmt.Sprintf("Sugestão %s de %s: %s", g.Name, j.now().Format("02/01/2006"), strings.Join(nums, " "))
	if len(cards[0].Trevos) > 0 {
		msg += fmt.Sprintf(" | trevos %v", cards[0].Trevos)
	}
	return msg, nil
}

// CheckLicense logs how many days the licence has left.
func (j *Jobs) CheckLicense() {
	if j.opts.LicensePath == "" {
		return
	}
	lic, err := services.CheckLicense(j.opts.LicensePath, j.now())
	if err != nil {
		logger.Warningf("Licence check failed: %v", err)
		return
	}
	days := lic.DaysLeft(j.now())
	if days <= 7 {
		logger.Warningf("Licence of %s expires in %d days", lic.Cliente, days)
		return
	}
	logger.Infof("Licence of %s valid for %d more days", lic.Cliente, days)
}
