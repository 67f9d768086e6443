package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"loterias/internal/database"
	"loterias/internal/models"
)

// memRepo is an in-memory AccountRepository and PaymentRepository.
type memRepo struct {
	mu            sync.Mutex
	users         map[string]models.User
	codes         map[string]models.ConfirmationCode
	plans         map[string]models.Plan
	subscriptions []models.Subscription
	settings      map[string]models.SendSettings
	logs          []models.SendLog
	payments      map[string]models.Payment
	saveSubErr    error
}

func newMemRepo() *memRepo {
	return &memRepo{
		users:    make(map[string]models.User),
		codes:    make(map[string]models.ConfirmationCode),
		plans:    make(map[string]models.Plan),
		settings: make(map[string]models.SendSettings),
		payments: make(map[string]models.Payment),
	}
}

func (r *memRepo) CreateUser(ctx context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = *u
	return nil
}

func (r *memRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, database.ErrNotFound
}

func (r *memRepo) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &u, nil
}

func (r *memRepo) MarkUserConfirmed(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return database.ErrNotFound
	}
	u.Confirmado = true
	r.users[id] = u
	return nil
}

func (r *memRepo) CreateConfirmationCode(ctx context.Context, c *models.ConfirmationCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes[c.ID] = *c
	return nil
}

func (r *memRepo) GetValidConfirmationCode(ctx context.Context, userID, code string, now time.Time) (*models.ConfirmationCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.codes {
		if c.UsuarioID == userID && c.Codigo == code && !c.Usado && now.Before(c.ExpiraEm) {
			return &c, nil
		}
	}
	return nil, database.ErrNotFound
}

func (r *memRepo) MarkCodeUsed(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.codes[id]
	c.Usado = true
	r.codes[id] = c
	return nil
}

func (r *memRepo) DeleteExpiredCodes(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, c := range r.codes {
		if c.Usado || !now.Before(c.ExpiraEm) {
			delete(r.codes, id)
			n++
		}
	}
	return n, nil
}

func (r *memRepo) ListPlans(ctx context.Context) ([]models.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Plan
	for _, p := range r.plans {
		if p.Ativo {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Preco.LessThan(out[j].Preco) })
	return out, nil
}

func (r *memRepo) GetPlan(ctx context.Context, id string) (*models.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.plans[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &p, nil
}

func (r *memRepo) GetLatestSubscription(ctx context.Context, userID string) (*models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *models.Subscription
	for i := range r.subscriptions {
		s := r.subscriptions[i]
		if s.UsuarioID == userID && (latest == nil || s.Fim.After(latest.Fim)) {
			latest = &s
		}
	}
	if latest == nil {
		return nil, database.ErrNotFound
	}
	return latest, nil
}

func (r *memRepo) SaveSubscription(ctx context.Context, s *models.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveSubErr != nil {
		return r.saveSubErr
	}
	for i := range r.subscriptions {
		if r.subscriptions[i].ID == s.ID {
			r.subscriptions[i] = *s
			return nil
		}
	}
	r.subscriptions = append(r.subscriptions, *s)
	return nil
}

func (r *memRepo) ExpireSubscriptions(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for i, s := range r.subscriptions {
		if s.Status == models.SubscriptionActive && !now.Before(s.Fim) {
			r.subscriptions[i].Status = models.SubscriptionExpired
			n++
		}
	}
	return n, nil
}

func (r *memRepo) GetSendSettings(ctx context.Context, userID string) (*models.SendSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.settings[userID]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &s, nil
}

func (r *memRepo) SaveSendSettings(ctx context.Context, s *models.SendSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings[s.UsuarioID] = *s
	return nil
}

func (r *memRepo) ListActiveSendSettings(ctx context.Context) ([]models.SendSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.SendSettings
	for _, s := range r.settings {
		if s.Ativo {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memRepo) InsertSendLog(ctx context.Context, l *models.SendLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, *l)
	return nil
}

func (r *memRepo) CreatePayment(ctx context.Context, p *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments[p.ID] = *p
	return nil
}

func (r *memRepo) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &p, nil
}

func (r *memRepo) MarkPaymentPaid(ctx context.Context, id string, paidAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok || p.Status == models.PaymentPaid {
		return database.ErrNotFound
	}
	p.Status = models.PaymentPaid
	p.PagoEm = &paidAt
	r.payments[id] = p
	return nil
}

func (r *memRepo) ReopenPayment(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok || p.Status != models.PaymentPaid {
		return database.ErrNotFound
	}
	p.Status = models.PaymentPending
	p.PagoEm = nil
	r.payments[id] = p
	return nil
}
