package services

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/logger"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"loterias/internal/database"
	"loterias/internal/models"
)

var (
	ErrInvalidInput         = errors.New("dados inválidos")
	ErrEmailTaken           = errors.New("e-mail já cadastrado")
	ErrInvalidCredentials   = errors.New("e-mail ou senha inválidos")
	ErrInvalidCode          = errors.New("código de confirmação inválido ou expirado")
	ErrUserNotConfirmed     = errors.New("e-mail ainda não confirmado")
	ErrNoActiveSubscription = errors.New("nenhuma assinatura ativa")
	ErrPlanNotFound         = errors.New("plano não encontrado")
	ErrInvalidToken         = errors.New("token inválido")
)

const (
	codeTTL     = 30 * time.Minute
	minPassword = 6
)

// AccountRepository is the persistence the account service needs.
type AccountRepository interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	MarkUserConfirmed(ctx context.Context, id string) error
	CreateConfirmationCode(ctx context.Context, c *models.ConfirmationCode) error
	GetValidConfirmationCode(ctx context.Context, userID, code string, now time.Time) (*models.ConfirmationCode, error)
	MarkCodeUsed(ctx context.Context, id string) error
	DeleteExpiredCodes(ctx context.Context, now time.Time) (int64, error)
	ListPlans(ctx context.Context) ([]models.Plan, error)
	GetPlan(ctx context.Context, id string) (*models.Plan, error)
	GetLatestSubscription(ctx context.Context, userID string) (*models.Subscription, error)
	SaveSubscription(ctx context.Context, s *models.Subscription) error
	ExpireSubscriptions(ctx context.Context, now time.Time) (int64, error)
	GetSendSettings(ctx context.Context, userID string) (*models.SendSettings, error)
	SaveSendSettings(ctx context.Context, s *models.SendSettings) error
	ListActiveSendSettings(ctx context.Context) ([]models.SendSettings, error)
	InsertSendLog(ctx context.Context, l *models.SendLog) error
}

// AccountService handles registration, login, plans and subscriptions.
type AccountService struct {
	repo      AccountRepository
	jwtSecret []byte
	tokenTTL  time.Duration
	now       func() time.Time
}

// NewAccountService creates an AccountService signing tokens with secret.
func NewAccountService(repo AccountRepository, secret string, tokenTTL time.Duration) *AccountService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AccountService{
		repo:      repo,
		jwtSecret: []byte(secret),
		tokenTTL:  tokenTTL,
		now:       func() time.Time { return time.Now().UTC().Truncate(time.Second) },
	}
}

// Register creates an unconfirmed user and issues its first confirmation code.
func (s *AccountService) Register(ctx context.Context, nome, email, senha string) (*models.User, *models.ConfirmationCode, error) {
	nome = strings.TrimSpace(nome)
	email = strings.ToLower(strings.TrimSpace(email))
	if nome == "" {
		return nil, nil, fmt.Errorf("%w: nome obrigatório", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, nil, fmt.Errorf("%w: e-mail %q", ErrInvalidInput, email)
	}
	if len(senha) < minPassword {
		return nil, nil, fmt.Errorf("%w: a senha precisa de ao menos %d caracteres", ErrInvalidInput, minPassword)
	}

	if _, err := s.repo.GetUserByEmail(ctx, email); err == nil {
		return nil, nil, ErrEmailTaken
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(senha), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, err
	}
	user := &models.User{
		ID:        uuid.NewString(),
		Nome:      nome,
		Email:     email,
		SenhaHash: string(hash),
		CriadoEm:  s.now(),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, nil, err
	}
	code, err := s.IssueConfirmationCode(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	logger.Infof("Registered user %s", user.ID)
	return user, code, nil
}

// IssueConfirmationCode creates a six-digit single-use code valid for 30
// minutes.
func (s *AccountService) IssueConfirmationCode(ctx context.Context, userID string) (*models.ConfirmationCode, error) {
	id := uuid.New()
	code := &models.ConfirmationCode{
		ID:        id.String(),
		UsuarioID: userID,
		Codigo:    fmt.Sprintf("%06d", binary.BigEndian.Uint32(id[:4])%1000000),
		ExpiraEm:  s.now().Add(codeTTL),
	}
	if err := s.repo.CreateConfirmationCode(ctx, code); err != nil {
		return nil, err
	}
	return code, nil
}

// Confirm validates a code and marks the user's e-mail as confirmed.
func (s *AccountService) Confirm(ctx context.Context, email, codigo string) error {
	user, err := s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrInvalidCode
		}
		return err
	}
	code, err := s.repo.GetValidConfirmationCode(ctx, user.ID, strings.TrimSpace(codigo), s.now())
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrInvalidCode
		}
		return err
	}
	if err := s.repo.MarkCodeUsed(ctx, code.ID); err != nil {
		return err
	}
	return s.repo.MarkUserConfirmed(ctx, user.ID)
}

// Authenticate checks the credentials and returns a signed token.
func (s *AccountService) Authenticate(ctx context.Context, email, senha string) (string, *models.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.SenhaHash), []byte(senha)); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if !user.Confirmado {
		return "", nil, ErrUserNotConfirmed
	}

	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   user.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// ParseToken validates a token and returns the user id it was issued for.
func (s *AccountService) ParseToken(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// User returns a user by id.
func (s *AccountService) User(ctx context.Context, id string) (*models.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

// ListPlans returns the active plans.
func (s *AccountService) ListPlans(ctx context.Context) ([]models.Plan, error) {
	return s.repo.ListPlans(ctx)
}

// Plan returns an active plan by id.
func (s *AccountService) Plan(ctx context.Context, id string) (*models.Plan, error) {
	plan, err := s.repo.GetPlan(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	if !plan.Ativo {
		return nil, ErrPlanNotFound
	}
	return plan, nil
}

// ActiveSubscription returns the user's subscription when it currently grants
// access.
func (s *AccountService) ActiveSubscription(ctx context.Context, userID string) (*models.Subscription, error) {
	sub, err := s.repo.GetLatestSubscription(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrNoActiveSubscription
		}
		return nil, err
	}
	if !sub.IsActive(s.now()) {
		return nil, ErrNoActiveSubscription
	}
	return sub, nil
}

// ActivatePlan grants the plan to the user. An active subscription is
// extended by the plan's duration; otherwise a new period starts now.
func (s *AccountService) ActivatePlan(ctx context.Context, userID string, plan *models.Plan) (*models.Subscription, error) {
	now := s.now()
	period := time.Duration(plan.DuracaoDias) * 24 * time.Hour

	sub, err := s.ActiveSubscription(ctx, userID)
	switch {
	case err == nil:
		sub.Fim = sub.Fim.Add(period)
		sub.PlanoID = plan.ID
	case errors.Is(err, ErrNoActiveSubscription):
		sub = &models.Subscription{
			ID:        uuid.NewString(),
			UsuarioID: userID,
			PlanoID:   plan.ID,
			Status:    models.SubscriptionActive,
			Inicio:    now,
			Fim:       now.Add(period),
			CriadoEm:  now,
		}
	default:
		return nil, err
	}
	if err := s.repo.SaveSubscription(ctx, sub); err != nil {
		return nil, err
	}
	logger.Infof("Subscription %s of user %s active until %s", sub.ID, userID, sub.Fim.Format(time.RFC3339))
	return sub, nil
}

// ExpireSubscriptions flags every active subscription whose period ended.
func (s *AccountService) ExpireSubscriptions(ctx context.Context) (int64, error) {
	return s.repo.ExpireSubscriptions(ctx, s.now())
}

// CleanExpiredCodes removes used and expired confirmation codes.
func (s *AccountService) CleanExpiredCodes(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpiredCodes(ctx, s.now())
}

// SendSettings returns the user's delivery preferences.
func (s *AccountService) SendSettings(ctx context.Context, userID string) (*models.SendSettings, error) {
	return s.repo.GetSendSettings(ctx, userID)
}

// SaveSendSettings validates and stores the user's delivery preferences.
func (s *AccountService) SaveSendSettings(ctx context.Context, settings *models.SendSettings) error {
	switch settings.Canal {
	case "email", "whatsapp":
	default:
		return fmt.Errorf("%w: canal %q", ErrInvalidInput, settings.Canal)
	}
	if strings.TrimSpace(settings.Destino) == "" {
		return fmt.Errorf("%w: destino obrigatório", ErrInvalidInput)
	}
	if _, ok := models.GameBySlug(settings.Jogo); !ok {
		return fmt.Errorf("%w: jogo %q", ErrInvalidInput, settings.Jogo)
	}
	return s.repo.SaveSendSettings(ctx, settings)
}

// ActiveSendSettings lists every enabled delivery preference.
func (s *AccountService) ActiveSendSettings(ctx context.Context) ([]models.SendSettings, error) {
	return s.repo.ListActiveSendSettings(ctx)
}

// RecordSend stores the outcome of a delivery attempt.
func (s *AccountService) RecordSend(ctx context.Context, settings models.SendSettings, message string, sendErr error) error {
	entry := &models.SendLog{
		ID:        uuid.NewString(),
		UsuarioID: settings.UsuarioID,
		Canal:     settings.Canal,
		Destino:   settings.Destino,
		Mensagem:  message,
		Status:    "enviado",
		CriadoEm:  s.now(),
	}
	if sendErr != nil {
		entry.Status = "erro"
		entry.Erro = sendErr.Error()
	}
	return s.repo.InsertSendLog(ctx, entry)
}
