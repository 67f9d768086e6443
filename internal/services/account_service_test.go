package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"loterias/internal/models"
)

const testSecret = "segredo-de-teste"

var monthlyPlan = models.Plan{
	ID: "mensal", Nome: "Mensal", Preco: decimal.RequireFromString("29.90"), DuracaoDias: 30, Ativo: true,
}

func newTestAccounts(t *testing.T) (*AccountService, *memRepo, *time.Time) {
	t.Helper()
	repo := newMemRepo()
	repo.plans[monthlyPlan.ID] = monthlyPlan
	repo.plans["antigo"] = models.Plan{ID: "antigo", Nome: "Antigo", Preco: decimal.NewFromInt(10), DuracaoDias: 30}
	service := NewAccountService(repo, testSecret, time.Hour)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return now }
	return service, repo, &now
}

func registerConfirmed(t *testing.T, service *AccountService, email string) *models.User {
	t.Helper()
	ctx := context.Background()
	user, code, err := service.Register(ctx, "Maria", email, "senha123")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := service.Confirm(ctx, email, code.Codigo); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	return user
}

func TestAccountService_RegisterConfirmLogin(t *testing.T) {
	service, repo, now := newTestAccounts(t)
	ctx := context.Background()

	user, code, err := service.Register(ctx, " Maria ", "Maria@Example.com", "senha123")
	if err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	if user.Email != "maria@example.com" || user.Nome != "Maria" {
		t.Errorf("expected normalized user, got %+v", user)
	}
	if user.SenhaHash == "senha123" || user.SenhaHash == "" {
		t.Error("expected the password to be hashed")
	}
	if len(code.Codigo) != 6 || !code.ExpiraEm.Equal(now.Add(30*time.Minute)) {
		t.Errorf("unexpected confirmation code %+v", code)
	}

	t.Run("duplicated e-mail", func(t *testing.T) {
		if _, _, err := service.Register(ctx, "Outra", "maria@example.com", "senha123"); !errors.Is(err, ErrEmailTaken) {
			t.Errorf("expected ErrEmailTaken, got %v", err)
		}
	})

	t.Run("login before confirmation", func(t *testing.T) {
		if _, _, err := service.Authenticate(ctx, "maria@example.com", "senha123"); !errors.Is(err, ErrUserNotConfirmed) {
			t.Errorf("expected ErrUserNotConfirmed, got %v", err)
		}
	})

	t.Run("wrong code", func(t *testing.T) {
		if err := service.Confirm(ctx, "maria@example.com", "000000x"); !errors.Is(err, ErrInvalidCode) {
			t.Errorf("expected ErrInvalidCode, got %v", err)
		}
	})

	t.Run("confirm and login", func(t *testing.T) {
		if err := service.Confirm(ctx, "maria@example.com", code.Codigo); err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		if !repo.users[user.ID].Confirmado {
			t.Error("expected user to be confirmed")
		}
		if err := service.Confirm(ctx, "maria@example.com", code.Codigo); !errors.Is(err, ErrInvalidCode) {
			t.Errorf("expected a used code to be rejected, got %v", err)
		}

		// Tokens are validated against the wall clock.
		service.now = func() time.Time { return time.Now().UTC().Truncate(time.Second) }
		token, _, err := service.Authenticate(ctx, "maria@example.com", "senha123")
		if err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		id, err := service.ParseToken(token)
		if err != nil || id != user.ID {
			t.Errorf("expected token for %s, got %q, %v", user.ID, id, err)
		}
		if _, err := service.ParseToken(token + "x"); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken for a tampered token, got %v", err)
		}
		other := NewAccountService(repo, "outro-segredo", time.Hour)
		if _, err := other.ParseToken(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken for another secret, got %v", err)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		if _, _, err := service.Authenticate(ctx, "maria@example.com", "errada"); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
		if _, _, err := service.Authenticate(ctx, "ninguem@example.com", "senha123"); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials for unknown user, got %v", err)
		}
	})
}

func TestAccountService_RegisterValidation(t *testing.T) {
	service, _, _ := newTestAccounts(t)
	ctx := context.Background()
	cases := []struct{ nome, email, senha string }{
		{"", "a@b.com", "senha123"},
		{"Ana", "não é e-mail", "senha123"},
		{"Ana", "a@b.com", "123"},
	}
	for _, c := range cases {
		if _, _, err := service.Register(ctx, c.nome, c.email, c.senha); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Register(%q, %q, %q): expected ErrInvalidInput, got %v", c.nome, c.email, c.senha, err)
		}
	}
}

func TestAccountService_ExpiredCode(t *testing.T) {
	service, repo, now := newTestAccounts(t)
	ctx := context.Background()
	_, code, err := service.Register(ctx, "Ana", "ana@example.com", "senha123")
	if err != nil {
		t.Fatal(err)
	}

	later := now.Add(31 * time.Minute)
	service.now = func() time.Time { return later }
	if err := service.Confirm(ctx, "ana@example.com", code.Codigo); !errors.Is(err, ErrInvalidCode) {
		t.Errorf("expected expired code to be rejected, got %v", err)
	}
	if n, err := service.CleanExpiredCodes(ctx); err != nil || n != 1 || len(repo.codes) != 0 {
		t.Errorf("expected the expired code to be removed, got %d, %v", n, err)
	}
}

func TestAccountService_Subscriptions(t *testing.T) {
	service, repo, now := newTestAccounts(t)
	ctx := context.Background()
	user := registerConfirmed(t, service, "joao@example.com")

	if _, err := service.ActiveSubscription(ctx, user.ID); !errors.Is(err, ErrNoActiveSubscription) {
		t.Fatalf("expected ErrNoActiveSubscription, got %v", err)
	}
	if _, err := service.Plan(ctx, "antigo"); !errors.Is(err, ErrPlanNotFound) {
		t.Errorf("expected inactive plan to be hidden, got %v", err)
	}
	plans, err := service.ListPlans(ctx)
	if err != nil || len(plans) != 1 {
		t.Errorf("expected only the active plan, got %v, %v", plans, err)
	}

	plan, err := service.Plan(ctx, monthlyPlan.ID)
	if err != nil {
		t.Fatal(err)
	}
	sub, err := service.ActivatePlan(ctx, user.ID, plan)
	if err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	if !sub.Fim.Equal(now.AddDate(0, 0, 30)) {
		t.Errorf("expected 30 days of access, got until %s", sub.Fim)
	}

	t.Run("paying again extends the period", func(t *testing.T) {
		extended, err := service.ActivatePlan(ctx, user.ID, plan)
		if err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		if extended.ID != sub.ID || !extended.Fim.Equal(now.AddDate(0, 0, 60)) {
			t.Errorf("expected the same subscription extended to 60 days, got %+v", extended)
		}
		if len(repo.subscriptions) != 1 {
			t.Errorf("expected a single subscription row, got %d", len(repo.subscriptions))
		}
	})

	t.Run("expiry", func(t *testing.T) {
		later := now.AddDate(0, 0, 61)
		service.now = func() time.Time { return later }
		if _, err := service.ActiveSubscription(ctx, user.ID); !errors.Is(err, ErrNoActiveSubscription) {
			t.Errorf("expected subscription to be over, got %v", err)
		}
		if n, err := service.ExpireSubscriptions(ctx); err != nil || n != 1 {
			t.Errorf("expected 1 subscription expired, got %d, %v", n, err)
		}
		if repo.subscriptions[0].Status != models.SubscriptionExpired {
			t.Errorf("expected status %q, got %q", models.SubscriptionExpired, repo.subscriptions[0].Status)
		}
	})
}

func TestAccountService_SendSettings(t *testing.T) {
	service, repo, _ := newTestAccounts(t)
	ctx := context.Background()

	invalid := []models.SendSettings{
		{UsuarioID: "u1", Canal: "sms", Destino: "123", Jogo: "quina"},
		{UsuarioID: "u1", Canal: "email", Destino: " ", Jogo: "quina"},
		{UsuarioID: "u1", Canal: "email", Destino: "a@b.com", Jogo: "bingo"},
	}
	for _, s := range invalid {
		if err := service.SaveSendSettings(ctx, &s); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for %+v, got %v", s, err)
		}
	}

	settings := models.SendSettings{UsuarioID: "u1", Canal: "whatsapp", Destino: "+5511999999999", Jogo: "megasena", Ativo: true}
	if err := service.SaveSendSettings(ctx, &settings); err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	active, err := service.ActiveSendSettings(ctx)
	if err != nil || len(active) != 1 {
		t.Fatalf("expected 1 active setting, got %v, %v", active, err)
	}

	if err := service.RecordSend(ctx, settings, "ok", nil); err != nil {
		t.Fatal(err)
	}
	if err := service.RecordSend(ctx, settings, "falhou", errors.New("timeout")); err != nil {
		t.Fatal(err)
	}
	if repo.logs[0].Status != "enviado" || repo.logs[1].Status != "erro" || repo.logs[1].Erro != "timeout" {
		t.Errorf("unexpected send logs %+v", repo.logs)
	}
}
