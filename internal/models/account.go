package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is a registered account (table usuarios).
type User struct {
	ID         string    `json:"id"`
	Nome       string    `json:"nome"`
	Email      string    `json:"email"`
	SenhaHash  string    `json:"-"`
	Telefone   string    `json:"telefone,omitempty"`
	Confirmado bool      `json:"confirmado"`
	CriadoEm   time.Time `json:"criado_em"`
}

// Plan is a commercial plan (table planos).
type Plan struct {
	ID          string          `json:"id"`
	Nome        string          `json:"nome"`
	Descricao   string          `json:"descricao"`
	Preco       decimal.Decimal `json:"preco"`
	DuracaoDias int             `json:"duracao_dias"`
	Ativo       bool            `json:"ativo"`
}

// Subscription statuses.
const (
	SubscriptionPending  = "pendente"
	SubscriptionActive   = "ativa"
	SubscriptionExpired  = "expirada"
	SubscriptionCanceled = "cancelada"
)

// Subscription links a user to a plan for a period (table assinaturas).
type Subscription struct {
	ID        string    `json:"id"`
	UsuarioID string    `json:"usuario_id"`
	PlanoID   string    `json:"plano_id"`
	Status    string    `json:"status"`
	Inicio    time.Time `json:"inicio"`
	Fim       time.Time `json:"fim"`
	CriadoEm  time.Time `json:"criado_em"`
}

// IsActive reports whether the subscription grants access at instant now.
func (s Subscription) IsActive(now time.Time) bool {
	return s.Status == SubscriptionActive && now.Before(s.Fim)
}

// ConfirmationCode is a single-use code sent to confirm an e-mail address
// (table codigos_confirmacao).
type ConfirmationCode struct {
	ID        string    `json:"id"`
	UsuarioID string    `json:"usuario_id"`
	Codigo    string    `json:"codigo"`
	ExpiraEm  time.Time `json:"expira_em"`
	Usado     bool      `json:"usado"`
}

// SendSettings are a user's preferences for receiving suggested cards
// (table configuracoes_envio).
type SendSettings struct {
	UsuarioID string `json:"usuario_id"`
	Canal     string `json:"canal"` // email | whatsapp
	Destino   string `json:"destino"`
	Jogo      string `json:"jogo"`
	Ativo     bool   `json:"ativo"`
}

// SendLog records one delivery attempt (table logs_envio).
type SendLog struct {
	ID        string    `json:"id"`
	UsuarioID string    `json:"usuario_id"`
	Canal     string    `json:"canal"`
	Destino   string    `json:"destino"`
	Mensagem  string    `json:"mensagem"`
	Status    string    `json:"status"`
	Erro      string    `json:"erro,omitempty"`
	CriadoEm  time.Time `json:"criado_em"`
}

// Payment methods and statuses.
const (
	PaymentPix    = "pix"
	PaymentBoleto = "boleto"

	PaymentPending = "pendente"
	PaymentPaid    = "pago"
)

// Payment is a simulated PIX or boleto charge (table pagamentos).
type Payment struct {
	ID             string          `json:"id"`
	UsuarioID      string          `json:"usuario_id"`
	PlanoID        string          `json:"plano_id"`
	Metodo         string          `json:"metodo"`
	Valor          decimal.Decimal `json:"valor"`
	Status         string          `json:"status"`
	PixCopiaECola  string          `json:"pix_copia_e_cola,omitempty"`
	LinhaDigitavel string          `json:"linha_digitavel,omitempty"`
	Vencimento     time.Time       `json:"vencimento"`
	CriadoEm       time.Time       `json:"criado_em"`
	PagoEm         *time.Time      `json:"pago_em,omitempty"`
}
