package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"loterias/internal/database"
	"loterias/internal/models"
)

var (
	ErrPaymentNotFound = errors.New("pagamento não encontrado")
	ErrAlreadyPaid     = errors.New("pagamento já confirmado")
	ErrInvalidMethod   = errors.New("forma de pagamento inválida")
)

const boletoDueDays = 3

// PixConfig identifies the receiver of simulated PIX charges.
type PixConfig struct {
	Key      string
	Merchant string
	City     string
}

// PaymentRepository is the persistence the payment service needs.
type PaymentRepository interface {
	CreatePayment(ctx context.Context, p *models.Payment) error
	GetPayment(ctx context.Context, id string) (*models.Payment, error)
	MarkPaymentPaid(ctx context.Context, id string, paidAt time.Time) error
	ReopenPayment(ctx context.Context, id string) error
}

// PaymentService creates simulated PIX/boleto charges and, once "paid",
// activates the corresponding plan.
type PaymentService struct {
	repo     PaymentRepository
	accounts *AccountService
	pix      PixConfig
	bankCode string
	now      func() time.Time
}

// NewPaymentService creates a PaymentService.
func NewPaymentService(repo PaymentRepository, accounts *AccountService, pix PixConfig, bankCode string) *PaymentService {
	if bankCode == "" {
		bankCode = "001"
	}
	return &PaymentService{
		repo:     repo,
		accounts: accounts,
		pix:      pix,
		bankCode: bankCode,
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Second) },
	}
}

// CreateCharge issues a pending charge for a plan.
func (s *PaymentService) CreateCharge(ctx context.Context, userID, planID, method string) (*models.Payment, error) {
	plan, err := s.accounts.Plan(ctx, planID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	id := uuid.New()
	p := &models.Payment{
		ID:        id.String(),
		UsuarioID: userID,
		PlanoID:   plan.ID,
		Metodo:    method,
		Valor:     plan.Preco,
		Status:    models.PaymentPending,
		CriadoEm:  now,
	}
	switch method {
	case models.PaymentPix:
		p.Vencimento = now.Add(time.Hour)
		p.PixCopiaECola = PixPayload(s.pix, plan.Preco, txid(id))
	case models.PaymentBoleto:
		p.Vencimento = now.AddDate(0, 0, boletoDueDays)
		p.LinhaDigitavel, err = LinhaDigitavel(s.bankCode, plan.Preco, p.Vencimento, nossoNumero(id))
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidMethod, method)
	}
	if err := s.repo.CreatePayment(ctx, p); err != nil {
		return nil, err
	}
	logger.Infof("Created %s charge %s of %s for user %s", method, p.ID, p.Valor.StringFixed(2), userID)
	return p, nil
}

// Payment returns a charge.
func (s *PaymentService) Payment(ctx context.Context, id string) (*models.Payment, error) {
	p, err := s.repo.GetPayment(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrPaymentNotFound
	}
	return p, err
}

// SimulatePayment marks a pending charge as paid and activates its plan. When
// the plan cannot be activated the charge goes back to pending so it can be
// paid again.
func (s *PaymentService) SimulatePayment(ctx context.Context, id string) (*models.Payment, *models.Subscription, error) {
	p, err := s.Payment(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if p.Status == models.PaymentPaid {
		return nil, nil, ErrAlreadyPaid
	}
	plan, err := s.accounts.Plan(ctx, p.PlanoID)
	if err != nil {
		return nil, nil, err
	}

	paidAt := s.now()
	if err := s.repo.MarkPaymentPaid(ctx, id, paidAt); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil, ErrAlreadyPaid
		}
		return nil, nil, err
	}
	sub, err := s.accounts.ActivatePlan(ctx, p.UsuarioID, plan)
	if err != nil {
		if rerr := s.repo.ReopenPayment(ctx, id); rerr != nil {
			logger.Errorf("Payment %s paid without subscription, reopening failed: %v", id, rerr)
		}
		return nil, nil, fmt.Errorf("ativar plano %s: %w", plan.ID, err)
	}
	p.Status = models.PaymentPaid
	p.PagoEm = &paidAt
	return p, sub, nil
}

// txid derives a 25-character alphanumeric transaction id.
func txid(id uuid.UUID) string {
	return strings.ToUpper(strings.ReplaceAll(id.String(), "-", ""))[:25]
}

// nossoNumero derives 25 digits from the charge id for the boleto free field.
func nossoNumero(id uuid.UUID) string {
	var b strings.Builder
	for _, v := range id {
		fmt.Fprintf(&b, "%03d", v)
	}
	return b.String()[:25]
}

func emv(id, value string) string {
	return fmt.Sprintf("%s%02d%s", id, len(value), value)
}

// sanitizePix keeps the characters accepted in BR Code name and city fields.
func sanitizePix(s string, limit int) string {
	s = strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ') {
			return unicode.ToUpper(r)
		}
		return -1
	}, accentReplacer.Replace(strings.ToLower(s)))
	if len(s) > limit {
		s = s[:limit]
	}
	return s
}

// PixPayload builds a static BR Code ("PIX copia e cola") with its CRC16.
func PixPayload(cfg PixConfig, amount decimal.Decimal, txid string) string {
	account := emv("00", "br.gov.bcb.pix") + emv("01", cfg.Key)
	payload := emv("00", "01") +
		emv("26", account) +
		emv("52", "0000") +
		emv("53", "986") +
		emv("54", amount.StringFixed(2)) +
		emv("58", "BR") +
		emv("59", sanitizePix(cfg.Merchant, 25)) +
		emv("60", sanitizePix(cfg.City, 15)) +
		emv("62", emv("05", txid)) +
		"6304"
	return payload + fmt.Sprintf("%04X", crc16CCITT([]byte(payload)))
}

// crc16CCITT is CRC-16/CCITT-FALSE (poly 0x1021, init 0xFFFF), as required by
// the BR Code specification.
func crc16CCITT(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

var (
	boletoBase      = time.Date(1997, 10, 7, 0, 0, 0, 0, time.UTC)
	boletoFactorMax = 9999
)

// dueFactor is the number of days since the boleto base date. The factor
// wraps back to 1000 after 9999 (from 22/02/2025 on).
func dueFactor(due time.Time) int {
	days := int(due.UTC().Truncate(24*time.Hour).Sub(boletoBase).Hours() / 24)
	if days > boletoFactorMax {
		days = (days-1000)%9000 + 1000
	}
	return days
}

func mod10(digits string) int {
	sum := 0
	weight := 2
	for i := len(digits) - 1; i >= 0; i-- {
		p := int(digits[i]-'0') * weight
		sum += p/10 + p%10
		weight = 3 - weight
	}
	return (10 - sum%10) % 10
}

func mod11(digits string) int {
	sum := 0
	weight := 2
	for i := len(digits) - 1; i >= 0; i-- {
		sum += int(digits[i]-'0') * weight
		weight++
		if weight > 9 {
			weight = 2
		}
	}
	dv := 11 - sum%11
	if dv == 0 || dv == 10 || dv == 11 {
		return 1
	}
	return dv
}

// LinhaDigitavel builds the 47-digit typeable line of a boleto from the bank
// code, amount, due date and the 25-digit free field.
func LinhaDigitavel(bank string, amount decimal.Decimal, due time.Time, campoLivre string) (string, error) {
	if len(bank) != 3 || len(campoLivre) != 25 {
		return "", fmt.Errorf("boleto: banco ou campo livre com tamanho inválido")
	}
	cents := amount.Shift(2).IntPart()
	if cents < 0 || cents > 9999999999 {
		return "", fmt.Errorf("boleto: valor fora do intervalo")
	}
	// Barcode without its check digit: bank, currency, factor, amount, free field.
	partial := fmt.Sprintf("%s9%04d%010d%s", bank, dueFactor(due), cents, campoLivre)
	dv := mod11(partial)
	barcode := partial[:4] + fmt.Sprint(dv) + partial[4:]

	field1 := barcode[0:4] + barcode[19:24]
	field2 := barcode[24:34]
	field3 := barcode[34:44]
	return fmt.Sprintf("%s%d%s%d%s%d%c%s",
		field1, mod10(field1),
		field2, mod10(field2),
		field3, mod10(field3),
		barcode[4], barcode[5:19]), nil
}
