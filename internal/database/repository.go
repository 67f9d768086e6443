package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"loterias/internal/models"
)

// Repository reúne as consultas de usuários, planos, assinaturas, códigos,
// pagamentos e envios.
type Repository struct {
	db Database
}

// NewRepository cria um repositório sobre uma conexão aberta.
func NewRepository(db Database) *Repository {
	return &Repository{db: db}
}

func (r *Repository) exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return r.db.GetDB().ExecContext(ctx, r.db.Rebind(query), args...)
}

func (r *Repository) queryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return r.db.GetDB().QueryRowContext(ctx, r.db.Rebind(query), args...)
}

func (r *Repository) query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return r.db.GetDB().QueryContext(ctx, r.db.Rebind(query), args...)
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// --- usuarios ---

const userColumns = "id, nome, email, senha_hash, telefone, confirmado, criado_em"

func scanUser(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	var u models.User
	var telefone sql.NullString
	if err := row.Scan(&u.ID, &u.Nome, &u.Email, &u.SenhaHash, &telefone, &u.Confirmado, &u.CriadoEm); err != nil {
		return nil, notFound(err)
	}
	u.Telefone = telefone.String
	return &u, nil
}

// CreateUser insere um novo usuário.
func (r *Repository) CreateUser(ctx context.Context, u *models.User) error {
	_, err := r.exec(ctx,
		"INSERT INTO usuarios ("+userColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		u.ID, u.Nome, u.Email, u.SenhaHash, nullString(u.Telefone), u.Confirmado, u.CriadoEm)
	return err
}

// GetUserByEmail busca um usuário pelo e-mail.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.queryRow(ctx, "SELECT "+userColumns+" FROM usuarios WHERE email = ?", email))
}

// GetUserByID busca um usuário pelo id.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return scanUser(r.queryRow(ctx, "SELECT "+userColumns+" FROM usuarios WHERE id = ?", id))
}

// MarkUserConfirmed marca o e-mail do usuário como confirmado.
func (r *Repository) MarkUserConfirmed(ctx context.Context, id string) error {
	_, err := r.exec(ctx, "UPDATE usuarios SET confirmado = ? WHERE id = ?", true, id)
	return err
}

// --- codigos_confirmacao ---

// CreateConfirmationCode grava um código de confirmação.
func (r *Repository) CreateConfirmationCode(ctx context.Context, c *models.ConfirmationCode) error {
	_, err := r.exec(ctx,
		"INSERT INTO codigos_confirmacao (id, usuario_id, codigo, expira_em, usado) VALUES (?, ?, ?, ?, ?)",
		c.ID, c.UsuarioID, c.Codigo, c.ExpiraEm, c.Usado)
	return err
}

// GetValidConfirmationCode busca um código não usado e não expirado.
func (r *Repository) GetValidConfirmationCode(ctx context.Context, userID, code string, now time.Time) (*models.ConfirmationCode, error) {
	var c models.ConfirmationCode
	err := r.queryRow(ctx,
		`SELECT id, usuario_id, codigo, expira_em, usado FROM codigos_confirmacao
		 WHERE usuario_id = ? AND codigo = ? AND usado = ? AND expira_em > ?`,
		userID, code, false, now).Scan(&c.ID, &c.UsuarioID, &c.Codigo, &c.ExpiraEm, &c.Usado)
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// MarkCodeUsed invalida um código.
func (r *Repository) MarkCodeUsed(ctx context.Context, id string) error {
	_, err := r.exec(ctx, "UPDATE codigos_confirmacao SET usado = ? WHERE id = ?", true, id)
	return err
}

// DeleteExpiredCodes remove códigos usados ou expirados.
func (r *Repository) DeleteExpiredCodes(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.exec(ctx, "DELETE FROM codigos_confirmacao WHERE usado = ? OR expira_em <= ?", true, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// --- planos ---

const planColumns = "id, nome, descricao, preco, duracao_dias, ativo"

func scanPlan(row interface{ Scan(...interface{}) error }) (*models.Plan, error) {
	var p models.Plan
	var descricao sql.NullString
	if err := row.Scan(&p.ID, &p.Nome, &descricao, &p.Preco, &p.DuracaoDias, &p.Ativo); err != nil {
		return nil, notFound(err)
	}
	p.Descricao = descricao.String
	return &p, nil
}

// UpsertPlan cria ou atualiza um plano pelo nome.
func (r *Repository) UpsertPlan(ctx context.Context, p *models.Plan) error {
	_, err := r.exec(ctx,
		`INSERT INTO planos (`+planColumns+`) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (nome) DO UPDATE SET descricao = excluded.descricao, preco = excluded.preco,
		 duracao_dias = excluded.duracao_dias, ativo = excluded.ativo`,
		p.ID, p.Nome, nullString(p.Descricao), p.Preco, p.DuracaoDias, p.Ativo)
	return err
}

// ListPlans lista os planos ativos, do mais barato ao mais caro.
func (r *Repository) ListPlans(ctx context.Context) ([]models.Plan, error) {
	rows, err := r.query(ctx, "SELECT "+planColumns+" FROM planos WHERE ativo = ? ORDER BY duracao_dias", true)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []models.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *p)
	}
	return plans, rows.Err()
}

// GetPlan busca um plano pelo id.
func (r *Repository) GetPlan(ctx context.Context, id string) (*models.Plan, error) {
	return scanPlan(r.queryRow(ctx, "SELECT "+planColumns+" FROM planos WHERE id = ?", id))
}

// --- assinaturas ---

// GetLatestSubscription retorna a assinatura mais recente do usuário.
func (r *Repository) GetLatestSubscription(ctx context.Context, userID string) (*models.Subscription, error) {
	var s models.Subscription
	err := r.queryRow(ctx,
		`SELECT id, usuario_id, plano_id, status, inicio, fim, criado_em FROM assinaturas
		 WHERE usuario_id = ? ORDER BY fim DESC LIMIT 1`, userID).
		Scan(&s.ID, &s.UsuarioID, &s.PlanoID, &s.Status, &s.Inicio, &s.Fim, &s.CriadoEm)
	if err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

// SaveSubscription insere ou atualiza uma assinatura pelo id.
func (r *Repository) SaveSubscription(ctx context.Context, s *models.Subscription) error {
	_, err := r.exec(ctx,
		`INSERT INTO assinaturas (id, usuario_id, plano_id, status, inicio, fim, criado_em)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET plano_id = excluded.plano_id, status = excluded.status,
		 inicio = excluded.inicio, fim = excluded.fim`,
		s.ID, s.UsuarioID, s.PlanoID, s.Status, s.Inicio, s.Fim, s.CriadoEm)
	return err
}

// ExpireSubscriptions marca como expiradas as assinaturas ativas vencidas.
func (r *Repository) ExpireSubscriptions(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.exec(ctx, "UPDATE assinaturas SET status = ? WHERE status = ? AND fim <= ?",
		models.SubscriptionExpired, models.SubscriptionActive, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// --- pagamentos ---

// CreatePayment grava uma cobrança simulada.
func (r *Repository) CreatePayment(ctx context.Context, p *models.Payment) error {
	_, err := r.exec(ctx,
		`INSERT INTO pagamentos (id, usuario_id, plano_id, metodo, valor, status, pix_copia_e_cola,
		 linha_digitavel, vencimento, criado_em) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UsuarioID, p.PlanoID, p.Metodo, p.Valor, p.Status, nullString(p.PixCopiaECola),
		nullString(p.LinhaDigitavel), p.Vencimento, p.CriadoEm)
	return err
}

// GetPayment busca uma cobrança pelo id.
func (r *Repository) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	var p models.Payment
	var pix, linha sql.NullString
	var pagoEm sql.NullTime
	err := r.queryRow(ctx,
		`SELECT id, usuario_id, plano_id, metodo, valor, status, pix_copia_e_cola, linha_digitavel,
		 vencimento, criado_em, pago_em FROM pagamentos WHERE id = ?`, id).
		Scan(&p.ID, &p.UsuarioID, &p.PlanoID, &p.Metodo, &p.Valor, &p.Status, &pix, &linha,
			&p.Vencimento, &p.CriadoEm, &pagoEm)
	if err != nil {
		return nil, notFound(err)
	}
	p.PixCopiaECola = pix.String
	p.LinhaDigitavel = linha.String
	if pagoEm.Valid {
		p.PagoEm = &pagoEm.Time
	}
	return &p, nil
}

// MarkPaymentPaid marca a cobrança como paga. Retorna ErrNotFound quando ela
// não existe ou já estava paga.
func (r *Repository) MarkPaymentPaid(ctx context.Context, id string, paidAt time.Time) error {
	res, err := r.exec(ctx, "UPDATE pagamentos SET status = ?, pago_em = ? WHERE id = ? AND status = ?",
		models.PaymentPaid, paidAt, id, models.PaymentPending)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ReopenPayment volta uma cobrança paga para pendente.
func (r *Repository) ReopenPayment(ctx context.Context, id string) error {
	res, err := r.exec(ctx, "UPDATE pagamentos SET status = ?, pago_em = NULL WHERE id = ? AND status = ?",
		models.PaymentPending, id, models.PaymentPaid)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- configuracoes_envio / logs_envio ---

// GetSendSettings retorna as preferências de envio do usuário.
func (r *Repository) GetSendSettings(ctx context.Context, userID string) (*models.SendSettings, error) {
	var s models.SendSettings
	err := r.queryRow(ctx,
		"SELECT usuario_id, canal, destino, jogo, ativo FROM configuracoes_envio WHERE usuario_id = ?", userID).
		Scan(&s.UsuarioID, &s.Canal, &s.Destino, &s.Jogo, &s.Ativo)
	if err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

// SaveSendSettings cria ou substitui as preferências de envio.
func (r *Repository) SaveSendSettings(ctx context.Context, s *models.SendSettings) error {
	_, err := r.exec(ctx,
		`INSERT INTO configuracoes_envio (usuario_id, canal, destino, jogo, ativo) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (usuario_id) DO UPDATE SET canal = excluded.canal, destino = excluded.destino,
		 jogo = excluded.jogo, ativo = excluded.ativo`,
		s.UsuarioID, s.Canal, s.Destino, s.Jogo, s.Ativo)
	return err
}

// ListActiveSendSettings lista as preferências de envio ativas.
func (r *Repository) ListActiveSendSettings(ctx context.Context) ([]models.SendSettings, error) {
	rows, err := r.query(ctx,
		"SELECT usuario_id, canal, destino, jogo, ativo FROM configuracoes_envio WHERE ativo = ?", true)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SendSettings
	for rows.Next() {
		var s models.SendSettings
		if err := rows.Scan(&s.UsuarioID, &s.Canal, &s.Destino, &s.Jogo, &s.Ativo); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// InsertSendLog registra uma tentativa de envio.
func (r *Repository) InsertSendLog(ctx context.Context, l *models.SendLog) error {
	_, err := r.exec(ctx,
		`INSERT INTO logs_envio (id, usuario_id, canal, destino, mensagem, status, erro, criado_em)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.UsuarioID, l.Canal, l.Destino, l.Mensagem, l.Status, nullString(l.Erro), l.CriadoEm)
	return err
}

// ListSendLogs lista os envios mais recentes do usuário.
func (r *Repository) ListSendLogs(ctx context.Context, userID string, limit int) ([]models.SendLog, error) {
	rows, err := r.query(ctx,
		`SELECT id, usuario_id, canal, destino, mensagem, status, erro, criado_em FROM logs_envio
		 WHERE usuario_id = ? ORDER BY criado_em DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SendLog
	for rows.Next() {
		var l models.SendLog
		var erro sql.NullString
		if err := rows.Scan(&l.ID, &l.UsuarioID, &l.Canal, &l.Destino, &l.Mensagem, &l.Status, &erro, &l.CriadoEm); err != nil {
			return nil, err
		}
		l.Erro = erro.String
		out = append(out, l)
	}
	return out, rows.Err()
}
