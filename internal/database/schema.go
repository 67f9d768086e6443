package database

// schema usa apenas tipos aceitos por SQLite e PostgreSQL: ids são uuid em
// TEXT e valores monetários são decimais serializados em TEXT.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS usuarios (
		id TEXT NOT NULL PRIMARY KEY,
		nome TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		senha_hash TEXT NOT NULL,
		telefone TEXT,
		confirmado BOOLEAN NOT NULL DEFAULT FALSE,
		criado_em TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS planos (
		id TEXT NOT NULL PRIMARY KEY,
		nome TEXT NOT NULL UNIQUE,
		descricao TEXT,
		preco TEXT NOT NULL,
		duracao_dias INTEGER NOT NULL,
		ativo BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS assinaturas (
		id TEXT NOT NULL PRIMARY KEY,
		usuario_id TEXT NOT NULL REFERENCES usuarios(id) ON DELETE CASCADE,
		plano_id TEXT NOT NULL REFERENCES planos(id),
		status TEXT NOT NULL,
		inicio TIMESTAMP NOT NULL,
		fim TIMESTAMP NOT NULL,
		criado_em TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_assinaturas_usuario ON assinaturas (usuario_id)`,
	`CREATE TABLE IF NOT EXISTS codigos_confirmacao (
		id TEXT NOT NULL PRIMARY KEY,
		usuario_id TEXT NOT NULL REFERENCES usuarios(id) ON DELETE CASCADE,
		codigo TEXT NOT NULL,
		expira_em TIMESTAMP NOT NULL,
		usado BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS configuracoes_envio (
		usuario_id TEXT NOT NULL PRIMARY KEY REFERENCES usuarios(id) ON DELETE CASCADE,
		canal TEXT NOT NULL,
		destino TEXT NOT NULL,
		jogo TEXT NOT NULL,
		ativo BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS logs_envio (
		id TEXT NOT NULL PRIMARY KEY,
		usuario_id TEXT NOT NULL REFERENCES usuarios(id) ON DELETE CASCADE,
		canal TEXT NOT NULL,
		destino TEXT NOT NULL,
		mensagem TEXT NOT NULL,
		status TEXT NOT NULL,
		erro TEXT,
		criado_em TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS pagamentos (
		id TEXT NOT NULL PRIMARY KEY,
		usuario_id TEXT NOT NULL REFERENCES usuarios(id) ON DELETE CASCADE,
		plano_id TEXT NOT NULL REFERENCES planos(id),
		metodo TEXT NOT NULL,
		valor TEXT NOT NULL,
		status TEXT NOT NULL,
		pix_copia_e_cola TEXT,
		linha_digitavel TEXT,
		vencimento TIMESTAMP NOT NULL,
		criado_em TIMESTAMP NOT NULL,
		pago_em TIMESTAMP
	)`,
}
