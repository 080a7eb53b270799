//-------------------------------------------------------------------------
//
// Global Retail ETL
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package warehouse

// SchemaSQL creates the star schema. It is used when no warehouse schema
// script is configured.
const SchemaSQL = `
-- Dimensions without dependencies
CREATE TABLE IF NOT EXISTS dim_localidade (
    sk_localidade       SERIAL PRIMARY KEY,
    id_localidade       INTEGER NOT NULL UNIQUE,
    cidade              VARCHAR(100) NOT NULL,
    estado              VARCHAR(50) NOT NULL,
    regiao              VARCHAR(50),
    regiao_padronizada  VARCHAR(50) NOT NULL,
    eh_capital          BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS dim_categoria_cliente (
    sk_categoria_cliente    SERIAL PRIMARY KEY,
    id_categoria_cliente    INTEGER NOT NULL UNIQUE,
    nome_categoria_cliente  VARCHAR(100) NOT NULL,
    categoria_padronizada   VARCHAR(50) NOT NULL
);

CREATE TABLE IF NOT EXISTS dim_categoria_produto (
    sk_categoria_produto    SERIAL PRIMARY KEY,
    id_categoria_produto    INTEGER NOT NULL UNIQUE,
    nome_categoria_produto  VARCHAR(100) NOT NULL,
    categoria_padronizada   VARCHAR(50) NOT NULL
);

-- Dependent dimensions
CREATE TABLE IF NOT EXISTS dim_fornecedor (
    sk_fornecedor       SERIAL PRIMARY KEY,
    id_fornecedor       INTEGER NOT NULL UNIQUE,
    nome_fornecedor     VARCHAR(150) NOT NULL,
    nome_padronizado    VARCHAR(150) NOT NULL,
    pais_origem         VARCHAR(100),
    sk_localidade       INTEGER REFERENCES dim_localidade(sk_localidade),
    status_fornecedor   VARCHAR(20) NOT NULL
);

CREATE TABLE IF NOT EXISTS dim_cliente (
    sk_cliente              SERIAL PRIMARY KEY,
    id_cliente              INTEGER NOT NULL UNIQUE,
    nome_cliente            VARCHAR(150) NOT NULL,
    nome_padronizado        VARCHAR(150) NOT NULL,
    sk_categoria_cliente    INTEGER REFERENCES dim_categoria_cliente(sk_categoria_cliente),
    sk_localidade           INTEGER REFERENCES dim_localidade(sk_localidade),
    data_cadastro           DATE NOT NULL,
    status_cliente          VARCHAR(20) NOT NULL
);

CREATE TABLE IF NOT EXISTS dim_produto (
    sk_produto              SERIAL PRIMARY KEY,
    id_produto              INTEGER NOT NULL UNIQUE,
    nome_produto            VARCHAR(150) NOT NULL,
    nome_padronizado        VARCHAR(150) NOT NULL,
    sk_categoria_produto    INTEGER REFERENCES dim_categoria_produto(sk_categoria_produto),
    preco_unitario          NUMERIC(12,2) NOT NULL DEFAULT 0,
    custo_unitario          NUMERIC(12,2) NOT NULL DEFAULT 0,
    margem_lucro            NUMERIC(7,2) NOT NULL DEFAULT 0,
    status_produto          VARCHAR(20) NOT NULL
);

CREATE TABLE IF NOT EXISTS dim_vendedor (
    sk_vendedor         SERIAL PRIMARY KEY,
    id_vendedor         INTEGER NOT NULL UNIQUE,
    nome_vendedor       VARCHAR(150) NOT NULL,
    nome_padronizado    VARCHAR(150) NOT NULL,
    telefone            VARCHAR(30),
    email               VARCHAR(150),
    sk_localidade       INTEGER REFERENCES dim_localidade(sk_localidade),
    data_cadastro       DATE NOT NULL,
    status_vendedor     VARCHAR(20) NOT NULL
);

CREATE TABLE IF NOT EXISTS dim_loja (
    sk_loja             SERIAL PRIMARY KEY,
    id_loja             INTEGER NOT NULL UNIQUE,
    nome_loja           VARCHAR(150) NOT NULL,
    nome_padronizado    VARCHAR(150) NOT NULL,
    gerente_loja        VARCHAR(150),
    sk_localidade       INTEGER REFERENCES dim_localidade(sk_localidade),
    tipo_loja           VARCHAR(30) NOT NULL,
    status_loja         VARCHAR(20) NOT NULL
);

CREATE TABLE IF NOT EXISTS dim_promocao (
    sk_promocao         SERIAL PRIMARY KEY,
    id_promocao         INTEGER NOT NULL UNIQUE,
    nome_promocao       VARCHAR(150) NOT NULL,
    tipo_promocao       VARCHAR(30) NOT NULL,
    percentual_desconto NUMERIC(5,2) NOT NULL DEFAULT 0,
    data_inicio         DATE,
    data_fim            DATE,
    status_promocao     VARCHAR(20) NOT NULL
);

CREATE TABLE IF NOT EXISTS dim_tempo (
    sk_tempo            SERIAL PRIMARY KEY,
    data_completa       DATE NOT NULL UNIQUE,
    ano                 INTEGER NOT NULL,
    mes                 INTEGER NOT NULL,
    dia                 INTEGER NOT NULL,
    trimestre           INTEGER NOT NULL,
    semestre            INTEGER NOT NULL,
    dia_semana          INTEGER NOT NULL,
    nome_dia_semana     VARCHAR(20) NOT NULL,
    nome_mes            VARCHAR(20) NOT NULL,
    eh_fim_semana       BOOLEAN NOT NULL
);

-- Fact
CREATE TABLE IF NOT EXISTS fato_vendas (
    sk_venda                BIGSERIAL PRIMARY KEY,
    id_venda                VARCHAR(50) NOT NULL UNIQUE,
    sk_tempo                INTEGER REFERENCES dim_tempo(sk_tempo),
    sk_cliente              INTEGER REFERENCES dim_cliente(sk_cliente),
    sk_vendedor             INTEGER REFERENCES dim_vendedor(sk_vendedor),
    sk_loja                 INTEGER REFERENCES dim_loja(sk_loja),
    sk_produto              INTEGER REFERENCES dim_produto(sk_produto),
    sk_promocao             INTEGER REFERENCES dim_promocao(sk_promocao),
    quantidade_vendida      INTEGER NOT NULL,
    preco_unitario_venda    NUMERIC(12,2) NOT NULL,
    valor_total_item        NUMERIC(14,2) NOT NULL,
    percentual_desconto     NUMERIC(5,2) NOT NULL DEFAULT 0,
    valor_desconto          NUMERIC(14,2) NOT NULL DEFAULT 0,
    valor_final             NUMERIC(14,2) NOT NULL,
    custo_unitario          NUMERIC(12,2) NOT NULL DEFAULT 0,
    custo_total_item        NUMERIC(14,2) NOT NULL DEFAULT 0,
    lucro_bruto             NUMERIC(14,2) NOT NULL
);
`

// IndexesSQL creates the reporting indexes. It is used when no index
// script is configured.
const IndexesSQL = `
CREATE INDEX IF NOT EXISTS idx_fato_vendas_tempo ON fato_vendas(sk_tempo);
CREATE INDEX IF NOT EXISTS idx_fato_vendas_cliente ON fato_vendas(sk_cliente);
CREATE INDEX IF NOT EXISTS idx_fato_vendas_vendedor ON fato_vendas(sk_vendedor);
CREATE INDEX IF NOT EXISTS idx_fato_vendas_loja ON fato_vendas(sk_loja);
CREATE INDEX IF NOT EXISTS idx_fato_vendas_produto ON fato_vendas(sk_produto);
CREATE INDEX IF NOT EXISTS idx_fato_vendas_promocao ON fato_vendas(sk_promocao);
CREATE INDEX IF NOT EXISTS idx_dim_localidade_cidade_estado ON dim_localidade(LOWER(cidade), LOWER(estado));
CREATE INDEX IF NOT EXISTS idx_dim_tempo_ano_mes ON dim_tempo(ano, mes);
CREATE INDEX IF NOT EXISTS idx_dim_cliente_localidade ON dim_cliente(sk_localidade);
CREATE INDEX IF NOT EXISTS idx_dim_produto_categoria ON dim_produto(sk_categoria_produto);
`
