//-------------------------------------------------------------------------
//
// Global Retail ETL
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package source

// SchemaSQL creates the transactional schema. It is used when no source
// schema script is configured. Date columns are text because the system
// of record accepts dates in more than one format.
const SchemaSQL = `
CREATE TABLE IF NOT EXISTS localidade (
    id_localidade   INTEGER PRIMARY KEY,
    cidade          VARCHAR(100),
    estado          VARCHAR(50),
    regiao          VARCHAR(50)
);

CREATE TABLE IF NOT EXISTS categoria_cliente (
    id_categoria_cliente    INTEGER PRIMARY KEY,
    nome_categoria_cliente  VARCHAR(100)
);

CREATE TABLE IF NOT EXISTS categoria_produto (
    id_categoria_produto    INTEGER PRIMARY KEY,
    nome_categoria_produto  VARCHAR(100)
);

CREATE TABLE IF NOT EXISTS fornecedores (
    id_fornecedor   INTEGER PRIMARY KEY,
    nome_fornecedor VARCHAR(150),
    pais_origem     VARCHAR(100)
);

CREATE TABLE IF NOT EXISTS cliente (
    id_cliente              INTEGER PRIMARY KEY,
    nome_cliente            VARCHAR(150),
    id_categoria_cliente    INTEGER REFERENCES categoria_cliente(id_categoria_cliente),
    id_localidade           INTEGER REFERENCES localidade(id_localidade)
);

CREATE TABLE IF NOT EXISTS produto (
    id_produto              INTEGER PRIMARY KEY,
    nome_produto            VARCHAR(150),
    id_categoria_produto    INTEGER REFERENCES categoria_produto(id_categoria_produto),
    id_fornecedor           INTEGER REFERENCES fornecedores(id_fornecedor)
);

CREATE TABLE IF NOT EXISTS vendedor (
    id_vendedor     INTEGER PRIMARY KEY,
    nome_vendedor   VARCHAR(150),
    telefone        VARCHAR(30),
    email           VARCHAR(150)
);

CREATE TABLE IF NOT EXISTS lojas (
    id_loja         INTEGER PRIMARY KEY,
    nome_loja       VARCHAR(150),
    gerente_loja    VARCHAR(150),
    cidade          VARCHAR(100),
    estado          VARCHAR(50)
);

CREATE TABLE IF NOT EXISTS promocoes (
    id_promocao     INTEGER PRIMARY KEY,
    nome_promocao   VARCHAR(150),
    tipo_desconto   VARCHAR(100),
    data_inicio     VARCHAR(20),
    data_fim        VARCHAR(20)
);

CREATE TABLE IF NOT EXISTS vendas (
    id_venda        INTEGER PRIMARY KEY,
    data_venda      VARCHAR(20),
    id_cliente      INTEGER REFERENCES cliente(id_cliente),
    id_vendedor     INTEGER REFERENCES vendedor(id_vendedor),
    id_loja         INTEGER REFERENCES lojas(id_loja)
);

CREATE TABLE IF NOT EXISTS item_vendas (
    id_venda                INTEGER NOT NULL REFERENCES vendas(id_venda),
    id_produto              INTEGER NOT NULL REFERENCES produto(id_produto),
    qtd_vendida             INTEGER,
    preco_venda             NUMERIC(12,2),
    id_promocao_aplicada    INTEGER REFERENCES promocoes(id_promocao),
    PRIMARY KEY (id_venda, id_produto)
);
`
