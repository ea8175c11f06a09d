package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const (
	getDocumentQuery = `
		SELECT body FROM documents
		WHERE container = $1 AND id = $2 AND partition_key = $3
	`

	queryDocumentsQuery = `
		SELECT COALESCE(json_agg(body ORDER BY seq), '[]'::json) FROM documents
		WHERE container = $1 AND body @> $2::jsonb
	`

	createDocumentQuery = `
		INSERT INTO documents (container, id, partition_key, version, body)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT DO NOTHING
	`

	upsertDocumentQuery = `
		INSERT INTO documents (container, id, partition_key, version, body)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (container, id, partition_key)
		DO UPDATE SET version = EXCLUDED.version, body = EXCLUDED.body
	`

	replaceDocumentQuery = `
		UPDATE documents SET version = $4, body = $5
		WHERE container = $1 AND id = $2 AND partition_key = $3 AND version = $6
	`

	countDocumentQuery = `
		SELECT COUNT(*) FROM documents
		WHERE container = $1 AND id = $2 AND partition_key = $3
	`

	deleteDocumentQuery = `
		DELETE FROM documents
		WHERE container = $1 AND id = $2 AND partition_key = $3
	`
)

const uniqueViolation = "23505"

// PostgresContainer keeps documents as JSONB rows of the shared documents
// table, one logical container per name.
type PostgresContainer struct {
	db   *sqlx.DB
	name string
}

func NewPostgresContainer(db *sqlx.DB, name string) *PostgresContainer {
	return &PostgresContainer{db: db, name: name}
}

func (c *PostgresContainer) Name() string {
	return c.name
}

func (c *PostgresContainer) Get(ctx context.Context, id, partitionKey string, out any) error {
	var body []byte

	err := c.db.GetContext(ctx, &body, getDocumentQuery, c.name, id, partitionKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return storeError(c.name, "get", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return storeError(c.name, "get", err)
	}
	return nil
}

func (c *PostgresContainer) Query(ctx context.Context, filter Filter, out any) error {
	if filter == nil {
		filter = Filter{}
	}

	match, err := json.Marshal(filter)
	if err != nil {
		return storeError(c.name, "query", err)
	}

	var body []byte
	if err := c.db.GetContext(ctx, &body, queryDocumentsQuery, c.name, string(match)); err != nil {
		return storeError(c.name, "query", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return storeError(c.name, "query", err)
	}
	return nil
}

func (c *PostgresContainer) Create(ctx context.Context, partitionKey string, doc Document) error {
	doc.SetDocumentVersion(1)

	body, err := json.Marshal(doc)
	if err != nil {
		doc.SetDocumentVersion(0)
		return storeError(c.name, "create", err)
	}

	n, err := c.exec(ctx, createDocumentQuery, c.name, doc.DocumentID(), partitionKey, doc.DocumentVersion(), body)
	if err != nil {
		doc.SetDocumentVersion(0)
		return c.writeError("create", err)
	}
	if n == 0 {
		doc.SetDocumentVersion(0)
		return ErrAlreadyExists
	}
	return nil
}

func (c *PostgresContainer) Upsert(ctx context.Context, partitionKey string, doc Document) error {
	prev := doc.DocumentVersion()
	doc.SetDocumentVersion(prev + 1)

	body, err := json.Marshal(doc)
	if err != nil {
		doc.SetDocumentVersion(prev)
		return storeError(c.name, "upsert", err)
	}

	if _, err := c.exec(ctx, upsertDocumentQuery, c.name, doc.DocumentID(), partitionKey, doc.DocumentVersion(), body); err != nil {
		doc.SetDocumentVersion(prev)
		return c.writeError("upsert", err)
	}
	return nil
}

func (c *PostgresContainer) Replace(ctx context.Context, partitionKey string, doc Document) error {
	expected := doc.DocumentVersion()
	doc.SetDocumentVersion(expected + 1)

	body, err := json.Marshal(doc)
	if err != nil {
		doc.SetDocumentVersion(expected)
		return storeError(c.name, "replace", err)
	}

	n, err := c.exec(ctx, replaceDocumentQuery, c.name, doc.DocumentID(), partitionKey, doc.DocumentVersion(), body, expected)
	if err != nil {
		doc.SetDocumentVersion(expected)
		return c.writeError("replace", err)
	}
	if n > 0 {
		return nil
	}

	doc.SetDocumentVersion(expected)

	var count int
	if err := c.db.GetContext(ctx, &count, countDocumentQuery, c.name, doc.DocumentID(), partitionKey); err != nil {
		return storeError(c.name, "replace", err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return ErrPreconditionFailed
}

func (c *PostgresContainer) Delete(ctx context.Context, id, partitionKey string) error {
	n, err := c.exec(ctx, deleteDocumentQuery, c.name, id, partitionKey)
	if err != nil {
		return storeError(c.name, "delete", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *PostgresContainer) Ping(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return storeError(c.name, "ping", err)
	}
	return nil
}

func (c *PostgresContainer) exec(ctx context.Context, query string, args ...any) (int64, error) {
	result, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (c *PostgresContainer) writeError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return ErrAlreadyExists
	}
	return storeError(c.name, op, err)
}
