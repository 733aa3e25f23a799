package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/user/trackscope/internal/artifact"
	"github.com/user/trackscope/internal/entity"
	"github.com/user/trackscope/internal/repository"
)

// ResultStoreImpl keeps result documents as JSONB rows keyed by
// (profile, domain).
type ResultStoreImpl struct {
	db DBTX
}

func NewResultStore(db DBTX) *ResultStoreImpl {
	return &ResultStoreImpl{db: db}
}

// Save stores or replaces the document of its (profile, domain).
func (r *ResultStoreImpl) Save(ctx context.Context, doc *entity.ResultDocument) error {
	if doc.Profile == "" || doc.Domain == "" {
		return errors.New("result document needs a profile and a domain")
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode result for %s/%s: %w", doc.Profile, doc.Domain, err)
	}

	query := `
		INSERT INTO crawl_results (profile, domain, rank, document, crawled_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (profile, domain) DO UPDATE SET
			rank = EXCLUDED.rank,
			document = EXCLUDED.document,
			crawled_at = EXCLUDED.crawled_at,
			updated_at = NOW();
	`
	_, err = r.db.Exec(ctx, query, doc.Profile, doc.Domain, doc.Rank, data, doc.Timestamp)
	return err
}

func (r *ResultStoreImpl) Load(ctx context.Context, profile, domain string) (*entity.ResultDocument, error) {
	data, err := r.Raw(ctx, profile, domain)
	if err != nil {
		return nil, err
	}
	if err := artifact.Validate(data); err != nil {
		return nil, fmt.Errorf("%s/%s: %w", profile, domain, err)
	}
	var doc entity.ResultDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%s/%s: %w: %v", profile, domain, repository.ErrCorruptArtifact, err)
	}
	return &doc, nil
}

// Raw returns the pretty-printed document so that the line-count rule
// applies the same way as for files.
func (r *ResultStoreImpl) Raw(ctx context.Context, profile, domain string) ([]byte, error) {
	query := `SELECT jsonb_pretty(document) FROM crawl_results WHERE profile = $1 AND domain = $2;`
	var data string
	err := r.db.QueryRow(ctx, query, profile, domain).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s/%s: %w", profile, domain, repository.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return []byte(data), nil
}

func (r *ResultStoreImpl) Exists(ctx context.Context, profile, domain string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM crawl_results WHERE profile = $1 AND domain = $2);`
	var exists bool
	err := r.db.QueryRow(ctx, query, profile, domain).Scan(&exists)
	return exists, err
}

func (r *ResultStoreImpl) Delete(ctx context.Context, profile, domain string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM crawl_results WHERE profile = $1 AND domain = $2;`, profile, domain)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// List returns every stored document, optionally limited to one profile.
func (r *ResultStoreImpl) List(ctx context.Context, profile string) ([]repository.ArtifactRef, error) {
	query := `
		SELECT profile, domain FROM crawl_results
		WHERE $1 = '' OR profile = $1
		ORDER BY profile, domain;
	`
	rows, err := r.db.Query(ctx, query, profile)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []repository.ArtifactRef
	for rows.Next() {
		var ref repository.ArtifactRef
		if err := rows.Scan(&ref.Profile, &ref.Domain); err != nil {
			return nil, err
		}
		ref.Location = "crawl_results/" + ref.Profile + "/" + ref.Domain
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}
