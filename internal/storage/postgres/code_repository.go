package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/youngre511/PeachBlossom-eStore-sub004/internal/domain"
)

// CodeRepository records issued codes. Uniqueness within a kind is enforced
// by the primary key, so check-then-record is a single atomic insert; a
// unique violation is the generator's retry signal, not an error condition.
type CodeRepository struct {
	pool *pgxpool.Pool
}

func NewCodeRepository(pool *pgxpool.Pool) *CodeRepository {
	return &CodeRepository{pool: pool}
}

func (r *CodeRepository) InsertCode(ctx context.Context, kind domain.CodeKind, code string, issuedAt time.Time) error {
	const stmt = `INSERT INTO codes (kind, code, issued_at) VALUES ($1, $2, $3)`

	_, err := runner(ctx, r.pool).Exec(ctx, stmt, string(kind), code, issuedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrCodeTaken
		}
		return fmt.Errorf("insert code: %w", err)
	}
	return nil
}
