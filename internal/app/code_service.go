package app

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/youngre511/PeachBlossom-eStore-sub004/internal/clock"
	"github.com/youngre511/PeachBlossom-eStore-sub004/internal/domain"
	"github.com/youngre511/PeachBlossom-eStore-sub004/internal/metrics"
)

// CodeRepository records issued codes. Insert must be atomic with the
// uniqueness check (insert-if-absent against a unique constraint) and return
// ErrCodeTaken when the code already exists for the kind.
type CodeRepository interface {
	InsertCode(ctx context.Context, kind domain.CodeKind, code string, issuedAt time.Time) error
}

// DefaultAlphabet omits look-alike characters (0/O, 1/I/L).
const DefaultAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const (
	DefaultOrderCodeLength   = 10
	DefaultProductCodeLength = 8

	defaultMaxAttempts = 16
)

// CodeService mints opaque random codes that are unique within a kind.
type CodeService struct {
	repo        CodeRepository
	clock       clock.Clock
	maxAttempts int
}

func NewCodeService(repo CodeRepository, clk clock.Clock, opts ...CodeOption) *CodeService {
	svc := &CodeService{
		repo:        repo,
		clock:       clk,
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type CodeOption func(*CodeService)

// WithMaxAttempts bounds consecutive collisions before the alphabet/length
// combination is reported as exhausted.
func WithMaxAttempts(n int) CodeOption {
	return func(s *CodeService) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// Generate draws candidates from the alphabet until one inserts cleanly. A
// collision is a normal retry signal; a full run of collisions surfaces
// ErrGenerationExhausted so a saturated code space never loops forever.
func (s *CodeService) Generate(ctx context.Context, kind domain.CodeKind, alphabet string, length int) (string, error) {
	if kind == "" {
		return "", domain.ErrInvalidCode
	}
	if alphabet == "" {
		alphabet = DefaultAlphabet
	}
	if length <= 0 || len(alphabet) < 2 {
		return "", domain.ErrInvalidCode
	}

	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		code, err := randomCode(alphabet, length)
		if err != nil {
			return "", err
		}
		err = s.repo.InsertCode(ctx, kind, code, s.clock.Now())
		if err == domain.ErrCodeTaken {
			metrics.CodeCollisionsTotal.WithLabelValues(string(kind)).Inc()
			continue
		}
		if err != nil {
			return "", err
		}
		metrics.CodesGeneratedTotal.WithLabelValues(string(kind)).Inc()
		return code, nil
	}
	return "", domain.ErrGenerationExhausted
}

func randomCode(alphabet string, length int) (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("draw random index: %w", err)
		}
		out[i] = alphabet[n.Int64()]
	}
	return string(out), nil
}
