package app

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/youngre511/PeachBlossom-eStore-sub004/internal/clock"
	"github.com/youngre511/PeachBlossom-eStore-sub004/internal/domain"
)

func TestCodeService_Generate(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("issues a code from the alphabet", func(t *testing.T) {
		repo := newFakeCodeRepo()
		svc := NewCodeService(repo, clock.NewManual(now))

		code, err := svc.Generate(context.Background(), domain.CodeKindOrder, "ABC", 6)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected length 6, got %q", code)
		}
		for _, c := range code {
			if !strings.ContainsRune("ABC", c) {
				t.Fatalf("code %q contains %q outside alphabet", code, c)
			}
		}
		if !repo.has(domain.CodeKindOrder, code) {
			t.Fatalf("expected code recorded as issued")
		}
	})

	t.Run("retries through collisions", func(t *testing.T) {
		// Alphabet of two, length one: two possible codes. Seed one so
		// roughly half the draws collide; the other must come back.
		repo := newFakeCodeRepo()
		repo.seed(domain.CodeKindOrder, "A")
		svc := NewCodeService(repo, clock.NewManual(now), WithMaxAttempts(64))

		code, err := svc.Generate(context.Background(), domain.CodeKindOrder, "AB", 1)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if code != "B" {
			t.Fatalf("expected the one free code B, got %q", code)
		}
	})

	t.Run("saturated space reports exhaustion", func(t *testing.T) {
		repo := newFakeCodeRepo()
		repo.seed(domain.CodeKindOrder, "A")
		repo.seed(domain.CodeKindOrder, "B")
		svc := NewCodeService(repo, clock.NewManual(now), WithMaxAttempts(32))

		_, err := svc.Generate(context.Background(), domain.CodeKindOrder, "AB", 1)
		if err != domain.ErrGenerationExhausted {
			t.Fatalf("expected ErrGenerationExhausted, got %v", err)
		}
	})

	t.Run("kinds are independent uniqueness domains", func(t *testing.T) {
		repo := newFakeCodeRepo()
		repo.seed(domain.CodeKindOrder, "A")
		repo.seed(domain.CodeKindOrder, "B")
		svc := NewCodeService(repo, clock.NewManual(now), WithMaxAttempts(32))

		if _, err := svc.Generate(context.Background(), domain.CodeKindProduct, "AB", 1); err != nil {
			t.Fatalf("expected product kind unaffected by order saturation, got %v", err)
		}
	})

	t.Run("rejects unusable inputs", func(t *testing.T) {
		svc := NewCodeService(newFakeCodeRepo(), clock.NewManual(now))
		if _, err := svc.Generate(context.Background(), "", "AB", 4); err != domain.ErrInvalidCode {
			t.Fatalf("expected ErrInvalidCode for empty kind, got %v", err)
		}
		if _, err := svc.Generate(context.Background(), domain.CodeKindOrder, "A", 4); err != domain.ErrInvalidCode {
			t.Fatalf("expected ErrInvalidCode for single-letter alphabet, got %v", err)
		}
		if _, err := svc.Generate(context.Background(), domain.CodeKindOrder, "AB", 0); err != domain.ErrInvalidCode {
			t.Fatalf("expected ErrInvalidCode for zero length, got %v", err)
		}
	})
}

type fakeCodeRepo struct {
	issued map[string]struct{}
}

func newFakeCodeRepo() *fakeCodeRepo {
	return &fakeCodeRepo{issued: make(map[string]struct{})}
}

func codeKey(kind domain.CodeKind, code string) string {
	return string(kind) + "|" + code
}

func (f *fakeCodeRepo) InsertCode(_ context.Context, kind domain.CodeKind, code string, _ time.Time) error {
	key := codeKey(kind, code)
	if _, ok := f.issued[key]; ok {
		return domain.ErrCodeTaken
	}
	f.issued[key] = struct{}{}
	return nil
}

func (f *fakeCodeRepo) seed(kind domain.CodeKind, code string) {
	f.issued[codeKey(kind, code)] = struct{}{}
}

func (f *fakeCodeRepo) has(kind domain.CodeKind, code string) bool {
	_, ok := f.issued[codeKey(kind, code)]
	return ok
}
