package aggregates

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domainagg "github.com/rushhourgame/railnet/internal/domain/aggregates"
	"github.com/rushhourgame/railnet/internal/domain/railway"
)

func TestMapError_Validation(t *testing.T) {
	err := MapError("op", ValidationError("bad input"))
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("expected validation code, got %q (%v)", domainagg.CodeOf(err), err)
	}
}

func TestMapError_Conflict(t *testing.T) {
	err := MapError("op", ConflictError("stale"))
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("expected conflict code, got %q (%v)", domainagg.CodeOf(err), err)
	}
}

func TestMapError_NotFound(t *testing.T) {
	err := MapError("op", fmt.Errorf("station s1: %w", gorm.ErrRecordNotFound))
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("expected not_found code, got %q (%v)", domainagg.CodeOf(err), err)
	}
}

func TestMapError_PassthroughAggregateError(t *testing.T) {
	in := domainagg.NewError(domainagg.CodeRetryable, "op", "retry", errors.New("boom"))
	out := MapError("other", in)
	if out != in {
		t.Fatalf("expected passthrough aggregate error")
	}
}

func TestMapError_Codes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want domainagg.ErrorCode
	}{
		{"domain invalid", fmt.Errorf("%w: station: name is required", railway.ErrInvalid), domainagg.CodeValidation},
		{"duplicate sequence", fmt.Errorf("%w: curve 0", railway.ErrDuplicateSequence), domainagg.CodeIntegrity},
		{"integrity sentinel", IntegrityError("train already has schedule"), domainagg.CodeIntegrity},
		{"gorm duplicated key", gorm.ErrDuplicatedKey, domainagg.CodeIntegrity},
		{"pg unique", &pgconn.PgError{Code: "23505"}, domainagg.CodeIntegrity},
		{"pg serialization", &pgconn.PgError{Code: "40001"}, domainagg.CodeRetryable},
		{"sqlite unique", errors.New("UNIQUE constraint failed: stop_time.schedule_id, stop_time.sequence_order"), domainagg.CodeIntegrity},
		{"canceled", context.Canceled, domainagg.CodeRetryable},
		{"unknown", errors.New("disk on fire"), domainagg.CodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := domainagg.CodeOf(MapError("op", tc.err)); got != tc.want {
				t.Fatalf("want %s got %s", tc.want, got)
			}
		})
	}
}
