package aggregates

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		code ErrorCode
		want int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeNotFound, http.StatusNotFound},
		{CodeConflict, http.StatusConflict},
		{CodeIntegrity, http.StatusInternalServerError},
		{CodeInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		err := fmt.Errorf("outer: %w", NewError(tc.code, "op", "msg", nil))
		if got := HTTPStatus(err); got != tc.want {
			t.Fatalf("%s: want=%d got=%d", tc.code, tc.want, got)
		}
	}
	if got := HTTPStatus(errors.New("plain")); got != http.StatusInternalServerError {
		t.Fatalf("plain error: got=%d", got)
	}
}

func TestPublicMessageHidesInternalDetail(t *testing.T) {
	err := NewError(CodeInternal, "op", "pq: relation \"station\" does not exist", nil)
	if got := PublicMessage(err); got != http.StatusText(http.StatusInternalServerError) {
		t.Fatalf("internal detail leaked: %q", got)
	}
	err = NewError(CodeValidation, "op", "name is required", nil)
	if got := PublicMessage(err); got != "name is required" {
		t.Fatalf("validation message: %q", got)
	}
}

func TestContractCheck(t *testing.T) {
	if err := StationStoreContract.Check("op", Relations(RelationPlatforms, RelationGates)); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	err := StationStoreContract.Check("op", Relations(RelationPlatforms, RelationCars))
	if !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
