package laberr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestNotFoundRoundTrip(t *testing.T) {
	err := NotFound("patient", "00000042")
	if !IsNotFound(err) {
		t.Fatal("expected IsNotFound to be true")
	}
	if IsDenied(err) {
		t.Fatal("NotFound should not be Denied")
	}
	if got := err.Error(); got != "patient 00000042 not found" {
		t.Fatalf("unexpected message: %s", got)
	}
}

func TestWrappedErrorsSurviveAs(t *testing.T) {
	err := fmt.Errorf("create report: %w", ReferenceNotFound("test_request", "abc"))
	var rf *ReferenceNotFoundError
	if !errors.As(err, &rf) {
		t.Fatal("expected ReferenceNotFoundError through wrapping")
	}
	if rf.Entity != "test_request" {
		t.Fatalf("unexpected entity: %s", rf.Entity)
	}
}

func TestDeniedMessages(t *testing.T) {
	err := DeniedMissing([]string{"sign_report", "edit_report"})
	if !strings.Contains(err.Error(), "sign_report") {
		t.Fatalf("missing permissions not in message: %s", err.Error())
	}
	var de *DeniedError
	if !errors.As(err, &de) || len(de.Missing) != 2 {
		t.Fatal("expected two missing permissions")
	}

	if got := Denied("account disabled").Error(); got != "denied: account disabled" {
		t.Fatalf("unexpected message: %s", got)
	}
}

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{NotFound("sample", "x"), http.StatusNotFound},
		{ReferenceNotFound("patient", "x"), http.StatusUnprocessableEntity},
		{InvalidTransition("test_request", "completed", "pending"), http.StatusConflict},
		{Denied("inactive"), http.StatusForbidden},
		{Validation("age", "must be between 0 and 150"), http.StatusBadRequest},
		{AllocationExhausted("patient", 99999999), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := Status(tc.err); got != tc.want {
			t.Errorf("Status(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
