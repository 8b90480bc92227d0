package errors

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestDumpFlattensCodedChain(t *testing.T) {
	t.Parallel()

	err := Wrap(CodeGateway, fmt.Errorf("connection reset"), "reconciling checkout session")
	dump := Dump(err)

	if dump.Code != CodeGateway {
		t.Fatalf("code = %s, want %s", dump.Code, CodeGateway)
	}
	if !dump.Retryable {
		t.Fatal("gateway failures are retryable")
	}
	if len(dump.Chain) < 2 {
		t.Fatalf("chain = %v, want wrapped cause included", dump.Chain)
	}
	if dump.Database != nil {
		t.Fatalf("unexpected database detail: %+v", dump.Database)
	}
}

func TestDumpExtractsPostgresDetail(t *testing.T) {
	t.Parallel()

	cause := &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "idx_entries_checkout_session_id",
		TableName:      "entries",
		Detail:         "Key (checkout_session_id)=(cs_test_001) already exists.",
		Message:        "duplicate key value violates unique constraint",
	}
	dump := Dump(Wrap(CodeInternal, cause, "confirming entry"))

	if dump.Database == nil {
		t.Fatal("expected database detail")
	}
	if dump.Database.Code != "23505" {
		t.Fatalf("pg code = %s, want 23505", dump.Database.Code)
	}
	if dump.Database.Constraint != "idx_entries_checkout_session_id" {
		t.Fatalf("constraint = %s", dump.Database.Constraint)
	}
	if dump.Database.Table != "entries" {
		t.Fatalf("table = %s", dump.Database.Table)
	}
}

func TestDumpNilError(t *testing.T) {
	t.Parallel()

	dump := Dump(nil)
	if dump.Message != "" || dump.Chain != nil || dump.Database != nil {
		t.Fatalf("expected zero dump, got %+v", dump)
	}
}
