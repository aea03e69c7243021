package assembler

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/attestly/poa-backend/internal/validation"
	"github.com/attestly/poa-backend/pkg/config"
	"github.com/attestly/poa-backend/pkg/enums"
	pkgerrors "github.com/attestly/poa-backend/pkg/errors"
	"github.com/attestly/poa-backend/pkg/types"
)

var testGeneratedAt = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func testOptions() Options {
	return Options{
		GeneratedAt: testGeneratedAt,
		TenantID:    "11111111-2222-3333-4444-555555555555",
		POAID:       "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee",
	}
}

func testAddress() types.Address {
	return types.Address{Line1: "100 Main St", City: "Orlando", State: "FL", PostalCode: "32801", Country: "US"}
}

func timePtr(t time.Time) *time.Time { return &t }

func durableFlorida() *validation.NormalizedPOA {
	return &validation.NormalizedPOA{
		Type:   enums.POATypeDurable,
		Family: enums.POAFamilyFinancial,
		State:  "FL",
		Principal: validation.Principal{
			FullName:    "Maria Santos",
			DateOfBirth: time.Date(1958, 3, 14, 0, 0, 0, 0, time.UTC),
			Email:       "maria@example.com",
			Address:     testAddress(),
		},
		Agents: []validation.Agent{
			{Role: enums.AgentRolePrimary, FullName: "Carlos Santos", Email: "carlos@example.com", Address: testAddress()},
			{Role: enums.AgentRoleSuccessor, Order: 1, FullName: "Ana Santos", Email: "ana@example.com", Address: testAddress()},
		},
		Powers: validation.PowerGrantSet{GrantAll: true, GrantAllSubPowers: true},
		Witnesses: []validation.Witness{
			{FullName: "Alice Witness", Address: testAddress()},
			{FullName: "Bob Witness", Address: testAddress()},
		},
		Notary: &validation.Notary{
			FullName:         "Nora Notary",
			CommissionNumber: "FL-12345",
			Address:          testAddress(),
		},
		WitnessesRequired: 2,
		NotaryRequired:    true,
	}
}

func TestAssembleDeterministic(t *testing.T) {
	a := New(config.AssemblyConfig{Timeout: 30 * time.Second})

	first, err := a.Assemble(context.Background(), durableFlorida(), testOptions())
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	second, err := a.Assemble(context.Background(), durableFlorida(), testOptions())
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}

	if !bytes.Equal(first.Bytes, second.Bytes) {
		t.Fatal("identical inputs must produce byte-identical output")
	}
	if first.PageCount < 1 {
		t.Fatalf("expected at least one page, got %d", first.PageCount)
	}
	if first.Filename != second.Filename {
		t.Fatalf("filenames diverged: %q vs %q", first.Filename, second.Filename)
	}
}

func TestAssembleFilenameAndPath(t *testing.T) {
	a := New(config.AssemblyConfig{Timeout: 30 * time.Second})

	artifact, err := a.Assemble(context.Background(), durableFlorida(), testOptions())
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}

	want := "poa_financial_fl_maria-santos_20260501T120000Z_aaaaaaaa.pdf"
	if artifact.Filename != want {
		t.Fatalf("filename %q, want %q", artifact.Filename, want)
	}
	wantPath := "poa/11111111-2222-3333-4444-555555555555/aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee/" + want
	if artifact.ObjectPath != wantPath {
		t.Fatalf("object path %q, want %q", artifact.ObjectPath, wantPath)
	}
}

func TestSanitizeName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Maria Santos", "maria-santos"},
		{"  O'Neil, José  ", "o-neil-jos"},
		{"___", "principal"},
		{"A  B", "a-b"},
	}
	for _, tc := range cases {
		if got := sanitizeName(tc.in); got != tc.want {
			t.Fatalf("sanitizeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestAssembleRejectsMissingAgents(t *testing.T) {
	a := New(config.AssemblyConfig{Timeout: 30 * time.Second})

	n := durableFlorida()
	n.Agents = nil

	_, err := a.Assemble(context.Background(), n, testOptions())
	if err == nil {
		t.Fatal("expected a defensive rejection")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeAssembly {
		t.Fatalf("expected assembly error, got %v", err)
	}
}

func TestAssembleRejectsLimitedWithoutExpiration(t *testing.T) {
	a := New(config.AssemblyConfig{Timeout: 30 * time.Second})

	n := durableFlorida()
	n.Type = enums.POATypeLimited
	n.SpecificPurpose = "sale of 100 Main St"

	if _, err := a.Assemble(context.Background(), n, testOptions()); err == nil {
		t.Fatal("limited instruments without expiration must be rejected")
	}

	n.ExpirationDate = timePtr(time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC))
	if _, err := a.Assemble(context.Background(), n, testOptions()); err != nil {
		t.Fatalf("expected success once expiration present: %v", err)
	}
}

func TestAssembleRejectsZeroGenerationTime(t *testing.T) {
	a := New(config.AssemblyConfig{Timeout: 30 * time.Second})

	opts := testOptions()
	opts.GeneratedAt = time.Time{}
	if _, err := a.Assemble(context.Background(), durableFlorida(), opts); err == nil {
		t.Fatal("expected rejection of ambient-clock assembly")
	}
}

func TestAssembleHealthcareDirectives(t *testing.T) {
	a := New(config.AssemblyConfig{Timeout: 30 * time.Second})

	n := durableFlorida()
	n.Type = enums.POATypeHealthcare
	n.Family = enums.POAFamilyHealthcare
	n.State = "CA"
	n.Notary = nil
	n.NotaryRequired = false
	n.Directives = &validation.Directives{Choices: map[enums.DirectiveArea]validation.DirectiveChoice{
		enums.DirectiveAreaMedicalTreatment: {Granted: true},
		enums.DirectiveAreaOrganDonation:    {Granted: false, Instructions: "no donation"},
	}}

	artifact, err := a.Assemble(context.Background(), n, testOptions())
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if artifact.Filename[:len("poa_healthcare_ca")] != "poa_healthcare_ca" {
		t.Fatalf("unexpected filename %q", artifact.Filename)
	}

	n.Directives = nil
	if _, err := a.Assemble(context.Background(), n, testOptions()); err == nil {
		t.Fatal("healthcare instruments without directives must be rejected")
	}
}

func TestAssembleSpringingClauses(t *testing.T) {
	a := New(config.AssemblyConfig{Timeout: 30 * time.Second})

	n := durableFlorida()
	n.Type = enums.POATypeSpringing
	n.State = "TX"
	n.SpringingCondition = "two physicians certify my incapacity in writing"
	n.PhysiciansRequired = 2
	n.Witnesses = nil
	n.WitnessesRequired = 0

	if _, err := a.Assemble(context.Background(), n, testOptions()); err != nil {
		t.Fatalf("assemble: %v", err)
	}

	n.SpringingCondition = ""
	if _, err := a.Assemble(context.Background(), n, testOptions()); err == nil {
		t.Fatal("springing instruments without a condition must be rejected")
	}
}

func TestAssembleManyWitnessesPaginates(t *testing.T) {
	a := New(config.AssemblyConfig{Timeout: 30 * time.Second})

	n := durableFlorida()
	for i := 0; i < 20; i++ {
		n.Witnesses = append(n.Witnesses, validation.Witness{
			FullName: "Witness " + uuid.NewString(),
			Address:  testAddress(),
		})
	}

	artifact, err := a.Assemble(context.Background(), n, testOptions())
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if artifact.PageCount < 2 {
		t.Fatalf("expected pagination across pages, got %d", artifact.PageCount)
	}
}

func TestAssembleTimeoutIsRetryable(t *testing.T) {
	a := New(config.AssemblyConfig{Timeout: 30 * time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Assemble(ctx, durableFlorida(), testOptions())
	if err == nil {
		t.Fatal("expected a timeout failure")
	}
	if !pkgerrors.Retryable(err) {
		t.Fatalf("timeout must be retryable, got %v", err)
	}
}
