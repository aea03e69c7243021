package enums

import "testing"

func TestPOATypeFamily(t *testing.T) {
	if POATypeDurable.Family() != POAFamilyFinancial {
		t.Fatalf("durable should be financial family")
	}
	if POATypeSpringing.Family() != POAFamilyFinancial {
		t.Fatalf("springing should be financial family")
	}
	if POATypeLimited.Family() != POAFamilyFinancial {
		t.Fatalf("limited should be financial family")
	}
	if POATypeHealthcare.Family() != POAFamilyHealthcare {
		t.Fatalf("healthcare should be healthcare family")
	}
}

func TestParseUSStateNormalizesCase(t *testing.T) {
	state, err := ParseUSState(" fl ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state != "FL" {
		t.Fatalf("expected FL, got %s", state)
	}
	if _, err := ParseUSState("ZZ"); err == nil {
		t.Fatalf("expected error for unknown state code")
	}
}
