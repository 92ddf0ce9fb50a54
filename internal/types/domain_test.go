package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
)

func TestCadenceDays(t *testing.T) {
	if got := CadenceWeekly.Days(); got != 7 {
		t.Errorf("weekly: got %d, want 7", got)
	}
	if got := CadenceBiweekly.Days(); got != 14 {
		t.Errorf("biweekly: got %d, want 14", got)
	}
}

func TestCadenceDays_PanicsOnUnknownValue(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for unknown cadence")
		}
	}()
	Cadence("monthly").Days()
}

func TestCadenceValid(t *testing.T) {
	tests := []struct {
		cadence Cadence
		want    bool
	}{
		{CadenceWeekly, true},
		{CadenceBiweekly, true},
		{"", false},
		{"weekly", false},
		{"every 1 Week", false}, // exact literal match only
		{"every 3 weeks", false},
	}
	for _, tc := range tests {
		if got := tc.cadence.Valid(); got != tc.want {
			t.Errorf("Valid(%q) = %v, want %v", tc.cadence, got, tc.want)
		}
	}
}

func TestSettingPatchIsEmpty(t *testing.T) {
	if !(SettingPatch{}).IsEmpty() {
		t.Error("zero patch should be empty")
	}

	name := "x"
	if (SettingPatch{PropertyName: &name}).IsEmpty() {
		t.Error("patch with a field should not be empty")
	}
}

func TestSecretStringRedaction(t *testing.T) {
	secret := SecretString("postgres://user:hunter2@db/ippon")

	if out := fmt.Sprintf("%s %v %#v", secret, secret, secret); strings.Contains(out, "hunter2") {
		t.Errorf("fmt leaked the secret: %q", out)
	}

	encoded, err := json.Marshal(struct {
		URL SecretString `json:"url"`
	}{URL: secret})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(encoded), "hunter2") {
		t.Errorf("JSON leaked the secret: %s", encoded)
	}

	if secret.Value() != "postgres://user:hunter2@db/ippon" {
		t.Error("Value() must return the raw secret")
	}
	if secret.IsEmpty() || !SecretString("").IsEmpty() {
		t.Error("IsEmpty misreported")
	}
}
