package gate_test

import (
	"testing"

	"github.com/diewo77/go-rentals/gate"
)

func TestPermission_Matches(t *testing.T) {
	tests := []struct {
		have, want gate.Permission
		ok         bool
	}{
		{"invoice:view", "invoice:view", true},
		{"invoice:view", "invoice:update", false},
		{"invoice:*", "invoice:update", true},
		{"invoice:*", "payment:update", false},
		{"*:view", "payment:view", true},
		{"*:view", "payment:delete", false},
		{gate.PermissionAll, "user:delete", true},
		{"broken", "invoice:view", false},
		{"*:*", "broken", false},
	}
	for _, tt := range tests {
		if got := tt.have.Matches(tt.want); got != tt.ok {
			t.Errorf("%q.Matches(%q) = %v, want %v", tt.have, tt.want, got, tt.ok)
		}
	}
}

func TestPermission_Parse(t *testing.T) {
	res, act := gate.NewPermission("rental", gate.ActionCreate).Parse()
	if res != "rental" || act != gate.ActionCreate {
		t.Fatalf("Parse = %q, %q", res, act)
	}
	if res, act := gate.Permission("nocolon").Parse(); res != "" || act != "" {
		t.Fatalf("malformed Parse = %q, %q", res, act)
	}
}
