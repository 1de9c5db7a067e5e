package server

import (
	"errors"
	"testing"
)

func TestValidRole(t *testing.T) {
	for _, r := range []Role{RoleOperator, RoleClient} {
		if !ValidRole(r) {
			t.Errorf("ValidRole(%q) = false", r)
		}
	}
	for _, r := range []Role{"", "admin", "Operator"} {
		if ValidRole(r) {
			t.Errorf("ValidRole(%q) = true", r)
		}
	}
}

func TestAuthorizeMatrix(t *testing.T) {
	client := &Identity{Role: RoleClient, Active: true, EmailVerified: true}
	operator := &Identity{Role: RoleOperator, Active: true, EmailVerified: true}
	inactiveOperator := &Identity{Role: RoleOperator, Active: false, EmailVerified: true}
	unverifiedClient := &Identity{Role: RoleClient, Active: true, EmailVerified: false}

	tests := []struct {
		name     string
		identity *Identity
		action   Action
		want     error
	}{
		{"operator uploads", operator, ActionUploadFile, nil},
		{"client cannot upload", client, ActionUploadFile, ErrRoleForbidden},
		{"client lists", client, ActionListFiles, nil},
		{"operator cannot list", operator, ActionListFiles, ErrRoleForbidden},
		{"client requests grant", client, ActionRequestGrant, nil},
		{"operator cannot request grant", operator, ActionRequestGrant, ErrRoleForbidden},
		{"no session no upload", nil, ActionUploadFile, ErrUnauthenticated},
		{"no session no listing", nil, ActionListFiles, ErrUnauthenticated},
		{"inactive operator blocked before role", inactiveOperator, ActionUploadFile, ErrInactiveAccount},
		{"unverified client blocked before role", unverifiedClient, ActionListFiles, ErrEmailNotVerified},
		{"redemption needs no session", nil, ActionRedeemGrant, nil},
		{"redemption ignores identity", operator, ActionRedeemGrant, nil},
		{"signup for the unauthenticated", nil, ActionSignup, nil},
		{"signup rejected with a session", client, ActionSignup, ErrRoleForbidden},
		{"unknown action fails closed", operator, Action("launch-missiles"), ErrRoleForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.identity, tt.action)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("Authorize = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("Authorize = %v, want %v", err, tt.want)
			}
		})
	}
}
