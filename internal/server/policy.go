// policy.go - Declarative authorization over identity, action, and state.
package server

// Action enumerates the protected operations of the exchange.
type Action string

const (
	ActionUploadFile   Action = "upload-file"
	ActionListFiles    Action = "list-files"
	ActionRequestGrant Action = "request-download-grant"
	ActionRedeemGrant  Action = "redeem-download-grant"
	ActionSignup       Action = "signup"
)

// Authorize is a pure function deciding whether identity may perform
// action. The role-gated actions run the full active/verified/role
// pipeline; grant redemption carries its own credential (the token) and
// needs no session; signup is for the unauthenticated.
func Authorize(identity *Identity, action Action) error {
	switch action {
	case ActionUploadFile:
		return requireIdentity(identity, RoleOperator)
	case ActionListFiles, ActionRequestGrant:
		return requireIdentity(identity, RoleClient)
	case ActionRedeemGrant:
		// The grant token is the credential; a session adds nothing.
		return nil
	case ActionSignup:
		if identity != nil {
			return ErrRoleForbidden
		}
		return nil
	default:
		return ErrRoleForbidden
	}
}

func requireIdentity(identity *Identity, role Role) error {
	if identity == nil {
		return ErrUnauthenticated
	}
	return RequireRole(identity, role)
}
