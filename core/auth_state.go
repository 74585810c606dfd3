package core

import "fmt"

type AuthState string

const (
	AuthStateUnauthenticated AuthState = "unauthenticated"
	AuthStateAuthenticated   AuthState = "authenticated"
	AuthStateExpired         AuthState = "expired"
	AuthStateDeauthorized    AuthState = "deauthorized"
)

var authStateTransitions = map[AuthState]map[AuthState]bool{
	AuthStateUnauthenticated: {
		AuthStateAuthenticated: true,
		AuthStateDeauthorized:  true,
	},
	AuthStateAuthenticated: {
		AuthStateAuthenticated: true,
		AuthStateExpired:       true,
		AuthStateDeauthorized:  true,
	},
	AuthStateExpired: {
		AuthStateAuthenticated: true,
		AuthStateExpired:       true,
		AuthStateDeauthorized:  true,
	},
	AuthStateDeauthorized: {
		AuthStateAuthenticated: true,
		AuthStateDeauthorized:  true,
	},
}

func (s AuthState) CanTransitionTo(next AuthState) bool {
	allowed, ok := authStateTransitions[s]
	if !ok {
		return false
	}
	return allowed[next]
}

func ValidateAuthStateTransition(from AuthState, to AuthState) error {
	if from.CanTransitionTo(to) {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidAuthStateTransition, from, to)
}
