package core

import (
	"fmt"
	"strings"
	"time"
)

type Credential struct {
	ID          string
	ModuleName  string
	UserID      string
	ExternalID  string
	AuthIsValid bool
	Properties  map[string]string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Entity struct {
	ID           string
	ModuleName   string
	UserID       string
	ExternalID   string
	CredentialID string
	Name         string
	Details      map[string]any
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type SaveCredentialInput struct {
	ModuleName  string
	UserID      string
	ExternalID  string
	AuthIsValid bool
	Properties  map[string]string
}

func (in SaveCredentialInput) Validate() error {
	if strings.TrimSpace(in.ModuleName) == "" {
		return fmt.Errorf("core: credential module name is required")
	}
	if strings.TrimSpace(in.UserID) == "" {
		return fmt.Errorf("core: credential user id is required")
	}
	return nil
}

type CredentialQuery struct {
	ModuleName string
	UserID     string
	ExternalID string
}

type CreateEntityInput struct {
	ModuleName   string
	UserID       string
	ExternalID   string
	CredentialID string
	Name         string
	Details      map[string]any
}

func (in CreateEntityInput) Validate() error {
	if strings.TrimSpace(in.ModuleName) == "" {
		return fmt.Errorf("core: entity module name is required")
	}
	if strings.TrimSpace(in.UserID) == "" {
		return fmt.Errorf("core: entity user id is required")
	}
	if strings.TrimSpace(in.ExternalID) == "" {
		return fmt.Errorf("core: entity external id is required")
	}
	return nil
}

type EntityQuery struct {
	ModuleName string
	UserID     string
	ExternalID string
}

func (q CredentialQuery) matches(c Credential) bool {
	return matchOptional(q.ModuleName, c.ModuleName) &&
		matchOptional(q.UserID, c.UserID) &&
		matchOptional(q.ExternalID, c.ExternalID)
}

func (q EntityQuery) matches(e Entity) bool {
	return matchOptional(q.ModuleName, e.ModuleName) &&
		matchOptional(q.UserID, e.UserID) &&
		matchOptional(q.ExternalID, e.ExternalID)
}

func matchOptional(want, got string) bool {
	want = strings.TrimSpace(want)
	return want == "" || want == strings.TrimSpace(got)
}

func copyStringMap(in map[string]string) map[string]string {
	if len(in) == 0 {
		return map[string]string{}
	}
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

func copyAnyMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
