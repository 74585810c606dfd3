package sqlstore

import (
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// keyedRecord is a row keyed by a UUID string in its id column. Both methods
// must tolerate a nil receiver.
type keyedRecord interface {
	primaryKey() string
	setPrimaryKey(id string)
}

func (r *credentialRecord) primaryKey() string {
	if r == nil {
		return ""
	}
	return strings.TrimSpace(r.ID)
}

func (r *credentialRecord) setPrimaryKey(id string) {
	if r != nil {
		r.ID = id
	}
}

func (r *entityRecord) primaryKey() string {
	if r == nil {
		return ""
	}
	return strings.TrimSpace(r.ID)
}

func (r *entityRecord) setPrimaryKey(id string) {
	if r != nil {
		r.ID = id
	}
}

func recordHandlers[R keyedRecord](newRecord func() R) repository.ModelHandlers[R] {
	return repository.ModelHandlers[R]{
		NewRecord: newRecord,
		GetID: func(record R) uuid.UUID {
			id, err := uuid.Parse(record.primaryKey())
			if err != nil {
				return uuid.Nil
			}
			return id
		},
		SetID: func(record R, id uuid.UUID) {
			record.setPrimaryKey(id.String())
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(record R) string {
			return record.primaryKey()
		},
	}
}

func credentialHandlers() repository.ModelHandlers[*credentialRecord] {
	return recordHandlers(func() *credentialRecord { return &credentialRecord{} })
}

func entityHandlers() repository.ModelHandlers[*entityRecord] {
	return recordHandlers(func() *entityRecord { return &entityRecord{} })
}
