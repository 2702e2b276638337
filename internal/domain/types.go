package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// IDField is the key under which every stored record carries its identifier.
const IDField = "_id"

// Record is a schema-less document. Field shape is owned by the client.
type Record map[string]any

// ID returns the record's identifier, or "" if it has none.
func (r Record) ID() string {
	id, _ := r[IDField].(string)
	return id
}

// EnsureID assigns a generated identifier when the record has none and
// returns the identifier in use.
func (r Record) EnsureID() string {
	if id := r.ID(); id != "" {
		return id
	}
	id := uuid.New().String()
	r[IDField] = id
	return id
}

type Collection string

const (
	Inventory Collection = "inventory"
	Customers Collection = "customers"
	Sales     Collection = "sales"
	Gallery   Collection = "gallery"
	Ideas     Collection = "ideas"
)

// Collections lists every collection in a stable order.
var Collections = []Collection{Inventory, Customers, Sales, Gallery, Ideas}

func (c Collection) Valid() bool {
	for _, known := range Collections {
		if c == known {
			return true
		}
	}
	return false
}

func (c Collection) String() string { return string(c) }

var (
	ErrNotFound          = errors.New("record not found")
	ErrUnknownCollection = errors.New("unknown collection")
	ErrInvalidRecord     = errors.New("invalid record")
)

// CheckCollection returns ErrUnknownCollection wrapped with the name when c
// is not one of Collections.
func CheckCollection(c Collection) error {
	if !c.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownCollection, string(c))
	}
	return nil
}

// Project statuses used by the client for work-in-progress records kept in
// the inventory collection. They are not enforced.
const (
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
	StatusSold       = "sold"
)
