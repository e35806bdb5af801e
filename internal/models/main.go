// Package models defines the core data structures for users and books.
package models

import (
	"errors"
	"time"
)

// User represents a principal known to the catalog server.
type User struct {
	// Subject is the identity provider's stable identifier for the user.
	Subject string
	// Name is the display name reported by the provider, if any.
	Name string
}

// Book is a single catalog record.
type Book struct {
	// ID is assigned by the server and never set or changed by clients.
	ID int64 `json:"id"`
	// Name is the book title.
	Name string `json:"name"`
	// Description is free text about the book.
	Description string `json:"description"`
}

// StoredBook is a Book together with the bookkeeping columns the server keeps.
type StoredBook struct {
	Book
	// CreatedBy is the subject of the user who created the book.
	CreatedBy string
	// DeletedAt is set once the book is soft-deleted.
	DeletedAt *time.Time
}

// Field length limits shared by the client form and server validation.
const (
	NameMinLen        = 3
	NameMaxLen        = 20
	DescriptionMinLen = 3
	DescriptionMaxLen = 100
)

var (
	// ErrBookNotFound is returned when no live book has the requested id.
	ErrBookNotFound = errors.New("book not found")
	// ErrUnknownUser is returned when a book is attributed to a user that was
	// never registered.
	ErrUnknownUser = errors.New("unknown user")
	// ErrUnauthenticated is returned when a bearer token does not identify a user.
	ErrUnauthenticated = errors.New("unauthenticated")
)
