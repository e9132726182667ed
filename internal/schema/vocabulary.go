// Package schema is the fixed vocabulary of the catalog: entity classes, their
// attributes and links, and the identifiers that name them.
package schema

import (
	"net/url"
	"strings"

	"github.com/google/uuid"

	"library/internal/fact"
)

// Namespace prefixes every class, predicate and identifier when facts are written out.
const Namespace = "http://www.library-system.org/ontology#"

// RDFType is the predicate tying a subject to its class.
const RDFType = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"

// Type is RDFType as a term.
var Type = fact.IRI(RDFType)

// Class is an entity type.
type Class string

const (
	Admin       Class = "Admin"
	Member      Class = "Member"
	Book        Class = "Book"
	Transaction Class = "Transaction"
)

func (c Class) Term() fact.Term { return fact.IRI(Namespace + string(c)) }

// Predicate is an attribute or relation name.
type Predicate string

// Agent attributes
const (
	Username Predicate = "username"
	Password Predicate = "password"
	MemberID Predicate = "memberID"
	Email    Predicate = "email"
)

// Book attributes and links
const (
	Title       Predicate = "title"
	ISBN        Predicate = "ISBN"
	Author      Predicate = "author"
	Year        Predicate = "year"
	IsAvailable Predicate = "isAvailable"
	HasCategory Predicate = "hasCategory"
	BorrowedBy  Predicate = "borrowedBy"
)

// Transaction attributes and links. HasTransaction is used in both directions:
// Transaction -> Member and Member -> Transaction.
const (
	BorrowDate        Predicate = "borrowDate"
	DueDate           Predicate = "dueDate"
	TransactionStatus Predicate = "transactionStatus"
	InvolvesBook      Predicate = "involvesBook"
	HasTransaction    Predicate = "hasTransaction"
)

func (p Predicate) Term() fact.Term { return fact.IRI(Namespace + string(p)) }

// ID is an opaque entity identifier. It only turns into an IRI at the
// serialization boundary, through Term.
type ID string

// Term maps the identifier into the catalog namespace. Identifiers that are
// already absolute IRIs pass through unchanged.
func (id ID) Term() fact.Term {
	if strings.Contains(string(id), "://") {
		return fact.IRI(string(id))
	}
	return fact.IRI(Namespace + string(id))
}

func (id ID) String() string { return string(id) }

// IDOf is the inverse of ID.Term.
func IDOf(t fact.Term) (ID, bool) {
	if !t.IsIRI() {
		return "", false
	}
	if local, ok := strings.CutPrefix(t.Value, Namespace); ok {
		return ID(local), true
	}
	return ID(t.Value), true
}

// NewBookID mints a fresh random book identifier.
func NewBookID() ID { return ID("book_" + uuid.NewString()) }

// NewTransactionID mints a fresh random transaction identifier.
func NewTransactionID() ID { return ID("transaction_" + uuid.NewString()) }

// MemberSubject is the identifier of the member holding the externally
// assigned memberID.
func MemberSubject(memberID string) ID { return ID("member_" + escape(memberID)) }

// AdminSubject is the identifier used for administrators created by seeding.
func AdminSubject(username string) ID { return ID("admin_" + escape(username)) }

// CategoryID derives the category identifier from a free-text name.
func CategoryID(name string) ID {
	return ID("category_" + escape(strings.ToLower(strings.TrimSpace(name))))
}

// CategoryName turns a category identifier back into its display name.
func CategoryName(id ID) string {
	name, ok := strings.CutPrefix(string(id), "category_")
	if !ok {
		return string(id)
	}
	if unescaped, err := url.PathUnescape(name); err == nil {
		return unescaped
	}
	return name
}

func escape(s string) string {
	return url.PathEscape(strings.TrimSpace(s))
}
