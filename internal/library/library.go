// Package library bundles the auth, catalog and circulation services behind
// the single interface the front ends talk to.
package library

import (
	"context"

	"go.uber.org/zap"

	"library/internal/auth"
	"library/internal/catalog"
	"library/internal/circulation"
	"library/internal/models"
	"library/internal/schema"
	"library/internal/store"
)

// Core is everything a front end may ask of the catalog.
type Core interface {
	Authenticate(ctx context.Context, username, password string) (models.Role, bool)
	SearchBook(ctx context.Context, title string) (*models.BookView, bool)
	AddBook(ctx context.Context, title, isbn, author, year, category string) bool
	RemoveBook(ctx context.Context, bookID string) bool
	BorrowBook(ctx context.Context, bookID string, member models.MemberIdentity) (bool, string)
	ListAllTransactions(ctx context.Context) map[string]models.TransactionView
}

// Library implements Core on one fact store.
type Library struct {
	store       *store.Store
	auth        auth.Authenticator
	catalog     *catalog.Service
	circulation *circulation.Service
}

var _ Core = (*Library)(nil)

// Option configures a Library.
type Option func(*options)

type options struct {
	authOpts        []auth.Option
	circulationOpts []circulation.Option
}

// WithAuthOptions passes options through to the auth service.
func WithAuthOptions(opts ...auth.Option) Option {
	return func(o *options) { o.authOpts = append(o.authOpts, opts...) }
}

// WithCirculationOptions passes options through to the circulation service.
func WithCirculationOptions(opts ...circulation.Option) Option {
	return func(o *options) { o.circulationOpts = append(o.circulationOpts, opts...) }
}

// New wires the services onto st. st should already be loaded.
func New(st *store.Store, logger *zap.Logger, opts ...Option) *Library {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &Library{
		store:       st,
		auth:        auth.NewService(st, logger.Named("auth"), o.authOpts...),
		catalog:     catalog.NewService(st, logger.Named("catalog")),
		circulation: circulation.NewService(st, logger.Named("circulation"), o.circulationOpts...),
	}
}

func (l *Library) Authenticate(ctx context.Context, username, password string) (models.Role, bool) {
	return l.auth.Authenticate(ctx, username, password)
}

func (l *Library) SearchBook(ctx context.Context, title string) (*models.BookView, bool) {
	return l.catalog.Search(ctx, title)
}

// Book looks a book up by identifier.
func (l *Library) Book(ctx context.Context, bookID string) (*models.BookView, bool) {
	return l.catalog.Get(ctx, schema.ID(bookID))
}

func (l *Library) AddBook(ctx context.Context, title, isbn, author, year, category string) bool {
	return l.catalog.Add(ctx, title, isbn, author, year, category)
}

// CreateBook adds a book and returns its identifier, or the reason it was rejected.
func (l *Library) CreateBook(ctx context.Context, nb catalog.NewBook) (string, error) {
	id, err := l.catalog.Create(ctx, nb)
	return id.String(), err
}

func (l *Library) RemoveBook(ctx context.Context, bookID string) bool {
	return l.catalog.Remove(ctx, schema.ID(bookID))
}

func (l *Library) BorrowBook(ctx context.Context, bookID string, member models.MemberIdentity) (bool, string) {
	return l.circulation.Borrow(ctx, schema.ID(bookID), member)
}

func (l *Library) ListAllTransactions(ctx context.Context) map[string]models.TransactionView {
	return l.circulation.ListAllTransactions(ctx)
}

// Check runs schema validation over the current facts.
func (l *Library) Check() []schema.Issue {
	var issues []schema.Issue
	l.store.View(func(g *store.Graph) { issues = schema.Validate(g) })
	return issues
}

// Store returns the underlying fact store.
func (l *Library) Store() *store.Store { return l.store }
