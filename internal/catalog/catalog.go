// Package catalog manages Book entities: search by title, add, remove.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"library/internal/fact"
	"library/internal/models"
	"library/internal/schema"
	"library/internal/store"
)

// ErrInvalidYear is returned when the publication year is not an integer.
var ErrInvalidYear = errors.New("catalog: year must be an integer")

// NewBook holds the fields an administrator supplies for a book.
type NewBook struct {
	Title    string
	ISBN     string
	Author   string
	Year     string
	Category string
}

// Service reads and writes Book facts.
type Service struct {
	store  *store.Store
	logger *zap.Logger
}

// NewService creates a catalog service on st.
func NewService(st *store.Store, logger *zap.Logger) *Service {
	return &Service{store: st, logger: logger}
}

// Search returns the first book whose title equals title, ignoring case.
// Books are scanned in identifier order.
func (s *Service) Search(ctx context.Context, title string) (*models.BookView, bool) {
	want := strings.ToLower(title)

	var found *models.BookView
	s.store.View(func(g *store.Graph) {
		for _, id := range schema.InstancesOf(g, schema.Book) {
			t, ok := schema.Literal(g, id, schema.Title)
			if ok && strings.ToLower(t) == want {
				found = bookView(g, id)
				return
			}
		}
	})
	return found, found != nil
}

// Get returns the book with the given identifier.
func (s *Service) Get(ctx context.Context, id schema.ID) (*models.BookView, bool) {
	var found *models.BookView
	s.store.View(func(g *store.Graph) {
		if schema.IsA(g, id, schema.Book) {
			found = bookView(g, id)
		}
	})
	return found, found != nil
}

func bookView(g *store.Graph, id schema.ID) *models.BookView {
	v := &models.BookView{
		ID:     id.String(),
		Title:  schema.LiteralOr(g, id, schema.Title, ""),
		ISBN:   schema.LiteralOr(g, id, schema.ISBN, ""),
		Author: schema.LiteralOr(g, id, schema.Author, ""),
	}
	v.Year, _ = schema.Int(g, id, schema.Year)
	v.IsAvailable, _ = schema.Bool(g, id, schema.IsAvailable)
	if cat, ok := schema.Link(g, id, schema.HasCategory); ok {
		v.Category = schema.CategoryName(cat)
	}
	return v
}

// Create writes a new book, available for borrowing, and returns its identifier.
// Duplicate titles and ISBNs are allowed.
func (s *Service) Create(ctx context.Context, nb NewBook) (schema.ID, error) {
	year, err := strconv.ParseInt(strings.TrimSpace(nb.Year), 10, 64)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidYear, nb.Year)
	}

	id := schema.NewBookID()
	err = s.store.Update(ctx, func(g *store.Graph) error {
		schema.Declare(g, id, schema.Book)
		schema.Set(g, id, schema.Title, fact.String(nb.Title))
		schema.Set(g, id, schema.ISBN, fact.String(nb.ISBN))
		schema.Set(g, id, schema.Author, fact.String(nb.Author))
		schema.Set(g, id, schema.Year, fact.Integer(year))
		schema.Replace(g, id, schema.IsAvailable, fact.Boolean(true))
		if strings.TrimSpace(nb.Category) != "" {
			schema.Set(g, id, schema.HasCategory, schema.CategoryID(nb.Category).Term())
		}
		return nil
	})
	if err != nil {
		return id, err
	}

	s.logger.Info("Book added",
		zap.String("book_id", id.String()),
		zap.String("title", nb.Title),
		zap.String("isbn", nb.ISBN),
	)
	return id, nil
}

// Add is Create reduced to a success flag: false when the year is not numeric
// or the flush fails.
func (s *Service) Add(ctx context.Context, title, isbn, author, year, category string) bool {
	_, err := s.Create(ctx, NewBook{Title: title, ISBN: isbn, Author: author, Year: year, Category: category})
	if err != nil {
		s.logger.Error("Failed to add book", zap.Error(err), zap.String("title", title))
		return false
	}
	return true
}

// Remove deletes every fact about the book. An identifier that does not name
// a Book is left untouched; like an unknown one, it still flushes and reports
// success.
func (s *Service) Remove(ctx context.Context, id schema.ID) bool {
	removed := 0
	err := s.store.Update(ctx, func(g *store.Graph) error {
		if schema.IsA(g, id, schema.Book) {
			removed = g.RemoveMatching(fact.Pattern{Subject: id.Term()})
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to remove book", zap.Error(err), zap.String("book_id", id.String()))
		return false
	}

	s.logger.Info("Book removed", zap.String("book_id", id.String()), zap.Int("facts_removed", removed))
	return true
}
