// Package circulation records borrow transactions. A book moves from
// available to borrowed exactly once per transaction; there is no return flow.
package circulation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"library/internal/fact"
	"library/internal/models"
	"library/internal/schema"
	"library/internal/store"
)

// LoanDays is the number of calendar days between borrowDate and dueDate.
const LoanDays = 30

// StatusActive is the status every new transaction starts with.
const StatusActive = "Active"

// Unknown is shown for transaction fields that have no fact behind them.
const Unknown = "Unknown"

// Borrow outcome messages
const (
	MsgBorrowed       = "Book borrowed successfully"
	MsgNotAvailable   = "Book is not available"
	MsgMemberNotFound = "Member not found"
	MsgSaveFailed     = "Error saving transaction"
	msgBorrowError    = "Error borrowing book: %v"
)

var (
	errNotAvailable = errors.New(MsgNotAvailable)
	errNoMember     = errors.New(MsgMemberNotFound)
)

// Service handles borrowing and the transaction ledger.
type Service struct {
	store  *store.Store
	logger *zap.Logger
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for borrow dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a circulation service on st.
func NewService(st *store.Store, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{store: st, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Borrow lends the book to the member. The book must currently read
// isAvailable=true; otherwise nothing changes. On success the availability
// flips to false and a new Transaction links book and member, all flushed in
// one save. A failed save still leaves the change in memory.
func (s *Service) Borrow(ctx context.Context, bookID schema.ID, member models.MemberIdentity) (ok bool, msg string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Recovered from panic in Borrow", zap.Any("panic", r), zap.String("book_id", bookID.String()))
			ok, msg = false, fmt.Sprintf(msgBorrowError, r)
		}
	}()

	txID := schema.NewTransactionID()
	borrowed := s.now()
	due := borrowed.AddDate(0, 0, LoanDays)

	err := s.store.Update(ctx, func(g *store.Graph) error {
		available, known := schema.Bool(g, bookID, schema.IsAvailable)
		if !known || !available {
			return errNotAvailable
		}
		memberSubject, found := resolveMember(g, member)
		if !found {
			return errNoMember
		}

		schema.Replace(g, bookID, schema.IsAvailable, fact.Boolean(false))

		schema.Declare(g, txID, schema.Transaction)
		schema.Set(g, txID, schema.BorrowDate, fact.Date(borrowed))
		schema.Set(g, txID, schema.DueDate, fact.Date(due))
		schema.Set(g, txID, schema.InvolvesBook, bookID.Term())
		schema.Set(g, txID, schema.TransactionStatus, fact.String(StatusActive))
		schema.Set(g, txID, schema.HasTransaction, memberSubject.Term())
		schema.Set(g, memberSubject, schema.HasTransaction, txID.Term())
		schema.Set(g, bookID, schema.BorrowedBy, memberSubject.Term())
		return nil
	})

	switch {
	case err == nil:
		s.logger.Info("Book borrowed",
			zap.String("book_id", bookID.String()),
			zap.String("member_id", member.MemberID),
			zap.String("transaction_id", txID.String()),
			zap.String("due_date", due.Format(fact.DateLayout)),
		)
		return true, MsgBorrowed
	case errors.Is(err, errNotAvailable), errors.Is(err, errNoMember):
		s.logger.Info("Borrow refused",
			zap.String("book_id", bookID.String()),
			zap.String("member_id", member.MemberID),
			zap.String("reason", err.Error()),
		)
		return false, err.Error()
	case errors.Is(err, store.ErrNotDurable):
		return false, MsgSaveFailed
	default:
		s.logger.Error("Failed to borrow book", zap.Error(err), zap.String("book_id", bookID.String()))
		return false, fmt.Sprintf(msgBorrowError, err)
	}
}

// resolveMember finds the Member subject for the identity: the subject built
// from memberID, or failing that the subject the identity was authenticated as.
func resolveMember(g *store.Graph, member models.MemberIdentity) (schema.ID, bool) {
	if member.MemberID != "" {
		if id := schema.MemberSubject(member.MemberID); schema.IsA(g, id, schema.Member) {
			return id, true
		}
	}
	if member.ID != "" {
		if id := schema.ID(member.ID); schema.IsA(g, id, schema.Member) {
			return id, true
		}
	}
	return "", false
}

// ListAllTransactions joins every Transaction with its book and member.
// Missing fields read "Unknown"; a link that cannot be resolved leaves the
// nested record nil.
func (s *Service) ListAllTransactions(ctx context.Context) map[string]models.TransactionView {
	out := make(map[string]models.TransactionView)
	s.store.View(func(g *store.Graph) {
		for _, id := range schema.InstancesOf(g, schema.Transaction) {
			out[id.String()] = transactionView(g, id)
		}
	})
	return out
}

func transactionView(g *store.Graph, id schema.ID) models.TransactionView {
	v := models.TransactionView{
		ID:         id.String(),
		BorrowDate: schema.LiteralOr(g, id, schema.BorrowDate, Unknown),
		DueDate:    schema.LiteralOr(g, id, schema.DueDate, Unknown),
		Status:     schema.LiteralOr(g, id, schema.TransactionStatus, Unknown),
	}

	if book, ok := schema.Link(g, id, schema.InvolvesBook); ok && hasFacts(g, book) {
		v.Book = &models.BookSummary{
			Title:  schema.LiteralOr(g, book, schema.Title, Unknown),
			ISBN:   schema.LiteralOr(g, book, schema.ISBN, Unknown),
			Author: schema.LiteralOr(g, book, schema.Author, Unknown),
		}
	}

	if member, ok := schema.Link(g, id, schema.HasTransaction); ok && schema.IsA(g, member, schema.Member) {
		v.Member = &models.MemberSummary{
			Username: schema.LiteralOr(g, member, schema.Username, Unknown),
			MemberID: schema.LiteralOr(g, member, schema.MemberID, Unknown),
			Email:    schema.LiteralOr(g, member, schema.Email, Unknown),
		}
	}
	return v
}

func hasFacts(g *store.Graph, id schema.ID) bool {
	for range g.Match(fact.Pattern{Subject: id.Term()}) {
		return true
	}
	return false
}
