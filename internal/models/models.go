package models

// Role is the identity an authenticated user acts as. It is either an
// AdminIdentity or a MemberIdentity.
type Role interface {
	Name() string
	role()
}

// AdminIdentity represents an authenticated administrator
type AdminIdentity struct {
	ID       string
	Username string
}

func (AdminIdentity) Name() string { return "admin" }
func (AdminIdentity) role()        {}

// MemberIdentity represents an authenticated library member
type MemberIdentity struct {
	ID       string
	Username string
	MemberID string
	Email    string
}

func (MemberIdentity) Name() string { return "member" }
func (MemberIdentity) role()        {}

// IsAdmin reports whether r is an administrator.
func IsAdmin(r Role) bool {
	_, ok := r.(AdminIdentity)
	return ok
}

// AsMember returns the member identity behind r, if any.
func AsMember(r Role) (MemberIdentity, bool) {
	m, ok := r.(MemberIdentity)
	return m, ok
}

// BookView represents a book as returned by catalog search
type BookView struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	ISBN        string `json:"isbn"`
	Author      string `json:"author"`
	Year        int64  `json:"year"`
	IsAvailable bool   `json:"is_available"`
	Category    string `json:"category,omitempty"`
}

// BookSummary is the part of a book shown inside a transaction
type BookSummary struct {
	Title  string `json:"title"`
	ISBN   string `json:"isbn"`
	Author string `json:"author"`
}

// MemberSummary is the part of a member shown inside a transaction
type MemberSummary struct {
	Username string `json:"username"`
	MemberID string `json:"member_id"`
	Email    string `json:"email"`
}

// TransactionView represents one borrow transaction joined with its book and member.
// Book and Member are nil when the linked entity cannot be resolved.
type TransactionView struct {
	ID         string         `json:"id"`
	BorrowDate string         `json:"borrow_date"`
	DueDate    string         `json:"due_date"`
	Status     string         `json:"status"`
	Book       *BookSummary   `json:"book,omitempty"`
	Member     *MemberSummary `json:"member,omitempty"`
}
