package console

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"library/internal/library"
	"library/internal/models"
	"library/internal/seed"
	"library/internal/storage/stubs"
	"library/internal/store"
)

func newLibrary(t *testing.T) *library.Library {
	t.Helper()
	ctx := context.Background()

	st := store.New(stubs.NewMockDB(), zap.NewNop())
	st.Load(ctx)
	_, err := seed.Apply(ctx, st, &seed.Roster{
		Admins:  []seed.Admin{{Username: "alice", Password: "pw1"}},
		Members: []seed.Member{{Username: "bob", Password: "pw2", MemberID: "M1", Email: "bob@example.org"}},
	})
	require.NoError(t, err)
	return library.New(st, zap.NewNop())
}

func script(lines ...string) *strings.Reader {
	return strings.NewReader(strings.Join(lines, "\n") + "\n")
}

func TestConsole_ScriptedSession(t *testing.T) {
	lib := newLibrary(t)
	var out bytes.Buffer

	in := script(
		// admin adds Dune, then logs out
		"alice", "pw1",
		"1", "Dune", "0441013597", "Herbert", "1965", "scifi",
		"5",
		// member searches and borrows twice
		"bob", "pw2",
		"1", "dune",
		"2", "Dune",
		"2", "Dune",
		"3",
		// admin lists transactions
		"alice", "pw1",
		"4",
		"5",
		"",
	)

	err := New(lib, in, &out, zap.NewNop()).Run(context.Background())
	require.NoError(t, err)

	output := out.String()
	assert.Contains(t, output, "Administrator Dashboard")
	assert.Contains(t, output, "Member Dashboard")
	assert.Contains(t, output, "Book added successfully!")
	assert.Contains(t, output, "Author:    Herbert")
	assert.Contains(t, output, "Book borrowed successfully")
	assert.Contains(t, output, "Book is not available")
	assert.Contains(t, output, "Active")
	assert.Contains(t, output, "_1 transactions_")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(output), "Goodbye."))
}

func TestConsole_InvalidCredentials(t *testing.T) {
	lib := newLibrary(t)
	var out bytes.Buffer

	err := New(lib, script("alice", "nope", ""), &out, zap.NewNop()).Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Invalid credentials!")
	assert.NotContains(t, out.String(), "Administrator Dashboard")
}

func TestConsole_PasswordReader(t *testing.T) {
	lib := newLibrary(t)
	var out bytes.Buffer

	var prompts []string
	reader := func(prompt string) (string, error) {
		prompts = append(prompts, prompt)
		return "pw2", nil
	}

	// No password line in the script: it comes from the reader
	err := New(lib, script("bob", "3", ""), &out, zap.NewNop(), WithPasswordReader(reader)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Password: "}, prompts)
	assert.Contains(t, out.String(), "Member Dashboard")
}

func TestConsole_PasswordReaderError(t *testing.T) {
	lib := newLibrary(t)
	reader := func(string) (string, error) { return "", errors.New("tty closed") }

	err := New(lib, script("bob"), &bytes.Buffer{}, zap.NewNop(), WithPasswordReader(reader)).Run(context.Background())
	assert.Error(t, err)
}

func TestConsole_EndOfInputInMenu(t *testing.T) {
	lib := newLibrary(t)
	var out bytes.Buffer

	err := New(lib, strings.NewReader("bob\npw2\n"), &out, zap.NewNop()).Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Member Dashboard")
}

func TestConsole_BookNotFound(t *testing.T) {
	lib := newLibrary(t)
	var out bytes.Buffer

	err := New(lib, script("bob", "pw2", "2", "Missing", "3", ""), &out, zap.NewNop()).Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Book not found!")
}

func TestRenderTransactions(t *testing.T) {
	var out bytes.Buffer

	err := RenderTransactions(&out, map[string]models.TransactionView{
		"transaction_b": {ID: "transaction_b", BorrowDate: "2025-02-01", DueDate: "2025-03-03", Status: "Active",
			Book: &models.BookSummary{Title: "Emma", ISBN: "2", Author: "Austen"}},
		"transaction_a": {ID: "transaction_a", BorrowDate: "2025-01-01", DueDate: "2025-01-31", Status: "Active",
			Member: &models.MemberSummary{Username: "bob", MemberID: "M1", Email: "Unknown"}},
	})
	require.NoError(t, err)

	output := out.String()
	assert.Less(t, strings.Index(output, "transaction_a"), strings.Index(output, "transaction_b"))
	assert.Contains(t, output, "Emma")
	assert.Contains(t, output, "_2 transactions_")

	out.Reset()
	require.NoError(t, RenderTransactions(&out, nil))
	assert.Equal(t, "_No transactions_\n", out.String())
}
