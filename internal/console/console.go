// Package console is the interactive terminal front end: a login screen
// followed by the administrator or member menu.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"go.uber.org/zap"
	"golang.org/x/term"

	"library/internal/library"
	"library/internal/models"
)

// PasswordReader prompts for a password without echoing it.
type PasswordReader func(prompt string) (string, error)

// TerminalPasswords reads passwords from f with echo disabled. It returns nil
// when f is not a terminal, in which case passwords are read as plain lines.
func TerminalPasswords(f *os.File, out io.Writer) PasswordReader {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return nil
	}
	return func(prompt string) (string, error) {
		fmt.Fprint(out, prompt)
		password, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(password)), nil
	}
}

// Console drives one terminal session at a time.
type Console struct {
	core      library.Core
	in        *bufio.Scanner
	out       io.Writer
	passwords PasswordReader
	useColor  bool
	logger    *zap.Logger
}

// Option configures a Console.
type Option func(*Console)

// WithPasswordReader hides password input.
func WithPasswordReader(r PasswordReader) Option {
	return func(c *Console) { c.passwords = r }
}

// WithColor turns coloured headings on or off.
func WithColor(on bool) Option {
	return func(c *Console) { c.useColor = on }
}

// New creates a console reading commands from in and writing to out.
func New(core library.Core, in io.Reader, out io.Writer, logger *zap.Logger, opts ...Option) *Console {
	c := &Console{
		core:   core,
		in:     bufio.NewScanner(in),
		out:    out,
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run shows the login screen until the user quits or input ends.
func (c *Console) Run(ctx context.Context) error {
	c.heading("Library Management System")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		role, quit, err := c.login(ctx)
		if err != nil {
			return err
		}
		if quit {
			c.println("Goodbye.")
			return nil
		}
		if role == nil {
			continue
		}

		var done bool
		if models.IsAdmin(role) {
			done = c.adminMenu(ctx)
		} else {
			member, _ := models.AsMember(role)
			done = c.memberMenu(ctx, member)
		}
		if done {
			return nil
		}
	}
}

// login returns the authenticated role, nil after a failed attempt, or quit
// when the user leaves the username blank or input ends.
func (c *Console) login(ctx context.Context) (models.Role, bool, error) {
	c.heading("Login")
	username, ok := c.prompt("Username (blank to quit): ")
	if !ok || username == "" {
		return nil, true, nil
	}

	var password string
	if c.passwords != nil {
		p, err := c.passwords("Password: ")
		if err != nil {
			return nil, false, fmt.Errorf("failed to read password: %w", err)
		}
		password = p
	} else if password, ok = c.prompt("Password: "); !ok {
		return nil, true, nil
	}

	role, found := c.core.Authenticate(ctx, username, password)
	if !found {
		c.fail("Invalid credentials!")
		return nil, false, nil
	}
	c.success(fmt.Sprintf("Welcome, %s.", username))
	return role, false, nil
}

// adminMenu runs until logout; it reports true when input ended.
func (c *Console) adminMenu(ctx context.Context) bool {
	for {
		c.heading("Administrator Dashboard")
		c.println("1) Add book")
		c.println("2) Remove book")
		c.println("3) Search book")
		c.println("4) View transactions")
		c.println("5) Logout")

		choice, ok := c.prompt("> ")
		if !ok {
			return true
		}
		switch choice {
		case "1":
			c.addBook(ctx)
		case "2":
			c.removeBook(ctx)
		case "3":
			c.searchBook(ctx)
		case "4":
			if err := RenderTransactions(c.out, c.core.ListAllTransactions(ctx)); err != nil {
				c.logger.Warn("Failed to render transactions", zap.Error(err))
			}
		case "5":
			return false
		default:
			c.fail("Unknown option")
		}
	}
}

// memberMenu runs until logout; it reports true when input ended.
func (c *Console) memberMenu(ctx context.Context, member models.MemberIdentity) bool {
	for {
		c.heading("Member Dashboard")
		c.println("1) Search book")
		c.println("2) Borrow book")
		c.println("3) Logout")

		choice, ok := c.prompt("> ")
		if !ok {
			return true
		}
		switch choice {
		case "1":
			c.searchBook(ctx)
		case "2":
			c.borrowBook(ctx, member)
		case "3":
			return false
		default:
			c.fail("Unknown option")
		}
	}
}

func (c *Console) searchBook(ctx context.Context) {
	title, ok := c.prompt("Title: ")
	if !ok || title == "" {
		return
	}
	book, found := c.core.SearchBook(ctx, title)
	if !found {
		c.fail("Book not found!")
		return
	}
	c.printf("Title:     %s\n", book.Title)
	c.printf("Author:    %s\n", book.Author)
	c.printf("ISBN:      %s\n", book.ISBN)
	c.printf("Year:      %d\n", book.Year)
	c.printf("Available: %t\n", book.IsAvailable)
	if book.Category != "" {
		c.printf("Category:  %s\n", book.Category)
	}
}

func (c *Console) addBook(ctx context.Context) {
	fields := []string{"Title", "ISBN", "Author", "Year", "Category"}
	values := make([]string, len(fields))
	for i, f := range fields {
		v, ok := c.prompt(f + ": ")
		if !ok {
			return
		}
		values[i] = v
	}
	for _, v := range values[:4] {
		if v == "" {
			c.fail("Title, ISBN, author and year are required")
			return
		}
	}

	if c.core.AddBook(ctx, values[0], values[1], values[2], values[3], values[4]) {
		c.success("Book added successfully!")
	} else {
		c.fail("Failed to add book")
	}
}

func (c *Console) removeBook(ctx context.Context) {
	title, ok := c.prompt("Title: ")
	if !ok || title == "" {
		return
	}
	book, found := c.core.SearchBook(ctx, title)
	if !found {
		c.fail("Book not found!")
		return
	}
	if c.core.RemoveBook(ctx, book.ID) {
		c.success("Book removed successfully!")
	} else {
		c.fail("Failed to remove book")
	}
}

func (c *Console) borrowBook(ctx context.Context, member models.MemberIdentity) {
	title, ok := c.prompt("Title: ")
	if !ok || title == "" {
		return
	}
	book, found := c.core.SearchBook(ctx, title)
	if !found {
		c.fail("Book not found!")
		return
	}
	if ok, msg := c.core.BorrowBook(ctx, book.ID, member); ok {
		c.success(msg)
	} else {
		c.fail(msg)
	}
}

func (c *Console) prompt(label string) (string, bool) {
	fmt.Fprint(c.out, label)
	if !c.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(c.in.Text()), true
}

func (c *Console) println(s string) { fmt.Fprintln(c.out, s) }

func (c *Console) printf(format string, args ...any) { fmt.Fprintf(c.out, format, args...) }

func (c *Console) heading(s string) {
	fmt.Fprintf(c.out, "\n%s\n", c.colorize("== "+s+" ==", color.FgCyan, color.Bold))
}

func (c *Console) success(s string) { c.println(c.colorize(s, color.FgGreen)) }

func (c *Console) fail(s string) { c.println(c.colorize(s, color.FgRed)) }

func (c *Console) colorize(text string, attrs ...color.Attribute) string {
	if !c.useColor {
		return text
	}
	return color.New(attrs...).Sprint(text)
}
