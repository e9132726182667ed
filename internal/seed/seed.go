// Package seed bootstraps administrators and members from a YAML roster.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"library/internal/fact"
	"library/internal/schema"
	"library/internal/store"
)

// ErrDuplicate is returned when a username or memberID is already taken.
var ErrDuplicate = errors.New("seed: duplicate identity")

// ErrInvalid is returned for roster entries missing required fields.
var ErrInvalid = errors.New("seed: invalid roster entry")

// Admin is one administrator in the roster.
type Admin struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Member is one library member in the roster.
type Member struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	MemberID string `yaml:"member_id"`
	Email    string `yaml:"email,omitempty"`
}

// Roster lists the people to create.
type Roster struct {
	Admins  []Admin  `yaml:"admins"`
	Members []Member `yaml:"members"`
}

// Result counts what Apply wrote.
type Result struct {
	Admins  int
	Members int
}

// Parse decodes a roster document.
func Parse(data []byte) (*Roster, error) {
	var r Roster
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse roster: %w", err)
	}
	return &r, nil
}

// LoadFile reads and decodes the roster at path.
func LoadFile(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster %s: %w", path, err)
	}
	return Parse(data)
}

// Validate checks the roster on its own: required fields present, and no
// username or memberID repeated inside it.
func (r *Roster) Validate() error {
	usernames := make(map[string]bool)
	memberIDs := make(map[string]bool)

	for i, a := range r.Admins {
		if strings.TrimSpace(a.Username) == "" || a.Password == "" {
			return fmt.Errorf("%w: admin #%d needs username and password", ErrInvalid, i+1)
		}
		if usernames[a.Username] {
			return fmt.Errorf("%w: username %q", ErrDuplicate, a.Username)
		}
		usernames[a.Username] = true
	}
	for i, m := range r.Members {
		if strings.TrimSpace(m.Username) == "" || m.Password == "" || strings.TrimSpace(m.MemberID) == "" {
			return fmt.Errorf("%w: member #%d needs username, password and member_id", ErrInvalid, i+1)
		}
		if usernames[m.Username] {
			return fmt.Errorf("%w: username %q", ErrDuplicate, m.Username)
		}
		if memberIDs[m.MemberID] {
			return fmt.Errorf("%w: member_id %q", ErrDuplicate, m.MemberID)
		}
		usernames[m.Username] = true
		memberIDs[m.MemberID] = true
	}
	return nil
}

// Apply writes the roster into st in one update. Nothing is written if any
// entry collides with the roster itself or with people already in the store.
func Apply(ctx context.Context, st *store.Store, r *Roster) (Result, error) {
	if err := r.Validate(); err != nil {
		return Result{}, err
	}

	var res Result
	err := st.Update(ctx, func(g *store.Graph) error {
		if err := checkExisting(g, r); err != nil {
			return err
		}

		for _, a := range r.Admins {
			id := schema.AdminSubject(a.Username)
			schema.Declare(g, id, schema.Admin)
			schema.Set(g, id, schema.Username, fact.String(a.Username))
			schema.Set(g, id, schema.Password, fact.String(a.Password))
			res.Admins++
		}
		for _, m := range r.Members {
			id := schema.MemberSubject(m.MemberID)
			schema.Declare(g, id, schema.Member)
			schema.Set(g, id, schema.Username, fact.String(m.Username))
			schema.Set(g, id, schema.Password, fact.String(m.Password))
			schema.Set(g, id, schema.MemberID, fact.String(m.MemberID))
			if m.Email != "" {
				schema.Set(g, id, schema.Email, fact.String(m.Email))
			}
			res.Members++
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

func checkExisting(g *store.Graph, r *Roster) error {
	taken := make(map[string]bool)
	takenIDs := make(map[string]bool)
	for _, c := range []schema.Class{schema.Admin, schema.Member} {
		for _, id := range schema.InstancesOf(g, c) {
			if u, ok := schema.Literal(g, id, schema.Username); ok {
				taken[u] = true
			}
			if mid, ok := schema.Literal(g, id, schema.MemberID); ok {
				takenIDs[mid] = true
			}
		}
	}

	for _, a := range r.Admins {
		if taken[a.Username] {
			return fmt.Errorf("%w: username %q already exists", ErrDuplicate, a.Username)
		}
	}
	for _, m := range r.Members {
		if taken[m.Username] {
			return fmt.Errorf("%w: username %q already exists", ErrDuplicate, m.Username)
		}
		if takenIDs[m.MemberID] {
			return fmt.Errorf("%w: member_id %q already exists", ErrDuplicate, m.MemberID)
		}
	}
	return nil
}
