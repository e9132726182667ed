package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"library/internal/auth"
	"library/internal/models"
	"library/internal/schema"
	"library/internal/storage/stubs"
	"library/internal/store"
)

const rosterYAML = `
admins:
  - username: alice
    password: pw1
members:
  - username: bob
    password: pw2
    member_id: M1
    email: bob@example.org
  - username: carol
    password: pw3
    member_id: M2
`

func newStore(t *testing.T) (*store.Store, *stubs.MockDB) {
	t.Helper()
	db := stubs.NewMockDB()
	st := store.New(db, zap.NewNop())
	st.Load(context.Background())
	return st, db
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.yaml")
	require.NoError(t, os.WriteFile(path, []byte(rosterYAML), 0o644))

	r, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, r.Admins, 1)
	require.Len(t, r.Members, 2)
	assert.Equal(t, "alice", r.Admins[0].Username)
	assert.Equal(t, Member{Username: "bob", Password: "pw2", MemberID: "M1", Email: "bob@example.org"}, r.Members[0])
	assert.Empty(t, r.Members[1].Email)
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Parse([]byte("admins: [unterminated"))
	assert.Error(t, err)
}

func TestApply_AuthenticatesSeededPeople(t *testing.T) {
	st, db := newStore(t)
	ctx := context.Background()

	r, err := Parse([]byte(rosterYAML))
	require.NoError(t, err)

	res, err := Apply(ctx, st, r)
	require.NoError(t, err)
	assert.Equal(t, Result{Admins: 1, Members: 2}, res)
	assert.Equal(t, 1, db.SaveCount())

	a := auth.NewService(st, zap.NewNop())

	role, ok := a.Authenticate(ctx, "alice", "pw1")
	require.True(t, ok)
	assert.True(t, models.IsAdmin(role))

	_, ok = a.Authenticate(ctx, "alice", "wrong")
	assert.False(t, ok)

	role, ok = a.Authenticate(ctx, "bob", "pw2")
	require.True(t, ok)
	member, isMember := models.AsMember(role)
	require.True(t, isMember)
	assert.Equal(t, "M1", member.MemberID)
	assert.Equal(t, schema.MemberSubject("M1").String(), member.ID)

	st.View(func(g *store.Graph) {
		assert.Empty(t, schema.Validate(g))
	})
}

func TestValidate_RejectsDuplicatesInRoster(t *testing.T) {
	tests := []struct {
		name   string
		roster Roster
		want   error
	}{
		{
			name: "admin and member share username",
			roster: Roster{
				Admins:  []Admin{{Username: "alice", Password: "a"}},
				Members: []Member{{Username: "alice", Password: "b", MemberID: "M1"}},
			},
			want: ErrDuplicate,
		},
		{
			name: "two members share member_id",
			roster: Roster{
				Members: []Member{
					{Username: "bob", Password: "a", MemberID: "M1"},
					{Username: "carol", Password: "b", MemberID: "M1"},
				},
			},
			want: ErrDuplicate,
		},
		{
			name:   "member without member_id",
			roster: Roster{Members: []Member{{Username: "bob", Password: "a"}}},
			want:   ErrInvalid,
		},
		{
			name:   "admin without password",
			roster: Roster{Admins: []Admin{{Username: "alice"}}},
			want:   ErrInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, db := newStore(t)
			_, err := Apply(context.Background(), st, &tt.roster)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, 0, st.Len())
			assert.Equal(t, 0, db.SaveCount())
		})
	}
}

func TestApply_RejectsCollisionWithExistingFacts(t *testing.T) {
	st, _ := newStore(t)
	ctx := context.Background()

	_, err := Apply(ctx, st, &Roster{Members: []Member{{Username: "bob", Password: "x", MemberID: "M1"}}})
	require.NoError(t, err)
	before := st.Len()

	_, err = Apply(ctx, st, &Roster{Admins: []Admin{{Username: "bob", Password: "y"}}})
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = Apply(ctx, st, &Roster{Members: []Member{{Username: "dave", Password: "y", MemberID: "M1"}}})
	assert.ErrorIs(t, err, ErrDuplicate)

	assert.Equal(t, before, st.Len(), "rejected rosters write nothing")
}
