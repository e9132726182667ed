package auth

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"library/internal/fact"
	"library/internal/models"
	"library/internal/schema"
	"library/internal/storage/stubs"
	"library/internal/store"
)

func agentFacts(id schema.ID, class schema.Class, username, password string) []fact.Triple {
	return []fact.Triple{
		fact.T(id.Term(), schema.Type, class.Term()),
		fact.T(id.Term(), schema.Username.Term(), fact.String(username)),
		fact.T(id.Term(), schema.Password.Term(), fact.String(password)),
	}
}

func newService(t *testing.T, triples ...fact.Triple) *Service {
	t.Helper()
	st := store.New(stubs.NewMockDBWith(triples...), zap.NewNop())
	st.Load(context.Background())
	return NewService(st, zap.NewNop())
}

func TestAuthenticate_Admin(t *testing.T) {
	svc := newService(t, agentFacts("admin_alice", schema.Admin, "alice", "pw1")...)
	ctx := context.Background()

	role, ok := svc.Authenticate(ctx, "alice", "pw1")
	require.True(t, ok)
	assert.True(t, models.IsAdmin(role))
	assert.Equal(t, models.AdminIdentity{ID: "admin_alice", Username: "alice"}, role)

	role, ok = svc.Authenticate(ctx, "alice", "wrong")
	assert.False(t, ok)
	assert.Nil(t, role)

	_, ok = svc.Authenticate(ctx, "nobody", "pw1")
	assert.False(t, ok)
}

func TestAuthenticate_Member(t *testing.T) {
	id := schema.MemberSubject("M7")
	triples := agentFacts(id, schema.Member, "bob", "secret")
	triples = append(triples,
		fact.T(id.Term(), schema.MemberID.Term(), fact.String("M7")),
		fact.T(id.Term(), schema.Email.Term(), fact.String("bob@example.org")),
	)
	svc := newService(t, triples...)

	role, ok := svc.Authenticate(context.Background(), "bob", "secret")
	require.True(t, ok)

	member, ok := models.AsMember(role)
	require.True(t, ok)
	assert.Equal(t, "member_M7", member.ID)
	assert.Equal(t, "M7", member.MemberID)
	assert.Equal(t, "bob@example.org", member.Email)
	assert.Equal(t, "member", role.Name())
}

func TestAuthenticate_AdminWinsCollision(t *testing.T) {
	triples := agentFacts("admin_sam", schema.Admin, "sam", "pw")
	triples = append(triples, agentFacts("member_1", schema.Member, "sam", "pw")...)
	svc := newService(t, triples...)

	role, ok := svc.Authenticate(context.Background(), "sam", "pw")
	require.True(t, ok)
	assert.True(t, models.IsAdmin(role))
}

func TestAuthenticate_UntypedSubjectIgnored(t *testing.T) {
	triples := agentFacts("admin_ghost", schema.Admin, "ghost", "pw")[1:] // no rdf:type
	svc := newService(t, triples...)

	_, ok := svc.Authenticate(context.Background(), "ghost", "pw")
	assert.False(t, ok)
}

type upperMatcher struct{}

func (upperMatcher) Match(stored, supplied string) bool {
	return stored == strings.ToUpper(supplied)
}

func TestAuthenticate_CustomMatcher(t *testing.T) {
	st := store.New(stubs.NewMockDBWith(agentFacts("admin_alice", schema.Admin, "alice", "PW1")...), zap.NewNop())
	st.Load(context.Background())
	svc := NewService(st, zap.NewNop(), WithMatcher(upperMatcher{}))

	_, ok := svc.Authenticate(context.Background(), "alice", "pw1")
	assert.True(t, ok)
}
