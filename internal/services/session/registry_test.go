package session

import (
	"net"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/pvidal/battlegrid/internal/model"
	"github.com/pvidal/battlegrid/internal/services/match"
	"github.com/pvidal/battlegrid/internal/testutil"
)

type RegistrySuite struct {
	suite.Suite
	registry *Registry
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.registry = NewRegistry(testutil.NopLogger())
}

// connect registers a session over a pipe and cleans both ends up.
func (s *RegistrySuite) connect() *Session {
	server, client := net.Pipe()
	s.T().Cleanup(func() {
		_ = server.Close()
		_ = client.Close()
	})
	return s.registry.Register(server)
}

func (s *RegistrySuite) login(sess *Session, name string) {
	sess.Login(&model.User{Username: name}, "deadbeefdeadbeef")
}

func (s *RegistrySuite) TestRegisterAndCounts() {
	a := s.connect()
	b := s.connect()
	s.login(a, "alice")

	connected, loggedIn := s.registry.Counts()
	s.Equal(2, connected)
	s.Equal(1, loggedIn)

	s.registry.Unregister(b)
	connected, loggedIn = s.registry.Counts()
	s.Equal(1, connected)
	s.Equal(1, loggedIn)
}

func (s *RegistrySuite) TestSlotReuse() {
	a := s.connect()
	_ = s.connect()
	s.registry.Unregister(a)

	c := s.connect()
	s.Len(s.registry.sessions, 2)
	s.Same(c, s.registry.sessions[0])
}

func (s *RegistrySuite) TestUnregisterLogsOut() {
	a := s.connect()
	s.login(a, "alice")
	a.SetLookingForGame(true)

	s.registry.Unregister(a)

	s.False(a.LoggedIn())
	s.False(a.LookingForGame())
	s.Nil(s.registry.FindByUsername("alice"))
}

func (s *RegistrySuite) TestFindByUsername() {
	a := s.connect()
	b := s.connect()
	s.login(a, "alice")
	s.login(b, "bob")

	s.Same(a, s.registry.FindByUsername("alice"))
	s.Same(b, s.registry.FindByUsername("bob"))
	s.Nil(s.registry.FindByUsername("carol"))
}

func (s *RegistrySuite) TestFindByUsernameIgnoresAnonymous() {
	_ = s.connect() // connected but never logged in, Username() is ""
	s.Nil(s.registry.FindByUsername(""))
}

func (s *RegistrySuite) TestSetMatchIfNoneIsExclusive() {
	a := s.connect()
	b := s.connect()
	matches := match.NewRegistry(testutil.NopLogger())
	m1 := matches.Create(a, b)
	m2 := matches.Create(a, b)

	s.True(a.SetMatchIfNone(m1))
	s.False(a.SetMatchIfNone(m2), "second claim must lose")
	s.Same(m1, a.Match())

	a.ClearMatch()
	s.True(a.SetMatchIfNone(m2))
	s.Same(m2, a.Match())
}

func (s *RegistrySuite) TestOthersExcludesSelfAndAnonymous() {
	a := s.connect()
	b := s.connect()
	_ = s.connect() // connected but never logged in
	s.login(a, "alice")
	s.login(b, "bob")
	b.SetLookingForGame(true)

	others := s.registry.Others(a)
	s.Require().Len(others, 1)
	s.Equal("bob", others[0].Username())
	s.True(others[0].LookingForGame())
}

func (s *RegistrySuite) TestTokenMatches() {
	a := s.connect()

	s.False(a.TokenMatches("deadbeefdeadbeef"), "anonymous session must not match")

	s.login(a, "alice")
	s.True(a.TokenMatches("deadbeefdeadbeef"))
	s.False(a.TokenMatches("0000000000000000"))
	s.False(a.TokenMatches(""))

	a.Logout()
	s.False(a.TokenMatches("deadbeefdeadbeef"))
}

func (s *RegistrySuite) TestLogoutClearsLookingFlag() {
	a := s.connect()
	s.login(a, "alice")
	a.SetLookingForGame(true)

	a.Logout()
	s.False(a.LookingForGame())
}
