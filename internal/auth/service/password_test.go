package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"casefile/internal/audit"
	dErrors "casefile/pkg/domain-errors"
)

func (s *AuthServiceSuite) TestChangePassword() {
	user := s.register("alice")

	err := s.service.ChangePassword(s.at(time.Minute), user.ID, validPassword, anotherPassword)
	s.Require().NoError(err)

	// Old credential dead, new one live.
	_, err = s.login(2*time.Minute, "alice", validPassword)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	_, err = s.login(3*time.Minute, "alice", anotherPassword)
	s.Require().NoError(err)
}

func (s *AuthServiceSuite) TestChangePasswordInvalidatesAllSessions() {
	user := s.register("alice")
	first, err := s.login(0, "alice", validPassword)
	s.Require().NoError(err)
	second, err := s.login(time.Minute, "alice", validPassword)
	s.Require().NoError(err)

	err = s.service.ChangePassword(s.at(2*time.Minute), user.ID, validPassword, anotherPassword)
	s.Require().NoError(err)

	for _, id := range []string{first.Session.ID, second.Session.ID} {
		got, err := s.service.ValidateSession(s.at(2*time.Minute), id)
		s.Require().NoError(err)
		s.Nil(got, "every pre-change session must be invalid")
	}
	s.Equal(0, s.sessions.Len())
}

func (s *AuthServiceSuite) TestChangePasswordClearsRememberedSession() {
	user := s.register("alice")
	_, err := s.loginRemembered(0, "alice", validPassword)
	s.Require().NoError(err)

	err = s.service.ChangePassword(s.at(time.Minute), user.ID, validPassword, anotherPassword)
	s.Require().NoError(err)

	stored, err := s.persistence.RetrieveSessionID(context.Background())
	s.Require().NoError(err)
	s.Empty(stored)
}

func (s *AuthServiceSuite) TestChangePasswordWrongCurrent() {
	user := s.register("alice")
	session, err := s.login(0, "alice", validPassword)
	s.Require().NoError(err)

	err = s.service.ChangePassword(s.at(time.Minute), user.ID, anotherPassword, "Fresh3rSecret!")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	// A failed change leaves sessions and credentials untouched.
	got, err := s.service.ValidateSession(s.at(time.Minute), session.Session.ID)
	s.Require().NoError(err)
	s.NotNil(got)

	events := s.auditEvents(audit.EventPasswordChange)
	s.Require().Len(events, 1)
	s.False(events[0].Success)
}

func (s *AuthServiceSuite) TestChangePasswordEnforcesPolicy() {
	user := s.register("alice")

	err := s.service.ChangePassword(s.at(0), user.ID, validPassword, "weak")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	// Policy failure is checked after the current password, so the old
	// credential still works.
	_, err = s.login(time.Minute, "alice", validPassword)
	s.NoError(err)
}

func (s *AuthServiceSuite) TestChangePasswordUnknownUser() {
	err := s.service.ChangePassword(s.at(0), uuid.New(), validPassword, anotherPassword)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *AuthServiceSuite) TestChangePasswordRotatesSalt() {
	user := s.register("alice")
	before, err := s.users.FindByID(s.at(0), user.ID)
	s.Require().NoError(err)

	// Re-setting the same password must still produce a new salt and hash.
	err = s.service.ChangePassword(s.at(time.Minute), user.ID, validPassword, validPassword)
	s.Require().NoError(err)

	after, err := s.users.FindByID(s.at(time.Minute), user.ID)
	s.Require().NoError(err)
	s.NotEqual(before.PasswordSalt, after.PasswordSalt)
	s.NotEqual(before.PasswordHash, after.PasswordHash)
}

func (s *AuthServiceSuite) TestChangePasswordAudited() {
	user := s.register("alice")
	_, err := s.login(0, "alice", validPassword)
	s.Require().NoError(err)

	err = s.service.ChangePassword(s.at(time.Minute), user.ID, validPassword, anotherPassword)
	s.Require().NoError(err)

	events := s.auditEvents(audit.EventPasswordChange)
	s.Require().Len(events, 1)
	s.True(events[0].Success)
	s.Equal(user.ID.String(), events[0].UserID)
	s.Equal("1", events[0].Details["sessions_invalidated"])
}
