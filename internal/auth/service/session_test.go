package service

import (
	"context"
	"errors"
	"time"

	"casefile/internal/audit"
)

func (s *AuthServiceSuite) TestValidateSessionHappyPath() {
	user := s.register("alice")
	result, err := s.login(0, "alice", validPassword)
	s.Require().NoError(err)

	got, err := s.service.ValidateSession(s.at(time.Hour), result.Session.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal(user.ID, got.ID)
}

func (s *AuthServiceSuite) TestValidateSessionEmptyAndUnknown() {
	got, err := s.service.ValidateSession(s.at(0), "")
	s.Require().NoError(err)
	s.Nil(got)

	got, err = s.service.ValidateSession(s.at(0), "no-such-session")
	s.Require().NoError(err)
	s.Nil(got)
}

func (s *AuthServiceSuite) TestValidateSessionExpired() {
	s.register("alice")
	result, err := s.login(0, "alice", validPassword)
	s.Require().NoError(err)

	// One second past the 24h expiry the session is invalid and removed.
	got, err := s.service.ValidateSession(s.at(24*time.Hour+time.Second), result.Session.ID)
	s.Require().NoError(err)
	s.Nil(got)
	s.Equal(0, s.sessions.Len())
}

func (s *AuthServiceSuite) TestValidateSessionExactExpiryBoundary() {
	s.register("alice")
	result, err := s.login(0, "alice", validPassword)
	s.Require().NoError(err)

	// expiresAt itself is already expired; one instant before is not.
	got, err := s.service.ValidateSession(s.at(24*time.Hour-time.Nanosecond), result.Session.ID)
	s.Require().NoError(err)
	s.NotNil(got)

	got, err = s.service.ValidateSession(s.at(24*time.Hour), result.Session.ID)
	s.Require().NoError(err)
	s.Nil(got)
}

func (s *AuthServiceSuite) TestValidateSessionSurvivesDeactivation() {
	user := s.register("alice")
	result, err := s.login(0, "alice", validPassword)
	s.Require().NoError(err)

	s.Require().NoError(s.users.SetActive(s.at(0), user.ID, false))

	// Deactivation blocks new logins but does not cut existing sessions.
	got, err := s.service.ValidateSession(s.at(time.Hour), result.Session.ID)
	s.Require().NoError(err)
	s.NotNil(got)
}

func (s *AuthServiceSuite) TestLogoutDeletesSession() {
	s.register("alice")
	result, err := s.login(0, "alice", validPassword)
	s.Require().NoError(err)

	s.Require().NoError(s.service.Logout(s.at(time.Minute), result.Session.ID))

	got, err := s.service.ValidateSession(s.at(time.Minute), result.Session.ID)
	s.Require().NoError(err)
	s.Nil(got)

	events := s.auditEvents(audit.EventUserLogout)
	s.Require().Len(events, 1)
	s.True(events[0].Success)
}

func (s *AuthServiceSuite) TestLogoutIsIdempotent() {
	s.NoError(s.service.Logout(s.at(0), "no-such-session"))
	s.NoError(s.service.Logout(s.at(0), ""))
}

func (s *AuthServiceSuite) TestLogoutClearsRememberedSession() {
	s.register("alice")
	result, err := s.loginRemembered(0, "alice", validPassword)
	s.Require().NoError(err)

	s.Require().NoError(s.service.Logout(s.at(time.Minute), result.Session.ID))

	stored, err := s.persistence.RetrieveSessionID(context.Background())
	s.Require().NoError(err)
	s.Empty(stored)
}

func (s *AuthServiceSuite) TestLogoutLeavesNewerRememberedSession() {
	s.register("alice")
	first, err := s.loginRemembered(0, "alice", validPassword)
	s.Require().NoError(err)
	second, err := s.loginRemembered(time.Minute, "alice", validPassword)
	s.Require().NoError(err)

	// Logging out the first session must not clear the token that now
	// belongs to the second.
	s.Require().NoError(s.service.Logout(s.at(2*time.Minute), first.Session.ID))

	stored, err := s.persistence.RetrieveSessionID(context.Background())
	s.Require().NoError(err)
	s.Equal(second.Session.ID, stored)
}

func (s *AuthServiceSuite) TestRestorePersistedSession() {
	user := s.register("alice")
	result, err := s.loginRemembered(0, "alice", validPassword)
	s.Require().NoError(err)

	restored := s.service.RestorePersistedSession(s.at(time.Hour))
	s.Require().NotNil(restored)
	s.Equal(result.Session.ID, restored.Session.ID)
	s.Equal(user.ID, restored.User.ID)
}

func (s *AuthServiceSuite) TestRestoreWithNothingPersisted() {
	s.Nil(s.service.RestorePersistedSession(s.at(0)))
}

func (s *AuthServiceSuite) TestRestoreExpiredSession() {
	s.register("alice")
	result, err := s.loginRemembered(0, "alice", validPassword)
	s.Require().NoError(err)

	restored := s.service.RestorePersistedSession(s.at(31 * 24 * time.Hour))
	s.Nil(restored)

	// The dead token and its session are gone; the next start is clean.
	stored, err := s.persistence.RetrieveSessionID(context.Background())
	s.Require().NoError(err)
	s.Empty(stored)
	_, err = s.sessions.FindByID(s.at(0), result.Session.ID)
	s.Error(err)
}

func (s *AuthServiceSuite) TestRestoreDeactivatedUser() {
	user := s.register("alice")
	_, err := s.loginRemembered(0, "alice", validPassword)
	s.Require().NoError(err)
	s.Require().NoError(s.users.SetActive(s.at(0), user.ID, false))

	restored := s.service.RestorePersistedSession(s.at(time.Hour))
	s.Nil(restored)

	stored, err := s.persistence.RetrieveSessionID(context.Background())
	s.Require().NoError(err)
	s.Empty(stored)
}

func (s *AuthServiceSuite) TestRestoreDanglingToken() {
	s.register("alice")
	result, err := s.loginRemembered(0, "alice", validPassword)
	s.Require().NoError(err)

	// Session vanished out from under the token.
	s.Require().NoError(s.sessions.Delete(s.at(0), result.Session.ID))

	restored := s.service.RestorePersistedSession(s.at(time.Hour))
	s.Nil(restored)

	stored, err := s.persistence.RetrieveSessionID(context.Background())
	s.Require().NoError(err)
	s.Empty(stored)
}

func (s *AuthServiceSuite) TestRestoreSurvivesCorruptedStore() {
	s.register("alice")
	_, err := s.loginRemembered(0, "alice", validPassword)
	s.Require().NoError(err)

	s.persistence.FailNext = errors.New("corrupted storage")
	s.Nil(s.service.RestorePersistedSession(s.at(time.Hour)))
}

func (s *AuthServiceSuite) TestCleanupExpiredSessions() {
	s.register("alice")
	_, err := s.login(0, "alice", validPassword)
	s.Require().NoError(err)
	_, err = s.login(time.Minute, "alice", validPassword)
	s.Require().NoError(err)
	long, err := s.loginRemembered(2*time.Minute, "alice", validPassword)
	s.Require().NoError(err)

	// 25h in: the two plain sessions have expired, the remembered one has not.
	count, err := s.service.CleanupExpiredSessions(s.at(25 * time.Hour))
	s.Require().NoError(err)
	s.Equal(2, count)
	s.Equal(1, s.sessions.Len())

	got, err := s.service.ValidateSession(s.at(25*time.Hour), long.Session.ID)
	s.Require().NoError(err)
	s.NotNil(got)

	events := s.auditEvents(audit.EventSessionCleanup)
	s.Require().Len(events, 1)
	s.Equal("2", events[0].Details["deleted"])
}

func (s *AuthServiceSuite) TestCleanupWithNothingExpiredSkipsAudit() {
	s.register("alice")
	_, err := s.login(0, "alice", validPassword)
	s.Require().NoError(err)

	count, err := s.service.CleanupExpiredSessions(s.at(time.Hour))
	s.Require().NoError(err)
	s.Equal(0, count)
	s.Empty(s.auditEvents(audit.EventSessionCleanup))
}
