package service

import (
	"context"
	"time"

	"casefile/internal/audit"
	dErrors "casefile/pkg/domain-errors"
)

func (s *AuthServiceSuite) TestLoginSuccess() {
	user := s.register("alice")

	result, err := s.login(0, "alice", validPassword)
	s.Require().NoError(err)
	s.Equal(user.ID, result.User.ID)
	s.NotEmpty(result.Session.ID)
	s.Equal(s.base.Add(24*time.Hour), result.Session.ExpiresAt)
	s.False(result.Session.RememberMe)
	s.Equal("127.0.0.1", result.Session.IPAddress)
	s.Contains(result.Session.DeviceName, "Chrome")

	s.Require().NotNil(result.User.LastLoginAt)
	s.Equal(s.base, *result.User.LastLoginAt)

	stored, err := s.sessions.FindByID(s.at(0), result.Session.ID)
	s.Require().NoError(err)
	s.Equal(user.ID, stored.UserID)
}

func (s *AuthServiceSuite) TestLoginGenericFailureMessage() {
	s.register("alice")

	// Unknown user and wrong password must be indistinguishable.
	_, errUnknown := s.login(0, "nobody", validPassword)
	_, errWrongPw := s.login(0, "alice", anotherPassword)

	s.Require().Error(errUnknown)
	s.Require().Error(errWrongPw)
	s.Equal("Invalid credentials", errUnknown.Error())
	s.Equal("Invalid credentials", errWrongPw.Error())
	s.True(dErrors.HasCode(errUnknown, dErrors.CodeUnauthorized))
	s.True(dErrors.HasCode(errWrongPw, dErrors.CodeUnauthorized))
}

func (s *AuthServiceSuite) TestLoginLockoutAfterRepeatedFailures() {
	s.register("alice")

	for i := 0; i < 5; i++ {
		_, err := s.login(time.Duration(i)*time.Second, "alice", anotherPassword)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized), "attempt %d fails with the generic error", i+1)
	}

	// Even the correct password is refused while locked, and the error
	// names the lockout rather than the credentials.
	_, err := s.login(6*time.Second, "alice", validPassword)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeRateLimited))
	s.Contains(err.Error(), "locked")
	s.Contains(err.Error(), "15 minutes")
	s.Positive(dErrors.RetryAfterSeconds(err))
}

func (s *AuthServiceSuite) TestLoginRateLimitChecksBeforeLookup() {
	// Probing a nonexistent account locks its identity like any other.
	for i := 0; i < 5; i++ {
		_, err := s.login(0, "ghost", anotherPassword)
		s.Require().Error(err)
	}

	_, err := s.login(time.Second, "ghost", anotherPassword)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeRateLimited))
}

func (s *AuthServiceSuite) TestLoginSuccessClearsFailures() {
	s.register("alice")

	for i := 0; i < 4; i++ {
		_, err := s.login(time.Duration(i)*time.Second, "alice", anotherPassword)
		s.Require().Error(err)
	}

	_, err := s.login(5*time.Second, "alice", validPassword)
	s.Require().NoError(err)

	res, err := s.limiter.Check(s.at(6*time.Second), "alice")
	s.Require().NoError(err)
	s.True(res.Allowed)
	s.Equal(5, res.AttemptsRemaining, "success resets the budget")
}

func (s *AuthServiceSuite) TestLoginMintsUniqueSessionIDs() {
	s.register("alice")

	seen := make(map[string]bool)
	for i := 0; i < 3; i++ {
		result, err := s.login(time.Duration(i)*time.Minute, "alice", validPassword)
		s.Require().NoError(err)
		s.False(seen[result.Session.ID], "session ids never repeat")
		seen[result.Session.ID] = true
	}
}

func (s *AuthServiceSuite) TestLoginRememberMeTTL() {
	s.register("alice")

	result, err := s.loginRemembered(0, "alice", validPassword)
	s.Require().NoError(err)
	s.True(result.Session.RememberMe)
	s.Equal(s.base.Add(30*24*time.Hour), result.Session.ExpiresAt)

	stored, err := s.persistence.RetrieveSessionID(context.Background())
	s.Require().NoError(err)
	s.Equal(result.Session.ID, stored)
}

func (s *AuthServiceSuite) TestLoginWithoutRememberMeDoesNotPersist() {
	s.register("alice")

	_, err := s.login(0, "alice", validPassword)
	s.Require().NoError(err)

	stored, err := s.persistence.RetrieveSessionID(context.Background())
	s.Require().NoError(err)
	s.Empty(stored)
}

func (s *AuthServiceSuite) TestLoginSurvivesPersistenceFailure() {
	s.register("alice")
	s.persistence.FailNext = context.DeadlineExceeded

	result, err := s.loginRemembered(0, "alice", validPassword)
	s.Require().NoError(err, "persistence is best-effort")
	s.NotNil(result.Session)

	stored, err := s.persistence.RetrieveSessionID(context.Background())
	s.Require().NoError(err)
	s.Empty(stored)
}

func (s *AuthServiceSuite) TestLoginInactiveAccount() {
	user := s.register("alice")
	s.Require().NoError(s.users.SetActive(s.at(0), user.ID, false))

	_, err := s.login(0, "alice", validPassword)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	s.Equal("Account is inactive", err.Error())
}

func (s *AuthServiceSuite) TestLoginAuditTrail() {
	user := s.register("alice")

	_, err := s.login(0, "alice", anotherPassword)
	s.Require().Error(err)
	_, err = s.login(time.Second, "alice", validPassword)
	s.Require().NoError(err)

	events := s.auditEvents(audit.EventUserLogin)
	s.Require().Len(events, 2)

	s.False(events[0].Success)
	s.Equal("Invalid password", events[0].Details["reason"])

	s.True(events[1].Success)
	s.Equal(user.ID.String(), events[1].UserID)
	s.Equal("false", events[1].Details["remember_me"])
}

func (s *AuthServiceSuite) TestLoginUsernameCaseInsensitiveForLimiter() {
	// The limiter buckets by normalized identity even though user lookup
	// stays exact-match.
	s.register("alice")

	for i := 0; i < 5; i++ {
		_, err := s.login(0, "ALICE", anotherPassword)
		s.Require().Error(err)
	}

	_, err := s.login(time.Second, "alice", validPassword)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeRateLimited))
}
