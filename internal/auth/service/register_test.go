package service

import (
	"strings"
	"time"

	"casefile/internal/audit"
	"casefile/internal/auth/models"
	dErrors "casefile/pkg/domain-errors"
)

func (s *AuthServiceSuite) TestRegisterStoresNoPlaintext() {
	user := s.register("alice")

	s.NotContains(user.PasswordHash, validPassword)
	s.Len(user.PasswordSalt, 32, "16 random bytes hex encoded")
	s.Len(user.PasswordHash, 128, "64-byte derived key hex encoded")

	stored, err := s.users.FindByUsername(s.at(0), "alice")
	s.Require().NoError(err)
	s.Equal(user.PasswordHash, stored.PasswordHash)
	s.NotEqual(validPassword, stored.PasswordHash)
}

func (s *AuthServiceSuite) TestRegisterSaltsDifferentiateHashes() {
	// Same password for two accounts must still produce distinct hashes.
	alice := s.register("alice")
	bob := s.register("bob")

	s.NotEqual(alice.PasswordSalt, bob.PasswordSalt)
	s.NotEqual(alice.PasswordHash, bob.PasswordHash)
}

func (s *AuthServiceSuite) TestRegisterDefaults() {
	user := s.register("alice")

	s.Equal(models.RoleUser, user.Role)
	s.True(user.IsActive)
	s.Equal(s.base, user.CreatedAt)
	s.Nil(user.LastLoginAt)
}

func (s *AuthServiceSuite) TestRegisterPasswordPolicy() {
	cases := []struct {
		name     string
		password string
		message  string
	}{
		{"too short", "Sh0rt", "password must be at least 12 characters long"},
		{"no uppercase", "alllowercase123", "password must contain an uppercase letter"},
		{"no lowercase", "ALLUPPERCASE123", "password must contain a lowercase letter"},
		{"no digit", "NoDigitsAtAllHere", "password must contain a digit"},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.service.Register(s.at(0), "alice", tc.password, "alice@example.com")
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation))
			s.Equal(tc.message, err.Error())
		})
	}
}

func (s *AuthServiceSuite) TestRegisterRejectsBlankUsername() {
	_, err := s.service.Register(s.at(0), "   ", validPassword, "alice@example.com")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *AuthServiceSuite) TestRegisterRejectsBadEmail() {
	for _, email := range []string{"", "no-at-sign", "@example.com", "alice@"} {
		_, err := s.service.Register(s.at(0), "alice", validPassword, email)
		s.Require().Error(err, "email %q should be rejected", email)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	}
}

func (s *AuthServiceSuite) TestRegisterDuplicateUsername() {
	s.register("alice")

	_, err := s.service.Register(s.at(0), "alice", validPassword, "other@example.com")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	s.Contains(err.Error(), "username")
}

func (s *AuthServiceSuite) TestRegisterDuplicateEmail() {
	s.register("alice")

	_, err := s.service.Register(s.at(0), "bob", validPassword, "alice@example.com")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	s.Contains(err.Error(), "email")
}

func (s *AuthServiceSuite) TestRegisterEmitsAudit() {
	user := s.register("alice")

	events := s.auditEvents(audit.EventUserRegister)
	s.Require().Len(events, 1)
	s.Equal(user.ID.String(), events[0].UserID)
	s.True(events[0].Success)
}

func (s *AuthServiceSuite) TestRegisterDoesNotTouchLimiter() {
	// Failed registrations never eat into the login attempt budget.
	for i := 0; i < 6; i++ {
		_, err := s.service.Register(s.at(time.Duration(i)*time.Minute), "alice", "weak", "alice@example.com")
		s.Require().Error(err)
	}

	res, err := s.limiter.Check(s.at(6*time.Minute), "alice")
	s.Require().NoError(err)
	s.True(res.Allowed)
	s.Equal(5, res.AttemptsRemaining)
}

func (s *AuthServiceSuite) TestRegisterHashIsHex() {
	user := s.register("alice")
	s.Equal(strings.ToLower(user.PasswordHash), user.PasswordHash)
	s.Equal(strings.ToLower(user.PasswordSalt), user.PasswordSalt)
}
