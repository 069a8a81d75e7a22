package password

import (
	"context"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/suite"
)

// HasherSuite tests scrypt derivation and verification.
//
// Justification: credential hashing is the trust anchor of the auth
// subsystem. The invariants "same password + different salt = different
// hash" and "derived key is 64 bytes" must hold.
type HasherSuite struct {
	suite.Suite
	hasher *Hasher
}

func TestHasherSuite(t *testing.T) {
	suite.Run(t, new(HasherSuite))
}

func (s *HasherSuite) SetupTest() {
	s.hasher = NewHasher()
}

func (s *HasherSuite) TestGenerateSalt() {
	s.Run("salt is 16 random bytes hex encoded", func() {
		salt, err := GenerateSalt()
		s.Require().NoError(err)

		raw, err := hex.DecodeString(salt)
		s.Require().NoError(err)
		s.Len(raw, SaltLength)
	})

	s.Run("consecutive salts differ", func() {
		a, err := GenerateSalt()
		s.Require().NoError(err)
		b, err := GenerateSalt()
		s.Require().NoError(err)
		s.NotEqual(a, b)
	})
}

func (s *HasherSuite) TestHash() {
	ctx := context.Background()

	s.Run("derived key is 64 bytes hex encoded", func() {
		salt, err := GenerateSalt()
		s.Require().NoError(err)

		hash, err := s.hasher.Hash(ctx, "Str0ngPassw0rd!", salt)
		s.Require().NoError(err)

		raw, err := hex.DecodeString(hash)
		s.Require().NoError(err)
		s.Len(raw, KeyLength)
	})

	s.Run("hash never contains the plaintext", func() {
		salt, err := GenerateSalt()
		s.Require().NoError(err)

		hash, err := s.hasher.Hash(ctx, "Str0ngPassw0rd!", salt)
		s.Require().NoError(err)
		s.NotContains(hash, "Str0ngPassw0rd!")
	})

	s.Run("identical passwords with different salts produce different hashes", func() {
		saltA, err := GenerateSalt()
		s.Require().NoError(err)
		saltB, err := GenerateSalt()
		s.Require().NoError(err)

		hashA, err := s.hasher.Hash(ctx, "Str0ngPassw0rd!", saltA)
		s.Require().NoError(err)
		hashB, err := s.hasher.Hash(ctx, "Str0ngPassw0rd!", saltB)
		s.Require().NoError(err)
		s.NotEqual(hashA, hashB)
	})

	s.Run("derivation is deterministic for a fixed salt", func() {
		salt, err := GenerateSalt()
		s.Require().NoError(err)

		hashA, err := s.hasher.Hash(ctx, "Str0ngPassw0rd!", salt)
		s.Require().NoError(err)
		hashB, err := s.hasher.Hash(ctx, "Str0ngPassw0rd!", salt)
		s.Require().NoError(err)
		s.Equal(hashA, hashB)
	})

	s.Run("malformed salt is rejected", func() {
		_, err := s.hasher.Hash(ctx, "whatever", "not-hex")
		s.Error(err)
	})

	s.Run("cancelled context aborts dispatch", func() {
		blocked := NewHasher(WithMaxConcurrent(1))
		salt, err := GenerateSalt()
		s.Require().NoError(err)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		// Saturate the single slot so Acquire must wait on the context.
		s.Require().NoError(blocked.sem.Acquire(ctx, 1))
		defer blocked.sem.Release(1)

		_, err = blocked.Hash(cancelled, "whatever", salt)
		s.Error(err)
	})
}

func (s *HasherSuite) TestVerify() {
	ctx := context.Background()

	s.Run("round trip verifies", func() {
		salt, err := GenerateSalt()
		s.Require().NoError(err)
		hash, err := s.hasher.Hash(ctx, "Str0ngPassw0rd!", salt)
		s.Require().NoError(err)

		ok, err := s.hasher.Verify(ctx, "Str0ngPassw0rd!", salt, hash)
		s.Require().NoError(err)
		s.True(ok)
	})

	s.Run("wrong password does not verify", func() {
		salt, err := GenerateSalt()
		s.Require().NoError(err)
		hash, err := s.hasher.Hash(ctx, "Str0ngPassw0rd!", salt)
		s.Require().NoError(err)

		ok, err := s.hasher.Verify(ctx, "Wr0ngPassword!!", salt, hash)
		s.Require().NoError(err)
		s.False(ok)
	})

	s.Run("malformed stored hash is an error not a mismatch", func() {
		salt, err := GenerateSalt()
		s.Require().NoError(err)

		_, err = s.hasher.Verify(ctx, "whatever", salt, "zz-not-hex")
		s.Error(err)
	})
}
