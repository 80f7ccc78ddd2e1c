package object

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/ssh"
)

func signedCommitFixture(t *testing.T) (*CommitObj, ssh.Signer) {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		t.Fatalf("NewSignerFromKey: %v", err)
	}

	c := &CommitObj{
		TreeHash:  Hash(strings.Repeat("a", 64)),
		Author:    "a <a@b>",
		Timestamp: 1700000000,
		Message:   "signed change\n",
	}
	sig, err := signer.Sign(rand.Reader, CommitSigningPayload(c))
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	c.Signature = EncodeCommitSignature(signer.PublicKey(), sig)
	return c, signer
}

func TestVerifyCommitSignature(t *testing.T) {
	c, signer := signedCommitFixture(t)

	pub, err := VerifyCommitSignature(c)
	if err != nil {
		t.Fatalf("VerifyCommitSignature: %v", err)
	}
	if ssh.FingerprintSHA256(pub) != ssh.FingerprintSHA256(signer.PublicKey()) {
		t.Errorf("signing key mismatch: got %s", ssh.FingerprintSHA256(pub))
	}
}

func TestVerifyCommitSignatureTampered(t *testing.T) {
	c, _ := signedCommitFixture(t)
	c.Message = "rewritten history\n"

	if _, err := VerifyCommitSignature(c); err == nil {
		t.Error("VerifyCommitSignature should fail after message change")
	}
}

func TestVerifyCommitSignatureUnsigned(t *testing.T) {
	c := &CommitObj{
		TreeHash:  Hash(strings.Repeat("a", 64)),
		Author:    "a <a@b>",
		Timestamp: 1,
		Message:   "m",
	}
	_, err := VerifyCommitSignature(c)
	if !errors.Is(err, ErrUnsigned) {
		t.Errorf("got %v, want ErrUnsigned", err)
	}
}

func TestVerifyCommitSignatureBadScheme(t *testing.T) {
	c, _ := signedCommitFixture(t)
	c.Signature = "pgp:nope"

	if _, err := VerifyCommitSignature(c); err == nil {
		t.Error("VerifyCommitSignature should reject unknown scheme")
	}
}

func TestSigningPayloadExcludesSignature(t *testing.T) {
	c, _ := signedCommitFixture(t)
	unsigned := *c
	unsigned.Signature = ""
	if string(CommitSigningPayload(c)) != string(MarshalCommit(&unsigned)) {
		t.Error("payload must equal the commit marshaled without its signature")
	}
}
