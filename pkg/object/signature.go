package object

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/ssh"
)

// SignaturePrefix identifies the commit signature scheme. A signed commit
// stores "sshsig-v1:<format>:<pubB64>:<sigB64>" in its signature header.
const SignaturePrefix = "sshsig-v1"

// ErrUnsigned is returned when verifying a commit that carries no signature.
var ErrUnsigned = errors.New("commit is not signed")

// CommitSigningPayload returns the canonical bytes that are signed for a
// commit. The payload intentionally excludes the signature field itself.
func CommitSigningPayload(c *CommitObj) []byte {
	if c == nil {
		return nil
	}
	copyCommit := *c
	copyCommit.Signature = ""
	return MarshalCommit(&copyCommit)
}

// EncodeCommitSignature formats an SSH signature for the commit signature
// header.
func EncodeCommitSignature(pub ssh.PublicKey, sig *ssh.Signature) string {
	pubB64 := base64.StdEncoding.EncodeToString(pub.Marshal())
	sigB64 := base64.StdEncoding.EncodeToString(sig.Blob)
	return fmt.Sprintf("%s:%s:%s:%s", SignaturePrefix, sig.Format, pubB64, sigB64)
}

// VerifyCommitSignature checks a commit's embedded signature against its
// canonical payload and returns the signing public key on success.
func VerifyCommitSignature(c *CommitObj) (ssh.PublicKey, error) {
	if c == nil || strings.TrimSpace(c.Signature) == "" {
		return nil, ErrUnsigned
	}
	parts := strings.SplitN(c.Signature, ":", 4)
	if len(parts) != 4 || parts[0] != SignaturePrefix {
		return nil, fmt.Errorf("verify signature: unrecognized scheme")
	}
	format := parts[1]

	pubRaw, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, fmt.Errorf("verify signature: decode public key: %w", err)
	}
	pub, err := ssh.ParsePublicKey(pubRaw)
	if err != nil {
		return nil, fmt.Errorf("verify signature: parse public key: %w", err)
	}

	sigBlob, err := base64.StdEncoding.DecodeString(parts[3])
	if err != nil {
		return nil, fmt.Errorf("verify signature: decode signature: %w", err)
	}
	sig := &ssh.Signature{Format: format, Blob: sigBlob}

	if err := pub.Verify(CommitSigningPayload(c), sig); err != nil {
		return nil, fmt.Errorf("verify signature: %w", err)
	}
	return pub, nil
}
