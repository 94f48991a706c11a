package auth

import (
	"testing"
	"time"
)

func newIssuer() *TokenIssuer {
	return &TokenIssuer{
		Secret:    []byte("test-secret"),
		AccessTTL: time.Hour,
		MarkerTTL: time.Hour,
		IntentTTL: time.Minute,
	}
}

func TestAccessToken_RoundTrip(t *testing.T) {
	iss := newIssuer()

	tok, err := iss.IssueAccess("u1")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	uid, err := iss.ParseAccess(tok)
	if err != nil {
		t.Fatalf("ParseAccess: %v", err)
	}
	if uid != "u1" {
		t.Fatalf("subject = %q, want u1", uid)
	}
}

func TestAccessToken_WrongSecret(t *testing.T) {
	tok, err := newIssuer().IssueAccess("u1")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	other := newIssuer()
	other.Secret = []byte("different")
	if _, err := other.ParseAccess(tok); err == nil {
		t.Fatalf("expected rejection with wrong secret")
	}
}

func TestAccessToken_Expired(t *testing.T) {
	iss := newIssuer()
	iss.AccessTTL = -time.Minute

	tok, err := iss.IssueAccess("u1")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, err := iss.ParseAccess(tok); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestTokenPurposes_NotInterchangeable(t *testing.T) {
	iss := newIssuer()

	marker, err := iss.IssueVoteMarker("p1")
	if err != nil {
		t.Fatalf("IssueVoteMarker: %v", err)
	}
	if _, err := iss.ParseAccess(marker); err == nil {
		t.Fatalf("a marker must not parse as an access token")
	}
	if _, _, err := iss.ParseVoteIntent(marker); err == nil {
		t.Fatalf("a marker must not parse as an intent token")
	}

	access, err := iss.IssueAccess("u1")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if iss.VerifyVoteMarker(access, "p1") {
		t.Fatalf("an access token must not verify as a marker")
	}
}

func TestVoteMarker_ScopedToPoll(t *testing.T) {
	iss := newIssuer()

	marker, err := iss.IssueVoteMarker("p1")
	if err != nil {
		t.Fatalf("IssueVoteMarker: %v", err)
	}
	if !iss.VerifyVoteMarker(marker, "p1") {
		t.Fatalf("marker must verify for its own poll")
	}
	if iss.VerifyVoteMarker(marker, "p2") {
		t.Fatalf("marker minted for p1 must not verify for p2")
	}
	if iss.VerifyVoteMarker("garbage", "p1") {
		t.Fatalf("garbage must not verify")
	}
}

func TestVoteIntent_RoundTrip(t *testing.T) {
	iss := newIssuer()

	tok, err := iss.IssueVoteIntent("p1", "o2")
	if err != nil {
		t.Fatalf("IssueVoteIntent: %v", err)
	}
	pollID, optionID, err := iss.ParseVoteIntent(tok)
	if err != nil {
		t.Fatalf("ParseVoteIntent: %v", err)
	}
	if pollID != "p1" || optionID != "o2" {
		t.Fatalf("got (%q, %q), want (p1, o2)", pollID, optionID)
	}
}

func TestVoteIntent_Expired(t *testing.T) {
	iss := newIssuer()
	iss.IntentTTL = -time.Minute

	tok, err := iss.IssueVoteIntent("p1", "o1")
	if err != nil {
		t.Fatalf("IssueVoteIntent: %v", err)
	}
	if _, _, err := iss.ParseVoteIntent(tok); err == nil {
		t.Fatalf("expected expired intent to be rejected")
	}
}
