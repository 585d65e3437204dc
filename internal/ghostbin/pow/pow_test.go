package pow

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"

	"ghostbin/internal/ghostbin/core"
	"ghostbin/internal/ghostbin/store"
)

func newTestAuthority(t *testing.T) (*Authority, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	a, err := NewAuthority(st)
	if err != nil {
		t.Fatalf("new authority: %v", err)
	}
	return a, st
}

// failingNonce returns a nonce whose hash does not meet the difficulty,
// so the work check alone fails.
func failingNonce(t *testing.T, salt string) string {
	t.Helper()
	prefix := strings.Repeat("0", Difficulty)
	for nonce := 0; nonce < 1<<20; nonce++ {
		candidate := strconv.Itoa(nonce)
		sum := sha256.Sum256([]byte(salt + candidate))
		if !strings.HasPrefix(hex.EncodeToString(sum[:]), prefix) {
			return candidate
		}
	}
	t.Fatalf("could not find a failing nonce")
	return ""
}

func solution(t *testing.T, a *Authority) Solution {
	t.Helper()
	ch, err := a.Challenge()
	if err != nil {
		t.Fatalf("challenge: %v", err)
	}
	nonce, err := Solve(context.Background(), ch.Salt, ch.Difficulty)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	return Solution{
		Salt:      ch.Salt,
		Nonce:     nonce,
		Timestamp: strconv.FormatUint(ch.Timestamp, 10),
		Signature: ch.Signature,
	}
}

func TestChallenge_Shape(t *testing.T) {
	a, _ := newTestAuthority(t)
	before := uint64(time.Now().Unix())
	ch, err := a.Challenge()
	if err != nil {
		t.Fatalf("challenge: %v", err)
	}
	if len(ch.Salt) != 32 {
		t.Fatalf("salt length: got %d want 32 hex chars", len(ch.Salt))
	}
	if _, err := hex.DecodeString(ch.Salt); err != nil {
		t.Fatalf("salt not hex: %v", err)
	}
	if ch.Difficulty != Difficulty {
		t.Fatalf("difficulty: got %d want %d", ch.Difficulty, Difficulty)
	}
	if len(ch.Signature) != 64 {
		t.Fatalf("signature length: got %d want 64 hex chars", len(ch.Signature))
	}
	if ch.Timestamp < before || ch.Timestamp > uint64(time.Now().Unix()) {
		t.Fatalf("timestamp out of range: %d", ch.Timestamp)
	}
}

func TestChallenge_SaltsAreFresh(t *testing.T) {
	a, _ := newTestAuthority(t)
	seen := make(map[string]bool)
	for i := 0; i < 32; i++ {
		ch, err := a.Challenge()
		if err != nil {
			t.Fatalf("challenge: %v", err)
		}
		if seen[ch.Salt] {
			t.Fatalf("duplicate salt issued: %s", ch.Salt)
		}
		seen[ch.Salt] = true
	}
}

func TestVerify_RoundTrip(t *testing.T) {
	a, _ := newTestAuthority(t)
	sol := solution(t, a)
	if err := a.Verify(context.Background(), sol); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestVerify_Replay(t *testing.T) {
	a, _ := newTestAuthority(t)
	sol := solution(t, a)
	if err := a.Verify(context.Background(), sol); err != nil {
		t.Fatalf("first verify: %v", err)
	}
	err := a.Verify(context.Background(), sol)
	if core.KindOf(err) != core.KindUnauthorized || core.MessageOf(err) != "PoW salt already used" {
		t.Fatalf("replay: got %v", err)
	}
}

func TestVerify_InvalidSignature(t *testing.T) {
	a, _ := newTestAuthority(t)
	sol := solution(t, a)
	// Same length, different content: the comparison must still reject.
	sol.Signature = strings.Repeat("ab", 32)
	err := a.Verify(context.Background(), sol)
	if core.MessageOf(err) != "Invalid PoW signature" {
		t.Fatalf("got %v", err)
	}
}

func TestVerify_ForeignKeyRejected(t *testing.T) {
	// A challenge minted by one process must not verify on another: the
	// HMAC key is process-local.
	a1, _ := newTestAuthority(t)
	a2, _ := newTestAuthority(t)
	sol := solution(t, a1)
	err := a2.Verify(context.Background(), sol)
	if core.MessageOf(err) != "Invalid PoW signature" {
		t.Fatalf("got %v", err)
	}
}

func TestVerify_Expired(t *testing.T) {
	a, _ := newTestAuthority(t)
	issued := time.Now()
	a.SetClock(func() time.Time { return issued })
	sol := solution(t, a)

	a.SetClock(func() time.Time { return issued.Add(121 * time.Second) })
	err := a.Verify(context.Background(), sol)
	if core.MessageOf(err) != "PoW challenge expired" {
		t.Fatalf("got %v", err)
	}
}

func TestVerify_WithinWindow(t *testing.T) {
	a, _ := newTestAuthority(t)
	issued := time.Now()
	a.SetClock(func() time.Time { return issued })
	sol := solution(t, a)

	a.SetClock(func() time.Time { return issued.Add(119 * time.Second) })
	if err := a.Verify(context.Background(), sol); err != nil {
		t.Fatalf("verify at 119s: %v", err)
	}
}

func TestVerify_FutureTimestampNotExpired(t *testing.T) {
	// Saturating freshness: a verifier clock behind the issuance clock
	// must not reject the challenge as expired.
	a, _ := newTestAuthority(t)
	issued := time.Now()
	a.SetClock(func() time.Time { return issued })
	sol := solution(t, a)

	a.SetClock(func() time.Time { return issued.Add(-time.Hour) })
	if err := a.Verify(context.Background(), sol); err != nil {
		t.Fatalf("future timestamp rejected: %v", err)
	}
}

func TestVerify_DifficultyNotMet(t *testing.T) {
	a, _ := newTestAuthority(t)
	sol := solution(t, a)
	sol.Nonce = failingNonce(t, sol.Salt)
	err := a.Verify(context.Background(), sol)
	if core.MessageOf(err) != "PoW difficulty not met" {
		t.Fatalf("got %v", err)
	}
}

func TestVerify_NonNumericTimestamp(t *testing.T) {
	a, _ := newTestAuthority(t)
	sol := solution(t, a)
	sol.Timestamp = "not-a-number"
	err := a.Verify(context.Background(), sol)
	if core.KindOf(err) != core.KindBadRequest || core.MessageOf(err) != "Invalid X-PoW-Timestamp" {
		t.Fatalf("got %v", err)
	}
}

func TestVerify_SaltConsumedOnFailedAttempt(t *testing.T) {
	// Consumption precedes verification: even a garbage submission burns
	// the salt, so the legitimate solution can no longer use it.
	a, _ := newTestAuthority(t)
	sol := solution(t, a)

	garbage := sol
	garbage.Signature = "fakesignature"
	if err := a.Verify(context.Background(), garbage); err == nil {
		t.Fatalf("expected garbage submission to fail")
	}

	err := a.Verify(context.Background(), sol)
	if core.MessageOf(err) != "PoW salt already used" {
		t.Fatalf("got %v", err)
	}
}

func TestVerify_SaltMarkerWritten(t *testing.T) {
	a, st := newTestAuthority(t)
	sol := solution(t, a)
	if err := a.Verify(context.Background(), sol); err != nil {
		t.Fatalf("verify: %v", err)
	}
	value, found, err := st.Get(context.Background(), store.SaltKey(sol.Salt))
	if err != nil || !found {
		t.Fatalf("salt marker missing: found=%v err=%v", found, err)
	}
	if value != "used" {
		t.Fatalf("marker value: %q", value)
	}
	ttl, ok := st.TTL(store.SaltKey(sol.Salt))
	if !ok || ttl > ChallengeTTL || ttl <= 0 {
		t.Fatalf("marker ttl: ok=%v ttl=%v", ok, ttl)
	}
}

func TestSolutionFromHeader(t *testing.T) {
	h := http.Header{}
	h.Set(HeaderSalt, "s")
	h.Set(HeaderNonce, "n")
	h.Set(HeaderTimestamp, "1")
	h.Set(HeaderSignature, "sig")

	sol, err := SolutionFromHeader(h)
	if err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	if sol.Salt != "s" || sol.Nonce != "n" || sol.Timestamp != "1" || sol.Signature != "sig" {
		t.Fatalf("solution mismatch: %+v", sol)
	}

	for _, missing := range []string{HeaderSalt, HeaderNonce, HeaderTimestamp, HeaderSignature} {
		partial := http.Header{}
		for k := range map[string]string{HeaderSalt: "", HeaderNonce: "", HeaderTimestamp: "", HeaderSignature: ""} {
			if k != missing {
				partial.Set(k, "x")
			}
		}
		_, err := SolutionFromHeader(partial)
		if core.KindOf(err) != core.KindBadRequest {
			t.Fatalf("missing %s: got %v", missing, err)
		}
		if want := "Missing " + missing + " header"; core.MessageOf(err) != want {
			t.Fatalf("missing %s: message %q want %q", missing, core.MessageOf(err), want)
		}
	}
}
