package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestPairKey(t *testing.T) {
	a := PairKey(ChallengeArithmetic, ChallengeHanjaWriting)
	b := PairKey(ChallengeHanjaWriting, ChallengeArithmetic)
	if a != b {
		t.Errorf("pair key not order-independent: %q vs %q", a, b)
	}
	if a != "ARITHMETIC|HANJA_WRITING" {
		t.Errorf("pair key = %q", a)
	}
}

func TestRewardKindToken(t *testing.T) {
	if RewardSpecial.Token() != TokenSpecial {
		t.Error("SPECIAL should credit the special balance")
	}
	if RewardBonus.Token() != TokenBonus {
		t.Error("BONUS should credit the bonus balance")
	}
}

func TestWalletBalance(t *testing.T) {
	w := Wallet{JellyNormal: 3, JellySpecial: 1, JellyBonus: 2, CashBalance: 500}
	tests := []struct {
		kind TokenKind
		want int64
	}{
		{TokenNormal, 3},
		{TokenSpecial, 1},
		{TokenBonus, 2},
		{TokenKind("CASH"), 0},
	}
	for _, tt := range tests {
		if got := w.Balance(tt.kind); got != tt.want {
			t.Errorf("Balance(%s) = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestKindValidation(t *testing.T) {
	if !TokenNormal.Valid() || !TokenSpecial.Valid() || !TokenBonus.Valid() {
		t.Error("all token kinds should be valid")
	}
	if TokenKind("GOLD").Valid() {
		t.Error("unknown token kind accepted")
	}
	if RewardKind("NORMAL").Valid() {
		t.Error("NORMAL is not a claimable reward kind")
	}
	if ChallengeKind("PIANO").Valid() {
		t.Error("unknown challenge kind accepted")
	}
}

func TestErrorClassification(t *testing.T) {
	err := E(KindConflict, CodeAlreadyClaimed, "reward already claimed").
		With("period_key", "2026-02")

	if KindOf(err) != KindConflict {
		t.Errorf("kind = %s", KindOf(err))
	}
	if CodeOf(err) != CodeAlreadyClaimed {
		t.Errorf("code = %s", CodeOf(err))
	}
	if err.Details["period_key"] != "2026-02" {
		t.Error("detail missing")
	}

	wrapped := fmt.Errorf("claim reward: %w", err)
	if KindOf(wrapped) != KindConflict {
		t.Error("classification lost through wrapping")
	}

	if KindOf(errors.New("plain")) != KindInternal {
		t.Error("unclassified errors should be internal")
	}
}

func TestInternalKeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Internal("update wallet", cause)
	if !errors.Is(err, cause) {
		t.Error("cause not reachable via errors.Is")
	}
	if KindOf(err) != KindInternal {
		t.Errorf("kind = %s", KindOf(err))
	}
}
