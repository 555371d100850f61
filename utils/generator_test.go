package utils

import (
	"regexp"
	"testing"
)

func TestGenerateResetToken(t *testing.T) {
	plain, hashed, err := GenerateResetToken()
	if err != nil {
		t.Fatalf("GenerateResetToken failed: %v", err)
	}
	if len(plain) != 40 {
		t.Fatalf("plain token length = %d, want 40 hex chars", len(plain))
	}
	if hashed != HashToken(plain) {
		t.Fatal("hashed token does not match HashToken(plain)")
	}
	if len(hashed) != 64 {
		t.Fatalf("hashed token length = %d, want 64", len(hashed))
	}

	again, _, err := GenerateResetToken()
	if err != nil {
		t.Fatalf("second GenerateResetToken failed: %v", err)
	}
	if again == plain {
		t.Fatal("two generated tokens collided")
	}
}

func TestHashTokenIsDeterministic(t *testing.T) {
	if HashToken("abc") != HashToken("abc") {
		t.Fatal("HashToken is not deterministic")
	}
	if HashToken("abc") == HashToken("abd") {
		t.Fatal("different inputs hashed identically")
	}
}

func TestGenerateOTP(t *testing.T) {
	pattern := regexp.MustCompile(`^\d{6}$`)
	for i := 0; i < 50; i++ {
		otp, err := GenerateOTP()
		if err != nil {
			t.Fatalf("GenerateOTP failed: %v", err)
		}
		if !pattern.MatchString(otp) {
			t.Fatalf("OTP %q is not 6 digits", otp)
		}
	}
}
