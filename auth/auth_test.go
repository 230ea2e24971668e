// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"strings"
	"testing"
)

func TestGenerateBearerToken(t *testing.T) {
	token, err := GenerateBearerToken()
	if err != nil {
		t.Fatalf("GenerateBearerToken() error = %v", err)
	}
	// 24 bytes -> 32 base64 chars, no padding
	if len(token) != 32 {
		t.Errorf("token length = %d, want 32", len(token))
	}
	if strings.ContainsAny(token, "+/=") {
		t.Errorf("token %q is not URL-safe", token)
	}

	other, _ := GenerateBearerToken()
	if token == other {
		t.Error("GenerateBearerToken() produced duplicate tokens")
	}
}

func TestHashToken(t *testing.T) {
	a := HashToken("token", "salt")
	b := HashToken("token", "salt")
	if a != b {
		t.Error("HashToken() should be deterministic")
	}
	if a == HashToken("token", "other-salt") {
		t.Error("HashToken() should depend on the salt")
	}
	if a == "token" || len(a) != 64 {
		t.Errorf("HashToken() = %q, want 64 hex chars", a)
	}
}

func TestParseBearer(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{"Bearer abc", "abc", false},
		{"bearer abc", "abc", false},
		{"  Bearer   abc  ", "abc", false},
		{"Basic abc", "", true},
		{"Bearer ", "", true},
		{"", "", true},
		{"abc", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, err := ParseBearer(tt.header)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseBearer(%q) error = %v, wantErr %v", tt.header, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseBearer(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "s3cret!" {
		t.Fatal("HashPassword() returned the plain password")
	}
	if err := CheckPassword(hash, "s3cret!"); err != nil {
		t.Errorf("CheckPassword() rejected the right password: %v", err)
	}
	if err := CheckPassword(hash, "wrong"); err != ErrInvalidPassword {
		t.Errorf("CheckPassword() = %v, want ErrInvalidPassword", err)
	}
}

func TestGeneratePromoCode(t *testing.T) {
	code, err := GeneratePromoCode()
	if err != nil {
		t.Fatalf("GeneratePromoCode() error = %v", err)
	}
	if code == "" || len(code) > 11 {
		t.Errorf("GeneratePromoCode() = %q, unexpected length", code)
	}
	for _, c := range code {
		if !((c >= '0' && c <= '9') || (c >= 'A' && c <= 'Z')) {
			t.Errorf("GeneratePromoCode() contains invalid char: %c", c)
		}
	}
}

func TestBase62Encode(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"zero", []byte{0}, "0"},
		{"one", []byte{1}, "1"},
		{"sixty-two", []byte{62}, "10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := base62Encode(tt.data); got != tt.want {
				t.Errorf("base62Encode(%v) = %q, want %q", tt.data, got, tt.want)
			}
		})
	}
}
