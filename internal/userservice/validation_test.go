package userservice

import (
	"testing"

	"github.com/MishraShardendu22/blog-backend/internal/common"
)

func TestValidateEmail(t *testing.T) {
	testCases := []struct {
		email string
		valid bool
	}{
		{email: "", valid: false},
		{email: "a", valid: false},
		{email: "a@", valid: false},
		{email: "a@b", valid: false},
		{email: "a@b.c", valid: false},
		{email: "a@b.com", valid: true},
		{email: "first.last+tag@example.co.uk", valid: true},
		{email: "spaces in@example.com", valid: false},
	}

	for _, tc := range testCases {
		t.Run(tc.email, func(t *testing.T) {
			v := common.NewValidator()
			validateEmail(v, tc.email)
			if v.Valid() != tc.valid {
				t.Errorf("expected %v, got %v", tc.valid, v.Valid())
				for _, e := range v.Errors {
					t.Log(e)
				}
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	testCases := []struct {
		name     string
		password string
		valid    bool
	}{
		{name: "empty", password: "", valid: false},
		{name: "too short", password: "Ab1!", valid: false},
		{name: "no uppercase", password: "test_1234!", valid: false},
		{name: "no lowercase", password: "TEST_1234!", valid: false},
		{name: "no number", password: "Test_abcd!", valid: false},
		{name: "no symbol", password: "Testabcd1", valid: false},
		{name: "valid", password: "Test_1234!", valid: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v := common.NewValidator()
			validatePassword(v, tc.password)
			if v.Valid() != tc.valid {
				t.Errorf("expected %v, got %v", tc.valid, v.Valid())
				for _, e := range v.Errors {
					t.Log(e)
				}
			}
		})
	}
}

func TestValidateOTPCode(t *testing.T) {
	testCases := []struct {
		code  string
		valid bool
	}{
		{code: "", valid: false},
		{code: "12345", valid: false},
		{code: "1234567", valid: false},
		{code: "12345a", valid: false},
		{code: "123456", valid: true},
		{code: "000000", valid: true},
	}

	for _, tc := range testCases {
		t.Run(tc.code, func(t *testing.T) {
			v := common.NewValidator()
			validateOTPCode(v, tc.code)
			if v.Valid() != tc.valid {
				t.Errorf("expected %v, got %v", tc.valid, v.Valid())
				for _, e := range v.Errors {
					t.Log(e)
				}
			}
		})
	}
}

func TestValidateSessionToken(t *testing.T) {
	testCases := []struct {
		name  string
		token string
		valid bool
	}{
		{name: "empty", token: "", valid: false},
		{name: "too short", token: "ABC123", valid: false},
		{name: "right length", token: "ABCDEFGHIJKLMNOPQRSTUVWXYZ", valid: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v := common.NewValidator()
			ValidateSessionToken(v, tc.token)
			if v.Valid() != tc.valid {
				t.Errorf("expected %v, got %v", tc.valid, v.Valid())
			}
		})
	}
}
