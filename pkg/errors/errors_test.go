package errors

import (
	stderrors "errors"
	"strings"
	"testing"
)

func TestNewAndIs(t *testing.T) {
	err := New(ErrCodeInvalidInput, "bad value: %d", 42)
	if !Is(err, ErrCodeInvalidInput) {
		t.Error("Is should match the code")
	}
	if Is(err, ErrCodeStore) {
		t.Error("Is should not match other codes")
	}
	if !strings.Contains(err.Error(), "INVALID_INPUT") || !strings.Contains(err.Error(), "bad value: 42") {
		t.Errorf("Error string unexpected: %s", err.Error())
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(ErrCodeStore, cause, "failed to save %s", "doc-1")

	// The cause stays reachable through the chain
	if !stderrors.Is(err, cause) {
		t.Error("Wrapped cause should satisfy errors.Is")
	}
	if !Is(err, ErrCodeStore) {
		t.Error("Wrapped error should carry its code")
	}
	if !strings.Contains(err.Error(), "disk full") {
		t.Errorf("Cause should appear in the message: %s", err.Error())
	}
}

func TestIsUnwrapsChain(t *testing.T) {
	inner := New(ErrCodeDocumentNotFound, "missing")
	outer := Wrap(ErrCodeStore, inner, "load failed")

	// As finds the outermost *Error first
	if !Is(outer, ErrCodeStore) {
		t.Error("Outer code should match")
	}
	if GetCode(outer) != ErrCodeStore {
		t.Errorf("GetCode should return the outer code: %s", GetCode(outer))
	}
}

func TestGetCodePlainError(t *testing.T) {
	if GetCode(stderrors.New("plain")) != "" {
		t.Error("Plain errors have no code")
	}
	if Is(stderrors.New("plain"), ErrCodeInternal) {
		t.Error("Plain errors should not match any code")
	}
}

func TestUserMessage(t *testing.T) {
	err := New(ErrCodeCycle, "document contains a cycle")
	if UserMessage(err) != "document contains a cycle" {
		t.Errorf("UserMessage should omit the code: %s", UserMessage(err))
	}

	plain := stderrors.New("something broke")
	if UserMessage(plain) != "something broke" {
		t.Errorf("Plain errors pass through: %s", UserMessage(plain))
	}
}

func TestValidateDocumentName(t *testing.T) {
	if err := ValidateDocumentName("My Pipeline"); err != nil {
		t.Errorf("Normal name should pass: %v", err)
	}
	if err := ValidateDocumentName(""); !Is(err, ErrCodeInvalidDocument) {
		t.Errorf("Empty name should fail: %v", err)
	}
	if err := ValidateDocumentName(strings.Repeat("x", 201)); err == nil {
		t.Error("Over-long name should fail")
	}
	if err := ValidateDocumentName("bad\x00name"); err == nil {
		t.Error("Control characters should fail")
	}
}

func TestValidateElementID(t *testing.T) {
	if err := ValidateElementID("node-12"); err != nil {
		t.Errorf("Normal id should pass: %v", err)
	}
	if err := ValidateElementID(""); err == nil {
		t.Error("Empty id should fail")
	}
	// Path separators are rejected because ids become file names
	for _, id := range []string{"../escape", `a\b`, "a/b"} {
		if err := ValidateElementID(id); err == nil {
			t.Errorf("Path separator should fail: %s", id)
		}
	}
	if err := ValidateElementID("has space"); err == nil {
		t.Error("Whitespace should fail")
	}
}

func TestValidateSnapshotName(t *testing.T) {
	if err := ValidateSnapshotName("before refactor"); err != nil {
		t.Errorf("Normal name should pass: %v", err)
	}
	if err := ValidateSnapshotName(""); err == nil {
		t.Error("Empty name should fail")
	}
	if err := ValidateSnapshotName(strings.Repeat("x", 101)); err == nil {
		t.Error("Over-long name should fail")
	}
}
