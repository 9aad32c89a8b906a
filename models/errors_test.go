package models

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestCodeOf_UnwrapsThroughChain(t *testing.T) {
	inner := NewLoadError(ErrCodeNavTimeout, "navigation timed out", context.DeadlineExceeded)
	wrapped := fmt.Errorf("attempt 2: %w", inner)

	if got := CodeOf(wrapped); got != ErrCodeNavTimeout {
		t.Errorf("CodeOf = %q, want %q", got, ErrCodeNavTimeout)
	}
	if got := CodeOf(errors.New("plain")); got != ErrCodeInternal {
		t.Errorf("plain errors should map to INTERNAL_ERROR, got %q", got)
	}
}

func TestIsTransient(t *testing.T) {
	transient := []error{
		NewLoadError(ErrCodePoolExhausted, "no slot", nil),
		NewLoadError(ErrCodeBrowserGone, "spawn failed", nil),
		NewLoadError(ErrCodeConnection, "channel lost", nil),
		errors.New("websocket: close 1006 (abnormal closure)"),
	}
	for _, err := range transient {
		if !IsTransient(err) {
			t.Errorf("IsTransient(%v) = false, want true", err)
		}
	}

	terminal := []error{
		nil,
		NewLoadError(ErrCodeNavFailed, "dns error", nil),
		NewLoadError(ErrCodeSelectorNotFound, "no match", nil),
		NewLoadError(ErrCodeBlockedTarget, "denied", nil),
	}
	for _, err := range terminal {
		if IsTransient(err) {
			t.Errorf("IsTransient(%v) = true, want false", err)
		}
	}
}

func TestIsConnectionError_Markers(t *testing.T) {
	positives := []error{
		errors.New("read tcp: use of closed network connection"),
		errors.New("websocket: bad handshake"),
		errors.New("write: broken pipe"),
		errors.New("unexpected EOF"),
		errors.New("Target closed"),
	}
	for _, err := range positives {
		if !IsConnectionError(err) {
			t.Errorf("IsConnectionError(%v) = false, want true", err)
		}
	}
	if IsConnectionError(errors.New("element not found")) {
		t.Error("content errors must not look like connection errors")
	}
}

func TestCategorizeNavError(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{context.DeadlineExceeded, ErrCodeNavTimeout},
		{context.Canceled, ErrCodeNavTimeout},
		{errors.New("websocket: close sent"), ErrCodeConnection},
		{errors.New("net::ERR_NAME_NOT_RESOLVED"), ErrCodeNavFailed},
	}
	for _, tc := range cases {
		got := CategorizeNavError(tc.err, "navigation failed")
		if got.Code != tc.want {
			t.Errorf("CategorizeNavError(%v).Code = %q, want %q", tc.err, got.Code, tc.want)
		}
	}
}

func TestLoadError_ErrorString(t *testing.T) {
	e := NewLoadError(ErrCodeNavFailed, "navigation failed", errors.New("boom"))
	want := "NAVIGATION_FAILED: navigation failed: boom"
	if e.Error() != want {
		t.Errorf("Error() = %q, want %q", e.Error(), want)
	}

	bare := NewLoadError(ErrCodeInvalidInput, "bad url", nil)
	if bare.Error() != "INVALID_INPUT: bad url" {
		t.Errorf("Error() = %q", bare.Error())
	}
}
