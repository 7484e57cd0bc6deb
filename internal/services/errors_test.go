package services_test

import (
	"errors"
	"testing"

	"discpipe/internal/services"
)

func TestDiscReadErrorClassification(t *testing.T) {
	cause := errors.New("tray jammed")
	err := &services.DiscReadError{DriveID: "1", Details: "no disc detected", Cause: cause}

	if !errors.Is(err, services.ErrDiscRead) {
		t.Fatal("expected errors.Is to match ErrDiscRead")
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected errors.Is to match the wrapped cause")
	}
	if err.ErrorKind() != "disc_read" {
		t.Fatalf("unexpected kind %q", err.ErrorKind())
	}
}

func TestRipErrorClassification(t *testing.T) {
	err := &services.RipError{DriveID: "2", TitleIndex: 3, Details: "makemkvcon exited 1"}
	if !errors.Is(err, services.ErrRip) {
		t.Fatal("expected errors.Is to match ErrRip")
	}
	if err.ErrorKind() != "rip" {
		t.Fatalf("unexpected kind %q", err.ErrorKind())
	}
}

func TestEncodeErrorClassification(t *testing.T) {
	err := &services.EncodeError{Details: "HandBrakeCLI exited 1"}
	if !errors.Is(err, services.ErrEncode) {
		t.Fatal("expected errors.Is to match ErrEncode")
	}
	if err.ErrorKind() != "encode" {
		t.Fatalf("unexpected kind %q", err.ErrorKind())
	}
}

func TestMoveErrorClassification(t *testing.T) {
	err := &services.MoveError{Details: "rename failed"}
	if !errors.Is(err, services.ErrMove) {
		t.Fatal("expected errors.Is to match ErrMove")
	}
	if err.ErrorKind() != "move" {
		t.Fatalf("unexpected kind %q", err.ErrorKind())
	}
}

func TestCatalogUnavailableErrorClassification(t *testing.T) {
	err := &services.CatalogUnavailableError{Details: "timeout"}
	if !errors.Is(err, services.ErrCatalogUnavailable) {
		t.Fatal("expected errors.Is to match ErrCatalogUnavailable")
	}
	if err.ErrorKind() != "catalog_unavailable" {
		t.Fatalf("unexpected kind %q", err.ErrorKind())
	}
}

func TestNotifierUnavailableErrorClassification(t *testing.T) {
	err := &services.NotifierUnavailableError{Details: "missing app token"}
	if !errors.Is(err, services.ErrNotifierUnavailable) {
		t.Fatal("expected errors.Is to match ErrNotifierUnavailable")
	}
	if err.ErrorKind() != "notifier_unavailable" {
		t.Fatalf("unexpected kind %q", err.ErrorKind())
	}
}
