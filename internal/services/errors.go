// Package services holds the error taxonomy and context helpers
// shared by the external-process boundaries (ripper, transcoder, catalog,
// notifier) and the pipeline workers that call them.
package services

import (
	"errors"
	"fmt"
)

// Sentinel errors for the kinds distinguished in the error handling design.
// Workers classify failures against these with errors.Is; the job store's
// own ErrNotFound / ErrInvalidTransition cover the store-level kinds.
var (
	ErrDiscRead           = errors.New("disc read error")
	ErrRip                = errors.New("rip error")
	ErrEncode             = errors.New("encode error")
	ErrIdentificationUnknown = errors.New("identification unknown")
	ErrMove               = errors.New("move error")
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	ErrNotifierUnavailable = errors.New("notifier unavailable")
)

// DiscReadError reports that the ripper could not read the disc at all.
type DiscReadError struct {
	DriveID string
	Details string
	Cause   error
}

func (e *DiscReadError) Error() string {
	return fmt.Sprintf("disc read error on drive %s: %s", e.DriveID, e.Details)
}

func (e *DiscReadError) Unwrap() error { return errors.Join(ErrDiscRead, e.Cause) }

func (e *DiscReadError) ErrorKind() string { return "disc_read" }

// RipError reports that the ripper exited non-zero or produced no artifact.
type RipError struct {
	DriveID    string
	TitleIndex int
	Details    string
	Cause      error
}

func (e *RipError) Error() string {
	return fmt.Sprintf("rip error on drive %s title %d: %s", e.DriveID, e.TitleIndex, e.Details)
}

func (e *RipError) Unwrap() error { return errors.Join(ErrRip, e.Cause) }

func (e *RipError) ErrorKind() string { return "rip" }

// EncodeError reports that the transcoder exited non-zero.
type EncodeError struct {
	Details string
	Cause   error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode error: %s", e.Details)
}

func (e *EncodeError) Unwrap() error { return errors.Join(ErrEncode, e.Cause) }

func (e *EncodeError) ErrorKind() string { return "encode" }

// MoveError reports that the mover's destination move failed outright (as
// opposed to the destination root simply being absent, which is not an
// error: the mover leaves the job in MOVING and retries).
type MoveError struct {
	Details string
	Cause   error
}

func (e *MoveError) Error() string {
	return fmt.Sprintf("move error: %s", e.Details)
}

func (e *MoveError) Unwrap() error { return errors.Join(ErrMove, e.Cause) }

func (e *MoveError) ErrorKind() string { return "move" }

// CatalogUnavailableError reports a network or credential failure talking to
// the catalog. The identifier degrades to an unknown identification routed
// to review rather than failing the job.
type CatalogUnavailableError struct {
	Details string
	Cause   error
}

func (e *CatalogUnavailableError) Error() string {
	return fmt.Sprintf("catalog unavailable: %s", e.Details)
}

func (e *CatalogUnavailableError) Unwrap() error { return errors.Join(ErrCatalogUnavailable, e.Cause) }

func (e *CatalogUnavailableError) ErrorKind() string { return "catalog_unavailable" }

// NotifierUnavailableError reports that a notification could not be sent.
// Callers log it at warning severity and drop it; it never fails a job.
type NotifierUnavailableError struct {
	Details string
	Cause   error
}

func (e *NotifierUnavailableError) Error() string {
	return fmt.Sprintf("notifier unavailable: %s", e.Details)
}

func (e *NotifierUnavailableError) Unwrap() error {
	return errors.Join(ErrNotifierUnavailable, e.Cause)
}

func (e *NotifierUnavailableError) ErrorKind() string { return "notifier_unavailable" }
