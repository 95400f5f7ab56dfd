// Package services holds the use cases behind the HTTP API. Every state
// change runs inside one database transaction together with the rows it
// causes (payments, notifications, queued emails); emails and websocket
// pushes go out only after commit.
package services

import (
	"context"
	"errors"
	"strings"

	"github.com/yigit/scholarhub/internal/pkg/apperrors"
	"github.com/yigit/scholarhub/internal/pkg/helpers"
)

// Page is a normalized 1-based page request.
type Page struct {
	Number int
	Size   int
}

// NewPage clamps raw query values to sane defaults.
func NewPage(page, size int) Page {
	p, s := helpers.NormalizePage(page, size)
	return Page{Number: p, Size: s}
}

// hideAs returns notFound for any not-found error so callers cannot tell
// which row was missing.
func hideAs(err, notFound error) error {
	if errors.Is(err, apperrors.ErrResourceNotFound) {
		return notFound
	}
	return err
}

func trimmedOrNil(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// background detaches post-commit work from the request's cancellation.
func background(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
