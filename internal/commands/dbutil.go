package commands

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/dotcommander/doccache/internal/app"
	"github.com/dotcommander/doccache/internal/manager"
	"github.com/dotcommander/doccache/internal/models"
	"github.com/dotcommander/doccache/internal/output"
)

type printedError struct {
	err error
}

func (e printedError) Error() string {
	// The JSON error response is the output; hide the original here.
	return "error already printed"
}

func (e printedError) Unwrap() error { return e.err }

// withStore resolves configuration, opens the configured store and runs fn.
func withStore(ctx context.Context, fn func(h *manager.Handle, cfg app.Config) error) error {
	cfg, err := app.Resolve()
	if err != nil {
		return cmdErr(err)
	}

	h, err := manager.Open(ctx, cfg, log.Logger)
	if err != nil {
		return cmdErr(err)
	}
	defer func() {
		if cerr := h.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("close store")
		}
	}()

	if err := fn(h, cfg); err != nil {
		return cmdErr(err)
	}
	return nil
}

// cmdErr prints err as a JSON error response and logs it.
func cmdErr(err error) error {
	if err == nil {
		return nil
	}
	_ = output.PrintError(err)

	ev := log.Error().Err(err)
	var re models.RecoverableError
	if errors.As(err, &re) {
		ev = ev.Str("error_code", re.ErrorCode())
		for k, v := range re.Context() {
			ev = ev.Str(k, v)
		}
	}
	ev.Msg("command error")
	return printedError{err: err}
}
