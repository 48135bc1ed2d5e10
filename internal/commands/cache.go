package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dotcommander/doccache/internal/app"
	"github.com/dotcommander/doccache/internal/manager"
	"github.com/dotcommander/doccache/internal/output"
	"github.com/dotcommander/doccache/internal/store"
)

const defaultPutMinutes = 60

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// requireKey rejects an empty key. Argument counts are enforced by cobra.
func requireKey(key string) error {
	if key == "" {
		return errors.New("KEY must not be empty")
	}
	return nil
}

// parseValue returns raw as a string, or decoded JSON when asJSON is set.
func parseValue(raw string, asJSON bool) (any, error) {
	if !asJSON {
		return raw, nil
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("--json value: %w", err)
	}
	return v, nil
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Read a cached value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireKey(args[0]); err != nil {
				return cmdErr(err)
			}
			key := args[0]
			return withStore(cmdContext(cmd), func(h *manager.Handle, _ app.Config) error {
				v, found, err := store.NewTyped[any](h.Store).Get(cmdContext(cmd), key)
				if err != nil {
					return err
				}
				type resp struct {
					Key   string `json:"key"`
					Found bool   `json:"found"`
					Value any    `json:"value"`
				}
				return output.PrintSuccess(resp{Key: key, Found: found, Value: v})
			})
		},
	}
}

type writeResp struct {
	Key     string `json:"key"`
	Minutes int    `json:"minutes"`
}

func newPutCmd() *cobra.Command {
	var (
		minutes int
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "put KEY VALUE",
		Short: "Store a value for a number of minutes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireKey(args[0]); err != nil {
				return cmdErr(err)
			}
			value, err := parseValue(args[1], asJSON)
			if err != nil {
				return cmdErr(err)
			}
			return withStore(cmdContext(cmd), func(h *manager.Handle, _ app.Config) error {
				if err := h.Store.Put(cmdContext(cmd), args[0], value, minutes); err != nil {
					return err
				}
				return output.PrintSuccess(writeResp{Key: args[0], Minutes: minutes})
			})
		},
	}

	cmd.Flags().IntVar(&minutes, "minutes", defaultPutMinutes, "Minutes until the value expires")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Parse VALUE as JSON instead of storing it as a string")
	return cmd
}

func newForeverCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "forever KEY VALUE",
		Short: "Store a value with a ten-year lifetime",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireKey(args[0]); err != nil {
				return cmdErr(err)
			}
			value, err := parseValue(args[1], asJSON)
			if err != nil {
				return cmdErr(err)
			}
			return withStore(cmdContext(cmd), func(h *manager.Handle, _ app.Config) error {
				if err := h.Store.Forever(cmdContext(cmd), args[0], value); err != nil {
					return err
				}
				return output.PrintSuccess(writeResp{Key: args[0], Minutes: store.ForeverMinutes})
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Parse VALUE as JSON instead of storing it as a string")
	return cmd
}

func newForgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forget KEY",
		Short: "Remove a cached value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireKey(args[0]); err != nil {
				return cmdErr(err)
			}
			return withStore(cmdContext(cmd), func(h *manager.Handle, _ app.Config) error {
				if err := h.Store.Forget(cmdContext(cmd), args[0]); err != nil {
					return err
				}
				type resp struct {
					Key string `json:"key"`
				}
				return output.PrintSuccess(resp{Key: args[0]})
			})
		},
	}
}

func newFlushCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "flush",
		Short: "Remove every record in the collection, regardless of prefix",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return cmdErr(errors.New("flush removes every record in the collection; pass --force to confirm"))
			}
			return withStore(cmdContext(cmd), func(h *manager.Handle, cfg app.Config) error {
				if err := h.Store.Flush(cmdContext(cmd)); err != nil {
					return err
				}
				type resp struct {
					Collection string `json:"collection"`
				}
				return output.PrintSuccess(resp{Collection: cfg.Collection})
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Confirm removal of every record (required)")
	return cmd
}

func newIncrementCmd() *cobra.Command {
	return newCounterCmd("increment", "Increment a numeric value (not supported)", func(ctx context.Context, c store.Cache, key string, by int64) (int64, error) {
		return c.Increment(ctx, key, by)
	})
}

func newDecrementCmd() *cobra.Command {
	return newCounterCmd("decrement", "Decrement a numeric value (not supported)", func(ctx context.Context, c store.Cache, key string, by int64) (int64, error) {
		return c.Decrement(ctx, key, by)
	})
}

func newCounterCmd(name, short string, op func(ctx context.Context, c store.Cache, key string, by int64) (int64, error)) *cobra.Command {
	var by int64

	cmd := &cobra.Command{
		Use:   name + " KEY",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireKey(args[0]); err != nil {
				return cmdErr(err)
			}
			return withStore(cmdContext(cmd), func(h *manager.Handle, _ app.Config) error {
				n, err := op(cmdContext(cmd), h.Store, args[0], by)
				if err != nil {
					return err
				}
				type resp struct {
					Key   string `json:"key"`
					Value int64  `json:"value"`
				}
				return output.PrintSuccess(resp{Key: args[0], Value: n})
			})
		},
	}

	cmd.Flags().Int64Var(&by, "by", 1, "Amount to add or subtract")
	return cmd
}
