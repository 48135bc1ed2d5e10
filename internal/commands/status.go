package commands

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/dotcommander/doccache/internal/app"
	"github.com/dotcommander/doccache/internal/manager"
	"github.com/dotcommander/doccache/internal/output"
	"github.com/dotcommander/doccache/internal/store"
)

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the resolved configuration and backing store health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			return withStore(ctx, func(h *manager.Handle, cfg app.Config) error {
				return runStatus(ctx, h, cfg)
			})
		},
	}
}

type schemaInfo struct {
	Current int64 `json:"current"`
	Latest  int64 `json:"latest"`
}

type dbInfo struct {
	Path      string      `json:"path"`
	Source    string      `json:"source"`
	SizeBytes *int64      `json:"size_bytes,omitempty"`
	Schema    *schemaInfo `json:"schema,omitempty"`
	Records   *int64      `json:"records,omitempty"`
}

type statusResp struct {
	Driver       string  `json:"driver"`
	Collection   string  `json:"collection"`
	Prefix       string  `json:"prefix"`
	SettingsFile string  `json:"settings_file,omitempty"`
	KeyLoaded    bool    `json:"key_loaded"`
	Sweepable    bool    `json:"sweepable"`
	DB           *dbInfo `json:"db,omitempty"`
}

func runStatus(ctx context.Context, h *manager.Handle, cfg app.Config) error {
	_, sweepable := h.Store.Collection().(store.ExpiredRemover)
	result := statusResp{
		Driver:       cfg.Driver,
		Collection:   cfg.Collection,
		Prefix:       h.Store.Prefix(),
		SettingsFile: cfg.SettingsFile,
		KeyLoaded:    cfg.Key != "",
		Sweepable:    sweepable,
	}

	if h.DB != nil {
		info := &dbInfo{Path: cfg.DBPath, Source: cfg.DBPathSource}
		if stat, err := os.Stat(cfg.DBPath); err == nil {
			size := stat.Size()
			info.SizeBytes = &size
		}

		current, latest, err := store.SchemaVersion(h.DB)
		if err != nil {
			return err
		}
		info.Schema = &schemaInfo{Current: current, Latest: latest}

		if c, ok := h.Store.Collection().(*store.SQLiteCollection); ok {
			n, err := c.Count(ctx)
			if err != nil {
				return err
			}
			info.Records = &n
		}
		result.DB = info
	}

	return output.PrintSuccess(result)
}
