package commands

import (
	"github.com/spf13/cobra"

	"github.com/dotcommander/doccache/internal/codec"
	"github.com/dotcommander/doccache/internal/output"
)

// NewKeyCmd creates the key command group.
func NewKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Encryption key utilities",
	}
	cmd.AddCommand(newKeyGenerateCmd())
	return cmd
}

func newKeyGenerateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Print a new random AES-256 key for DOCCACHE_KEY or key_file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := codec.GenerateKey()
			if err != nil {
				return cmdErr(err)
			}
			type resp struct {
				Key string `json:"key"`
			}
			return output.PrintSuccess(resp{Key: key})
		},
	}
}
