package commands

import (
	"fmt"

	"github.com/flashbots/disco-relay/cmd/common"
	"github.com/flashbots/disco-relay/crypto"
	"github.com/spf13/cobra"
)

func keygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate a new identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, priv, err := crypto.GenerateKeyPair()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "secret: %s\n", common.EncodeSigningKey(priv))
			fmt.Fprintf(out, "id:     %s\n", pub.Z32())
			return nil
		},
	}
}
