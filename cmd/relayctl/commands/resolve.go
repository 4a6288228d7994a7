package commands

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/flashbots/disco-relay/crypto"
	"github.com/flashbots/disco-relay/record"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// resolve <id>: fetch, verify and print the TXT records of an identity.
func resolveCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <id>",
		Short: "Resolve the records of an identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pk, err := crypto.ParsePublicKey(args[0])
			if err != nil {
				return fmt.Errorf("invalid id %q: %w", args[0], err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), v.GetDuration(keyTimeout))
			defer cancel()
			rec, err := newClient(v).Resolve(ctx, pk)
			if err != nil {
				return err
			}

			msg, err := rec.Message()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "id:        %s\n", pk.Z32())
			fmt.Fprintf(out, "published: %s\n", rec.Time().UTC().Format(time.RFC3339))

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, txt := range record.TXTRecords(pk, msg) {
				fmt.Fprintf(tw, "%s\t%d\t%s\n", txt.Name, txt.TTL, txt.Value)
			}
			return tw.Flush()
		},
	}
}
