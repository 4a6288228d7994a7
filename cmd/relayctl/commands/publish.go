package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/flashbots/disco-relay/cmd/common"
	"github.com/flashbots/disco-relay/record"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// publish --key <hex> --txt k=v...: sign TXT values and upload them.
func publishCmd(v *viper.Viper) *cobra.Command {
	var (
		txt   []string
		label string
		ttl   uint32
	)

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Sign and publish TXT records for an identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := v.GetString(keySecret)
			if secret == "" {
				return errors.New("signing key required (--key or RELAYCTL_KEY)")
			}
			if len(txt) == 0 {
				return errors.New("at least one --txt value is required")
			}

			priv, err := common.LoadOrGenerateSigningKey(secret)
			if err != nil {
				return err
			}
			pub, err := priv.PublicKey()
			if err != nil {
				return err
			}

			rec, err := record.New(priv, time.Now(), record.NewTXTMessage(pub, label, ttl, txt...))
			if err != nil {
				return fmt.Errorf("building record: %w", err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), v.GetDuration(keyTimeout))
			defer cancel()
			if err := newClient(v).Publish(ctx, rec); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "published %s (%d bytes)\n", pub.Z32(), len(rec.Bytes()))
			return nil
		},
	}

	cmd.Flags().String("key", "", "hex-encoded Ed25519 seed")
	_ = v.BindPFlag(keySecret, cmd.Flags().Lookup("key"))
	cmd.Flags().StringArrayVar(&txt, "txt", nil, "TXT value to publish, repeatable")
	cmd.Flags().StringVar(&label, "label", record.DefaultLabel, "record name relative to the identity")
	cmd.Flags().Uint32Var(&ttl, "dns-ttl", record.DefaultTTL, "DNS TTL of the published records, in seconds")
	return cmd
}
