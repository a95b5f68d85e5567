package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"
)

func newSendCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "send <message...>",
		Short: "Send one message and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := flags.newService(cmd)
			if err != nil {
				return err
			}

			text := strings.Join(args, " ")
			if !svc.Submit(cmd.Context(), text) {
				return errors.New("message cannot be empty")
			}
			printReply(cmd.OutOrStdout(), svc)
			return nil
		},
	}
}
