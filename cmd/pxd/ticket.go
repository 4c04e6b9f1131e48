package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zulandar/proxydepot/internal/ticket"
)

func newTicketCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ticket",
		Short: "Support ticket commands",
	}

	cmd.AddCommand(newTicketListCmd())
	cmd.AddCommand(newTicketReplyCmd())
	return cmd
}

func newTicketListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List open tickets",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := loadAndConnect(configPath)
			if err != nil {
				return err
			}
			ts, err := ticket.ListOpen(gormDB)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(ts) == 0 {
				fmt.Fprintln(out, "No open tickets")
				return nil
			}
			for _, t := range ts {
				msg := t.Message
				if len(msg) > 60 {
					msg = msg[:57] + "..."
				}
				fmt.Fprintf(out, "#%-5d %s  %-20s %s\n",
					t.ID, t.CreatedAt.Format("2006-01-02 15:04"), t.UserName, msg)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "proxydepot.yaml", "path to config file")
	return cmd
}

func newTicketReplyCmd() *cobra.Command {
	var configPath, adminID string

	cmd := &cobra.Command{
		Use:   "reply <id> <text...>",
		Short: "Answer and close a ticket",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := loadAndConnect(configPath)
			if err != nil {
				return err
			}
			id, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("bad ticket id %q", args[0])
			}
			if adminID == "" && len(cfg.Admins) > 0 {
				adminID = cfg.Admins[0]
			}

			err = ticket.Reply(gormDB, uint(id), adminID, strings.Join(args[1:], " "), "")
			switch {
			case errors.Is(err, ticket.ErrNotFound):
				return fmt.Errorf("ticket #%d not found", id)
			case errors.Is(err, ticket.ErrAlreadyClosed):
				return fmt.Errorf("ticket #%d is already closed", id)
			case err != nil:
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Ticket #%d closed\n", id)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "proxydepot.yaml", "path to config file")
	cmd.Flags().StringVar(&adminID, "admin", "", "admin id to stamp on the reply (defaults to first configured admin)")
	return cmd
}
