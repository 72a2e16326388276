package main

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/yatra-gate/backend/config"
	"github.com/yatra-gate/backend/internal/models"
	"github.com/yatra-gate/backend/internal/scan"
	"github.com/yatra-gate/backend/internal/tickets"
	"github.com/yatra-gate/backend/pkg/utils"
)

const debugDevice = "DEBUGGER"

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print a ticket's status and usage markers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			code := codeFlag(cmd)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Checking ticket %s...\n", code)
			t, err := tickets.NewRepository(pool).GetByCode(ctx, code)
			if errors.Is(err, tickets.ErrNotFound) {
				fmt.Fprintln(out, "Ticket not found.")
				return nil
			}
			if err != nil {
				return fmt.Errorf("fetch ticket: %w", err)
			}
			printStatus(out, t)
			return nil
		},
	}
}

func printStatus(w io.Writer, t *models.Ticket) {
	fmt.Fprintln(w, "Ticket Status:")
	fmt.Fprintf(w, "- ID: %s\n", t.ID)
	fmt.Fprintf(w, "- Status: %s\n", t.Status)
	fmt.Fprintf(w, "- Last Used: %s\n", stamp(t.LastUsedAt))
	fmt.Fprintf(w, "- Day 1 Used: %s\n", stamp(t.UsageDay1))
	fmt.Fprintf(w, "- Day 2 Used: %s\n", stamp(t.UsageDay2))
	fmt.Fprintf(w, "- Event Used: %s\n", stamp(t.UsageEvent))
}

func stamp(t *time.Time) string {
	if t == nil {
		return "null"
	}
	return t.Format(time.RFC3339)
}

// printToken shows the stored token with its length and raw bytes so stray
// whitespace or invisible characters are obvious.
func printToken(w io.Writer, token string) {
	fmt.Fprintf(w, "- QR Token: '%s'\n", token)
	if token == "" {
		return
	}
	fmt.Fprintf(w, "- QR Token Length: %d\n", len(token))
	fmt.Fprintf(w, "- QR Token Bytes: %s\n", hex.EncodeToString([]byte(token)))
}

func newDebugCmd() *cobra.Command {
	var fn string
	cmd := &cobra.Command{
		Use:   "debug",
		Short: "Dump a ticket and run the validator with its code and token",
		Long: "Runs validate_scan at gate CONFERENCE as device DEBUGGER with the code, " +
			"the stored qr_token, and the trimmed qr_token when it differs. " +
			"Successful runs mark usage like a real scan.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			code := codeFlag(cmd)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "\n--- Debugging Ticket: %s ---\n", code)
			t, err := tickets.NewRepository(pool).GetByCode(ctx, code)
			if errors.Is(err, tickets.ErrNotFound) {
				fmt.Fprintln(out, "No ticket found with this code!")
				return nil
			}
			if err != nil {
				return fmt.Errorf("fetch ticket: %w", err)
			}
			fmt.Fprintln(out, "Ticket Data Found:")
			fmt.Fprintf(out, "- ID: %s\n", t.ID)
			fmt.Fprintf(out, "- Code: %s\n", t.Code)
			printToken(out, t.QRToken)
			fmt.Fprintf(out, "- Last Used: %s\n", stamp(t.LastUsedAt))
			fmt.Fprintf(out, "- Status: %s\n", t.Status)

			v := scan.NewPostgresValidatorFunc(pool, fn)
			run := func(label, token string) {
				fmt.Fprintf(out, "\nTesting %s with %s...\n", fn, label)
				raw, err := v.ValidateScan(ctx, token, config.GateConference, debugDevice)
				if err != nil {
					fmt.Fprintf(out, "Result (using %s): error: %v\n", label, err)
					return
				}
				fmt.Fprintf(out, "Result (using %s): %s\n", label, raw)
				if outcome, err := scan.Decode(raw); err == nil {
					b, _ := json.Marshal(scan.ViewOf(outcome))
					fmt.Fprintf(out, "Decoded: %s\n", b)
				}
			}

			run("code", code)
			if t.QRToken == "" {
				fmt.Fprintln(out, "\nTicket has NO qr_token.")
				return nil
			}
			run(fmt.Sprintf("qr_token ('%s')", t.QRToken), t.QRToken)
			if trimmed := strings.TrimSpace(t.QRToken); trimmed != t.QRToken {
				run(fmt.Sprintf("trimmed qr_token ('%s')", trimmed), trimmed)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&fn, "func", "validate_scan", "validator procedure name")
	return cmd
}

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear every usage marker and reactivate a ticket",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			code := codeFlag(cmd)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Resetting usage for ticket %s...\n", code)
			repo := tickets.NewRepository(pool)
			if err := repo.ResetUsage(ctx, code); err != nil {
				if errors.Is(err, tickets.ErrNotFound) {
					fmt.Fprintln(out, "Ticket not found.")
					return nil
				}
				return fmt.Errorf("reset ticket: %w", err)
			}
			t, err := repo.GetByCode(ctx, code)
			if err != nil {
				return fmt.Errorf("reload ticket: %w", err)
			}
			fmt.Fprintln(out, "Ticket reset successfully.")
			printStatus(out, t)
			return nil
		},
	}
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Report which ticket column naming the database uses",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			cols, err := tickets.NewRepository(pool).Columns(ctx)
			if err != nil {
				return fmt.Errorf("list columns: %w", err)
			}
			report := models.ReconcileTicketColumns(cols)
			b, _ := json.MarshalIndent(report, "", "  ")
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, string(b))
			switch {
			case report.Canonical():
				fmt.Fprintln(out, "OK")
			case report.Consistent():
				fmt.Fprintln(out, "Legacy naming: the server reads code_6_digit and status.")
			default:
				fmt.Fprintln(out, "Inconsistent ticket schema.")
			}
			return nil
		},
	}
}

func newHashSecretCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-secret <secret>",
		Short: "Print a bcrypt hash usable as GATE_PASSWORD or ADMIN_PIN",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := utils.HashSecret(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}
}
