// Command scanner is the gate operator console. It logs in with the gate
// password and reads scans (one per line) from a keyboard-wedge scanner or
// the keyboard.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func newRootCmd() *cobra.Command {
	_ = godotenv.Load()

	var (
		server    string
		device    string
		adminName string
		adminPin  string
		timeout   time.Duration
	)
	cmd := &cobra.Command{
		Use:          "scanner",
		Short:        "Gate operator console",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			in := bufio.NewReader(cmd.InOrStdin())
			out := cmd.OutOrStdout()

			password := os.Getenv("GATE_PASSWORD")
			if password == "" {
				fmt.Fprint(out, "Gate password: ")
				line, err := in.ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimSpace(line)
			}

			api := NewAPI(strings.TrimRight(server, "/"), timeout)
			api.SetAdminPin(adminPin)
			loginCtx, cancel := context.WithTimeout(ctx, timeout)
			session, err := api.Login(loginCtx, password, device)
			cancel()
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			fmt.Fprintf(out, "YATRA // %s // %s\n", session.GateDisplay, session.Device)

			return NewConsole(api, out, session.GateDisplay, adminName).Run(ctx, in)
		},
	}
	f := cmd.Flags()
	f.StringVar(&server, "server", envOr("SCANNER_API_URL", "http://localhost:8080"), "check-in server base URL")
	f.StringVar(&device, "device", os.Getenv("SCANNER_DEVICE"), "device label (defaults to the server's SCANNER_DEVICE)")
	f.StringVar(&adminName, "admin-name", os.Getenv("ADMIN_NAME"), "name recorded on admin overrides")
	f.StringVar(&adminPin, "admin-pin", os.Getenv("ADMIN_PIN"), "admin override PIN")
	f.DurationVar(&timeout, "timeout", 10*time.Second, "request timeout")
	return cmd
}
