package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/netmimic/netmimic/pkg/agent"
	"github.com/netmimic/netmimic/pkg/util"
)

var (
	stubHost      string
	httpPort      int
	httpsPort     int
	sshPort       int
	telnetPort    int
	stubProtocols []string
)

var stubCmd = &cobra.Command{
	Use:   "stub <stub-id> <manager-endpoint>",
	Short: "Run the stub front-ends",
	Long: `Run the device-facing transports for one stub. Each front-end
forwards what it receives to the manager endpoint, e.g.
http://127.0.0.1:10080, and relays the handler's reply.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := agent.NewClient(args[1], args[0])

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, len(stubProtocols))
		var shutdowns []func()

		for _, protocol := range stubProtocols {
			switch protocol {
			case "ssh":
				server, err := agent.NewSSHServer(fmt.Sprintf("%s:%d", stubHost, sshPort), client)
				if err != nil {
					return err
				}
				go func() { errCh <- server.Start(ctx) }()
				shutdowns = append(shutdowns, func() { server.Shutdown() })

			case "telnet":
				server := agent.NewTelnetServer(fmt.Sprintf("%s:%d", stubHost, telnetPort), client)
				go func() { errCh <- server.Start(ctx) }()
				shutdowns = append(shutdowns, func() { server.Shutdown() })

			case "http", "https":
				secure := protocol == "https"
				port := httpPort
				if secure {
					port = httpsPort
				}
				server := agent.NewHTTPServer(fmt.Sprintf("%s:%d", stubHost, port), client, secure)
				go func() { errCh <- server.Start() }()
				shutdowns = append(shutdowns, func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
					defer cancel()
					server.Shutdown(shutdownCtx)
				})

			default:
				return fmt.Errorf("invalid protocol '%s'", protocol)
			}
		}

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		util.Info("shutting down")
		for _, shutdown := range shutdowns {
			shutdown()
		}
		return nil
	},
}

func init() {
	stubCmd.Flags().StringVar(&stubHost, "host", "0.0.0.0", "Host to listen on")
	stubCmd.Flags().IntVar(&httpPort, "http-port", 20080, "HTTP port")
	stubCmd.Flags().IntVar(&httpsPort, "https-port", 20443, "HTTPS port")
	stubCmd.Flags().IntVar(&sshPort, "ssh-port", 20022, "SSH and NETCONF port")
	stubCmd.Flags().IntVar(&telnetPort, "telnet-port", 20023, "TELNET port")
	stubCmd.Flags().StringSliceVar(&stubProtocols, "protocol", []string{"ssh", "telnet", "http", "https"},
		"Protocols to serve")
}
