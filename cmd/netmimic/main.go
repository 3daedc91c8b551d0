// Netmimic - network device simulator
//
// A manager process owns the stub state and answers protocol events over
// REST; stub processes terminate the device-facing transports (SSH,
// NETCONF, TELNET, HTTP/HTTPS) and forward everything to the manager.
//
//	netmimic init <project-dir>                 scaffold a project
//	netmimic build <project-dir> <yang-name>    build a yang tree
//	netmimic manager <project-dir>              run the manager
//	netmimic stub <stub-id> <manager-endpoint>  run the stub front-ends
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/netmimic/netmimic/pkg/util"
)

var (
	logLevel string
	logJSON  bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:               "netmimic",
	Short:             "Network device simulator",
	SilenceUsage:      true,
	SilenceErrors:     true,
	CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
	Long: `Netmimic simulates network devices over SSH, NETCONF, TELNET, HTTP,
HTTPS, and SNMP. A manager process owns stub state and behavior; stub
processes serve the device-facing transports and forward protocol
events to the manager.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := util.SetLogLevel(logLevel); err != nil {
			return err
		}
		// Piped output gets machine-readable logs.
		if logJSON || !term.IsTerminal(int(os.Stderr.Fd())) {
			util.SetJSONFormat()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Force JSON log output")

	rootCmd.AddCommand(initCmd, buildCmd, managerCmd, stubCmd, versionCmd)
}
