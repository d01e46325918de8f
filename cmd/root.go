package cmd

import (
	"sync"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dhcpm",
	Short: "Send dhcpv4/v6 messages and wait for the reply.",
	Long: `dhcpm is a cli tool for constructing dhcpv4/v6 messages, sending them
to a target, and decoding the reply.

ex  dhcpv4:
        dhcpm discover 0.0.0.0 -p 9901       (unicast discover to 0.0.0.0:9901)
        dhcpm discover 255.255.255.255       (broadcast discover to the default port)
        dhcpm dora 192.168.0.1               (unicast DORA to 192.168.0.1)
        dhcpm dora 192.168.0.1 -o 118,ip,192.168.0.1
    dhcpv6:
        dhcpm inforeq ff02::1:2 -i eth0      (multicast information-request)`,
	SilenceUsage: true,
}

var (
	shutdownChannel = make(chan struct{})
	shutdownOnce    sync.Once
)

// Stop broadcasts shutdown; every in-flight exchange observes the close.
func Stop() {
	shutdownOnce.Do(func() {
		close(shutdownChannel)
	})
}

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringP("bind", "b", "", "address to bind to [default: 0.0.0.0:68 (v4) or [::]:547 (v6)]")
	pf.IntP("port", "p", 0, "target port [default: 67 (v4) or 546 (v6)]")
	pf.UintP("timeout", "t", 5, "query timeout in seconds")
	pf.Bool("no-retry", false, "give up after the first timeout instead of retrying")
	pf.StringP("interface", "i", "", "interface for device binding and multicast scope (required for v6 targets)")
	pf.String("output", "pretty", "log output format: pretty, json, or debug")
}
