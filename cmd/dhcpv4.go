package cmd

import (
	"net"

	"github.com/insomniacslk/dhcp/dhcpv4"
	"github.com/spf13/cobra"

	"github.com/leshow/dhcpm/generator"
)

// prepareV4Cmd adds the flags every v4 message variant shares.
func prepareV4Cmd(cmd *cobra.Command) *cobra.Command {
	cmd.Flags().StringP("chaddr", "c", "", "client mac address, or \"random\" [default: first interface mac]")
	cmd.Flags().String("ciaddr", "", "client address (ciaddr) [default: 0.0.0.0]")
	cmd.Flags().StringP("giaddr", "g", "", "gateway address (giaddr) [default: 0.0.0.0]")
	cmd.Flags().String("subnet-select", "", "subnet selection opt 118 [default: none]")
	cmd.Flags().String("relay-link", "", "relay link select opt 82 subopt 5 [default: none]")
	cmd.Flags().StringArrayP("opt", "o", nil, "add opts to the message [\"118,hex,C0A80001\" or \"118,ip,192.168.0.1\"]")
	cmd.Flags().String("params", "", "params to include [default: 1,3,6,15 (subnet, router, dns, domain)]")
	cmd.Args = cobra.ExactArgs(1)
	return cmd
}

// v4Common gathers the flag values shared by the v4 variants.
type v4Common struct {
	chaddr       net.HardwareAddr
	ciaddr       net.IP
	giaddr       net.IP
	relayLink    net.IP
	subnetSelect net.IP
	opts         []dhcpv4.Option
	params       []dhcpv4.OptionCode
}

func v4CommonFlags(cmd *cobra.Command) (v4Common, error) {
	var c v4Common
	var err error

	if c.chaddr, err = chaddrFlag(cmd); err != nil {
		return c, err
	}
	if c.ciaddr, err = ipFlag(cmd, "ciaddr"); err != nil {
		return c, err
	}
	if c.giaddr, err = ipFlag(cmd, "giaddr"); err != nil {
		return c, err
	}
	if c.relayLink, err = ipFlag(cmd, "relay-link"); err != nil {
		return c, err
	}
	if c.subnetSelect, err = ipFlag(cmd, "subnet-select"); err != nil {
		return c, err
	}
	if c.opts, err = optsFlag(cmd); err != nil {
		return c, err
	}
	if c.params, err = paramsFlag(cmd); err != nil {
		return c, err
	}
	return c, nil
}

// runExchange wires up the socket and workers, runs one exchange for
// the spec, and tears everything down.
func runExchange(cmd *cobra.Command, targetArg string, spec generator.Spec) error {
	e, err := newExchange(cmd, targetArg)
	if err != nil {
		return err
	}
	defer e.Close()

	if dora, ok := spec.(*generator.DoraSpec); ok {
		_, err = e.run.RunDora(dora, e.target)
		return err
	}

	_, err = e.run.Run(spec, e.target)
	return err
}

func init() {
	discover := prepareV4Cmd(&cobra.Command{
		Use:   "discover TARGET",
		Short: "Send a DISCOVER msg.",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := v4CommonFlags(cmd)
			if err != nil {
				return err
			}
			reqAddr, err := ipFlag(cmd, "req-addr")
			if err != nil {
				return err
			}
			return runExchange(cmd, args[0], &generator.DiscoverSpec{
				Chaddr:       c.chaddr,
				Ciaddr:       c.ciaddr,
				Giaddr:       c.giaddr,
				ReqAddr:      reqAddr,
				RelayLink:    c.relayLink,
				SubnetSelect: c.subnetSelect,
				Opts:         c.opts,
				Params:       c.params,
			})
		},
	})
	discover.Flags().StringP("req-addr", "r", "", "request a specific ip [default: none]")
	rootCmd.AddCommand(discover)

	request := prepareV4Cmd(&cobra.Command{
		Use:   "request TARGET",
		Short: "Send a REQUEST msg.",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := v4CommonFlags(cmd)
			if err != nil {
				return err
			}
			yiaddr, err := ipFlag(cmd, "yiaddr")
			if err != nil {
				return err
			}
			sident, err := ipFlag(cmd, "sident")
			if err != nil {
				return err
			}
			reqAddr, err := ipFlag(cmd, "req-addr")
			if err != nil {
				return err
			}
			return runExchange(cmd, args[0], &generator.RequestSpec{
				Chaddr:       c.chaddr,
				Ciaddr:       c.ciaddr,
				Yiaddr:       yiaddr,
				Giaddr:       c.giaddr,
				Sident:       sident,
				ReqAddr:      reqAddr,
				RelayLink:    c.relayLink,
				SubnetSelect: c.subnetSelect,
				Opts:         c.opts,
				Params:       c.params,
			})
		},
	})
	request.Flags().StringP("yiaddr", "y", "", "address for client (yiaddr) [default: 0.0.0.0]")
	request.Flags().StringP("sident", "s", "", "server identifier [default: none]")
	request.Flags().StringP("req-addr", "r", "", "requested ip opt 50 [default: none]")
	rootCmd.AddCommand(request)

	release := prepareV4Cmd(&cobra.Command{
		Use:   "release TARGET",
		Short: "Send a RELEASE msg.",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := v4CommonFlags(cmd)
			if err != nil {
				return err
			}
			yiaddr, err := ipFlag(cmd, "yiaddr")
			if err != nil {
				return err
			}
			sident, err := ipFlag(cmd, "sident")
			if err != nil {
				return err
			}
			return runExchange(cmd, args[0], &generator.ReleaseSpec{
				Chaddr:       c.chaddr,
				Ciaddr:       c.ciaddr,
				Yiaddr:       yiaddr,
				Giaddr:       c.giaddr,
				Sident:       sident,
				RelayLink:    c.relayLink,
				SubnetSelect: c.subnetSelect,
				Opts:         c.opts,
				Params:       c.params,
			})
		},
	})
	release.Flags().StringP("yiaddr", "y", "", "address for client (yiaddr) [default: 0.0.0.0]")
	release.Flags().StringP("sident", "s", "", "server identifier [default: none]")
	rootCmd.AddCommand(release)

	inform := prepareV4Cmd(&cobra.Command{
		Use:   "inform TARGET",
		Short: "Send an INFORM msg.",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := v4CommonFlags(cmd)
			if err != nil {
				return err
			}
			yiaddr, err := ipFlag(cmd, "yiaddr")
			if err != nil {
				return err
			}
			sident, err := ipFlag(cmd, "sident")
			if err != nil {
				return err
			}
			return runExchange(cmd, args[0], &generator.InformSpec{
				Chaddr:       c.chaddr,
				Ciaddr:       c.ciaddr,
				Yiaddr:       yiaddr,
				Giaddr:       c.giaddr,
				Sident:       sident,
				RelayLink:    c.relayLink,
				SubnetSelect: c.subnetSelect,
				Opts:         c.opts,
				Params:       c.params,
			})
		},
	})
	inform.Flags().StringP("yiaddr", "y", "", "address for client (yiaddr) [default: 0.0.0.0]")
	inform.Flags().StringP("sident", "s", "", "server identifier [default: none]")
	rootCmd.AddCommand(inform)

	decline := prepareV4Cmd(&cobra.Command{
		Use:   "decline TARGET",
		Short: "Send a DECLINE msg for an address.",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := v4CommonFlags(cmd)
			if err != nil {
				return err
			}
			sident, err := ipFlag(cmd, "sident")
			if err != nil {
				return err
			}
			reqAddr, err := ipFlag(cmd, "req-addr")
			if err != nil {
				return err
			}
			return runExchange(cmd, args[0], &generator.DeclineSpec{
				Chaddr:  c.chaddr,
				Ciaddr:  c.ciaddr,
				Giaddr:  c.giaddr,
				Sident:  sident,
				ReqAddr: reqAddr,
				Opts:    c.opts,
				Params:  c.params,
			})
		},
	})
	decline.Flags().StringP("sident", "s", "", "server identifier [default: none]")
	decline.Flags().StringP("req-addr", "r", "", "the address being declined [default: none]")
	rootCmd.AddCommand(decline)

	bootreq := &cobra.Command{
		Use:   "bootreq TARGET",
		Short: "Send a bare BOOTREQUEST msg.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chaddr, err := chaddrFlag(cmd)
			if err != nil {
				return err
			}
			ciaddr, err := ipFlag(cmd, "ciaddr")
			if err != nil {
				return err
			}
			giaddr, err := ipFlag(cmd, "giaddr")
			if err != nil {
				return err
			}
			fname, err := cmd.Flags().GetString("fname")
			if err != nil {
				return err
			}
			sname, err := cmd.Flags().GetString("sname")
			if err != nil {
				return err
			}
			opts, err := optsFlag(cmd)
			if err != nil {
				return err
			}
			return runExchange(cmd, args[0], &generator.BootReqSpec{
				Chaddr: chaddr,
				Ciaddr: ciaddr,
				Giaddr: giaddr,
				Fname:  fname,
				Sname:  sname,
				Opts:   opts,
			})
		},
	}
	bootreq.Flags().StringP("chaddr", "c", "", "client mac address, or \"random\" [default: first interface mac]")
	bootreq.Flags().String("ciaddr", "", "client address (ciaddr) [default: 0.0.0.0]")
	bootreq.Flags().StringP("giaddr", "g", "", "gateway address (giaddr) [default: 0.0.0.0]")
	bootreq.Flags().String("fname", "", "boot file name [default: none]")
	bootreq.Flags().String("sname", "", "server host name [default: none]")
	bootreq.Flags().StringArrayP("opt", "o", nil, "add opts to the message [\"118,hex,C0A80001\" or \"118,ip,192.168.0.1\"]")
	rootCmd.AddCommand(bootreq)

	dora := prepareV4Cmd(&cobra.Command{
		Use:   "dora TARGET",
		Short: "Send DISCOVER then REQUEST with the offered address.",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := v4CommonFlags(cmd)
			if err != nil {
				return err
			}
			yiaddr, err := ipFlag(cmd, "yiaddr")
			if err != nil {
				return err
			}
			reqAddr, err := ipFlag(cmd, "req-addr")
			if err != nil {
				return err
			}
			return runExchange(cmd, args[0], &generator.DoraSpec{
				Chaddr:       c.chaddr,
				Ciaddr:       c.ciaddr,
				Yiaddr:       yiaddr,
				Giaddr:       c.giaddr,
				ReqAddr:      reqAddr,
				RelayLink:    c.relayLink,
				SubnetSelect: c.subnetSelect,
				Opts:         c.opts,
				Params:       c.params,
			})
		},
	})
	dora.Flags().StringP("yiaddr", "y", "", "address for client (yiaddr) [default: 0.0.0.0]")
	dora.Flags().StringP("req-addr", "r", "", "request a specific ip in the discover [default: none]")
	rootCmd.AddCommand(dora)
}
