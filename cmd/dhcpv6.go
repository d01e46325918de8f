package cmd

import (
	"github.com/insomniacslk/dhcp/dhcpv6"
	"github.com/spf13/cobra"

	"github.com/leshow/dhcpm/generator"
)

func init() {
	inforeq := &cobra.Command{
		Use:   "inforeq TARGET",
		Short: "Send a dhcpv6 INFORMATION-REQUEST msg.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chaddr, err := chaddrFlag(cmd)
			if err != nil {
				return err
			}
			params, err := paramsV6Flag(cmd)
			if err != nil {
				return err
			}
			return runExchange(cmd, args[0], &generator.InfoReqSpec{
				Chaddr: chaddr,
				Params: params,
			})
		},
	}
	inforeq.Flags().StringP("chaddr", "c", "", "client mac address, or \"random\" [default: first interface mac]")
	inforeq.Flags().String("params", "", "option request codes [default: 23,24,39,59 (dns, domain search, fqdn, bootfile url)]")
	rootCmd.AddCommand(inforeq)
}

func paramsV6Flag(cmd *cobra.Command) ([]dhcpv6.OptionCode, error) {
	s, err := cmd.Flags().GetString("params")
	if err != nil {
		return nil, err
	}
	if s == "" {
		return generator.DefaultParamsV6(), nil
	}
	return generator.ParseParamsV6(s)
}
