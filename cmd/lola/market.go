// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SecKatie/lola/internal/config"
	"github.com/SecKatie/lola/internal/market"
)

// marketCmd represents the market command group
var marketCmd = &cobra.Command{
	Use:   "market",
	Short: "Manage marketplace catalogs",
	Long: `Manage marketplace catalogs: named YAML indexes of installable
modules fetched from a URL. Catalogs are cached locally so listing works
offline.

Examples:
  lola market add official https://example.com/market.yml
  lola market ls
  lola market info official
  lola market refresh official
  lola market rm official`,
}

var marketAddCmd = &cobra.Command{
	Use:   "add <name> <url>",
	Short: "Add a marketplace catalog",
	Args:  cobra.ExactArgs(2),
	RunE:  runMarketAdd,
}

var marketLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List marketplace catalogs",
	RunE:  runMarketLs,
}

var marketInfoCmd = &cobra.Command{
	Use:   "info <name>",
	Short: "Show a marketplace's modules",
	Args:  cobra.ExactArgs(1),
	RunE:  runMarketInfo,
}

var marketRefreshCmd = &cobra.Command{
	Use:   "refresh <name>",
	Short: "Refetch a marketplace's catalog",
	Args:  cobra.ExactArgs(1),
	RunE:  runMarketRefresh,
}

var marketRmCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Remove a marketplace catalog",
	Args:  cobra.ExactArgs(1),
	RunE:  runMarketRm,
}

func init() {
	marketCmd.AddCommand(marketAddCmd)
	marketCmd.AddCommand(marketLsCmd)
	marketCmd.AddCommand(marketInfoCmd)
	marketCmd.AddCommand(marketRefreshCmd)
	marketCmd.AddCommand(marketRmCmd)
}

func openMarketRegistry() (*market.Registry, error) {
	marketDir, err := config.MarketDir()
	if err != nil {
		return nil, err
	}
	cacheDir, err := config.MarketCacheDir()
	if err != nil {
		return nil, err
	}
	return market.NewRegistry(marketDir, cacheDir)
}

func runMarketAdd(cmd *cobra.Command, args []string) error {
	registry, err := openMarketRegistry()
	if err != nil {
		return err
	}

	mp, err := registry.Add(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Println(SuccessStyle.Render(fmt.Sprintf(
		"Added marketplace '%s' with %d module(s)", mp.Name, len(mp.Catalog.Modules))))
	return nil
}

func runMarketLs(cmd *cobra.Command, args []string) error {
	registry, err := openMarketRegistry()
	if err != nil {
		return err
	}

	all, err := registry.List()
	if err != nil {
		return err
	}
	if len(all) == 0 {
		fmt.Println(WarningStyle.Render("No marketplaces configured"))
		fmt.Println()
		fmt.Println("Add one with:")
		fmt.Println("  lola market add <name> <catalog-url>")
		return nil
	}

	fmt.Println(TitleStyle.Render(fmt.Sprintf("Marketplaces (%d):", len(all))))
	fmt.Println()
	for _, mp := range all {
		state := ""
		if !mp.Enabled {
			state = WarningStyle.Render(" (disabled)")
		}
		fmt.Printf("%s%s\n", ItemStyle.Render(mp.Name), state)
		fmt.Printf("  URL: %s\n", mp.URL)
		fmt.Printf("  Modules: %d\n", len(mp.Catalog.Modules))
		fmt.Println()
	}
	return nil
}

func runMarketInfo(cmd *cobra.Command, args []string) error {
	registry, err := openMarketRegistry()
	if err != nil {
		return err
	}

	mp, err := registry.Get(args[0])
	if err != nil {
		return err
	}

	fmt.Println(TitleStyle.Render(mp.Name))
	fmt.Println()
	fmt.Printf("  URL: %s\n", mp.URL)
	if mp.Catalog.Description != "" {
		fmt.Printf("  Description: %s\n", mp.Catalog.Description)
	}
	if mp.Catalog.Version != "" {
		fmt.Printf("  Version: %s\n", mp.Catalog.Version)
	}

	fmt.Println()
	fmt.Println(TitleStyle.Render("Modules:"))
	if len(mp.Catalog.Modules) == 0 {
		fmt.Println("  (none cached; try 'lola market refresh " + mp.Name + "')")
	}
	for _, m := range mp.Catalog.Modules {
		fmt.Printf("  %s (v%s)\n", ItemStyle.Render(m.Name), m.Version)
		if m.Description != "" {
			fmt.Printf("    %s\n", m.Description)
		}
		fmt.Printf("    %s\n", DimStyle.Render(m.Repository))
	}
	return nil
}

func runMarketRefresh(cmd *cobra.Command, args []string) error {
	registry, err := openMarketRegistry()
	if err != nil {
		return err
	}

	mp, err := registry.Refresh(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Println(SuccessStyle.Render(fmt.Sprintf(
		"Refreshed '%s': %d module(s)", mp.Name, len(mp.Catalog.Modules))))
	return nil
}

func runMarketRm(cmd *cobra.Command, args []string) error {
	registry, err := openMarketRegistry()
	if err != nil {
		return err
	}

	if err := registry.Remove(args[0]); err != nil {
		return err
	}
	fmt.Println(SuccessStyle.Render(fmt.Sprintf("Removed marketplace '%s'", args[0])))
	return nil
}
