// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SecKatie/lola/internal/install"
)

var (
	// uninstallAssistant narrows removal to one assistant
	uninstallAssistant string

	// uninstallProject narrows removal to one project directory
	uninstallProject string
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall <module>",
	Short: "Remove a module's installed artifacts",
	Long: `Remove the artifacts a module installed for an assistant.

Only the files recorded at install time are removed; the module itself
stays in the registry. Without flags, every recorded installation of the
module is removed.

Examples:
  lola uninstall my-skills
  lola uninstall my-skills -a gemini-cli`,
	Args: cobra.ExactArgs(1),
	RunE: runUninstall,
}

func init() {
	uninstallCmd.Flags().StringVarP(&uninstallAssistant, "assistant", "a", "", "only uninstall from this assistant")
	uninstallCmd.Flags().StringVarP(&uninstallProject, "project", "p", "", "only uninstall from this project directory")
}

func runUninstall(cmd *cobra.Command, args []string) error {
	moduleName := args[0]

	ledger, err := openLedger()
	if err != nil {
		return err
	}

	removed, err := install.Uninstall(moduleName, ledger, install.Options{
		Assistant:   uninstallAssistant,
		ProjectPath: uninstallProject,
		Report:      printEvent,
	})
	if err != nil {
		return err
	}
	if len(removed) == 0 {
		fmt.Println(WarningStyle.Render(fmt.Sprintf("No installations of '%s' found", moduleName)))
		return nil
	}

	fmt.Println(SuccessStyle.Render(fmt.Sprintf(
		"Uninstalled '%s' from %d location(s)", moduleName, len(removed))))
	return nil
}
