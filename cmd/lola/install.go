// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SecKatie/lola/internal/config"
	"github.com/SecKatie/lola/internal/install"
	"github.com/SecKatie/lola/internal/target"
	"github.com/SecKatie/lola/pkg/module"
)

var (
	// installAssistant picks which assistant to render for
	installAssistant string

	// installProject is the project directory (default: current directory)
	installProject string
)

var installCmd = &cobra.Command{
	Use:   "install <module>",
	Short: "Install a module's skills for an assistant",
	Long: `Install a registered module for an AI assistant.

The module is copied into the project's .lola/modules/ directory and its
skills, commands, and agents are rendered into the format the assistant
expects. The installation is recorded so it can be cleanly uninstalled.

Examples:
  lola install my-skills -a claude-code
  lola install my-skills -a gemini-cli -p ~/projects/demo`,
	Args: cobra.ExactArgs(1),
	RunE: runInstall,
}

func init() {
	installCmd.Flags().StringVarP(&installAssistant, "assistant", "a", "",
		"target assistant ("+strings.Join(target.Names(), ", ")+")")
	installCmd.Flags().StringVarP(&installProject, "project", "p", "",
		"project directory (default: current directory)")
	installCmd.MarkFlagRequired("assistant")
}

func runInstall(cmd *cobra.Command, args []string) error {
	moduleName := args[0]

	modulesDir, err := config.ModulesDir()
	if err != nil {
		return err
	}
	mod, err := module.Load(filepath.Join(modulesDir, moduleName))
	if err != nil {
		return err
	}
	if mod == nil {
		fmt.Println(ErrorStyle.Render(fmt.Sprintf("Module '%s' not found in registry", moduleName)))
		fmt.Println("Add it first with: lola mod add <source>")
		return fmt.Errorf("module %q not found", moduleName)
	}

	projectPath := installProject
	if projectPath == "" {
		projectPath, err = os.Getwd()
		if err != nil {
			return err
		}
	}

	ledger, err := openLedger()
	if err != nil {
		return err
	}

	fmt.Printf("Installing '%s' for %s...\n", mod.Name, installAssistant)
	inst, err := install.Install(mod, ledger, install.Options{
		Assistant:   installAssistant,
		ProjectPath: projectPath,
		Report:      printEvent,
	})
	if err != nil {
		if errors.Is(err, install.ErrNothingInstalled) {
			fmt.Println(WarningStyle.Render("Nothing was installed"))
		}
		return err
	}

	fmt.Println()
	fmt.Println(SuccessStyle.Render(fmt.Sprintf(
		"Installed '%s': %d skill(s), %d command(s), %d agent(s)",
		inst.Module, len(inst.Skills), len(inst.Commands), len(inst.Agents))))
	return nil
}

// printEvent renders one orchestrator event: a per-item line, or a
// kind-level skip note when the event carries no item name.
func printEvent(ev install.Event) {
	switch {
	case ev.Item == "" && ev.Err != nil:
		fmt.Println(WarningStyle.Render(fmt.Sprintf("  Skipping %ss: %v", ev.Kind, ev.Err)))
	case ev.Err != nil:
		fmt.Println(ErrorStyle.Render(fmt.Sprintf("  %s %s: %v", ev.Kind, ev.Item, ev.Err)))
	default:
		fmt.Println(DimStyle.Render(fmt.Sprintf("  %s %s", ev.Kind, ev.Item)))
	}
}
