// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/SecKatie/lola/internal/config"
	"github.com/SecKatie/lola/internal/install"
	"github.com/SecKatie/lola/internal/source"
	"github.com/SecKatie/lola/pkg/frontmatter"
	"github.com/SecKatie/lola/pkg/module"
)

var (
	// modAddName overrides the fetched module's registry name
	modAddName string

	// modInitDescription is the manifest description for mod init
	modInitDescription string

	// modInitSkill names the initial skill created by mod init
	modInitSkill string

	// modInitNoSkill skips creating an initial skill
	modInitNoSkill bool

	// modRmForce skips the removal confirmation
	modRmForce bool

	// modLsVerbose lists each module's skills
	modLsVerbose bool

	// modInfoRender renders skill content as formatted markdown
	modInfoRender bool
)

// modCmd represents the mod command group
var modCmd = &cobra.Command{
	Use:   "mod",
	Short: "Manage the module registry",
	Long: `Manage skill modules in the lola registry.

Modules are fetched from git repositories, archive URLs, local archives,
or local folders, and stored under the lola home directory. Installing a
module renders its skills for a specific AI assistant.

Examples:
  lola mod add https://github.com/user/my-skills.git
  lola mod ls
  lola mod info my-skills
  lola mod update`,
}

var modAddCmd = &cobra.Command{
	Use:   "add <source>",
	Short: "Add a module from a source",
	Long: `Add a module to the lola registry.

SOURCE can be:
  - A git repository URL (https://github.com/user/repo.git)
  - A URL to a zip or tar archive
  - A path to a local zip or tar archive
  - A path to a local folder

Examples:
  lola mod add https://github.com/user/my-skills.git
  lola mod add https://github.com/user/repo/archive/main.zip
  lola mod add ./my-local-module
  lola mod add ~/Downloads/skills.tar.gz`,
	Args: cobra.ExactArgs(1),
	RunE: runModAdd,
}

var modInitCmd = &cobra.Command{
	Use:   "init [name]",
	Short: "Initialize a new module",
	Long: `Initialize a new lola module.

Creates the .lola/module.yml manifest in the current directory, or in a
new subdirectory when NAME is given. By default an initial skill named
after the module is created as well.

Examples:
  lola mod init                 Use the current folder
  lola mod init my-skills       Create a my-skills/ subdirectory
  lola mod init -s code-review  Custom initial skill name
  lola mod init --no-skill      Skip the initial skill`,
	Args: cobra.MaximumNArgs(1),
	RunE: runModInit,
}

var modRmCmd = &cobra.Command{
	Use:   "rm <module>",
	Short: "Remove a module from the registry",
	Long: `Remove a module from the lola registry.

This also uninstalls the module from every assistant it was installed
for and removes the generated artifacts.`,
	Args: cobra.ExactArgs(1),
	RunE: runModRm,
}

var modLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List registered modules",
	RunE:  runModLs,
}

var modInfoCmd = &cobra.Command{
	Use:   "info <module>",
	Short: "Show detailed module information",
	Args:  cobra.ExactArgs(1),
	RunE:  runModInfo,
}

var modUpdateCmd = &cobra.Command{
	Use:   "update [module]",
	Short: "Update module(s) from their original source",
	Long: `Update a module by refetching it from its recorded source.

Without an argument, every updatable module in the registry is updated.
Modules added before provenance tracking, or whose local source has
disappeared, are skipped with a warning.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runModUpdate,
}

func init() {
	modAddCmd.Flags().StringVarP(&modAddName, "name", "n", "", "override the module name")
	modInitCmd.Flags().StringVarP(&modInitDescription, "description", "d", "", "module description")
	modInitCmd.Flags().StringVarP(&modInitSkill, "skill", "s", "", "name for the initial skill (default: module name)")
	modInitCmd.Flags().BoolVar(&modInitNoSkill, "no-skill", false, "do not create an initial skill")
	modRmCmd.Flags().BoolVarP(&modRmForce, "force", "f", false, "force removal without confirmation")
	modLsCmd.Flags().BoolVarP(&modLsVerbose, "verbose", "v", false, "show each module's skills")
	modInfoCmd.Flags().BoolVarP(&modInfoRender, "render", "r", false, "render skill content as formatted markdown")

	modCmd.AddCommand(modAddCmd)
	modCmd.AddCommand(modInitCmd)
	modCmd.AddCommand(modRmCmd)
	modCmd.AddCommand(modLsCmd)
	modCmd.AddCommand(modInfoCmd)
	modCmd.AddCommand(modUpdateCmd)
}

func runModAdd(cmd *cobra.Command, args []string) error {
	src := args[0]

	srcType := source.DetectType(src)
	if srcType == "" {
		// A bare name may resolve through a marketplace catalog.
		if repo, ok := lookupMarketModule(src); ok {
			fmt.Printf("Found '%s' in marketplace, using %s\n", src, repo)
			src = repo
			srcType = source.DetectType(src)
		}
	}
	if srcType == "" {
		fmt.Println(ErrorStyle.Render("Cannot determine source type for: ") + src)
		fmt.Println("Supported sources: git repos, .zip files, .tar/.tar.gz files, local folders, or marketplace module names")
		return fmt.Errorf("unsupported source %q", src)
	}

	modulesDir, err := config.ModulesDir()
	if err != nil {
		return err
	}

	fmt.Printf("Adding module from %s source...\n", srcType)
	modulePath, err := source.Fetch(cmd.Context(), src, modulesDir)
	if err != nil {
		return fmt.Errorf("fetching module: %w", err)
	}
	if err := source.SaveSourceInfo(modulePath, src, srcType); err != nil {
		return err
	}

	if modAddName != "" && filepath.Base(modulePath) != modAddName {
		if _, err := module.ValidateName(modAddName); err != nil {
			os.RemoveAll(modulePath)
			return err
		}
		newPath := filepath.Join(modulesDir, modAddName)
		if err := os.RemoveAll(newPath); err != nil {
			return err
		}
		if err := os.Rename(modulePath, newPath); err != nil {
			return err
		}
		modulePath = newPath
	}

	mod, err := module.Load(modulePath)
	if err != nil {
		return err
	}
	if mod == nil {
		fmt.Println(WarningStyle.Render("Warning: no valid .lola/module.yml found"))
		fmt.Printf("Module added to: %s\n", modulePath)
		fmt.Println("Create a .lola/module.yml to define skills for installation.")
		return nil
	}

	if warnings := mod.Validate(); len(warnings) > 0 {
		fmt.Println(WarningStyle.Render("Module has validation warnings:"))
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
	}

	fmt.Println()
	fmt.Println(SuccessStyle.Render(fmt.Sprintf("Module '%s' added successfully!", mod.Name)))
	fmt.Printf("  Path: %s\n", modulePath)
	fmt.Printf("  Version: %s\n", mod.Version)
	fmt.Printf("  Skills: %d\n", len(mod.Skills))

	if len(mod.Skills) > 0 {
		fmt.Println()
		fmt.Println("Available skills:")
		for _, s := range mod.Skills {
			fmt.Printf("  - %s\n", s)
		}
	}

	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Printf("  lola install %s -a <assistant>\n", mod.Name)
	return nil
}

func runModInit(cmd *cobra.Command, args []string) error {
	var moduleDir, moduleName string
	if len(args) == 1 {
		name := args[0]
		if _, err := module.ValidateName(name); err != nil {
			return err
		}
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		moduleDir = filepath.Join(cwd, name)
		if _, err := os.Stat(moduleDir); err == nil {
			return fmt.Errorf("directory %q already exists", moduleDir)
		}
		if err := os.MkdirAll(moduleDir, 0o755); err != nil {
			return err
		}
		moduleName = name
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		moduleDir = cwd
		moduleName = filepath.Base(cwd)
	}

	lolaDir := filepath.Join(moduleDir, ".lola")
	if _, err := os.Stat(lolaDir); err == nil {
		return errors.New("module already initialized (.lola/ exists)")
	}
	if err := os.MkdirAll(lolaDir, 0o755); err != nil {
		return err
	}

	skillName := modInitSkill
	if modInitNoSkill {
		skillName = ""
	} else if skillName == "" {
		skillName = moduleName
	}

	description := modInitDescription
	if description == "" {
		description = moduleName + " module"
	}

	manifest := struct {
		Type        string   `yaml:"type"`
		Version     string   `yaml:"version"`
		Description string   `yaml:"description"`
		Skills      []string `yaml:"skills"`
	}{
		Type:        module.ManifestType,
		Version:     module.DefaultVersion,
		Description: description,
	}
	if skillName != "" {
		manifest.Skills = []string{skillName}
	}
	raw, err := yaml.Marshal(manifest)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(lolaDir, "module.yml"), raw, 0o644); err != nil {
		return err
	}

	if skillName != "" {
		skillDir := filepath.Join(moduleDir, skillName)
		if err := os.MkdirAll(skillDir, 0o755); err != nil {
			return err
		}
		content := "---\n" +
			"name: " + skillName + "\n" +
			"description: Description of what this skill does and when to use it.\n" +
			"---\n\n" +
			"# " + skillTitle(skillName) + " Skill\n\n" +
			"Describe the skill's purpose and capabilities here.\n\n" +
			"## Usage\n\n" +
			"Explain how to use this skill.\n\n" +
			"## Examples\n\n" +
			"Provide examples of the skill in action.\n"
		if err := os.WriteFile(filepath.Join(skillDir, module.SkillFile), []byte(content), 0o644); err != nil {
			return err
		}
	}

	fmt.Println(SuccessStyle.Render(fmt.Sprintf("Initialized module '%s'", moduleName)))
	fmt.Printf("  Path: %s\n", moduleDir)
	fmt.Println()
	fmt.Println(TitleStyle.Render("Structure:"))
	fmt.Printf("  %s/\n", moduleName)
	fmt.Println("    .lola/")
	fmt.Println("      module.yml")
	if skillName != "" {
		fmt.Printf("    %s/\n", skillName)
		fmt.Println("      SKILL.md")
	}
	fmt.Println()
	fmt.Println(TitleStyle.Render("Next steps:"))
	if skillName != "" {
		fmt.Printf("  1. Edit %s/SKILL.md with your skill content\n", skillName)
		fmt.Printf("  2. lola mod add %s\n", moduleDir)
	} else {
		fmt.Println("  1. Create skill directories with SKILL.md files")
		fmt.Println("  2. Add skill names to .lola/module.yml")
		fmt.Printf("  3. lola mod add %s\n", moduleDir)
	}
	return nil
}

// skillTitle turns "code-review" into "Code Review".
func skillTitle(name string) string {
	words := strings.Split(name, "-")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func runModRm(cmd *cobra.Command, args []string) error {
	moduleName := args[0]

	modulesDir, err := config.ModulesDir()
	if err != nil {
		return err
	}
	modulePath := filepath.Join(modulesDir, moduleName)
	if _, err := os.Stat(modulePath); err != nil {
		fmt.Println(ErrorStyle.Render(fmt.Sprintf("Module '%s' not found in registry", moduleName)))
		fmt.Println("Use 'lola mod ls' to see available modules")
		return fmt.Errorf("module %q not found", moduleName)
	}

	ledger, err := openLedger()
	if err != nil {
		return err
	}
	installations := ledger.Find(moduleName)

	if !modRmForce {
		fmt.Printf("This will remove module '%s' from the registry.\n", moduleName)
		fmt.Printf("Path: %s\n", modulePath)
		if len(installations) > 0 {
			fmt.Println(WarningStyle.Render(fmt.Sprintf("This will also uninstall from %d location(s):", len(installations))))
			for _, inst := range installations {
				loc := fmt.Sprintf("  - %s/%s", inst.Assistant, inst.Scope)
				if inst.ProjectPath != "" {
					loc += fmt.Sprintf(" (%s)", inst.ProjectPath)
				}
				fmt.Println(loc)
			}
		}
		if !confirm("Continue?") {
			fmt.Println(WarningStyle.Render("Cancelled"))
			return nil
		}
	}

	removed, err := install.Uninstall(moduleName, ledger, install.Options{
		Report: printEvent,
	})
	if err != nil {
		return err
	}
	for _, row := range removed {
		if row.ProjectPath == "" {
			continue
		}
		local := filepath.Join(config.LocalModulesDir(row.ProjectPath), moduleName)
		if err := os.RemoveAll(local); err == nil {
			fmt.Println(DimStyle.Render("  Removed source: " + local))
		}
	}

	if err := os.RemoveAll(modulePath); err != nil {
		return err
	}
	fmt.Println(SuccessStyle.Render(fmt.Sprintf("Module '%s' removed from registry", moduleName)))
	return nil
}

func runModLs(cmd *cobra.Command, args []string) error {
	mods, err := registeredModules()
	if err != nil {
		return err
	}

	if len(mods) == 0 {
		fmt.Println(WarningStyle.Render("No modules found in registry"))
		fmt.Println()
		fmt.Println("Add modules with:")
		fmt.Println("  lola mod add <git-url|zip-file|tar-file|folder>")
		return nil
	}

	fmt.Println(TitleStyle.Render(fmt.Sprintf("Registered modules (%d):", len(mods))))
	fmt.Println()
	for _, m := range mods {
		fmt.Printf("%s (v%s)\n", ItemStyle.Render(m.Name), m.Version)
		if m.Description != "" {
			fmt.Printf("  %s\n", m.Description)
		}
		fmt.Printf("  Skills: %d\n", len(m.Skills))
		if modLsVerbose {
			for _, s := range m.Skills {
				fmt.Printf("    - %s\n", s)
			}
		}
		fmt.Println()
	}
	return nil
}

func runModInfo(cmd *cobra.Command, args []string) error {
	moduleName := args[0]

	modulesDir, err := config.ModulesDir()
	if err != nil {
		return err
	}
	modulePath := filepath.Join(modulesDir, moduleName)
	if _, err := os.Stat(modulePath); err != nil {
		return fmt.Errorf("module %q not found", moduleName)
	}

	mod, err := module.Load(modulePath)
	if err != nil {
		return err
	}
	if mod == nil {
		fmt.Println(WarningStyle.Render(fmt.Sprintf("No valid .lola/module.yml found in '%s'", moduleName)))
		fmt.Printf("Path: %s\n", modulePath)
		return nil
	}

	fmt.Println(TitleStyle.Render(mod.Name))
	fmt.Println()
	fmt.Printf("  Version: %s\n", mod.Version)
	fmt.Printf("  Path: %s\n", mod.Path)
	if mod.Description != "" {
		fmt.Printf("  Description: %s\n", mod.Description)
	}

	fmt.Println()
	fmt.Println(TitleStyle.Render("Skills:"))
	if len(mod.Skills) == 0 {
		fmt.Println("  (no skills defined)")
	}
	for _, name := range mod.Skills {
		dir := mod.SkillDir(name)
		raw, err := os.ReadFile(filepath.Join(dir, module.SkillFile))
		if err != nil {
			fmt.Printf("  %s (not found)\n", ErrorStyle.Render(name))
			continue
		}
		fmt.Printf("  %s\n", SuccessStyle.Render(name))
		if desc := frontmatter.Description(string(raw)); desc != "" {
			fmt.Printf("    %s\n", desc)
		}
		if modInfoRender {
			out, err := glamour.Render(string(raw), "auto")
			if err == nil {
				fmt.Println(out)
			}
		}
	}

	if len(mod.Commands) > 0 {
		fmt.Println()
		fmt.Println(TitleStyle.Render("Commands:"))
		for _, c := range mod.Commands {
			fmt.Printf("  %s\n", c)
		}
	}
	if len(mod.Agents) > 0 {
		fmt.Println()
		fmt.Println(TitleStyle.Render("Agents:"))
		for _, a := range mod.Agents {
			fmt.Printf("  %s\n", a)
		}
	}

	if info, err := source.LoadSourceInfo(mod.Path); err == nil && info != nil {
		fmt.Println()
		fmt.Println(TitleStyle.Render("Source:"))
		fmt.Printf("  Type: %s\n", info.Type)
		fmt.Printf("  Location: %s\n", info.Source)
	}

	if warnings := mod.Validate(); len(warnings) > 0 {
		fmt.Println()
		fmt.Println(WarningStyle.Render("Validation issues:"))
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
	}
	return nil
}

func runModUpdate(cmd *cobra.Command, args []string) error {
	modulesDir, err := config.ModulesDir()
	if err != nil {
		return err
	}

	var paths []string
	if len(args) == 1 {
		paths = []string{filepath.Join(modulesDir, args[0])}
		if _, err := os.Stat(paths[0]); err != nil {
			return fmt.Errorf("module %q not found", args[0])
		}
	} else {
		entries, err := os.ReadDir(modulesDir)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if e.IsDir() {
				paths = append(paths, filepath.Join(modulesDir, e.Name()))
			}
		}
	}

	var failed int
	for _, p := range paths {
		name := filepath.Base(p)
		err := source.Update(cmd.Context(), p)
		switch {
		case err == nil:
			fmt.Println(SuccessStyle.Render("Updated " + name))
		case errors.Is(err, source.ErrNotUpdatable):
			fmt.Println(WarningStyle.Render(fmt.Sprintf("Skipped %s: no source information", name)))
		default:
			failed++
			fmt.Println(ErrorStyle.Render(fmt.Sprintf("Failed to update %s: %v", name, err)))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d module(s) failed to update", failed)
	}
	return nil
}

// registeredModules loads every valid module in the registry, sorted by
// name. Directories without a manifest are skipped.
func registeredModules() ([]*module.Module, error) {
	modulesDir, err := config.ModulesDir()
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(modulesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var mods []*module.Module
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		m, err := module.Load(filepath.Join(modulesDir, e.Name()))
		if err != nil || m == nil {
			continue
		}
		mods = append(mods, m)
	}
	sort.Slice(mods, func(i, j int) bool { return mods[i].Name < mods[j].Name })
	return mods, nil
}

// lookupMarketModule resolves a bare module name to its repository URL
// through the enabled marketplace catalogs.
func lookupMarketModule(name string) (string, bool) {
	if _, err := module.ValidateName(name); err != nil {
		return "", false
	}
	registry, err := openMarketRegistry()
	if err != nil {
		return "", false
	}
	entry, _, err := registry.LookupModule(name)
	if err != nil || entry.Repository == "" {
		return "", false
	}
	return entry.Repository, true
}

func openLedger() (*install.Ledger, error) {
	path, err := config.InstalledFile()
	if err != nil {
		return nil, err
	}
	return install.OpenLedger(path)
}

// confirm asks a yes/no question on stdin.
func confirm(prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
