package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/agiangrant/boot"
)

const configFileName = "boot.toml"

func newInitCommand() *cobra.Command {
	var (
		dir   string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default boot.toml and an empty asset manifest",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return initProject(cmd, dir, force)
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "project directory")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing boot.toml")
	return cmd
}

func initProject(cmd *cobra.Command, dir string, force bool) error {
	out := cmd.OutOrStdout()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	cfgPath := filepath.Join(dir, configFileName)
	if _, err := os.Stat(cfgPath); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", cfgPath)
	}

	cfg := boot.DefaultConfig()
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(cfgPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", cfgPath, err)
	}
	fmt.Fprintf(out, "  ✓ Created %s\n", cfgPath)

	assets := filepath.Join(dir, "assets")
	if err := os.MkdirAll(assets, 0755); err != nil {
		return fmt.Errorf("failed to create assets directory: %w", err)
	}
	manifest := filepath.Join(assets, cfg.Manifest)
	if _, err := os.Stat(manifest); os.IsNotExist(err) {
		if err := os.WriteFile(manifest, nil, 0644); err != nil {
			return fmt.Errorf("failed to create %s: %w", manifest, err)
		}
		fmt.Fprintf(out, "  ✓ Created %s\n", manifest)
	}

	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintf(out, "  boot manifest %s          # regenerate the manifest\n", assets)
	fmt.Fprintf(out, "  boot run -c %s --assets %s\n", cfgPath, assets)
	return nil
}
