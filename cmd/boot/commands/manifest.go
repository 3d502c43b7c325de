package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/agiangrant/boot"
	"github.com/agiangrant/boot/preload"
	"github.com/agiangrant/boot/preload/fssource"
)

func newManifestCommand() *cobra.Command {
	var (
		out    string
		verify bool
	)
	cmd := &cobra.Command{
		Use:   "manifest <assets-dir>",
		Short: "Generate or verify the asset manifest of a directory",
		Long: `Manifest walks an asset directory, sniffs each file's kind and writes one
"kind:path:size:mime" line per file. With --verify it instead checks an
existing manifest against the files on disk.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			if out == "" {
				out = filepath.Join(dir, boot.DefaultConfig().Manifest)
			}
			if verify {
				return verifyManifest(cmd, dir, out)
			}
			return writeManifest(cmd, dir, out)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "manifest path (default <assets-dir>/assets.txt)")
	cmd.Flags().BoolVar(&verify, "verify", false, "check the manifest instead of writing it")
	return cmd
}

func writeManifest(cmd *cobra.Command, dir, out string) error {
	entries, err := fssource.Generate(cmd.Context(), os.DirFS(dir), ".")
	if err != nil {
		return err
	}

	// Never list the manifest itself.
	if rel, err := filepath.Rel(dir, out); err == nil {
		rel = filepath.ToSlash(rel)
		kept := entries[:0]
		for _, e := range entries {
			if e.Path != rel {
				kept = append(kept, e)
			}
		}
		entries = kept
	}

	if err := os.WriteFile(out, preload.FormatManifest(entries), 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d entries to %s\n", len(entries), out)
	return nil
}

func verifyManifest(cmd *cobra.Command, dir, manifest string) error {
	data, err := os.ReadFile(manifest)
	if err != nil {
		return fmt.Errorf("failed to read manifest: %w", err)
	}
	entries, err := preload.ParseManifest(manifest, data)
	if err != nil {
		return err
	}
	if err := fssource.New(os.DirFS(dir), fssource.Options{}).Verify(cmd.Context(), entries); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d entries ok\n", manifest, len(entries))
	return nil
}
