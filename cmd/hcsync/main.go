// Command hcsync mirrors a Hardcover reading library into a folder of
// Markdown notes.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"hardcoversync/internal/config"
	"hardcoversync/internal/logging"
)

var (
	configPath string
	vaultPath  string
	logLevel   string
	settings   *config.Settings
)

var rootCmd = &cobra.Command{
	Use:   "hcsync",
	Short: "Sync your Hardcover library into Markdown notes",
	Long: `hcsync keeps one Markdown note per book of your Hardcover library.

Managed frontmatter and the generated part of each note are rewritten on every
sync. Anything below the end marker, and any frontmatter keys you add, are kept.

Settings are read from hcsync.yaml (see --config), then from the environment.
The API key comes from HARDCOVER_API_KEY, which may also be set in .env.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if vaultPath != "" {
			s.VaultPath = vaultPath
		}
		if logLevel != "" {
			s.Log.Level = logLevel
		}
		logging.Init(logging.Config{Level: s.Log.Level, Format: s.Log.Format})
		settings = s
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "hcsync.yaml", "Settings file")
	rootCmd.PersistentFlags().StringVar(&vaultPath, "vault", "", "Vault directory (overrides vault_path)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
