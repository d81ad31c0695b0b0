package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/closetmind/internal/profile"
	"github.com/hrygo/closetmind/internal/version"
	"github.com/hrygo/closetmind/server"
)

var (
	rootCmd = &cobra.Command{
		Use:   "closetmind",
		Short: `Outfit recommendations drawn from your own wardrobe.`,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return loadConfigFile()
		},
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			instanceProfile, err := loadProfile()
			if err != nil {
				return fmt.Errorf("failed to load profile: %w", err)
			}

			c := make(chan os.Signal, 1)
			// Trigger graceful shutdown on SIGINT or SIGTERM.
			// The default signal sent by the `kill` command is SIGTERM,
			// which is taken as the graceful shutdown signal for many systems, eg., Kubernetes, Gunicorn.
			signal.Notify(c, os.Interrupt, syscall.SIGTERM)
			return serve(context.Background(), instanceProfile, c)
		},
	}
)

func init() {
	viper.SetDefault("mode", "demo")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("port", 8081)
	viper.SetDefault("rate-limit", 10)
	viper.SetDefault("rate-burst", 20)

	rootCmd.PersistentFlags().String("config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().String("mode", "demo", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", "vector index backend: postgres, sqlite or memory")
	rootCmd.PersistentFlags().String("dsn", "", "database source name")
	rootCmd.PersistentFlags().String("jwt-secret", "", "HS256 secret verifying bearer tokens")
	rootCmd.PersistentFlags().String("ai-dialogue-policy", "", `readiness policy of the outfit chat, "lenient" or "strict"`)
	rootCmd.PersistentFlags().Int("ai-top-k", 0, "candidates retrieved per category before reranking")
	rootCmd.Flags().String("addr", "", "address of server")
	rootCmd.Flags().Int("port", 8081, "port of server")
	rootCmd.Flags().Float64("rate-limit", 10, "sustained requests per second per owner")
	rootCmd.Flags().Int("rate-burst", 20, "burst size per owner")

	for _, name := range []string{"config", "mode", "data", "driver", "dsn", "jwt-secret", "ai-dialogue-policy", "ai-top-k"} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			panic(err)
		}
	}
	for _, name := range []string{"addr", "port", "rate-limit", "rate-burst"} {
		if err := viper.BindPFlag(name, rootCmd.Flags().Lookup(name)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("closetmind")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(newImportCmd(), newTokenCmd())
}

func loadConfigFile() error {
	path := viper.GetString("config")
	if path == "" {
		return nil
	}
	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return nil
}

// loadProfile merges the environment-derived AI settings with flags, env and config file values.
func loadProfile() (*profile.Profile, error) {
	p := &profile.Profile{
		Mode:      viper.GetString("mode"),
		Addr:      viper.GetString("addr"),
		Port:      viper.GetInt("port"),
		Data:      viper.GetString("data"),
		Driver:    viper.GetString("driver"),
		DSN:       viper.GetString("dsn"),
		JWTSecret: viper.GetString("jwt-secret"),
		RateLimit: viper.GetFloat64("rate-limit"),
		RateBurst: viper.GetInt("rate-burst"),
	}
	p.FromEnv()
	if policy := viper.GetString("ai-dialogue-policy"); policy != "" {
		p.AIDialoguePolicy = policy
	}
	if topK := viper.GetInt("ai-top-k"); topK > 0 {
		p.AITopK = topK
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.Version = version.GetCurrentVersion(p.Mode)
	return p, nil
}

// serve runs the server until stop fires. Any startup failure is returned so
// the process exits non-zero.
func serve(ctx context.Context, p *profile.Profile, stop <-chan os.Signal) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s, err := server.NewServer(ctx, p)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	if err := s.Start(ctx); err != nil {
		s.Shutdown(ctx)
		return fmt.Errorf("failed to start server: %w", err)
	}

	printGreetings(p)

	select {
	case <-stop:
	case <-ctx.Done():
	}
	s.Shutdown(ctx)
	return nil
}

func printGreetings(p *profile.Profile) {
	fmt.Printf("closetmind %s started successfully!\n", p.Version)
	if p.IsDev() {
		fmt.Fprintf(os.Stderr, "Development mode is enabled\n")
		if p.DSN != "" {
			fmt.Fprintf(os.Stderr, "Database: %s\n", p.DSN)
		}
	}
	fmt.Printf("Driver: %s\n", p.Driver)
	if len(p.Addr) == 0 {
		fmt.Printf("Server running on port %d\n", p.Port)
		fmt.Printf("Access your closet at: http://localhost:%d\n", p.Port)
	} else {
		fmt.Printf("Server running on %s:%d\n", p.Addr, p.Port)
		fmt.Printf("Access your closet at: http://%s:%d\n", p.Addr, p.Port)
	}
	fmt.Println("---")
}

func main() {
	// A missing .env is fine; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env", "error", err)
	}
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
