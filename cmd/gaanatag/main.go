// Package main provides the gaanatag CLI application entry point.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"gaanatag/internal/core"
	"gaanatag/internal/gaana"
	httpserver "gaanatag/internal/http"
	"gaanatag/internal/store"
)

var (
	cfgFile string
	config  *core.Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "gaanatag",
	Short: "Gaana metadata source for music tagging",
	Long: `gaanatag queries the Gaana music catalog and maps its responses into
normalized album and track records for an autotagging pipeline. It can
search the catalog, resolve catalog URLs, import playlists and serve
the lookups over HTTP.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("base-url", "", "Gaana API base URL")
	rootCmd.PersistentFlags().Float64("source-weight", 0.5, "source weight for candidate scoring")
	rootCmd.PersistentFlags().Duration("timeout", 0, "per-request HTTP timeout")
	rootCmd.PersistentFlags().String("server-host", "0.0.0.0", "HTTP server host")
	rootCmd.PersistentFlags().Int("server-port", 8080, "HTTP server port")
	rootCmd.PersistentFlags().String("store-path", "", "sqlite library path for imported playlists")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bind flags: %v\n", err)
		os.Exit(1)
	}

	rootCmd.AddCommand(searchAlbumCmd)
	rootCmd.AddCommand(searchTrackCmd)
	rootCmd.AddCommand(albumCmd)
	rootCmd.AddCommand(trackCmd)
	rootCmd.AddCommand(playlistCmd)
	rootCmd.AddCommand(serveCmd)

	playlistCmd.Flags().Bool("save", false, "persist imported songs to the sqlite library")
}

func initConfig() {
	envFile := ".env"
	if cfgFile != "" {
		envFile = cfgFile
	}

	if err := gotenv.Load(envFile); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
		}
	}

	viper.SetEnvPrefix("GAANATAG")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	config = buildConfig()
	logger = buildLogger(config.Log.Level)
}

func buildConfig() *core.Config {
	cfg := core.DefaultConfig()

	cfg.Gaana.BaseURL = viper.GetString("base-url")
	if weight := viper.GetFloat64("source-weight"); weight != 0 {
		cfg.Gaana.SourceWeight = weight
	}
	if timeout := viper.GetDuration("timeout"); timeout != 0 {
		cfg.Gaana.Timeout = timeout
	}

	cfg.Server.Host = viper.GetString("server-host")
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if port := viper.GetInt("server-port"); port != 0 {
		cfg.Server.Port = port
	}

	if path := viper.GetString("store-path"); path != "" {
		cfg.Store.Path = path
	}

	cfg.Log.Level = viper.GetString("log-level")

	return cfg
}

func buildLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch strings.ToLower(level) {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	builtLogger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to build logger: %v", err))
	}

	return builtLogger
}

func newSource() (*gaana.Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return gaana.NewClient(&config.Gaana, logger.Named("gaana")), nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

var searchAlbumCmd = &cobra.Command{
	Use:   "search-album <query>",
	Short: "Search the catalog for albums",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := newSource()
		if err != nil {
			return err
		}

		albums, err := source.SearchAlbums(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		return printJSON(albums)
	},
}

var searchTrackCmd = &cobra.Command{
	Use:   "search-track <query>",
	Short: "Search the catalog for tracks",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := newSource()
		if err != nil {
			return err
		}

		tracks, err := source.SearchTracks(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		return printJSON(tracks)
	},
}

var albumCmd = &cobra.Command{
	Use:   "album <catalog URL>",
	Short: "Resolve a catalog album URL to a full album record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := newSource()
		if err != nil {
			return err
		}

		album := source.AlbumForID(cmd.Context(), args[0])
		if album == nil {
			return fmt.Errorf("album not found for %q", args[0])
		}
		return printJSON(album)
	},
}

var trackCmd = &cobra.Command{
	Use:   "track <catalog URL>",
	Short: "Resolve a catalog song URL to a full track record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := newSource()
		if err != nil {
			return err
		}

		track := source.TrackForID(cmd.Context(), args[0])
		if track == nil {
			return fmt.Errorf("track not found for %q", args[0])
		}
		return printJSON(track)
	},
}

var playlistCmd = &cobra.Command{
	Use:   "playlist <catalog playlist URL>",
	Short: "Import a catalog playlist as title/artist/album records",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := newSource()
		if err != nil {
			return err
		}

		songs := source.ImportPlaylist(cmd.Context(), args[0])

		// Playlists routinely repeat songs; keep the first occurrence.
		dedup := store.NewDedupStore(config.Store.MaxSongs, config.Store.BloomFalsePositiveRate)
		unique := songs[:0]
		for _, song := range songs {
			if dedup.Seen(song.Seokey) {
				continue
			}
			dedup.Add(song.Seokey)
			unique = append(unique, song)
		}

		save, _ := cmd.Flags().GetBool("save")
		if save && len(unique) > 0 {
			library, err := store.OpenLibrary(config.Store.Path, logger.Named("store"))
			if err != nil {
				return err
			}
			defer func() {
				_ = library.Close()
			}()

			parts := strings.Split(args[0], "/")
			seokey := parts[len(parts)-1]
			if _, err := library.SaveSongs(cmd.Context(), seokey, unique); err != nil {
				return err
			}
		}

		return printJSON(unique)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose catalog lookups over HTTP with metrics",
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		source, err := newSource()
		if err != nil {
			return err
		}

		logger.Info("starting gaanatag",
			zap.String("base_url", config.Gaana.BaseURL),
			zap.Float64("source_weight", config.Gaana.SourceWeight))

		server := httpserver.NewServer(&config.Server, source, logger.Named("http"))

		g, gCtx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return server.Start(gCtx)
		})

		if err := g.Wait(); err != nil {
			logger.Error("gaanatag stopped with error", zap.Error(err))
			return err
		}

		logger.Info("gaanatag stopped gracefully")
		return nil
	},
}
