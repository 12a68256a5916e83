package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/oauth2"

	"strava-thresholds/internal/auth"
	"strava-thresholds/internal/config"
	"strava-thresholds/internal/monitoring"
	"strava-thresholds/internal/service"
	"strava-thresholds/internal/store"
	"strava-thresholds/internal/strava"
	"strava-thresholds/internal/streams"
	"strava-thresholds/internal/threshold"
	"strava-thresholds/internal/tui"
)

const usage = `Usage:
  thresholds [tui]                    sync with Strava and browse estimates
  thresholds import FILE.fit...       store activities from FIT files
  thresholds plan [-sport run|bike] [-input activities.json]
                                      print the threshold plan as JSON
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, args []string) error {
	cmd := "tui"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "tui":
		return runTUI(ctx)
	case "import":
		return runImport(ctx, args)
	case "plan":
		return runPlan(ctx, args, os.Stdout)
	case "help", "-h", "--help":
		fmt.Print(usage)
		return nil
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// loadEngineConfig reads the config file if present; offline commands work
// without one
func loadEngineConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if errors.Is(err, config.ErrNoConfig) {
		d := config.DefaultConfig()
		return &d, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.ValidateEngine(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openDB() (*store.DB, error) {
	dir, err := config.GetConfigDir()
	if err != nil {
		return nil, err
	}
	db, err := store.Open(store.DefaultPath(dir))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

func runImport(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("import: no FIT files given")
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	importer := service.NewImportService(db)
	var failed int
	for _, path := range args {
		a, err := importer.ImportFile(ctx, path)
		if err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			continue
		}
		fmt.Printf("imported %s as %s (%s)\n", filepath.Base(path), a.ID, a.Sport)
	}
	if failed > 0 {
		return fmt.Errorf("import: %d of %d files failed", failed, len(args))
	}
	return nil
}

func runPlan(ctx context.Context, args []string, out io.Writer) error {
	cfg, err := loadEngineConfig()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("plan", flag.ContinueOnError)
	sportName := fs.String("sport", cfg.Athlete.Sport, "sport to plan for: run or bike")
	input := fs.String("input", "", "JSON file of activities with streams, - for stdin (default: stored activities)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	sport := threshold.ParseSport(*sportName)

	var plan threshold.Plan
	if *input != "" {
		activities, err := readActivities(*input)
		if err != nil {
			return err
		}
		plan = threshold.BuildPlan(activities, sport, cfg.EngineOptions())
	} else {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		data, err := service.NewThresholdService(db, cfg.EngineOptions()).Compute(ctx, sport)
		if err != nil {
			return err
		}
		plan = data.Plan
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(plan)
}

func readActivities(path string) ([]threshold.ActivityRecord, error) {
	if path == "-" {
		return streams.DecodeActivities(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening activities: %w", err)
	}
	defer f.Close()
	return streams.DecodeActivities(f)
}

func runTUI(ctx context.Context) error {
	cfg, err := config.Load()
	if errors.Is(err, config.ErrNoConfig) {
		fmt.Println("No config file found. Creating example config...")
		if err := config.CreateExample(); err != nil {
			return fmt.Errorf("creating example config: %w", err)
		}
		configDir, _ := config.GetConfigDir()
		fmt.Printf("\nPlease edit the config file at:\n  %s/config.json\n\n", configDir)
		fmt.Println("You need to add your Strava API credentials.")
		fmt.Println("Get them from: https://www.strava.com/settings/api")
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		configDir, _ := config.GetConfigDir()
		fmt.Printf("Config validation failed: %v\n\n", err)
		fmt.Printf("Please edit the config file at:\n  %s/config.json\n", configDir)
		return nil
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	authCfg := auth.Config{
		ClientID:     cfg.Strava.ClientID,
		ClientSecret: cfg.Strava.ClientSecret,
	}

	storedAuth, err := db.GetAuth(ctx)
	if errors.Is(err, store.ErrNoAuth) {
		fmt.Println("No authentication found. Starting OAuth flow...")
		if storedAuth, err = authenticate(ctx, db, authCfg); err != nil {
			return fmt.Errorf("authentication: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("checking auth: %w", err)
	}

	tokenSource := newTokenSource(ctx, db, authCfg, storedAuth)

	// A failed refresh means the grant was revoked
	if _, err := tokenSource.Token(); err != nil {
		fmt.Println("Stored token is invalid or expired. Re-authenticating...")
		if storedAuth, err = authenticate(ctx, db, authCfg); err != nil {
			return fmt.Errorf("re-authentication: %w", err)
		}
		tokenSource = newTokenSource(ctx, db, authCfg, storedAuth)
	}

	configDir, _ := config.GetConfigDir()
	logFile, err := os.OpenFile(filepath.Join(configDir, "thresholds.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()
	monitoring.SetOutput(logFile, "")

	syncSvc := service.NewSyncService(strava.NewClient(tokenSource), db)
	thresholdSvc := service.NewThresholdService(db, cfg.EngineOptions())

	app := tui.NewApp(syncSvc, thresholdSvc, thresholdSvc.LastSport(ctx, cfg.Sport()))
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

func newTokenSource(ctx context.Context, db *store.DB, cfg auth.Config, stored *store.Auth) oauth2.TokenSource {
	token := &oauth2.Token{
		AccessToken:  stored.AccessToken,
		RefreshToken: stored.RefreshToken,
		Expiry:       stored.ExpiresAt,
	}
	return auth.NewTokenSource(ctx, auth.NewOAuthConfig(cfg), token, func(t *oauth2.Token) error {
		return db.UpdateTokens(ctx, t.AccessToken, t.RefreshToken, t.Expiry)
	})
}

func authenticate(ctx context.Context, db *store.DB, cfg auth.Config) (*store.Auth, error) {
	result, err := auth.Authenticate(ctx, cfg, os.Stdout)
	if err != nil {
		return nil, err
	}

	storedAuth := &store.Auth{
		AthleteID:    result.AthleteID,
		AccessToken:  result.Token.AccessToken,
		RefreshToken: result.Token.RefreshToken,
		ExpiresAt:    result.Token.Expiry,
	}
	if err := db.SaveAuth(ctx, storedAuth); err != nil {
		return nil, fmt.Errorf("saving auth: %w", err)
	}

	fmt.Printf("\nSuccessfully authenticated as athlete %d!\n", result.AthleteID)
	return storedAuth, nil
}
