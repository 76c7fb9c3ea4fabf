package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/mindwellhq/mindwell/internal/catalog"
	"github.com/mindwellhq/mindwell/internal/handler"
	appI18n "github.com/mindwellhq/mindwell/internal/i18n"
	"github.com/mindwellhq/mindwell/internal/model"
	"github.com/mindwellhq/mindwell/internal/scoring"
	"github.com/mindwellhq/mindwell/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mindwell",
		Short: "Mental-health self-assessment web server",
	}

	serve := serveCmd()
	root.AddCommand(serve, exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `mindwell --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP assessment server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "mindwell.db", "SQLite database path")
	f.StringSliceP("questions", "q", nil, "Paths to extra test definition JSON files (repeatable)")
	f.String("upload-dir", "videos", "Root directory for recorded video files")
	f.StringP("lang", "l", "en", "UI language (en, es)")
	f.String("base-path", "", "URL prefix for sub-path deployments (e.g. /app)")
	f.Bool("secure-cookies", true, "Set Secure flag on session cookies")
	f.String("demo-user", "", "Seed a demo account as EMAIL:PASSWORD when the database is empty")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export assessment results as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "mindwell.db", "SQLite database path")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("MINDWELL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("mindwell")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/mindwell")
	v.AddConfigPath("/etc/mindwell")
	v.AddConfigPath("/data")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := seedDemoUser(db, v.GetString("demo-user")); err != nil {
		return fmt.Errorf("seed demo user: %w", err)
	}

	if err := db.CleanupExpiredSessions(); err != nil {
		slog.Warn("failed to clean up expired sessions", "error", err)
	}

	cat, err := catalog.Load(v.GetStringSlice("questions"))
	if err != nil {
		return fmt.Errorf("load test catalog: %w", err)
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	// Normalize base path.
	basePath := strings.TrimRight(v.GetString("base-path"), "/")
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}

	cfg := model.ServerConfig{
		UploadDir:     v.GetString("upload-dir"),
		BasePath:      basePath,
		SecureCookies: v.GetBool("secure-cookies"),
	}

	h := handler.New(db, cat, cfg)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))

	if basePath != "" {
		r.Route(basePath, func(sub chi.Router) {
			sub.Use(h.BasePathMiddleware)
			h.Routes(sub)
		})
		r.Get(basePath, func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, basePath+"/", http.StatusMovedPermanently)
		})
	} else {
		r.Use(h.BasePathMiddleware)
		h.Routes(r)
	}

	addr := v.GetString("addr")
	types := make([]string, 0)
	for _, def := range cat.Types() {
		types = append(types, string(def.Type))
	}
	slog.Info("starting server",
		"addr", addr,
		"lang", lang,
		"upload_dir", cfg.UploadDir,
		"base_path", basePath,
		"tests", strings.Join(types, ","),
	)
	return http.ListenAndServe(addr, r)
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	attempts, err := db.ListAllAttempts()
	if err != nil {
		return fmt.Errorf("list attempts: %w", err)
	}

	export := model.ResultsExport{
		ExportedAt: time.Now(),
		Attempts:   make([]model.AttemptResult, 0, len(attempts)),
	}

	// Users repeat across attempts, so cache lookups by ID.
	users := make(map[int64]*model.User)
	for _, a := range attempts {
		user, ok := users[a.UserID]
		if !ok {
			user, err = db.GetUserByID(a.UserID)
			if err != nil {
				return fmt.Errorf("load user %d: %w", a.UserID, err)
			}
			users[a.UserID] = user
		}

		responses, err := db.ListResponsesForTest(a.ID)
		if err != nil {
			return fmt.Errorf("load responses for %s: %w", a.ID, err)
		}

		summary := scoring.Summarize(a.MCQAnswers)
		result := model.AttemptResult{
			AttemptID:         a.ID,
			TestType:          a.TestType,
			IsRealPatientData: a.IsRealPatientData,
			Answers:           a.MCQAnswers,
			TotalScore:        summary.TotalScore,
			MaxScore:          summary.MaxScore,
			Percentage:        summary.Percentage,
			Responses:         responses,
			CreatedAt:         a.CreatedAt,
			CompletedAt:       a.CompletedAt,
		}
		if user != nil {
			result.UserEmail = user.Email
			result.UserName = user.Name
		}
		export.Attempts = append(export.Attempts, result)
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)

	return nil
}

// seedDemoUser creates a ready-to-use account on an empty database. The
// value is EMAIL:PASSWORD; an empty value means no seeding.
func seedDemoUser(db *store.Store, value string) error {
	if value == "" {
		return nil
	}

	count, err := db.UserCount()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	email, password, ok := strings.Cut(value, ":")
	if !ok || email == "" || password == "" {
		return fmt.Errorf("demo-user must be EMAIL:PASSWORD, got %q", value)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}

	_, err = db.CreateUser(model.User{
		Name:         "Demo User",
		Email:        email,
		PasswordHash: string(hash),
		Age:          30,
		Gender:       "unspecified",
	})
	if err != nil {
		return fmt.Errorf("create demo user: %w", err)
	}

	slog.Info("seeded demo user", "email", email)
	return nil
}
