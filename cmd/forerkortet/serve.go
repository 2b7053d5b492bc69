package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/forerkortet/forerkortet/internal/auth"
	"github.com/forerkortet/forerkortet/internal/handler"
	appI18n "github.com/forerkortet/forerkortet/internal/i18n"
	"github.com/forerkortet/forerkortet/internal/importer"
	"github.com/forerkortet/forerkortet/internal/llm"
	"github.com/forerkortet/forerkortet/internal/model"
	"github.com/forerkortet/forerkortet/internal/scheduler"
	"github.com/forerkortet/forerkortet/internal/selection"
	"github.com/forerkortet/forerkortet/internal/store"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "forerkortet.db", "SQLite database path")
	f.StringSliceP("questions", "q", nil, "Question files to import at startup (JSON, YAML or XLSX, repeatable)")
	f.StringP("lang", "l", appI18n.DefaultLanguage, "Default language (nb, en)")
	f.IntP("num-questions", "n", 45, "Questions per practice test")
	f.Float64("unseen-share", selection.DefaultUnseenShare, "Share of unseen questions per test while any remain")
	f.Int("max-options", 4, "Answer options shown per question (-1 keeps all)")
	f.StringP("category", "c", "", "Default question category (empty means all)")
	f.String("auth", string(auth.KindLocal), "Sign-in provider (local, none)")
	f.String("admin-password", "", "Initial admin password (or set FORERKORTET_ADMIN_PASSWORD)")
	f.StringSlice("allow-origins", nil, "CORS allowed origins (empty allows all)")
	f.Bool("watch", false, "Re-import question files when they change")
	f.Duration("test-ttl", scheduler.DefaultTestTTL, "How long an unsubmitted test stays open")
	f.Duration("cleanup-interval", scheduler.DefaultInterval, "How often expired tokens and abandoned tests are removed")
	addLLMFlags(cmd)
	addLogFlags(cmd)
	return cmd
}

func addLLMFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Bool("llm-explain", false, "Draft missing question explanations with an LLM on import")
	f.String("llm-url", "http://localhost:11434/v1", "OpenAI-compatible API base URL")
	f.String("llm-key", "ollama", "API key for LLM")
	f.String("llm-model", "llama3.2", "LLM model name")
	f.Bool("force", false, "Re-import question files that changed since the last import")
}

// newImporter builds an importer, wiring the LLM explainer when enabled and reachable.
func newImporter(ctx context.Context, v *viper.Viper, db *store.Store) *importer.Importer {
	opts := importer.Options{Force: v.GetBool("force")}
	if v.GetBool("llm-explain") {
		client := llm.New(v.GetString("llm-url"), v.GetString("llm-key"), v.GetString("llm-model"), v.GetString("lang"))
		if err := client.Ping(ctx); err != nil {
			slog.Warn("LLM endpoint unreachable, importing without drafted explanations", "error", err)
		} else {
			slog.Info("LLM endpoint OK", "url", v.GetString("llm-url"), "model", v.GetString("llm-model"))
			opts.Explainer = client
		}
	}
	return importer.New(db, opts)
}

func runServe(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)
	setupLogging(v)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lang := v.GetString("lang")
	if !appI18n.Supported(lang) {
		return fmt.Errorf("unsupported language %q (available: %v)", lang, appI18n.Languages())
	}
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	kind := auth.Kind(strings.ToLower(v.GetString("auth")))
	if kind == auth.KindLocal {
		if err := seedAdmin(db, v.GetString("admin-password")); err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
	}
	provider, err := auth.New(kind, db)
	if err != nil {
		return err
	}

	im := newImporter(ctx, v, db)
	if _, err := im.ImportFiles(ctx, v.GetStringSlice("questions")); err != nil {
		return fmt.Errorf("load questions: %w", err)
	}
	count, err := db.QuestionCount()
	if err != nil {
		return fmt.Errorf("count questions: %w", err)
	}
	if count == 0 {
		slog.Warn("no questions in database, tests cannot be started until questions are imported")
	} else {
		slog.Info("questions available", "count", count)
	}

	cfg := model.TestConfig{
		NumQuestions:  v.GetInt("num-questions"),
		UnseenShare:   v.GetFloat64("unseen-share"),
		MaxOptions:    v.GetInt("max-options"),
		Category:      v.GetString("category"),
		AllowOrigins:  v.GetStringSlice("allow-origins"),
		DefaultLocale: lang,
	}
	h := handler.New(db, provider, im, cfg)

	sched := scheduler.New(db, v.GetDuration("test-ttl"))
	if err := sched.Start(v.GetDuration("cleanup-interval")); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()

	addr := v.GetString("addr")
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if v.GetBool("watch") {
		g.Go(func() error {
			return im.Watch(gctx, v.GetStringSlice("questions"))
		})
	}

	slog.Info("starting server",
		"addr", addr,
		"lang", lang,
		"auth", kind,
		"num_questions", cfg.NumQuestions,
		"unseen_share", cfg.UnseenShare,
		"max_options", cfg.MaxOptions,
		"category", cfg.Category,
		"watch", v.GetBool("watch"),
	)
	return g.Wait()
}

func seedAdmin(db *store.Store, password string) error {
	count, err := db.UserCount()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if password == "" {
		return fmt.Errorf("admin password is required: set --admin-password flag or FORERKORTET_ADMIN_PASSWORD env var")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = db.CreateUser(model.User{
		Username:     "admin",
		DisplayName:  "Administrator",
		PasswordHash: hash,
		Role:         model.UserRoleAdmin,
		Active:       true,
	})
	if err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	slog.Info("seeded default admin user", "username", "admin")
	return nil
}
