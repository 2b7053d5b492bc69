package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/forerkortet/forerkortet/internal/auth"
	appI18n "github.com/forerkortet/forerkortet/internal/i18n"
	"github.com/forerkortet/forerkortet/internal/model"
	"github.com/forerkortet/forerkortet/internal/progress"
	"github.com/forerkortet/forerkortet/internal/scoring"
	"github.com/forerkortet/forerkortet/internal/store"
)

func scoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Print the score report for one finished test",
		Example: `  forerkortet score --correct 9 --total 10 --elapsed 2m5s
  forerkortet score -c 38 -t 45 -e 20m --lang en --json`,
		Args: cobra.NoArgs,
		RunE: runScore,
	}
	f := cmd.Flags()
	f.IntP("correct", "c", 0, "Number of correct answers")
	f.IntP("total", "t", 0, "Number of questions in the test")
	f.DurationP("elapsed", "e", 0, "Time spent on the test")
	f.StringP("lang", "l", appI18n.DefaultLanguage, "Message language (nb, en)")
	f.Bool("json", false, "Print the report as JSON")
	addLogFlags(cmd)
	return cmd
}

func runScore(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)
	setupLogging(v)

	correct, total := v.GetInt("correct"), v.GetInt("total")
	elapsed := v.GetDuration("elapsed")
	if correct < 0 || total < 0 || elapsed < 0 || correct > total {
		return fmt.Errorf("need 0 <= correct <= total and a non-negative elapsed time")
	}

	ctx := appI18n.WithLocalizer(cmd.Context(), appI18n.NewLocalizer(v.GetString("lang")))
	report := scoring.Score(ctx, scoring.Attempt{Correct: correct, Total: total, Elapsed: elapsed})
	return writeReport(cmd.OutOrStdout(), report, v.GetBool("json"))
}

func writeReport(w io.Writer, r scoring.Report, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
	verdict := "FAIL"
	if r.Passed {
		verdict = "PASS"
	}
	_, err := fmt.Fprintf(w, "%d%% %s (%s)\n%s\n%s (%d s per question)\n",
		r.Percentage, verdict, r.Band, r.Message, r.Duration, r.AvgSecondsPerQuestion)
	return err
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE...",
		Short: "Import question files (JSON or YAML) into the database",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runImport,
	}
	cmd.Flags().String("db", "forerkortet.db", "SQLite database path")
	cmd.Flags().StringP("lang", "l", appI18n.DefaultLanguage, "Language for drafted explanations (nb, en)")
	addLLMFlags(cmd)
	addLogFlags(cmd)
	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	v := viperForCmd(cmd)
	setupLogging(v)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	summaries, err := newImporter(cmd.Context(), v, db).ImportFiles(cmd.Context(), args)
	for _, s := range summaries {
		status := fmt.Sprintf("%d imported, %d explained", s.Imported, s.Explained)
		if s.Skipped {
			status = "skipped"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", s.Path, status)
	}
	return err
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all test results as JSON",
		Args:  cobra.NoArgs,
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "forerkortet.db", "SQLite database path")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.StringP("format", "f", "json", "Output format (json, xlsx)")
	addLogFlags(cmd)
	return cmd
}

func runExport(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)
	setupLogging(v)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	format := strings.ToLower(v.GetString("format"))
	if format != "json" && format != "xlsx" {
		return fmt.Errorf("unknown format %q", format)
	}

	export, err := progress.Export(db, time.Now())
	if err != nil {
		return fmt.Errorf("export results: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = cmd.OutOrStdout()
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if format == "xlsx" {
		return progress.WriteXLSX(w, export)
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	_, _ = fmt.Fprintln(w)
	return nil
}

func useraddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "useradd USERNAME",
		Short: "Create a user account",
		Args:  cobra.ExactArgs(1),
		RunE:  runUseradd,
	}
	f := cmd.Flags()
	f.String("db", "forerkortet.db", "SQLite database path")
	f.String("display-name", "", "Display name (defaults to the username)")
	f.String("password", "", "Password (or set FORERKORTET_PASSWORD)")
	f.String("role", string(model.UserRoleStudent), "Role (student, admin)")
	addLogFlags(cmd)
	return cmd
}

func runUseradd(cmd *cobra.Command, args []string) error {
	v := viperForCmd(cmd)
	setupLogging(v)

	username := strings.TrimSpace(args[0])
	password := v.GetString("password")
	if username == "" || password == "" {
		return fmt.Errorf("username and password are required")
	}
	role := model.UserRole(v.GetString("role"))
	if role != model.UserRoleStudent && role != model.UserRoleAdmin {
		return fmt.Errorf("unknown role %q", role)
	}
	displayName := v.GetString("display-name")
	if displayName == "" {
		displayName = username
	}

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if existing, err := db.GetUserByUsername(username); err != nil {
		return err
	} else if existing != nil {
		return fmt.Errorf("user %q already exists", username)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	id, err := db.CreateUser(model.User{
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
	})
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created %s %q (id %d)\n", role, username, id)
	return nil
}
