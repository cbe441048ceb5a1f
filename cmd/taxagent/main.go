// Command taxagent drives a filing session against the tax agent backend:
// it submits personal info and PDFs, computes the return and saves the form.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/ai-tax-agent/internal/config"
	"github.com/garyjia/ai-tax-agent/internal/coordinator"
	"github.com/garyjia/ai-tax-agent/internal/coordinator/backend"
	"github.com/garyjia/ai-tax-agent/internal/domain/entity"
	"github.com/garyjia/ai-tax-agent/pkg/utils"
)

const usage = `Usage:
  taxagent run [--status single] [--children N] [--other N] [--out form_1040.xlsx] file.pdf...
  taxagent ask "question"

Global flags:
  --config path   config file (default configs/config.yaml)
  --url URL       backend base URL (overrides client.base_url)
  --verbose       log to stderr
`

func main() {
	global := flag.NewFlagSet("taxagent", flag.ExitOnError)
	configPath := global.String("config", "configs/config.yaml", "Path to config file")
	baseURL := global.String("url", "", "Backend base URL")
	verbose := global.Bool("verbose", false, "Verbose output")
	global.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	_ = global.Parse(os.Args[1:])

	args := global.Args()
	if len(args) == 0 {
		global.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *baseURL != "" {
		cfg.Client.BaseURL = *baseURL
	}

	logger := zap.NewNop()
	if *verbose {
		logger, err = utils.NewLogger(utils.LoggerConfig{Level: "debug", OutputPath: "stderr", Format: "console"})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}
	}
	defer logger.Sync()

	client := backend.New(cfg.Client.BaseURL, &http.Client{}, logger)
	ctx := context.Background()

	switch args[0] {
	case "run":
		err = runSession(ctx, cfg, client, logger, args[1:])
	case "ask":
		err = ask(ctx, cfg, client, args[1:])
	default:
		global.Usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

// runOptions is a validated run command line
type runOptions struct {
	info entity.PersonalInfo
	docs []entity.DocumentRef
	out  string
}

// parseRunArgs reads the run flags and documents and validates them before
// any request is sent, since starting a session clears the server.
func parseRunArgs(args []string) (runOptions, error) {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	status := fs.String("status", "single", "Filing status: single, married_joint, married_separate, head_of_household, widow")
	children := fs.Int("children", 0, "Dependent children")
	other := fs.Int("other", 0, "Other dependents")
	out := fs.String("out", entity.ArtifactName, "Where to save the generated form")
	if err := fs.Parse(args); err != nil {
		return runOptions{}, err
	}

	filingStatus, err := entity.ParseFilingStatus(*status)
	if err != nil {
		return runOptions{}, err
	}
	docs, err := readDocuments(fs.Args())
	if err != nil {
		return runOptions{}, err
	}

	opts := runOptions{
		info: entity.PersonalInfo{FilingStatus: filingStatus, DependentChildren: *children, OtherDependents: *other},
		docs: docs,
		out:  *out,
	}
	if err := coordinator.ValidateSubmission(opts.info, opts.docs); err != nil {
		var ve *coordinator.ValidationError
		if errors.As(err, &ve) {
			return runOptions{}, errors.New(ve.Reason)
		}
		return runOptions{}, err
	}
	return opts, nil
}

func runSession(ctx context.Context, cfg *config.Config, client *backend.Client, logger *zap.Logger, args []string) error {
	opts, err := parseRunArgs(args)
	if err != nil {
		return err
	}

	c := coordinator.New(client, coordinator.Config{RequestTimeout: cfg.Client.RequestTimeout}, utils.NewKVLogger(logger))
	defer c.Close()

	if err := c.StartSession(ctx); err != nil {
		return err
	}
	printWarning(c)

	rec, err := c.SubmitWorkflow(ctx, opts.info, opts.docs)
	fmt.Println(c.State().StatusNarrative)
	printWarning(c)
	if err != nil {
		return errors.New("submission failed")
	}

	fmt.Println("Uploaded files:")
	for _, r := range c.State().RegistrySnapshot {
		fmt.Printf("  %-32s %8d bytes  %s\n", r.Name, r.SizeBytes, r.Status)
	}
	if rec.Processed == 0 && rec.Skipped == 0 {
		return errors.New("no document was accepted")
	}

	result, err := c.CalculateTax(ctx)
	if err != nil {
		if msg := c.State().ErrorNarrative; msg != "" {
			return errors.New(msg)
		}
		return err
	}
	printResult(result)

	if !result.FormGenerated {
		fmt.Println("Form was not generated.")
		return nil
	}
	return saveForm(ctx, c, opts.out)
}

func readDocuments(paths []string) ([]entity.DocumentRef, error) {
	docs := make([]entity.DocumentRef, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}
		docs = append(docs, entity.DocumentRef{DisplayName: filepath.Base(p), Payload: data})
	}
	return docs, nil
}

func saveForm(ctx context.Context, c *coordinator.Coordinator, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	n, err := c.DownloadArtifact(ctx, f)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("failed to download form: %w", err)
	}
	fmt.Printf("Form saved to %s (%d bytes)\n", path, n)
	return nil
}

func printResult(r *entity.TaxResult) {
	fmt.Println("Tax calculation:")
	fmt.Printf("  Wages:               $%12.2f\n", r.Breakdown.Wages)
	fmt.Printf("  Interest income:     $%12.2f\n", r.Breakdown.InterestIncome)
	fmt.Printf("  Nonemployee comp:    $%12.2f\n", r.Breakdown.NECIncome)
	fmt.Printf("  Total income:        $%12.2f\n", r.TotalIncome)
	fmt.Printf("  Standard deduction:  $%12.2f\n", r.StandardDeduction)
	fmt.Printf("  Taxable income:      $%12.2f\n", r.TaxableIncome)
	fmt.Printf("  Credits applied:     $%12.2f\n", r.CreditsApplied)
	fmt.Printf("  Self-employment tax: $%12.2f\n", r.SelfEmploymentTax)
	fmt.Printf("  Total tax:           $%12.2f\n", r.TaxOwed)
	fmt.Printf("  Federal withheld:    $%12.2f\n", r.FederalWithheld)
	if r.IsRefund() {
		fmt.Printf("  Refund:              $%12.2f\n", r.RefundOrDue)
	} else {
		fmt.Printf("  Amount due:          $%12.2f\n", -r.RefundOrDue)
	}
}

func printWarning(c *coordinator.Coordinator) {
	if w := c.State().Warning; w != "" {
		fmt.Fprintf(os.Stderr, "WARNING: %s\n", w)
	}
}

func ask(ctx context.Context, cfg *config.Config, client *backend.Client, args []string) error {
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return errors.New("a question is required")
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.Client.RequestTimeout)
	defer cancel()

	reply, err := client.Ask(ctx, question, nil)
	if err != nil {
		return err
	}
	fmt.Println(reply)
	return nil
}
