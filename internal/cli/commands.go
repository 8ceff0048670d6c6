// Package cli is the terminal front end: it drives the analysis API through a
// session the way the web page does.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bryanwahyu/cft-genai/internal/client"
	"github.com/bryanwahyu/cft-genai/internal/domain/company"
	"github.com/bryanwahyu/cft-genai/internal/domain/documents"
	"github.com/bryanwahyu/cft-genai/internal/logging"
	"github.com/bryanwahyu/cft-genai/internal/report"
	"github.com/bryanwahyu/cft-genai/internal/session"
)

type globalOptions struct {
	server string
	apiKey string
	debug  bool
	tick   time.Duration
}

func (o *globalOptions) client() *client.Client {
	return client.New(o.server, client.WithAPIKey(o.apiKey))
}

func (o *globalOptions) logger() *zap.Logger {
	if !o.debug {
		return zap.NewNop()
	}
	l, err := logging.New(true)
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{tick: time.Second}

	rootCmd := &cobra.Command{
		Use:   "cftgenai",
		Short: "CFT GENAI - bull/bear analysis of regulatory filings",
		Long: `cftgenai looks up public companies, lists their recent 10-K, 10-Q and 8-K
filings and asks the analysis server for a bull/bear assessment of the
selected filings and any PDF documents you add.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.server, "server", envOr("CFTGENAI_SERVER", client.DefaultBaseURL), "Analysis server base URL")
	rootCmd.PersistentFlags().StringVar(&opts.apiKey, "api-key", os.Getenv("CFTGENAI_API_KEY"), "API key for the analysis server")
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newSearchCmd(opts))
	rootCmd.AddCommand(newFilingsCmd(opts))
	rootCmd.AddCommand(newAnalyzeCmd(opts))
	return rootCmd
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func newSearchCmd(opts *globalOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Search companies by ticker, CIK or name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := opts.client().SearchCompanies(cmd.Context(), strings.Join(args, " "), limit)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), RenderCompanies(list))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of results")
	return cmd
}

func newFilingsCmd(opts *globalOptions) *cobra.Command {
	var forms []string
	cmd := &cobra.Command{
		Use:   "filings CIK",
		Short: "Show the most recent filing of each form type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, list, err := opts.client().RecentFilings(cmd.Context(), args[0], forms)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), RenderFilings(data, list))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&forms, "form", []string{"10-K", "10-Q", "8-K"}, "Form types to list")
	return cmd
}

type analyzeOptions struct {
	forms       []string
	files       []string
	interactive bool
}

func newAnalyzeCmd(opts *globalOptions) *cobra.Command {
	var aopts analyzeOptions
	cmd := &cobra.Command{
		Use:   "analyze [CIK]",
		Short: "Run a bull/bear analysis",
		Long: `Run a bull/bear analysis of a company's recent filings and/or PDF files.
Example: cftgenai analyze 320193 --form 10-K --file q3-deck.pdf
Without a CIK, or with --interactive, the company and filings are chosen from prompts.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cik := ""
			if len(args) == 1 {
				cik = args[0]
			}
			if cik == "" {
				aopts.interactive = true
			}
			return runAnalyze(cmd.Context(), cmd.OutOrStdout(), opts, cik, aopts)
		},
	}
	cmd.Flags().StringSliceVar(&aopts.forms, "form", nil, "Form types to include (10-K, 10-Q, 8-K)")
	cmd.Flags().StringSliceVar(&aopts.files, "file", nil, "PDF file to include (repeatable)")
	cmd.Flags().BoolVarP(&aopts.interactive, "interactive", "i", false, "Choose company and filings interactively")
	return cmd
}

func runAnalyze(ctx context.Context, out io.Writer, opts *globalOptions, cik string, aopts analyzeOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	api := opts.client()
	s := session.New(api, opts.logger())

	target := company.Listing{CIK: cik}
	if aopts.interactive && cik == "" {
		q, err := PromptForQuery()
		if err != nil {
			return err
		}
		list, err := api.SearchCompanies(ctx, q, 10)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			return fmt.Errorf("no company matches %q", q)
		}
		if target, err = PromptForCompany(list); err != nil {
			return err
		}
	}

	if err := s.SelectCompany(ctx, target); err != nil {
		return fmt.Errorf("%s: %w", session.MsgFetchFailed, err)
	}
	st := s.State()
	fmt.Fprint(out, RenderFilings(st.CompanyData, st.Filings))

	forms := aopts.forms
	files := aopts.files
	if aopts.interactive {
		var err error
		if len(forms) == 0 {
			if forms, err = PromptForFormTypes(st.Filings); err != nil {
				return err
			}
		}
		if len(files) == 0 {
			if files, err = PromptForFiles(); err != nil {
				return err
			}
		}
	}
	for _, ft := range forms {
		s.Toggle(strings.ToUpper(strings.TrimSpace(ft)))
	}

	uploads, err := readUploads(files)
	if err != nil {
		return err
	}
	s.AddFiles(uploads...)
	if msg := s.State().Error; msg != "" {
		fmt.Fprintln(out, errorStyle.Render(msg))
	}

	progressCtx, stop := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		session.Progress(progressCtx, opts.tick, func(label string) {
			fmt.Fprintf(out, "\r%s", progressStyle.Render(label))
		})
	}()
	err = s.Analyze(ctx)
	stop()
	<-done
	fmt.Fprintln(out)

	st = s.State()
	if err != nil {
		if st.Error != "" {
			fmt.Fprintln(out, errorStyle.Render(st.Error))
		}
		var apiErr *client.Error
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			return errors.New(apiErr.Message)
		}
		return err
	}

	blocks := st.Result.Report
	if len(blocks) == 0 {
		blocks = report.Format(st.Analysis)
	}
	fmt.Fprintln(out, RenderReport(blocks))
	return nil
}

// readUploads loads files from disk; the declared type comes from the
// extension and the server sniffs the content again.
func readUploads(paths []string) ([]documents.Upload, error) {
	out := make([]documents.Upload, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(p)))
		if ct == "" {
			ct = documents.DetectContentType(data)
		}
		out = append(out, documents.Upload{Name: filepath.Base(p), ContentType: ct, Data: data})
	}
	return out, nil
}
