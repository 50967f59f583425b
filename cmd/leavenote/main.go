package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/joho/godotenv"

	"github.com/panda279/leave-note/internal/config"
	"github.com/panda279/leave-note/internal/core"
	"github.com/panda279/leave-note/internal/document"
	"github.com/panda279/leave-note/internal/logging"
	"github.com/panda279/leave-note/internal/sheet"
)

var errUsage = errors.New("usage")

func main() {
	// A missing .env is fine for the CLI.
	_ = godotenv.Load()

	err := run(context.Background(), os.Args[1:], os.LookupEnv, os.Stdout, os.Stderr)
	switch {
	case err == nil:
		return
	case errors.Is(err, errUsage), errors.Is(err, flag.ErrHelp):
		usage(os.Stderr)
	case core.IsUserFacing(err):
		fmt.Fprintf(os.Stderr, "error: %s\n  cause: %v\n", core.FormatUserError(err), err)
	default:
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(1)
}

// run executes one subcommand. Configuration is read through lookup.
func run(ctx context.Context, args []string, lookup func(string) (string, bool), stdout, stderr io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	cfg, err := config.LoadFrom(lookup)
	if err != nil {
		return err
	}
	logger := logging.New(stderr, cfg.Logging.Level, cfg.Logging.Format)
	ctx = logging.NewContext(ctx, logger)

	profile, warnings, err := config.LoadProfile(cfg.Roster)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		logger.Warn("roster profile", "warning", w)
	}

	svc := core.NewService(profile, nil, core.Options{
		ProbeDepth:           cfg.Upload.ProbeDepth,
		MaxRows:              cfg.Upload.MaxRows,
		PreviewRows:          cfg.Upload.PreviewRows,
		Organization:         cfg.Document.Organization,
		DefaultSignatureDate: cfg.Document.SignatureDate,
		Style: document.Style{
			BodyFont:  cfg.Document.BodyFont,
			TitleFont: cfg.Document.TitleFont,
		},
	})

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "inspect":
		return runInspect(ctx, svc, rest, stdout, stderr)
	case "generate":
		return runGenerate(ctx, svc, cfg, rest, stdout, stderr)
	case "profile":
		fmt.Fprintf(stdout, "category field: %s\n", profile.CategoryField)
		fmt.Fprintf(stdout, "markers: %s\n", strings.Join(profile.Markers, ", "))
		for i, label := range profile.Order.Labels() {
			fmt.Fprintf(stdout, "%2d. %s\n", i+1, label)
		}
		fmt.Fprintf(stdout, "aliases: %d\n", profile.Aliases.Len())
		return nil
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func runInspect(ctx context.Context, svc *core.Service, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(stderr)
	input := fs.String("input", "", "roster file (.xlsx or .csv)")
	sheetName := fs.String("sheet", "", "worksheet name (default: first)")
	field := fs.String("field", "", "college column, when it cannot be detected")
	inType := fs.String("type", "auto", "auto|xlsx|csv")
	asJSON := fs.Bool("json", false, "print the inspection as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*input) == "" {
		return fmt.Errorf("%w: --input is required", errUsage)
	}

	up, closeFn, err := openUpload(*input, *inType, *sheetName, *field)
	if err != nil {
		return err
	}
	defer closeFn()

	insp, err := svc.Inspect(ctx, up)
	if err != nil {
		return err
	}
	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(insp)
	}
	return printInspection(stdout, insp)
}

func runGenerate(ctx context.Context, svc *core.Service, cfg *config.Config, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	input := fs.String("input", "", "roster file (.xlsx or .csv)")
	out := fs.String("out", "", "output path or directory (default: generated name in the current directory)")
	sheetName := fs.String("sheet", "", "worksheet name (default: first)")
	field := fs.String("field", "", "college column, when it cannot be detected")
	inType := fs.String("type", "auto", "auto|xlsx|csv")
	kind := fs.String("kind", cfg.Document.DefaultKind, "official|evening|morning")
	columns := fs.String("columns", "", "comma-separated columns in output order (default: first four)")
	output := fs.String("format", "docx", "docx|xlsx")
	activity := fs.String("activity", "", "activity name")
	activityDate := fs.String("activity-date", "", "activity date, e.g. 2024年9月20日")
	workDate := fs.String("work-date", "", "work date, e.g. 9月20日")
	workTime := fs.String("work-time", string(document.WorkAfternoon), "上午|下午|全天")
	signDate := fs.String("sign-date", "", "signature date (default: "+cfg.Document.SignatureDate+")")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*input) == "" {
		return fmt.Errorf("%w: --input is required", errUsage)
	}

	k, err := document.ParseKind(*kind)
	if err != nil {
		return err
	}
	format, err := core.ParseOutput(*output)
	if err != nil {
		return err
	}

	up, closeFn, err := openUpload(*input, *inType, *sheetName, *field)
	if err != nil {
		return err
	}
	defer closeFn()

	cols := splitList(*columns)
	if len(cols) == 0 {
		insp, err := svc.Inspect(ctx, up)
		if err != nil {
			return err
		}
		cols = insp.DefaultColumns
		if _, err := up.Body.Seek(0, io.SeekStart); err != nil {
			return err
		}
	}

	art, err := svc.Generate(ctx, core.GenerateRequest{
		Upload: up,
		Kind:   k,
		Meta: document.Metadata{
			ActivityName:  *activity,
			ActivityDate:  *activityDate,
			WorkDate:      *workDate,
			WorkTime:      document.WorkTime(*workTime),
			SignatureDate: *signDate,
		},
		Columns: cols,
		Output:  format,
	})
	if err != nil {
		return err
	}

	path := outputPath(*out, art.Filename)
	if err := os.WriteFile(path, art.Data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "generated %s rows=%d columns=%s\n", path, art.Inspection.RowCount, strings.Join(cols, ","))
	if len(art.Inspection.Leftovers) > 0 {
		fmt.Fprintf(stdout, "placed after the ordered colleges: %s\n", strings.Join(art.Inspection.Leftovers, ", "))
	}
	return nil
}

func openUpload(path, inType, sheetName, field string) (core.Upload, func(), error) {
	format, err := sheet.ParseFormat(inType)
	if err != nil {
		return core.Upload{}, nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return core.Upload{}, nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return core.Upload{}, nil, err
	}
	return core.Upload{
		Name:          filepath.Base(path),
		Body:          f,
		Size:          st.Size(),
		Sheet:         sheetName,
		Format:        format,
		CategoryField: field,
	}, func() { _ = f.Close() }, nil
}

func printInspection(w io.Writer, insp *core.Inspection) error {
	fmt.Fprintf(w, "file: %s (%s", insp.FileName, insp.Format)
	if insp.Sheet != "" {
		fmt.Fprintf(w, ", sheet %s", insp.Sheet)
	}
	if insp.Encoding != "" {
		fmt.Fprintf(w, ", %s", insp.Encoding)
	}
	fmt.Fprintf(w, ")\nheader row: %d\nrows: %d\ncollege column: %s\n", insp.HeaderRow, insp.RowCount, insp.CategoryField)
	fmt.Fprintf(w, "columns: %s\n\n", strings.Join(insp.Fields, ", "))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "college\trows\t")
	for _, g := range insp.Groups {
		mark := ""
		if !g.Canonical {
			mark = "(not in order)"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\n", g.Label, g.Count, mark)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, warning := range insp.Warnings {
		fmt.Fprintf(w, "\nwarning: %s\n", warning)
	}
	return nil
}

func outputPath(out, name string) string {
	if out == "" {
		return name
	}
	if st, err := os.Stat(out); err == nil && st.IsDir() {
		return filepath.Join(out, name)
	}
	return out
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '，' }) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: leavenote <command>")
	fmt.Fprintln(w, "commands:")
	fmt.Fprintln(w, "  inspect  --input=名单.xlsx [--sheet=...] [--field=学院] [--json]")
	fmt.Fprintln(w, "  generate --input=名单.xlsx --kind=official|evening|morning --activity=... --work-date=...")
	fmt.Fprintln(w, "           [--activity-date=...] [--work-time=下午] [--columns=学院,姓名] [--format=docx|xlsx] [--out=...]")
	fmt.Fprintln(w, "  profile")
}
