package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/clarete/agast"
	"github.com/clarete/agast/script"
	"github.com/clarete/agast/source"
)

const (
	formatTree  = "tree"
	formatTags  = "tags"
	formatTable = "table"
)

type runParams struct {
	script      string
	input       string
	format      string
	expressions []string
	config      string
	settings    []string
	check       bool
	metrics     bool
	showConfig  bool
	logLevel    string
	logFormat   string
}

var configuredRunParams = runParams{}

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Replay an instruction script",
	Long: `Replay an instruction script over an input and print what it built.

The input is read from --input, "-" meaning stdin, or else taken from
the script itself.  Gaps in the input are written as "$$".`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		if configuredRunParams.script == "" {
			return errors.New("no script specified")
		}
		switch configuredRunParams.format {
		case formatTree, formatTags, formatTable:
			return nil
		default:
			return fmt.Errorf("unknown format %q", configuredRunParams.format)
		}
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd.Context(), &configuredRunParams, os.Stdin, os.Stdout, os.Stderr)
	},
}

func init() {
	addRunFlags(runCommand.Flags(), &configuredRunParams)
	RootCommand.AddCommand(runCommand)
}

func addRunFlags(fs *pflag.FlagSet, params *runParams) {
	fs.StringVarP(&params.script, "script", "s", "", "path to the instruction script")
	fs.StringVarP(&params.input, "input", "i", "", "path to the input, - for stdin")
	fs.StringVarP(&params.format, "format", "f", formatTree, "output format: tree, tags or table")
	fs.StringArrayVarP(&params.expressions, "expression", "e", nil, "Type=text token spliced into the next gap of the input")
	fs.StringVar(&params.config, "config", "", "path to a YAML configuration file")
	fs.StringArrayVar(&params.settings, "set", nil, "override a setting, as key=value")
	fs.BoolVar(&params.check, "check", false, "compare the emitted tags with the ones the script expects")
	fs.BoolVar(&params.metrics, "metrics", false, "print evaluation metrics")
	fs.BoolVar(&params.showConfig, "show-config", false, "print the configuration before running")
	fs.StringVar(&params.logLevel, "log-level", "", "log level, overrides log.level")
	fs.StringVar(&params.logFormat, "log-format", "", "log format: text, json or json-pretty, overrides log.format")
}

func loadConfig(params *runParams) (*agast.Config, error) {
	cfg := agast.NewConfig()
	if params.config != "" {
		var err error
		if cfg, err = agast.LoadConfig(params.config); err != nil {
			return nil, err
		}
	}
	for _, setting := range params.settings {
		key, value, ok := strings.Cut(setting, "=")
		if !ok {
			return nil, fmt.Errorf("setting %q should be key=value", setting)
		}
		if err := cfg.SetFromString(key, value); err != nil {
			return nil, err
		}
	}
	if params.logLevel != "" {
		cfg.SetString("log.level", params.logLevel)
	}
	if params.logFormat != "" {
		cfg.SetString("log.format", params.logFormat)
	}
	return cfg, nil
}

// inputCursor builds the cursor to parse.  Files and the script input
// are read in memory, `$$` marks a gap.
func inputCursor(s *script.Script, params *runParams, cfg *agast.Config, stdin io.Reader) (source.Cursor, error) {
	if params.input == "-" {
		return source.FromReader(stdin,
			source.WithChunkSize(cfg.GetInt("source.chunk_size")),
			source.WithWindow(cfg.GetInt("source.window")),
		), nil
	}
	text := s.Input
	if params.input != "" {
		data, err := os.ReadFile(params.input)
		if err != nil {
			return nil, err
		}
		text = string(data)
	}
	var parts []source.Part
	for i, chunk := range strings.Split(text, "$$") {
		if i > 0 {
			parts = append(parts, source.Gap)
		}
		if chunk != "" {
			parts = append(parts, source.Text(chunk))
		}
	}
	return source.New(parts...), nil
}

func parseExpressions(language string, exprs []string) ([]agast.NodeView, error) {
	views := make([]agast.NodeView, 0, len(exprs))
	for _, expr := range exprs {
		typ, text, ok := strings.Cut(expr, "=")
		if !ok || typ == "" {
			return nil, fmt.Errorf("expression %q should be Type=text", expr)
		}
		views = append(views, agast.BuildToken(language, typ, text))
	}
	return views, nil
}

func run(ctx context.Context, params *runParams, stdin io.Reader, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig(params)
	if err != nil {
		return err
	}
	if params.showConfig {
		cfg.Debug(stderr)
	}
	log, err := newLogger(stderr, cfg.GetString("log.level"), cfg.GetString("log.format"))
	if err != nil {
		return err
	}

	s, err := script.Load(params.script)
	if err != nil {
		return err
	}
	cursor, err := inputCursor(s, params, cfg, stdin)
	if err != nil {
		return err
	}
	exprs, err := parseExpressions(s.Language.URL, params.expressions)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	metrics, err := agast.NewMetrics(reg)
	if err != nil {
		return err
	}

	log.WithField("script", params.script).Debug("running")
	root, tags, err := s.Run(ctx, cursor,
		agast.WithConfig(cfg),
		agast.WithLogger(log),
		agast.WithMetrics(metrics),
		agast.WithExpressions(exprs...),
	)
	if err != nil {
		return err
	}

	switch params.format {
	case formatTags:
		fmt.Fprintln(stdout, script.FormatTags(tags))
	case formatTable:
		printTagTable(stdout, tags)
	default:
		fmt.Fprintln(stdout, root.Highlight())
	}

	if params.metrics {
		if err := printMetrics(stdout, reg); err != nil {
			return err
		}
	}
	if params.check {
		return s.Check(tags)
	}
	return nil
}

func printTagTable(out io.Writer, tags []agast.Tag) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"#", "Kind", "Tag"})
	table.SetAlignment(tablewriter.ALIGN_CENTER)
	table.SetAutoFormatHeaders(false)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT})
	for i, t := range tags {
		table.Append([]string{strconv.Itoa(i), t.Kind().String(), agast.FormatTag(t)})
	}
	table.Render()
}

func printMetrics(out io.Writer, reg prometheus.Gatherer) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Name", "Labels", "Value"})
	table.SetAlignment(tablewriter.ALIGN_CENTER)
	table.SetAutoFormatHeaders(false)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})
	for _, family := range families {
		for _, m := range family.GetMetric() {
			table.Append([]string{family.GetName(), formatLabels(m.GetLabel()), fmt.Sprintf("%g", m.GetCounter().GetValue())})
		}
	}
	table.Render()
	return nil
}

func formatLabels(labels []*dto.LabelPair) string {
	parts := make([]string, len(labels))
	for i, l := range labels {
		parts[i] = l.GetName() + "=" + l.GetValue()
	}
	return strings.Join(parts, ",")
}
