package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/rs/zerolog"

	"github.com/lox/bridgedealer/internal/config"
	"github.com/lox/bridgedealer/internal/deck"
	"github.com/lox/bridgedealer/internal/engine"
	"github.com/lox/bridgedealer/internal/eval"
	"github.com/lox/bridgedealer/internal/format"
	"github.com/lox/bridgedealer/internal/gen"
	"github.com/lox/bridgedealer/internal/script"
)

// version is set by ldflags during build
var version = "dev"

// Exit codes: 0 success, 2 parse error, 3 configuration error,
// 4 fatal evaluation error, 124 timeout.
const (
	exitParse   = 2
	exitConfig  = 3
	exitEval    = 4
	exitTimeout = 124
)

type CLI struct {
	InputFile string `arg:"" optional:"" help:"Input script file (reads stdin if omitted)"`

	Produce    *int    `short:"p" help:"Produce this many matching deals"`
	Generate   *int    `short:"g" help:"Generate at most this many deals"`
	Seed       *uint64 `short:"s" help:"Master random seed (default: wall-clock microseconds)"`
	Format     *string `short:"f" help:"Output format: oneline, all, ew, pbn, compact"`
	Dealer     *string `short:"d" help:"Dealer seat: N, E, S or W"`
	Vulnerable *string `help:"Vulnerability: none, NS, EW or all"`

	North *string `short:"N" help:"Predeal cards to North (e.g. S8743,HA9)"`
	East  *string `short:"E" help:"Predeal cards to East"`
	South *string `short:"S" help:"Predeal cards to South"`
	West  *string `short:"W" help:"Predeal cards to West"`

	Title string `short:"T" help:"Title metadata passed to the formatter"`
	CSV   string `short:"C" name:"csv" help:"CSV report file (prefix with w: to truncate)"`

	Threads   int  `short:"R" default:"0" help:"Worker count for fast mode (0 = auto)"`
	BatchSize int  `name:"batch-size" default:"0" help:"Work units per batch (0 = auto)"`
	Legacy    bool `help:"Single-threaded mode with the historical PRNG"`

	Timeout  int              `short:"t" help:"Stop generation after this many seconds"`
	Verbose  bool             `short:"v" help:"Verbose diagnostics"`
	Quiet    bool             `short:"q" help:"Suppress deal output, print statistics only"`
	Progress bool             `short:"m" help:"Show a progress meter on stderr"`
	Version  kong.VersionFlag `short:"V" help:"Show version"`

	ConfigFile string `name:"config" default:"bridgedealer.hcl" help:"HCL defaults file"`
}

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("bridgedealer"),
		kong.Description("Constraint-driven bridge deal generator"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		kong.Vars{"version": version},
	)

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: false})
	if cli.Verbose {
		logger.SetLevel(log.DebugLevel)
	}

	os.Exit(run(&cli, logger))
}

func run(cli *CLI, logger *log.Logger) int {
	fileDefaults, err := config.LoadFile(cli.ConfigFile)
	if err != nil {
		logger.Error("Invalid config file", "err", err)
		return exitConfig
	}

	source, err := readInput(cli.InputFile)
	if err != nil {
		logger.Error("Cannot read input", "err", err)
		return exitConfig
	}

	prog, err := script.Parse(source)
	if err != nil {
		logger.Error("Parse failed", "err", err)
		return exitParse
	}

	overrides, err := buildOverrides(cli)
	if err != nil {
		logger.Error("Invalid configuration", "err", err)
		return exitConfig
	}
	resolved := config.Resolve(overrides, prog, fileDefaults)

	// A generate target with no produce target anywhere means "run the
	// full generate count": the produce default must not cut it short.
	if cli.Generate != nil && cli.Produce == nil && prog.Produce == nil {
		resolved.Produce = int(^uint(0) >> 1)
	}

	predeal, err := buildPredeal(cli, prog)
	if err != nil {
		logger.Error("Predeal conflict", "err", err)
		return exitConfig
	}

	seed := uint64(time.Now().UnixMicro())
	if cli.Seed != nil {
		seed = *cli.Seed
	}

	var csvWriter *bufio.Writer
	var csvFile *os.File
	if cli.CSV != "" {
		csvFile, err = openCSV(cli.CSV)
		if err != nil {
			logger.Error("Cannot open CSV report file", "err", err)
			return exitConfig
		}
		defer csvFile.Close()
		csvWriter = bufio.NewWriter(csvFile)
		defer csvWriter.Flush()
	}

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	engineLogger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.ErrorLevel)
	if cli.Verbose {
		engineLogger = engineLogger.Level(zerolog.DebugLevel)
	}

	csvCtx := eval.NewContext(prog)
	now := time.Now()

	emit := func(e engine.Emitted) error {
		if !cli.Quiet {
			switch resolved.Format {
			case script.FormatAll:
				fmt.Fprint(out, format.PrintAll(&e.Deal, e.Number))
			case script.FormatEW:
				fmt.Fprint(out, format.PrintEW(&e.Deal))
			case script.FormatPBN:
				fmt.Fprint(out, format.PBN(&e.Deal, format.PBNOptions{
					Board:     e.Number,
					Dealer:    &resolved.Dealer,
					Vul:       &resolved.Vulnerable,
					Event:     cli.Title,
					Seed:      seed,
					InputFile: cli.InputFile,
					Date:      now,
				}))
			case script.FormatCompact:
				fmt.Fprint(out, format.Compact(&e.Deal))
			default:
				fmt.Fprint(out, format.OneLine(&e.Deal))
			}
		}

		if csvWriter != nil && len(prog.CSVReports) > 0 {
			csvCtx.Reset(&e.Deal)
			for _, terms := range prog.CSVReports {
				row, err := format.CSVRow(&e.Deal, terms, csvCtx.Eval)
				if err != nil {
					return err
				}
				if _, err := csvWriter.WriteString(row); err != nil {
					return err
				}
			}
		}
		return nil
	}

	sup := engine.New(engine.Config{
		Program:   prog,
		Predeal:   predeal,
		Seed:      seed,
		Legacy:    cli.Legacy,
		Produce:   resolved.Produce,
		Generate:  resolved.Generate,
		Workers:   resolved.Workers,
		BatchSize: resolved.BatchSize,
		Timeout:   time.Duration(cli.Timeout) * time.Second,
		Logger:    engineLogger,
		Emit:      emit,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cli.Progress {
		go progressMeter(ctx, sup, logger)
	}

	start := time.Now()
	result, err := sup.Run(ctx)
	if err != nil {
		logger.Error("Evaluation failed", "err", err)
		return exitEval
	}
	elapsed := time.Since(start)

	// Averages and frequency tables go to stderr, leaving stdout as
	// the recoverable line-oriented deal stream.
	for i := range result.Totals.Averages {
		fmt.Fprint(os.Stderr, format.Average(&result.Totals.Averages[i]))
	}
	for i := range result.Totals.Frequencies {
		fmt.Fprint(os.Stderr, format.Frequency(&result.Totals.Frequencies[i]))
	}

	out.Flush()
	fmt.Print(format.RunSummary(result.Generated, result.Produced, seed, elapsed.Seconds()))

	if result.TimedOut {
		logger.Warn("Timed out",
			"generated", result.Generated, "produced", result.Produced)
		return exitTimeout
	}
	return 0
}

func readInput(path string) (string, error) {
	if path == "" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}

func buildOverrides(cli *CLI) (config.Overrides, error) {
	over := config.Overrides{
		Produce:  cli.Produce,
		Generate: cli.Generate,
	}
	if cli.Threads > 0 {
		over.Workers = &cli.Threads
	}
	if cli.BatchSize > 0 {
		over.BatchSize = &cli.BatchSize
	}
	if cli.Dealer != nil {
		seat, ok := deck.ParseSeat(*cli.Dealer)
		if !ok {
			return over, fmt.Errorf("%w: %q", config.ErrBadSeat, *cli.Dealer)
		}
		over.Dealer = &seat
	}
	if cli.Vulnerable != nil {
		vul, ok := script.ParseVulnerability(*cli.Vulnerable)
		if !ok {
			return over, fmt.Errorf("%w: %q", config.ErrBadVulnerability, *cli.Vulnerable)
		}
		over.Vulnerable = &vul
	}
	if cli.Format != nil {
		f, ok := script.ParseFormat(*cli.Format)
		if !ok {
			return over, fmt.Errorf("%w: %q", config.ErrBadFormat, *cli.Format)
		}
		over.Format = &f
	}
	return over, nil
}

// buildPredeal merges CLI predeal flags with in-program predeal
// statements into one validated layout.
func buildPredeal(cli *CLI, prog *script.Program) (*gen.Predeal, error) {
	predeal := &gen.Predeal{}

	flags := []struct {
		seat  deck.Seat
		value *string
	}{
		{deck.North, cli.North},
		{deck.East, cli.East},
		{deck.South, cli.South},
		{deck.West, cli.West},
	}
	for _, flag := range flags {
		if flag.value == nil {
			continue
		}
		cards, err := parsePredealCards(*flag.value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", gen.ErrPredealConflict, flag.seat, err)
		}
		if err := predeal.Add(flag.seat, cards); err != nil {
			return nil, err
		}
	}

	for _, spec := range prog.Predeals {
		if err := predeal.Add(spec.Seat, spec.Cards); err != nil {
			return nil, err
		}
	}

	if predeal.Empty() {
		return nil, nil
	}
	return predeal, nil
}

// parsePredealCards parses comma-separated predeal tokens. A token is
// either a rank-suit card (AS, KH) or a suit letter followed by ranks
// (S8743).
func parsePredealCards(s string) ([]deck.Card, error) {
	var cards []deck.Card
	for _, token := range strings.Split(s, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if len(token) == 2 {
			if c, err := deck.ParseCard(token); err == nil {
				cards = append(cards, c)
				continue
			}
		}
		suit, ok := deck.ParseSuit(token[0])
		if !ok {
			return nil, fmt.Errorf("invalid card token %q", token)
		}
		if len(token) < 2 {
			return nil, fmt.Errorf("invalid card token %q", token)
		}
		for i := 1; i < len(token); i++ {
			rank, ok := deck.ParseRank(token[i])
			if !ok {
				return nil, fmt.Errorf("invalid rank %q in %q", string(token[i]), token)
			}
			cards = append(cards, deck.NewCard(suit, rank))
		}
	}
	return cards, nil
}

// openCSV opens the report file in append mode, or truncates it when
// the name carries a w: prefix.
func openCSV(arg string) (*os.File, error) {
	name := arg
	truncate := false
	if rest, ok := strings.CutPrefix(arg, "w:"); ok {
		name = rest
		truncate = true
	}
	flags := os.O_CREATE | os.O_WRONLY
	if truncate {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_APPEND
	}
	return os.OpenFile(name, flags, 0o644)
}

// progressMeter periodically reports the supervisor's counters.
func progressMeter(ctx context.Context, sup *engine.Supervisor, logger *log.Logger) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			generated, produced := sup.Counters()
			logger.Info("Progress",
				"generated", generated,
				"produced", produced,
				"elapsed", time.Since(start).Round(time.Second))
		}
	}
}

// errorExitCode is kept for tests: it maps an error to the exit code
// run would return for it.
func errorExitCode(err error) int {
	var perr *script.Error
	switch {
	case err == nil:
		return 0
	case errors.As(err, &perr):
		return exitParse
	case errors.Is(err, gen.ErrPredealConflict),
		errors.Is(err, config.ErrBadSeat),
		errors.Is(err, config.ErrBadVulnerability),
		errors.Is(err, config.ErrBadFormat):
		return exitConfig
	case errors.Is(err, eval.ErrUnknownVar),
		errors.Is(err, eval.ErrCyclicVar),
		errors.Is(err, eval.ErrDivByZero),
		errors.Is(err, eval.ErrStackOverflow),
		errors.Is(err, eval.ErrBadArgument):
		return exitEval
	default:
		return 1
	}
}
