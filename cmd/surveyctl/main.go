package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/stemsi/surveychain/internal/browse"
	"github.com/stemsi/surveychain/internal/canister"
	"github.com/stemsi/surveychain/internal/config"
	"github.com/stemsi/surveychain/internal/ledger"
	"github.com/stemsi/surveychain/internal/logger"
	"github.com/stemsi/surveychain/internal/service"
	"github.com/stemsi/surveychain/internal/summary"
	"golang.org/x/term"
)

func main() {
	flag.Usage = printUsage
	flag.Parse()
	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(2)
	}

	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.New(os.Stderr, cfg.LogLevel, cfg.LogFormat).With().Str("component", "surveyctl").Logger()

	// ─── Canister Clients ──────────────────────────────────────────────
	canisters := service.NewCanisters(canister.NewAgent(cfg, log), cfg)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.CallTimeout*time.Duration(cfg.CallMaxRetries+1))
	defer cancel()

	token, err := readToken()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read identity token")
	}

	var out any
	switch cmd := args[0]; cmd {
	case "balance":
		if len(args) < 2 {
			log.Fatal().Msg("balance requires a principal")
		}
		owner, err := ledger.ParsePrincipal(args[1])
		if err != nil {
			log.Fatal().Err(err).Str("principal", args[1]).Msg("Invalid principal")
		}
		e8s, err := canisters.Ledger(token).BalanceOf(ctx, ledger.NewAccount(owner))
		if err != nil {
			log.Fatal().Err(err).Msg("Balance query failed")
		}
		out = service.Balance{Principal: owner.String(), E8s: e8s, ICP: ledger.FormatICP(e8s)}

	case "forms":
		forms, err := canisters.Backend(token).GetAllForms(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("List forms failed")
		}
		var q browse.Query
		if len(args) > 1 {
			q.Search = strings.Join(args[1:], " ")
		}
		out = browse.Filter(forms, q)

	case "form":
		if len(args) < 2 {
			log.Fatal().Msg("form requires a form id")
		}
		form, err := canisters.Backend(token).GetForm(ctx, args[1])
		if err != nil {
			log.Fatal().Err(err).Str("form_id", args[1]).Msg("Get form failed")
		}
		out = form

	case "summary":
		if len(args) < 2 {
			log.Fatal().Msg("summary requires a form id")
		}
		rs, err := canisters.Backend(token).GetFormResponseSummary(ctx, args[1])
		if err != nil {
			log.Fatal().Err(err).Str("form_id", args[1]).Msg("Get summary failed")
		}
		report, err := summary.Build(rs)
		if err != nil {
			log.Fatal().Err(err).Msg("Summary is malformed")
		}
		out = report

	default:
		printUsage()
		os.Exit(2)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatal().Err(err).Msg("Failed to write output")
	}
}

// readToken takes the identity token from SURVEYCTL_TOKEN, or prompts for it
// without echo when stdin is a terminal.
func readToken() (string, error) {
	if token := strings.TrimSpace(os.Getenv("SURVEYCTL_TOKEN")); token != "" {
		return token, nil
	}

	fd := int(syscall.Stdin)
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return strings.TrimSpace(line), nil
	}

	fmt.Fprint(os.Stderr, "Identity token: ")
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	token := strings.TrimSpace(string(raw))
	if token == "" {
		return "", fmt.Errorf("identity token is required")
	}
	return token, nil
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: surveyctl <command> [args]")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  balance <principal>   ledger balance in e8s and ICP")
	fmt.Fprintln(os.Stderr, "  forms [search]        published forms, optionally filtered")
	fmt.Fprintln(os.Stderr, "  form <id>             one form with its questions")
	fmt.Fprintln(os.Stderr, "  summary <id>          response summary as chart series")
	fmt.Fprintln(os.Stderr, "The token is read from SURVEYCTL_TOKEN or prompted for.")
}
