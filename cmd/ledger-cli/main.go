// Command ledger-cli inspects and exports the poker ledger from a terminal.
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"poker-ledger/internal/config"
	"poker-ledger/internal/ledger"
	"poker-ledger/internal/logging"
	"poker-ledger/internal/storage"

	"github.com/pterm/pterm"
)

const usage = `usage: ledger-cli [flags] <command> [args]

commands:
  current                      print the active session id
  summary [session]            per-player totals
  player <id> [session]        one player's totals
  export [-o file] [session]   write the session CSV
  open <requester_id> <name>   open a new session
`

func main() {
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	logCfg, err := config.LoadLog()
	if err != nil {
		pterm.Error.Printfln("load log config: %v", err)
		os.Exit(1)
	}
	// Keep library logs out of the table output unless asked for.
	if os.Getenv("LOG_LEVEL") == "" {
		logCfg.Level = "warn"
	}
	logging.Init(logCfg)

	if err := run(context.Background(), flag.Args()); err != nil {
		pterm.Error.Println(err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	storeCfg, err := config.LoadStore()
	if err != nil {
		return fmt.Errorf("load store config: %w", err)
	}
	ledgerCfg, err := config.LoadLedger()
	if err != nil {
		return fmt.Errorf("load ledger config: %w", err)
	}
	policy, ok := ledger.ParseStatusPolicy(ledgerCfg.StatusPolicy)
	if !ok {
		return fmt.Errorf("unknown LEDGER_STATUS_POLICY %q", ledgerCfg.StatusPolicy)
	}
	backend, err := storage.Open(ctx, storeCfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer backend.Close()

	c := &cli{svc: ledger.NewService(backend, ledger.WithStatusPolicy(policy))}
	return c.dispatch(ctx, args)
}

type cli struct {
	svc *ledger.Service
}

var errUsage = errors.New("bad arguments, see -h")

func (c *cli) dispatch(ctx context.Context, args []string) error {
	switch args[0] {
	case "current":
		id, err := c.svc.CurrentSession(ctx)
		if err != nil {
			return err
		}
		pterm.Info.Printfln("current session: %s", id)
		return nil
	case "summary":
		sessionID, err := c.session(ctx, args[1:], 0)
		if err != nil {
			return err
		}
		rows, err := c.svc.SessionSummary(ctx, sessionID)
		if err != nil {
			return err
		}
		return renderSummary(sessionID, rows)
	case "player":
		if len(args) < 2 {
			return errUsage
		}
		playerID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("player id %q is not a number", args[1])
		}
		sessionID, err := c.session(ctx, args[2:], 0)
		if err != nil {
			return err
		}
		totals, found, err := c.svc.PlayerStatus(ctx, sessionID, playerID)
		if err != nil {
			return err
		}
		if !found {
			pterm.Warning.Printfln("player %d has no records in session %s", playerID, sessionID)
			return nil
		}
		renderPlayer(playerID, totals)
		return nil
	case "export":
		out, rest, err := parseExportFlags(args[1:])
		if err != nil {
			return err
		}
		sessionID, err := c.session(ctx, rest, 0)
		if err != nil {
			return err
		}
		txs, err := c.svc.ExportSession(ctx, sessionID)
		if err != nil {
			return err
		}
		if out == "" {
			out = ledger.ExportFilename(sessionID)
		}
		var buf bytes.Buffer
		if err := ledger.WriteCSV(&buf, txs); err != nil {
			return err
		}
		if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		pterm.Success.Printfln("exported %d rows to %s", len(txs), out)
		return nil
	case "open":
		if len(args) < 3 {
			return errUsage
		}
		requesterID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("requester id %q is not a number", args[1])
		}
		id, err := c.svc.OpenSession(ctx, requesterID, args[2])
		if err != nil {
			return err
		}
		pterm.Success.Printfln("opened session %s", id)
		return nil
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// parseExportFlags accepts -o before or after the session argument.
func parseExportFlags(args []string) (string, []string, error) {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	out := fs.String("o", "", "output file (default game_<session>.csv)")
	if err := fs.Parse(args); err != nil {
		return "", nil, fmt.Errorf("export: %w", err)
	}
	rest := fs.Args()
	if len(rest) > 1 {
		if err := fs.Parse(rest[1:]); err != nil {
			return "", nil, fmt.Errorf("export: %w", err)
		}
		rest = append([]string{rest[0]}, fs.Args()...)
	}
	if len(rest) > 1 {
		return "", nil, errUsage
	}
	return *out, rest, nil
}

// session returns args[i] when present, else the current session id.
func (c *cli) session(ctx context.Context, args []string, i int) (string, error) {
	if len(args) > i && args[i] != "" {
		if strings.HasPrefix(args[i], "-") {
			return "", fmt.Errorf("unexpected flag %q: %w", args[i], errUsage)
		}
		return args[i], nil
	}
	return c.svc.CurrentSession(ctx)
}
