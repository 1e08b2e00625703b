package bot

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"strings"

	"poker-ledger/internal/ledger"

	"github.com/rs/zerolog/log"
)

type Document struct {
	Filename string
	Content  []byte
	Caption  string
}

// Reply is what goes back to the chat. Document, when set, is sent instead of Text.
type Reply struct {
	Text     string
	Document *Document
}

type Dispatcher struct {
	svc     *ledger.Service
	isAdmin func(userID int64) bool
}

func NewDispatcher(svc *ledger.Service, isAdmin func(userID int64) bool) *Dispatcher {
	if isAdmin == nil {
		isAdmin = func(int64) bool { return false }
	}
	return &Dispatcher{svc: svc, isAdmin: isAdmin}
}

// Execute never fails: every ledger error becomes a user-facing reply.
func (d *Dispatcher) Execute(ctx context.Context, cmd Command) Reply {
	metricCommandsTotal.Add(cmd.Name, 1)
	reply, err := d.execute(ctx, cmd)
	if err != nil {
		metricCommandErrors.Add(cmd.Name, 1)
		return d.replyForError(cmd, err)
	}
	return reply
}

func (d *Dispatcher) execute(ctx context.Context, cmd Command) (Reply, error) {
	switch cmd.Name {
	case CmdNewGame:
		return d.newGame(ctx, cmd)
	case CmdJoin:
		return d.buyIn(ctx, cmd)
	case CmdAdd:
		return d.addChip(ctx, cmd)
	case CmdLeave:
		return d.cashOut(ctx, cmd)
	case CmdMe:
		return d.me(ctx, cmd)
	case CmdSummary:
		return d.summary(ctx)
	case CmdExport:
		return d.export(ctx, cmd)
	case CmdCurrent:
		sid, err := d.svc.CurrentSession(ctx)
		if err != nil {
			return Reply{}, err
		}
		return Reply{Text: msgCurrent(sid)}, nil
	default:
		return Reply{Text: helpText}, nil
	}
}

func (d *Dispatcher) newGame(ctx context.Context, cmd Command) (Reply, error) {
	if !d.isAdmin(cmd.UserID) {
		return Reply{}, ledger.ErrUnauthorized
	}
	sid, err := d.svc.OpenSession(ctx, cmd.UserID, cmd.DisplayName)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Text: msgSessionOpened(sid)}, nil
}

func (d *Dispatcher) buyIn(ctx context.Context, cmd Command) (Reply, error) {
	amount, err := parseAmount(cmd, "1000")
	if err != nil {
		return Reply{}, err
	}
	sid, err := d.svc.CurrentSession(ctx)
	if err != nil {
		return Reply{}, err
	}
	if err := d.svc.RecordBuyIn(ctx, sid, cmd.UserID, cmd.DisplayName, amount); err != nil {
		return Reply{}, err
	}
	return Reply{Text: msgBuyIn(cmd.DisplayName, amount)}, nil
}

func (d *Dispatcher) addChip(ctx context.Context, cmd Command) (Reply, error) {
	amount, err := parseAmount(cmd, "500")
	if err != nil {
		return Reply{}, err
	}
	sid, err := d.svc.CurrentSession(ctx)
	if err != nil {
		return Reply{}, err
	}
	if err := d.svc.RecordAddChip(ctx, sid, cmd.UserID, cmd.DisplayName, amount); err != nil {
		return Reply{}, err
	}
	return Reply{Text: msgAddChip(cmd.DisplayName, amount)}, nil
}

func (d *Dispatcher) cashOut(ctx context.Context, cmd Command) (Reply, error) {
	amount, err := parseAmount(cmd, "1500")
	if err != nil {
		return Reply{}, err
	}
	sid, err := d.svc.CurrentSession(ctx)
	if err != nil {
		return Reply{}, err
	}
	totals, err := d.svc.RecordCashOut(ctx, sid, cmd.UserID, cmd.DisplayName, amount)
	if errors.Is(err, ledger.ErrTotalsUnavailable) {
		log.Warn().Err(err).Int64("user_id", cmd.UserID).Msg("cash-out stored without totals")
		return Reply{Text: msgCashOutNoTotals(amount)}, nil
	}
	if err != nil {
		return Reply{}, err
	}
	return Reply{Text: msgCashOut(amount, totals)}, nil
}

func (d *Dispatcher) me(ctx context.Context, cmd Command) (Reply, error) {
	sid, err := d.svc.CurrentSession(ctx)
	if err != nil {
		return Reply{}, err
	}
	totals, ok, err := d.svc.PlayerStatus(ctx, sid, cmd.UserID)
	if err != nil {
		return Reply{}, err
	}
	if !ok {
		return Reply{Text: msgNotJoined}, nil
	}
	return Reply{Text: msgPlayerStatus(cmd.DisplayName, totals)}, nil
}

func (d *Dispatcher) summary(ctx context.Context) (Reply, error) {
	sid, err := d.svc.CurrentSession(ctx)
	if err != nil {
		return Reply{}, err
	}
	rows, err := d.svc.SessionSummary(ctx, sid)
	if err != nil {
		return Reply{}, err
	}
	if len(rows) == 0 {
		return Reply{Text: msgNoRecords}, nil
	}
	return Reply{Text: msgSummary(rows)}, nil
}

func (d *Dispatcher) export(ctx context.Context, cmd Command) (Reply, error) {
	if !d.isAdmin(cmd.UserID) {
		return Reply{}, ledger.ErrUnauthorized
	}
	sid, err := d.svc.CurrentSession(ctx)
	if err != nil {
		return Reply{}, err
	}
	txs, err := d.svc.ExportSession(ctx, sid)
	if err != nil {
		return Reply{}, err
	}
	if len(txs) == 0 {
		return Reply{Text: msgNoExportData}, nil
	}
	var buf bytes.Buffer
	if err := ledger.WriteCSV(&buf, txs); err != nil {
		return Reply{}, err
	}
	return Reply{Document: &Document{
		Filename: ledger.ExportFilename(sid),
		Content:  buf.Bytes(),
	}}, nil
}

// parseAmount only checks shape; sign rules belong to the ledger service.
func parseAmount(cmd Command, example string) (int64, error) {
	if len(cmd.Args) == 0 {
		return 0, &ledger.ValidationError{Field: "amount", Message: msgUsage(cmd.Name, example)}
	}
	n, err := strconv.ParseInt(cmd.Args[0], 10, 64)
	if err != nil {
		return 0, &ledger.ValidationError{Field: "amount", Message: "amount must be a whole number"}
	}
	return n, nil
}

func (d *Dispatcher) replyForError(cmd Command, err error) Reply {
	var verr *ledger.ValidationError
	switch {
	case errors.As(err, &verr):
		return Reply{Text: validationText(verr)}
	case errors.Is(err, ledger.ErrNoActiveSession):
		return Reply{Text: msgNoSession}
	case errors.Is(err, ledger.ErrUnauthorized):
		return Reply{Text: msgHostOnly}
	default:
		log.Error().Err(err).Str("command", cmd.Name).Int64("user_id", cmd.UserID).Msg("command failed")
		return Reply{Text: msgStorageFailed}
	}
}

func validationText(verr *ledger.ValidationError) string {
	msg := verr.Message
	if msg != "" {
		msg = strings.ToUpper(msg[:1]) + msg[1:]
	}
	return "⚠️ " + msg
}
