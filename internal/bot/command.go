// Package bot turns chat commands into ledger operations and ledger results
// into chat replies.
package bot

import (
	"strings"

	"poker-ledger/internal/telegram"
)

const (
	CmdNewGame = "newgame"
	CmdJoin    = "join"
	CmdAdd     = "add"
	CmdLeave   = "leave"
	CmdMe      = "me"
	CmdSummary = "summary"
	CmdExport  = "export"
	CmdCurrent = "current"
	CmdHelp    = "help"
)

var aliases = map[string]string{
	"newgame": CmdNewGame,
	"open":    CmdNewGame,
	"join":    CmdJoin,
	"buyin":   CmdJoin,
	"add":     CmdAdd,
	"addon":   CmdAdd,
	"leave":   CmdLeave,
	"cashout": CmdLeave,
	"me":      CmdMe,
	"status":  CmdMe,
	"summary": CmdSummary,
	"export":  CmdExport,
	"current": CmdCurrent,
	"help":    CmdHelp,
	"start":   CmdHelp,
}

type Command struct {
	Name        string
	Args        []string
	ChatID      int64
	UserID      int64
	DisplayName string
}

// ParseText splits "/join@SomeBot 1000" into ("join", ["1000"]). Unknown
// commands and plain text report ok=false.
func ParseText(text string) (string, []string, bool) {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", nil, false
	}
	name := strings.TrimPrefix(fields[0], "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	canonical, ok := aliases[strings.ToLower(name)]
	if !ok {
		return "", nil, false
	}
	return canonical, fields[1:], true
}

func FromUpdate(u telegram.Update) (Command, bool) {
	if u.Message == nil || u.Message.Chat == nil || u.Message.Sender == nil || u.Message.Sender.IsBot {
		return Command{}, false
	}
	name, args, ok := ParseText(u.Message.Text)
	if !ok {
		return Command{}, false
	}
	return Command{
		Name:        name,
		Args:        args,
		ChatID:      u.Message.Chat.ID,
		UserID:      u.Message.Sender.ID,
		DisplayName: telegram.FullName(u.Message.Sender),
	}, true
}
