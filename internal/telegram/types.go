// Package telegram connects the ledger bot to the Bot API through telebot:
// supervised long polling, webhook intake and the two reply methods.
package telegram

import (
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"
)

type (
	Update  = tele.Update
	Message = tele.Message
	User    = tele.User
	Chat    = tele.Chat
)

// ChatID is zero for updates without a message.
func ChatID(u Update) int64 {
	if u.Message == nil || u.Message.Chat == nil {
		return 0
	}
	return u.Message.Chat.ID
}

// FullName falls back to the username, then to the numeric id.
func FullName(u *User) string {
	if u == nil {
		return ""
	}
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name != "" {
		return name
	}
	if u.Username != "" {
		return u.Username
	}
	return strconv.FormatInt(u.ID, 10)
}
