package bot

import (
	"context"

	"poker-ledger/internal/telegram"

	"github.com/rs/zerolog/log"
)

type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendDocument(ctx context.Context, chatID int64, filename string, content []byte, caption string) error
}

// UpdateHandler runs one Telegram update through the dispatcher and sends the reply.
type UpdateHandler struct {
	dispatcher *Dispatcher
	sender     Sender
}

func NewUpdateHandler(d *Dispatcher, sender Sender) *UpdateHandler {
	return &UpdateHandler{dispatcher: d, sender: sender}
}

func (h *UpdateHandler) HandleUpdate(ctx context.Context, u telegram.Update) {
	cmd, ok := FromUpdate(u)
	if !ok {
		return
	}
	reply := h.dispatcher.Execute(ctx, cmd)

	var err error
	if reply.Document != nil {
		err = h.sender.SendDocument(ctx, cmd.ChatID, reply.Document.Filename, reply.Document.Content, reply.Document.Caption)
	} else if reply.Text != "" {
		err = h.sender.SendMessage(ctx, cmd.ChatID, reply.Text)
	}
	if err != nil {
		metricReplyFailures.Add(1)
		log.Warn().Err(err).Str("command", cmd.Name).Int64("chat_id", cmd.ChatID).Msg("reply failed")
		return
	}
	log.Debug().Str("command", cmd.Name).Int64("chat_id", cmd.ChatID).Int64("user_id", cmd.UserID).Msg("command handled")
}
