package dialog_message

import "github.com/m04kA/SkiSchool-BookingService/internal/dialog"

// DialogMessageRequest входящее сообщение пользователя от бот-шлюза
type DialogMessageRequest struct {
	TgUserID int64  `json:"tgUserId"`
	Text     string `json:"text"`
}

// DialogReplyResponse ответ диалогового движка
type DialogReplyResponse struct {
	Text    string   `json:"text"`
	Options []string `json:"options,omitempty"`
}

// FromReply конвертирует ответ контроллера в HTTP response
func FromReply(reply *dialog.Reply) *DialogReplyResponse {
	return &DialogReplyResponse{
		Text:    reply.Text,
		Options: reply.Options,
	}
}
