package dialog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseIntent(t *testing.T) {
	tests := []struct {
		name string
		text string
		want IntentKind
	}{
		{name: "start command", text: "/start", want: IntentStart},
		{name: "menu command", text: "/menu", want: IntentMainMenu},
		{name: "menu button text", text: "Главное меню", want: IntentMainMenu},
		{name: "book command", text: "/book", want: IntentBook},
		{name: "book button text", text: "Забронировать", want: IntentBook},
		{name: "my bookings", text: "мои бронирования", want: IntentMyBookings},
		{name: "cancel command", text: "/cancel", want: IntentCancelBooking},
		{name: "cancel button text", text: "Отменить бронирование", want: IntentCancelBooking},
		{name: "balance", text: "/balance", want: IntentBalance},
		{name: "surrounding whitespace", text: "  /book  ", want: IntentBook},
		{name: "free text", text: "привет", want: IntentText},
		{name: "number answer", text: "2", want: IntentText},
		{name: "unknown command", text: "/unknown", want: IntentText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseIntent(tt.text)
			assert.Equal(t, tt.want, got.Kind)
		})
	}
}

func TestParseIntent_KeepsTrimmedText(t *testing.T) {
	got := ParseIntent("  3  ")
	assert.Equal(t, IntentText, got.Kind)
	assert.Equal(t, "3", got.Text)
}
