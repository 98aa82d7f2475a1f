package webapi

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func TestFileEndpoint(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", tgbotapi.FileEndpoint},
		{"http://localhost:8081/bot%s/%s", "http://localhost:8081/file/bot%s/%s"},
	}

	for _, tt := range tests {
		if got := fileEndpoint(tt.in); got != tt.want {
			t.Errorf("fileEndpoint(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
