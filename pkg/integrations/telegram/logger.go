package telegram

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// botLogger routes the Bot API library's own logging into zerolog. The
// library uses Println for update polling failures and Printf for debug dumps.
type botLogger struct{}

func newBotLogger() botLogger {
	return botLogger{}
}

func (botLogger) Println(v ...interface{}) {
	log.Warn().Str("component", "telegram-bot-api").Msg(strings.TrimSuffix(fmt.Sprintln(v...), "\n"))
}

func (botLogger) Printf(format string, v ...interface{}) {
	log.Debug().Str("component", "telegram-bot-api").Msgf(format, v...)
}
