package telegram

import "strings"

type Command struct {
	Name        string
	Description string
}

const (
	CommandName_Help     = "help"
	CommandName_Start    = "start"
	CommandName_Download = "download"
)

// Commands is the public command surface. /start is accepted as an alias of
// /help but not advertised.
var Commands = []Command{
	{
		Name:        CommandName_Help,
		Description: "display this text.",
	},
	{
		Name:        CommandName_Download,
		Description: "Download provided sticker set",
	},
}

func HelpText() string {
	var b strings.Builder

	b.WriteString("These commands are supported:")
	for _, command := range Commands {
		b.WriteString("\n/")
		b.WriteString(command.Name)
		b.WriteString(" - ")
		b.WriteString(command.Description)
	}

	b.WriteString("\n\nYou can also send a sticker, or a https://t.me/addstickers/... or https://t.me/addemoji/... link.")

	return b.String()
}
