package bot

import telebot "gopkg.in/telebot.v3"

// Command constants for Telegram bot commands.
const (
	CommandStart    = "/start"
	CommandMenu     = "/menu"
	CommandCrypto   = "/crypto"
	CommandCalc     = "/calc"
	CommandFAQ      = "/faq"
	CommandChart    = "/chart"
	CommandHelp     = "/help"
	CommandLanguage = "/language"
)

// Route names for updates that are not a registered command.
const (
	RouteText            = "text"
	RouteUnknownCallback = "callback_unknown"
)

// menuCommands is published to Telegram so clients can autocomplete commands.
var menuCommands = []telebot.Command{
	{Text: "start", Description: "Start the bot"},
	{Text: "menu", Description: "Command menu"},
	{Text: "crypto", Description: "Cryptocurrency rates"},
	{Text: "calc", Description: "Position calculator"},
	{Text: "chart", Description: "Price chart"},
	{Text: "faq", Description: "Frequently asked questions"},
	{Text: "help", Description: "Help"},
	{Text: "language", Description: "Change language"},
}
