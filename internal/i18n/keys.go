package i18n

// Message keys used by the bot handlers and middlewares.
const (
	KeyWelcome  = "start.welcome"
	KeyOpenMenu = "start.open_menu"

	KeyMenuTitle    = "menu.title"
	KeyMenuCrypto   = "menu.crypto"
	KeyMenuCalc     = "menu.calc"
	KeyMenuChart    = "menu.chart"
	KeyMenuFAQ      = "menu.faq"
	KeyMenuHelp     = "menu.help"
	KeyMenuLanguage = "menu.language"

	KeyCryptoPrices = "crypto.prices"
	KeyCryptoLine   = "crypto.line"

	KeyCalcUsage            = "calc.usage"
	KeyCalcPositionSize     = "calc.position_size"
	KeyCalcLiquidationPrice = "calc.liquidation_price"

	KeyFAQSelect   = "faq.select"
	KeyFAQNotFound = "faq.not_found"
	KeyFAQAnswer   = "faq.answer"

	KeyHelpAbout = "help.about"
	KeyHelpWhy   = "help.why"
	KeyHelpCalc  = "help.calc"

	KeyChartSelectToken            = "chart.select_token"
	KeyChartCaption                = "chart.caption"
	KeyChartDescription            = "chart.description"
	KeyChartDescriptionUnavailable = "chart.description_unavailable"
	KeyChartError                  = "chart.error"
	KeyChartTokenNotFound          = "chart.token_not_found"
	KeyChartTitle                  = "chart.title"
	KeyChartAxisDate               = "chart.axis_date"
	KeyChartAxisPrice              = "chart.axis_price"

	KeyTextHello   = "text.hello"
	KeyTextBye     = "text.bye"
	KeyTextUnknown = "text.unknown"

	KeyLanguageSelect  = "language.select"
	KeyLanguageRU      = "language.ru"
	KeyLanguageEN      = "language.en"
	KeyLanguageChanged = "language.changed"

	KeyErrorFormat      = "errors.format"
	KeyErrorGeneric     = "errors.generic"
	KeyErrorUpstream    = "errors.upstream"
	KeyErrorValidation  = "errors.validation"
	KeyErrorRateLimited = "errors.rate_limited"
)

// RouterKeys lists every key the bot can render.
func RouterKeys() []string {
	return []string{
		KeyWelcome, KeyOpenMenu,
		KeyMenuTitle, KeyMenuCrypto, KeyMenuCalc, KeyMenuChart, KeyMenuFAQ, KeyMenuHelp, KeyMenuLanguage,
		KeyCryptoPrices, KeyCryptoLine,
		KeyCalcUsage, KeyCalcPositionSize, KeyCalcLiquidationPrice,
		KeyFAQSelect, KeyFAQNotFound, KeyFAQAnswer,
		KeyHelpAbout, KeyHelpWhy, KeyHelpCalc,
		KeyChartSelectToken, KeyChartCaption, KeyChartDescription, KeyChartDescriptionUnavailable,
		KeyChartError, KeyChartTokenNotFound, KeyChartTitle, KeyChartAxisDate, KeyChartAxisPrice,
		KeyTextHello, KeyTextBye, KeyTextUnknown,
		KeyLanguageSelect, KeyLanguageRU, KeyLanguageEN, KeyLanguageChanged,
		KeyErrorFormat, KeyErrorGeneric, KeyErrorUpstream, KeyErrorValidation, KeyErrorRateLimited,
	}
}

// LanguageButtonKey returns the key labelling the button for lang.
func LanguageButtonKey(lang string) string {
	return "language." + lang
}
