package gate

import "golang.org/x/text/language"

var supportedLocales = []language.Tag{
	language.Indonesian,
	language.English,
}

var localeMatcher = language.NewMatcher(supportedLocales)

var denyMessages = map[language.Tag]map[Reason]string{
	language.Indonesian: {
		ReasonNeverSelected:  "Pilih paket berlangganan untuk mulai menggunakan aplikasi.",
		ReasonTrialExhausted: "Masa uji coba gratis Anda sudah berakhir. Silakan pilih paket berbayar.",
		ReasonExpired:        "Langganan Anda sudah berakhir. Silakan perbarui paket Anda.",
	},
	language.English: {
		ReasonNeverSelected:  "Choose a subscription plan to start using the app.",
		ReasonTrialExhausted: "Your free trial has ended. Please pick a paid plan.",
		ReasonExpired:        "Your subscription has expired. Please renew your plan.",
	},
}

// Message returns the human-readable deny message in the best matching
// locale. Allowed decisions and the loading state have no message.
func (d Decision) Message(locale string) string {
	if d.Allow || d.Reason == ReasonNone || d.Reason == ReasonLoading {
		return ""
	}
	_, idx := language.MatchStrings(localeMatcher, locale)
	return denyMessages[supportedLocales[idx]][d.Reason]
}
