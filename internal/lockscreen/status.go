package lockscreen

import (
	"github.com/dmitrijs2005/gophlock/internal/i18n"
	"github.com/dmitrijs2005/gophlock/internal/unlock"
)

// StatusLine is the localized text describing s.
func StatusLine(tr Translator, s unlock.State) string {
	switch s {
	case unlock.StateVerifyingSecret:
		return tr.T(i18n.MsgStatusVerifyingSecret)
	case unlock.StateVerifyingBiometric:
		return tr.T(i18n.MsgStatusVerifyingBiometric)
	case unlock.StateUnlocked:
		return tr.T(i18n.MsgStatusUnlocked)
	default:
		return tr.T(i18n.MsgStatusAwaitingInput)
	}
}
