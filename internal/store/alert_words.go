package store

import "github.com/zmirror/zmirror/internal/action"

// AlertWordsState is the user's alert-word list, replaced wholesale by the
// register snapshot and by alert-word events.
type AlertWordsState []string

// NewAlertWordsState returns the empty list.
func NewAlertWordsState() AlertWordsState {
	return nil
}

// ReduceAlertWords applies one action to the alert-word list.
func ReduceAlertWords(s AlertWordsState, a action.Action) AlertWordsState {
	switch a := a.(type) {
	case action.RegisterComplete:
		return append(AlertWordsState(nil), a.Data.AlertWords...)
	case action.EventAlertWords:
		return append(AlertWordsState(nil), a.AlertWords...)
	case action.ResetAccountData, action.Logout, action.LoginSuccess, action.AccountSwitch:
		return NewAlertWordsState()
	default:
		return s
	}
}
