package domain

// SessionState is the signed-in state shown to the user. LastError holds the
// most recent failure message until a successful login or a logout.
// DisplayName and UserPrincipalName are empty when the calendar provider
// does not describe the account.
type SessionState struct {
	LoggedIn          bool   `json:"logged_in"`
	LastError         string `json:"last_error,omitempty"`
	TimeZone          string `json:"time_zone"`
	DisplayName       string `json:"display_name,omitempty"`
	UserPrincipalName string `json:"user_principal_name,omitempty"`
}
