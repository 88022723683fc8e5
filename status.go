package pam

import "fmt"

// Status is the outcome code returned by every backend operation.
// Values follow the Linux-PAM numbering so native results convert directly.
type Status int

const (
	Success             Status = 0
	OpenErr             Status = 1
	SymbolErr           Status = 2
	ServiceErr          Status = 3
	SystemErr           Status = 4
	BufErr              Status = 5
	PermDenied          Status = 6
	AuthErr             Status = 7
	CredInsufficient    Status = 8
	AuthinfoUnavail     Status = 9
	UserUnknown         Status = 10
	MaxTries            Status = 11
	NewAuthtokReqd      Status = 12
	AcctExpired         Status = 13
	SessionErr          Status = 14
	CredUnavail         Status = 15
	CredExpired         Status = 16
	CredErr             Status = 17
	NoModuleData        Status = 18
	ConvErr             Status = 19
	AuthtokErr          Status = 20
	AuthtokRecoveryErr  Status = 21
	AuthtokLockBusy     Status = 22
	AuthtokDisableAging Status = 23
	TryAgain            Status = 24
	Ignore              Status = 25
	Abort               Status = 26
	AuthtokExpired      Status = 27
	ModuleUnknown       Status = 28
	BadItem             Status = 29
	ConvAgain           Status = 30
	Incomplete          Status = 31
)

var statusNames = map[Status]string{
	Success:             "success",
	OpenErr:             "open_err",
	SymbolErr:           "symbol_err",
	ServiceErr:          "service_err",
	SystemErr:           "system_err",
	BufErr:              "buf_err",
	PermDenied:          "perm_denied",
	AuthErr:             "auth_err",
	CredInsufficient:    "cred_insufficient",
	AuthinfoUnavail:     "authinfo_unavail",
	UserUnknown:         "user_unknown",
	MaxTries:            "maxtries",
	NewAuthtokReqd:      "new_authtok_reqd",
	AcctExpired:         "acct_expired",
	SessionErr:          "session_err",
	CredUnavail:         "cred_unavail",
	CredExpired:         "cred_expired",
	CredErr:             "cred_err",
	NoModuleData:        "no_module_data",
	ConvErr:             "conv_err",
	AuthtokErr:          "authtok_err",
	AuthtokRecoveryErr:  "authtok_recovery_err",
	AuthtokLockBusy:     "authtok_lock_busy",
	AuthtokDisableAging: "authtok_disable_aging",
	TryAgain:            "try_again",
	Ignore:              "ignore",
	Abort:               "abort",
	AuthtokExpired:      "authtok_expired",
	ModuleUnknown:       "module_unknown",
	BadItem:             "bad_item",
	ConvAgain:           "conv_again",
	Incomplete:          "incomplete",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Error lets a Status travel as the source of a wrapped error.
func (s Status) Error() string {
	return "pam: " + s.String()
}

// OK reports whether s is Success.
func (s Status) OK() bool {
	return s == Success
}

// Flag modifies a backend call.
type Flag int

const (
	FlagNone             Flag = 0
	DisallowNullAuthtok  Flag = 0x0001
	EstablishCred        Flag = 0x0002
	DeleteCred           Flag = 0x0004
	ReinitializeCred     Flag = 0x0008
	RefreshCred          Flag = 0x0010
	ChangeExpiredAuthtok Flag = 0x0020
	Silent               Flag = 0x8000
)

// Has reports whether all bits of other are set.
func (f Flag) Has(other Flag) bool {
	return f&other == other
}
