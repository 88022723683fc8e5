package pam

// systemPath is appended to the inherited PATH of every session.
const systemPath = "/usr/local/sbin:/usr/local/bin:/usr/bin"

type envVar struct {
	key   string
	value string
}

// sessionEnvironment lists the session variables in assignment order.
// Later entries are meaningless without the earlier ones.
func sessionEnvironment(account *Account, inheritedPath string) []envVar {
	path := systemPath
	if inheritedPath != "" {
		path = inheritedPath + ":" + systemPath
	}

	return []envVar{
		{key: "USER", value: account.Name},
		{key: "LOGNAME", value: account.Name},
		{key: "HOME", value: account.HomeDir},
		{key: "PWD", value: account.HomeDir},
		{key: "SHELL", value: account.Shell},
		{key: "PATH", value: path},
	}
}

type environmentInitializer struct {
	handle   Handle
	identity IdentityDB
	process  ProcessEnv
	logger   Logger
}

// initialize sets the session variables for user in the process and in
// the backend context. The first backend rejection stops the sequence.
func (e environmentInitializer) initialize(user string) error {
	account, err := e.identity.LookupAccount(user)
	if err != nil || account == nil {
		meta := map[string]any{"user": user}
		if err != nil {
			meta["error"] = err.Error()
		}
		e.logger.Error("environment account lookup failed", "user", user, "error", err)
		return statusError(ErrEnvironmentResolution, "lookup_account", UserUnknown, meta)
	}

	for _, v := range sessionEnvironment(account, e.process.Getenv("PATH")) {
		if err := e.set(v.key, v.value); err != nil {
			return err
		}
	}
	return nil
}

func (e environmentInitializer) set(key, value string) error {
	if err := e.process.Setenv(key, value); err != nil {
		e.logger.Warn("process setenv failed", "key", key, "error", err)
	}

	if status := e.handle.PutEnv(key + "=" + value); status != Success {
		e.logger.Error("backend putenv rejected", "key", key, "status", status)
		return statusError(ErrEnvironmentAssignment, "putenv", status, map[string]any{"variable": key})
	}
	return nil
}
