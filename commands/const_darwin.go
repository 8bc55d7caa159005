package commands

const (
	_etc = "/usr/local/etc/com.github.uhppoted"
	_var = "/usr/local/var/com.github.uhppoted"

	DEFAULT_WORKDIR     = _var + "/dbm-sheets"
	DEFAULT_CREDENTIALS = _etc + "/dbm-sheets/.google/credentials.json"
)
