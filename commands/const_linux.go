package commands

const (
	_etc = "/usr/local/etc/uhppoted"
	_var = "/usr/local/var/uhppoted"

	DEFAULT_WORKDIR     = _var + "/dbm-sheets"
	DEFAULT_CREDENTIALS = _etc + "/dbm-sheets/.google/credentials.json"
)
