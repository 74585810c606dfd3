package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[ProcessCallbackMessage] = (*ProcessCallbackCommand)(nil)
	_ gocmd.Commander[RefreshMessage]         = (*RefreshCommand)(nil)
	_ gocmd.Commander[DeauthorizeMessage]     = (*DeauthorizeCommand)(nil)
)
