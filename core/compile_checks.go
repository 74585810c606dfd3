package core

import glog "github.com/goliatone/go-logger/glog"

var (
	_ CredentialStore = (*MemoryCredentialStore)(nil)
	_ EntityStore     = (*MemoryEntityStore)(nil)
	_ OAuthStateStore = (*MemoryOAuthStateStore)(nil)
	_ ConfigProvider  = (*CfgxConfigProvider)(nil)
	_ OptionsResolver = GoOptionsResolver{}
	_ RawConfigLoader = (*EnvConfigLoader)(nil)
	_ RawConfigLoader = StaticRawConfigLoader{}
	_ CredentialCodec = JSONCredentialCodec{}
	_ TokenObserver   = TokenObserverFunc(nil)

	_ Logger         = glog.Nop()
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
)
