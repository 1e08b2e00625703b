package config

type AppConfig struct {
	Server ServerConfig
	Log    LogConfig
	Bot    BotConfig
	Store  StoreConfig
	Ledger LedgerConfig
	Push   PushConfig
}

func LoadApp() (AppConfig, error) {
	logCfg, err := LoadLog()
	if err != nil {
		return AppConfig{}, err
	}
	serverCfg, err := LoadServer()
	if err != nil {
		return AppConfig{}, err
	}
	botCfg, err := LoadBot()
	if err != nil {
		return AppConfig{}, err
	}
	storeCfg, err := LoadStore()
	if err != nil {
		return AppConfig{}, err
	}
	ledgerCfg, err := LoadLedger()
	if err != nil {
		return AppConfig{}, err
	}
	pushCfg, err := LoadPush()
	if err != nil {
		return AppConfig{}, err
	}
	return AppConfig{
		Server: serverCfg,
		Log:    logCfg,
		Bot:    botCfg,
		Store:  storeCfg,
		Ledger: ledgerCfg,
		Push:   pushCfg,
	}, nil
}
