package logger

const (
	Main        = "main"
	UnicastDHCP = "unicastdhcp"
	NetCfg      = "netcfg"
	Packet      = "packet"
	Punt        = "packet.punt"
	Intent      = "intent"
	Events      = "events"
	Exporter    = "exporter"
	Gateway     = "gateway"
	Config      = "config"
)
