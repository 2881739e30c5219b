package all

import (
	_ "github.com/veesix-networks/unicastdhcp/plugins/exporter/prometheus"
)
