package main

// Compiled-in modules. Each import registers the module with the core
// registry via its init function.
import (
	_ "github.com/hankhank10/loglink-server/internal/cron"
	_ "github.com/hankhank10/loglink-server/internal/gateway"
	_ "github.com/hankhank10/loglink-server/internal/relay"
	_ "github.com/hankhank10/loglink-server/internal/telemetry"
	_ "github.com/hankhank10/loglink-server/modules/channel/telegram"
	_ "github.com/hankhank10/loglink-server/modules/channel/whatsapp"
	_ "github.com/hankhank10/loglink-server/modules/store/sqlite"
	_ "github.com/hankhank10/loglink-server/modules/upload/imgbb"
)
