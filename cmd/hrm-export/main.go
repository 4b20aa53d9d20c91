package main

import (
	"hrmexport/cmd/hrm-export/commands"
	"hrmexport/lib/serviceutil"
	"hrmexport/lib/telemetry"
)

func main() {
	ctx := serviceutil.SignalContext()
	telemetry.SetupFromEnv(ctx, "hrm-export")
	commands.ExecuteContext(ctx)
}
