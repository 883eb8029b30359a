package main

import (
	"linkharvest/cmd/harvest/commands"
	"linkharvest/lib/osutil"
)

func main() {
	osutil.LoadDotenv()
	ctx := osutil.SignalContext()
	commands.ExecuteContext(ctx)
}
