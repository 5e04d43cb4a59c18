package log

import (
	"os"

	hclog "github.com/hashicorp/go-hclog"
)

func EnableDebug() {
	if str := os.Getenv("KTRACE"); str != "" {
		L.SetLevel(hclog.Trace)
	}
}
