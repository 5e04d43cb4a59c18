package log

import (
	"os"

	hclog "github.com/hashicorp/go-hclog"
)

var L hclog.Logger

func init() {
	L = hclog.New(&hclog.LoggerOptions{
		Name: "vanir",
	})
	L.SetLevel(hclog.Info)

	if str := os.Getenv("KTRACE"); str != "" {
		L.SetLevel(hclog.Trace)
	}
}
