package main

import (
	"os"

	"github.com/tenantdesk/tenantdesk/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
