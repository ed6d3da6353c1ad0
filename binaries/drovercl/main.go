package main

import (
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/droverco/drover/client/cli"
)

func main() {
	log.SetLevel(log.WarnLevel)
	client := cli.NewCliClient()
	if err := client.Exec(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
