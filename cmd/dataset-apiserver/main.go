package main

import (
	"flag"

	log "github.com/sirupsen/logrus"
)

var (
	flagConf = flag.String("conf", "./conf.yaml", "app config file")
	flagAddr = flag.String("addr", "0.0.0.0:8080", "server addr")
)

func main() {
	flag.Parse()

	s := NewDatasetServer(*flagConf, *flagAddr)
	if s == nil {
		log.Fatal("new dataset server failed")
		return
	}

	s.Run()
}
