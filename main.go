package main

import (
	"log"
	"os"
)

var (
	GitCommit string
	GitTag    string
	BuildTime string
)

func main() {
	var app AppProvider
	var err error
	if len(os.Args) > 1 && os.Args[1] == "mockapi" {
		app, err = NewMockAPIApp()
	} else {
		app, err = NewApp()
	}
	if err != nil {
		log.Fatal("application failed to initialized: ", err)
	}
	err = app.Run()
	if err != nil {
		log.Fatal("application exited. check logs for more details. ", err)
	}
}
