package main

import (
	"log"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

const statsAddr = "localhost:12600"

// launchStatsview serves runtime statistics in the background.
func launchStatsview() {
	go func() {
		viewer.SetConfiguration(viewer.WithAddr(statsAddr))
		mgr := statsview.New()
		mgr.Start()
	}()
	log.Printf("stats server available at http://%s/debug/statsview", statsAddr)
}
