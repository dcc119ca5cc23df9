package main

import "github.com/open-metrics-mt-kit/ruler-informer/cmd"

// Version can be set during build with -ldflags
var version = "dev"

func main() {
	cmd.SetVersion(version)
	cmd.Execute()
}
