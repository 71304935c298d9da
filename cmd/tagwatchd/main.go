// Command tagwatchd runs the tagwatch daemon in the foreground. It is the
// bare daemon binary for init systems and containers; the full CLI carries
// the same daemon under `tagwatch daemon`.
package main

import (
	"fmt"
	"os"

	"github.com/tagwatch/tagwatch/cmd"
)

var (
	version   string
	commit    string
	date      string
	buildType string = "unclassified"
)

func main() {
	args := append([]string{os.Args[0], "daemon"}, os.Args[1:]...)
	err := cmd.Execute(args, cmd.BuildArgs{
		Version:   version,
		Commit:    commit,
		Date:      date,
		BuildType: buildType,
	})
	if err != nil {
		fmt.Printf("tagwatchd: %s\n", err.Error())
		os.Exit(1)
	}
}
