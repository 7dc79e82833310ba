/*

A simple CLI app to parse and display information about a
Team Fortress 2 (Source engine) demo file passed as a CLI argument.

*/
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/dustin/go-humanize"

	"github.com/icza/tf2rep/analyser/matchsummary"
	"github.com/icza/tf2rep/analyser/messagetypes"
	"github.com/icza/tf2rep/demparser"
)

const (
	appName    = "tf2rep"
	appVersion = "v0.1.0"
	appAuthor  = "the tf2rep project"
)

const (
	ExitCodeMissingArguments    = 1
	ExitCodeFailedToParseDemo   = 2
	ExitCodeFailedToCreateFile  = 3
)

// Flag variables
var (
	version = flag.Bool("version", false, "print version info and exit")

	header       = flag.Bool("header", true, "print the demo header")
	chat         = flag.Bool("chat", false, "print the decoded chat log")
	tally        = flag.Bool("tally", false, "print a per message-type count")
	skipEntities = flag.Bool("skipentities", true, "skip decoding PacketEntities deltas (faster; applies to the -header/-tally parse; -chat always skips them)")
	outFile      = flag.String("outfile", "", "optional output file name")
	indent       = flag.Bool("indent", true, "use indentation when formatting output")
)

func main() {
	flag.Parse()

	if *version {
		printVersion()
		return
	}

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(ExitCodeMissingArguments)
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Printf("Failed to read demo file: %v\n", err)
		os.Exit(ExitCodeFailedToParseDemo)
	}

	t := messagetypes.NewTally()
	cfg := demparser.Config{SkipEntities: *skipEntities}
	if *tally {
		cfg.Handler = t.Handler()
	}

	res, err := demparser.ParseConfig(data, cfg)
	if err != nil {
		fmt.Printf("Failed to parse demo: %v\n", err)
		os.Exit(ExitCodeFailedToParseDemo)
	}

	destination := os.Stdout
	if *outFile != "" {
		foutput, err := os.Create(*outFile)
		if err != nil {
			fmt.Printf("Failed to create output file: %v\n", err)
			os.Exit(ExitCodeFailedToCreateFile)
		}
		defer func() {
			if err := foutput.Close(); err != nil {
				panic(err)
			}
		}()
		destination = foutput
	}

	custom := map[string]interface{}{}

	if *header {
		custom["Header"] = res.Header
		custom["Duration"] = res.State.Tick.Duration(res.State.IntervalPerTick).String()
		custom["Ticks"] = humanize.Comma(int64(res.Header.Ticks))
		custom["FileSize"] = humanize.Bytes(uint64(len(data)))
	}

	if *chat {
		sum, err := matchsummary.Summarize(data)
		if err != nil {
			fmt.Printf("Failed to build match summary: %v\n", err)
			os.Exit(ExitCodeFailedToParseDemo)
		}
		custom["Chat"] = sum.Chat
		custom["Kills"] = sum.Kills
		custom["Rounds"] = sum.Rounds
	}

	if *tally {
		custom["MessageCounts"] = t.Counts()
		custom["UserMessageCounts"] = t.UserMessageCounts()
	}

	enc := json.NewEncoder(destination)
	if *indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(custom); err != nil {
		fmt.Printf("Failed to encode output: %v\n", err)
	}
}

func printVersion() {
	fmt.Println(appName, "version:", appVersion)
	fmt.Println("Parser version:", demparser.Version)
	fmt.Println("Platform:", runtime.GOOS, runtime.GOARCH)
	fmt.Println("Built with:", runtime.Version())
	fmt.Println("Author:", appAuthor)
}

func printUsage() {
	fmt.Println("Usage:")
	name := os.Args[0]
	fmt.Printf("\t%s [FLAGS] demofile.dem\n", name)
	fmt.Println("\tRun with '-h' to see a list of available flags.")
}
