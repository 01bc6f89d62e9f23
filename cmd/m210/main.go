// Command m210 downloads, erases and converts notes stored on a Pegasus
// Mobile NoteTaker M210 tablet.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/gousb"
	"github.com/nasa-jpl/m210/notetaker"
)

// Version is the version number. Typically injected via ldflags with git
// build, matching cmd/multiserver's convention.
var Version = "dev"

func root() {
	str := `m210 downloads, erases and converts notes from a Pegasus Mobile NoteTaker M210

Usage:
	m210 <command> [flags]

Commands:
	info                print firmware versions, mode and used memory
	dump                download all notes to a raw transcript file
	convert             decode a transcript into one SVG per note
	delete              erase all notes on the device
	help
	mkconf
	conf
	version`
	fmt.Println(str)
}

func help() {
	str := `m210 reads its configuration from m210.yml in the working directory only.
See "m210 conf" for the effective configuration and "m210 mkconf" to write
out the defaults.`
	fmt.Println(str)
}

func main() {
	args := os.Args
	if len(args) == 1 {
		root()
		return
	}
	setupConfig()

	cmd := strings.ToLower(args[1])
	rest := args[2:]
	switch cmd {
	case "help":
		help()
	case "mkconf":
		mkconf()
	case "conf":
		printConf()
	case "version":
		pversion()
	case "info":
		runInfo(rest)
	case "dump":
		runDump(rest)
	case "convert":
		runConvert(rest)
	case "delete":
		runDelete(rest)
	default:
		fatal("", fmt.Errorf("unknown command %q", cmd))
	}
}

// openDevice discovers the M210 using the configured vendor/product IDs
// and returns a ready Device plus its closer.
func openDevice(c config) (*notetaker.Device, func(), error) {
	return notetaker.OpenVIDPID(gousb.ID(c.Vendor), gousb.ID(c.Product))
}

func runInfo(args []string) {
	c := loadConfig()
	dev, closer, err := openDevice(c)
	if err != nil {
		fatal("info", err)
	}
	defer closer()

	info, ierr := dev.Status(context.Background())
	if ierr != nil {
		fatal("info", ierr)
	}

	fmt.Printf("firmware version: %d\n", info.FirmwareVersion)
	fmt.Printf("analog version:   %d\n", info.AnalogVersion)
	fmt.Printf("pad version:      %d\n", info.PadVersion)
	fmt.Printf("mode:             %d\n", info.Mode)
	fmt.Printf("used memory:      %d bytes\n", info.UsedMemory)
}

func runDump(args []string) {
	c := loadConfig()
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	outputFile := fs.String("output-file", "", "write the raw transcript here (default: <output-dir>/m210.dat)")
	fs.Parse(args)

	path := *outputFile
	if path == "" {
		path = filepath.Join(c.OutputDir, "m210.dat")
	}

	dev, closer, err := openDevice(c)
	if err != nil {
		fatal("dump", err)
	}
	defer closer()

	ctx := context.Background()

	f, ferr := os.Create(path)
	if ferr != nil {
		fatal("dump", ferr)
	}
	defer f.Close()

	var sink io.Writer = f
	var checker *transcriptChecker
	if c.VerifyChecksum {
		checker = newTranscriptChecker(sink)
		sink = checker
	}

	count, werr := dev.Download(ctx, sink)
	if werr != nil {
		fatal("dump", werr)
	}

	fmt.Printf("wrote %d packets (%d bytes) to %s\n", count, int(count)*notetaker.PacketPayloadSize, path)
	if checker != nil {
		fmt.Printf("transcript CRC-16/XMODEM: %04x\n", checker.Sum16())
	}
}

func runConvert(args []string) {
	c := loadConfig()
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	inputFile := fs.String("input-file", "", "transcript to decode (default: <output-dir>/m210.dat)")
	outputDir := fs.String("output-dir", "", "directory to write SVGs into (default: config OutputDir)")
	overwrite := fs.Bool("overwrite", c.Overwrite, "overwrite existing SVG files")
	fs.Parse(args)

	in := *inputFile
	if in == "" {
		in = filepath.Join(c.OutputDir, "m210.dat")
	}
	outDir := *outputDir
	if outDir == "" {
		outDir = c.OutputDir
	}

	if err := convertTranscript(in, outDir, *overwrite); err != nil {
		fatal("convert", err)
	}
}

func runDelete(args []string) {
	c := loadConfig()
	dev, closer, err := openDevice(c)
	if err != nil {
		fatal("delete", err)
	}
	defer closer()

	if eerr := dev.Erase(context.Background()); eerr != nil {
		fatal("delete", eerr)
	}
	fmt.Println("notes erased")
}

// fatal prints a single pretty-printed error (program name, optional
// context, and for System errors the OS error string) and exits non-zero
// (§7).
func fatal(context string, err error) {
	msg := os.Args[0]
	if context != "" {
		msg += ": " + context
	}
	if nerr, ok := err.(*notetaker.Err); ok {
		msg += ": " + nerr.Error()
	} else {
		msg += ": " + err.Error()
	}
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
