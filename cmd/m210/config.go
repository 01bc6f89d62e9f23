package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"

	yml "github.com/go-yaml/yaml"
)

// ConfigFileName is the default config file looked up in the working
// directory, matching cmd/multiserver and cmd/andorhttp2's convention.
var ConfigFileName = "m210.yml"

var k = koanf.New(".")

// config holds the CLI's tunable defaults. Vendor/Product only matter for
// bench rigs running a modified or emulated device; production units are
// always 0x0e20/0x0101.
type config struct {
	Vendor  uint16 `yaml:"Vendor"`
	Product uint16 `yaml:"Product"`

	// OutputDir is where dump and convert write files when
	// --output-file/--output-dir are not given.
	OutputDir string `yaml:"OutputDir"`

	// Overwrite is the default for convert's --overwrite flag.
	Overwrite bool `yaml:"Overwrite"`

	// VerifyChecksum turns on the XMODEM CRC-16 transcript check that
	// dump prints, on by default. info downloads no transcript and prints
	// no checksum.
	VerifyChecksum bool `yaml:"VerifyChecksum"`
}

func defaultConfig() config {
	return config{
		Vendor:         0x0e20,
		Product:        0x0101,
		OutputDir:      ".",
		Overwrite:      false,
		VerifyChecksum: true,
	}
}

func setupConfig() {
	k.Load(structs.Provider(defaultConfig(), "koanf"), nil)
	if err := k.Load(file.Provider(ConfigFileName), yaml.Parser()); err != nil {
		errtxt := err.Error()
		if !strings.Contains(errtxt, "no such") { // file missing, who cares
			log.Fatalf("error loading config: %v", err)
		}
	}
}

func loadConfig() config {
	var c config
	if err := k.Unmarshal("", &c); err != nil {
		log.Fatalf("error unmarshaling config: %v", err)
	}
	return c
}

func mkconf() {
	c := defaultConfig()
	f, err := os.Create(ConfigFileName)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()
	if err := yml.NewEncoder(f).Encode(c); err != nil {
		log.Fatal(err)
	}
}

func printConf() {
	c := loadConfig()
	if err := yml.NewEncoder(os.Stdout).Encode(c); err != nil {
		log.Fatal(err)
	}
}

func pversion() {
	fmt.Printf("m210 version %v\n", Version)
}
