package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/afero"

	"github.com/user-none/retrocore/rdb"
	"github.com/user-none/retrocore/romloader"
)

func main() {
	romPath := flag.String("rom", "", "path to ROM file or archive")
	datPath := flag.String("dat", "", "path to a Logiqx DAT for identification")
	extsFlag := flag.String("exts", ".sms,.gg,.sg", "comma-separated ROM extensions")
	flag.Parse()

	if *romPath == "" {
		fmt.Println("Usage: rominfo -rom <romfile> [-dat <datfile>] [-exts .sms,.gg]")
		os.Exit(1)
	}

	loader := romloader.New(splitExts(*extsFlag))
	rom, err := loader.Load(*romPath)
	if err != nil {
		log.Fatalf("Failed to load ROM: %v", err)
	}

	fmt.Printf("Name:   %s\n", rom.Name)
	fmt.Printf("Size:   %d bytes\n", len(rom.Data))
	fmt.Printf("CRC32:  %s\n", rom.CRC32Hex())
	fmt.Printf("SHA1:   %s\n", rom.SHA1)

	if *datPath == "" {
		return
	}

	db, err := rdb.Load(afero.NewOsFs(), *datPath)
	if err != nil {
		log.Fatalf("Failed to load DAT: %v", err)
	}

	game := db.FindByCRC32(rom.CRC32)
	if game == nil {
		fmt.Println("DAT:    no match")
		return
	}

	fmt.Printf("DAT:    %s\n", game.Name)
	if game.Serial != "" {
		fmt.Printf("Serial: %s\n", game.Serial)
	}
	if region, ok := game.Region(); ok {
		fmt.Printf("Region: %s\n", region)
	}
}

// splitExts parses a comma-separated extension list, adding missing dots.
func splitExts(s string) []string {
	var exts []string
	for _, e := range strings.Split(s, ",") {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts = append(exts, e)
	}
	return exts
}
