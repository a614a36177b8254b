package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/afero"

	"github.com/user-none/retrocore/rdb"
	"github.com/user-none/retrocore/romloader"
	"github.com/user-none/retrocore/scanner"
	"github.com/user-none/retrocore/storage"
)

// Progress lines are logged every this many files.
const progressEvery = 50

func main() {
	dir := flag.String("dir", "", "directory to scan for ROMs")
	recursive := flag.Bool("recursive", true, "descend into subdirectories")
	datPath := flag.String("dat", "", "path to a Logiqx DAT for identification")
	extsFlag := flag.String("exts", ".sms,.gg,.sg", "comma-separated ROM extensions")
	app := flag.String("app", "retrocore", "application data directory name")
	flag.Parse()

	if *dir == "" {
		fmt.Println("Usage: romscan -dir <directory> [-recursive=false] [-dat <datfile>] [-exts .sms,.gg] [-app <name>]")
		os.Exit(1)
	}

	store, err := storage.New(*app)
	if err != nil {
		log.Fatalf("Failed to open data directory: %v", err)
	}
	lib, err := store.LoadLibrary()
	if err != nil {
		log.Fatalf("Failed to load library: %v", err)
	}

	loader := romloader.New(splitExts(*extsFlag), romloader.WithCache(64))

	opts := []scanner.Option{
		scanner.WithProgress(func(p scanner.Progress) {
			if p.Current%progressEvery == 0 || p.Current == p.Total {
				log.Printf("Scanned %d/%d: %s", p.Current, p.Total, p.Path)
			}
		}),
	}
	if *datPath != "" {
		db, err := rdb.Load(afero.NewOsFs(), *datPath)
		if err != nil {
			log.Fatalf("Failed to load DAT: %v", err)
		}
		opts = append(opts, scanner.WithDB(db))
	}
	s := scanner.New(loader, opts...)

	dirs := []storage.ScanDirectory{{Path: *dir, Recursive: *recursive}}
	entries, err := s.Scan(context.Background(), dirs, lib.ExcludedPaths)
	if err != nil {
		log.Fatalf("Scan failed: %v", err)
	}

	added, updated, missing := s.Apply(lib, entries)
	lib.AddScanDirectory(*dir, *recursive)
	if err := store.SaveLibrary(lib); err != nil {
		log.Fatalf("Failed to save library: %v", err)
	}

	fmt.Printf("Scan complete: %d added, %d updated, %d missing, %d games total\n",
		added, updated, missing, lib.GameCount())
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
