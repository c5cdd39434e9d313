// Command packtool drives the compile/extract/repair pack operations
// from the shell; it exists purely as a thin options-record adapter
// over the pack package, per the core's own non-goal of owning
// argument parsing.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/foundryvtt/foundryvtt-cli/internal/lockprobe"
	"github.com/foundryvtt/foundryvtt-cli/pack"
)

func printUsage() {
	log.Println("packtool - compile and extract foundryvtt-cli compendium packs")
	log.Println("\nUsage:")
	log.Println("  packtool compile --src=<dir> --dest=<pack> [options]")
	log.Println("  packtool extract --src=<pack> --dest=<dir> [options]")
	log.Println("  packtool repair --pack=<path> [--nedb]")
	log.Println("\nRun 'packtool <command> -h' for command-specific options.")
}

func main() {
	log.SetFlags(0)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "compile":
		err = runCompile(os.Args[2:])
	case "extract":
		err = runExtract(os.Args[2:])
	case "repair":
		err = runRepair(os.Args[2:])
	case "-h", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "packtool: unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		log.Fatalf("packtool: %v", err)
	}
}

// probeLock refuses to proceed against a pack another process already
// has open. A pack that doesn't exist yet (a fresh compile target) has
// nothing to probe, so that case is left for the backend to create.
func probeLock(target string, nedb bool) error {
	if _, err := os.Stat(target); err != nil {
		return nil
	}

	lockPath := lockprobe.SortedStoreLockPath(target)
	if nedb {
		lockPath = lockprobe.LogStoreLockPath(target)
	}

	locked, err := lockprobe.Probe(lockPath)
	if err != nil {
		return err
	}
	if locked {
		return fmt.Errorf("%s is open in another process", target)
	}
	return nil
}

func runCompile(args []string) error {
	fs := flag.NewFlagSet("compile", flag.ExitOnError)
	src := fs.String("src", "", "source directory of JSON/YAML documents")
	dest := fs.String("dest", "", "destination pack path")
	nedb := fs.Bool("nedb", false, "compile to a log-store (.db) pack instead of a sorted store")
	yaml := fs.Bool("yaml", false, "scan .yml/.yaml source files instead of .json")
	recursive := fs.Bool("recursive", false, "scan src recursively")
	verbose := fs.Bool("log", false, "log source parse failures and duplicate keys")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *src == "" || *dest == "" {
		return fmt.Errorf("compile requires --src and --dest")
	}
	if err := probeLock(*dest, *nedb); err != nil {
		return err
	}

	return pack.CompilePack(*src, *dest, pack.CompileOptions{
		NEDB:      *nedb,
		YAML:      *yaml,
		Recursive: *recursive,
		Log:       *verbose,
	})
}

func runExtract(args []string) error {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	src := fs.String("src", "", "source pack path")
	dest := fs.String("dest", "", "destination directory for JSON/YAML documents")
	nedb := fs.Bool("nedb", false, "extract a log-store (.db) pack instead of a sorted store")
	yaml := fs.Bool("yaml", false, "write .yml source files instead of .json")
	clean := fs.Bool("clean", false, "remove files in dest not produced by this extraction")
	folders := fs.Bool("folders", false, "lay out extracted files under a folder directory tree")
	expandAdventures := fs.Bool("expand-adventures", false, "split Adventure documents into per-subdocument files")
	omitVolatile := fs.Bool("omit-volatile", false, "keep prior files unchanged when only volatile stats differ")
	documentType := fs.String("document-type", "", "document type for a log-store pack, e.g. Actor")
	collection := fs.String("collection", "", "collection name for a log-store pack, e.g. actors")
	verbose := fs.Bool("log", false, "enable the development logger")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *src == "" || *dest == "" {
		return fmt.Errorf("extract requires --src and --dest")
	}
	if err := probeLock(*src, *nedb); err != nil {
		return err
	}

	return pack.ExtractPack(*src, *dest, pack.ExtractOptions{
		NEDB:             *nedb,
		YAML:             *yaml,
		Log:              *verbose,
		DocumentType:     *documentType,
		Collection:       *collection,
		Clean:            *clean,
		Folders:          *folders,
		ExpandAdventures: *expandAdventures,
		OmitVolatile:     *omitVolatile,
	})
}

func runRepair(args []string) error {
	fs := flag.NewFlagSet("repair", flag.ExitOnError)
	target := fs.String("pack", "", "pack path to repair")
	nedb := fs.Bool("nedb", false, "repair a log-store (.db) pack instead of a sorted store")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *target == "" {
		return fmt.Errorf("repair requires --pack")
	}
	if err := probeLock(*target, *nedb); err != nil {
		return err
	}

	return pack.RepairPack(*target, pack.RepairOptions{Log: *nedb})
}
