// Command heliosdb is an interactive driver over the HeliosDB storage
// engine: one subcommand per engine operation, plus a REPL for exploring a
// data directory interactively (§4.9).
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"amethyst/internal/engine"
	"amethyst/internal/herrors"
	"amethyst/internal/inspect"
)

var dataDir string

func main() {
	root := &cobra.Command{
		Use:   "heliosdb",
		Short: "An embedded LSM-tree key-value store",
	}
	root.PersistentFlags().StringVar(&dataDir, "data-dir", "./heliosdb-data", "data directory")

	root.AddCommand(
		putCmd(),
		getCmd(),
		delCmd(),
		flushCmd(),
		compactCmd(),
		replCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func withEngine(fn func(e *engine.Engine) error) error {
	e, err := engine.Open(dataDir)
	if err != nil {
		return fmt.Errorf("open %s: %w", dataDir, err)
	}
	defer e.Close()
	return fn(e)
}

func putCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "put <key> <value>",
		Short: "Write a key/value pair",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(func(e *engine.Engine) error {
				return e.Put([]byte(args[0]), []byte(args[1]))
			})
		},
	}
}

func getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Read a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(func(e *engine.Engine) error {
				v, err := e.Get([]byte(args[0]))
				if err != nil {
					return err
				}
				fmt.Println(string(v))
				return nil
			})
		},
	}
}

func delCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "del <key>",
		Short: "Delete a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(func(e *engine.Engine) error {
				return e.Del([]byte(args[0]))
			})
		},
	}
}

func flushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flush",
		Short: "Force a memtable flush to a new SST",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(func(e *engine.Engine) error {
				return e.Flush()
			})
		},
	}
}

func compactCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compact",
		Short: "Enqueue a compaction attempt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(func(e *engine.Engine) error {
				if err := e.Compact(); err != nil {
					return err
				}
				fmt.Println("compaction requested")
				return nil
			})
		},
	}
}

func replCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Interactive line-oriented shell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runREPL()
		},
	}
}

func runREPL() error {
	e, err := engine.Open(dataDir)
	if err != nil {
		return fmt.Errorf("open %s: %w", dataDir, err)
	}
	defer e.Close()

	fmt.Println("heliosdb - embedded LSM-tree key-value store")
	fmt.Printf("data dir: %s\n", dataDir)
	fmt.Println("commands: put <key> <value> | get <key> | del <key> | flush | compact | inspect <file> | exit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])

		switch cmd {
		case "put":
			if len(parts) != 3 {
				fmt.Println("usage: put <key> <value>")
				continue
			}
			if err := e.Put([]byte(parts[1]), []byte(parts[2])); err != nil {
				fmt.Printf("put error: %v\n", err)
				continue
			}
			fmt.Println("ok")
		case "get":
			if len(parts) != 2 {
				fmt.Println("usage: get <key>")
				continue
			}
			v, err := e.Get([]byte(parts[1]))
			if errors.Is(err, herrors.ErrKeyNotFound) {
				fmt.Println("(not found)")
				continue
			}
			if err != nil {
				fmt.Printf("get error: %v\n", err)
				continue
			}
			fmt.Println(string(v))
		case "del":
			if len(parts) != 2 {
				fmt.Println("usage: del <key>")
				continue
			}
			if err := e.Del([]byte(parts[1])); err != nil {
				fmt.Printf("del error: %v\n", err)
				continue
			}
			fmt.Println("ok")
		case "flush":
			if err := e.Flush(); err != nil {
				fmt.Printf("flush error: %v\n", err)
				continue
			}
			fmt.Println("ok")
		case "compact":
			if err := e.Compact(); err != nil {
				fmt.Printf("compact error: %v\n", err)
				continue
			}
			fmt.Println("compaction requested")
		case "inspect":
			if len(parts) != 2 {
				fmt.Println("usage: inspect <file>")
				continue
			}
			if err := inspect.Dispatch(parts[1]); err != nil {
				fmt.Printf("inspect error: %v\n", err)
			}
		case "exit", "quit":
			return nil
		default:
			fmt.Println("unknown command")
		}
	}
	return scanner.Err()
}

