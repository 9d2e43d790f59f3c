// Command shadermount inspects and exercises shadermount shaders without a
// window.
//
// Usage:
//
//	shadermount adapt [-dialect sksl] shader.frag
//	shadermount uniforms [-wgsl] shader.frag
//	shadermount trace [-v] manifest.yaml script.yaml
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/shadermount"
)

func main() {
	log.SetFlags(0)
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("shadermount: %v", err)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		usage(out)
		return fmt.Errorf("missing command")
	}
	switch args[0] {
	case "adapt":
		return adaptCmd(args[1:], out)
	case "uniforms":
		return uniformsCmd(args[1:], out)
	case "trace":
		return traceCmd(args[1:], out)
	case "help", "-h", "-help":
		usage(out)
		return nil
	}
	usage(out)
	return fmt.Errorf("unknown command %q", args[0])
}

func usage(out io.Writer) {
	fmt.Fprint(out, `usage: shadermount <command> [flags] args

commands:
  adapt     print a GLSL fragment shader adapted for a backend dialect
  uniforms  list the uniforms a shader declares
  trace     mount a shader on a headless device and replay a script
`)
}

// verboseLogging routes shadermount logs to stderr.
func verboseLogging(on bool) {
	if !on {
		return
	}
	shadermount.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})))
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}
