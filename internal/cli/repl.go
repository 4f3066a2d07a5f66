package cli

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface is the command surface the REPL drives. App implements it;
// tests use a stub.
type execIface interface {
	cameraOpen() bool
	Gallery(ctx context.Context) error
	OpenCamera(ctx context.Context) error
	Capture(ctx context.Context) error
	Done(ctx context.Context) error
	Select(ctx context.Context, i int) error
	UploadAll(ctx context.Context) error
	Sync(ctx context.Context) error
	Grant(ctx context.Context, capability string, granted bool) error
	Status(ctx context.Context) error
}

// runREPL reads commands from scanner until EOF or exit/quit. Errors from
// handlers are printed and the loop keeps going.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("photosync %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			if a.cameraOpen() {
				printlnFn("Available commands: (c)apture, done, status, exit")
			} else {
				printlnFn("Available commands: (g)allery, camera, select <n>, uploadall, sync, grant <cap>, revoke <cap>, status, exit")
			}

		case "g", "gallery":
			err = a.Gallery(ctx)

		case "camera":
			err = a.OpenCamera(ctx)

		case "c", "capture":
			err = a.Capture(ctx)

		case "done":
			err = a.Done(ctx)

		case "select":
			if len(args) != 1 {
				printlnFn("Usage: select <n>")
				continue
			}
			n, convErr := strconv.Atoi(args[0])
			if convErr != nil {
				printlnFn("Usage: select <n>")
				continue
			}
			err = a.Select(ctx, n)

		case "uploadall":
			err = a.UploadAll(ctx)

		case "sync":
			err = a.Sync(ctx)

		case "grant", "revoke":
			if len(args) != 1 {
				printlnFn("Usage:", cmd, "camera|storage")
				continue
			}
			err = a.Grant(ctx, args[0], cmd == "grant")

		case "status":
			err = a.Status(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err.Error())
		}
	}
}
