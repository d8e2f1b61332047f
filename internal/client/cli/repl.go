package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// execIface is the command surface the REPL dispatches to. *App satisfies
// it; tests provide a stub.
type execIface interface {
	List(ctx context.Context, args []string) error
	Add(ctx context.Context, args []string) error
	AddURL(ctx context.Context, args []string) error
	Scan(ctx context.Context, args []string) error
	Code(ctx context.Context, args []string) error
	Rename(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	SetPIN(ctx context.Context, args []string) error
	RemovePIN(ctx context.Context, args []string) error
	Export(ctx context.Context, args []string) error
	Import(ctx context.Context, args []string) error
	Devices(ctx context.Context, args []string) error
	Pair(ctx context.Context, args []string) error
	Unpair(ctx context.Context, args []string) error
	Verify(ctx context.Context, args []string) error
	Changes(ctx context.Context, args []string) error
}

const helpText = `Available commands:
  list                        list accounts
  add [issuer account]        add an account (seed is asked without echo)
  addurl <otpauth-uri>        add an account from an otpauth:// URI
  scan <file>                 add an account from a decoded QR capture
  code <id>                   show the current code
  rename <id>                 change issuer and account name
  delete <id>                 delete an account
  pin / unpin                 set or remove the app PIN
  export <file> / import <file>
  devices                     list paired devices
  pair <name> / unpair <id>   manage paired devices
  verify <id> <token>         check a device token and stamp its last sync
  changes [since]             show the sync change feed
  exit | quit`

// runREPL reads one command per line, dispatches it to a and prints command
// errors to w. It returns on end of input or on "exit"/"quit".
func runREPL(ctx context.Context, a execIface, reader *bufio.Reader, w io.Writer) {
	commands := map[string]func(context.Context, []string) error{
		"list":    a.List,
		"l":       a.List,
		"add":     a.Add,
		"addurl":  a.AddURL,
		"scan":    a.Scan,
		"code":    a.Code,
		"rename":  a.Rename,
		"delete":  a.Delete,
		"pin":     a.SetPIN,
		"unpin":   a.RemovePIN,
		"export":  a.Export,
		"import":  a.Import,
		"devices": a.Devices,
		"pair":    a.Pair,
		"unpair":  a.Unpair,
		"verify":  a.Verify,
		"changes": a.Changes,
	}

	for {
		fmt.Fprint(w, "otp> ")
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(w)
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			fmt.Fprintln(w, helpText)
			continue
		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return
		}

		fn, ok := commands[cmd]
		if !ok {
			fmt.Fprintln(w, "Unknown command:", cmd)
			continue
		}
		if err := fn(ctx, args); err != nil {
			fmt.Fprintln(w, "Error:", err)
		}
	}
}
