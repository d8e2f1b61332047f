// Package cli provides the interactive otpkeeper command-line client.
//
// NewApp builds the application context once: it loads the master key, opens
// the vault store and constructs the services. The context is passed
// explicitly to every command; nothing is looked up globally.
//
// App.Run asks for the PIN when one is configured and then starts the REPL,
// which blocks until the user exits. See runREPL for the command list.
package cli
