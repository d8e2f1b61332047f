package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/otpkeeper/internal/common"
	"github.com/dmitrijs2005/otpkeeper/internal/filex"
)

func (a *App) readID(args []string, prompt string) (int64, error) {
	s, err := argOrPrompt(args, 0, a.reader, prompt, a.out)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad id %q", common.ErrValidation, s)
	}
	return id, nil
}

func (a *App) List(ctx context.Context, _ []string) error {
	list, err := a.accounts.List(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No accounts")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tISSUER\tACCOUNT")
	for _, acc := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", acc.ID, acc.Issuer, acc.AccountName)
	}
	return tw.Flush()
}

func (a *App) Add(ctx context.Context, args []string) error {
	issuer, err := argOrPrompt(args, 0, a.reader, "Issuer", a.out)
	if err != nil {
		return err
	}
	name, err := argOrPrompt(args, 1, a.reader, "Account name", a.out)
	if err != nil {
		return err
	}
	seed, err := GetSecret("Secret (base32)", a.out)
	if err != nil {
		return err
	}

	acc, err := a.accounts.Add(ctx, issuer, name, seed)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added %s (%s), id %d\n", acc.Issuer, acc.AccountName, acc.ID)
	return nil
}

func (a *App) AddURL(ctx context.Context, args []string) error {
	uri, err := argOrPrompt(args, 0, a.reader, "otpauth:// URI", a.out)
	if err != nil {
		return err
	}

	acc, err := a.accounts.AddFromURI(ctx, uri)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added %s (%s), id %d\n", acc.Issuer, acc.AccountName, acc.ID)
	return nil
}

func (a *App) Scan(ctx context.Context, args []string) error {
	path, err := argOrPrompt(args, 0, a.reader, "Capture file", a.out)
	if err != nil {
		return err
	}

	img, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	uri, err := a.capture.Decode(ctx, img)
	if err != nil {
		return err
	}

	return a.AddURL(ctx, []string{uri})
}

func (a *App) Code(ctx context.Context, args []string) error {
	id, err := a.readID(args, "Account id")
	if err != nil {
		return err
	}

	code, err := a.accounts.CurrentCode(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s (valid %ds)\n", code.Code, code.RemainingSeconds)
	return nil
}

func (a *App) Rename(ctx context.Context, args []string) error {
	id, err := a.readID(args, "Account id")
	if err != nil {
		return err
	}
	issuer, err := GetSimpleText(a.reader, "New issuer", a.out)
	if err != nil {
		return err
	}
	name, err := GetSimpleText(a.reader, "New account name", a.out)
	if err != nil {
		return err
	}

	if err := a.accounts.Rename(ctx, id, issuer, name); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Renamed")
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	id, err := a.readID(args, "Account id to delete")
	if err != nil {
		return err
	}

	if err := a.accounts.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Deleted")
	return nil
}

func (a *App) SetPIN(ctx context.Context, _ []string) error {
	has, err := a.pins.HasPIN(ctx)
	if err != nil {
		return err
	}
	if has {
		current, err := GetSecret("Current PIN", a.out)
		if err != nil {
			return err
		}
		ok, err := a.pins.VerifyPIN(ctx, current)
		if err != nil {
			return err
		}
		if !ok {
			return common.ErrPINMismatch
		}
	}

	pin, err := GetSecret("New PIN (4 digits)", a.out)
	if err != nil {
		return err
	}
	again, err := GetSecret("Repeat PIN", a.out)
	if err != nil {
		return err
	}
	if pin != again {
		return fmt.Errorf("%w: entries differ", common.ErrPINMismatch)
	}

	if err := a.pins.SetPIN(ctx, pin); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "PIN set")
	return nil
}

func (a *App) RemovePIN(ctx context.Context, _ []string) error {
	current, err := GetSecret("Current PIN", a.out)
	if err != nil {
		return err
	}
	if err := a.pins.RemovePIN(ctx, current); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "PIN removed")
	return nil
}

func (a *App) Export(ctx context.Context, args []string) error {
	path, err := argOrPrompt(args, 0, a.reader, "Backup file", a.out)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	n, err := a.accounts.Export(ctx, &buf)
	if err != nil {
		return err
	}
	if err := filex.WriteFileAtomic(path, buf.Bytes(), 0o600); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Exported %d accounts to %s\n", n, path)
	return nil
}

func (a *App) Import(ctx context.Context, args []string) error {
	path, err := argOrPrompt(args, 0, a.reader, "Backup file", a.out)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	n, err := a.accounts.Import(ctx, f)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Imported %d accounts\n", n)
	return nil
}

func (a *App) Devices(ctx context.Context, _ []string) error {
	list, err := a.sync.Devices(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No paired devices")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DEVICE ID\tNAME\tPAIRED\tLAST SYNC")
	for _, d := range list {
		last := d.LastSyncAt
		if last == "" {
			last = "never"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.DeviceID, d.DeviceName, d.CreatedAt, last)
	}
	return tw.Flush()
}

func (a *App) Pair(ctx context.Context, args []string) error {
	name := strings.Join(args, " ")
	if name == "" {
		var err error
		if name, err = GetSimpleText(a.reader, "Device name", a.out); err != nil {
			return err
		}
	}

	d, err := a.sync.Pair(ctx, name)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Paired %s\n  device id:     %s\n  session token: %s\n", d.DeviceName, d.DeviceID, d.SessionToken)
	return nil
}

func (a *App) Unpair(ctx context.Context, args []string) error {
	id, err := argOrPrompt(args, 0, a.reader, "Device id", a.out)
	if err != nil {
		return err
	}
	if err := a.sync.Unpair(ctx, id); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Unpaired")
	return nil
}

func (a *App) Verify(ctx context.Context, args []string) error {
	id, err := argOrPrompt(args, 0, a.reader, "Device id", a.out)
	if err != nil {
		return err
	}
	token := ""
	if len(args) > 1 {
		token = args[1]
	} else if token, err = GetSecret("Session token", a.out); err != nil {
		return err
	}

	if err := a.sync.CheckDevice(ctx, id, token); err != nil {
		return err
	}
	if err := a.sync.RecordSync(ctx, id); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Token valid")
	return nil
}

func (a *App) Changes(ctx context.Context, args []string) error {
	since := strings.Join(args, " ")

	changed, err := a.sync.ChangesSince(ctx, since)
	if err != nil {
		return err
	}
	deleted, err := a.sync.Deletions(ctx, since)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "UPDATED\tSYNC ID\tCHANGE")
	for _, acc := range changed {
		fmt.Fprintf(tw, "%s\t%s\tupsert %s (%s)\n", acc.UpdatedAt, acc.SyncID, acc.Issuer, acc.AccountName)
	}
	for _, ts := range deleted {
		fmt.Fprintf(tw, "%s\t%s\tdelete\n", ts.DeletedAt, ts.SyncID)
	}
	return tw.Flush()
}
