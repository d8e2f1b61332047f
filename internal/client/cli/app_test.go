package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/otpkeeper/internal/client/capture"
	"github.com/dmitrijs2005/otpkeeper/internal/client/config"
	"github.com/dmitrijs2005/otpkeeper/internal/client/services"
	"github.com/dmitrijs2005/otpkeeper/internal/client/store"
	"github.com/dmitrijs2005/otpkeeper/internal/common"
	"github.com/dmitrijs2005/otpkeeper/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSeed = "JBSWY3DPEHPK3PXP"

// stubSecrets feeds GetSecret from a queue.
func stubSecrets(t *testing.T, values ...string) {
	t.Helper()
	orig := readPassword
	t.Cleanup(func() { readPassword = orig })
	readPassword = func(int) ([]byte, error) {
		require.NotEmpty(t, values, "unexpected secret prompt")
		v := values[0]
		values = values[1:]
		return []byte(v), nil
	}
}

func newTestApp(t *testing.T, dir string, input string) (*App, *bytes.Buffer) {
	t.Helper()
	st, err := store.OpenDir(context.Background(), dir, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i + 1)
	}
	now := func() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) }

	var out bytes.Buffer
	cfg := &config.Config{DataDir: dir}
	app := newApp(cfg, logging.Discard(), st, key, strings.NewReader(input), &out,
		services.WithClock(now))
	t.Cleanup(app.stop)
	return app, &out
}

func TestApp_AddListCodeDelete(t *testing.T) {
	ctx := context.Background()
	stubSecrets(t, testSeed)
	app, out := newTestApp(t, t.TempDir(), "GitHub\nalice@example.com\n")

	require.NoError(t, app.Add(ctx, nil))
	assert.Contains(t, out.String(), "Added GitHub (alice@example.com), id 1")

	out.Reset()
	require.NoError(t, app.List(ctx, nil))
	assert.Contains(t, out.String(), "GitHub")
	assert.Contains(t, out.String(), "alice@example.com")

	out.Reset()
	require.NoError(t, app.Code(ctx, []string{"1"}))
	assert.Regexp(t, `^\d{6} \(valid 30s\)\n$`, out.String())

	require.NoError(t, app.Delete(ctx, []string{"1"}))
	out.Reset()
	require.NoError(t, app.List(ctx, nil))
	assert.Equal(t, "No accounts\n", out.String())

	assert.ErrorIs(t, app.Code(ctx, []string{"1"}), common.ErrorNotFound)
	assert.ErrorIs(t, app.Code(ctx, []string{"x"}), common.ErrValidation)
}

func TestApp_AddURLAndRename(t *testing.T) {
	ctx := context.Background()
	app, out := newTestApp(t, t.TempDir(), "Acme\nbob\n")

	require.NoError(t, app.AddURL(ctx, []string{"otpauth://totp/GitHub:alice?secret=" + testSeed + "&issuer=GitHub"}))
	require.NoError(t, app.Rename(ctx, []string{"1"}))

	out.Reset()
	require.NoError(t, app.List(ctx, nil))
	assert.Contains(t, out.String(), "Acme")
	assert.Contains(t, out.String(), "bob")
	assert.NotContains(t, out.String(), "GitHub")
}

func TestApp_ExportImport(t *testing.T) {
	ctx := context.Background()
	stubSecrets(t, testSeed)
	src, _ := newTestApp(t, t.TempDir(), "")
	require.NoError(t, src.Add(ctx, []string{"GitHub", "alice"}))

	path := filepath.Join(t.TempDir(), "backup.json")
	require.NoError(t, src.Export(ctx, []string{path}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	dst, out := newTestApp(t, t.TempDir(), "")
	require.NoError(t, dst.Import(ctx, []string{path}))
	assert.Contains(t, out.String(), "Imported 1 accounts")

	// the same master key is needed to read imported seeds
	out.Reset()
	require.NoError(t, dst.Code(ctx, []string{"1"}))
	assert.Regexp(t, `^\d{6} `, out.String())
}

func TestApp_SetPINAndUnlock(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	stubSecrets(t, "1234", "1234")
	app, _ := newTestApp(t, dir, "")
	require.NoError(t, app.SetPIN(ctx, nil))

	stubSecrets(t, "0000", "1234")
	require.NoError(t, app.unlock(ctx))

	stubSecrets(t, "1", "2", "3")
	assert.ErrorIs(t, app.unlock(ctx), common.ErrPINMismatch)

	stubSecrets(t, "9999", "5678", "5678")
	assert.ErrorIs(t, app.SetPIN(ctx, nil), common.ErrPINMismatch)

	stubSecrets(t, "1234", "5678", "8765")
	assert.ErrorIs(t, app.SetPIN(ctx, nil), common.ErrPINMismatch)

	stubSecrets(t, "1234")
	require.NoError(t, app.RemovePIN(ctx, nil))
	require.NoError(t, app.unlock(ctx))
}

func TestApp_PairDevicesChanges(t *testing.T) {
	ctx := context.Background()
	app, out := newTestApp(t, t.TempDir(), "")

	require.NoError(t, app.Devices(ctx, nil))
	assert.Equal(t, "No paired devices\n", out.String())

	out.Reset()
	require.NoError(t, app.Pair(ctx, []string{"my", "phone"}))
	assert.Contains(t, out.String(), "Paired my phone")

	out.Reset()
	require.NoError(t, app.Devices(ctx, nil))
	assert.Contains(t, out.String(), "my phone")
	assert.Contains(t, out.String(), "never")

	assert.ErrorIs(t, app.Unpair(ctx, []string{"missing"}), common.ErrorNotFound)

	require.NoError(t, app.AddURL(ctx, []string{"otpauth://totp/alice?secret=" + testSeed + "&issuer=GitHub"}))
	require.NoError(t, app.Delete(ctx, []string{"1"}))

	out.Reset()
	require.NoError(t, app.Changes(ctx, nil))
	assert.Contains(t, out.String(), "delete")
	assert.NotContains(t, out.String(), "upsert")
}

func TestApp_RunStopsOnWrongPIN(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	stubSecrets(t, "1234", "1234")
	app, _ := newTestApp(t, dir, "")
	require.NoError(t, app.SetPIN(ctx, nil))

	locked, _ := newTestApp(t, dir, "list\n")
	stubSecrets(t, "0000", "0000", "0000")
	assert.ErrorIs(t, locked.Run(ctx), common.ErrPINMismatch)

	open, out := newTestApp(t, dir, "list\nexit\n")
	stubSecrets(t, "1234")
	require.NoError(t, open.Run(ctx))
	assert.Contains(t, out.String(), "No accounts")
	assert.Contains(t, out.String(), "Bye!")
}

func TestApp_Scan(t *testing.T) {
	ctx := context.Background()
	app, out := newTestApp(t, t.TempDir(), "")
	dir := t.TempDir()

	decoded := filepath.Join(dir, "capture.txt")
	require.NoError(t, os.WriteFile(decoded, []byte("QR-Code:otpauth://totp/GitHub:alice?secret="+testSeed+"\n"), 0o600))
	require.NoError(t, app.Scan(ctx, []string{decoded}))
	assert.Contains(t, out.String(), "Added GitHub (alice), id 1")

	blank := filepath.Join(dir, "blank.png")
	require.NoError(t, os.WriteFile(blank, []byte{0x89, 'P', 'N', 'G'}, 0o600))
	assert.ErrorIs(t, app.Scan(ctx, []string{blank}), capture.ErrNoCode)

	assert.Error(t, app.Scan(ctx, []string{filepath.Join(dir, "missing")}))
}

func TestApp_Verify(t *testing.T) {
	ctx := context.Background()
	app, out := newTestApp(t, t.TempDir(), "")

	require.NoError(t, app.Pair(ctx, []string{"phone"}))
	list, err := app.sync.Devices(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	d := list[0]

	assert.ErrorIs(t, app.Verify(ctx, []string{d.DeviceID, "bad"}), common.ErrorUnauthorized)
	assert.ErrorIs(t, app.Verify(ctx, []string{"unknown", d.SessionToken}), common.ErrorUnauthorized)

	stubSecrets(t, d.SessionToken)
	out.Reset()
	require.NoError(t, app.Verify(ctx, []string{d.DeviceID}))
	assert.Equal(t, "Session token: \nToken valid\n", out.String())

	list, err = app.sync.Devices(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, list[0].LastSyncAt)
}

func TestNewApp_OpensVaultAndLogsSchema(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	var logs bytes.Buffer
	log, err := logging.New("text", "info", &logs)
	require.NoError(t, err)

	app, err := NewApp(ctx, &config.Config{DataDir: dir, KeySource: "file"}, log)
	require.NoError(t, err)
	require.NoError(t, app.Close())

	assert.Contains(t, logs.String(), "schema_version=5")
	assert.FileExists(t, filepath.Join(dir, "master.key"))

	_, err = NewApp(ctx, &config.Config{DataDir: dir, KeySource: "file", MergePolicy: "bogus"}, log)
	assert.Error(t, err)
}
