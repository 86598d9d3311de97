package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bcp-innovations/hyperlane-cosmos/util"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celestiaorg/hyperlane-chains/pkg/core"
	"github.com/celestiaorg/hyperlane-chains/pkg/ethereum"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&errOut)
	err := root.Execute()
	return out.String(), err
}

func initConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hypchains", "config.toml")
	out, err := run(t, "config", "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)
	return path
}

func TestConfigInit(t *testing.T) {
	path := initConfig(t)

	_, err := run(t, "config", "init", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestMissingConfig(t *testing.T) {
	_, err := run(t, "chains", "--config", filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestChains(t *testing.T) {
	path := initConfig(t)

	out, err := run(t, "chains", "--config", path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "PROTOCOL")
	assert.Contains(t, lines[1], "celestia")
	assert.Contains(t, lines[1], "cosmos")
	assert.Contains(t, lines[2], "sepolia")
	assert.Contains(t, lines[2], "[outbox mailbox]")
}

func TestCalldata(t *testing.T) {
	path := initConfig(t)
	msg := core.Message{
		Origin:      1,
		Sender:      util.HexAddress{31: 1},
		Destination: 11155111,
		Recipient:   util.HexAddress{31: 2},
		Nonce:       7,
		Body:        []byte("hello"),
	}
	metadata := []byte{0xde, 0xad}

	out, err := run(t, "calldata", "sepolia", hexutil.Encode(msg.Bytes()), "--metadata", "dead", "--config", path)
	require.NoError(t, err)

	expected, err := ethereum.MailboxABI().Pack("process", metadata, msg.Bytes())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "id="+msg.ID().String(), lines[0])
	assert.Equal(t, hexutil.Encode(expected), lines[1])
}

func TestCalldataRejectsShortMessage(t *testing.T) {
	path := initConfig(t)

	_, err := run(t, "calldata", "sepolia", "0x0102", "--config", path)
	require.ErrorIs(t, err, core.ErrDecode)
}

func TestCosmosOutboxUnsupported(t *testing.T) {
	path := initConfig(t)

	_, err := run(t, "checkpoint", "celestia", "--config", path)
	require.ErrorIs(t, err, core.ErrUnsupportedCapability)
}

func TestUnknownChain(t *testing.T) {
	path := initConfig(t)

	_, err := run(t, "count", "goerli", "--config", path)
	require.Error(t, err)
}

func TestLagFlag(t *testing.T) {
	cmd := countCmd(&app{})

	lag, err := lagFromFlags(cmd.Flags())
	require.NoError(t, err)
	assert.Nil(t, lag)

	require.NoError(t, cmd.Flags().Set(FlagLag, "12"))
	lag, err = lagFromFlags(cmd.Flags())
	require.NoError(t, err)
	require.NotNil(t, lag)
	assert.Equal(t, uint64(12), *lag)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, "INFO", "json")
	require.NoError(t, err)
	logger.Info("indexed", "messages", 3)
	logger.Debug("hidden")
	assert.Contains(t, buf.String(), `"messages":3`)
	assert.NotContains(t, buf.String(), "hidden")

	_, err = newLogger(&buf, "loud", "plain")
	require.Error(t, err)
	_, err = newLogger(&buf, "info", "yaml")
	require.Error(t, err)
}
