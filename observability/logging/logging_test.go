package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetupRemapsAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := setup(&buf, "nftlend", "test")
	logger.Warn("escrow drained", "amount", 6790)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "WARN", line["severity"])
	require.Equal(t, "escrow drained", line["message"])
	require.Equal(t, "nftlend", line["service"])
	require.Equal(t, "test", line["env"])
	require.Contains(t, line, "timestamp")
	require.NotContains(t, line, "level")
	require.NotContains(t, line, "msg")
}

func TestSetupOmitsEmptyEnv(t *testing.T) {
	var buf bytes.Buffer
	logger := setup(&buf, "nftlend", "  ")
	logger.Info("started")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.NotContains(t, line, "env")
}

func TestSetupBridgesStdLogger(t *testing.T) {
	var buf bytes.Buffer
	setup(&buf, "nftlend", "test")
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	log.Println("legacy line")

	scanner := bufio.NewScanner(&buf)
	require.True(t, scanner.Scan())
	var line map[string]any
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
	require.Equal(t, "INFO", line["severity"])
	require.Equal(t, "legacy line", line["message"])
	require.Equal(t, "nftlend", line["service"])
}
