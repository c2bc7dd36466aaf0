package doctor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/hostkit/internal/config"
)

func TestBinaryCheck_Found(t *testing.T) {
	check := &BinaryCheck{Binary: "sh"}

	result := check.Run()

	assert.Equal(t, StatusPass, result.Status)
	assert.Contains(t, result.Message, "sh found")
}

func TestBinaryCheck_Missing(t *testing.T) {
	check := &BinaryCheck{Binary: "definitely-not-a-real-binary", Hint: "install it"}

	result := check.Run()

	assert.Equal(t, StatusFail, result.Status)
	assert.Equal(t, "install it", result.Suggestion)
}

func TestPathCheck_Found(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sudo")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755))

	check := &PathCheck{Name_: "sudo", Path: path}
	result := check.Run()

	assert.Equal(t, StatusPass, result.Status)
}

func TestPathCheck_MissingWarns(t *testing.T) {
	check := &PathCheck{Name_: "iptables", Path: filepath.Join(t.TempDir(), "iptables"), Hint: "set 'iptables'"}

	result := check.Run()

	assert.Equal(t, StatusWarn, result.Status)
	assert.Equal(t, "set 'iptables'", result.Suggestion)
}

func TestPathCheck_DirectoryWarns(t *testing.T) {
	check := &PathCheck{Name_: "sudo", Path: t.TempDir()}

	result := check.Run()

	assert.Equal(t, StatusWarn, result.Status)
}

func TestConfigCheck(t *testing.T) {
	result := (&ConfigCheck{Config: config.DefaultConfig()}).Run()
	assert.Equal(t, StatusPass, result.Status)
	assert.Contains(t, result.Message, "local machine")

	bad := config.DefaultConfig()
	bad.NFSVersion = 5
	result = (&ConfigCheck{Config: bad}).Run()
	assert.Equal(t, StatusFail, result.Status)
}

func TestChecks_LocalOmitsRemoteProbes(t *testing.T) {
	checks := Checks(config.DefaultConfig())

	for _, c := range checks {
		assert.NotEqual(t, "remote", c.Category())
	}
}

func TestChecks_RemoteAddsTransportAndReachability(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Host = "node1"

	checks := Checks(cfg)

	categories := make(map[string]bool)
	names := make(map[string]bool)
	for _, c := range checks {
		categories[c.Category()] = true
		names[c.Name()] = true
	}
	assert.True(t, categories["remote"])
	assert.True(t, names[cfg.Transport])
}

func TestRunAll_PreservesOrder(t *testing.T) {
	cfg := config.DefaultConfig()
	checks := Checks(cfg)

	results := RunAll(checks)

	require.Len(t, results, len(checks))
	for i, c := range checks {
		assert.Equal(t, c.Name(), results[i].Name)
	}
}
