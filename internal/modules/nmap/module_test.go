package nmap

import (
	"context"
	"strings"
	"testing"

	"recondragon/internal/core/domain"
	"recondragon/internal/platform/logx"
	"recondragon/internal/testutil"
)

func TestModule_DryRunProjection(t *testing.T) {
	m := New(logx.NewSilent(), "80,443", true, true, 0)

	res, err := m.Invoke(context.Background(), domain.Invocation{
		Target:  "example.com",
		Execute: false,
	})

	testutil.AssertNoError(t, err, "dry-run never fails")
	testutil.AssertTrue(t, res.Success, "projection is successful")
	testutil.AssertEqual(t, len(res.Artifacts), 0, "no artifacts in dry-run")
	testutil.AssertEqual(t, res.Summary["dry_run"], true, "dry_run flag")
	testutil.AssertContains(t, res.Summary["planned_command"].(string), "nmap -p 80,443 -sV -Pn example.com", "projected argv")
}

func TestModule_DryRunWithoutServiceDetect(t *testing.T) {
	m := New(logx.NewSilent(), "", false, false, 0)

	res, err := m.Invoke(context.Background(), domain.Invocation{Target: "example.com"})

	testutil.AssertNoError(t, err, "dry-run")
	planned := res.Summary["planned_command"].(string)
	testutil.AssertContains(t, planned, defaultPorts, "default port range")
	testutil.AssertFalse(t, strings.Contains(planned, "-sV"), "no -sV without service detect")
}

func TestModule_Validate(t *testing.T) {
	m := New(logx.NewSilent(), "1-1000", false, false, 0)
	testutil.AssertNoError(t, m.Validate(), "valid config")

	m.ports = ""
	testutil.AssertError(t, m.Validate(), "empty ports rejected")
}

func TestModule_Identity(t *testing.T) {
	m := New(logx.NewSilent(), "", false, false, 0)
	testutil.AssertEqual(t, m.Name(), "nmap", "name")
	testutil.AssertNotEqual(t, m.Version(), "", "version set")
	testutil.AssertNoError(t, m.Close(), "close")
}
