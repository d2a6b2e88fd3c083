package cliapp

import (
	"errors"
	"io"
	"log/slog"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func runRoot(t *testing.T, args ...string) error {
	t.Helper()
	root := newRootCmd(discardLogger())
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.Execute()
}

func TestProxyCmd_RequiresTarget(t *testing.T) {
	err := runRoot(t, "proxy", "--output", "/tmp/whatever.jsonl")
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 2 {
		t.Fatalf("err = %v, want *ExitError with code 2", err)
	}
}

func TestProxyCmd_RequiresOutput(t *testing.T) {
	err := runRoot(t, "proxy", "--target", "http://example.com")
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 2 {
		t.Fatalf("err = %v, want *ExitError with code 2", err)
	}
}

func TestCookCmd_RequiresOutput(t *testing.T) {
	err := runRoot(t, "cook", "/tmp/does-not-exist.jsonl")
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 2 {
		t.Fatalf("err = %v, want *ExitError with code 2", err)
	}
}

func TestCookCmd_InvalidFormatRejected(t *testing.T) {
	err := runRoot(t, "cook", "/tmp/does-not-exist.jsonl", "-o", "/tmp/out.json", "--format", "bogus")
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 2 {
		t.Fatalf("err = %v, want *ExitError with code 2", err)
	}
}

func TestCookCmd_UnreadableInputExitsOne(t *testing.T) {
	err := runRoot(t, "cook", "/tmp/llmtrace-definitely-does-not-exist.jsonl", "-o", "/tmp/out.json")
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 1 {
		t.Fatalf("err = %v, want *ExitError with code 1", err)
	}
}

func TestVersionCmd_Runs(t *testing.T) {
	if err := runRoot(t, "version"); err != nil {
		t.Fatalf("version command error = %v", err)
	}
}
