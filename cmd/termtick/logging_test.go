package main

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
)

const testMaxSize = 1024

func TestSetupLogging_DisabledByDefault(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	if f := setupLogging(false, dir, testMaxSize); f != nil {
		f.Close()
		t.Error("expected nil log file when debug=false")
	}
	if log.Writer() != io.Discard {
		t.Errorf("log output = %v, want io.Discard", log.Writer())
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("log directory created without debug")
	}
}

func TestSetupLogging_EnabledWithDebug(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	f := setupLogging(true, dir, testMaxSize)
	if f == nil {
		t.Fatal("expected log file when debug=true")
	}
	defer f.Close()
	defer log.SetOutput(io.Discard)

	log.Println("test message")

	info, err := os.Stat(filepath.Join(dir, logFileName))
	if err != nil {
		t.Fatalf("log file missing: %v", err)
	}
	if info.Size() == 0 {
		t.Error("log file empty")
	}
	if log.Writer() == os.Stdout || log.Writer() == os.Stderr {
		t.Error("log output must not be stdout or stderr")
	}
}

func TestSetupLogging_Rotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, logFileName)
	if err := os.WriteFile(path, make([]byte, testMaxSize+1), 0o644); err != nil {
		t.Fatal(err)
	}

	f := setupLogging(true, dir, testMaxSize)
	if f == nil {
		t.Fatal("expected log file")
	}
	defer f.Close()
	defer log.SetOutput(io.Discard)

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	rotated := false
	for _, e := range entries {
		if e.Name() != logFileName && filepath.Ext(e.Name()) == ".log" {
			rotated = true
		}
	}
	if !rotated {
		t.Error("oversized log not rotated")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() > testMaxSize {
		t.Errorf("new log size %d exceeds %d", info.Size(), testMaxSize)
	}
}
