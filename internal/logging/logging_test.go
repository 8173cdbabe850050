package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := New("debug", "json", &buf)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.WithField("project", "alpha").Debug("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["project"] != "alpha" || entry["msg"] != "hello" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestNew_Defaults(t *testing.T) {
	log, err := New("", "", &bytes.Buffer{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if log.GetLevel() != logrus.InfoLevel {
		t.Fatalf("level = %v, want info", log.GetLevel())
	}
}

func TestNew_Invalid(t *testing.T) {
	if _, err := New("loud", "text", &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for bad level")
	}
	if _, err := New("info", "xml", &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for bad format")
	}
}
