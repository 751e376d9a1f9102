package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	hvconfig "homeval/config"
)

func TestArtifactsSaveLocal(t *testing.T) {
	dir := t.TempDir()
	a, err := NewArtifacts(context.Background(), hvconfig.ArtifactConfig{Dir: dir}, nil)
	if err != nil {
		t.Fatalf("new artifacts: %v", err)
	}

	loc, err := a.Save(context.Background(), "abc123/20260101T000000Z-navigate.html", []byte("<html></html>"), "text/html")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	want := filepath.Join(dir, "abc123", "20260101T000000Z-navigate.html")
	if loc != want {
		t.Fatalf("expected %s, got %s", want, loc)
	}
	data, err := os.ReadFile(want)
	if err != nil || string(data) != "<html></html>" {
		t.Fatalf("unexpected file content %q (%v)", data, err)
	}
}

func TestArtifactsKeyCannotEscapeDir(t *testing.T) {
	dir := t.TempDir()
	a, err := NewArtifacts(context.Background(), hvconfig.ArtifactConfig{Dir: dir}, nil)
	if err != nil {
		t.Fatalf("new artifacts: %v", err)
	}

	loc, err := a.Save(context.Background(), "../../etc/shot.png", []byte("x"), "image/png")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if filepath.Dir(loc) != filepath.Join(dir, "etc") {
		t.Fatalf("key escaped the artifact dir: %s", loc)
	}

	if _, err := a.Save(context.Background(), "/", []byte("x"), "image/png"); err == nil {
		t.Fatalf("expected error for empty key")
	}
}

func TestObjectURL(t *testing.T) {
	aws := ObjectURL(hvconfig.S3Config{Bucket: "shots", Region: "eu-central-1"}, "a/b.png")
	if aws != "https://shots.s3.eu-central-1.amazonaws.com/a/b.png" {
		t.Fatalf("unexpected aws url %s", aws)
	}
	custom := ObjectURL(hvconfig.S3Config{Bucket: "shots", Endpoint: "http://localhost:9000/"}, "a/b.png")
	if custom != "http://localhost:9000/shots/a/b.png" {
		t.Fatalf("unexpected endpoint url %s", custom)
	}
}
