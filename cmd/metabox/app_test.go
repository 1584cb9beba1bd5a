package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-metabox/pkg/testsupport"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestBoxesCommand(t *testing.T) {
	got, err := execute(t, "boxes")
	if err != nil {
		t.Fatalf("boxes: %v", err)
	}

	golden := filepath.Join("testdata", "boxes.golden")
	if testsupport.WriteMaybeGolden(t, golden, []byte(got)) {
		return
	}
	want := testsupport.MustReadGoldenString(t, golden)
	if diff := testsupport.CompareGolden(want, got); diff != "" {
		t.Fatalf("boxes output mismatch (-want +got):\n%s", diff)
	}
}

func TestPostsCommands(t *testing.T) {
	got, err := execute(t, "posts", "list")
	if err != nil {
		t.Fatalf("posts list: %v", err)
	}
	want := "ID  TYPE  SLUG         TITLE\n" +
		"1   post  hello-world  Hello world\n" +
		"2   page  about        About\n"
	if diff := testsupport.CompareGolden(want, got); diff != "" {
		t.Fatalf("posts list mismatch (-want +got):\n%s", diff)
	}

	got, err = execute(t, "posts", "create", "--type", "page", "--title", "Contact Us")
	if err != nil {
		t.Fatalf("posts create: %v", err)
	}
	if got != "created page 3 (contact-us)\n" {
		t.Fatalf("unexpected create output %q", got)
	}

	got, err = execute(t, "posts", "meta", "1")
	if err != nil {
		t.Fatalf("posts meta: %v", err)
	}
	if strings.TrimSpace(got) != "{}" {
		t.Fatalf("expected empty meta, got %q", got)
	}

	if _, err := execute(t, "posts", "meta", "99"); err == nil {
		t.Fatal("expected unknown post to fail")
	}
}

func TestSchemaCommand(t *testing.T) {
	output := filepath.Join(t.TempDir(), "openapi.yaml")
	got, err := execute(t, "schema", "--format", "yaml", "--output", output)
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	if !strings.Contains(got, "schema written to") {
		t.Fatalf("unexpected output %q", got)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read schema: %v", err)
	}
	doc, err := openapi3.NewLoader().LoadFromData(data)
	if err != nil {
		t.Fatalf("load schema: %v", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		t.Fatalf("validate schema: %v", err)
	}
	if _, ok := doc.Components.Schemas["my_desc_images"]; !ok {
		t.Fatal("expected my_desc_images component")
	}

	if _, err := execute(t, "schema", "--format", "xml"); err == nil {
		t.Fatal("expected unknown format to fail")
	}
}

func TestInvalidFlags(t *testing.T) {
	_, err := execute(t, "--role", "overlord", "boxes")
	if err == nil || !strings.Contains(err.Error(), "METABOX_USER_ROLE") {
		t.Fatalf("expected role error, got %v", err)
	}

	_, err = execute(t, "--definitions", filepath.Join(t.TempDir(), "missing"), "boxes")
	if err == nil || !strings.Contains(err.Error(), "definitions") {
		t.Fatalf("expected definitions error, got %v", err)
	}

	if _, err := execute(t, "edit", "abc", "my_image"); err == nil {
		t.Fatal("expected invalid post id to fail")
	}
	if _, err := execute(t, "edit", "1", "unknown_box"); err == nil {
		t.Fatal("expected unknown box to fail")
	}
}

func TestInitReleasesStoreWhenBuildFails(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("boxes: [\n"), 0o600); err != nil {
		t.Fatalf("write definition: %v", err)
	}
	t.Setenv("METABOX_DB", filepath.Join(t.TempDir(), "meta.db"))
	t.Setenv("METABOX_DEFINITIONS", dir)
	t.Setenv("METABOX_LOG_LEVEL", "error")

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	a := &app{}
	err := a.init(cmd, flags{})
	if err == nil || !strings.Contains(err.Error(), "broken.yaml") {
		t.Fatalf("expected definition error, got %v", err)
	}
	if a.store != nil {
		t.Fatal("expected the store to be closed after a failed build")
	}
	if a.runtime != nil {
		t.Fatal("expected no runtime after a failed build")
	}
}
