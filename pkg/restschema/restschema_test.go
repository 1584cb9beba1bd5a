package restschema_test

import (
	"context"
	"encoding/json"
	"sort"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-metabox/pkg/field"
	"github.com/goliatone/go-metabox/pkg/metabox"
	"github.com/goliatone/go-metabox/pkg/metavalue"
	"github.com/goliatone/go-metabox/pkg/restschema"
	"github.com/goliatone/go-metabox/pkg/security"
	"github.com/goliatone/go-metabox/pkg/storage/memory"
	"github.com/goliatone/go-metabox/pkg/testsupport"
)

func newRegistry(t *testing.T) (*metabox.Registry, *memory.Store) {
	t.Helper()

	templates, err := metabox.NewTemplates()
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	store := testsupport.NewStore(t)
	deps := metabox.Deps{
		Store:      store,
		Nonces:     testsupport.Nonces(t),
		Authorizer: security.NewRoleAuthorizer(nil),
		Templates:  templates,
	}

	simple, err := metabox.NewSimple(metabox.Config{Key: "my_description"}, []field.Field{
		field.Text("my_image", field.WithPlaceholder("image")),
		field.New("my_date", field.TypeDate),
	}, deps)
	if err != nil {
		t.Fatalf("simple: %v", err)
	}
	group, err := metabox.NewGroup(metabox.Config{Key: "my_part_title", Title: "Parts"}, [][]field.Field{
		{field.Text("part_1"), field.New("tone", field.TypeSelect, field.WithChoices("warm", "cold"))},
	}, deps)
	if err != nil {
		t.Fatalf("group: %v", err)
	}
	repeater, err := metabox.NewRepeater(metabox.Config{Key: "my_desc_images"}, []field.Field{
		field.Image("img"),
		field.Textarea("info"),
	}, deps)
	if err != nil {
		t.Fatalf("repeater: %v", err)
	}

	registry := metabox.NewRegistry()
	registry.MustRegister(simple)
	registry.MustRegister(group)
	registry.MustRegister(repeater)
	return registry, store
}

func TestBuild_DescribesEveryKey(t *testing.T) {
	ctx := context.Background()
	registry, _ := newRegistry(t)

	doc, err := restschema.Build(ctx, registry, restschema.Info{ServerURL: "/api"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if got := doc.Paths.Len(); got != 2 {
		t.Fatalf("expected 2 paths, got %d", got)
	}
	if op := doc.Paths.Value("/posts/{id}/meta/{key}").Get; op == nil || op.OperationID != "getPostMetaKey" {
		t.Fatalf("unexpected key operation %+v", op)
	}

	postMeta := doc.Components.Schemas[restschema.PostMetaSchema].Value
	var properties []string
	for name := range postMeta.Properties {
		properties = append(properties, name)
	}
	sort.Strings(properties)
	want := []string{"my_date", "my_desc_images", "my_image", "my_part_title"}
	if diff := cmp.Diff(want, properties); diff != "" {
		t.Fatalf("PostMeta properties mismatch (-want +got):\n%s", diff)
	}
	if ref := postMeta.Properties["my_desc_images"].Ref; ref != "#/components/schemas/my_desc_images" {
		t.Fatalf("expected repeater ref, got %q", ref)
	}

	repeater := doc.Components.Schemas["my_desc_images"].Value
	if !repeater.Type.Is(openapi3.TypeArray) {
		t.Fatalf("expected repeater array schema, got %v", repeater.Type)
	}
	if kind := repeater.Extensions[restschema.KindExtension]; kind != "repeater" {
		t.Fatalf("expected kind extension repeater, got %v", kind)
	}
	group := doc.Components.Schemas["my_part_title"].Value
	if group.Title != "Parts" || !group.Type.Is(openapi3.TypeObject) {
		t.Fatalf("unexpected group schema %+v", group)
	}
	if diff := cmp.Diff([]any{"warm", "cold"}, group.Properties["tone"].Value.Enum); diff != "" {
		t.Fatalf("tone enum mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_RoundTripsThroughLoader(t *testing.T) {
	ctx := context.Background()
	registry, _ := newRegistry(t)

	doc, err := restschema.Build(ctx, registry, restschema.Info{Title: "Meta", Version: "2.0.0"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	loaded, err := openapi3.NewLoader().LoadFromData(data)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := loaded.Validate(ctx); err != nil {
		t.Fatalf("validate loaded: %v", err)
	}
	if loaded.Info.Title != "Meta" || loaded.Info.Version != "2.0.0" {
		t.Fatalf("unexpected info %+v", loaded.Info)
	}
	ref := loaded.Components.Schemas[restschema.PostMetaSchema].Value.Properties["my_part_title"]
	if ref.Value == nil || ref.Value.Title != "Parts" {
		t.Fatalf("expected resolved group ref, got %+v", ref)
	}
}

func TestFieldSchema(t *testing.T) {
	cases := []struct {
		field   field.Field
		format  string
		pattern string
		enum    []any
	}{
		{field: field.New("d", field.TypeDate), format: "date"},
		{field: field.New("e", field.TypeEmail), format: "email"},
		{field: field.Image("i"), format: "uri-reference"},
		{field: field.New("n", field.TypeNumber), pattern: `^-?[0-9]+(\.[0-9]+)?$`},
		{field: field.New("c", field.TypeCheckbox), enum: []any{"1"}},
		{field: field.Text("t")},
	}
	for _, tc := range cases {
		t.Run(tc.field.Name, func(t *testing.T) {
			schema := restschema.FieldSchema(tc.field)
			if !schema.Type.Is(openapi3.TypeString) {
				t.Fatalf("expected string type, got %v", schema.Type)
			}
			if schema.Format != tc.format || schema.Pattern != tc.pattern {
				t.Fatalf("format/pattern = %q/%q, want %q/%q", schema.Format, schema.Pattern, tc.format, tc.pattern)
			}
			if diff := cmp.Diff(tc.enum, schema.Enum); diff != "" {
				t.Fatalf("enum mismatch (-want +got):\n%s", diff)
			}
		})
	}

	withDefault := restschema.FieldSchema(field.Text("title", field.WithLabel("Title"), field.WithDefault("Untitled")))
	if withDefault.Title != "Title" || withDefault.Default != "Untitled" {
		t.Fatalf("unexpected title/default %q/%v", withDefault.Title, withDefault.Default)
	}
}

func TestCollectAndValue(t *testing.T) {
	ctx := context.Background()
	registry, store := newRegistry(t)
	postID := testsupport.HelloPost.ID

	seed := map[string]string{
		"my_image":       "/uploads/a.png",
		"my_part_title":  `{"part_1":"One","tone":"warm"}`,
		"my_desc_images": `[{"img":"/b.png","info":"second"},{"img":"/a.png","info":"first"}]`,
		"unrelated":      "ignored",
	}
	for key, value := range seed {
		if err := store.UpdateMeta(ctx, postID, key, value); err != nil {
			t.Fatalf("seed %s: %v", key, err)
		}
	}

	got, err := restschema.Collect(ctx, registry, store, postID)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	want := map[string]any{
		"my_image":      "/uploads/a.png",
		"my_part_title": metavalue.Group{"part_1": "One", "tone": "warm"},
		"my_desc_images": metavalue.Rows{
			{"img": "/b.png", "info": "second"},
			{"img": "/a.png", "info": "first"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("collect mismatch (-want +got):\n%s", diff)
	}

	value, ok, err := restschema.Value(ctx, registry, store, postID, "my_part_title")
	if err != nil || !ok {
		t.Fatalf("value: ok=%v err=%v", ok, err)
	}
	if diff := cmp.Diff(metavalue.Group{"part_1": "One", "tone": "warm"}, value); diff != "" {
		t.Fatalf("value mismatch (-want +got):\n%s", diff)
	}

	if _, ok, err := restschema.Value(ctx, registry, store, postID, "unrelated"); err != nil || ok {
		t.Fatalf("expected unregistered key to be absent, got ok=%v err=%v", ok, err)
	}
	if _, ok, err := restschema.Value(ctx, registry, store, postID, "my_date"); err != nil || ok {
		t.Fatalf("expected unset key to be absent, got ok=%v err=%v", ok, err)
	}
}
