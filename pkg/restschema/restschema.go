// Package restschema describes the metadata of registered boxes as an
// OpenAPI 3 document and collects the matching JSON payload for a post.
package restschema

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-metabox/pkg/field"
	"github.com/goliatone/go-metabox/pkg/metabox"
	"github.com/goliatone/go-metabox/pkg/metavalue"
	"github.com/goliatone/go-metabox/pkg/sanitize"
	"github.com/goliatone/go-metabox/pkg/storage"
)

const (
	// PostMetaSchema names the component holding every registered key.
	PostMetaSchema = "PostMeta"
	// MetaEntrySchema names the single-key response component.
	MetaEntrySchema = "MetaEntry"
	// KindExtension records the box kind on each box component.
	KindExtension = "x-metabox-kind"
)

// Info sets the document metadata.
type Info struct {
	Title     string
	Version   string
	ServerURL string
}

// Build describes GET /posts/{id}/meta and GET /posts/{id}/meta/{key} for the
// boxes in registry. The document is validated before it is returned.
func Build(ctx context.Context, registry *metabox.Registry, info Info) (*openapi3.T, error) {
	if registry == nil {
		return nil, errors.New("restschema: registry is required")
	}
	if info.Title == "" {
		info.Title = "Post meta"
	}
	if info.Version == "" {
		info.Version = "1.0.0"
	}

	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info:    &openapi3.Info{Title: info.Title, Version: info.Version},
		Paths:   openapi3.NewPaths(),
		Components: &openapi3.Components{
			Schemas: openapi3.Schemas{},
		},
	}
	if info.ServerURL != "" {
		doc.Servers = openapi3.Servers{{URL: info.ServerURL}}
	}

	postMeta := openapi3.NewObjectSchema()
	postMeta.Description = "Stored values of every registered meta key. Unset keys are omitted."
	var keys []string
	for _, box := range registry.Boxes() {
		cfg := box.Config()
		switch box.Kind() {
		case metabox.KindSimple:
			for _, f := range box.Fields() {
				postMeta.WithProperty(f.Name, FieldSchema(f))
				keys = append(keys, f.Name)
			}
		default:
			doc.Components.Schemas[cfg.Key] = openapi3.NewSchemaRef("", BoxSchema(box))
			postMeta.WithPropertyRef(cfg.Key, componentRef(doc, cfg.Key))
			keys = append(keys, cfg.Key)
		}
	}
	sort.Strings(keys)
	doc.Components.Schemas[PostMetaSchema] = openapi3.NewSchemaRef("", postMeta)

	entry := openapi3.NewObjectSchema().
		WithProperty("key", openapi3.NewStringSchema().WithEnum(toAny(keys)...)).
		WithProperty("value", openapi3.NewSchema())
	entry.Required = []string{"key", "value"}
	doc.Components.Schemas[MetaEntrySchema] = openapi3.NewSchemaRef("", entry)

	postID := &openapi3.ParameterRef{Value: openapi3.NewPathParameter("id").
		WithDescription("Post ID").
		WithSchema(openapi3.NewInt64Schema().WithMin(1))}
	metaKey := &openapi3.ParameterRef{Value: openapi3.NewPathParameter("key").
		WithDescription("Meta key").
		WithSchema(openapi3.NewStringSchema().WithEnum(toAny(keys)...))}

	doc.Paths.Set("/posts/{id}/meta", &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "getPostMeta",
			Summary:     "Read every registered meta value of a post",
			Tags:        []string{"meta"},
			Parameters:  openapi3.Parameters{postID},
			Responses: openapi3.NewResponses(
				openapi3.WithStatus(200, jsonResponse("Meta values", componentRef(doc, PostMetaSchema))),
				openapi3.WithStatus(404, &openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription("Post not found")}),
			),
		},
	})
	doc.Paths.Set("/posts/{id}/meta/{key}", &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "getPostMetaKey",
			Summary:     "Read one meta value of a post",
			Tags:        []string{"meta"},
			Parameters:  openapi3.Parameters{postID, metaKey},
			Responses: openapi3.NewResponses(
				openapi3.WithStatus(200, jsonResponse("Meta value", componentRef(doc, MetaEntrySchema))),
				openapi3.WithStatus(404, &openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription("Post or key not found")}),
			),
		},
	})

	if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("restschema: validate: %w", err)
	}
	return doc, nil
}

// componentRef points at a registered component. The resolved value is kept
// alongside the ref so the document validates without a loader pass.
func componentRef(doc *openapi3.T, name string) *openapi3.SchemaRef {
	var value *openapi3.Schema
	if ref := doc.Components.Schemas[name]; ref != nil {
		value = ref.Value
	}
	return openapi3.NewSchemaRef("#/components/schemas/"+name, value)
}

func jsonResponse(description string, schema *openapi3.SchemaRef) *openapi3.ResponseRef {
	response := openapi3.NewResponse().
		WithDescription(description).
		WithJSONSchemaRef(schema)
	return &openapi3.ResponseRef{Value: response}
}

// BoxSchema describes the stored value of a Group (object) or Repeater
// (array of objects). Simple boxes are described field by field with
// FieldSchema.
func BoxSchema(box metabox.Box) *openapi3.Schema {
	cfg := box.Config()
	object := openapi3.NewObjectSchema()
	for _, f := range box.Fields() {
		object.WithProperty(f.Name, FieldSchema(f))
	}

	schema := object
	if box.Kind() == metabox.KindRepeater {
		schema = openapi3.NewArraySchema().WithItems(object)
	}
	schema.Title = cfg.Title
	schema.Extensions = map[string]any{KindExtension: string(box.Kind())}
	return schema
}

// FieldSchema describes one stored field value. Every value is a string.
func FieldSchema(f field.Field) *openapi3.Schema {
	schema := openapi3.NewStringSchema()
	switch f.Type {
	case field.TypeDate:
		schema.WithFormat("date")
	case field.TypeEmail:
		schema.WithFormat("email")
	case field.TypeURL, field.TypeImage:
		schema.WithFormat("uri-reference")
	case field.TypeNumber:
		schema.WithPattern(sanitize.DecimalPattern)
	case field.TypeColor:
		schema.WithPattern(`^#([0-9a-f]{3}|[0-9a-f]{6})$`)
	case field.TypeCheckbox:
		schema.WithEnum("1")
	case field.TypeSelect:
		values := make([]any, 0, len(f.Options.Choices))
		for _, choice := range f.Options.Choices {
			values = append(values, choice.Value)
		}
		schema.WithEnum(values...)
	}
	if label := f.DisplayLabel(); label != "" {
		schema.Title = label
	}
	if f.Options.Default != "" {
		schema.Default = f.Options.Default
	}
	return schema
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// Collect returns the decoded values of every registered key set on postID:
// strings for Simple fields, metavalue.Group for groups and metavalue.Rows
// for repeaters.
func Collect(ctx context.Context, registry *metabox.Registry, store storage.MetaStore, postID int64) (map[string]any, error) {
	if registry == nil || store == nil {
		return nil, errors.New("restschema: registry and store are required")
	}
	out := make(map[string]any)
	for _, box := range registry.Boxes() {
		for _, key := range metabox.StorageKeys(box) {
			value, ok, err := decode(ctx, box, store, postID, key)
			if err != nil {
				return nil, err
			}
			if ok {
				out[key] = value
			}
		}
	}
	return out, nil
}

// Value returns the decoded value of one registered key.
func Value(ctx context.Context, registry *metabox.Registry, store storage.MetaStore, postID int64, key string) (any, bool, error) {
	if registry == nil || store == nil {
		return nil, false, errors.New("restschema: registry and store are required")
	}
	owner, ok := registry.Owner(key)
	if !ok {
		return nil, false, nil
	}
	box, err := registry.Get(owner)
	if err != nil {
		return nil, false, err
	}
	return decode(ctx, box, store, postID, key)
}

func decode(ctx context.Context, box metabox.Box, store storage.MetaStore, postID int64, key string) (any, bool, error) {
	raw, ok, err := store.GetMeta(ctx, postID, key)
	if err != nil {
		return nil, false, fmt.Errorf("restschema: read %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}
	switch box.Kind() {
	case metabox.KindGroup:
		return metavalue.DecodeGroup(raw), true, nil
	case metabox.KindRepeater:
		return metavalue.DecodeRows(raw), true, nil
	default:
		return raw, true, nil
	}
}
