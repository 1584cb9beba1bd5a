package prompt_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-metabox/pkg/field"
	"github.com/goliatone/go-metabox/pkg/metabox"
	"github.com/goliatone/go-metabox/pkg/prompt"
	"github.com/goliatone/go-metabox/pkg/security"
	"github.com/goliatone/go-metabox/pkg/storage/memory"
	"github.com/goliatone/go-metabox/pkg/testsupport"
)

type stubDriver struct {
	inputs     []string
	selectIdx  []int
	confirm    []bool
	textAreas  []string
	inputPos   int
	selectPos  int
	confirmPos int
	textPos    int

	defaults     []string
	confirmAsked []string
	infoMessages []string
}

func (s *stubDriver) Input(_ context.Context, cfg prompt.InputConfig) (string, error) {
	s.defaults = append(s.defaults, cfg.Default)
	if s.inputPos >= len(s.inputs) {
		return "", errors.New("no input scripted")
	}
	val := s.inputs[s.inputPos]
	s.inputPos++
	if cfg.Validator != nil {
		if err := cfg.Validator(val); err != nil {
			return "", err
		}
	}
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, cfg prompt.ConfirmConfig) (bool, error) {
	s.confirmAsked = append(s.confirmAsked, cfg.Message)
	if s.confirmPos >= len(s.confirm) {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, _ prompt.SelectConfig) (int, error) {
	if s.selectPos >= len(s.selectIdx) {
		return -1, errors.New("no select scripted")
	}
	val := s.selectIdx[s.selectPos]
	s.selectPos++
	return val, nil
}

func (s *stubDriver) TextArea(_ context.Context, cfg prompt.TextAreaConfig) (string, error) {
	s.defaults = append(s.defaults, cfg.Default)
	if s.textPos >= len(s.textAreas) {
		return "", errors.New("no textarea scripted")
	}
	val := s.textAreas[s.textPos]
	s.textPos++
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	return nil
}

type abortingDriver struct{ stubDriver }

func (a *abortingDriver) Input(context.Context, prompt.InputConfig) (string, error) {
	return "", prompt.ErrAborted
}

func deps(t *testing.T) (metabox.Deps, *memory.Store) {
	t.Helper()

	templates, err := metabox.NewTemplates()
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	store := testsupport.NewStore(t)
	return metabox.Deps{
		Store:      store,
		Nonces:     testsupport.Nonces(t),
		Authorizer: security.NewRoleAuthorizer(nil),
		Templates:  templates,
	}, store
}

func newEditor(t *testing.T, d metabox.Deps, driver prompt.PromptDriver) *prompt.Editor {
	t.Helper()

	editor, err := prompt.New(d.Store, d.Nonces, prompt.WithPromptDriver(driver))
	if err != nil {
		t.Fatalf("editor: %v", err)
	}
	return editor
}

func TestEdit_Simple(t *testing.T) {
	d, store := deps(t)
	box, err := metabox.NewSimple(metabox.Config{Key: "my_description"}, []field.Field{
		field.Image("my_image"),
		field.New("my_flag", field.TypeCheckbox),
		field.New("my_kind", field.TypeSelect, field.WithChoices("a=Alpha", "b=Beta")),
		field.Textarea("my_notes"),
	}, d)
	if err != nil {
		t.Fatalf("box: %v", err)
	}
	ctx := testsupport.UserContext(testsupport.Admin)
	if err := store.UpdateMeta(ctx, testsupport.HelloPost.ID, "my_image", "/old.png"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	driver := &stubDriver{
		inputs:    []string{"/uploads/new.png"},
		confirm:   []bool{true},
		selectIdx: []int{2},
		textAreas: []string{"line one\nline two"},
	}
	if _, err := newEditor(t, d, driver).Edit(ctx, box, testsupport.HelloPost); err != nil {
		t.Fatalf("edit: %v", err)
	}

	got := map[string]string{}
	for _, key := range []string{"my_image", "my_flag", "my_kind", "my_notes"} {
		got[key] = testsupport.MustMeta(t, store, testsupport.HelloPost.ID, key)
	}
	want := map[string]string{
		"my_image": "/uploads/new.png",
		"my_flag":  "1",
		"my_kind":  "b",
		"my_notes": "line one\nline two",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("stored values mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"/old.png", ""}, driver.defaults); diff != "" {
		t.Fatalf("prompt defaults mismatch (-want +got):\n%s", diff)
	}
	if len(driver.infoMessages) != 1 {
		t.Fatalf("expected one heading, got %v", driver.infoMessages)
	}
}

func TestEdit_GroupKeepsHiddenValues(t *testing.T) {
	d, store := deps(t)
	box, err := metabox.NewGroup(metabox.Config{Key: "my_part_title"}, [][]field.Field{
		{field.Text("part_1"), field.Text("part_2")},
		{field.New("ref", field.TypeHidden)},
	}, d)
	if err != nil {
		t.Fatalf("box: %v", err)
	}
	ctx := testsupport.UserContext(testsupport.Editor)
	postID := testsupport.HelloPost.ID
	if err := store.UpdateMeta(ctx, postID, "my_part_title", `{"part_1":"One","ref":"abc"}`); err != nil {
		t.Fatalf("seed: %v", err)
	}

	driver := &stubDriver{inputs: []string{"Uno", "Dos"}}
	if _, err := newEditor(t, d, driver).Edit(ctx, box, testsupport.HelloPost); err != nil {
		t.Fatalf("edit: %v", err)
	}

	got := testsupport.MustMeta(t, store, postID, "my_part_title")
	if want := `{"part_1":"Uno","part_2":"Dos","ref":"abc"}`; got != want {
		t.Fatalf("group mismatch\nwant: %s\n got: %s", want, got)
	}
	if diff := cmp.Diff([]string{"One", ""}, driver.defaults); diff != "" {
		t.Fatalf("prompt defaults mismatch (-want +got):\n%s", diff)
	}
	if len(driver.infoMessages) != 3 {
		t.Fatalf("expected a heading and two row markers, got %v", driver.infoMessages)
	}
	if diff := cmp.Diff([]string{"Row 1 of 2", "Row 2 of 2"}, driver.infoMessages[1:]); diff != "" {
		t.Fatalf("row markers mismatch (-want +got):\n%s", diff)
	}
}

func TestEdit_RepeaterDropsKeepsAndAppends(t *testing.T) {
	d, store := deps(t)
	box, err := metabox.NewRepeater(metabox.Config{Key: "my_desc_images"}, []field.Field{
		field.Image("img"),
		field.Textarea("info"),
	}, d)
	if err != nil {
		t.Fatalf("box: %v", err)
	}
	ctx := testsupport.UserContext(testsupport.Admin)
	postID := testsupport.HelloPost.ID
	seed := `[{"img":"/a.png","info":"first"},{"img":"/b.png","info":"second"}]`
	if err := store.UpdateMeta(ctx, postID, "my_desc_images", seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	driver := &stubDriver{
		confirm:   []bool{false, true, true, false},
		inputs:    []string{"/b2.png", "/c.png"},
		textAreas: []string{"second edited", "third"},
	}
	if _, err := newEditor(t, d, driver).Edit(ctx, box, testsupport.HelloPost); err != nil {
		t.Fatalf("edit: %v", err)
	}

	got := testsupport.MustMeta(t, store, postID, "my_desc_images")
	want := `[{"img":"/b2.png","info":"second edited"},{"img":"/c.png","info":"third"}]`
	if got != want {
		t.Fatalf("rows mismatch\nwant: %s\n got: %s", want, got)
	}
	wantAsked := []string{
		"Keep row 1 (/a.png, first)?",
		"Keep row 2 (/b.png, second)?",
		"Add a row?",
		"Add a row?",
	}
	if diff := cmp.Diff(wantAsked, driver.confirmAsked); diff != "" {
		t.Fatalf("confirm prompts mismatch (-want +got):\n%s", diff)
	}
}

func TestEdit_RepeaterSummaryCutsOnRuneBoundary(t *testing.T) {
	d, store := deps(t)
	box, err := metabox.NewRepeater(metabox.Config{Key: "my_desc_images"}, []field.Field{field.Textarea("info")}, d)
	if err != nil {
		t.Fatalf("box: %v", err)
	}
	ctx := testsupport.UserContext(testsupport.Admin)
	postID := testsupport.HelloPost.ID
	info := strings.Repeat("日本語", 20)
	if err := store.UpdateMeta(ctx, postID, "my_desc_images", `[{"info":"`+info+`"}]`); err != nil {
		t.Fatalf("seed: %v", err)
	}

	driver := &stubDriver{confirm: []bool{false, false}}
	if _, err := newEditor(t, d, driver).Edit(ctx, box, testsupport.HelloPost); err != nil {
		t.Fatalf("edit: %v", err)
	}

	want := "Keep row 1 (" + string([]rune(info)[:37]) + "...)?"
	if len(driver.confirmAsked) == 0 || driver.confirmAsked[0] != want {
		t.Fatalf("unexpected row prompt %q", driver.confirmAsked)
	}
	if !utf8.ValidString(driver.confirmAsked[0]) {
		t.Fatalf("row prompt is not valid UTF-8: %q", driver.confirmAsked[0])
	}
}

func TestEdit_RepeaterWithNoRowsDeletesKey(t *testing.T) {
	d, store := deps(t)
	box, err := metabox.NewRepeater(metabox.Config{Key: "my_desc_images"}, []field.Field{field.Image("img")}, d)
	if err != nil {
		t.Fatalf("box: %v", err)
	}
	ctx := testsupport.UserContext(testsupport.Admin)
	postID := testsupport.HelloPost.ID
	if err := store.UpdateMeta(ctx, postID, "my_desc_images", `[{"img":"/a.png"}]`); err != nil {
		t.Fatalf("seed: %v", err)
	}

	driver := &stubDriver{confirm: []bool{false, false}}
	if _, err := newEditor(t, d, driver).Edit(ctx, box, testsupport.HelloPost); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if _, ok, _ := store.GetMeta(ctx, postID, "my_desc_images"); ok {
		t.Fatal("expected repeater key to be deleted")
	}
}

func TestEdit_GateStillApplies(t *testing.T) {
	d, store := deps(t)
	box, err := metabox.NewSimple(metabox.Config{Key: "my_description"}, []field.Field{field.Text("my_title")}, d)
	if err != nil {
		t.Fatalf("box: %v", err)
	}
	ctx := testsupport.UserContext(testsupport.Subscriber)

	driver := &stubDriver{inputs: []string{"nope"}}
	_, err = newEditor(t, d, driver).Edit(ctx, box, testsupport.HelloPost)
	if !errors.Is(err, metabox.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, ok, _ := store.GetMeta(ctx, testsupport.HelloPost.ID, "my_title"); ok {
		t.Fatal("expected nothing stored for a forbidden user")
	}
}

func TestEdit_Abort(t *testing.T) {
	d, _ := deps(t)
	box, err := metabox.NewSimple(metabox.Config{Key: "my_description"}, []field.Field{field.Text("my_title")}, d)
	if err != nil {
		t.Fatalf("box: %v", err)
	}

	_, err = newEditor(t, d, &abortingDriver{}).Edit(testsupport.UserContext(testsupport.Admin), box, testsupport.HelloPost)
	if !errors.Is(err, prompt.ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
}

func TestEdit_DateValidation(t *testing.T) {
	d, store := deps(t)
	box, err := metabox.NewSimple(metabox.Config{Key: "my_dates"}, []field.Field{field.New("my_date", field.TypeDate)}, d)
	if err != nil {
		t.Fatalf("box: %v", err)
	}
	ctx := testsupport.UserContext(testsupport.Admin)

	if _, err := newEditor(t, d, &stubDriver{inputs: []string{"31/31/2024"}}).Edit(ctx, box, testsupport.HelloPost); err == nil {
		t.Fatal("expected invalid date to be rejected")
	}
	if _, err := newEditor(t, d, &stubDriver{inputs: []string{"05-03-2024"}}).Edit(ctx, box, testsupport.HelloPost); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if got := testsupport.MustMeta(t, store, testsupport.HelloPost.ID, "my_date"); got != "2024-03-05" {
		t.Fatalf("expected normalized date, got %q", got)
	}
}
