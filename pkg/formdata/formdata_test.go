package formdata_test

import (
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-metabox/pkg/formdata"
)

func TestParse_PreservesOrder(t *testing.T) {
	values, err := formdata.Parse("b=2&a=1&b=3&empty=&flag&name=Ada+Lovelace&enc=%C3%A9")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	want := formdata.Values{
		{Key: "b", Value: "2"},
		{Key: "a", Value: "1"},
		{Key: "b", Value: "3"},
		{Key: "empty", Value: ""},
		{Key: "flag", Value: ""},
		{Key: "name", Value: "Ada Lovelace"},
		{Key: "enc", Value: "é"},
	}
	if diff := cmp.Diff(want, values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if values.Get("b") != "2" || !values.Has("flag") || values.Has("missing") {
		t.Fatalf("unexpected lookups on %v", values)
	}
}

func TestParse_ReportsFirstErrorAndContinues(t *testing.T) {
	values, err := formdata.Parse("a=%zz&b=1;c=2&d=4")
	if err == nil || !strings.Contains(err.Error(), "decode value") {
		t.Fatalf("expected decode error, got %v", err)
	}
	if diff := cmp.Diff(formdata.Values{{Key: "d", Value: "4"}}, values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestEncode_RoundTripsOrder(t *testing.T) {
	var values formdata.Values
	values.Add("k[1][img]", "b.png")
	values.Add("k[0][img]", "a b.png")

	parsed, err := formdata.Parse(values.Encode())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if diff := cmp.Diff(values, parsed); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestNameAndSplitName(t *testing.T) {
	if got := formdata.Name("my_images", "0", "img"); got != "my_images[0][img]" {
		t.Fatalf("unexpected name %q", got)
	}
	if got := formdata.Name("my_images", formdata.TemplateRow, ""); got != "my_images[_row]" {
		t.Fatalf("unexpected template name %q", got)
	}

	base, segments, ok := formdata.SplitName("my_images[_row][info]")
	if !ok || base != "my_images" {
		t.Fatalf("unexpected split %q %v %v", base, segments, ok)
	}
	if diff := cmp.Diff([]string{"_row", "info"}, segments); diff != "" {
		t.Fatalf("segments mismatch (-want +got):\n%s", diff)
	}

	for _, bad := range []string{"[0]", "a[0", "a[0]x", ""} {
		if _, _, ok := formdata.SplitName(bad); ok {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}

func TestMap(t *testing.T) {
	values, _ := formdata.Parse("title[part_1]=One&other=x&title[part_2]=Two&title[part_1]=Uno&title[a][b]=skip")
	got, ok := values.Map("title")
	if !ok {
		t.Fatal("expected title to be present")
	}
	want := map[string]string{"part_1": "Uno", "part_2": "Two"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("map mismatch (-want +got):\n%s", diff)
	}

	if _, ok := values.Map("missing"); ok {
		t.Fatal("expected missing base to report ok=false")
	}
}

func TestRows_FollowSubmissionOrder(t *testing.T) {
	// Row 2 was moved above row 0 in the browser; indexes keep their old values.
	raw := strings.Join([]string{
		"imgs%5B_row%5D%5Bimg%5D=",
		"imgs%5B2%5D%5Bimg%5D=c.png",
		"imgs%5B2%5D%5Binfo%5D=third",
		"imgs%5B0%5D%5Bimg%5D=a.png",
		"imgs%5B0%5D%5Binfo%5D=first",
		"imgs%5B1%5D%5Bimg%5D=b.png",
		"imgs%5B1%5D%5Binfo%5D=second",
	}, "&")

	values, err := formdata.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	rows, ok := values.Rows("imgs")
	if !ok {
		t.Fatal("expected rows to be present")
	}

	want := []map[string]string{
		{"img": "c.png", "info": "third"},
		{"img": "a.png", "info": "first"},
		{"img": "b.png", "info": "second"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestRows_TemplateOnly(t *testing.T) {
	values, _ := formdata.Parse("imgs%5B_row%5D%5Bimg%5D=&_imgs_sent=1")
	rows, ok := values.Rows("imgs")
	if !ok || len(rows) != 0 {
		t.Fatalf("expected present but empty rows, got %v %v", rows, ok)
	}
	if !values.HasBase("imgs") || values.HasBase("img") {
		t.Fatal("unexpected HasBase result")
	}
}

func TestFromURLValues_SortsKeys(t *testing.T) {
	got := formdata.FromURLValues(url.Values{"b": {"2"}, "a": {"1", "3"}})
	want := formdata.Values{{Key: "a", Value: "1"}, {Key: "a", Value: "3"}, {Key: "b", Value: "2"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestLookupAndLast(t *testing.T) {
	values, _ := formdata.Parse("featured=&featured=1&title=a")
	if first, _ := values.Lookup("featured"); first != "" {
		t.Fatalf("expected first value empty, got %q", first)
	}
	if last, ok := values.Last("featured"); !ok || last != "1" {
		t.Fatalf("expected last value 1, got %q %v", last, ok)
	}
	if _, ok := values.Last("missing"); ok {
		t.Fatal("expected missing key")
	}
}
