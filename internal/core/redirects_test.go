package core

import (
	"errors"
	"reflect"
	"testing"
)

var someSlugs = []string{"/", "/pricing"}

func TestBuildRedirects(t *testing.T) {
	tests := []struct {
		name string
		csv  string
		want []RedirectRecord
	}{
		{
			name: "destination normalized",
			csv:  "Old Page URL,Destination,Redirect Type\n/old,pricing,301",
			want: []RedirectRecord{{Old: "/old", Destination: "/pricing", Type: "301"}},
		},
		{
			name: "absolute destination stripped to path",
			csv:  "old,destination,redirect\n/a,https://example.com/about,302",
			want: []RedirectRecord{{Old: "/a", Destination: "/about", Type: "302"}},
		},
		{
			name: "missing destination column",
			csv:  "Old URL,Redirect Type\n/a,301\n/b,",
			want: []RedirectRecord{
				{Old: "/a", Destination: "", Type: "301"},
				{Old: "/b", Destination: "", Type: "301"},
			},
		},
		{
			name: "short rows fill with defaults",
			csv:  "Old,Destination,Redirect\n/only-old",
			want: []RedirectRecord{{Old: "/only-old", Destination: "", Type: "301"}},
		},
		{
			name: "columns in any order and case",
			csv:  "REDIRECT TYPE,new DESTINATION page,OLD\n308,/to,/from",
			want: []RedirectRecord{{Old: "/from", Destination: "/to", Type: "308"}},
		},
		{
			name: "leftmost matching header wins",
			csv:  "Old A,Old B,Redirect\n/first,/second,301",
			want: []RedirectRecord{{Old: "/first", Destination: "", Type: "301"}},
		},
		{
			name: "old value kept raw",
			csv:  "Old,Redirect\nhttps://legacy.com/Page?id=1,301",
			want: []RedirectRecord{{Old: "https://legacy.com/Page?id=1", Type: "301"}},
		},
		{
			name: "header only",
			csv:  "Old Page URL,Destination Page URL,Redirect Type",
			want: []RedirectRecord{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildRedirects(ParseCSV(tt.csv), someSlugs)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d records, want %d: %+v", len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("record %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestBuildRedirects_Errors(t *testing.T) {
	tests := []struct {
		name  string
		rows  []Row
		slugs []string
		want  error
	}{
		{"missing type column", ParseCSV("Old Page URL,Destination\n/a,/b"), someSlugs, ErrMissingRequiredColumns},
		{"missing old column", ParseCSV("Destination,Redirect Type\n/b,301"), someSlugs, ErrMissingRequiredColumns},
		{"no rows", nil, someSlugs, ErrEmptyTable},
		{"no slugs", ParseCSV("Old,Redirect\n/a,301"), nil, ErrNoSitemapLoaded},
		// The slug check runs before the row check.
		{"no slugs and no rows", nil, []string{}, ErrNoSitemapLoaded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildRedirects(tt.rows, tt.slugs)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if got != nil {
				t.Errorf("expected no records on error, got %+v", got)
			}
		})
	}
}

func TestEnsureLeadingSlash(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"/about", "/about"},
		{"about", "/about"},
		{"https://example.com/about", "/about"},
		{"HTTP://Example.com/about", "/about"},
		{"http://example.com", "/"},
		{"//about", "//about"},
		{"https://example.com//double", "/double"},
		{"ftp://example.com/x", "/ftp://example.com/x"},
		{"about/team", "/about/team"},
	}

	for _, tt := range tests {
		if got := EnsureLeadingSlash(tt.in); got != tt.want {
			t.Errorf("EnsureLeadingSlash(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func sampleRecords() []RedirectRecord {
	return []RedirectRecord{
		{Old: "/a", Destination: "", Type: "301"},
		{Old: "/b", Destination: "/keep", Type: "302"},
		{Old: "/c", Destination: "/x", Type: "301"},
	}
}

func TestApplyBulkDestination(t *testing.T) {
	records := sampleRecords()

	got := ApplyBulkDestination(records, "checkout")
	for i, r := range got {
		if r.Destination != "/checkout" {
			t.Errorf("record %d destination = %q, want /checkout", i, r.Destination)
		}
		if r.Old != records[i].Old || r.Type != records[i].Type {
			t.Errorf("record %d old/type changed: %+v", i, r)
		}
	}

	if !reflect.DeepEqual(records, sampleRecords()) {
		t.Error("input slice was modified")
	}
}

func TestApplyBulkDestination_EmptyIsNoop(t *testing.T) {
	records := sampleRecords()
	got := ApplyBulkDestination(records, "")
	if !reflect.DeepEqual(got, records) {
		t.Errorf("empty value changed records: %+v", got)
	}
}

func TestSetDestination(t *testing.T) {
	records := sampleRecords()

	got, err := SetDestination(records, 1, "https://example.com/new")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[1].Destination != "/new" {
		t.Errorf("destination = %q, want /new", got[1].Destination)
	}
	if records[1].Destination != "/keep" {
		t.Error("input slice was modified")
	}

	got, err = SetDestination(records, 0, "")
	if err != nil || got[0].Destination != "" {
		t.Errorf("clearing destination = (%+v, %v)", got[0], err)
	}

	for _, idx := range []int{-1, 3, 100} {
		if _, err := SetDestination(records, idx, "/x"); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("SetDestination(%d) err = %v, want ErrIndexOutOfRange", idx, err)
		}
	}
}

func TestResolveRedirectColumns(t *testing.T) {
	cols, err := ResolveRedirectColumns(Row{"Redirect Type", "Old Page URL", "Destination Page URL"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := RedirectColumns{Old: 1, Destination: 2, Type: 0}
	if cols != want {
		t.Errorf("cols = %+v, want %+v", cols, want)
	}
}
