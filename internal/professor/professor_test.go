package professor

import (
	"reflect"
	"testing"
)

func testDirectory() *Directory {
	return NewDirectory([]Person{
		{Name: "Gianna Del Corso", Link: "https://x/?c=giannadelcorso"},
		{Name: "Rossi Mario", Link: "https://x/?c=rossimario"},
		{Name: "Bianchi Anna Maria", Link: "https://x/?c=bianchiannamaria"},
	})
}

func TestLookup(t *testing.T) {
	d := testDirectory()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"exact", "rossi mario", "Rossi Mario"},
		{"exact with spacing", "  ROSSI   MARIO ", "Rossi Mario"},
		{"subset", "Del Corso", "Gianna Del Corso"},
		{"subset reordered", "Mario Rossi", "Rossi Mario"},
		{"single surname", "Rossi", "Rossi Mario"},
		{"reverse subset", "Gianna Maria Del Corso", "Gianna Del Corso"},
		{"subset of longer entry", "Anna Bianchi", "Bianchi Anna Maria"},
		{"single first name", "Maria", ""},
		{"single particle", "Del", ""},
		{"single given name", "Mario", ""},
		{"unknown", "Luca Verdi", ""},
		{"empty", "  ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := d.Lookup(tt.input)
			if tt.want == "" {
				if ok {
					t.Fatalf("Lookup(%q) = %q, want no match", tt.input, p.Name)
				}
				return
			}
			if !ok || p.Name != tt.want {
				t.Fatalf("Lookup(%q) = %q, %v; want %q", tt.input, p.Name, ok, tt.want)
			}
		})
	}
}

func TestLookupSingleTokenDoesNotReachLongerEntry(t *testing.T) {
	d := NewDirectory([]Person{{Name: "Gianna Maria Del Corso", Link: "l"}})
	if p, ok := d.Lookup("Maria"); ok {
		t.Fatalf("Maria matched %q", p.Name)
	}
	if _, ok := d.Lookup("Del Corso"); !ok {
		t.Fatal("Del Corso should match")
	}
}

func TestSurname(t *testing.T) {
	tests := map[string]string{
		"Del Corso Gianna": "DEL CORSO",
		"della Rocca Ugo":  "DELLA ROCCA",
		"Van Rossum Guido": "VAN ROSSUM",
		"Rossi Mario":      "ROSSI",
		"Rossi":            "ROSSI",
		"De":               "DE",
		"":                 "",
	}
	for in, want := range tests {
		if got := Surname(in); got != want {
			t.Errorf("Surname(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestResolve(t *testing.T) {
	d := testDirectory()
	got := d.Resolve("ROSSI MARIO, Luca Verdi,, Del Corso")
	want := []Match{
		{Name: "Rossi Mario", Label: "ROSSI", Link: "https://x/?c=rossimario"},
		{Name: "Luca Verdi"},
		{Name: "Del Corso", Label: "GIANNA", Link: "https://x/?c=giannadelcorso"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Resolve = %+v\nwant %+v", got, want)
	}
	if got[1].Linked() {
		t.Error("unknown teacher should not be linked")
	}
}

func TestNilDirectory(t *testing.T) {
	var d *Directory
	got := d.Resolve("Mario Rossi")
	if len(got) != 1 || got[0].Linked() || got[0].Name != "Mario Rossi" {
		t.Fatalf("Resolve on nil directory = %+v", got)
	}
	if d.Len() != 0 {
		t.Fatal("nil directory should be empty")
	}
}
