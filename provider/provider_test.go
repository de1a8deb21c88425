package provider

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/paulmach/orb/maptile"
)

const osmURL = "http://{subdomain}.tile.openstreetmap.org/{z}/{x}/{y}.{ext}"

func TestNewDefaults(t *testing.T) {
	p, err := New(Provider{
		ID:          "osm",
		Name:        "OpenStreetMap",
		Attribution: "© OpenStreetMap contributors",
		URL:         "http://tile.openstreetmap.org/{z}/{x}/{y}.{ext}",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if p.Extension != "png" {
		t.Errorf("expected extension png, got %s", p.Extension)
	}
	if p.Limit != 1 {
		t.Errorf("expected limit 1, got %d", p.Limit)
	}
	if len(p.Subdomains) != 0 {
		t.Errorf("expected no subdomains, got %v", p.Subdomains)
	}
}

func TestNewOverride(t *testing.T) {
	p, err := New(Provider{
		ID:         "osm",
		URL:        osmURL,
		Subdomains: []string{"a", "b", "c"},
		Extension:  "jpg",
		Limit:      2,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if !reflect.DeepEqual(p.Subdomains, []string{"a", "b", "c"}) {
		t.Errorf("unexpected subdomains %v", p.Subdomains)
	}
	if p.Extension != "jpg" || p.Limit != 2 {
		t.Errorf("expected jpg/2, got %s/%d", p.Extension, p.Limit)
	}
}

func TestNewInvalid(t *testing.T) {
	tests := []struct {
		name string
		p    Provider
		want string
	}{
		{"missing id", Provider{URL: "http://x/{z}"}, "id is required"},
		{"missing url", Provider{ID: "x"}, "url is required"},
		{"negative limit", Provider{ID: "x", URL: "http://x", Limit: -1}, "limit must be at least 1"},
		{"missing subdomains", Provider{ID: "x", URL: osmURL}, "no subdomains"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.p)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestTileURL(t *testing.T) {
	p, err := New(Provider{ID: "osm", URL: osmURL, Subdomains: []string{"a", "b", "c"}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	tests := []struct {
		tile maptile.Tile
		want string
	}{
		{maptile.New(0, 0, 0), "http://a.tile.openstreetmap.org/0/0/0.png"},
		{maptile.New(1, 0, 1), "http://b.tile.openstreetmap.org/1/1/0.png"},
		{maptile.New(1, 1, 1), "http://c.tile.openstreetmap.org/1/1/1.png"},
		{maptile.New(2, 1, 2), "http://a.tile.openstreetmap.org/2/2/1.png"},
	}
	for _, tt := range tests {
		if got := p.TileURL(tt.tile); got != tt.want {
			t.Errorf("tile %v: expected %s, got %s", tt.tile, tt.want, got)
		}
	}
}

func TestDescriptorsOrder(t *testing.T) {
	p, _ := New(Provider{ID: "x", URL: "http://x/{z}/{x}/{y}.{ext}"})
	tiles := []maptile.Tile{maptile.New(3, 4, 5), maptile.New(1, 2, 5)}

	ds := p.Descriptors(tiles)
	if len(ds) != 2 {
		t.Fatalf("expected 2 descriptors, got %d", len(ds))
	}
	for i, d := range ds {
		if d.Tile != tiles[i] {
			t.Errorf("descriptor %d: expected %v, got %v", i, tiles[i], d.Tile)
		}
	}
	if ds[0].URL != "http://x/5/3/4.png" {
		t.Errorf("unexpected url %s", ds[0].URL)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "osm.toml")
	data := `id = "osm"
name = "OpenStreetMap"
url = "http://{subdomain}.tile.openstreetmap.org/{z}/{x}/{y}.{ext}"
subdomains = ["a", "b", "c"]
extension = "jpg"
limit = 2
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.ID != "osm" || p.Name != "OpenStreetMap" || p.Extension != "jpg" || p.Limit != 2 {
		t.Errorf("unexpected provider %+v", p)
	}
	if !reflect.DeepEqual(p.Subdomains, []string{"a", "b", "c"}) {
		t.Errorf("unexpected subdomains %v", p.Subdomains)
	}
}

func TestLoadJSONDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.json")
	data := `{"id": "x", "name": "X", "url": "https://x.example.com/{z}/{x}/{y}.{ext}"}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Extension != "png" || p.Limit != 1 {
		t.Errorf("expected defaults png/1, got %s/%d", p.Extension, p.Limit)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestRegistry(t *testing.T) {
	r := Builtin()

	p, err := r.Find("osm")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if p.Limit != 2 {
		t.Errorf("expected osm limit 2, got %d", p.Limit)
	}

	if _, err := r.Find("nope"); !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("expected ErrUnknownProvider, got %v", err)
	}

	ids := r.IDs()
	for i := 1; i < len(ids); i++ {
		if ids[i-1] > ids[i] {
			t.Errorf("ids not sorted: %v", ids)
		}
	}
	if err := r.Register(&Provider{ID: "broken"}); err == nil {
		t.Error("expected invalid provider to be rejected")
	}
}

func TestBuiltinProviders(t *testing.T) {
	r := Builtin()

	expected := []string{"esri-world-imagery", "opentopomap", "osm", "stamen-toner"}
	ids := r.IDs()
	if len(ids) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, ids)
	}
	for i, id := range expected {
		if ids[i] != id {
			t.Errorf("expected %s at %d, got %s", id, i, ids[i])
		}
		p, err := r.Find(id)
		if err != nil {
			t.Fatalf("Find(%s): %v", id, err)
		}
		if err := p.Validate(); err != nil {
			t.Errorf("%s: %v", id, err)
		}
	}
}
