package csvfile

import (
	"strings"
	"testing"
)

func TestFetchParsesRows(t *testing.T) {
	src := `name,address,lat,lng,rating,ratingsTotal,visitTimeMin,types
Museum,1 Museum St,52.36,4.885,4.6,1200,60,museum|art_gallery
Park,,52.358,4.868,4.2,800,45,park
Cafe,2 Canal Rd,,,4.8,300,30,cafe
`
	places, err := Adapter{}.Fetch(strings.NewReader(src))
	if err != nil { t.Fatalf("fetch: %v", err) }
	if len(places) != 3 { t.Fatalf("got %d places, want 3", len(places)) }
	if places[0].Name != "Museum" || places[0].Rating != 4.6 { t.Fatalf("first row: %+v", places[0]) }
	if len(places[0].Types) != 2 { t.Fatalf("types: %v", places[0].Types) }
	if places[0].Location == nil || places[0].Location.Lat != 52.36 { t.Fatalf("location: %+v", places[0].Location) }
	// Cafe has no coordinates, location stays nil
	if places[2].Location != nil { t.Fatalf("cafe location should be nil: %+v", places[2].Location) }
}

func TestFetchRejectsMissingName(t *testing.T) {
	if _, err := (Adapter{}).Fetch(strings.NewReader("address,lat\nfoo,1\n")); err == nil {
		t.Fatal("expected error for missing name column")
	}
	if _, err := (Adapter{}).Fetch(strings.NewReader("name,rating\n,4.5\n")); err == nil {
		t.Fatal("expected error for empty name cell")
	}
}
