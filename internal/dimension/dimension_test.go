package dimension

import (
	"testing"

	"github.com/complaintpipe/complaintpipe/internal/model"
)

func TestByName_KnownAndUnknown(t *testing.T) {
	d, ok := ByName("Region")
	if !ok || d.Column != "region" {
		t.Fatalf("expected Region to resolve to the region column, got %+v ok=%v", d, ok)
	}
	if _, ok := ByName("Nonexistent"); ok {
		t.Fatal("expected an unknown dimension name to not resolve")
	}
}

func TestResolve_DropsUnknownNamesSilently(t *testing.T) {
	got := Resolve([]string{"Region", "Bogus", "City"})
	if len(got) != 2 {
		t.Fatalf("expected unknown names dropped, got %+v", got)
	}
	if got[0].Name != "Region" || got[1].Name != "City" {
		t.Fatalf("expected order preserved, got %+v", got)
	}
}

func TestDimension_SelectPullsCorrectColumn(t *testing.T) {
	row := model.ComplaintRaw{Region: "North", ExcID: "EX1", City: "Metropolis", SRType: "Billing", RCA: "Fiber Cut"}

	cases := []struct {
		d    Dimension
		want string
	}{
		{Region, "North"}, {Exchange, "EX1"}, {City, "Metropolis"}, {Type, "Billing"}, {RCA, "Fiber Cut"},
	}
	for _, c := range cases {
		if got := c.d.Select(row); got != c.want {
			t.Errorf("%s.Select = %q, want %q", c.d.Name, got, c.want)
		}
	}
}
